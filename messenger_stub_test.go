package lockwatch

import (
	"context"
	"fmt"
	"sync"
)

// fakeMessenger records chat interactions and simulates message deletion.
type fakeMessenger struct {
	mu        sync.Mutex
	nextID    int
	posted    [][]string
	postedIDs []string
	live      map[string]bool
	existsErr error
	postErr   error
	disabled  []string
	replies   []string
	replyTo   []string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{live: make(map[string]bool)}
}

func (m *fakeMessenger) PostUnlockAlert(ctx context.Context, names []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return "", m.postErr
	}
	m.nextID++
	id := fmt.Sprintf("msg-%d", m.nextID)
	m.posted = append(m.posted, append([]string(nil), names...))
	m.postedIDs = append(m.postedIDs, id)
	m.live[id] = true
	return id, nil
}

func (m *fakeMessenger) AlertExists(ctx context.Context, messageID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.live[messageID], nil
}

func (m *fakeMessenger) DisableAlertAction(ctx context.Context, messageID string, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = append(m.disabled, messageID)
	return nil
}

func (m *fakeMessenger) ReplyOperator(ctx context.Context, operatorID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replyTo = append(m.replyTo, operatorID)
	m.replies = append(m.replies, text)
	return nil
}

func (m *fakeMessenger) deleteMessage(messageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[messageID] = false
}

func (m *fakeMessenger) postCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}
