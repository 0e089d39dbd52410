package lockwatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// pendingAlert is the single outstanding "devices unlocked" message. There
// is at most one per process; the slot starts empty after a restart, which
// can produce one duplicate alert for a still-unlocked device. That matches
// the documented behavior and is accepted instead of adding persistence.
type pendingAlert struct {
	messageID string
	postedAt  time.Time
	names     []string
	retired   bool
}

// Notifier owns the pending-alert slot. The watcher goroutine and the
// lock-all handler both touch it, so the slot is guarded by a mutex rather
// than relying on any scheduling assumptions.
type Notifier struct {
	messenger Messenger
	// maxAge controls stale retirement: an alert older than this has its
	// control disabled but keeps suppressing new alerts until the message
	// itself disappears. Zero disables retirement.
	maxAge time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	pending *pendingAlert
}

// NewNotifier wires a notifier to its chat collaborator.
func NewNotifier(messenger Messenger, maxAge time.Duration) *Notifier {
	return &Notifier{
		messenger: messenger,
		maxAge:    maxAge,
		clock:     time.Now,
	}
}

// AlertLive probes whether the outstanding alert message still exists. A
// missing message clears the slot so the next unlocked cycle can post again.
// A probe failure keeps the slot as-is and reports the alert live, which is
// the conservative side of the one-live-alert invariant.
func (n *Notifier) AlertLive(ctx context.Context) bool {
	n.mu.Lock()
	pending := n.pending
	n.mu.Unlock()
	if pending == nil {
		return false
	}

	exists, err := n.messenger.AlertExists(ctx, pending.messageID)
	if err != nil {
		log.Warn().Err(err).Str("message_id", pending.messageID).Msg("alert existence probe failed; assuming still live")
		return true
	}
	if !exists {
		log.Info().Str("message_id", pending.messageID).Msg("previous alert is gone; clearing slot")
		n.mu.Lock()
		if n.pending == pending {
			n.pending = nil
		}
		n.mu.Unlock()
		return false
	}

	n.retireIfStale(ctx, pending)
	return true
}

func (n *Notifier) retireIfStale(ctx context.Context, pending *pendingAlert) {
	if n.maxAge <= 0 || pending.retired {
		return
	}
	if n.clock().Sub(pending.postedAt) < n.maxAge {
		return
	}
	log.Info().
		Str("message_id", pending.messageID).
		Dur("age", n.clock().Sub(pending.postedAt)).
		Msg("retiring stale alert control")
	n.DisableAction(ctx, pending.messageID, pending.names)
	n.mu.Lock()
	pending.retired = true
	n.mu.Unlock()
}

// Post sends a new alert for the given unlocked devices and occupies the
// slot with the returned message handle.
func (n *Notifier) Post(ctx context.Context, names []string) error {
	messageID, err := n.messenger.PostUnlockAlert(ctx, names)
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.pending = &pendingAlert{
		messageID: messageID,
		postedAt:  n.clock(),
		names:     append([]string(nil), names...),
	}
	n.mu.Unlock()
	log.Info().Str("message_id", messageID).Strs("devices", names).Msg("posted unlock alert")
	return nil
}

// DisableAction neutralizes the lock-all control on a posted alert. Best
// effort: a vanished message or a denied edit is logged and swallowed.
func (n *Notifier) DisableAction(ctx context.Context, messageID string, names []string) {
	if err := n.messenger.DisableAlertAction(ctx, messageID, names); err != nil {
		log.Warn().Err(err).Str("message_id", messageID).Msg("disable alert control failed")
	}
}

// pendingNames returns the device names recorded with the outstanding alert,
// or nil when the slot is empty.
func (n *Notifier) pendingNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == nil {
		return nil
	}
	return append([]string(nil), n.pending.names...)
}
