package lockwatch

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ActionInvocation describes one press of the lock-all control, already
// acknowledged by the transport layer.
type ActionInvocation struct {
	// MessageID is the alert message carrying the pressed control.
	MessageID string
	// OperatorID identifies the user who pressed it, for the private reply.
	OperatorID string
}

// LockAllHandler services the lock-all control: it re-verifies which devices
// are unlocked right now (the alert may be stale), locks them, and reports
// the per-device outcome back to the operator in exactly one reply.
type LockAllHandler struct {
	devices   []DeviceConfig
	client    *DeviceClient
	notifier  *Notifier
	messenger Messenger
}

// NewLockAllHandler builds the handler.
func NewLockAllHandler(cfg *Config, client *DeviceClient, notifier *Notifier, messenger Messenger) (*LockAllHandler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if client == nil {
		return nil, errors.New("device client cannot be nil")
	}
	if notifier == nil {
		return nil, errors.New("notifier cannot be nil")
	}
	if messenger == nil {
		return nil, errors.New("messenger cannot be nil")
	}
	return &LockAllHandler{
		devices:   cfg.Devices,
		client:    client,
		notifier:  notifier,
		messenger: messenger,
	}, nil
}

// Handle processes one invocation. The pending-alert slot is not cleared
// here: slot lifetime is owned by the watcher's existence probe.
func (h *LockAllHandler) Handle(ctx context.Context, inv ActionInvocation) {
	log.Info().
		Str("message_id", inv.MessageID).
		Str("operator", inv.OperatorID).
		Msg("lock-all control pressed; re-checking device states")

	statuses := h.client.FetchStatuses(ctx, h.devices)
	unlocked := h.unlockedDevices(statuses)

	if len(unlocked) == 0 {
		h.reply(ctx, inv.OperatorID, "✅ All devices were already locked.")
		h.disableControl(ctx, inv, nil)
		return
	}

	succeeded, failed := h.lockAll(ctx, unlocked)
	var sb strings.Builder
	if len(succeeded) > 0 {
		sb.WriteString("✅ Locked: " + strings.Join(succeeded, ", "))
	}
	if len(failed) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("❌ Failed to lock: " + strings.Join(failed, ", "))
	}
	h.reply(ctx, inv.OperatorID, sb.String())
	h.disableControl(ctx, inv, deviceNames(unlocked))
}

func (h *LockAllHandler) lockAll(ctx context.Context, unlocked []DeviceConfig) (succeeded, failed []string) {
	results := make([]bool, len(unlocked))
	g, ctx := errgroup.WithContext(ctx)
	for i, device := range unlocked {
		i, device := i, device
		g.Go(func() error {
			results[i] = h.client.SendLock(ctx, device.ID, device.Secret)
			return nil
		})
	}
	_ = g.Wait()
	for i, ok := range results {
		if ok {
			succeeded = append(succeeded, unlocked[i].Name)
		} else {
			failed = append(failed, unlocked[i].Name)
		}
	}
	return succeeded, failed
}

func (h *LockAllHandler) unlockedDevices(statuses []DeviceStatus) []DeviceConfig {
	byID := make(map[string]LockState, len(statuses))
	for _, status := range statuses {
		byID[status.ID] = status.State
	}
	var unlocked []DeviceConfig
	for _, device := range h.devices {
		if byID[device.ID] == LockStateUnlocked {
			unlocked = append(unlocked, device)
		}
	}
	return unlocked
}

func (h *LockAllHandler) reply(ctx context.Context, operatorID, text string) {
	if err := h.messenger.ReplyOperator(ctx, operatorID, text); err != nil {
		log.Error().Err(err).Str("operator", operatorID).Msg("reply to operator failed")
	}
}

// disableControl neutralizes the control on the alert that was pressed. The
// disabled card re-renders the device list, preferring the names recorded
// with the pending alert over whatever was just re-fetched.
func (h *LockAllHandler) disableControl(ctx context.Context, inv ActionInvocation, fallback []string) {
	names := h.notifier.pendingNames()
	if len(names) == 0 {
		names = fallback
	}
	h.notifier.DisableAction(ctx, inv.MessageID, names)
}

func deviceNames(devices []DeviceConfig) []string {
	names := make([]string, 0, len(devices))
	for _, device := range devices {
		names = append(names, device.Name)
	}
	return names
}
