package lockwatch

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Watcher runs the periodic status poll: fetch every configured device,
// find the unlocked ones, and raise a single alert through the notifier.
type Watcher struct {
	devices  []DeviceConfig
	client   *DeviceClient
	notifier *Notifier
	interval time.Duration
}

// NewWatcher builds the polling loop.
func NewWatcher(cfg *Config, client *DeviceClient, notifier *Notifier) (*Watcher, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if client == nil {
		return nil, errors.New("device client cannot be nil")
	}
	if notifier == nil {
		return nil, errors.New("notifier cannot be nil")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("poll interval must be greater than zero")
	}
	return &Watcher{
		devices:  cfg.Devices,
		client:   client,
		notifier: notifier,
		interval: cfg.PollInterval,
	}, nil
}

// Start polls until the context is cancelled. The first cycle runs
// immediately instead of waiting for the first tick.
func (w *Watcher) Start(ctx context.Context) error {
	log.Info().
		Int("devices", len(w.devices)).
		Dur("interval", w.interval).
		Msg("start lock watcher")

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single poll cycle.
func (w *Watcher) RunOnce(ctx context.Context) {
	statuses := w.client.FetchStatuses(ctx, w.devices)
	unlocked := w.unlockedNames(statuses)

	// One live alert at a time, regardless of how many devices have gone
	// unlocked since it was posted. The probe also clears the slot once the
	// message is gone, so the check runs even when nothing is unlocked.
	if w.notifier.AlertLive(ctx) {
		log.Debug().Msg("previous alert still live; skipping")
		return
	}
	if len(unlocked) == 0 {
		return
	}

	log.Info().Strs("devices", unlocked).Msg("unlocked devices detected")
	if err := w.notifier.Post(ctx, unlocked); err != nil {
		log.Error().Err(err).Msg("post unlock alert failed")
	}
}

// unlockedNames maps the unlocked statuses to display names, preserving the
// configured device order. Unknown devices are left out entirely.
func (w *Watcher) unlockedNames(statuses []DeviceStatus) []string {
	byID := make(map[string]string, len(w.devices))
	for _, device := range w.devices {
		byID[device.ID] = device.Name
	}
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		if status.State != LockStateUnlocked {
			continue
		}
		name, ok := byID[status.ID]
		if !ok {
			name = status.ID
		}
		names = append(names, name)
	}
	return names
}
