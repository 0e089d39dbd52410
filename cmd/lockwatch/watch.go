package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lockwatch/lockwatch"
	"github.com/lockwatch/lockwatch/internal/feishu"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the polling daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := lockwatch.LoadConfig()
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg)
		},
	}
}

func runWatch(parent context.Context, cfg *lockwatch.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One pooled HTTP client shared by the poll loop and the action handler.
	httpClient := &http.Client{Timeout: 15 * time.Second}
	defer httpClient.CloseIdleConnections()

	deviceClient, err := lockwatch.NewDeviceClient(cfg.VendorBaseURL, cfg.APIKey, cfg.HistoryTag, httpClient)
	if err != nil {
		return errors.Wrap(err, "init device client")
	}
	messenger, err := feishu.NewClient(cfg.AppID, cfg.AppSecret, cfg.ChatID)
	if err != nil {
		return errors.Wrap(err, "init feishu client")
	}

	// Polling must not start before the chat session is usable.
	if err := messenger.Verify(ctx); err != nil {
		return errors.Wrap(err, "verify chat access")
	}

	notifier := lockwatch.NewNotifier(messenger, cfg.AlertMaxAge)
	watcher, err := lockwatch.NewWatcher(cfg, deviceClient, notifier)
	if err != nil {
		return errors.Wrap(err, "init watcher")
	}
	handler, err := lockwatch.NewLockAllHandler(cfg, deviceClient, notifier, messenger)
	if err != nil {
		return errors.Wrap(err, "init lock-all handler")
	}

	group, ctx := errgroup.WithContext(ctx)
	lockwatch.GoSupervised(ctx, group, "watcher", watcher.Start)
	lockwatch.GoSupervised(ctx, group, "events", func(ctx context.Context) error {
		return messenger.StartEvents(ctx, func(messageID, operatorID string) {
			handler.Handle(ctx, lockwatch.ActionInvocation{
				MessageID:  messageID,
				OperatorID: operatorID,
			})
		})
	})
	return group.Wait()
}
