package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lockwatch/lockwatch"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Fetch and print the current state of every configured device",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := oneShotClient()
			if err != nil {
				return err
			}
			statuses := client.FetchStatuses(cmd.Context(), cfg.Devices)
			names := make(map[string]string, len(cfg.Devices))
			for _, device := range cfg.Devices {
				names[device.ID] = device.Name
			}
			for _, status := range statuses {
				fmt.Printf("%-20s %s\n", names[status.ID], status.State)
			}
			return nil
		},
	}
}

func newLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock [device-name...]",
		Short: "Send a lock command to the named devices (all configured devices by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := oneShotClient()
			if err != nil {
				return err
			}
			targets, err := selectDevices(cfg.Devices, args)
			if err != nil {
				return err
			}
			failures := 0
			for _, device := range targets {
				if client.SendLock(cmd.Context(), device.ID, device.Secret) {
					fmt.Printf("%-20s locked\n", device.Name)
				} else {
					fmt.Printf("%-20s FAILED\n", device.Name)
					failures++
				}
			}
			if failures > 0 {
				return errors.Errorf("%d device(s) failed to lock", failures)
			}
			return nil
		},
	}
}

func oneShotClient() (*lockwatch.Config, *lockwatch.DeviceClient, error) {
	cfg, err := lockwatch.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := lockwatch.NewDeviceClient(cfg.VendorBaseURL, cfg.APIKey, cfg.HistoryTag, &http.Client{Timeout: 15 * time.Second})
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func selectDevices(devices []lockwatch.DeviceConfig, names []string) ([]lockwatch.DeviceConfig, error) {
	if len(names) == 0 {
		return devices, nil
	}
	byName := make(map[string]lockwatch.DeviceConfig, len(devices))
	for _, device := range devices {
		byName[device.Name] = device
		byName[device.ID] = device
	}
	selected := make([]lockwatch.DeviceConfig, 0, len(names))
	for _, name := range names {
		device, ok := byName[name]
		if !ok {
			return nil, errors.Errorf("unknown device %q", name)
		}
		selected = append(selected, device)
	}
	return selected, nil
}
