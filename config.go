package lockwatch

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lockwatch/lockwatch/internal/config"
)

const (
	defaultVendorBaseURL = "https://app.candyhouse.co/api/sesame2"
	defaultPollInterval  = 60 * time.Second
	defaultHistoryTag    = "LockWatch"
	defaultAlertMaxAge   = 24 * time.Hour
)

// DeviceConfig describes one configured lock. Immutable after load.
type DeviceConfig struct {
	// ID is the vendor UUID of the device.
	ID string
	// Name is the display name shown in alerts; defaults to ID.
	Name string
	// Secret is the per-device signing key as a 32-char hex string.
	Secret string
}

// Config carries everything the daemon needs, built once at startup.
type Config struct {
	APIKey        string
	VendorBaseURL string
	Devices       []DeviceConfig
	PollInterval  time.Duration

	AppID     string
	AppSecret string
	ChatID    string

	HistoryTag  string
	AlertMaxAge time.Duration
}

// LoadConfig reads the environment (after .env discovery) and validates it.
// All problems are reported in a single error so operators can fix the whole
// file in one pass; no partial configuration is ever returned.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKey:        config.String("SESAME_API_KEY", ""),
		VendorBaseURL: strings.TrimSuffix(config.String("SESAME_BASE_URL", defaultVendorBaseURL), "/"),
		AppID:         config.String("FEISHU_APP_ID", ""),
		AppSecret:     config.String("FEISHU_APP_SECRET", ""),
		ChatID:        config.String("LOCKWATCH_CHAT_ID", ""),
		HistoryTag:    config.String("LOCKWATCH_HISTORY_TAG", defaultHistoryTag),
		AlertMaxAge:   config.Duration("LOCKWATCH_ALERT_MAX_AGE", defaultAlertMaxAge),
	}

	var problems []string
	if cfg.APIKey == "" {
		problems = append(problems, "SESAME_API_KEY is required")
	}
	if cfg.AppID == "" {
		problems = append(problems, "FEISHU_APP_ID is required")
	}
	if cfg.AppSecret == "" {
		problems = append(problems, "FEISHU_APP_SECRET is required")
	}
	if cfg.ChatID == "" {
		problems = append(problems, "LOCKWATCH_CHAT_ID is required")
	}

	interval := config.String("CHECK_INTERVAL_SECONDS", "")
	cfg.PollInterval = defaultPollInterval
	if interval != "" {
		secs, err := strconv.Atoi(interval)
		switch {
		case err != nil:
			problems = append(problems, "CHECK_INTERVAL_SECONDS must be an integer")
		case secs <= 0:
			problems = append(problems, "CHECK_INTERVAL_SECONDS must be greater than zero")
		default:
			cfg.PollInterval = time.Duration(secs) * time.Second
		}
	}

	devices, deviceProblems := buildDeviceConfigs(
		config.List("SESAME_DEVICE_IDS"),
		config.List("SESAME_DEVICE_NAMES"),
		config.List("SESAME_SECRETS"),
	)
	cfg.Devices = devices
	problems = append(problems, deviceProblems...)

	if len(problems) > 0 {
		return nil, errors.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func buildDeviceConfigs(ids, names, secrets []string) ([]DeviceConfig, []string) {
	var problems []string
	if len(ids) == 0 {
		problems = append(problems, "SESAME_DEVICE_IDS is required")
	}
	if len(secrets) == 0 {
		problems = append(problems, "SESAME_SECRETS is required")
	}
	if len(ids) == 0 || len(secrets) == 0 {
		return nil, problems
	}
	if len(ids) != len(secrets) {
		problems = append(problems, "SESAME_DEVICE_IDS and SESAME_SECRETS must have the same number of entries")
		return nil, problems
	}

	devices := make([]DeviceConfig, 0, len(ids))
	for i, id := range ids {
		if id == "" {
			problems = append(problems, "SESAME_DEVICE_IDS contains an empty entry")
			continue
		}
		secret := secrets[i]
		if raw, err := hex.DecodeString(secret); err != nil || len(raw) != secretKeyLen {
			problems = append(problems, "SESAME_SECRETS entry for "+id+" is not a 32-char hex key")
		}
		name := ""
		if i < len(names) {
			name = names[i]
		}
		if name == "" {
			name = id
		}
		devices = append(devices, DeviceConfig{ID: id, Name: name, Secret: secret})
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return devices, nil
}
