package lockwatch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// lockOpcode is the vendor command code for "lock".
const lockOpcode = 82

// DeviceClient talks to the vendor cloud API for status reads and lock
// commands. All per-device failures are contained here: GetStatus degrades
// to LockStateUnknown and SendLock reports a plain boolean, so callers never
// have to unwind a single device's error.
type DeviceClient struct {
	baseURL    string
	apiKey     string
	historyTag string
	httpClient *http.Client
}

// NewDeviceClient builds a client around a shared HTTP client. Passing a nil
// httpClient installs one with a conservative timeout.
func NewDeviceClient(baseURL, apiKey, historyTag string, httpClient *http.Client) (*DeviceClient, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("vendor base url is empty")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("vendor api key is empty")
	}
	if strings.TrimSpace(historyTag) == "" {
		historyTag = defaultHistoryTag
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &DeviceClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		historyTag: historyTag,
		httpClient: httpClient,
	}, nil
}

// GetStatus fetches the current lock state of one device. It never returns
// an error: transport failures, non-200 responses, and unrecognized bodies
// all map to LockStateUnknown and are logged once.
func (c *DeviceClient) GetStatus(ctx context.Context, deviceID string) DeviceStatus {
	status := DeviceStatus{ID: deviceID, State: LockStateUnknown}
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, deviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("build status request failed")
		return status
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("vendor status request failed")
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("device_id", deviceID).
			Str("body", strings.TrimSpace(string(body))).
			Msg("vendor status request rejected")
		return status
	}

	var parsed struct {
		LockStatus string `json:"CHSesame2Status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("decode vendor status response failed")
		return status
	}
	status.State = parseLockState(parsed.LockStatus)
	if status.State == LockStateUnknown {
		log.Error().
			Str("device_id", deviceID).
			Str("reported", parsed.LockStatus).
			Msg("vendor reported unrecognized lock state")
	}
	return status
}

// FetchStatuses resolves the state of every configured device concurrently.
// Results keep the order of the input slice; a failing device does not block
// the others.
func (c *DeviceClient) FetchStatuses(ctx context.Context, devices []DeviceConfig) []DeviceStatus {
	statuses := make([]DeviceStatus, len(devices))
	g, ctx := errgroup.WithContext(ctx)
	for i, device := range devices {
		i, device := i, device
		g.Go(func() error {
			statuses[i] = c.GetStatus(ctx, device.ID)
			return nil
		})
	}
	// Goroutines only record statuses, they never fail the group.
	_ = g.Wait()
	return statuses
}

// SendLock signs and sends a lock command to one device. Returns true only
// on HTTP 200; every other outcome is logged and reported as false.
func (c *DeviceClient) SendLock(ctx context.Context, deviceID, secretHex string) bool {
	sign, err := SignCommand(secretHex)
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("sign lock command failed")
		return false
	}
	payload := map[string]any{
		"cmd":     lockOpcode,
		"history": base64.StdEncoding.EncodeToString([]byte(c.historyTag)),
		"sign":    sign,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("encode lock command failed")
		return false
	}

	endpoint := fmt.Sprintf("%s/%s/cmd", c.baseURL, deviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("build lock request failed")
		return false
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("vendor lock request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("device_id", deviceID).
			Str("body", strings.TrimSpace(string(respBody))).
			Msg("vendor lock command rejected")
		return false
	}
	log.Info().Str("device_id", deviceID).Msg("lock command accepted")
	return true
}
