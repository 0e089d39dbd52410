package lockwatch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const testAPIKey = "test-api-key"

// fakeVendor emulates the vendor cloud API: GET /{id} for status, POST
// /{id}/cmd for lock commands.
type fakeVendor struct {
	mu sync.Mutex
	// states maps device id to the raw CHSesame2Status value returned on GET.
	states map[string]string
	// statusCodes overrides the GET response code per device (default 200).
	statusCodes map[string]int
	// lockCodes overrides the POST /cmd response code per device (default 200).
	lockCodes map[string]int
	// lockFlips makes a successful lock command set the device state to locked.
	lockFlips bool

	statusCalls map[string]int
	lockCalls   map[string]int
	lastCommand map[string]map[string]any
}

func newFakeVendor() *fakeVendor {
	return &fakeVendor{
		states:      make(map[string]string),
		statusCodes: make(map[string]int),
		lockCodes:   make(map[string]int),
		statusCalls: make(map[string]int),
		lockCalls:   make(map[string]int),
		lastCommand: make(map[string]map[string]any),
	}
}

func (v *fakeVendor) setState(deviceID, state string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.states[deviceID] = state
}

func (v *fakeVendor) lockCallCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	total := 0
	for _, n := range v.lockCalls {
		total += n
	}
	return total
}

func (v *fakeVendor) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != testAPIKey {
			t.Errorf("request %s missing api key, got %q", r.URL.Path, got)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/")

		v.mu.Lock()
		defer v.mu.Unlock()

		if deviceID, ok := strings.CutSuffix(path, "/cmd"); ok && r.Method == http.MethodPost {
			v.lockCalls[deviceID]++
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode lock command for %s: %v", deviceID, err)
			}
			v.lastCommand[deviceID] = payload
			code := v.lockCodes[deviceID]
			if code == 0 {
				code = http.StatusOK
			}
			if code == http.StatusOK && v.lockFlips {
				v.states[deviceID] = "locked"
			}
			w.WriteHeader(code)
			return
		}

		v.statusCalls[path]++
		code := v.statusCodes[path]
		if code == 0 {
			code = http.StatusOK
		}
		if code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		state, ok := v.states[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"CHSesame2Status": state,
			"batteryVoltage":  5.9,
		})
	})
}

func newTestDeviceClient(t *testing.T, vendor *fakeVendor) (*DeviceClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(vendor.handler(t))
	t.Cleanup(server.Close)
	client, err := NewDeviceClient(server.URL, testAPIKey, "LockWatch", server.Client())
	if err != nil {
		t.Fatalf("NewDeviceClient returned error: %v", err)
	}
	return client, server
}
