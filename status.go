package lockwatch

// LockState is the per-poll view of a device's bolt position.
type LockState string

const (
	LockStateLocked   LockState = "locked"
	LockStateUnlocked LockState = "unlocked"
	// LockStateUnknown covers API failures and unrecognized responses. An
	// unknown device is excluded from both unlocked and locked accounting.
	LockStateUnknown LockState = "unknown"
)

// DeviceStatus is the result of one status fetch. Derived per poll cycle,
// never persisted.
type DeviceStatus struct {
	ID    string
	State LockState
}

func parseLockState(raw string) LockState {
	switch raw {
	case "locked":
		return LockStateLocked
	case "unlocked":
		return LockStateUnlocked
	default:
		return LockStateUnknown
	}
}
