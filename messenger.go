package lockwatch

import "context"

// Messenger is the chat-platform collaborator. The daemon only needs a small
// surface: post an alert card with its lock-all control, check whether a
// posted alert still exists, neutralize its control, and reach the operator
// who pressed it.
type Messenger interface {
	// PostUnlockAlert posts an alert listing the unlocked devices by display
	// name and returns the handle of the created message.
	PostUnlockAlert(ctx context.Context, names []string) (string, error)
	// AlertExists reports whether the message behind the handle is still
	// present. A deleted message yields (false, nil); transport problems
	// yield an error with the liveness undecided.
	AlertExists(ctx context.Context, messageID string) (bool, error)
	// DisableAlertAction replaces the alert's control with an inert state.
	DisableAlertAction(ctx context.Context, messageID string, names []string) error
	// ReplyOperator sends a private message to the invoking operator.
	ReplyOperator(ctx context.Context, operatorID, text string) error
}
