package feishu

import (
	"context"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher/callback"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
	"github.com/rs/zerolog/log"
)

// LockAllFunc receives one lock-all press after it has been acknowledged.
type LockAllFunc func(messageID, operatorID string)

// StartEvents opens the long-lived websocket connection and dispatches card
// action callbacks. The toast returned from the callback is the immediate
// acknowledgement the platform requires; the actual lock work runs in its
// own goroutine so the callback never blocks on vendor API calls.
//
// Blocks until ctx is cancelled or the connection fails.
func (c *Client) StartEvents(ctx context.Context, onLockAll LockAllFunc) error {
	handler := dispatcher.NewEventDispatcher("", "").
		OnP2CardActionTrigger(func(_ context.Context, event *callback.CardActionTriggerEvent) (*callback.CardActionTriggerResponse, error) {
			messageID, operatorID, ok := decodeLockAllTrigger(event)
			if !ok {
				return &callback.CardActionTriggerResponse{}, nil
			}
			log.Info().
				Str("message_id", messageID).
				Str("operator", operatorID).
				Msg("lock-all card action received")
			if onLockAll != nil {
				// Work continues on the daemon context, not the callback's:
				// the callback context ends once the toast is returned.
				go onLockAll(messageID, operatorID)
			}
			return &callback.CardActionTriggerResponse{
				Toast: &callback.Toast{Type: "info", Content: "Locking unlocked devices..."},
			}, nil
		})

	ws := larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(handler),
		larkws.WithLogLevel(larkcore.LogLevelWarn),
	)
	log.Info().Msg("starting feishu event connection")
	return ws.Start(ctx)
}

func decodeLockAllTrigger(event *callback.CardActionTriggerEvent) (messageID, operatorID string, ok bool) {
	if event == nil || event.Event == nil || event.Event.Action == nil {
		return "", "", false
	}
	if action, _ := event.Event.Action.Value["action"].(string); action != lockAllActionValue {
		return "", "", false
	}
	if event.Event.Context != nil {
		messageID = event.Event.Context.OpenMessageID
	}
	if event.Event.Operator != nil {
		operatorID = event.Event.Operator.OpenID
	}
	return messageID, operatorID, messageID != ""
}
