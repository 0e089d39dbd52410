// Package feishu adapts the Lark open platform APIs to the small messaging
// surface the daemon needs: post the alert card, probe it, neutralize its
// control, and reach the operator who pressed it.
package feishu

import (
	"context"
	"encoding/json"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Client wraps the Lark REST client plus the websocket event connection.
type Client struct {
	appID     string
	appSecret string
	chatID    string
	lark      *lark.Client
}

// NewClient validates the credentials and builds the REST client.
func NewClient(appID, appSecret, chatID string) (*Client, error) {
	appID = strings.TrimSpace(appID)
	appSecret = strings.TrimSpace(appSecret)
	chatID = strings.TrimSpace(chatID)
	if appID == "" || appSecret == "" {
		return nil, errors.New("feishu app credentials are empty")
	}
	if chatID == "" {
		return nil, errors.New("feishu target chat id is empty")
	}
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		chatID:    chatID,
		lark:      lark.NewClient(appID, appSecret),
	}, nil
}

// Verify confirms the credentials work and the bot can see the target chat.
// Called once at startup, before any polling begins; a failure here is fatal
// to the process.
func (c *Client) Verify(ctx context.Context) error {
	req := larkim.NewGetChatReqBuilder().ChatId(c.chatID).Build()
	resp, err := c.lark.Im.Chat.Get(ctx, req)
	if err != nil {
		return errors.Wrap(err, "reach feishu api")
	}
	if !resp.Success() {
		return errors.Errorf("bot cannot access chat %s: code=%d msg=%s", c.chatID, resp.Code, resp.Msg)
	}
	log.Info().Str("chat_id", c.chatID).Msg("feishu chat access verified")
	return nil
}

// PostUnlockAlert posts the alert card to the configured chat and returns
// the created message id.
func (c *Client) PostUnlockAlert(ctx context.Context, names []string) (string, error) {
	card, err := unlockAlertCard(names)
	if err != nil {
		return "", err
	}
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(c.chatID).
			MsgType(larkim.MsgTypeInteractive).
			Content(card).
			Build()).
		Build()
	resp, err := c.lark.Im.Message.Create(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "post alert card")
	}
	if !resp.Success() {
		return "", errors.Errorf("post alert card rejected: code=%d msg=%s", resp.Code, resp.Msg)
	}
	if resp.Data == nil || resp.Data.MessageId == nil {
		return "", errors.New("post alert card returned no message id")
	}
	return *resp.Data.MessageId, nil
}

// AlertExists reports whether the alert message is still present. Transport
// failures return an error; an API-level rejection means the message is no
// longer reachable (deleted or recalled) and reports (false, nil).
func (c *Client) AlertExists(ctx context.Context, messageID string) (bool, error) {
	req := larkim.NewGetMessageReqBuilder().MessageId(messageID).Build()
	resp, err := c.lark.Im.Message.Get(ctx, req)
	if err != nil {
		return false, errors.Wrap(err, "fetch alert message")
	}
	if !resp.Success() {
		log.Debug().
			Str("message_id", messageID).
			Int("code", resp.Code).
			Str("msg", resp.Msg).
			Msg("alert message no longer reachable")
		return false, nil
	}
	return true, nil
}

// DisableAlertAction patches the alert card into its inert form.
func (c *Client) DisableAlertAction(ctx context.Context, messageID string, names []string) error {
	card, err := disabledAlertCard(names)
	if err != nil {
		return err
	}
	req := larkim.NewPatchMessageReqBuilder().
		MessageId(messageID).
		Body(larkim.NewPatchMessageReqBodyBuilder().
			Content(card).
			Build()).
		Build()
	resp, err := c.lark.Im.Message.Patch(ctx, req)
	if err != nil {
		return errors.Wrap(err, "patch alert card")
	}
	if !resp.Success() {
		return errors.Errorf("patch alert card rejected: code=%d msg=%s", resp.Code, resp.Msg)
	}
	return nil
}

// ReplyOperator sends a direct message to the operator identified by open id.
// Feishu has no ephemeral replies, so a p2p message is the private channel.
func (c *Client) ReplyOperator(ctx context.Context, operatorID, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return errors.Wrap(err, "encode reply")
	}
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeOpenId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(operatorID).
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			Build()).
		Build()
	resp, err := c.lark.Im.Message.Create(ctx, req)
	if err != nil {
		return errors.Wrap(err, "send operator reply")
	}
	if !resp.Success() {
		return errors.Errorf("operator reply rejected: code=%d msg=%s", resp.Code, resp.Msg)
	}
	return nil
}
