package feishu

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// lockAllActionValue is carried in the card button and echoed back in the
// action callback so unrelated card presses can be ignored.
const lockAllActionValue = "lock_all"

type card struct {
	Config   cardConfig `json:"config"`
	Header   cardHeader `json:"header"`
	Elements []any      `json:"elements"`
}

type cardConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
}

type cardHeader struct {
	Template string   `json:"template"`
	Title    cardText `json:"title"`
}

type cardText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type cardDiv struct {
	Tag  string   `json:"tag"`
	Text cardText `json:"text"`
}

type cardActionRow struct {
	Tag     string       `json:"tag"`
	Actions []cardButton `json:"actions"`
}

type cardButton struct {
	Tag   string         `json:"tag"`
	Text  cardText       `json:"text"`
	Type  string         `json:"type"`
	Value map[string]any `json:"value,omitempty"`
}

func deviceList(names []string) cardDiv {
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, "**"+name+"**")
	}
	return cardDiv{
		Tag:  "div",
		Text: cardText{Tag: "lark_md", Content: strings.Join(lines, "\n")},
	}
}

// unlockAlertCard renders the active alert: unlocked device list plus the
// lock-all button.
func unlockAlertCard(names []string) (string, error) {
	c := card{
		Config: cardConfig{WideScreenMode: true},
		Header: cardHeader{
			Template: "red",
			Title:    cardText{Tag: "plain_text", Content: "🔓 Smart locks left unlocked"},
		},
		Elements: []any{
			cardDiv{
				Tag:  "div",
				Text: cardText{Tag: "lark_md", Content: "Press the button to lock them remotely."},
			},
			deviceList(names),
			cardActionRow{
				Tag: "action",
				Actions: []cardButton{{
					Tag:   "button",
					Text:  cardText{Tag: "plain_text", Content: "Lock all"},
					Type:  "danger",
					Value: map[string]any{"action": lockAllActionValue},
				}},
			},
		},
	}
	return marshalCard(c)
}

// disabledAlertCard is the inert form patched over a consumed alert: same
// device list, button replaced by a note.
func disabledAlertCard(names []string) (string, error) {
	c := card{
		Config: cardConfig{WideScreenMode: true},
		Header: cardHeader{
			Template: "red",
			Title:    cardText{Tag: "plain_text", Content: "🔓 Smart locks left unlocked"},
		},
		Elements: []any{
			deviceList(names),
			cardDiv{
				Tag:  "div",
				Text: cardText{Tag: "lark_md", Content: "🔒 Lock all has been actioned."},
			},
		},
	}
	return marshalCard(c)
}

func marshalCard(c card) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "encode alert card")
	}
	return string(raw), nil
}
