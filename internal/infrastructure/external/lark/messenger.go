package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"go.uber.org/zap"
)

const chatIDPrefix = "oc_"

// Messenger implements port.ChannelMessenger with Lark interactive cards
// posted to group chats
type Messenger struct {
	messageAPI *MessageAPI
	channels   map[string]string
	logger     *zap.Logger
}

// NewMessenger creates a new Lark channel messenger. channels maps logical
// channel names such as "payments" to Lark chat IDs.
func NewMessenger(messageAPI *MessageAPI, channels map[string]string, logger *zap.Logger) *Messenger {
	normalized := make(map[string]string, len(channels))
	for name, chatID := range channels {
		normalized[strings.ToLower(name)] = chatID
	}
	return &Messenger{
		messageAPI: messageAPI,
		channels:   normalized,
		logger:     logger,
	}
}

// Post sends a card with a colored header to the chat mapped to channel
func (m *Messenger) Post(ctx context.Context, channel, subject, body, color string) error {
	chatID, err := m.resolveChat(channel)
	if err != nil {
		return err
	}

	cardJSON, err := json.Marshal(BuildCard(subject, body, color))
	if err != nil {
		return fmt.Errorf("failed to marshal card content: %w", err)
	}

	if _, err := m.messageAPI.SendMessage(ctx, "chat_id", chatID, "interactive", string(cardJSON)); err != nil {
		return fmt.Errorf("failed to post to channel %s: %w", channel, err)
	}
	return nil
}

func (m *Messenger) resolveChat(channel string) (string, error) {
	if chatID, ok := m.channels[strings.ToLower(channel)]; ok && chatID != "" {
		return chatID, nil
	}
	// Raw chat IDs are accepted as-is
	if strings.HasPrefix(channel, chatIDPrefix) {
		return channel, nil
	}
	return "", fmt.Errorf("no lark chat configured for channel %q", channel)
}

// BuildCard builds an interactive card. Color is a Lark header template
// such as "green" or "red".
func BuildCard(subject, body, color string) map[string]interface{} {
	if color == "" {
		color = "blue"
	}
	return map[string]interface{}{
		"config": map[string]interface{}{
			"wide_screen_mode": true,
		},
		"header": map[string]interface{}{
			"template": color,
			"title": map[string]interface{}{
				"tag":     "plain_text",
				"content": subject,
			},
		},
		"elements": []interface{}{
			map[string]interface{}{
				"tag": "div",
				"text": map[string]interface{}{
					"tag":     "lark_md",
					"content": body,
				},
			},
		},
	}
}

// Verify interface compliance
var _ port.ChannelMessenger = (*Messenger)(nil)
