package port

import "context"

// Notification colors understood by the messenger
const (
	ColorGreen = "green"
	ColorRed   = "red"
)

// ChannelMessenger posts operational messages to a named channel
type ChannelMessenger interface {
	Post(ctx context.Context, channel, subject, body, color string) error
}
