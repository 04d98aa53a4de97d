package notify

import (
	"context"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"go.uber.org/zap"
)

// LogMessenger writes channel posts to the log. It is used when no chat
// backend is configured.
type LogMessenger struct {
	logger *zap.Logger
}

// NewLogMessenger creates a new log-only messenger
func NewLogMessenger(logger *zap.Logger) *LogMessenger {
	return &LogMessenger{logger: logger}
}

// Post logs the message and never fails
func (m *LogMessenger) Post(ctx context.Context, channel, subject, body, color string) error {
	m.logger.Info("Channel message",
		zap.String("channel", channel),
		zap.String("subject", subject),
		zap.String("color", color),
		zap.String("body", body))
	return nil
}

// Verify interface compliance
var _ port.ChannelMessenger = (*LogMessenger)(nil)
