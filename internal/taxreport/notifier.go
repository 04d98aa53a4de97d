package taxreport

import (
	"context"
	"fmt"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"go.uber.org/zap"
)

const (
	DefaultChannel = "payments"
	DefaultSubject = "India Sales Reporting"
)

// Notifier reports run outcomes to the operations channel. Delivery is best
// effort: failures are logged and never returned.
type Notifier struct {
	messenger port.ChannelMessenger
	channel   string
	subject   string
	logger    *zap.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(messenger port.ChannelMessenger, channel, subject string, logger *zap.Logger) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &Notifier{
		messenger: messenger,
		channel:   channel,
		subject:   subject,
		logger:    logger,
	}
}

// NotifySuccess posts the report link in green
func (n *Notifier) NotifySuccess(ctx context.Context, period entity.ReportingPeriod, rowCount int, artifact *Artifact) {
	body := fmt.Sprintf("India sales report for %s is ready (%d transactions): %s", period, rowCount, artifact.URL)
	n.post(ctx, body, port.ColorGreen)
}

// NotifyFailure posts the failure reason in red
func (n *Notifier) NotifyFailure(ctx context.Context, period entity.ReportingPeriod, cause error) {
	body := fmt.Sprintf("India sales report for %s failed: %v", period, cause)
	n.post(ctx, body, port.ColorRed)
}

func (n *Notifier) post(ctx context.Context, body, color string) {
	if err := n.messenger.Post(ctx, n.channel, n.subject, body, color); err != nil {
		n.logger.Warn("Failed to post report notification",
			zap.String("channel", n.channel),
			zap.String("color", color),
			zap.Error(err))
		return
	}
	n.logger.Debug("Report notification posted",
		zap.String("channel", n.channel),
		zap.String("color", color))
}
