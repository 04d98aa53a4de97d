package taxreport

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"go.uber.org/zap"
)

const (
	// DefaultLinkTTL bounds how long a published report link stays valid
	DefaultLinkTTL = 7 * 24 * time.Hour

	// DefaultKeyPrefix is the storage folder for India sales reports
	DefaultKeyPrefix = "sales_tax/in"

	csvContentType  = "text/csv"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Artifact is a stored report and its retrieval link
type Artifact struct {
	Key string
	URL string
}

// Publisher uploads rendered reports and issues time-bounded links
type Publisher struct {
	storage port.ObjectStorage
	prefix  string
	ttl     time.Duration
	logger  *zap.Logger
}

// NewPublisher creates a new publisher. Empty prefix and zero ttl fall back
// to the defaults.
func NewPublisher(storage port.ObjectStorage, prefix string, ttl time.Duration, logger *zap.Logger) *Publisher {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &Publisher{
		storage: storage,
		prefix:  prefix,
		ttl:     ttl,
		logger:  logger,
	}
}

// ReportKey returns the storage key for a period. The key depends only on
// the period so re-runs overwrite the previous artifact.
func (p *Publisher) ReportKey(period entity.ReportingPeriod, ext string) string {
	name := fmt.Sprintf("india-sales-report-%04d-%02d.%s", period.Year(), int(period.Month()), ext)
	return path.Join(p.prefix, fmt.Sprintf("%04d", period.Year()), fmt.Sprintf("%02d", int(period.Month())), name)
}

// Publish stores the CSV report and returns its presigned link
func (p *Publisher) Publish(ctx context.Context, period entity.ReportingPeriod, body []byte) (*Artifact, error) {
	return p.publish(ctx, p.ReportKey(period, "csv"), body, csvContentType)
}

// PublishWorkbook stores the xlsx companion next to the CSV report
func (p *Publisher) PublishWorkbook(ctx context.Context, period entity.ReportingPeriod, body []byte) (*Artifact, error) {
	return p.publish(ctx, p.ReportKey(period, "xlsx"), body, xlsxContentType)
}

func (p *Publisher) publish(ctx context.Context, key string, body []byte, contentType string) (*Artifact, error) {
	if err := p.storage.Upload(ctx, key, body, contentType); err != nil {
		return nil, fmt.Errorf("%w: failed to upload %s: %w", ErrPublish, key, err)
	}

	url, err := p.storage.PresignGet(ctx, key, p.ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to presign %s: %w", ErrPublish, key, err)
	}

	p.logger.Info("Report published",
		zap.String("key", key),
		zap.Int("size", len(body)),
		zap.Duration("link_ttl", p.ttl))

	return &Artifact{Key: key, URL: url}, nil
}
