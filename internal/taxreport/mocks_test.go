package taxreport

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
)

type mockLedger struct {
	transactions []*entity.Transaction
	err          error
}

func (m *mockLedger) ListTransactions(ctx context.Context, period entity.ReportingPeriod, jurisdiction port.Jurisdiction) iter.Seq2[*entity.Transaction, error] {
	return func(yield func(*entity.Transaction, error) bool) {
		for _, tx := range m.transactions {
			if !yield(tx, nil) {
				return
			}
		}
		if m.err != nil {
			yield(nil, m.err)
		}
	}
}

type mockRateTable struct {
	mu            sync.Mutex
	rates         map[string][]entity.ZipTaxRate
	err           error
	listRatesCall int
}

func (m *mockRateTable) ListRates(ctx context.Context, country string) ([]entity.ZipTaxRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listRatesCall++
	if m.err != nil {
		return nil, m.err
	}
	return m.rates[country], nil
}

type mockStorage struct {
	mu             sync.Mutex
	objects        map[string][]byte
	uploadedKeys   []string
	uploadFunc     func(ctx context.Context, key string, body []byte, contentType string) error
	presignGetFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

func newMockStorage() *mockStorage {
	return &mockStorage{objects: make(map[string][]byte)}
}

func (m *mockStorage) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	if m.uploadFunc != nil {
		if err := m.uploadFunc(ctx, key, body, contentType); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	m.uploadedKeys = append(m.uploadedKeys, key)
	return nil
}

func (m *mockStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.presignGetFunc != nil {
		return m.presignGetFunc(ctx, key, ttl)
	}
	return "https://reports.example.com/" + key, nil
}

type postedMessage struct {
	Channel string
	Subject string
	Body    string
	Color   string
}

type mockMessenger struct {
	mu       sync.Mutex
	posted   []postedMessage
	postFunc func(ctx context.Context, channel, subject, body, color string) error
}

func (m *mockMessenger) Post(ctx context.Context, channel, subject, body, color string) error {
	m.mu.Lock()
	m.posted = append(m.posted, postedMessage{Channel: channel, Subject: subject, Body: body, Color: color})
	m.mu.Unlock()
	if m.postFunc != nil {
		return m.postFunc(ctx, channel, subject, body, color)
	}
	return nil
}

func (m *mockMessenger) colors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	colors := make([]string, 0, len(m.posted))
	for _, msg := range m.posted {
		colors = append(colors, msg.Color)
	}
	return colors
}

func fixedClock(t time.Time) port.Clock {
	return port.ClockFunc(func() time.Time { return t })
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
