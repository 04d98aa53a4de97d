package taxreport

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifier_Success(t *testing.T) {
	messenger := &mockMessenger{}
	notifier := NewNotifier(messenger, "", "", zap.NewNop())

	notifier.NotifySuccess(context.Background(), june2023(t), 3, &Artifact{Key: "k", URL: "https://signed.example.com/k"})

	require.Len(t, messenger.posted, 1)
	msg := messenger.posted[0]
	assert.Equal(t, "payments", msg.Channel)
	assert.Equal(t, "India Sales Reporting", msg.Subject)
	assert.Equal(t, port.ColorGreen, msg.Color)
	assert.Contains(t, msg.Body, "2023-06")
	assert.Contains(t, msg.Body, "https://signed.example.com/k")
}

func TestNotifier_Failure(t *testing.T) {
	messenger := &mockMessenger{}
	notifier := NewNotifier(messenger, "tax-ops", "India GST", zap.NewNop())

	notifier.NotifyFailure(context.Background(), june2023(t), errors.New("bucket missing"))

	require.Len(t, messenger.posted, 1)
	msg := messenger.posted[0]
	assert.Equal(t, "tax-ops", msg.Channel)
	assert.Equal(t, "India GST", msg.Subject)
	assert.Equal(t, port.ColorRed, msg.Color)
	assert.Contains(t, msg.Body, "bucket missing")
}

func TestNotifier_SwallowsDeliveryErrors(t *testing.T) {
	messenger := &mockMessenger{
		postFunc: func(ctx context.Context, channel, subject, body, color string) error {
			return errors.New("webhook down")
		},
	}
	notifier := NewNotifier(messenger, "", "", zap.NewNop())

	assert.NotPanics(t, func() {
		notifier.NotifyFailure(context.Background(), june2023(t), errors.New("boom"))
	})
	assert.Len(t, messenger.posted, 1)
}
