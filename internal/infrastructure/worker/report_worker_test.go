package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"github.com/garyjia/sales-tax-reports/internal/taxreport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockRunner struct {
	mu    sync.Mutex
	calls int
	runFn func(ctx context.Context, month, year *int) (*taxreport.RunResult, error)
}

func (m *mockRunner) Run(ctx context.Context, month, year *int) (*taxreport.RunResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.runFn != nil {
		return m.runFn(ctx, month, year)
	}
	period, _ := entity.NewReportingPeriod(5, 2024)
	return &taxreport.RunResult{RunID: "run-1", Period: period}, nil
}

func TestNextRun(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		day  int
		hour int
		want time.Time
	}{
		{
			name: "later this month",
			now:  time.Date(2024, time.June, 1, 5, 59, 0, 0, time.UTC),
			day:  1, hour: 6,
			want: time.Date(2024, time.June, 1, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at run time rolls to next month",
			now:  time.Date(2024, time.June, 1, 6, 0, 0, 0, time.UTC),
			day:  1, hour: 6,
			want: time.Date(2024, time.July, 1, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "december rolls into january",
			now:  time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC),
			day:  3, hour: 0,
			want: time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "non UTC input",
			now:  time.Date(2024, time.March, 1, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)),
			day:  1, hour: 6,
			want: time.Date(2024, time.April, 1, 6, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextRun(tt.now, tt.day, tt.hour))
		})
	}
}

func TestReportWorker_RunOnceRecordsOutcome(t *testing.T) {
	runner := &mockRunner{}
	w := NewReportWorker(DefaultReportWorkerConfig(), runner, nil, zap.NewNop())

	w.runOnce(context.Background())
	runs, failed, lastErr := w.Stats()
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, failed)
	assert.NoError(t, lastErr)

	boom := errors.New("ledger unavailable")
	runner.runFn = func(ctx context.Context, month, year *int) (*taxreport.RunResult, error) {
		assert.Nil(t, month)
		assert.Nil(t, year)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil, boom
	}

	w.runOnce(context.Background())
	runs, failed, lastErr = w.Stats()
	assert.Equal(t, 2, runs)
	assert.Equal(t, 1, failed)
	assert.ErrorIs(t, lastErr, boom)
}

func TestReportWorker_StartStop(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	runner := &mockRunner{}
	w := NewReportWorker(DefaultReportWorkerConfig(), runner, port.ClockFunc(func() time.Time { return now }), zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))

	require.Eventually(t, func() bool {
		return !w.NextScheduledRun().IsZero()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, time.Date(2024, time.July, 1, 6, 0, 0, 0, time.UTC), w.NextScheduledRun())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.Zero(t, runner.calls)
}

func TestReportWorker_StartRejectsInvalidSchedule(t *testing.T) {
	w := NewReportWorker(ReportWorkerConfig{DayOfMonth: 31, HourUTC: 6}, &mockRunner{}, nil, zap.NewNop())
	assert.Error(t, w.Start(context.Background()))
}

type stubWorker struct {
	name     string
	startErr error
	stopErr  error
	started  bool
	stopped  bool
}

func (s *stubWorker) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *stubWorker) Stop() error {
	s.stopped = true
	return s.stopErr
}

func (s *stubWorker) Name() string { return s.name }

func TestWorkerManager_Lifecycle(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	ok := &stubWorker{name: "ok"}
	broken := &stubWorker{name: "broken", startErr: errors.New("no schedule")}
	m.Register(ok)
	m.Register(broken)
	assert.Equal(t, []string{"ok", "broken"}, m.Names())

	err := m.StartAll(context.Background())
	assert.EqualError(t, err, "report jobs not started: broken")
	assert.True(t, m.IsRunning())
	assert.True(t, ok.started)
	assert.Error(t, m.StartAll(context.Background()))

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.True(t, ok.stopped)
	require.NoError(t, m.StopAll())
}

func TestWorkerManager_StopAllReportsFailedJobs(t *testing.T) {
	errStuck := errors.New("upload still in flight")
	m := NewWorkerManager(zap.NewNop())
	m.Register(&stubWorker{name: "ok"})
	m.Register(&stubWorker{name: "stuck", stopErr: errStuck})

	require.NoError(t, m.StartAll(context.Background()))

	err := m.StopAll()
	require.ErrorIs(t, err, errStuck)
	assert.EqualError(t, err, "stuck: upload still in flight")
	assert.False(t, m.IsRunning())
}
