package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/taxreport"
	"go.uber.org/zap"
)

// ReportRunner runs one India sales report. Nil month and year select the
// previous calendar month.
type ReportRunner interface {
	Run(ctx context.Context, month, year *int) (*taxreport.RunResult, error)
}

// ReportWorkerConfig holds configuration for the monthly report worker
type ReportWorkerConfig struct {
	DayOfMonth int           // 1-28
	HourUTC    int           // 0-23
	RunTimeout time.Duration // 0 means no timeout
}

// DefaultReportWorkerConfig returns default configuration
func DefaultReportWorkerConfig() ReportWorkerConfig {
	return ReportWorkerConfig{
		DayOfMonth: 1,
		HourUTC:    6,
		RunTimeout: 30 * time.Minute,
	}
}

// ReportWorker triggers the India sales report once a month
type ReportWorker struct {
	config ReportWorkerConfig
	runner ReportRunner
	clock  port.Clock
	logger *zap.Logger

	// Runtime state
	mu          sync.RWMutex
	cancel      context.CancelFunc
	done        chan struct{}
	isRunning   bool
	nextRun     time.Time
	runCount    int
	failedCount int
	lastError   error
}

// NewReportWorker creates a new report worker
func NewReportWorker(config ReportWorkerConfig, runner ReportRunner, clock port.Clock, logger *zap.Logger) *ReportWorker {
	if clock == nil {
		clock = port.SystemClock{}
	}
	return &ReportWorker{
		config: config,
		runner: runner,
		clock:  clock,
		logger: logger,
	}
}

// NextRun returns the first scheduled instant strictly after t: day-of-month
// at hour:00 UTC.
func NextRun(t time.Time, dayOfMonth, hourUTC int) time.Time {
	t = t.UTC()
	candidate := time.Date(t.Year(), t.Month(), dayOfMonth, hourUTC, 0, 0, 0, time.UTC)
	if !candidate.After(t) {
		candidate = candidate.AddDate(0, 1, 0)
	}
	return candidate
}

// Start begins the scheduling loop
func (w *ReportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("report worker already running")
	}
	if w.config.DayOfMonth < 1 || w.config.DayOfMonth > 28 {
		return fmt.Errorf("invalid day of month: %d", w.config.DayOfMonth)
	}
	if w.config.HourUTC < 0 || w.config.HourUTC > 23 {
		return fmt.Errorf("invalid hour: %d", w.config.HourUTC)
	}

	var loopCtx context.Context
	loopCtx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("ReportWorker started",
		zap.Int("day_of_month", w.config.DayOfMonth),
		zap.Int("hour_utc", w.config.HourUTC))

	go w.scheduleLoop(loopCtx, w.done)

	return nil
}

// Stop cancels the loop and waits for an in-flight run to return
func (w *ReportWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.mu.RLock()
	w.logger.Info("ReportWorker stopped",
		zap.Int("run_count", w.runCount),
		zap.Int("failed_count", w.failedCount))
	w.mu.RUnlock()

	return nil
}

// Name returns the worker name for identification
func (w *ReportWorker) Name() string {
	return "ReportWorker"
}

// NextScheduledRun returns when the loop will fire next
func (w *ReportWorker) NextScheduledRun() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.nextRun
}

// Stats returns run counters and the last run error
func (w *ReportWorker) Stats() (runs, failed int, lastErr error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.runCount, w.failedCount, w.lastError
}

func (w *ReportWorker) scheduleLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		next := NextRun(w.clock.Now(), w.config.DayOfMonth, w.config.HourUTC)
		w.mu.Lock()
		w.nextRun = next
		w.mu.Unlock()

		w.logger.Debug("Next report run scheduled", zap.Time("next_run", next))

		timer := time.NewTimer(next.Sub(w.clock.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Debug("Schedule loop context cancelled")
			return
		case <-timer.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce runs the report for the previous month
func (w *ReportWorker) runOnce(ctx context.Context) {
	runCtx := ctx
	if w.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.config.RunTimeout)
		defer cancel()
	}

	result, err := w.runner.Run(runCtx, nil, nil)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.runCount++
	if err != nil {
		w.failedCount++
		w.lastError = err
		w.logger.Error("Scheduled report run failed", zap.Error(err))
		return
	}
	w.lastError = nil
	w.logger.Info("Scheduled report run completed",
		zap.String("run_id", result.RunID),
		zap.String("period", result.Period.String()),
		zap.Int("rows", len(result.Rows)))
}
