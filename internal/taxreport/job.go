// Package taxreport builds the monthly India sales tax reconciliation report.
//
// A run resolves the reporting period, streams qualifying transactions from
// the ledger, computes one reconciliation row per transaction, renders the
// rows as CSV, publishes the file to object storage and posts the outcome to
// the operations channel.
package taxreport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stage is a step of a report run
type Stage string

const (
	StageValidating       Stage = "validating"
	StageFiltering        Stage = "filtering"
	StageComputing        Stage = "computing"
	StageRendering        Stage = "rendering"
	StagePublishing       Stage = "publishing"
	StageNotifying        Stage = "notifying"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
	StageNotifyingFailure Stage = "notifying_failure"
)

// DefaultConcurrency is the number of rows computed in parallel
const DefaultConcurrency = 4

// JobConfig tunes a report job
type JobConfig struct {
	Concurrency     int
	WorkbookEnabled bool
	Jurisdiction    port.Jurisdiction
}

// RunResult describes a completed run
type RunResult struct {
	RunID    string
	Period   entity.ReportingPeriod
	Rows     []entity.ReportRow
	Report   *Artifact
	Workbook *Artifact
	Duration time.Duration
}

// Job orchestrates a single India sales report run
type Job struct {
	ledger    port.LedgerRepository
	rates     port.RateTable
	publisher *Publisher
	notifier  *Notifier
	clock     port.Clock
	config    JobConfig
	logger    *zap.Logger
}

// NewJob creates a new report job
func NewJob(
	ledger port.LedgerRepository,
	rates port.RateTable,
	publisher *Publisher,
	notifier *Notifier,
	clock port.Clock,
	config JobConfig,
	logger *zap.Logger,
) *Job {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	if config.Jurisdiction.Code == "" {
		config.Jurisdiction = port.India
	}
	if clock == nil {
		clock = port.SystemClock{}
	}
	return &Job{
		ledger:    ledger,
		rates:     rates,
		publisher: publisher,
		notifier:  notifier,
		clock:     clock,
		config:    config,
		logger:    logger,
	}
}

// Run produces the report for month/year. Nil arguments default to the
// previous calendar month. An invalid period is returned as-is without a
// notification; any later failure is reported once to the channel and
// returned as a *StageError.
func (j *Job) Run(ctx context.Context, month, year *int) (*RunResult, error) {
	runID := uuid.NewString()
	logger := j.logger.With(zap.String("run_id", runID))

	period, err := ResolvePeriod(j.clock, month, year)
	if err != nil {
		logger.Warn("Rejected report period", zap.Error(err))
		return nil, err
	}
	logger = logger.With(zap.String("period", period.String()))
	logger.Info("India sales report started")

	start := time.Now()
	result, stage, err := j.execute(ctx, logger, period)

	// Outcome is reported even when the caller's context was cancelled
	notifyCtx := context.WithoutCancel(ctx)

	if err != nil {
		stageErr := &StageError{Stage: stage, Err: err}
		logger.Error("India sales report failed",
			zap.String("stage", string(stage)),
			zap.String("next_stage", string(StageNotifyingFailure)),
			zap.Error(err))
		j.notifier.NotifyFailure(notifyCtx, period, stageErr)
		return nil, stageErr
	}

	logger.Debug("Notifying report success", zap.String("stage", string(StageNotifying)))
	j.notifier.NotifySuccess(notifyCtx, period, len(result.Rows), result.Report)

	result.RunID = runID
	result.Duration = time.Since(start)
	logger.Info("India sales report completed",
		zap.String("stage", string(StageDone)),
		zap.Int("rows", len(result.Rows)),
		zap.String("key", result.Report.Key),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// execute runs stages 2-5 and reports the stage that failed
func (j *Job) execute(ctx context.Context, logger *zap.Logger, period entity.ReportingPeriod) (*RunResult, Stage, error) {
	result := &RunResult{Period: period}

	txs, err := j.collect(ctx, period)
	if err != nil {
		return nil, StageFiltering, err
	}
	logger.Debug("Transactions selected", zap.Int("count", len(txs)))

	rows, err := j.computeRows(ctx, logger, txs)
	if err != nil {
		return nil, StageComputing, err
	}
	SortRows(rows)
	result.Rows = rows

	body, err := RenderCSV(rows)
	if err != nil {
		return nil, StageRendering, err
	}
	var workbook []byte
	if j.config.WorkbookEnabled {
		if workbook, err = RenderWorkbook(rows); err != nil {
			return nil, StageRendering, err
		}
	}

	if result.Report, err = j.publisher.Publish(ctx, period, body); err != nil {
		return nil, StagePublishing, err
	}
	if workbook != nil {
		if result.Workbook, err = j.publisher.PublishWorkbook(ctx, period, workbook); err != nil {
			return nil, StagePublishing, err
		}
	}

	return result, "", nil
}

func (j *Job) collect(ctx context.Context, period entity.ReportingPeriod) ([]*entity.Transaction, error) {
	filter := NewFilter(j.ledger, j.config.Jurisdiction, j.logger)

	var txs []*entity.Transaction
	for tx, err := range filter.Select(ctx, period) {
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// computeRows fans row computation out over a bounded errgroup. Rows land
// at their transaction's index; callers sort afterwards.
func (j *Job) computeRows(ctx context.Context, logger *zap.Logger, txs []*entity.Transaction) ([]entity.ReportRow, error) {
	resolver := NewRateResolver(j.rates)
	rows := make([]entity.ReportRow, len(txs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)

	for i, tx := range txs {
		g.Go(func() error {
			rate, err := resolver.Resolve(gctx, j.config.Jurisdiction.Code, tx.IPState, tx.ZipCode)
			switch {
			case errors.Is(err, ErrRateNotFound):
				logger.Debug("No tax rate for transaction",
					zap.String("transaction_id", tx.ExternalID),
					zap.String("ip_state", tx.IPState),
					zap.Error(err))
				rate = nil
			case err != nil:
				return fmt.Errorf("failed to resolve rate for %s: %w", tx.ExternalID, err)
			}
			rows[i] = ComputeRow(tx, rate)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
