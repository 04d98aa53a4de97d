package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Worker is a background job the server runs next to the HTTP surface,
// such as the monthly report scheduler
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// WorkerManager owns the scheduled report jobs of a server process. All
// jobs share one run context that is cancelled on shutdown.
type WorkerManager struct {
	logger *zap.Logger

	mu      sync.RWMutex
	jobs    []Worker
	running bool
	cancel  context.CancelFunc
}

func NewWorkerManager(logger *zap.Logger) *WorkerManager {
	return &WorkerManager{logger: logger}
}

// Register adds a job; jobs registered after StartAll wait for the next start
func (m *WorkerManager) Register(job Worker) {
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	count := len(m.jobs)
	m.mu.Unlock()

	m.logger.Info("Report job registered", zap.String("job", job.Name()), zap.Int("jobs", count))
}

// StartAll launches every registered job. The manager counts as running even
// when some jobs refuse to start; the error names them.
func (m *WorkerManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("report jobs already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	jobs := m.snapshot()
	m.mu.Unlock()

	var refused []string
	for _, job := range jobs {
		if err := job.Start(runCtx); err != nil {
			m.logger.Error("Report job did not start", zap.String("job", job.Name()), zap.Error(err))
			refused = append(refused, job.Name())
			continue
		}
		m.logger.Info("Report job started", zap.String("job", job.Name()))
	}

	if len(refused) > 0 {
		return fmt.Errorf("report jobs not started: %s", strings.Join(refused, ", "))
	}
	return nil
}

// StopAll cancels the shared run context and waits on each job's Stop.
// Calling it on a stopped manager is a no-op.
func (m *WorkerManager) StopAll() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	jobs := m.snapshot()
	m.mu.Unlock()

	cancel()

	var errs []error
	for _, job := range jobs {
		if err := job.Stop(); err != nil {
			m.logger.Error("Report job did not stop cleanly", zap.String("job", job.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	m.logger.Info("Report jobs stopped", zap.Int("jobs", len(jobs)))
	return nil
}

// Names lists the registered jobs in registration order
func (m *WorkerManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.jobs))
	for _, job := range m.jobs {
		names = append(names, job.Name())
	}
	return names
}

func (m *WorkerManager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// snapshot copies the job list; callers hold mu
func (m *WorkerManager) snapshot() []Worker {
	return append([]Worker(nil), m.jobs...)
}
