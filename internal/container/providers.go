package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	infraLark "github.com/garyjia/sales-tax-reports/internal/infrastructure/external/lark"
	"github.com/garyjia/sales-tax-reports/internal/infrastructure/external/openai"
	"github.com/garyjia/sales-tax-reports/internal/infrastructure/notify"
	"github.com/garyjia/sales-tax-reports/internal/infrastructure/persistence/repository"
	"github.com/garyjia/sales-tax-reports/internal/infrastructure/storage"
	"github.com/garyjia/sales-tax-reports/internal/infrastructure/worker"
	"github.com/garyjia/sales-tax-reports/internal/retry"
	"github.com/garyjia/sales-tax-reports/internal/taxreport"
	"github.com/garyjia/sales-tax-reports/pkg/database"
	"go.uber.org/zap"
)

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Ledger port.LedgerRepository
	Rates  port.RateTable
}

// ProvideDatabase opens the ledger database and, for sqlite with
// AutoMigrate set, applies the embedded schema.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Driver == database.DriverSQLite || cfg.Driver == "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.New(database.Config{
		Driver:          cfg.Driver,
		Path:            cfg.Path,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate && db.Driver() == database.DriverSQLite {
		if err := database.NewMigrator(db, logger).MigrateLedger(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Ledger: repository.NewLedgerRepository(db, logger),
		Rates:  repository.NewZipTaxRateRepository(db, logger),
	}, nil
}

// ProvideStorage creates the object storage for the configured backend.
func ProvideStorage(ctx context.Context, cfg *StorageConfig, logger *zap.Logger) (port.ObjectStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	switch cfg.Backend {
	case "s3":
		s3Storage, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			UsePathStyle:    cfg.UsePathStyle,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s3Storage, nil
	case "local":
		return storage.NewLocalFileStorage(cfg.LocalDir, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// ProvideMessenger creates the channel messenger. Without Lark credentials
// notifications are written to the log.
func ProvideMessenger(cfg *LarkConfig, logger *zap.Logger) (port.ChannelMessenger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}

	if cfg.AppID == "" {
		logger.Warn("Lark credentials not configured, notifications will only be logged")
		return notify.NewLogMessenger(logger), nil
	}

	sdkClient := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		BaseURL:   cfg.BaseURL,
	}, logger)
	messageAPI := infraLark.NewMessageAPI(sdkClient, logger)

	return infraLark.NewMessenger(messageAPI, cfg.Channels, logger), nil
}

// ProvideGenerator creates the AI product generator, or nil when the
// feature is disabled.
func ProvideGenerator(cfg *OpenAIConfig, objects port.ObjectStorage, logger *zap.Logger) (port.ProductGenerator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("openai config is required")
	}
	if !cfg.Enabled {
		return nil, nil
	}

	var prompts *openai.PromptConfig
	var err error
	if cfg.PromptsPath != "" {
		prompts, err = openai.LoadPrompts(cfg.PromptsPath)
	} else {
		prompts, err = openai.DefaultPrompts()
	}
	if err != nil {
		return nil, err
	}

	return openai.NewProductGenerator(openai.GeneratorConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Retry: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			Delay:       cfg.RetryDelay,
		},
	}, prompts, objects, logger), nil
}

// ReportDeps holds dependencies for the report job.
type ReportDeps struct {
	Repos     *RepositoryBundle
	Storage   port.ObjectStorage
	Messenger port.ChannelMessenger
	Clock     port.Clock
	Config    *ReportConfig
	Logger    *zap.Logger
}

// ProvideReportJob creates the India sales report job.
func ProvideReportJob(deps *ReportDeps) (*taxreport.Job, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if deps.Messenger == nil {
		return nil, fmt.Errorf("messenger is required")
	}

	cfg := deps.Config
	publisher := taxreport.NewPublisher(deps.Storage, cfg.KeyPrefix, cfg.LinkTTL, deps.Logger)
	notifier := taxreport.NewNotifier(deps.Messenger, cfg.Channel, cfg.Subject, deps.Logger)

	return taxreport.NewJob(
		deps.Repos.Ledger,
		deps.Repos.Rates,
		publisher,
		notifier,
		deps.Clock,
		taxreport.JobConfig{
			Concurrency:     cfg.ComputeConcurrency,
			WorkbookEnabled: cfg.XLSXEnabled,
			Jurisdiction:    port.India,
		},
		deps.Logger,
	), nil
}

// ProvideWorkers creates the worker manager with the monthly report worker
// registered when scheduling is enabled.
func ProvideWorkers(cfg *WorkerConfig, runner worker.ReportRunner, clock port.Clock, logger *zap.Logger) (*worker.WorkerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(logger)
	if cfg.ScheduleEnabled {
		manager.Register(worker.NewReportWorker(worker.ReportWorkerConfig{
			DayOfMonth: cfg.DayOfMonth,
			HourUTC:    cfg.HourUTC,
			RunTimeout: cfg.RunTimeout,
		}, runner, clock, logger))
	}

	return manager, nil
}
