// Package container provides dependency injection and lifecycle management
// for the sales tax reporting service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Storage configuration
	Storage StorageConfig

	// Lark API configuration
	Lark LarkConfig

	// OpenAI configuration
	OpenAI OpenAIConfig

	// Report configuration
	Report ReportConfig

	// Server configuration
	Server ServerConfig

	// Worker configuration
	Worker WorkerConfig
}

// DatabaseConfig holds ledger database settings.
type DatabaseConfig struct {
	// Driver is sqlite3 or pgx
	Driver string

	// Path to SQLite database file
	Path string

	// DSN is the Postgres connection string
	DSN string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// AutoMigrate applies the embedded ledger schema on start (sqlite only)
	AutoMigrate bool
}

// StorageConfig holds object storage settings.
type StorageConfig struct {
	// Backend is s3 or local
	Backend string

	// LocalDir is the base directory of the local backend
	LocalDir string

	// S3 bucket settings
	Bucket          string
	Region          string
	Endpoint        string
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	// AppID is the Lark application ID; empty disables Lark delivery
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// BaseURL overrides the Lark open platform endpoint
	BaseURL string

	// Channels maps channel names to chat IDs
	Channels map[string]string
}

// OpenAIConfig holds OpenAI API and AI feature settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key
	APIKey string

	// BaseURL overrides the API endpoint
	BaseURL string

	// PromptsPath overrides the embedded prompt definitions
	PromptsPath string

	// MaxAttempts and RetryDelay bound retries per operation
	MaxAttempts int
	RetryDelay  time.Duration

	// Enabled turns on AI product generation
	Enabled bool

	// AllowedSellers limits generation to listed sellers when non-empty
	AllowedSellers []string

	// DefaultCurrency is used when the seller's currency is unknown
	DefaultCurrency string
}

// ReportConfig holds India sales report settings.
type ReportConfig struct {
	KeyPrefix          string
	LinkTTL            time.Duration
	ComputeConcurrency int
	XLSXEnabled        bool
	Channel            string
	Subject            string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	// Monthly report schedule
	ScheduleEnabled bool
	DayOfMonth      int
	HourUTC         int
	RunTimeout      time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			Path:            "data/ledger.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Storage: StorageConfig{
			Backend:  "local",
			LocalDir: "data/objects",
			Region:   "ap-south-1",
		},
		OpenAI: OpenAIConfig{
			MaxAttempts:     2,
			RetryDelay:      time.Second,
			DefaultCurrency: "usd",
		},
		Report: ReportConfig{
			KeyPrefix:          "sales_tax/in",
			LinkTTL:            7 * 24 * time.Hour,
			ComputeConcurrency: 4,
			Channel:            "payments",
			Subject:            "India Sales Reporting",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 150 * time.Second,
		},
		Worker: WorkerConfig{
			ScheduleEnabled: true,
			DayOfMonth:      1,
			HourUTC:         6,
			RunTimeout:      30 * time.Minute,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	// Validate database configuration
	switch c.Database.Driver {
	case "sqlite3", "":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case "pgx":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	// Validate storage configuration
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir is required")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	// Validate OpenAI configuration
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}

	// Validate report configuration
	if c.Report.Channel == "" {
		return fmt.Errorf("notify.channel is required")
	}

	return nil
}
