package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	AI       AIConfig       `mapstructure:"ai"`
	Report   ReportConfig   `mapstructure:"report"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds ledger database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite3 or pgx
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// StorageConfig selects where reports and generated images are written
type StorageConfig struct {
	Backend  string   `mapstructure:"backend"` // s3 or local
	LocalDir string   `mapstructure:"local_dir"`
	S3       S3Config `mapstructure:"s3"`
}

// S3Config holds S3 bucket settings
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string            `mapstructure:"app_id"`
	AppSecret string            `mapstructure:"app_secret"`
	BaseURL   string            `mapstructure:"base_url"`
	Channels  map[string]string `mapstructure:"channels"` // channel name -> chat_id
}

// NotifyConfig holds report notification settings
type NotifyConfig struct {
	Channel string `mapstructure:"channel"`
	Subject string `mapstructure:"subject"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	PromptsPath string        `mapstructure:"prompts_path"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// AIConfig gates AI product generation
type AIConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	AllowedSellers  []string `mapstructure:"allowed_sellers"` // empty allows every seller
	DefaultCurrency string   `mapstructure:"default_currency"`
}

// ReportConfig holds India sales report settings
type ReportConfig struct {
	KeyPrefix          string        `mapstructure:"key_prefix"`
	LinkTTL            time.Duration `mapstructure:"link_ttl"`
	ComputeConcurrency int           `mapstructure:"compute_concurrency"`
	XLSXEnabled        bool          `mapstructure:"xlsx_enabled"`
	RunTimeout         time.Duration `mapstructure:"run_timeout"`
}

// ScheduleConfig holds the monthly report schedule
type ScheduleConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DayOfMonth int  `mapstructure:"day_of_month"`
	HourUTC    int  `mapstructure:"hour_utc"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// LoadDotEnv loads variables from .env files into the process environment.
// Missing files are skipped and variables already set are kept.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := gotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables. An empty
// configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 150*time.Second)

	// Database defaults
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "data/ledger.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", "data/objects")
	v.SetDefault("storage.s3.region", "ap-south-1")

	// Notification defaults
	v.SetDefault("notify.channel", "payments")
	v.SetDefault("notify.subject", "India Sales Reporting")

	// OpenAI defaults
	v.SetDefault("openai.max_attempts", 2)
	v.SetDefault("openai.retry_delay", time.Second)

	// AI defaults
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.default_currency", "usd")

	// Report defaults
	v.SetDefault("report.key_prefix", "sales_tax/in")
	v.SetDefault("report.link_ttl", 7*24*time.Hour)
	v.SetDefault("report.compute_concurrency", 4)
	v.SetDefault("report.xlsx_enabled", false)
	v.SetDefault("report.run_timeout", 30*time.Minute)

	// Schedule defaults
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.day_of_month", 1)
	v.SetDefault("schedule.hour_utc", 6)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	// Sensitive credentials from environment
	bindings := map[string][]string{
		"lark.app_id":                  {"LARK_APP_ID"},
		"lark.app_secret":              {"LARK_APP_SECRET"},
		"openai.api_key":               {"OPENAI_API_KEY"},
		"database.dsn":                 {"DATABASE_URL"},
		"storage.s3.bucket":            {"REPORTS_S3_BUCKET"},
		"storage.s3.access_key_id":     {"AWS_ACCESS_KEY_ID"},
		"storage.s3.secret_access_key": {"AWS_SECRET_ACCESS_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate database
	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite3")
		}
	case "pgx":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for pgx")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite3 or pgx, got %q", c.Database.Driver)
	}

	// Validate storage
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir is required for local storage")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("storage.backend must be local or s3, got %q", c.Storage.Backend)
	}

	// Validate Lark credentials
	if c.Lark.AppID != "" && c.Lark.AppSecret == "" {
		return fmt.Errorf("lark.app_secret is required when lark.app_id is set")
	}

	// Validate OpenAI credentials
	if c.AI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required when ai.enabled is set")
	}

	// Validate report settings
	if c.Report.ComputeConcurrency < 1 {
		return fmt.Errorf("report.compute_concurrency must be at least 1")
	}
	if c.Report.LinkTTL <= 0 || c.Report.LinkTTL > 7*24*time.Hour {
		return fmt.Errorf("report.link_ttl must be within (0, 168h]")
	}

	// Validate schedule
	if c.Schedule.DayOfMonth < 1 || c.Schedule.DayOfMonth > 28 {
		return fmt.Errorf("schedule.day_of_month must be between 1 and 28")
	}
	if c.Schedule.HourUTC < 0 || c.Schedule.HourUTC > 23 {
		return fmt.Errorf("schedule.hour_utc must be between 0 and 23")
	}

	return nil
}
