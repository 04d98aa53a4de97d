package config

import (
	"github.com/garyjia/sales-tax-reports/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Storage: container.StorageConfig{
			Backend:         c.Storage.Backend,
			LocalDir:        c.Storage.LocalDir,
			Bucket:          c.Storage.S3.Bucket,
			Region:          c.Storage.S3.Region,
			Endpoint:        c.Storage.S3.Endpoint,
			UsePathStyle:    c.Storage.S3.UsePathStyle,
			AccessKeyID:     c.Storage.S3.AccessKeyID,
			SecretAccessKey: c.Storage.S3.SecretAccessKey,
		},
		Lark: container.LarkConfig{
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
			BaseURL:   c.Lark.BaseURL,
			Channels:  c.Lark.Channels,
		},
		OpenAI: container.OpenAIConfig{
			APIKey:          c.OpenAI.APIKey,
			BaseURL:         c.OpenAI.BaseURL,
			PromptsPath:     c.OpenAI.PromptsPath,
			MaxAttempts:     c.OpenAI.MaxAttempts,
			RetryDelay:      c.OpenAI.RetryDelay,
			Enabled:         c.AI.Enabled,
			AllowedSellers:  c.AI.AllowedSellers,
			DefaultCurrency: c.AI.DefaultCurrency,
		},
		Report: container.ReportConfig{
			KeyPrefix:          c.Report.KeyPrefix,
			LinkTTL:            c.Report.LinkTTL,
			ComputeConcurrency: c.Report.ComputeConcurrency,
			XLSXEnabled:        c.Report.XLSXEnabled,
			Channel:            c.Notify.Channel,
			Subject:            c.Notify.Subject,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Worker: container.WorkerConfig{
			ScheduleEnabled: c.Schedule.Enabled,
			DayOfMonth:      c.Schedule.DayOfMonth,
			HourUTC:         c.Schedule.HourUTC,
			RunTimeout:      c.Report.RunTimeout,
		},
	}
}
