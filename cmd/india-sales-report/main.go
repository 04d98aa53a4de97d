package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/config"
	"github.com/garyjia/sales-tax-reports/internal/container"
	"github.com/garyjia/sales-tax-reports/pkg/utils"
)

var (
	configPath string
	envFile    string
	month      int
	year       int
)

// rootCmd runs one India sales report
var rootCmd = &cobra.Command{
	Use:   "india-sales-report",
	Short: "Build and publish the monthly India sales tax report",
	Long: `Build the India sales tax reconciliation report for one month,
upload it to object storage and post the link to the payments channel.

Without --month and --year the previous calendar month is reported;
the two flags must be given together.`,
	SilenceUsage: true,
	RunE:         runReport,
}

// notifyCheckCmd posts a test card to the configured channel
var notifyCheckCmd = &cobra.Command{
	Use:   "notify-check",
	Short: "Post a test notification to the report channel",
	RunE:  runNotifyCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before the configuration")
	rootCmd.Flags().IntVar(&month, "month", 0, "Report month (1-12)")
	rootCmd.Flags().IntVar(&year, "year", 0, "Report year")
	rootCmd.MarkFlagsRequiredTogether("month", "year")

	rootCmd.AddCommand(notifyCheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and starts the container without workers
func setup(ctx context.Context) (*container.Container, *zap.Logger, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "india-sales-report",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Start(ctx, false); err != nil {
		c.Close()
		return nil, nil, err
	}
	return c, logger, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer c.Close()

	var monthArg, yearArg *int
	if cmd.Flags().Changed("month") {
		monthArg = &month
	}
	if cmd.Flags().Changed("year") {
		yearArg = &year
	}

	result, err := c.ReportJob().Run(ctx, monthArg, yearArg)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Report for %s: %d rows\n%s\n%s\n",
		result.Period, len(result.Rows), result.Report.Key, result.Report.URL)
	if result.Workbook != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", result.Workbook.URL)
	}
	return nil
}

func runNotifyCheck(cmd *cobra.Command, args []string) error {
	c, logger, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer c.Close()

	cfg := c.Config().Report
	body := "Test notification from india-sales-report. No report was generated."
	if err := c.Messenger().Post(cmd.Context(), cfg.Channel, cfg.Subject, body, port.ColorGreen); err != nil {
		return fmt.Errorf("failed to post test notification: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Posted test notification to %s\n", cfg.Channel)
	return nil
}
