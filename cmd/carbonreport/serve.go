package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/internal/check"
	"github.com/carbonreport/carbonreport/internal/config"
	"github.com/carbonreport/carbonreport/internal/database"
	"github.com/carbonreport/carbonreport/internal/server"
	"github.com/carbonreport/carbonreport/internal/store"
	"github.com/carbonreport/carbonreport/pkg/errors"
	"github.com/carbonreport/carbonreport/pkg/logger"
	"github.com/carbonreport/carbonreport/pkg/telemetry"
)

// newServeCmd represents the serve command
func newServeCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the carbonreport server",
		Long: `Start the HTTP server that renders, stores and exports reports.

On first run, use --check flag to interactively set up your environment:
  carbonreport serve --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configPath)
		},
	}

	cmd.Flags().String("host", "", "server host (overrides config)")
	cmd.Flags().Int("port", 0, "server port (overrides config)")
	cmd.Flags().Bool("debug", false, "enable debug mode")
	cmd.Flags().Bool("check", false, "run interactive environment check before starting server")
	return cmd
}

// runServe starts the carbonreport server and blocks until shutdown
func runServe(cmd *cobra.Command, configPath string) error {
	if err := preflight(cmd, configPath); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)
	if appErr := config.Validate(cfg); appErr != nil {
		return appErr
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting carbonreport", zap.String("version", Version))

	// Initialize telemetry (OpenTelemetry traces and metrics)
	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if err := database.Init(cfg.Database.Path); err != nil {
		return err
	}
	defer database.Close()

	srv, err := server.New(cfg, store.NewStore(database.Get()), tel)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	logger.Info("carbonreport server is running", zap.String("address", srv.Addr().String()))

	// Stops the retention job and flushes telemetry too
	srv.WaitForShutdown()

	logger.Info("carbonreport stopped")
	return nil
}

// preflight runs the interactive check with --check, and the silent one otherwise
func preflight(cmd *cobra.Command, configPath string) error {
	checker := check.NewChecker(configPath)

	if interactive, _ := cmd.Flags().GetBool("check"); interactive {
		if err := checker.Run(); err != nil {
			return errors.Wrap(errors.ErrCodeConfigInvalid, "environment check failed", err)
		}
		fmt.Println("\n✓ Environment check completed successfully")
		return nil
	}

	result := checker.RunNonInteractive()
	if !result.Success {
		check.PrintCheckResult(result)
		return errors.New(errors.ErrCodeConfigInvalid, "environment check failed")
	}

	// Print warnings but don't block startup
	for _, warn := range result.Warnings {
		fmt.Fprintf(os.Stderr, "[WARNING] %s\n", warn)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(os.Stderr)
	}
	return nil
}

// applyServeFlags overrides config with command line flags
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Server.Debug = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	}
}
