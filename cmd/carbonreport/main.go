// Package main is the entry point for the carbonreport application.
// carbonreport renders carbon footprint reports as pages, PDFs and JSON, and serves them over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carbonreport/carbonreport/consts"
	"github.com/carbonreport/carbonreport/internal/config"
	"github.com/carbonreport/carbonreport/pkg/errors"
)

// Build information - set via ldflags during build
// These variables are linked to consts package for global access
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// init synchronizes build info to consts package for global access
func init() {
	consts.Version = Version
	consts.BuildTime = BuildTime
	consts.GitCommit = GitCommit
}

// newRootCmd builds the command tree. configPath is shared by every subcommand.
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "carbonreport",
		Short: "carbonreport - carbon footprint report renderer",
		Long: `carbonreport turns a carbon footprint calculation into a report: a Markdown-like
narrative, a category doughnut chart and three summary figures. Reports can be
rendered from the command line or stored and exported through the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Disable auto-generated completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: config/bootstrap.yaml)")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newRenderCmd(&configPath),
		newCheckCmd(&configPath),
		newVersionCmd(),
	)
	return rootCmd
}

// newVersionCmd represents the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", consts.ProjectName, Version)
			fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration failures to their dedicated exit code
func exitCode(err error) int {
	if errors.HasCode(err, errors.ErrCodeConfigInvalid) ||
		errors.HasCode(err, errors.ErrCodeConfigParse) ||
		errors.HasCode(err, errors.ErrCodeConfigNotFound) {
		return errors.ExitCodeConfigValidation
	}
	return 1
}

// loadConfig loads and validates the configuration. A missing default file
// falls back to the built-in defaults; a missing explicit file is an error.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		path = config.BootstrapConfigPath
	}
	if explicit && !config.Exists(path) {
		return nil, errors.New(errors.ErrCodeConfigNotFound, fmt.Sprintf("configuration not found: %s", path))
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigParse, "failed to load configuration", err)
	}
	if appErr := config.Validate(cfg); appErr != nil {
		return nil, appErr
	}
	return cfg, nil
}
