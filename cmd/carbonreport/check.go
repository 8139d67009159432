package main

import (
	"github.com/spf13/cobra"

	"github.com/carbonreport/carbonreport/internal/check"
	"github.com/carbonreport/carbonreport/pkg/errors"
)

// newCheckCmd represents the check command
func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check and initialize the local configuration",
		Long: `Check the environment interactively:
  - create the configuration file from the template when missing
  - validate the configuration
  - look for the narrative writer, a browser for PDF export and the database directory
  - render the built-in sample report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := check.NewChecker(*configPath).Run(); err != nil {
				return errors.Wrap(errors.ErrCodeConfigInvalid, "environment check failed", err)
			}
			return nil
		},
	}
}
