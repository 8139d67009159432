package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/carbonreport/carbonreport/internal/page"
	"github.com/carbonreport/carbonreport/internal/report/exporter"
	"github.com/carbonreport/carbonreport/pkg/errors"
	"github.com/carbonreport/carbonreport/pkg/logger"
)

// renderOptions holds the render command flags
type renderOptions struct {
	input   string
	output  string
	format  string
	title   string
	id      string
	strict  bool
	verbose bool
}

// newRenderCmd represents the render command
func newRenderCmd(configPath *string) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a report payload to HTML, PDF or JSON",
		Long: `Render a report payload read from a file or stdin.

The format defaults to the output file extension, then to html:
  carbonreport render -i payload.json -o report.pdf
  cat payload.json | carbonreport render -f json > report.json

An unreadable payload still produces a page carrying the error message;
use --strict to fail instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), *configPath, opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "payload file, - for stdin")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: html, pdf or json")
	cmd.Flags().StringVar(&opts.title, "title", "", "report title")
	cmd.Flags().StringVar(&opts.id, "id", "", "report identifier shown in the title and JSON output")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when any section could not be rendered")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log render progress to stderr")
	return cmd
}

// runRender renders one payload. Logs and the summary go to stderr so stdout
// can carry the document.
func runRender(ctx context.Context, configPath string, opts *renderOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	cfg.Logging.Stderr = true
	if !opts.verbose {
		cfg.Logging.Level = "error"
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	format, err := resolveFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	raw, err := readInput(opts.input, stdin)
	if err != nil {
		return err
	}

	manager, err := exporter.NewManagerFromConfig(cfg)
	if err != nil {
		return err
	}

	doc := manager.Render(ctx, opts.id, opts.title, raw, format)
	printFailures(stderr, doc.Outcome)
	if opts.strict && !doc.Outcome.OK() {
		return errors.New(errors.ErrCodeRenderParse, fmt.Sprintf("%d section(s) failed to render", len(doc.Outcome.Failures)))
	}

	content, err := manager.Export(ctx, doc, format)
	if err != nil {
		return err
	}

	if opts.output == "" || opts.output == "-" {
		_, err = stdout.Write(content)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(opts.output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(opts.output, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}

	printWritten(stderr, opts.output, format, len(content))
	return nil
}

// resolveFormat picks the explicit format, else the output extension, else html
func resolveFormat(flag, output string) (exporter.ExportFormat, error) {
	if flag != "" {
		return exporter.ParseFormat(flag)
	}
	if output != "" && output != "-" {
		if format, err := exporter.ParseFormat(strings.TrimPrefix(filepath.Ext(output), ".")); err == nil {
			return format, nil
		}
	}
	return exporter.ExportFormatHTML, nil
}

// readInput reads the payload from path, or from stdin when path is - or empty
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}

// printFailures lists recovered render failures
func printFailures(w io.Writer, outcome *page.Outcome) {
	if outcome == nil || outcome.OK() {
		return
	}
	yellow := color.New(color.FgYellow)
	for _, f := range outcome.Failures {
		yellow.Fprintf(w, "  ⚠ %s: %s\n", f.Section, f.Message)
	}
}

// printWritten prints the one-line summary of a written file
func printWritten(w io.Writer, path string, format exporter.ExportFormat, size int) {
	ok := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	fmt.Fprintf(w, "%s %s %s\n", ok.Render("✓"), path, dim.Render(fmt.Sprintf("(%s, %d bytes)", format, size)))
}
