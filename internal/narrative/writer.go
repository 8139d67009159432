package narrative

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/pkg/errors"
	"github.com/carbonreport/carbonreport/pkg/logger"
)

// Writer turns a prompt into narrative markup.
type Writer interface {
	// Name identifies the writer in logs and metrics.
	Name() string
	// Available reports whether the writer can run at all.
	Available() bool
	Write(ctx context.Context, prompt string) (string, error)
}

// Default writer settings.
const (
	DefaultCommand    = "gemini"
	DefaultModel      = "gemini-2.5-pro"
	DefaultTimeout    = 2 * time.Minute
	DefaultMaxRetries = 2
	DefaultRetryDelay = 2 * time.Second
)

// WriterConfig configures the narrative writer.
type WriterConfig struct {
	// Enabled turns LLM generation on; when false every narrative uses the fallback.
	Enabled bool `yaml:"enabled"`
	// Command is the CLI executable, looked up in PATH when not absolute.
	Command string `yaml:"command"`
	Model   string `yaml:"model"`
	// ExtraArgs are appended after the default arguments (space-separated).
	ExtraArgs  string        `yaml:"extra_args"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// WithDefaults fills zero fields.
func (c WriterConfig) WithDefaults() WriterConfig {
	if c.Command == "" {
		c.Command = DefaultCommand
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// CLIWriter runs an LLM command line tool with the prompt on stdin and reads
// the narrative from stdout.
type CLIWriter struct {
	cfg     WriterConfig
	cliPath string
	log     *zap.Logger
}

// NewCLIWriter creates a writer for cfg.Command.
func NewCLIWriter(cfg WriterConfig) *CLIWriter {
	cfg = cfg.WithDefaults()
	cliPath := cfg.Command
	if path, err := exec.LookPath(cfg.Command); err == nil {
		cliPath = path
	}
	return &CLIWriter{
		cfg:     cfg,
		cliPath: cliPath,
		log:     logger.ForComponent("narrative_writer"),
	}
}

// Name returns the command name.
func (w *CLIWriter) Name() string {
	return w.cfg.Command
}

// Available reports whether the command can be found.
func (w *CLIWriter) Available() bool {
	_, err := exec.LookPath(w.cliPath)
	return err == nil
}

// Write runs the command once. The caller owns retries.
func (w *CLIWriter) Write(ctx context.Context, prompt string) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	args := []string{"-p", "--model", w.cfg.Model, "--output-format", "text"}
	if w.cfg.ExtraArgs != "" {
		args = append(args, strings.Fields(w.cfg.ExtraArgs)...)
	}

	cmd := exec.CommandContext(execCtx, w.cliPath, args...)
	cmd.Env = os.Environ()
	cmd.WaitDelay = time.Second

	w.log.Info("Executing narrative writer",
		zap.String("command", w.cliPath+" "+strings.Join(args, " ")+" < [stdin prompt]"),
		zap.String("model", w.cfg.Model),
		zap.Duration("timeout", w.cfg.Timeout),
		zap.Int("prompt_length", len(prompt)),
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeWriterExecution, "failed to create stdin pipe", err)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriterUnavailable, "failed to start "+w.cfg.Command, err)
	}

	go func() {
		defer stdin.Close()
		if _, writeErr := stdin.Write([]byte(prompt)); writeErr != nil {
			w.log.Error("Failed to write prompt to stdin", zap.Error(writeErr))
		}
	}()

	if err := cmd.Wait(); err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			return "", errors.Wrap(errors.ErrCodeWriterTimeout, "narrative writer timed out", execCtx.Err())
		}
		return "", errors.Wrap(errors.ErrCodeWriterExecution, "narrative writer failed: "+strings.TrimSpace(stderr.String()), err)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", errors.New(errors.ErrCodeNarrativeEmpty, "narrative writer returned no text")
	}
	return text, nil
}
