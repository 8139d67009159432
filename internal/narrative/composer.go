package narrative

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/internal/model"
	"github.com/carbonreport/carbonreport/pkg/telemetry"
)

// Request is what a narrative is composed from.
type Request struct {
	Details model.CategoryBreakdown
	Total   float64
	Inputs  model.JSONMap
}

// Result is a composed narrative and where it came from.
type Result struct {
	Text     string
	Source   model.NarrativeSource
	Attempts int
	// Err is the last writer error when Source is fallback.
	Err error
}

// Composer asks a Writer for a narrative, retrying a fixed number of times, and
// falls back to the built-in template when every attempt fails.
type Composer struct {
	writer     Writer
	templates  *Templates
	labels     chart.Labels
	maxRetries int
	retryDelay time.Duration
	log        *zap.Logger
}

// NewComposer creates a composer. A nil writer always uses the fallback.
func NewComposer(writer Writer, cfg WriterConfig, labels chart.Labels, log *zap.Logger) *Composer {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	if labels == nil {
		labels = chart.DefaultLabels()
	}
	return &Composer{
		writer:     writer,
		templates:  NewTemplates(),
		labels:     labels,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		log:        log.Named("narrative"),
	}
}

// Compose produces a narrative for req. It never fails: the fallback template is
// used when no writer is configured, the writer is unavailable or every attempt errors.
func (c *Composer) Compose(ctx context.Context, req Request) Result {
	facts := NewFacts(req.Details, req.Total, c.labels).WithInputs(req.Inputs)

	writerName := "none"
	if c.writer != nil {
		writerName = c.writer.Name()
	}
	ctx, span := telemetry.StartSpan(ctx, "narrative.Compose",
		trace.WithAttributes(telemetry.AttrNarrativeWriter.String(writerName)))
	defer span.End()

	res := c.generate(ctx, facts)
	if res.Source == model.NarrativeFallback {
		res.Text = Fallback(facts)
	}

	span.SetAttributes(telemetry.AttrReportSource.String(string(res.Source)))
	telemetry.GetMetrics().RecordNarrative(ctx, string(res.Source), res.Attempts)
	return res
}

func (c *Composer) generate(ctx context.Context, facts Facts) Result {
	fallback := Result{Source: model.NarrativeFallback}
	if c.writer == nil {
		return fallback
	}
	if !c.writer.Available() {
		c.log.Warn("Narrative writer unavailable, using fallback", zap.String("writer", c.writer.Name()))
		return fallback
	}

	prompt, err := c.templates.Prompt(facts)
	if err != nil {
		fallback.Err = err
		return fallback
	}

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		fallback.Attempts = attempt
		text, err := c.writer.Write(ctx, prompt)
		if err == nil {
			c.log.Info("Narrative generated",
				zap.Int("attempt", attempt),
				zap.Int("length", len(text)),
			)
			return Result{Text: text, Source: model.NarrativeGenerated, Attempts: attempt}
		}

		fallback.Err = err
		c.log.Warn("Narrative attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.maxRetries),
			zap.Error(err),
		)
		if attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return fallback
		case <-time.After(c.retryDelay):
		}
	}

	c.log.Warn("Narrative writer exhausted retries, using fallback", zap.Error(fallback.Err))
	return fallback
}
