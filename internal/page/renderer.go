// Package page renders a footprint report into injected display targets.
//
// A render runs three independently guarded sections in a fixed order: the
// chart, the narrative and the summary cards. A failing or panicking section is
// logged and recorded in the Outcome; the remaining sections still run.
package page

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/internal/markup"
	"github.com/carbonreport/carbonreport/internal/model"
	"github.com/carbonreport/carbonreport/internal/summary"
	"github.com/carbonreport/carbonreport/pkg/telemetry"
)

// DefaultErrorMessage is written into the narrative target when the payload cannot be read.
const DefaultErrorMessage = "Erro ao carregar relatório. Por favor, recarregue a página."

// Section names used in failures, logs and metrics.
const (
	SectionPayload   = "payload"
	SectionChart     = "chart"
	SectionNarrative = "narrative"
	SectionSummary   = "summary"
)

// FailureKind classifies a recovered render failure.
type FailureKind int

const (
	// MissingInput means a target or a data section was absent; the section was skipped.
	MissingInput FailureKind = iota + 1
	// ParseFailure means the payload was not valid JSON.
	ParseFailure
	// RenderFailure means a section returned an error or panicked.
	RenderFailure
)

// String returns the kind's name.
func (k FailureKind) String() string {
	switch k {
	case MissingInput:
		return "missing_input"
	case ParseFailure:
		return "parse_failure"
	case RenderFailure:
		return "render_failure"
	default:
		return fmt.Sprintf("failure_kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Failure is one recovered error.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Section string      `json:"section"`
	Err     error       `json:"-"`
	Message string      `json:"message"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Section, f.Kind, f.Err)
}

// Outcome reports what a render did.
type Outcome struct {
	Failures []Failure        `json:"failures,omitempty"`
	Metrics  *summary.Metrics `json:"metrics,omitempty"`
}

// OK reports whether every section rendered.
func (o *Outcome) OK() bool {
	return len(o.Failures) == 0
}

// Has reports whether a failure of kind was recorded for section.
func (o *Outcome) Has(kind FailureKind, section string) bool {
	for _, f := range o.Failures {
		if f.Kind == kind && f.Section == section {
			return true
		}
	}
	return false
}

func (o *Outcome) add(kind FailureKind, section string, err error) {
	o.Failures = append(o.Failures, Failure{Kind: kind, Section: section, Err: err, Message: err.Error()})
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLabels sets the category display names.
func WithLabels(labels chart.Labels) Option {
	return func(r *Renderer) { r.labels = labels }
}

// WithUnits sets the summary unit suffixes and currency symbol.
func WithUnits(units summary.Units) Option {
	return func(r *Renderer) { r.units = units.WithDefaults() }
}

// WithStyle sets the chart style.
func WithStyle(style chart.Style) Option {
	return func(r *Renderer) { r.style = style.WithDefaults() }
}

// WithErrorMessage sets the text shown when the payload cannot be read.
func WithErrorMessage(msg string) Option {
	return func(r *Renderer) {
		if msg != "" {
			r.errorMessage = msg
		}
	}
}

// WithFormatter replaces the narrative formatter.
func WithFormatter(f *markup.Formatter) Option {
	return func(r *Renderer) { r.formatter = f }
}

// Renderer writes reports into a fixed set of targets. Renders are serialized.
type Renderer struct {
	mu           sync.Mutex
	targets      Targets
	log          *zap.Logger
	formatter    *markup.Formatter
	labels       chart.Labels
	units        summary.Units
	style        chart.Style
	errorMessage string
}

// NewRenderer creates a renderer. log receives every recovered failure.
func NewRenderer(targets Targets, log *zap.Logger, opts ...Option) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{
		targets:      targets,
		log:          log.Named("page"),
		formatter:    markup.NewFormatter(),
		labels:       chart.DefaultLabels(),
		units:        summary.DefaultUnits(),
		style:        chart.DefaultStyle(),
		errorMessage: DefaultErrorMessage,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ErrorHTML returns the fragment written into the narrative target on a parse failure.
func (r *Renderer) ErrorHTML() string {
	return fmt.Sprintf(`<p style="color: var(--accent-red);">%s</p>`, r.errorMessage)
}

// RenderRaw decodes raw and renders it. Invalid JSON writes the error message into
// the narrative target and chart and summary report their data as missing. A field
// of the wrong type fails only the sections that read it.
func (r *Renderer) RenderRaw(ctx context.Context, raw []byte) *Outcome {
	payload, err := model.DecodePayload(raw)
	var decodeErr *model.DecodeError
	if err == nil || errors.As(err, &decodeErr) {
		return r.render(ctx, payload, decodeErr)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	out := &Outcome{}
	r.fail(ctx, out, ParseFailure, SectionPayload, err)
	r.guard(ctx, out, SectionChart, func() (FailureKind, error) { return r.renderChart(ctx, payload, nil) })
	r.guard(ctx, out, SectionNarrative, func() (FailureKind, error) { return r.writeError() })
	r.guard(ctx, out, SectionSummary, func() (FailureKind, error) { return r.updateSummary(payload, nil, out) })
	r.finish(ctx, out, start)
	return out
}

// Render writes payload into the targets: chart, then narrative, then summary.
func (r *Renderer) Render(ctx context.Context, payload *model.ReportPayload) *Outcome {
	return r.render(ctx, payload, nil)
}

func (r *Renderer) render(ctx context.Context, payload *model.ReportPayload, decodeErr *model.DecodeError) *Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "page.Render")
	defer span.End()

	start := time.Now()
	out := &Outcome{}
	if payload == nil {
		payload = &model.ReportPayload{}
	}
	r.guard(ctx, out, SectionChart, func() (FailureKind, error) { return r.renderChart(ctx, payload, decodeErr) })
	r.guard(ctx, out, SectionNarrative, func() (FailureKind, error) { return r.renderNarrative(payload, decodeErr) })
	r.guard(ctx, out, SectionSummary, func() (FailureKind, error) { return r.updateSummary(payload, decodeErr, out) })
	r.finish(ctx, out, start)

	if !out.OK() {
		telemetry.SetSpanError(span, out.Failures[0])
	} else {
		telemetry.SetSpanOK(span)
	}
	return out
}

// RenderChart renders only the chart section.
func (r *Renderer) RenderChart(ctx context.Context, payload *model.ReportPayload) *Outcome {
	return r.single(ctx, SectionChart, func() (FailureKind, error) { return r.renderChart(ctx, payload, nil) })
}

// RenderNarrative renders only the narrative section.
func (r *Renderer) RenderNarrative(ctx context.Context, payload *model.ReportPayload) *Outcome {
	return r.single(ctx, SectionNarrative, func() (FailureKind, error) { return r.renderNarrative(payload, nil) })
}

// UpdateSummary renders only the summary cards.
func (r *Renderer) UpdateSummary(ctx context.Context, payload *model.ReportPayload) *Outcome {
	out := &Outcome{}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guard(ctx, out, SectionSummary, func() (FailureKind, error) { return r.updateSummary(payload, nil, out) })
	return out
}

func (r *Renderer) single(ctx context.Context, section string, fn func() (FailureKind, error)) *Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &Outcome{}
	r.guard(ctx, out, section, fn)
	return out
}

var (
	errNoTarget    = errors.New("target not present")
	errNoDashboard = errors.New("data_for_dashboard not present")
	errNoDetails   = errors.New("details_kg_co2e is empty")
	errNoTotal     = errors.New("total_kg_co2e not present")
)

func (r *Renderer) renderChart(ctx context.Context, payload *model.ReportPayload, decodeErr *model.DecodeError) (FailureKind, error) {
	if r.targets.Chart == nil {
		return MissingInput, errNoTarget
	}
	data := payload.DataForDashboard
	if data == nil {
		return missing(decodeErr.Field(model.FieldDashboard), errNoDashboard)
	}
	if len(data.DetailsKgCO2e) == 0 {
		return missing(decodeErr.Field(model.FieldDetails), errNoDetails)
	}

	// an absent or unreadable total falls back to the sum of the details
	total, ok := data.Total()
	if !ok {
		for _, v := range data.DetailsKgCO2e.Values() {
			total += v
		}
	}

	before := r.targets.Chart.Replacements()
	_, err := r.targets.Chart.Replace(chart.Config{
		Dataset: chart.Build(data.DetailsKgCO2e, total, r.labels),
		Style:   r.style,
	})
	if r.targets.Chart.Replacements() > before {
		telemetry.GetMetrics().RecordChartReplacement(ctx, r.targets.Chart.Canvas().ID())
	}
	if err != nil {
		return RenderFailure, err
	}
	return 0, nil
}

func (r *Renderer) renderNarrative(payload *model.ReportPayload, decodeErr *model.DecodeError) (FailureKind, error) {
	if r.targets.Narrative == nil {
		return MissingInput, errNoTarget
	}
	if err := decodeErr.Field(model.FieldNarrative); err != nil {
		r.targets.Narrative.SetHTML(r.ErrorHTML())
		return RenderFailure, err
	}
	fragment, err := r.formatter.Format(payload.NarrativeReport)
	if errors.Is(err, markup.ErrEmptyInput) {
		return MissingInput, err
	}
	if err != nil {
		return RenderFailure, err
	}
	r.targets.Narrative.SetHTML(fragment)
	return 0, nil
}

func (r *Renderer) writeError() (FailureKind, error) {
	if r.targets.Narrative == nil {
		return MissingInput, errNoTarget
	}
	r.targets.Narrative.SetHTML(r.ErrorHTML())
	return 0, nil
}

func (r *Renderer) updateSummary(payload *model.ReportPayload, decodeErr *model.DecodeError, out *Outcome) (FailureKind, error) {
	if r.targets.TotalMonthly == nil && r.targets.TreesYearly == nil && r.targets.AnnualCost == nil {
		return MissingInput, errNoTarget
	}
	total, ok := payload.DataForDashboard.Total()
	if !ok {
		if err := decodeErr.Field(model.FieldDashboard); err != nil {
			return RenderFailure, err
		}
		return missing(decodeErr.Field(model.FieldTotal), errNoTotal)
	}

	m := summary.Derive(total)
	out.Metrics = &m
	display := r.units.Format(m)
	setText(r.targets.TotalMonthly, display.TotalMonthly)
	setText(r.targets.TreesYearly, display.TreesYearly)
	setText(r.targets.AnnualCost, display.AnnualCost)
	return 0, nil
}

// missing reports a skipped section: a render failure when the field behind it
// was present but unreadable, missing input otherwise.
func missing(fieldErr, absent error) (FailureKind, error) {
	if fieldErr != nil {
		return RenderFailure, fieldErr
	}
	return MissingInput, absent
}

func setText(el Element, text string) {
	if el != nil {
		el.SetText(text)
	}
}

// guard runs one section, converting errors and panics into recorded failures.
func (r *Renderer) guard(ctx context.Context, out *Outcome, section string, fn func() (FailureKind, error)) {
	defer func() {
		if p := recover(); p != nil {
			r.fail(ctx, out, RenderFailure, section, fmt.Errorf("panic: %v", p))
		}
	}()
	if kind, err := fn(); err != nil {
		r.fail(ctx, out, kind, section, err)
	}
}

func (r *Renderer) fail(ctx context.Context, out *Outcome, kind FailureKind, section string, err error) {
	out.add(kind, section, err)
	fields := []zap.Field{
		zap.String("section", section),
		zap.Stringer("kind", kind),
		zap.Error(err),
	}
	if kind == MissingInput {
		r.log.Warn("Render section skipped", fields...)
	} else {
		r.log.Error("Render section failed", fields...)
	}
	telemetry.GetMetrics().RecordRenderFailure(ctx, kind.String(), section)
}

func (r *Renderer) finish(ctx context.Context, out *Outcome, start time.Time) {
	elapsed := time.Since(start)
	telemetry.GetMetrics().RecordRender(ctx, len(out.Failures), elapsed.Seconds())
	r.log.Debug("Render finished",
		zap.Int("failures", len(out.Failures)),
		zap.Duration("elapsed", elapsed),
	)
}
