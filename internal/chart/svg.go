package chart

import (
	"fmt"
	"html"
	"math"
	"strings"
	"sync"
)

// SVG creates instances holding a static doughnut drawn as inline SVG.
// Each slice is a stroked circle with a dash pattern, so a single 100% slice
// still closes the ring.
type SVG struct{}

// NewSVG returns the static SVG factory.
func NewSVG() *SVG {
	return &SVG{}
}

// Create renders the chart and attaches the instance to canvas.
func (f *SVG) Create(canvas Canvas, cfg Config) (Instance, error) {
	if len(cfg.Dataset.Labels) != len(cfg.Dataset.Values) {
		return nil, fmt.Errorf("chart: %d labels for %d values", len(cfg.Dataset.Labels), len(cfg.Dataset.Values))
	}
	for i, v := range cfg.Dataset.Values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("chart: slice %q has unplottable value %v", cfg.Dataset.Labels[i], v)
		}
	}

	inst := &svgInstance{
		canvas:   canvas,
		markup:   renderDoughnutSVG(canvas.ID(), cfg.Dataset, cfg.Style.WithDefaults()),
		tooltips: cfg.Dataset.Tooltips(),
	}
	if err := canvas.Attach(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

const (
	svgTitleHeight  = 40
	svgLegendRow    = 22
	svgRingFraction = 0.35
)

func renderDoughnutSVG(id string, ds Dataset, style Style) string {
	w, h := style.Width, style.Height
	legendHeight := ds.Len() * svgLegendRow
	plotHeight := h - svgTitleHeight - legendHeight - 10
	if plotHeight < 80 {
		plotHeight = 80
		h = svgTitleHeight + legendHeight + plotHeight + 10
	}

	cx := float64(w) / 2
	cy := float64(svgTitleHeight) + float64(plotHeight)/2
	outer := math.Min(float64(w), float64(plotHeight))/2 - 4
	thickness := outer * svgRingFraction
	r := outer - thickness/2
	circumference := 2 * math.Pi * r

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" id="%s" width="%d" height="%d" viewBox="0 0 %d %d" role="img">`,
		html.EscapeString(id), w, h, w, h)
	fmt.Fprintf(&sb, `<text x="%.1f" y="26" text-anchor="middle" font-size="18" font-weight="bold" fill="%s">%s</text>`,
		cx, style.TextColor, html.EscapeString(ds.Title()))

	var sum float64
	for _, v := range ds.Values {
		sum += v
	}

	// Border ring underneath the slices
	fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-width="%.2f"/>`,
		cx, cy, r, style.BorderColor, thickness+float64(style.BorderWidth))

	offset := 0.0
	for i, v := range ds.Values {
		if sum == 0 || v == 0 {
			continue
		}
		length := v / sum * circumference
		fmt.Fprintf(&sb,
			`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-width="%.2f" stroke-dasharray="%.3f %.3f" stroke-dashoffset="%.3f" transform="rotate(-90 %.2f %.2f)"><title>%s</title></circle>`,
			cx, cy, r, style.Color(i), thickness, length, circumference-length, -offset, cx, cy,
			html.EscapeString(ds.Tooltip(i)))
		offset += length
	}

	legendTop := svgTitleHeight + plotHeight + 10
	for i := range ds.Values {
		y := legendTop + i*svgLegendRow
		fmt.Fprintf(&sb, `<rect x="16" y="%d" width="12" height="12" rx="6" fill="%s"/>`, y, style.Color(i))
		fmt.Fprintf(&sb, `<text x="36" y="%d" font-size="13" fill="%s">%s</text>`,
			y+11, style.TextColor, html.EscapeString(ds.Tooltip(i)))
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}

type svgInstance struct {
	mu        sync.Mutex
	canvas    Canvas
	markup    string
	tooltips  []string
	destroyed bool
}

// Destroy detaches the instance. Calling it twice is a no-op.
func (i *svgInstance) Destroy() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return nil
	}
	i.canvas.Detach(i)
	i.destroyed = true
	return nil
}

// Snapshot returns the rendered SVG.
func (i *svgInstance) Snapshot() Snapshot {
	return Snapshot{
		Kind:     KindSVG,
		CanvasID: i.canvas.ID(),
		SVG:      i.markup,
		Tooltips: i.tooltips,
	}
}

// NewFactory returns the factory registered under kind, defaulting to Chart.js.
func NewFactory(kind string) (Factory, error) {
	switch kind {
	case "", KindChartJS:
		return NewChartJS(), nil
	case KindSVG:
		return NewSVG(), nil
	default:
		return nil, fmt.Errorf("chart: unknown renderer %q", kind)
	}
}
