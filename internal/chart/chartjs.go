package chart

import (
	"encoding/json"
	"fmt"
	"sync"
)

// KindChartJS and KindSVG identify the factory behind a Snapshot.
const (
	KindChartJS = "chartjs"
	KindSVG     = "svg"
)

// Snapshot is the serializable form of a live instance, written into exported pages.
type Snapshot struct {
	Kind     string          `json:"kind"`
	CanvasID string          `json:"canvas_id"`
	Config   json.RawMessage `json:"config,omitempty"`
	Tooltips []string        `json:"tooltips,omitempty"`
	SVG      string          `json:"svg,omitempty"`
}

// Snapshotter is implemented by instances that can be serialized.
type Snapshotter interface {
	Snapshot() Snapshot
}

// chartJSConfig mirrors the subset of the Chart.js configuration the page uses.
type chartJSConfig struct {
	Type    string         `json:"type"`
	Data    chartJSData    `json:"data"`
	Options chartJSOptions `json:"options"`
}

type chartJSData struct {
	Labels   []string         `json:"labels"`
	Datasets []chartJSDataset `json:"datasets"`
}

type chartJSDataset struct {
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor"`
	BorderWidth     int       `json:"borderWidth"`
}

type chartJSOptions struct {
	Responsive          bool           `json:"responsive"`
	MaintainAspectRatio bool           `json:"maintainAspectRatio"`
	Plugins             chartJSPlugins `json:"plugins"`
}

type chartJSPlugins struct {
	Legend  chartJSLegend  `json:"legend"`
	Title   chartJSTitle   `json:"title"`
	Tooltip chartJSTooltip `json:"tooltip"`
}

type chartJSFont struct {
	Size   int    `json:"size"`
	Weight string `json:"weight"`
}

type chartJSLegend struct {
	Position string `json:"position"`
	Labels   struct {
		Color         string      `json:"color"`
		Font          chartJSFont `json:"font"`
		Padding       int         `json:"padding"`
		UsePointStyle bool        `json:"usePointStyle"`
	} `json:"labels"`
}

type chartJSTitle struct {
	Display bool        `json:"display"`
	Text    string      `json:"text"`
	Color   string      `json:"color"`
	Font    chartJSFont `json:"font"`
	Padding struct {
		Top    int `json:"top"`
		Bottom int `json:"bottom"`
	} `json:"padding"`
}

type chartJSTooltip struct {
	BackgroundColor string `json:"backgroundColor"`
	Padding         int    `json:"padding"`
	TitleColor      string `json:"titleColor"`
	BodyColor       string `json:"bodyColor"`
	BorderColor     string `json:"borderColor"`
	BorderWidth     int    `json:"borderWidth"`
}

// ChartJS creates instances that carry a Chart.js doughnut configuration.
// Tooltip callbacks cannot travel as JSON, so each instance also carries the
// precomputed tooltip strings for the page script to look up by index.
type ChartJS struct{}

// NewChartJS returns the Chart.js factory.
func NewChartJS() *ChartJS {
	return &ChartJS{}
}

// Create builds the configuration and attaches the instance to canvas.
func (f *ChartJS) Create(canvas Canvas, cfg Config) (Instance, error) {
	if len(cfg.Dataset.Labels) != len(cfg.Dataset.Values) {
		return nil, fmt.Errorf("chart: %d labels for %d values", len(cfg.Dataset.Labels), len(cfg.Dataset.Values))
	}

	spec, err := json.Marshal(buildChartJSConfig(cfg.Dataset, cfg.Style.WithDefaults()))
	if err != nil {
		return nil, fmt.Errorf("chart: encode configuration: %w", err)
	}

	inst := &chartJSInstance{
		canvas:   canvas,
		config:   spec,
		tooltips: cfg.Dataset.Tooltips(),
	}
	if err := canvas.Attach(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func buildChartJSConfig(ds Dataset, style Style) chartJSConfig {
	colors := make([]string, ds.Len())
	for i := range colors {
		colors[i] = style.Color(i)
	}

	cfg := chartJSConfig{
		Type: "doughnut",
		Data: chartJSData{
			Labels: ds.Labels,
			Datasets: []chartJSDataset{{
				Data:            ds.Values,
				BackgroundColor: colors,
				BorderColor:     style.BorderColor,
				BorderWidth:     style.BorderWidth,
			}},
		},
		Options: chartJSOptions{
			Responsive:          true,
			MaintainAspectRatio: true,
		},
	}

	legend := &cfg.Options.Plugins.Legend
	legend.Position = "top"
	legend.Labels.Color = style.TextColor
	legend.Labels.Font = chartJSFont{Size: 14, Weight: "600"}
	legend.Labels.Padding = 15
	legend.Labels.UsePointStyle = true

	title := &cfg.Options.Plugins.Title
	title.Display = true
	title.Text = ds.Title()
	title.Color = style.TextColor
	title.Font = chartJSFont{Size: 18, Weight: "bold"}
	title.Padding.Top = 10
	title.Padding.Bottom = 20

	cfg.Options.Plugins.Tooltip = chartJSTooltip{
		BackgroundColor: style.TooltipBackground,
		Padding:         12,
		TitleColor:      style.TextColor,
		BodyColor:       style.TextColor,
		BorderColor:     style.AccentColor,
		BorderWidth:     1,
	}
	return cfg
}

type chartJSInstance struct {
	mu        sync.Mutex
	canvas    Canvas
	config    json.RawMessage
	tooltips  []string
	destroyed bool
}

// Destroy detaches the instance. Calling it twice is a no-op.
func (i *chartJSInstance) Destroy() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return nil
	}
	i.canvas.Detach(i)
	i.destroyed = true
	return nil
}

// Snapshot returns the configuration and tooltips.
func (i *chartJSInstance) Snapshot() Snapshot {
	return Snapshot{
		Kind:     KindChartJS,
		CanvasID: i.canvas.ID(),
		Config:   i.config,
		Tooltips: i.tooltips,
	}
}
