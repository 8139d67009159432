// Package chart prepares footprint data for the doughnut chart and owns the single
// chart instance attached to a page's canvas.
//
// The package computes labels, values and tooltip percentages. Drawing is delegated
// to a Factory: ChartJS emits a Chart.js configuration for interactive pages and SVG
// renders a static doughnut for PDF and offline output.
package chart

import (
	"fmt"

	"github.com/carbonreport/carbonreport/internal/model"
)

// DefaultUnit is appended to values in tooltips and the chart title.
const DefaultUnit = "kg CO2e"

// Labels maps category keys to display names.
type Labels map[string]string

// DefaultLabels returns the display names for the categories the calculator produces.
func DefaultLabels() Labels {
	return Labels{
		"transporte":       "Transporte",
		"energia_eletrica": "Energia Elétrica",
		"gas_cozinha":      "Gás de Cozinha",
	}
}

// Display returns the display name for key, or key itself when unmapped.
func (l Labels) Display(key string) string {
	if name, ok := l[key]; ok && name != "" {
		return name
	}
	return key
}

// Dataset is what the chart collaborator receives: ordered labels and values plus
// the report total used for percentages.
type Dataset struct {
	Keys   []string  `json:"keys"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Total  float64   `json:"total"`
	Unit   string    `json:"unit"`
}

// Build maps a breakdown to a Dataset, keeping the breakdown's order.
func Build(details model.CategoryBreakdown, total float64, labels Labels) Dataset {
	ds := Dataset{
		Keys:   details.Keys(),
		Values: details.Values(),
		Total:  total,
		Unit:   DefaultUnit,
	}
	ds.Labels = make([]string, len(ds.Keys))
	for i, key := range ds.Keys {
		ds.Labels[i] = labels.Display(key)
	}
	return ds
}

// Len returns the number of slices.
func (d Dataset) Len() int {
	return len(d.Values)
}

// Percentage returns value i as a percentage of Total. A zero total yields 0.
func (d Dataset) Percentage(i int) float64 {
	if d.Total == 0 {
		return 0
	}
	return d.Values[i] / d.Total * 100
}

// Tooltip renders the hover text for slice i, e.g. "Transporte: 30.00 kg CO2e (66.7%)".
func (d Dataset) Tooltip(i int) string {
	return fmt.Sprintf("%s: %.2f %s (%.1f%%)", d.Labels[i], d.Values[i], d.unit(), d.Percentage(i))
}

// Tooltips renders every slice's tooltip in order.
func (d Dataset) Tooltips() []string {
	out := make([]string, d.Len())
	for i := range out {
		out[i] = d.Tooltip(i)
	}
	return out
}

// Title renders the chart heading, e.g. "Total: 45.00 kg CO2e".
func (d Dataset) Title() string {
	return fmt.Sprintf("Total: %.2f %s", d.Total, d.unit())
}

func (d Dataset) unit() string {
	if d.Unit == "" {
		return DefaultUnit
	}
	return d.Unit
}
