// Package narrative produces the narrative text of a footprint report, either by
// asking an LLM writer or from a fixed template when the writer is unavailable.
package narrative

import (
	"fmt"

	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/internal/model"
	"github.com/carbonreport/carbonreport/internal/summary"
)

// Category keys the calculator always reports, in display order.
const (
	KeyTransport   = "transporte"
	KeyElectricity = "energia_eletrica"
	KeyCookingGas  = "gas_cozinha"
)

// CanonicalKeys lists the calculator categories in the order narratives show them.
var CanonicalKeys = []string{KeyTransport, KeyElectricity, KeyCookingGas}

// kgPerCylinder is the LPG content of a standard household cylinder.
const kgPerCylinder = 13

// Share is one category's part of the monthly total.
type Share struct {
	Key     string
	Label   string
	Value   float64
	Percent float64
}

// Facts are the figures a narrative is written from.
type Facts struct {
	Total        float64
	Annual       float64
	AnnualTonnes float64
	// Trees truncates, unlike the rounded summary card.
	Trees     int
	CostMin   float64
	CostMax   float64
	Breakdown []Share
	Largest   Share
	// Context lists the raw answers behind the figures, one line each.
	Context []string
}

// NewFacts derives narrative figures from a breakdown and its monthly total.
// A zero total is treated as 1 for percentages only.
func NewFacts(details model.CategoryBreakdown, total float64, labels chart.Labels) Facts {
	m := summary.Derive(total)
	f := Facts{
		// A zero total prints as 0.00 with zero trees and cost, not as 1.00 with a
		// 0.48 to 0.72 range. Only Breakdown substitutes 1, as its divisor.
		Total:        total,
		Annual:       m.AnnualEstimate,
		AnnualTonnes: m.AnnualEstimate / 1000,
		Trees:        int(m.AnnualEstimate / summary.KgAbsorbedPerTreeYear),
		CostMin:      m.CostRangeMin,
		CostMax:      m.CostRangeMax,
		Breakdown:    Breakdown(details, total, labels),
	}
	f.Largest = Largest(f.Breakdown)
	return f
}

// WithInputs returns f with context lines built from the raw calculator answers.
func (f Facts) WithInputs(inputs model.JSONMap) Facts {
	f.Context = ContextLines(inputs)
	return f
}

// Breakdown lists the canonical categories first, defaulting missing ones to zero,
// followed by any other keys in document order.
func Breakdown(details model.CategoryBreakdown, total float64, labels chart.Labels) []Share {
	divisor := total
	if divisor == 0 {
		divisor = 1
	}
	share := func(key string, v float64) Share {
		return Share{Key: key, Label: labels.Display(key), Value: v, Percent: v / divisor * 100}
	}

	out := make([]Share, 0, len(CanonicalKeys)+len(details))
	canonical := make(map[string]bool, len(CanonicalKeys))
	for _, key := range CanonicalKeys {
		v, _ := details.Get(key)
		out = append(out, share(key, v))
		canonical[key] = true
	}
	for _, c := range details {
		if !canonical[c.Key] {
			out = append(out, share(c.Key, c.Value))
		}
	}
	return out
}

// Largest returns the share with the highest value. Ties keep the earlier share.
func Largest(shares []Share) Share {
	var best Share
	for i, s := range shares {
		if i == 0 || s.Value > best.Value {
			best = s
		}
	}
	return best
}

// ContextLines describes the raw answers that are present and positive.
func ContextLines(inputs model.JSONMap) []string {
	if len(inputs) == 0 {
		return nil
	}
	var lines []string
	if km := number(inputs, "km_carro"); km > 0 {
		fuel, _ := inputs["tipo_combustivel"].(string)
		if fuel == "" {
			fuel = "combustível"
		}
		lines = append(lines, fmt.Sprintf("Carro: %g km/mês (%s)", km, fuel))
	}
	if km := number(inputs, "km_onibus"); km > 0 {
		lines = append(lines, fmt.Sprintf("Ônibus: %g km/mês", km))
	}
	if kwh := number(inputs, "kwh_eletricidade"); kwh > 0 {
		lines = append(lines, fmt.Sprintf("Energia: %g kWh/mês", kwh))
	}
	if kg := number(inputs, "kg_gas_glp"); kg > 0 {
		lines = append(lines, fmt.Sprintf("Gás: %.1f botijão(ões)/mês", kg/kgPerCylinder))
	}
	return lines
}

func number(m model.JSONMap, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
