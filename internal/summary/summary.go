// Package summary derives the headline figures shown next to a footprint report.
package summary

import (
	"fmt"
	"math"
)

// Conversion factors behind the derived figures.
const (
	MonthsPerYear = 12
	// KgAbsorbedPerTreeYear is the CO2e a single tree offsets in a year.
	KgAbsorbedPerTreeYear = 22
	// Offset price range per tonne of CO2e, in the display currency.
	CostPerTonneMin = 40
	CostPerTonneMax = 60
)

// Metrics are the values derived from one monthly total.
// Negative or non-finite totals are not rejected and propagate as-is.
type Metrics struct {
	TotalMonthly   float64 `json:"total_monthly"`
	AnnualEstimate float64 `json:"annual_estimate"`
	TreesYearly    int     `json:"trees_yearly"`
	CostRangeMin   float64 `json:"cost_range_min"`
	CostRangeMax   float64 `json:"cost_range_max"`
}

// Derive computes Metrics from a monthly total in kg CO2e.
func Derive(total float64) Metrics {
	annual := total * MonthsPerYear
	tonnes := annual / 1000
	return Metrics{
		TotalMonthly:   total,
		AnnualEstimate: annual,
		TreesYearly:    roundHalfUp(annual / KgAbsorbedPerTreeYear),
		CostRangeMin:   tonnes * CostPerTonneMin,
		CostRangeMax:   tonnes * CostPerTonneMax,
	}
}

// roundHalfUp rounds .5 toward positive infinity, matching browser Math.round.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Units holds the literal suffixes and currency symbol used when displaying Metrics.
type Units struct {
	Emission string `yaml:"emission" json:"emission"`
	Trees    string `yaml:"trees" json:"trees"`
	Currency string `yaml:"currency" json:"currency"`
}

// DefaultUnits returns the Brazilian Portuguese labels used by the report page.
func DefaultUnits() Units {
	return Units{
		Emission: "kg CO2e",
		Trees:    "árvores",
		Currency: "R$",
	}
}

// WithDefaults fills empty fields from DefaultUnits.
func (u Units) WithDefaults() Units {
	d := DefaultUnits()
	if u.Emission == "" {
		u.Emission = d.Emission
	}
	if u.Trees == "" {
		u.Trees = d.Trees
	}
	if u.Currency == "" {
		u.Currency = d.Currency
	}
	return u
}

// Display is the text written into the three summary fields.
type Display struct {
	TotalMonthly string `json:"total_monthly"`
	TreesYearly  string `json:"trees_yearly"`
	AnnualCost   string `json:"annual_cost"`
}

// Format renders m with two decimals for amounts and an integer tree count.
func (u Units) Format(m Metrics) Display {
	return Display{
		TotalMonthly: u.Amount(m.TotalMonthly),
		TreesYearly:  fmt.Sprintf("%d %s", m.TreesYearly, u.Trees),
		AnnualCost:   fmt.Sprintf("%s - %s", u.Money(m.CostRangeMin), u.Money(m.CostRangeMax)),
	}
}

// Amount renders an emission value such as "45.00 kg CO2e".
func (u Units) Amount(v float64) string {
	return fmt.Sprintf("%.2f %s", v, u.Emission)
}

// Money renders a currency value such as "R$ 21.60".
func (u Units) Money(v float64) string {
	return fmt.Sprintf("%s %.2f", u.Currency, v)
}
