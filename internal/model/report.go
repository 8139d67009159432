package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// NarrativeSource records where a stored report's narrative text came from.
type NarrativeSource string

const (
	NarrativeProvided  NarrativeSource = "provided"  // sent by the caller
	NarrativeGenerated NarrativeSource = "generated" // written by the narrative writer
	NarrativeFallback  NarrativeSource = "fallback"  // deterministic template after writer failure
)

// Report is a stored footprint report.
type Report struct {
	ID        string         `gorm:"primarykey;size:20" json:"id"` // xid
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title string `gorm:"size:512" json:"title"`

	// Figures
	TotalKgCO2e float64           `gorm:"not null;default:0" json:"total_kg_co2e"`
	Details     CategoryBreakdown `gorm:"type:json" json:"details_kg_co2e"`

	// Narrative markup and its origin
	Narrative       string          `gorm:"type:text" json:"narrative_report"`
	NarrativeSource NarrativeSource `gorm:"size:20;not null;default:provided;index" json:"narrative_source"`

	// Inputs holds the raw answers the figures were computed from (km driven, kWh, ...)
	Inputs JSONMap `gorm:"type:json" json:"inputs,omitempty"`
}

// Payload rebuilds the page document for this report.
func (r *Report) Payload() *ReportPayload {
	total := r.TotalKgCO2e
	return &ReportPayload{
		NarrativeReport: r.Narrative,
		DataForDashboard: &DashboardData{
			TotalKgCO2e:   &total,
			DetailsKgCO2e: r.Details,
		},
	}
}

// PayloadJSON returns the page document as JSON.
func (r *Report) PayloadJSON() ([]byte, error) {
	return json.Marshal(r.Payload())
}
