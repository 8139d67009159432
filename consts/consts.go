// Package consts defines cross-module constants used throughout the application.
package consts

import (
	"sync"
	"time"
)

// ServiceName is the application service name
const ServiceName = "carbonreport"

// Export format constants
const (
	FormatHTML = "html"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// Project information constants
const (
	// ProjectName is the display name of the project
	ProjectName = "CarbonReport"

	// ProjectURL is the repository URL
	ProjectURL = "https://github.com/carbonreport/carbonreport"
)

// Display target identifiers. The HTML page uses the same values as element ids.
const (
	TargetNarrative    = "narrative-report"
	TargetChart        = "footprint-chart"
	TargetTotalMonthly = "total-monthly"
	TargetTreesYearly  = "trees-yearly"
	TargetAnnualCost   = "annual-cost"
	TargetReportData   = "report-data"
)

// Build information - set via ldflags during build or programmatically
var (
	// Version is the application version
	Version = "dev"

	// BuildTime is the build timestamp
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// Server runtime information
var (
	startedAt   time.Time
	startedOnce sync.Once
)

// SetStartedAt records the server start time (can only be called once)
func SetStartedAt(t time.Time) {
	startedOnce.Do(func() {
		startedAt = t
	})
}

// GetStartedAt returns the server start time
func GetStartedAt() time.Time {
	return startedAt
}

// GetUptime returns the duration since server started
func GetUptime() time.Duration {
	if startedAt.IsZero() {
		return 0
	}
	return time.Since(startedAt)
}
