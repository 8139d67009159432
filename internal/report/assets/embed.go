// Package assets provides the embedded stylesheets and images for HTML/PDF export.
package assets

import (
	_ "embed"
)

// Report page stylesheet, shared by the HTML page and the PDF print
//
//go:embed report.css
var ReportCSS string

// Print-only overrides applied on top of ReportCSS for PDF export
//
//go:embed print.css
var PrintCSS string

// Leaf logo used in the page header and the PDF header template
//
//go:embed logo.svg
var LogoSVG string
