package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/carbonreport/carbonreport/consts"
	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/internal/report/assets"
)

// HTMLExporter exports reports to a self-contained HTML page
type HTMLExporter struct {
	tmpl *template.Template
	// print selects the print stylesheet and drops scripts
	print bool
}

// NewHTMLExporter creates a new HTML exporter
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{tmpl: pageTemplate}
}

// newPrintExporter returns the variant used as PDF input
func newPrintExporter() *HTMLExporter {
	return &HTMLExporter{tmpl: pageTemplate, print: true}
}

// pageData feeds pageTemplate. Values placed inside scripts are escaped by html/template.
type pageData struct {
	Lang        string
	Title       string
	GeneratedAt string
	Version     string
	Print       bool

	CSS      template.CSS
	PrintCSS template.CSS
	Logo     template.HTML

	IDs struct {
		Narrative, Chart, TotalMonthly, TreesYearly, AnnualCost, ReportData string
	}

	NarrativeHTML template.HTML
	TotalMonthly  string
	TreesYearly   string
	AnnualCost    string

	ChartKind     string
	ChartSVG      template.HTML
	ChartConfig   json.RawMessage
	ChartTooltips []string
	ChartJSURL    string

	Payload json.RawMessage
}

// Export renders the document into an HTML page
func (e *HTMLExporter) Export(_ context.Context, doc *Document) ([]byte, error) {
	data := e.pageData(doc)

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render html page: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *HTMLExporter) pageData(doc *Document) pageData {
	data := pageData{
		Lang:        doc.Lang,
		Title:       documentTitle(doc),
		GeneratedAt: doc.GeneratedAt.Format("02/01/2006 15:04"),
		Version:     consts.Version,
		Print:       e.print,
		CSS:         template.CSS(assets.ReportCSS),
		Logo:        template.HTML(getLogoSVG(32, 32)),

		// The formatter output is trusted markup and is not sanitized
		NarrativeHTML: template.HTML(doc.View.NarrativeHTML),
		TotalMonthly:  doc.View.TotalMonthly,
		TreesYearly:   doc.View.TreesYearly,
		AnnualCost:    doc.View.AnnualCost,

		ChartJSURL: doc.ChartJSURL,
		Payload:    doc.Payload,
	}
	if e.print {
		data.PrintCSS = template.CSS(assets.PrintCSS)
	}

	data.IDs.Narrative = consts.TargetNarrative
	data.IDs.Chart = consts.TargetChart
	data.IDs.TotalMonthly = consts.TargetTotalMonthly
	data.IDs.TreesYearly = consts.TargetTreesYearly
	data.IDs.AnnualCost = consts.TargetAnnualCost
	data.IDs.ReportData = consts.TargetReportData

	if snap := doc.View.Chart; snap != nil {
		data.ChartKind = snap.Kind
		switch snap.Kind {
		case chart.KindSVG:
			// Generated by the chart package with every label escaped; it carries the chart id
			data.ChartSVG = template.HTML(snap.SVG)
		case chart.KindChartJS:
			if e.print || doc.ChartJSURL == "" {
				data.ChartKind = ""
				break
			}
			data.ChartConfig = snap.Config
			data.ChartTooltips = snap.Tooltips
		}
	}
	return data
}

// Name returns the human-readable name of this exporter
func (e *HTMLExporter) Name() string {
	return "HTML"
}

// FileExtension returns the file extension for HTML files
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// ContentType returns the MIME type of HTML pages
func (e *HTMLExporter) ContentType() string {
	return "text/html; charset=utf-8"
}

// documentTitle falls back to a title derived from the report ID
func documentTitle(doc *Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	if doc.ID != "" {
		return "Relatório de Pegada de Carbono " + doc.ID
	}
	return "Relatório de Pegada de Carbono"
}

// getLogoSVG returns the logo SVG with specified width and height
func getLogoSVG(width, height int) string {
	logoContent := strings.TrimSpace(assets.LogoSVG)
	return strings.Replace(logoContent, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"`,
		fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"`, width, height), 1)
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta name="generator" content="carbonreport {{.Version}}">
    <title>{{.Title}}</title>
    <style>{{.CSS}}</style>
    {{- if .Print}}
    <style>{{.PrintCSS}}</style>
    {{- end}}
</head>
<body>
<div class="container">
    <header class="report-header">
        <span class="report-logo">{{.Logo}}</span>
        <div>
            <h1>{{.Title}}</h1>
            <div class="report-meta">Gerado em {{.GeneratedAt}}</div>
        </div>
    </header>

    <section class="summary-cards">
        <div class="card">
            <h3>Emissão mensal</h3>
            <div class="value" id="{{.IDs.TotalMonthly}}">{{.TotalMonthly}}</div>
        </div>
        <div class="card">
            <h3>Árvores para compensar por ano</h3>
            <div class="value" id="{{.IDs.TreesYearly}}">{{.TreesYearly}}</div>
        </div>
        <div class="card">
            <h3>Custo anual de compensação</h3>
            <div class="value" id="{{.IDs.AnnualCost}}">{{.AnnualCost}}</div>
        </div>
    </section>

    <section class="chart-container">
        {{- if eq .ChartKind "svg"}}
        <div class="chart-svg">{{.ChartSVG}}</div>
        {{- else if eq .ChartKind "chartjs"}}
        <canvas id="{{.IDs.Chart}}"></canvas>
        {{- end}}
    </section>

    <article class="narrative" id="{{.IDs.Narrative}}">{{.NarrativeHTML}}</article>

    <footer class="report-footer">carbonreport {{.Version}}</footer>
</div>
{{- if .Payload}}
<script type="application/json" id="{{.IDs.ReportData}}">{{.Payload}}</script>
{{- end}}
{{- if eq .ChartKind "chartjs"}}
<script src="{{.ChartJSURL}}"></script>
<script>
(function () {
    var config = {{.ChartConfig}};
    var tooltips = {{.ChartTooltips}};
    config.options = config.options || {};
    config.options.plugins = config.options.plugins || {};
    config.options.plugins.tooltip = config.options.plugins.tooltip || {};
    config.options.plugins.tooltip.callbacks = {
        label: function (ctx) { return tooltips[ctx.dataIndex] || ''; }
    };
    new Chart(document.getElementById({{.IDs.Chart}}), config);
})();
</script>
{{- end}}
</body>
</html>
`))
