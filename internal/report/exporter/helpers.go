package exporter

// NewDefaultManager returns a manager with the HTML, PDF and JSON exporters registered.
func NewDefaultManager(opts ManagerOptions, pdf PDFOptions) *ExportManager {
	m := NewExportManager(opts)
	m.Register(ExportFormatHTML, NewHTMLExporter())
	m.Register(ExportFormatPDF, NewPDFExporterWithOptions(pdf))
	m.Register(ExportFormatJSON, NewJSONExporter())
	return m
}
