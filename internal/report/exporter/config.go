package exporter

import (
	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/internal/config"
	"github.com/carbonreport/carbonreport/internal/page"
	"github.com/carbonreport/carbonreport/pkg/errors"
)

// NewManagerFromConfig builds the default manager from the render and export settings.
func NewManagerFromConfig(cfg *config.Config) (*ExportManager, error) {
	factory, err := chart.NewFactory(cfg.Render.ChartRenderer)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "invalid chart renderer", err)
	}

	pdf, err := PDFOptionsFor(cfg.Export.PageFormat, cfg.Export.Margin, cfg.Export.ChromePath, cfg.Export.Timeout)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "invalid export settings", err)
	}

	return NewDefaultManager(ManagerOptions{
		Factory: factory,
		Renderer: []page.Option{
			page.WithLabels(cfg.Render.ChartLabels()),
			page.WithUnits(cfg.Render.Units),
			page.WithStyle(cfg.Render.Chart),
			page.WithErrorMessage(cfg.Render.ErrorMessage),
		},
		Lang:       cfg.Render.HTMLLang(),
		ChartJSURL: cfg.Render.ChartJSURL,
	}, pdf), nil
}
