// Package router sets up the API routes for the application.
// It is used by the serve command; the render CLI does not need it.
package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/carbonreport/carbonreport/consts"
	"github.com/carbonreport/carbonreport/internal/api/handler"
	"github.com/carbonreport/carbonreport/internal/api/middleware"
	"github.com/carbonreport/carbonreport/internal/config"
	"github.com/carbonreport/carbonreport/internal/narrative"
	"github.com/carbonreport/carbonreport/internal/report/exporter"
	"github.com/carbonreport/carbonreport/internal/store"
	"github.com/carbonreport/carbonreport/pkg/logger"
	"github.com/carbonreport/carbonreport/pkg/telemetry"
)

// Dependencies are the services the routes are built from.
type Dependencies struct {
	Config    *config.Config
	Store     store.Store
	Composer  *narrative.Composer
	Exports   *exporter.ExportManager
	Telemetry *telemetry.Telemetry // optional
}

// Setup configures all API routes
func Setup(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	// Apply global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger.ForComponent("http"), cfg.Logging.AccessLog))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.ErrorHandler(cfg.Server.Debug))

	// Apply OpenTelemetry tracing and request metrics
	r.Use(otelgin.Middleware(consts.ServiceName))
	r.Use(middleware.Metrics())

	// Prometheus scrape endpoint, only when telemetry is enabled
	if h := deps.Telemetry.MetricsHandler(); h != nil {
		r.GET(deps.Telemetry.MetricsPath(), gin.WrapH(h))
	}

	healthHandler := handler.NewHealthHandler(deps.Store.DB())
	r.GET("/health", healthHandler.Health)

	renderHandler := handler.NewRenderHandler(deps.Exports)
	reportHandler := handler.NewReportHandler(deps.Store, deps.Composer, deps.Exports)

	// Rendered report page
	r.GET("/reports/:id", reportHandler.ViewReport)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.POST("/render", renderHandler.Render)

	reports := v1.Group("/reports")
	{
		reports.POST("", reportHandler.CreateReport)
		reports.GET("", reportHandler.ListReports)
		reports.GET("/:id", reportHandler.GetReport)
		reports.DELETE("/:id", reportHandler.DeleteReport)
		reports.GET("/:id/export", reportHandler.ExportReport)
	}
}
