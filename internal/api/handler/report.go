package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/internal/model"
	"github.com/carbonreport/carbonreport/internal/narrative"
	"github.com/carbonreport/carbonreport/internal/report/exporter"
	"github.com/carbonreport/carbonreport/internal/store"
	"github.com/carbonreport/carbonreport/pkg/errors"
	"github.com/carbonreport/carbonreport/pkg/idgen"
	"github.com/carbonreport/carbonreport/pkg/logger"
	"github.com/carbonreport/carbonreport/pkg/telemetry"
)

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	store    store.Store
	composer *narrative.Composer
	exports  *exporter.ExportManager
}

// NewReportHandler creates a new report handler
func NewReportHandler(s store.Store, composer *narrative.Composer, exports *exporter.ExportManager) *ReportHandler {
	return &ReportHandler{store: s, composer: composer, exports: exports}
}

// CreateReportRequest represents the request body for creating a report.
// It is a report payload plus an optional title and the raw calculator inputs.
type CreateReportRequest struct {
	Title            string               `json:"title" binding:"max=512"`
	NarrativeReport  string               `json:"narrative_report"`
	DataForDashboard *model.DashboardData `json:"data_for_dashboard" binding:"required"`
	Inputs           model.JSONMap        `json:"inputs"`
}

// CreateReport handles POST /api/v1/reports.
// A missing narrative is composed before the report is stored.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes)

	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrValidation("Invalid request body: "+err.Error()))
		return
	}

	total, ok := req.DataForDashboard.Total()
	if !ok {
		respondError(c, errors.ErrValidation("data_for_dashboard.total_kg_co2e is required"))
		return
	}

	ctx := c.Request.Context()
	rpt := &model.Report{
		ID:              idgen.NewReportID(),
		Title:           strings.TrimSpace(req.Title),
		TotalKgCO2e:     total,
		Details:         req.DataForDashboard.DetailsKgCO2e,
		Narrative:       req.NarrativeReport,
		NarrativeSource: model.NarrativeProvided,
		Inputs:          req.Inputs,
	}

	if strings.TrimSpace(rpt.Narrative) == "" {
		res := h.composer.Compose(ctx, narrative.Request{
			Details: rpt.Details,
			Total:   total,
			Inputs:  rpt.Inputs,
		})
		rpt.Narrative = res.Text
		rpt.NarrativeSource = res.Source
		if res.Err != nil {
			logger.Warn("Narrative writer failed, stored fallback narrative",
				zap.String("report_id", rpt.ID),
				zap.Int("attempts", res.Attempts),
				zap.Error(res.Err),
			)
		}
	}

	if err := h.store.Report().Create(ctx, rpt); err != nil {
		respondError(c, storeError(err, rpt.ID))
		return
	}
	telemetry.GetMetrics().RecordReportStored(ctx, string(rpt.NarrativeSource))

	logger.Info("Report created",
		zap.String("report_id", rpt.ID),
		zap.Float64("total_kg_co2e", total),
		zap.String("narrative_source", string(rpt.NarrativeSource)),
	)

	c.JSON(http.StatusCreated, rpt)
}

// GetReport handles GET /api/v1/reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	rpt, err := h.store.Report().GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, storeError(err, id))
		return
	}

	c.JSON(http.StatusOK, rpt)
}

// ListReports handles GET /api/v1/reports
func (h *ReportHandler) ListReports(c *gin.Context) {
	opts := listOptions(c)

	switch source := model.NarrativeSource(c.Query("source")); source {
	case "", model.NarrativeProvided, model.NarrativeGenerated, model.NarrativeFallback:
		opts.Source = source
	default:
		respondError(c, errors.ErrValidation("Invalid narrative source: "+string(source)))
		return
	}

	reports, total, err := h.store.Report().List(c.Request.Context(), opts)
	if err != nil {
		respondError(c, storeError(err, ""))
		return
	}

	opts = opts.Normalize()
	c.JSON(http.StatusOK, gin.H{
		"data":      reports,
		"total":     total,
		"page":      opts.Page,
		"page_size": opts.PageSize,
	})
}

// DeleteReport handles DELETE /api/v1/reports/:id
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	if err := h.store.Report().Delete(c.Request.Context(), id); err != nil {
		respondError(c, storeError(err, id))
		return
	}

	logger.Info("Report deleted", zap.String("report_id", id))
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

// ExportReport handles GET /api/v1/reports/:id/export?format=html|pdf|json
func (h *ReportHandler) ExportReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	format, err := exporter.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	rpt, err := h.store.Report().GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, storeError(err, id))
		return
	}

	content, err := h.exports.ExportReport(c.Request.Context(), rpt, format)
	if err != nil {
		logger.Error("Failed to export report",
			zap.String("report_id", id),
			zap.String("format", string(format)),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	filename := h.exports.GenerateFilename(rpt.Title, rpt.ID, format)
	c.Header("Content-Disposition", attachment(filename))
	c.Data(http.StatusOK, h.exports.ContentType(format), content)
}

// ViewReport handles GET /reports/:id and serves the rendered page inline
func (h *ReportHandler) ViewReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	rpt, err := h.store.Report().GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, storeError(err, id))
		return
	}

	content, err := h.exports.ExportReport(c.Request.Context(), rpt, exporter.ExportFormatHTML)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, h.exports.ContentType(exporter.ExportFormatHTML), content)
}
