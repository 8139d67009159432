package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/consts"
	"github.com/carbonreport/carbonreport/internal/api/middleware"
	"github.com/carbonreport/carbonreport/internal/page"
	"github.com/carbonreport/carbonreport/internal/report/exporter"
	"github.com/carbonreport/carbonreport/internal/summary"
	"github.com/carbonreport/carbonreport/pkg/errors"
	"github.com/carbonreport/carbonreport/pkg/logger"
)

// maxPayloadBytes bounds render and report request bodies
const maxPayloadBytes = 1 << 20

// RenderHandler renders payloads without storing them
type RenderHandler struct {
	exports *exporter.ExportManager
}

// NewRenderHandler creates a new render handler
func NewRenderHandler(exports *exporter.ExportManager) *RenderHandler {
	return &RenderHandler{exports: exports}
}

// RenderResponse carries every display target keyed by its identifier
type RenderResponse struct {
	OK       bool                   `json:"ok"`
	Targets  map[string]interface{} `json:"targets"`
	Metrics  *summary.Metrics       `json:"metrics,omitempty"`
	Failures []page.Failure         `json:"failures,omitempty"`
}

// Render handles POST /api/v1/render.
// Section failures are reported in the body; an unreadable payload answers 400
// with the targets as the page would show them.
func (h *RenderHandler) Render(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes)
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, errors.ErrValidation("Failed to read request body: "+err.Error()))
		return
	}
	if len(raw) == 0 {
		respondError(c, errors.ErrValidation("Request body is empty"))
		return
	}

	doc := h.exports.Render(c.Request.Context(), "", "", raw, exporter.ExportFormatHTML)

	resp := RenderResponse{
		OK: doc.Outcome.OK(),
		Targets: map[string]interface{}{
			consts.TargetNarrative:    doc.View.NarrativeHTML,
			consts.TargetChart:        doc.View.Chart,
			consts.TargetTotalMonthly: doc.View.TotalMonthly,
			consts.TargetTreesYearly:  doc.View.TreesYearly,
			consts.TargetAnnualCost:   doc.View.AnnualCost,
		},
		Metrics:  doc.Outcome.Metrics,
		Failures: doc.Outcome.Failures,
	}
	middleware.RecordFailures(c, doc.Outcome.Failures)

	if doc.Outcome.Has(page.ParseFailure, page.SectionPayload) {
		logger.Debug("Render request carried an unreadable payload",
			zap.Int("failures", len(doc.Outcome.Failures)),
		)
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
