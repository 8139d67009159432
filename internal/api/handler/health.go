package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/carbonreport/carbonreport/consts"
	"github.com/carbonreport/carbonreport/internal/database"
	"github.com/carbonreport/carbonreport/pkg/logger"
)

// HealthHandler reports service liveness
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a health handler. A nil db skips the database check.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status":  "ok",
		"version": consts.Version,
		"uptime":  consts.GetUptime().Round(time.Second).String(),
	}

	if h.db != nil {
		if err := database.HealthCheck(h.db); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			resp["status"] = "unhealthy"
			resp["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = "ok"
	}

	c.JSON(http.StatusOK, resp)
}
