// Package handler provides HTTP handlers for the API.
package handler

import (
	stderrors "errors"
	"mime"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/carbonreport/carbonreport/internal/store"
	"github.com/carbonreport/carbonreport/pkg/errors"
	"github.com/carbonreport/carbonreport/pkg/idgen"
	"github.com/carbonreport/carbonreport/pkg/logger"
)

// respondError hands err to the ErrorHandler middleware and stops the chain
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// storeError translates a store error into an AppError
func storeError(err error, reportID string) *errors.AppError {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.New(errors.ErrCodeReportNotFound, "Report not found").WithDetails(reportID)
	}
	logger.Error("Database error", zap.String("report_id", reportID), zap.Error(err))
	return errors.Wrap(errors.ErrCodeDBQuery, "Database error", err)
}

// reportID reads and validates the :id path parameter
func reportID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !idgen.IsValid(id) {
		respondError(c, errors.ErrValidation("Invalid report ID").WithDetails(id))
		return "", false
	}
	return id, true
}

// listOptions parses pagination query parameters
func listOptions(c *gin.Context) store.ListOptions {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(store.DefaultPageSize)))
	return store.ListOptions{Page: page, PageSize: pageSize}
}

// attachment returns a Content-Disposition value that survives non-ASCII titles
func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
