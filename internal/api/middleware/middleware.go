// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/internal/page"
	"github.com/carbonreport/carbonreport/pkg/errors"
	"github.com/carbonreport/carbonreport/pkg/idgen"
	"github.com/carbonreport/carbonreport/pkg/logger"
	"github.com/carbonreport/carbonreport/pkg/telemetry"
)

// Context keys set by this package
const (
	RequestIDKey      = logger.FieldRequestID
	renderFailuresKey = "render_failures"
)

const requestIDHeader = "X-Request-ID"

// GetRequestID returns the request ID set by RequestID, or an empty string
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// RequestID takes X-Request-ID from the client or assigns a fresh one,
// and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = idgen.NewRequestID()
		}
		c.Set(RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RecordFailures attaches the sections a render could not fill to the
// request, so the access log line names them.
func RecordFailures(c *gin.Context, failures []page.Failure) {
	if len(failures) == 0 {
		return
	}
	c.Set(renderFailuresKey, failures)
}

func recordedFailures(c *gin.Context) []string {
	v, ok := c.Get(renderFailuresKey)
	if !ok {
		return nil
	}
	failures, _ := v.([]page.Failure)
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.Section+":"+f.Kind.String())
	}
	return out
}

// Logger writes one line per request to log. Errors and client errors are
// always logged; successful requests only when accessLog is set, or when a
// render inside them lost a section.
func Logger(log *zap.Logger, accessLog bool) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", routeOf(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if id := GetRequestID(c); id != "" {
			fields = append(fields, zap.String(logger.FieldRequestID, id))
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String(logger.FieldReportID, id))
		}
		failed := recordedFailures(c)
		if len(failed) > 0 {
			fields = append(fields, zap.Strings("failed_sections", failed))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("Server error", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("Client error", fields...)
		case len(failed) > 0:
			log.Warn("Request rendered with failed sections", fields...)
		case accessLog:
			log.Info("Request", fields...)
		}
	}
}

// Metrics records request counts and latency against the route template,
// so report IDs do not create new series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		telemetry.GetMetrics().RecordHTTPRequest(c.Request.Context(),
			c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start).Seconds())
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// Recovery turns a panic in a handler into a 500 with the usual error body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("route", routeOf(c)),
					zap.String(logger.FieldRequestID, GetRequestID(c)),
				)
				writeError(c, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal server error", nil)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// errorBody is the JSON shape of every API error
type errorBody struct {
	Code      errors.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	Details   any              `json:"details,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}

func writeError(c *gin.Context, status int, code errors.ErrorCode, message string, details any) {
	c.JSON(status, errorBody{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: GetRequestID(c),
	})
}

// ErrorHandler answers the last error a handler attached with c.Error.
// Outside debug mode 5xx messages and all details are withheld.
func ErrorHandler(debugMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}

		appErr, ok := errors.AsAppError(c.Errors.Last().Err)
		if !ok {
			appErr = errors.ErrInternal(c.Errors.Last().Err.Error(), c.Errors.Last().Err)
		}
		status := appErr.HTTPStatus()

		message := appErr.Message
		if status >= http.StatusInternalServerError && !debugMode {
			message = "Internal server error"
		}
		var details any
		if debugMode {
			details = appErr.Details
		}
		writeError(c, status, appErr.Code, message, details)
	}
}

// CORS allows browsers on the listed origins to call the API.
// Preflights from any other origin are refused.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	headers := map[string]string{
		"Access-Control-Allow-Methods":     strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}, ", "),
		"Access-Control-Allow-Headers":     "Origin, Content-Type, Accept, " + requestIDHeader,
		"Access-Control-Expose-Headers":    "Content-Length, Content-Type, Content-Disposition, " + requestIDHeader,
		"Access-Control-Allow-Credentials": "true",
		"Access-Control-Max-Age":           "86400",
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		_, ok := allowed[origin]
		ok = ok && origin != ""
		if ok {
			c.Header("Access-Control-Allow-Origin", origin)
			for k, v := range headers {
				c.Header(k, v)
			}
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		if ok {
			c.AbortWithStatus(http.StatusNoContent)
		} else {
			c.AbortWithStatus(http.StatusForbidden)
		}
	}
}
