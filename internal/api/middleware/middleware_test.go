package middleware

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/carbonreport/carbonreport/internal/page"
	"github.com/carbonreport/carbonreport/pkg/errors"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw...)
	return router
}

func serve(router *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v; body: %s", err, w.Body.String())
	}
	return body
}

// TestLogger tests which requests produce a log line and at what level
func TestLogger(t *testing.T) {
	chartMissing := []page.Failure{{Kind: page.MissingInput, Section: page.SectionChart}}

	tests := []struct {
		name      string
		accessLog bool
		status    int
		failures  []page.Failure
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{"success without access log", false, http.StatusOK, nil, 0, ""},
		{"success with access log", true, http.StatusOK, nil, zapcore.InfoLevel, "Request"},
		{"failed sections without access log", false, http.StatusOK, chartMissing, zapcore.WarnLevel, "Request rendered with failed sections"},
		{"client error", false, http.StatusBadRequest, nil, zapcore.WarnLevel, "Client error"},
		{"server error", false, http.StatusInternalServerError, nil, zapcore.ErrorLevel, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			router := newRouter(Logger(zap.New(core), tt.accessLog))
			router.GET("/test", func(c *gin.Context) {
				RecordFailures(c, tt.failures)
				c.Status(tt.status)
			})

			serve(router, http.MethodGet, "/test", nil)

			entries := logs.All()
			if tt.wantMsg == "" {
				if len(entries) != 0 {
					t.Fatalf("Expected no log entry, got %d", len(entries))
				}
				return
			}
			if len(entries) != 1 {
				t.Fatalf("Expected 1 log entry, got %d", len(entries))
			}
			if entries[0].Message != tt.wantMsg || entries[0].Level != tt.wantLevel {
				t.Errorf("Expected %s %q, got %s %q", tt.wantLevel, tt.wantMsg, entries[0].Level, entries[0].Message)
			}
		})
	}
}

// TestLogger_ReportFields tests that report requests are logged by route with their IDs
func TestLogger_ReportFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := newRouter(RequestID(), Logger(zap.New(core), false))
	router.GET("/api/v1/reports/:id/export", func(c *gin.Context) {
		RecordFailures(c, []page.Failure{
			{Kind: page.MissingInput, Section: page.SectionChart},
			{Kind: page.RenderFailure, Section: page.SectionSummary},
		})
		c.Status(http.StatusOK)
	})

	serve(router, http.MethodGet, "/api/v1/reports/rpt-7/export", map[string]string{"X-Request-ID": "req-1"})

	if logs.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["route"] != "/api/v1/reports/:id/export" {
		t.Errorf("Expected route template, got %v", fields["route"])
	}
	if fields["report_id"] != "rpt-7" {
		t.Errorf("Expected report_id rpt-7, got %v", fields["report_id"])
	}
	if fields["request_id"] != "req-1" {
		t.Errorf("Expected request_id req-1, got %v", fields["request_id"])
	}
	if got := fmt.Sprint(fields["failed_sections"]); got != "[chart:missing_input summary:render_failure]" {
		t.Errorf("Unexpected failed_sections: %s", got)
	}
}

// TestLogger_NilLogger tests that a nil logger is tolerated
func TestLogger_NilLogger(t *testing.T) {
	router := newRouter(Logger(nil, true))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	if w := serve(router, http.MethodGet, "/test", nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

// TestRecordFailures_Empty tests that a clean render leaves nothing on the request
func TestRecordFailures_Empty(t *testing.T) {
	router := newRouter()
	router.GET("/test", func(c *gin.Context) {
		RecordFailures(c, nil)
		if _, ok := c.Get(renderFailuresKey); ok {
			t.Error("Expected no failures recorded")
		}
		c.Status(http.StatusOK)
	})
	serve(router, http.MethodGet, "/test", nil)
}

// TestRecovery tests that a panic answers with the error body
func TestRecovery(t *testing.T) {
	router := newRouter(RequestID(), Recovery())
	router.GET("/test", func(c *gin.Context) {
		panic("test panic")
	})

	w := serve(router, http.MethodGet, "/test", map[string]string{"X-Request-ID": "req-9"})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	body := decode(t, w)
	if body["code"] != string(errors.ErrCodeInternal) {
		t.Errorf("Expected error code %s, got %v", errors.ErrCodeInternal, body["code"])
	}
	if body["request_id"] != "req-9" {
		t.Errorf("Expected request_id req-9, got %v", body["request_id"])
	}
}

// TestCORS tests origin checks for plain and preflight requests
func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"allowed origin", http.MethodGet, "http://localhost:3000", http.StatusOK, "http://localhost:3000"},
		{"other origin", http.MethodGet, "http://evil.com", http.StatusOK, ""},
		{"no origin", http.MethodGet, "", http.StatusOK, ""},
		{"allowed preflight", http.MethodOptions, "http://localhost:3000", http.StatusNoContent, "http://localhost:3000"},
		{"refused preflight", http.MethodOptions, "http://evil.com", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(CORS([]string{"http://localhost:3000", "https://example.com"}))
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			header := map[string]string{}
			if tt.origin != "" {
				header["Origin"] = tt.origin
			}
			w := serve(router, tt.method, "/test", header)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Expected Access-Control-Allow-Origin %q, got %q", tt.wantOrigin, got)
			}
			if tt.wantOrigin != "" && w.Header().Get("Access-Control-Expose-Headers") == "" {
				t.Error("Expected exposed headers for an allowed origin")
			}
		})
	}
}

// TestRequestID tests that the request ID is taken from the client or generated
func TestRequestID(t *testing.T) {
	var seen string
	router := newRouter(RequestID())
	router.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusNoContent)
	})

	w := serve(router, http.MethodGet, "/test", map[string]string{"X-Request-ID": "req-42"})
	if seen != "req-42" || w.Header().Get("X-Request-ID") != "req-42" {
		t.Errorf("Expected request ID req-42, got context %q header %q", seen, w.Header().Get("X-Request-ID"))
	}

	w = serve(router, http.MethodGet, "/test", nil)
	if seen == "" || w.Header().Get("X-Request-ID") != seen {
		t.Errorf("Expected a generated request ID echoed in the header, got context %q header %q", seen, w.Header().Get("X-Request-ID"))
	}
}

// TestErrorHandler tests the error body per error kind and mode
func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		debug       bool
		err         error
		wantStatus  int
		wantCode    errors.ErrorCode
		wantMessage string
		wantDetails interface{}
	}{
		{
			name:        "not found keeps its message",
			err:         errors.New(errors.ErrCodeReportNotFound, "Report not found").WithDetails("abc"),
			wantStatus:  http.StatusNotFound,
			wantCode:    errors.ErrCodeReportNotFound,
			wantMessage: "Report not found",
		},
		{
			name:        "details only in debug mode",
			debug:       true,
			err:         errors.New(errors.ErrCodeReportNotFound, "Report not found").WithDetails("abc"),
			wantStatus:  http.StatusNotFound,
			wantCode:    errors.ErrCodeReportNotFound,
			wantMessage: "Report not found",
			wantDetails: "abc",
		},
		{
			name:        "internal message hidden in production",
			err:         errors.New(errors.ErrCodeInternal, "sensitive error details"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    errors.ErrCodeInternal,
			wantMessage: "Internal server error",
		},
		{
			name:        "plain error hidden in production",
			err:         stderrors.New("disk on fire"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    errors.ErrCodeInternal,
			wantMessage: "Internal server error",
		},
		{
			name:        "plain error shown in debug mode",
			debug:       true,
			err:         stderrors.New("disk on fire"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    errors.ErrCodeInternal,
			wantMessage: "disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(RequestID(), ErrorHandler(tt.debug))
			router.GET("/test", func(c *gin.Context) {
				_ = c.Error(tt.err)
				c.Abort()
			})

			w := serve(router, http.MethodGet, "/test", map[string]string{"X-Request-ID": "req-5"})

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			body := decode(t, w)
			if body["code"] != string(tt.wantCode) {
				t.Errorf("Expected code %s, got %v", tt.wantCode, body["code"])
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("Expected message %q, got %v", tt.wantMessage, body["message"])
			}
			if body["details"] != tt.wantDetails {
				t.Errorf("Expected details %v, got %v", tt.wantDetails, body["details"])
			}
			if body["request_id"] != "req-5" {
				t.Errorf("Expected request_id req-5, got %v", body["request_id"])
			}
		})
	}
}

// TestErrorHandler_NoError tests that a clean response is left untouched
func TestErrorHandler_NoError(t *testing.T) {
	router := newRouter(ErrorHandler(false))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := serve(router, http.MethodGet, "/test", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Errorf("Expected untouched 200 ok, got %d %q", w.Code, w.Body.String())
	}
}

// TestMetrics tests that matched and unmatched routes pass through
func TestMetrics(t *testing.T) {
	router := newRouter(Metrics())
	router.GET("/api/v1/reports/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	if w := serve(router, http.MethodGet, "/api/v1/reports/abc", nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w := serve(router, http.MethodGet, "/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
