// Package handler provides test utilities for HTTP handler testing.
package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/carbonreport/carbonreport/internal/api/middleware"
)

// SetupTestRouter creates a Gin router for testing.
// It sets Gin to test mode and installs the error middleware handlers rely on.
func SetupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler(true))
	return r
}

// CreateTestRequest creates an HTTP request for testing.
// A []byte or string body is sent as-is; anything else is JSON encoded.
func CreateTestRequest(method, url string, body interface{}) *http.Request {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req, _ = http.NewRequest(method, url, nil)
		return req
	case []byte:
		req, _ = http.NewRequest(method, url, bytes.NewReader(b))
	case string:
		req, _ = http.NewRequest(method, url, bytes.NewBufferString(b))
	default:
		jsonBody, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, bytes.NewBuffer(jsonBody))
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Serve runs req through r and returns the recorder.
func Serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DecodeJSON decodes the response body into a map.
func DecodeJSON(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response should be valid JSON: %v\n%s", err, recorder.Body.String())
	}
	return body
}

// AssertErrorResponse asserts that the response is an error with the expected status and code.
func AssertErrorResponse(t *testing.T, recorder *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()

	if recorder.Code != expectedStatus {
		t.Errorf("Status code mismatch: got %d, want %d; body: %s", recorder.Code, expectedStatus, recorder.Body.String())
	}

	body := DecodeJSON(t, recorder)
	if _, ok := body["message"]; !ok {
		t.Error("Error response should contain 'message' field")
	}
	if expectedCode != "" && body["code"] != expectedCode {
		t.Errorf("Error code mismatch: got %v, want %s", body["code"], expectedCode)
	}
}
