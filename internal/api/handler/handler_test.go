package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carbonreport/carbonreport/internal/chart"
	"github.com/carbonreport/carbonreport/internal/narrative"
	"github.com/carbonreport/carbonreport/internal/report/exporter"
	"github.com/carbonreport/carbonreport/internal/store"
	"github.com/carbonreport/carbonreport/pkg/idgen"
)

const samplePayload = `{
	"narrative_report": "## Resumo\n\nSeu total é **45 kg**.",
	"data_for_dashboard": {
		"total_kg_co2e": 45,
		"details_kg_co2e": {"transporte": 30, "energia_eletrica": 10, "gas_cozinha": 5}
	}
}`

const payloadWithoutNarrative = `{
	"title": "Março",
	"data_for_dashboard": {
		"total_kg_co2e": 45,
		"details_kg_co2e": {"transporte": 30, "energia_eletrica": 10, "gas_cozinha": 5}
	},
	"inputs": {"km_carro": 500, "combustivel": "gasolina"}
}`

type stubWriter struct {
	text string
	err  error
}

func (w *stubWriter) Name() string    { return "stub" }
func (w *stubWriter) Available() bool { return true }
func (w *stubWriter) Write(context.Context, string) (string, error) {
	return w.text, w.err
}

func testExports() *exporter.ExportManager {
	return exporter.NewDefaultManager(exporter.ManagerOptions{
		Factory:    chart.NewChartJS(),
		ChartJSURL: "https://cdn.example.com/chart.js",
	}, exporter.DefaultPDFOptions())
}

// setupReportRouter wires the report routes over s.
func setupReportRouter(s store.Store, writer narrative.Writer) *gin.Engine {
	r := SetupTestRouter()
	composer := narrative.NewComposer(writer, narrative.WriterConfig{MaxRetries: 1, RetryDelay: 1}, nil, nil)
	h := NewReportHandler(s, composer, testExports())

	r.POST("/api/v1/reports", h.CreateReport)
	r.GET("/api/v1/reports", h.ListReports)
	r.GET("/api/v1/reports/:id", h.GetReport)
	r.DELETE("/api/v1/reports/:id", h.DeleteReport)
	r.GET("/api/v1/reports/:id/export", h.ExportReport)
	r.GET("/reports/:id", h.ViewReport)
	return r
}

func setupSQLiteRouter(t *testing.T, writer narrative.Writer) (*gin.Engine, store.Store) {
	s, cleanup := store.SetupTestDB(t)
	t.Cleanup(cleanup)
	return setupReportRouter(s, writer), s
}

// ====================
// Render
// ====================

func setupRenderRouter() *gin.Engine {
	r := SetupTestRouter()
	r.POST("/api/v1/render", NewRenderHandler(testExports()).Render)
	return r
}

func TestRenderHandler_Render(t *testing.T) {
	r := setupRenderRouter()

	w := Serve(r, CreateTestRequest("POST", "/api/v1/render", samplePayload))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := DecodeJSON(t, w)
	assert.Equal(t, true, body["ok"])

	targets := body["targets"].(map[string]interface{})
	assert.Contains(t, targets["narrative-report"], "<strong>45 kg</strong>")
	assert.Equal(t, "45.00 kg CO2e", targets["total-monthly"])
	assert.Equal(t, "25 árvores", targets["trees-yearly"])
	assert.Equal(t, "R$ 21.60 - R$ 32.40", targets["annual-cost"])

	chartTarget, ok := targets["footprint-chart"].(map[string]interface{})
	require.True(t, ok, "chart target should be a snapshot")
	assert.Equal(t, "chartjs", chartTarget["kind"])
	assert.Len(t, chartTarget["tooltips"], 3)

	metrics := body["metrics"].(map[string]interface{})
	assert.Equal(t, 540.0, metrics["annual_estimate"])
	assert.Nil(t, body["failures"])
}

func TestRenderHandler_InvalidJSON(t *testing.T) {
	r := setupRenderRouter()

	w := Serve(r, CreateTestRequest("POST", "/api/v1/render", `{"narrative_report": "x"`))
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := DecodeJSON(t, w)
	assert.Equal(t, false, body["ok"])
	targets := body["targets"].(map[string]interface{})
	assert.Contains(t, targets["narrative-report"], "Erro ao carregar relatório")
	assert.Contains(t, w.Body.String(), `"parse_failure"`)
}

func TestRenderHandler_PartialPayload(t *testing.T) {
	r := setupRenderRouter()

	w := Serve(r, CreateTestRequest("POST", "/api/v1/render", `{"narrative_report": "", "data_for_dashboard": {"total_kg_co2e": 10}}`))
	require.Equal(t, http.StatusOK, w.Code)

	body := DecodeJSON(t, w)
	assert.Equal(t, false, body["ok"])
	targets := body["targets"].(map[string]interface{})
	assert.Equal(t, "10.00 kg CO2e", targets["total-monthly"])
	assert.Contains(t, w.Body.String(), `"missing_input"`)
}

func TestRenderHandler_WrongTypedTotal(t *testing.T) {
	r := setupRenderRouter()

	w := Serve(r, CreateTestRequest("POST", "/api/v1/render",
		`{"narrative_report": "**ok**", "data_for_dashboard": {"total_kg_co2e": "45", "details_kg_co2e": {"transporte": 30}}}`))
	require.Equal(t, http.StatusOK, w.Code)

	body := DecodeJSON(t, w)
	targets := body["targets"].(map[string]interface{})
	assert.Equal(t, "<p><strong>ok</strong></p>", targets["narrative-report"])
	assert.Equal(t, "", targets["total-monthly"])
	assert.Contains(t, w.Body.String(), `"render_failure"`)
	assert.NotContains(t, w.Body.String(), `"parse_failure"`)
}

func TestRenderHandler_EmptyBody(t *testing.T) {
	r := setupRenderRouter()

	w := Serve(r, CreateTestRequest("POST", "/api/v1/render", ""))
	AssertErrorResponse(t, w, http.StatusBadRequest, "E1001")
}

// ====================
// Reports
// ====================

func TestReportHandler_CreateAndGet(t *testing.T) {
	r, _ := setupSQLiteRouter(t, nil)

	w := Serve(r, CreateTestRequest("POST", "/api/v1/reports", samplePayload))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := DecodeJSON(t, w)
	id := created["id"].(string)
	assert.True(t, idgen.IsValid(id))
	assert.Equal(t, "provided", created["narrative_source"])
	assert.Equal(t, 45.0, created["total_kg_co2e"])

	w = Serve(r, CreateTestRequest("GET", "/api/v1/reports/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	got := DecodeJSON(t, w)
	assert.Equal(t, "## Resumo\n\nSeu total é **45 kg**.", got["narrative_report"])
	assert.Contains(t, w.Body.String(), `"details_kg_co2e":{"transporte":30,"energia_eletrica":10,"gas_cozinha":5}`)
}

func TestReportHandler_Create_FallbackNarrative(t *testing.T) {
	r, _ := setupSQLiteRouter(t, nil)

	w := Serve(r, CreateTestRequest("POST", "/api/v1/reports", payloadWithoutNarrative))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := DecodeJSON(t, w)
	assert.Equal(t, "fallback", body["narrative_source"])
	assert.Equal(t, "Março", body["title"])
	assert.Contains(t, body["narrative_report"], "**Mensal:** 45.00 kg CO2e")
	assert.Equal(t, 500.0, body["inputs"].(map[string]interface{})["km_carro"])
}

func TestReportHandler_Create_GeneratedNarrative(t *testing.T) {
	r, _ := setupSQLiteRouter(t, &stubWriter{text: "## Olá\n\nTexto gerado."})

	w := Serve(r, CreateTestRequest("POST", "/api/v1/reports", payloadWithoutNarrative))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := DecodeJSON(t, w)
	assert.Equal(t, "generated", body["narrative_source"])
	assert.Equal(t, "## Olá\n\nTexto gerado.", body["narrative_report"])
}

func TestReportHandler_Create_WriterFailureFallsBack(t *testing.T) {
	r, _ := setupSQLiteRouter(t, &stubWriter{err: errors.New("quota exceeded")})

	w := Serve(r, CreateTestRequest("POST", "/api/v1/reports", payloadWithoutNarrative))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "fallback", DecodeJSON(t, w)["narrative_source"])
}

func TestReportHandler_Create_InvalidRequest(t *testing.T) {
	r, _ := setupSQLiteRouter(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "invalid json"},
		{"missing dashboard", `{"narrative_report": "x"}`},
		{"missing total", `{"data_for_dashboard": {"details_kg_co2e": {"transporte": 1}}}`},
		{"title too long", `{"title": "` + strings.Repeat("a", 600) + `", "data_for_dashboard": {"total_kg_co2e": 1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Serve(r, CreateTestRequest("POST", "/api/v1/reports", tt.body))
			AssertErrorResponse(t, w, http.StatusBadRequest, "E1001")
		})
	}
}

func TestReportHandler_Get_InvalidAndMissing(t *testing.T) {
	r, _ := setupSQLiteRouter(t, nil)

	w := Serve(r, CreateTestRequest("GET", "/api/v1/reports/not-an-id", nil))
	AssertErrorResponse(t, w, http.StatusBadRequest, "E1001")

	w = Serve(r, CreateTestRequest("GET", "/api/v1/reports/"+idgen.NewReportID(), nil))
	AssertErrorResponse(t, w, http.StatusNotFound, "E4001")
}

func TestReportHandler_Delete(t *testing.T) {
	r, s := setupSQLiteRouter(t, nil)
	rpt := store.CreateTestReport(t, s)

	w := Serve(r, CreateTestRequest("DELETE", "/api/v1/reports/"+rpt.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, DecodeJSON(t, w)["deleted"])

	w = Serve(r, CreateTestRequest("GET", "/api/v1/reports/"+rpt.ID, nil))
	AssertErrorResponse(t, w, http.StatusNotFound, "E4001")

	w = Serve(r, CreateTestRequest("DELETE", "/api/v1/reports/"+rpt.ID, nil))
	AssertErrorResponse(t, w, http.StatusNotFound, "E4001")
}

func TestReportHandler_List(t *testing.T) {
	r, s := setupSQLiteRouter(t, nil)
	for i := 0; i < 3; i++ {
		store.CreateTestReport(t, s)
	}

	w := Serve(r, CreateTestRequest("GET", "/api/v1/reports?page=1&page_size=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := DecodeJSON(t, w)
	assert.Equal(t, 3.0, body["total"])
	assert.Equal(t, 2.0, body["page_size"])
	assert.Len(t, body["data"], 2)

	w = Serve(r, CreateTestRequest("GET", "/api/v1/reports?source=fallback", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, DecodeJSON(t, w)["total"])

	w = Serve(r, CreateTestRequest("GET", "/api/v1/reports?source=bogus", nil))
	AssertErrorResponse(t, w, http.StatusBadRequest, "E1001")
}

func TestReportHandler_Export(t *testing.T) {
	r, s := setupSQLiteRouter(t, nil)
	rpt := store.CreateTestReport(t, s)

	w := Serve(r, CreateTestRequest("GET", "/api/v1/reports/"+rpt.ID+"/export?format=json", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=Test_report.json`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "45.00 kg CO2e", DecodeJSON(t, w)["total_monthly"])

	w = Serve(r, CreateTestRequest("GET", "/api/v1/reports/"+rpt.ID+"/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `id="narrative-report"`)

	w = Serve(r, CreateTestRequest("GET", "/api/v1/reports/"+rpt.ID+"/export?format=xml", nil))
	AssertErrorResponse(t, w, http.StatusBadRequest, "E4003")
}

func TestReportHandler_View(t *testing.T) {
	r, s := setupSQLiteRouter(t, nil)
	rpt := store.CreateTestReport(t, s)

	w := Serve(r, CreateTestRequest("GET", "/reports/"+rpt.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), `<canvas id="footprint-chart"></canvas>`)
	assert.Contains(t, w.Body.String(), `id="annual-cost">R$ 21.60 - R$ 32.40</div>`)
}

func TestReportHandler_StoreErrors(t *testing.T) {
	s := NewMockStore()
	id := idgen.NewReportID()
	s.Reports.On("GetByID", mock.Anything, id).Return(nil, errors.New("disk I/O error"))
	s.Reports.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("disk I/O error"))
	s.Reports.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk I/O error"))

	r := setupReportRouter(s, nil)

	w := Serve(r, CreateTestRequest("GET", "/api/v1/reports/"+id, nil))
	AssertErrorResponse(t, w, http.StatusInternalServerError, "E5002")

	w = Serve(r, CreateTestRequest("GET", "/api/v1/reports", nil))
	AssertErrorResponse(t, w, http.StatusInternalServerError, "E5002")

	w = Serve(r, CreateTestRequest("POST", "/api/v1/reports", samplePayload))
	AssertErrorResponse(t, w, http.StatusInternalServerError, "E5002")

	s.Reports.AssertExpectations(t)
}

func TestReportHandler_ListPassesQueryOptions(t *testing.T) {
	s := NewMockStore()
	s.Reports.On("List", mock.Anything, store.ListOptions{Page: 2, PageSize: 5, Source: "generated"}).
		Return(nil, int64(7), nil)

	r := setupReportRouter(s, nil)
	w := Serve(r, CreateTestRequest("GET", "/api/v1/reports?page=2&page_size=5&source=generated", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7.0, DecodeJSON(t, w)["total"])

	s.Reports.AssertExpectations(t)
}

// ====================
// Health
// ====================

func TestHealthHandler(t *testing.T) {
	s, cleanup := store.SetupTestDB(t)

	r := SetupTestRouter()
	r.GET("/health", NewHealthHandler(s.DB()).Health)

	w := Serve(r, CreateTestRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := DecodeJSON(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])

	cleanup()
	w = Serve(r, CreateTestRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", DecodeJSON(t, w)["status"])
}

func TestHealthHandler_NoDatabase(t *testing.T) {
	r := SetupTestRouter()
	r.GET("/health", NewHealthHandler(nil).Health)

	w := Serve(r, CreateTestRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, DecodeJSON(t, w), "database")
}
