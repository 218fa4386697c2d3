package api

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapalma/sunscan-go/internal/conf"
	"github.com/lapalma/sunscan-go/internal/dataset"
)

const testCSV = `date_time,instruments,polarimetry,target,comments,image_links,video_links,links
2017-05-25 10:00:00,"['CRISP','IRIS']",True,Sunspot AR12546,Good seeing,a.jpg;b.png,clip.mp4,
2019-08-02 08:15:00,CHROMIS,False,Quiet Sun,,,,
2019-08-10 14:30:00,CRISP;CHROMIS,False,"Filament, Quiet Sun",flat fields only,,,
`

// setupTestController creates a controller backed by a temp CSV dataset.
func setupTestController(t *testing.T) (*Controller, *echo.Echo) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "obs.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o644))

	settings := &conf.Settings{}
	settings.Main.Name = "sunscan-test"
	settings.Dataset.Path = path

	e := echo.New()
	loader := dataset.NewLoader()
	controller := New(e, settings, loader, nil, log.New(os.Stderr, "", 0))
	t.Cleanup(controller.Shutdown)

	return controller, e
}

func doRequest(e *echo.Echo, method, target string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "loaded", body["dataset"])
	assert.InDelta(t, 3, body["rows"], 0)
	assert.Equal(t, false, body["literature_search"])
}

func TestGetObservations(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/observations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ObservationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Rows, 3)

	// newest first
	assert.Equal(t, "Filament, Quiet Sun", resp.Rows[0].Target)
	assert.Equal(t, "Sunspot AR12546", resp.Rows[2].Target)

	// media bundle derived per row
	assert.Equal(t, "a.jpg", resp.Rows[2].Media.PrimaryImage)
	assert.Equal(t, []string{"b.png"}, resp.Rows[2].Media.AdditionalImages)
	assert.Equal(t, "clip.mp4", resp.Rows[2].Media.PrimaryVideo)
}

func TestGetObservations_Filtered(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/observations?year_min=2019&instruments=CHROMIS", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ObservationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)

	rec = doRequest(e, http.MethodGet, "/api/v1/observations?instruments=CRISP,CHROMIS&instrument_mode=all", "")
	require.NoError(t, json.Unmarshal(doBody(rec), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "Filament, Quiet Sun", resp.Rows[0].Target)

	rec = doRequest(e, http.MethodGet, "/api/v1/observations?polarimetry=true", "")
	require.NoError(t, json.Unmarshal(doBody(rec), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestGetObservations_PolarimetryModes(t *testing.T) {
	_, e := setupTestController(t)

	// "false" selects the non-polarimetric rows rather than disabling the filter
	rec := doRequest(e, http.MethodGet, "/api/v1/observations?polarimetry=false", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ObservationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	for _, row := range resp.Rows {
		assert.Equal(t, "False", row.Polarimetry)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/observations?polarimetry=All", "")
	require.NoError(t, json.Unmarshal(doBody(rec), &resp))
	assert.Equal(t, 3, resp.Total)

	rec = doRequest(e, http.MethodGet, "/api/v1/observations?polarimetry=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func doBody(rec *httptest.ResponseRecorder) []byte {
	return rec.Body.Bytes()
}

func TestGetObservations_Pagination(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/observations?limit=1&offset=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ObservationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 1, resp.Returned)
	assert.Equal(t, "Quiet Sun", resp.Rows[0].Target)
}

func TestGetObservations_InvalidCriteria(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/observations?year_min=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/v1/observations?date_start=25-05-2017", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetObservations_MissingDataset(t *testing.T) {
	controller, e := setupTestController(t)
	controller.Settings.Dataset.Path = filepath.Join(t.TempDir(), "missing.csv")

	rec := doRequest(e, http.MethodGet, "/api/v1/observations", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Observation dataset not found", body.Message)
	assert.NotEmpty(t, body.CorrelationID)
}

func TestGetFilterOptions(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/observations/options", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FilterOptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"CHROMIS", "CRISP", "IRIS"}, resp.Instruments)
	assert.Contains(t, resp.Targets, "Quiet Sun")
	assert.Contains(t, resp.Targets, "Filament")
	assert.Equal(t, 2017, resp.YearMin)
	assert.Equal(t, 2019, resp.YearMax)
}

func TestGetFilterOptions_Filtered(t *testing.T) {
	_, e := setupTestController(t)

	// options reflect the filtered view, so the pickers never offer values
	// the active filters already ruled out
	rec := doRequest(e, http.MethodGet, "/api/v1/observations/options?year_min=2019", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FilterOptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"CHROMIS", "CRISP"}, resp.Instruments)
	assert.NotContains(t, resp.Targets, "Sunspot AR12546")
	assert.Contains(t, resp.Targets, "Quiet Sun")
	assert.Equal(t, 2019, resp.YearMin)
	assert.Equal(t, 2019, resp.YearMax)

	// target and keyword criteria do not narrow the target picker itself
	rec = doRequest(e, http.MethodGet, "/api/v1/observations/options?targets=Filament&keyword=seeing", "")
	require.NoError(t, json.Unmarshal(doBody(rec), &resp))
	assert.Contains(t, resp.Targets, "Sunspot AR12546")
	assert.Contains(t, resp.Targets, "Quiet Sun")
	assert.Equal(t, []string{"CHROMIS", "CRISP", "IRIS"}, resp.Instruments)
}

func TestExportObservations(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/observations/export?year_min=2019", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	assert.Len(t, lines, 3) // header + two 2019 rows
	assert.Contains(t, lines[0], "date_time")
}

func TestEditObservations(t *testing.T) {
	_, e := setupTestController(t)

	body := `{"edits": {"0": {"target": "Pore", "polarimetry": "false"}}, "save": true}`
	rec := doRequest(e, http.MethodPatch, "/api/v1/observations", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["saved"])

	// the save invalidated the cache, so the edit is visible
	rec = doRequest(e, http.MethodGet, "/api/v1/observations?keyword=pore", "")
	var obsResp ObservationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &obsResp))
	require.Equal(t, 1, obsResp.Total)
	assert.Equal(t, "Pore", obsResp.Rows[0].Target)
	assert.Equal(t, "False", obsResp.Rows[0].Polarimetry)
}

func TestEditObservations_Invalid(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodPatch, "/api/v1/observations", `{"edits": {}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, http.MethodPatch, "/api/v1/observations", `{"edits": {"99": {"target": "x"}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, http.MethodPatch, "/api/v1/observations", `{"edits": {"0": {"bogus": "x"}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReloadDataset(t *testing.T) {
	controller, e := setupTestController(t)

	// warm the cache, then change the file behind the loader's back
	rec := doRequest(e, http.MethodGet, "/api/v1/observations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	extended := testCSV + "2020-01-15 09:00:00,IRIS,False,Plage,,,,\n"
	require.NoError(t, os.WriteFile(controller.Settings.Dataset.Path, []byte(extended), 0o644))

	rec = doRequest(e, http.MethodPost, "/api/v1/cache/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 4, resp["rows"], 0)
}

func TestAnalyticsSummary(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/analytics/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 3, body["observations"], 0)
	assert.InDelta(t, 2, body["years_covered"], 0)
	assert.InDelta(t, 3, body["unique_instruments"], 0)
	assert.InDelta(t, 1, body["with_polarimetry"], 0)

	// analytics honor filter criteria
	rec = doRequest(e, http.MethodGet, "/api/v1/analytics/summary?year_min=2019", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 2, body["observations"], 0)
}

func TestAnalyticsHeatmap(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/analytics/heatmap", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 1, body["scale_min"], 0)
	assert.InDelta(t, 2, body["scale_max"], 0)
}

func TestSearchLiterature_NotConfigured(t *testing.T) {
	_, e := setupTestController(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/literature/search?q=sunspot", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/v1/literature/observation/0", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
