package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanLeiria/cribs/config"
	"github.com/DanLeiria/cribs/internal/dataset"
	"github.com/DanLeiria/cribs/internal/metrics"
	"github.com/DanLeiria/cribs/internal/models"
)

func landTable() *models.Table {
	t := &models.Table{Columns: []string{models.ColType, models.ColDistrict, models.ColCity, models.ColAreaAssigned, models.ColPricePerSqm, models.ColRegion}}
	for i, v := range []float64{5, 10, 15, 20} {
		t.Records = append(t.Records, models.Record{
			ID:           i + 1,
			Type:         models.TypeLand,
			District:     "Faro",
			City:         "Faro",
			AreaAssigned: models.Float(1000),
			PricePerSqm:  models.Float(v),
			Region:       models.String("Algarve"),
		})
	}
	return t
}

type testServer struct {
	router  *gin.Engine
	handler *Handler
	cfg     *config.Config
	metrics *metrics.Recorder
}

func setupServer(t *testing.T, withLand bool) *testServer {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Raw = filepath.Join(dir, "raw", "raw-data.csv")
	cfg.Paths.Unified = filepath.Join(dir, "clean", "cleaned-data.csv")
	cfg.Paths.Buildings = filepath.Join(dir, "clean", "buildings-data.csv")
	cfg.Paths.Land = filepath.Join(dir, "clean", "land-data.csv")
	cfg.Paths.House = filepath.Join(dir, "clean", "house-data.csv")
	cfg.Paths.Apartment = filepath.Join(dir, "clean", "apartment-data.csv")

	if withLand {
		require.NoError(t, dataset.WriteCSV(cfg.Paths.Land, landTable()))
	}

	rec := metrics.New()
	handler, err := NewHandler(cfg, logger, rec)
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, handler, cfg.Server, rec)
	return &testServer{router: router, handler: handler, cfg: cfg, metrics: rec}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := setupServer(t, false)

	w := s.do(http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status      string   `json:"status"`
		RegionTable string   `json:"region_table"`
		Regions     []string `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, config.RegionTableVersion, body.RegionTable)
	assert.Contains(t, body.Regions, "Madeira")
}

func TestGetGroups(t *testing.T) {
	s := setupServer(t, true)

	w := s.do(http.MethodGet, "/api/datasets/land/groups", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Rows   int               `json:"rows"`
		Groups []json.RawMessage `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Rows)
	assert.Len(t, body.Groups, 1)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/datasets/house/groups", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/datasets/castle/groups", "").Code)
}

func TestCompare(t *testing.T) {
	s := setupServer(t, true)

	w := s.do(http.MethodPost, "/api/compare", `{
		"Region": "Algarve",
		"District": "Faro",
		"City": ["Faro", "Loulé"],
		"AreaAssigned": 2200,
		"Price": 27000
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got struct {
		Matches     int     `json:"matches"`
		PricePerSqm float64 `json:"price_per_sqm"`
		Median      float64 `json:"median_price_per_sqm"`
		Percentile  float64 `json:"percentile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 4, got.Matches)
	assert.Equal(t, 12.27, got.PricePerSqm)
	assert.Equal(t, 12.5, got.Median)
	assert.Equal(t, 50.0, got.Percentile)
}

func TestCompare_Errors(t *testing.T) {
	s := setupServer(t, true)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"malformed json", "/api/compare", `{"City":`, http.StatusBadRequest},
		{"missing price", "/api/compare", `{"City": "Faro", "AreaAssigned": 10}`, http.StatusBadRequest},
		{"negative area", "/api/compare", `{"AreaAssigned": -1, "Price": 10}`, http.StatusBadRequest},
		{"nested filter", "/api/compare", `{"City": {"name": "Faro"}, "AreaAssigned": 1, "Price": 1}`, http.StatusBadRequest},
		{"unknown column", "/api/compare", `{"Parish": "Sé", "AreaAssigned": 1, "Price": 1}`, http.StatusBadRequest},
		{"no matches", "/api/compare", `{"City": "Porto", "AreaAssigned": 1, "Price": 1}`, http.StatusNotFound},
		{"dataset missing", "/api/compare?variant=house", `{"AreaAssigned": 1, "Price": 1}`, http.StatusNotFound},
		{"unknown variant", "/api/compare?variant=castle", `{"AreaAssigned": 1, "Price": 1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRunPreprocess_RejectsConcurrentRuns(t *testing.T) {
	s := setupServer(t, false)

	s.handler.running.Lock()
	w := s.do(http.MethodPost, "/api/preprocess", "")
	s.handler.running.Unlock()
	assert.Equal(t, http.StatusConflict, w.Code)

	// No raw file configured, so the unlocked run fails while loading it
	w = s.do(http.MethodPost, "/api/preprocess", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t, false)
	s.metrics.ObserveRun("land", nil)

	w := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cribs_pipeline_runs_total")
}
