package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/hub/api/middleware"
	"github.com/floodwatch/hub/internal/alerting"
	"github.com/floodwatch/hub/internal/analysis"
	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/flood"
	"github.com/floodwatch/hub/internal/floodservice"
	"github.com/floodwatch/hub/internal/liveness"
	"github.com/floodwatch/hub/internal/models"
	"github.com/floodwatch/hub/internal/repository"
)

type stubRepo struct {
	mu       sync.Mutex
	readings []models.SensorReading
}

func (s *stubRepo) Store(_ context.Context, r *models.SensorReading) (*models.Stored, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Normalize(time.Now())
	s.readings = append(s.readings, *r)
	return &models.Stored{DataID: r.DataID, Timestamp: r.Timestamp, Durable: true}, nil
}

func (s *stubRepo) Query(_ context.Context, filters models.ReadingFilters) ([]models.SensorReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := append([]models.SensorReading(nil), s.readings...)
	repository.SortNewestFirst(snapshot)
	return repository.FilterReadings(snapshot, filters, time.Now()), nil
}

func (s *stubRepo) Statistics(ctx context.Context) (*models.DataStatistics, error) {
	readings, err := s.Query(ctx, models.ReadingFilters{})
	if err != nil {
		return nil, err
	}
	return repository.BuildStatistics(readings), nil
}

func (s *stubRepo) Ping(context.Context) error { return nil }

type silentNotifier struct{}

func (silentNotifier) Configured() bool                     { return false }
func (silentNotifier) Deliver(context.Context, string) bool { return false }

func testRouter(t *testing.T, deviceToken string) (*Router, *stubRepo) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{DeviceToken: deviceToken},
		Risk: config.RiskConfig{
			WaterLevelWarning:  50,
			WaterLevelDanger:   80,
			WaterLevelElevated: 30,
			BaseRiskDanger:     85,
			BaseRiskWarning:    60,
			BaseRiskElevated:   40,
			BaseRiskNormal:     20,
			TrendRapidRiseCm:   15,
			TrendRiseCm:        8,
			TrendRecedeCm:      -5,
			TrendRapidFactor:   1.4,
			TrendRiseFactor:    1.2,
			TrendRecedeFactor:  0.8,
			BandCritical:       80,
			BandHigh:           60,
			BandModerate:       40,
		},
		Alerting: config.AlertingConfig{RiskThreshold: 50, Cooldown: 15 * time.Minute, HistoricalCooldown: 30 * time.Minute},
		Liveness: config.LivenessConfig{OnlineWithin: 2 * time.Minute, IdleWithin: 10 * time.Minute},
		Sweep:    config.SweepConfig{Interval: 30 * time.Minute, DaysBack: 3, HistoryLimit: 50, MinDataPoints: 5},
	}

	repo := &stubRepo{}
	notifier := silentNotifier{}
	gate := alerting.NewGate(cfg.Alerting, cfg.Risk.WaterLevelWarning,
		alerting.NewMemoryCooldownStore(), notifier)

	svc := floodservice.New(cfg, repo, flood.NewEngine(cfg.Risk), gate,
		analysis.NewSummarizer(cfg.Gemini), liveness.NewEvaluator(cfg.Liveness), notifier)
	require.NoError(t, svc.Validate())

	return NewRouter(svc, middleware.DeviceTokenConfig{Token: deviceToken}), repo
}

func doJSON(router *Router, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPostSensorData_IngestsAndAssesses(t *testing.T) {
	router, repo := testRouter(t, "")

	w := doJSON(router, http.MethodPost, "/api/v1/sensor-data",
		`{"node_id":"node_1","piezo_value":80,"ultrasonic_value":85,"rain_sensor_value":80}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result floodservice.IngestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, models.RiskCritical, result.RiskLevel)
	assert.True(t, result.AlertTriggered)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.readings, 1)
}

func TestPostSensorData_RejectsMissingNodeID(t *testing.T) {
	router, _ := testRouter(t, "")

	w := doJSON(router, http.MethodPost, "/api/v1/sensor-data", `{"ultrasonic_value":10}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "node_id")
}

func TestPostSensorData_DeviceTokenEnforced(t *testing.T) {
	router, _ := testRouter(t, "secret-token")
	body := `{"node_id":"node_1","ultrasonic_value":10}`

	assert.Equal(t, http.StatusUnauthorized,
		doJSON(router, http.MethodPost, "/api/v1/sensor-data", body, nil).Code)

	assert.Equal(t, http.StatusUnauthorized,
		doJSON(router, http.MethodPost, "/api/v1/sensor-data", body,
			map[string]string{"X-Device-Token": "wrong"}).Code)

	assert.Equal(t, http.StatusOK,
		doJSON(router, http.MethodPost, "/api/v1/sensor-data", body,
			map[string]string{"X-Device-Token": "secret-token"}).Code)

	assert.Equal(t, http.StatusOK,
		doJSON(router, http.MethodPost, "/api/v1/sensor-data", body,
			map[string]string{"Authorization": "Bearer secret-token"}).Code)
}

func TestDeviceToken_OnlyGuardsIngestion(t *testing.T) {
	router, _ := testRouter(t, "secret-token")

	// Dashboard reads stay open even with a token configured.
	assert.Equal(t, http.StatusOK,
		doJSON(router, http.MethodGet, "/api/v1/nodes", "", nil).Code)
	assert.Equal(t, http.StatusOK,
		doJSON(router, http.MethodGet, "/api/v1/health", "", nil).Code)
}

func TestGetHistory_FiltersByQuery(t *testing.T) {
	router, _ := testRouter(t, "")

	for _, node := range []string{"node_1", "node_1", "node_2"} {
		w := doJSON(router, http.MethodPost, "/api/v1/sensor-data",
			`{"node_id":"`+node+`","ultrasonic_value":10}`, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(router, http.MethodGet, "/api/v1/history?node_id=node_1&limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out floodservice.HistoryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "node_1", out.NodeID)
	assert.Equal(t, 2, out.Count)
	for _, r := range out.Readings {
		assert.Equal(t, "node_1", r.NodeID)
	}
	assert.Len(t, out.Chart.WaterLevels, 2)
	assert.Len(t, out.Chart.Timestamps, 2)
	assert.InDelta(t, 10, out.Stats.Average, 0.001)
}

func TestGetHistory_NoData(t *testing.T) {
	router, _ := testRouter(t, "")

	w := doJSON(router, http.MethodGet, "/api/v1/history", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetNodes_And_NodeStatus(t *testing.T) {
	router, _ := testRouter(t, "")

	w := doJSON(router, http.MethodPost, "/api/v1/sensor-data",
		`{"node_id":"node_1","ultrasonic_value":20,"location":"Riverside"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/nodes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var overview floodservice.NodesOverview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	require.Equal(t, 1, overview.Count)
	assert.Equal(t, "node_1", overview.Nodes[0].NodeID)
	assert.Equal(t, models.NodeOnline, overview.Nodes[0].Status)

	w = doJSON(router, http.MethodGet, "/api/v1/status/node_1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail floodservice.NodeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Riverside", detail.Location)

	w = doJSON(router, http.MethodGet, "/api/v1/status/node_404", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPredict_Endpoint(t *testing.T) {
	router, _ := testRouter(t, "")

	// No data yet: not found.
	w := doJSON(router, http.MethodPost, "/api/v1/predict", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/sensor-data",
		`{"node_id":"node_1","piezo_value":40,"ultrasonic_value":55,"rain_sensor_value":35}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Empty body auto-detects the node.
	w = doJSON(router, http.MethodPost, "/api/v1/predict", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var pred floodservice.Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pred))
	assert.Equal(t, "node_1", pred.NodeID)
	assert.Equal(t, analysis.ProviderFallback, pred.AIProvider)
	assert.NotEmpty(t, pred.RecommendedActions)
}

func TestAnalyzeAll_Endpoint(t *testing.T) {
	router, _ := testRouter(t, "")

	w := doJSON(router, http.MethodGet, "/api/v1/analyze-all", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var outcome floodservice.SweepOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Zero(t, outcome.TotalNodes)
}

func TestTestTelegram_UnconfiguredTransport(t *testing.T) {
	router, _ := testRouter(t, "")

	w := doJSON(router, http.MethodGet, "/api/v1/test-telegram", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthAndSystemInfo(t *testing.T) {
	router, _ := testRouter(t, "")

	w := doJSON(router, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])

	w = doJSON(router, http.MethodGet, "/api/v1/system-info", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "POST /api/v1/sensor-data")
}
