package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/growthml/leadscore/internal/config"
	"github.com/growthml/leadscore/internal/model"
	"github.com/growthml/leadscore/internal/models"
	"github.com/growthml/leadscore/internal/scoring"
	"github.com/growthml/leadscore/internal/sink"
	"github.com/growthml/leadscore/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	data []byte
	err  error
}

func (s stubReader) GetObject(_ context.Context, _ string) ([]byte, error) {
	return s.data, s.err
}

const testArtifact = `{
	"version": "1.0.0",
	"model_type": "multiclass_logistic",
	"schema": {
		"feature_columns": ["website_sessions", "email_engagement_score"],
		"categorical_mappings": {}
	},
	"coefficients": [
		[0.0, 0.0],
		[1.0, 0.0],
		[2.0, 0.0],
		[3.0, 0.0],
		[4.0, 0.0]
	],
	"intercepts": [0.0, -5.0, -12.0, -21.0, -32.0]
}`

func testRouter(t *testing.T, loadModel bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Configs{
		ApplicationVersion:  "test",
		MaxLeadsPerRequest:  500,
		MaxRequestBodyBytes: 10 << 20,
		MaxCustomFeatures:   40,
	}

	adapter := model.NewAdapter(stubReader{data: []byte(testArtifact)}, "model.json")
	if loadModel {
		require.NoError(t, adapter.Load(context.Background()))
	}

	predictionPool := worker.NewPool("http-test-prediction", 2, 8)
	fanoutPool := worker.NewPool("http-test-fanout", 1, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		predictionPool.Shutdown(ctx)
		fanoutPool.Shutdown(ctx)
	})

	orchestrator := scoring.NewOrchestrator(adapter,
		scoring.NewValidator(cfg.MaxLeadsPerRequest, cfg.MaxCustomFeatures),
		predictionPool, sink.NewDispatcher(fanoutPool, sink.NewMetricsPublisher()), time.Second)

	router := gin.New()
	router.Use(RequestIdMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(BodyLimitMiddleware(cfg.MaxRequestBodyBytes))
	NewHandler(orchestrator, adapter, cfg).RegisterRoutes(router)
	return router
}

func scoreRequestBody(t *testing.T, leadCount int) []byte {
	t.Helper()
	leads := make([]map[string]interface{}, leadCount)
	for i := range leads {
		leads[i] = map[string]interface{}{"website_sessions": i % 30}
	}
	body, err := json.Marshal(map[string]interface{}{"request_id": "req-http", "leads": leads})
	require.NoError(t, err)
	return body
}

func postScore(router *gin.Engine, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/scoring/score", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestScoreEndpointSingleLead(t *testing.T) {
	router := testRouter(t, true)

	w := postScore(router, scoreRequestBody(t, 1))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "req-http", resp.RequestId)
	assert.Equal(t, 1, resp.TotalLeads)
	require.Len(t, resp.Scores, 1)
	assert.GreaterOrEqual(t, resp.Scores[0].Score, 1)
	assert.LessOrEqual(t, resp.Scores[0].Score, 5)
	assert.Equal(t, "1.0.0", resp.ModelVersion)
}

func TestScoreEndpointMaxBatch(t *testing.T) {
	router := testRouter(t, true)

	w := postScore(router, scoreRequestBody(t, 500))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Scores, 500)
}

func TestScoreEndpointBatchOverLimit(t *testing.T) {
	router := testRouter(t, true)

	w := postScore(router, scoreRequestBody(t, 501))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "request_id")
}

func TestScoreEndpointEmptyBatch(t *testing.T) {
	router := testRouter(t, true)

	w := postScore(router, scoreRequestBody(t, 0))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestScoreEndpointFieldOutOfBounds(t *testing.T) {
	router := testRouter(t, true)

	body := []byte(`{"leads": [{"email_engagement_score": 1.5}]}`)
	w := postScore(router, body)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "email_engagement_score")
}

func TestScoreEndpointMalformedJSON(t *testing.T) {
	router := testRouter(t, true)

	w := postScore(router, []byte(`{"leads": [`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreEndpointPayloadTooLarge(t *testing.T) {
	router := testRouter(t, true)

	oversized := fmt.Sprintf(`{"leads": [{"company_size": "%s"}]}`, strings.Repeat("x", 11<<20))
	w := postScore(router, []byte(oversized))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestScoreEndpointPayloadTooLargeWithoutContentLength(t *testing.T) {
	router := testRouter(t, true)

	// No usable Content-Length: the cap is enforced while the body is read
	// during binding rather than by the middleware's header check.
	oversized := fmt.Sprintf(`{"leads": [{"company_size": "%s"}]}`, strings.Repeat("x", 11<<20))
	req := httptest.NewRequest(http.MethodPost, "/scoring/score", bytes.NewReader([]byte(oversized)))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "request_id")
}

func TestScoreEndpointModelNotLoaded(t *testing.T) {
	router := testRouter(t, false)

	w := postScore(router, scoreRequestBody(t, 1))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestScoreEndpointIdempotent(t *testing.T) {
	router := testRouter(t, true)
	body := scoreRequestBody(t, 3)

	first := postScore(router, body)
	second := postScore(router, body)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var firstResp, secondResp models.ScoreResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
	for i := range firstResp.Scores {
		assert.Equal(t, firstResp.Scores[i].Score, secondResp.Scores[i].Score)
		assert.Equal(t, firstResp.Scores[i].Confidence, secondResp.Scores[i].Confidence)
	}
}

func TestModelInfoEndpoint(t *testing.T) {
	router := testRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/scoring/model/info", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var info models.ModelInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.True(t, info.Loaded)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, 2, info.FeaturesCount)
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		modelLoaded    bool
		expectedStatus int
	}{
		{"health always up", "/health", true, http.StatusOK},
		{"health up without model", "/health", false, http.StatusOK},
		{"ready with model", "/health/ready", true, http.StatusOK},
		{"not ready without model", "/health/ready", false, http.StatusServiceUnavailable},
		{"live with model", "/health/live", true, http.StatusOK},
		{"live without model", "/health/live", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := testRouter(t, tt.modelLoaded)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHealthReportsModelState(t *testing.T) {
	getHealth := func(t *testing.T, loaded bool) models.HealthCheck {
		router := testRouter(t, loaded)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var hc models.HealthCheck
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hc))
		return hc
	}

	degraded := getHealth(t, false)
	assert.False(t, degraded.ModelLoaded)
	assert.Equal(t, "degraded", degraded.Status)

	healthy := getHealth(t, true)
	assert.True(t, healthy.ModelLoaded)
	assert.Equal(t, "healthy", healthy.Status)
}

func TestRequestIdEchoedOnResponse(t *testing.T) {
	router := testRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIdHeader, "caller-supplied-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "caller-supplied-id", w.Header().Get(requestIdHeader))
}
