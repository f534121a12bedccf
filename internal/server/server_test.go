package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/riskpoint/internal/model"
	"github.com/ppiankov/riskpoint/internal/observability"
	"github.com/ppiankov/riskpoint/internal/pipeline"
	"github.com/ppiankov/riskpoint/internal/server"
)

const fullQuery = "1=1&2=2&3=1&4=1&5=0&6=0&7=0&8=1&9=1&10=0"

func newTestServer(t *testing.T, load bool) (*server.Server, *observability.Metrics) {
	t.Helper()

	cfg := model.DefaultConfig()
	cfg.Feed.Mock = true
	cfg.Cache.Enabled = false

	metrics, reg := observability.NewMetricsForTesting()
	p := pipeline.NewPipeline(cfg,
		pipeline.WithLogger(observability.Discard()),
		pipeline.WithMetrics(metrics),
		pipeline.WithClock(func() time.Time { return time.Unix(0, 0) }),
	)
	if load {
		_, err := p.Load(context.Background())
		require.NoError(t, err)
	}

	return server.NewServer(":0", p, metrics, reg, observability.Discard()), metrics
}

func do(srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec := do(srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReflectsFeed(t *testing.T) {
	srv, _ := newTestServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, do(srv, http.MethodGet, "/readyz", "").Code)

	srv, _ = newTestServer(t, true)
	rec := do(srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")
}

func TestQuestions(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := do(srv, http.MethodGet, "/api/questions?2=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var q pipeline.Questionnaire
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, 10, q.Questions)
	assert.Equal(t, 1, q.Answered)
	assert.Equal(t, "1*1.50", q.Categories[0].Questions[1].Choices[2].Formula)
}

func TestQuestionsNotLoaded(t *testing.T) {
	srv, _ := newTestServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, do(srv, http.MethodGet, "/api/questions", "").Code)
}

func TestScoreGet(t *testing.T) {
	srv, metrics := newTestServer(t, true)
	rec := do(srv, http.MethodGet, "/api/score?"+fullQuery, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result model.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.InDelta(t, 27.74, result.TotalScore, 1e-9)
	assert.Equal(t, "家族", result.HighRisk.Category)
	assert.Equal(t, "家屋", result.LowRisk.Category)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("score", "200")))
}

func TestScorePostJSON(t *testing.T) {
	srv, _ := newTestServer(t, true)
	body := `{"1":1,"2":"2","3":1,"4":1,"5":0,"6":0,"7":0,"8":1,"9":1,"10":0}`
	rec := do(srv, http.MethodPost, "/api/score", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result model.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Complete)
}

func TestScoreIncomplete(t *testing.T) {
	srv, metrics := newTestServer(t, true)
	rec := do(srv, http.MethodGet, "/api/score?1=0", "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "not all questions answered")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("score", "422")))
}

func TestScoreBadBody(t *testing.T) {
	srv, _ := newTestServer(t, true)

	assert.Equal(t, http.StatusBadRequest, do(srv, http.MethodPost, "/api/score", "[1,2]").Code)
	assert.Equal(t, http.StatusBadRequest, do(srv, http.MethodPost, "/api/score", `{"1":{"x":1}}`).Code)
}

func TestScoreHTML(t *testing.T) {
	srv, _ := newTestServer(t, true)
	rec := do(srv, http.MethodGet, "/api/score?format=html&"+fullQuery, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<div class="result-dialog">`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, true)
	do(srv, http.MethodGet, "/api/score?"+fullQuery, "")

	rec := do(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `riskpoint_scoring_passes_total{outcome="success"} 1`)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, true)
	assert.Equal(t, http.StatusMethodNotAllowed, do(srv, http.MethodDelete, "/api/score", "").Code)
}
