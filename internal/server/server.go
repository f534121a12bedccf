// Package server exposes the questionnaire and scoring over HTTP along with
// health, readiness and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/riskpoint/internal/model"
	"github.com/ppiankov/riskpoint/internal/observability"
	"github.com/ppiankov/riskpoint/internal/pipeline"
)

const maxRequestBody = 64 << 10

// Survey is the part of the pipeline the server needs
type Survey interface {
	Loaded() bool
	Questionnaire(selections map[string]string) (*pipeline.Questionnaire, error)
	Score(ctx context.Context, selections map[string]string) (*model.Result, error)
}

// Server serves the survey API
type Server struct {
	httpServer *http.Server
	survey     Survey
	renderer   *pipeline.Renderer
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the HTTP server and its routes. gatherer backs /metrics;
// nil uses the default registry.
func NewServer(addr string, survey Survey, metrics *observability.Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		survey:   survey,
		renderer: pipeline.NewRenderer(true),
		metrics:  metrics,
		logger:   logger,
	}

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /api/questions", s.instrument("questions", s.handleQuestions))
	mux.HandleFunc("GET /api/score", s.instrument("score", s.handleScore))
	mux.HandleFunc("POST /api/score", s.instrument("score", s.handleScore))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the context deadline
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.survey.Loaded() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": pipeline.ErrNotLoaded.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	q, err := s.survey.Questionnaire(selectionsFromQuery(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// handleScore accepts answers as query parameters or, for POST, a JSON object
// of record number to option index. ?format=html returns the result dialog markup.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	selections := selectionsFromQuery(r)
	delete(selections, "format")

	if r.Method == http.MethodPost {
		body, err := decodeSelections(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		for k, v := range body {
			selections[k] = v
		}
	}

	result, err := s.survey.Score(r.Context(), selections)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.renderer.RenderHTML(w, result, ""); err != nil {
			s.logger.Error("render html", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, pipeline.ErrIncomplete), errors.Is(err, pipeline.ErrInvalidSelection):
		status = http.StatusUnprocessableEntity
	default:
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// instrument counts requests per route and status code
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func selectionsFromQuery(r *http.Request) map[string]string {
	out := make(map[string]string)
	for k, vals := range r.URL.Query() {
		if len(vals) > 0 {
			out[k] = vals[len(vals)-1]
		}
	}
	return out
}

// decodeSelections accepts {"12": 1} or {"12": "1"}
func decodeSelections(r io.Reader) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.New("body must be a JSON object of record number to option index")
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			out[k] = n.String()
			continue
		}
		return nil, errors.New("option for question " + k + " must be a number or string")
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
