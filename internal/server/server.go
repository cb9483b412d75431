// Package server exposes the cleaning pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/valpere/tidycsv/internal/advisor"
	"github.com/valpere/tidycsv/internal/orchestrator"
	"github.com/valpere/tidycsv/internal/store"
)

const (
	DefaultMaxConcurrent = 4
	DefaultMaxBodyBytes  = 10 << 20
)

type Config struct {
	Addr          string
	MaxConcurrent int
	MaxBodyBytes  int64
}

// Recorder persists finished runs. *store.Store satisfies it.
type Recorder interface {
	SaveRun(ctx context.Context, run store.Run) (string, error)
}

type Server struct {
	orch     *orchestrator.Orchestrator
	provider string
	recorder Recorder
	config   Config
	sem      *semaphore.Weighted
	logger   *zap.Logger
}

// New creates a server. recorder may be nil, in which case runs are not
// recorded.
func New(orch *orchestrator.Orchestrator, provider string, recorder Recorder, config Config, logger *zap.Logger) *Server {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		orch:     orch,
		provider: provider,
		recorder: recorder,
		config:   config,
		sem:      semaphore.NewWeighted(int64(config.MaxConcurrent)),
		logger:   logger,
	}
}

type cleanRequest struct {
	CSV       *string `json:"csv"`
	Delimiter string  `json:"delimiter"`
	HasHeader *bool   `json:"hasHeader"`
}

type analyzeResponse struct {
	Explanation string   `json:"explanation"`
	Issues      []string `json:"issues"`
	Actions     []any    `json:"actions"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/clean", s.handleClean)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return <-errChan
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "advisor": s.provider})
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	csvText, opts, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	if !s.acquire(w, r) {
		return
	}
	defer s.sem.Release(1)

	start := time.Now()
	report, err := s.orch.Clean(r.Context(), csvText, opts)
	s.record(r.Context(), csvText, opts, report, err, time.Since(start))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	csvText, opts, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	if !s.acquire(w, r) {
		return
	}
	defer s.sem.Release(1)

	advice, err := s.orch.Analyze(r.Context(), s.orch.Sample(csvText, opts), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Explanation: advice.Explanation,
		Issues:      advice.Issues,
		Actions:     advice.Actions,
	})
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (string, orchestrator.Options, bool) {
	opts := orchestrator.DefaultOptions()

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req cleanRequest
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return "", opts, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Detail: err.Error()})
		return "", opts, false
	}
	if req.CSV == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: `missing "csv" field`})
		return "", opts, false
	}

	if req.Delimiter != "" {
		opts.Delimiter = req.Delimiter
	}
	if req.HasHeader != nil {
		opts.HasHeader = *req.HasHeader
	}
	return *req.CSV, opts, true
}

func (s *Server) acquire(w http.ResponseWriter, r *http.Request) bool {
	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled while waiting for a slot"})
		return false
	}
	return true
}

func (s *Server) record(ctx context.Context, csvText string, opts orchestrator.Options, report *orchestrator.Report, runErr error, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}

	run := store.NewRun(store.RunInfo{
		Command:    "serve",
		Source:     "http",
		Provider:   s.provider,
		Options:    opts,
		InputBytes: len(csvText),
		Elapsed:    elapsed,
	}, report, runErr)

	// The request context may already be cancelled; the record should still land.
	if _, err := s.recorder.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("failed to record run", zap.Error(err))
	}
}

// writeError maps pipeline errors to HTTP statuses: unusable advisor output
// is 422, an unreachable advisor 502, a timed-out advisor 504.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ie *advisor.InputError
	var te *advisor.TransportError

	switch {
	case errors.As(err, &ie):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "advisor reply could not be used", Detail: ie.Error()})
	case errors.As(err, &te) && errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "advisor timed out", Detail: te.Error()})
	case errors.As(err, &te):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "advisor unavailable", Detail: te.Error()})
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
