// Package server is the HTTP control surface for a Director: start a run,
// watch it, stop it, and read the log.
//
//	GET    /health        liveness
//	POST   /runs          start a run, 202 with its id, 409 while one is active
//	GET    /runs/current  progress of the active run and the last finished report
//	DELETE /runs/current  request a stop
//	GET    /log?n=N       the last N journal entries
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/teranos/teleprompter"
	"github.com/teranos/teleprompter/config"
	"github.com/teranos/teleprompter/journal"
)

// maxBodyBytes caps a run request
const maxBodyBytes = 1 << 20

// Server serves the control API
type Server struct {
	ctx      context.Context
	director *teleprompter.Director
	journal  *journal.Journal
	defaults config.Config
	router   chi.Router

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc // cancels the active run's context
	last   *teleprompter.RunReport
	idle   chan struct{} // closed whenever no run is active
}

// New creates a server. Runs it starts are bound to ctx, not to the request
// that started them. Fields missing from a run request take their values from
// defaults.
func New(ctx context.Context, director *teleprompter.Director, j *journal.Journal, defaults config.Config) *Server {
	idle := make(chan struct{})
	close(idle)

	s := &Server{
		ctx:      ctx,
		director: director,
		journal:  j,
		defaults: defaults,
		idle:     idle,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Post("/runs", s.handleStartRun)
	r.Get("/runs/current", s.handleCurrentRun)
	r.Delete("/runs/current", s.handleStopRun)
	r.Get("/log", s.handleLog)

	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then stops any active run
// and shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.journal.Logf("INFO", "Control API listening on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.director.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Idle returns a channel that is closed once no run started by this server is
// active
func (s *Server) Idle() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

// runRequest is the body of POST /runs. Omitted fields take the defaults.
type runRequest struct {
	Script       string `json:"script"`
	Loops        *int   `json:"loops,omitempty"`
	StartDelayMs *int64 `json:"start_delay_ms,omitempty"`
	LoopDelayMs  *int64 `json:"loop_delay_ms,omitempty"`
}

func (req runRequest) runConfig(defaults config.Config) (teleprompter.RunConfig, error) {
	loops := defaults.Loops
	if req.Loops != nil {
		loops = *req.Loops
	}
	start := defaults.StartDelayMs
	if req.StartDelayMs != nil {
		start = *req.StartDelayMs
	}
	between := defaults.LoopDelayMs
	if req.LoopDelayMs != nil {
		between = *req.LoopDelayMs
	}
	if err := teleprompter.ValidateDelayMs("start delay", start); err != nil {
		return teleprompter.RunConfig{}, err
	}
	if err := teleprompter.ValidateDelayMs("loop delay", between); err != nil {
		return teleprompter.RunConfig{}, err
	}
	cfg := teleprompter.NewRunConfig(req.Script, loops, start, between)
	return cfg, cfg.Validate()
}

type runStarted struct {
	RunID  string                 `json:"run_id"`
	Config teleprompter.RunConfig `json:"config"`
}

type currentRun struct {
	teleprompter.Progress
	Last *teleprompter.RunReport `json:"last,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid run request: %v", err)})
		return
	}

	cfg, err := req.runConfig(s.defaults)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.mu.Lock()
	if s.active || s.director.Running() {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, errorResponse{Error: teleprompter.ErrRunInProgress.Error()})
		return
	}
	runCtx, cancel := context.WithCancel(s.ctx)
	s.active = true
	s.cancel = cancel
	s.idle = make(chan struct{})
	s.mu.Unlock()

	id := ulid.Make()
	go s.run(runCtx, id, cfg)

	writeJSON(w, http.StatusAccepted, runStarted{RunID: id.String(), Config: cfg})
}

func (s *Server) run(ctx context.Context, id ulid.ULID, cfg teleprompter.RunConfig) {
	report := s.director.ExecuteWithID(ctx, id, cfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.cancel = nil
	s.last = report
	s.active = false
	close(s.idle)
}

func (s *Server) handleCurrentRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, currentRun{
		Progress: s.director.Progress(),
		Last:     last,
	})
}

// handleStopRun cancels the run's context as well as tripping the latch, so a
// stop that lands before the run has begun is not lost when the latch resets.
func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	active, cancel := s.active, s.cancel
	s.mu.Unlock()

	if !active && !s.director.Running() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no run in progress"})
		return
	}

	s.journal.Logf("INFO", "Stop requested over HTTP from %s", r.RemoteAddr)
	if cancel != nil {
		cancel()
	}
	s.director.Stop()
	writeJSON(w, http.StatusAccepted, s.director.Progress())
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	n := -1
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "n must be a non-negative integer"})
			return
		}
		n = parsed
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": s.journal.Tail(n),
		"dropped": s.journal.Dropped(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
