package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/nws-observation-service/internal/domain"
)

const (
	// fetchTimeout bounds one /observations lookup, three upstream round-trips.
	fetchTimeout = 30 * time.Second
	readyTimeout = 2 * time.Second
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AlwaysReady is the readiness checker when nothing needs warming up.
type AlwaysReady struct{}

func (AlwaysReady) CheckReadiness(context.Context) error { return nil }

// ReportFetcher produces an observation report for a coordinate.
type ReportFetcher interface {
	FetchReport(ctx context.Context, location string, coord domain.Coordinate) (domain.Report, error)
}

// Server serves observation lookups and the operational endpoints.
type Server struct {
	srv      *http.Server
	ready    ReadinessChecker
	fetcher  ReportFetcher
	validate *validator.Validate
	logger   *slog.Logger
	started  time.Time
}

// NewServer creates a server listening on addr. Routes:
//
//	GET /observations?lat=&lon=[&name=]
//	GET /healthz
//	GET /readyz
//	GET /metrics
func NewServer(addr string, ready ReadinessChecker, fetcher ReportFetcher, logger *slog.Logger) *Server {
	s := &Server{
		ready:    ready,
		fetcher:  fetcher,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		started:  time.Now(),
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      fetchTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /observations", s.handleObservations)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start listens until Shutdown. It returns http.ErrServerClosed after a
// graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ServeHTTP lets tests drive the routes without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.srv.Handler.ServeHTTP(w, r)
}

type statusResponse struct {
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.ready.CheckReadiness(ctx); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "not ready", Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "ready"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response failed", "status", status, "error", err)
	}
}
