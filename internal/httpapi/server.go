package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"netcheck/internal/httpapi/middleware"
	"netcheck/internal/probe"
)

// maxRequestBytes bounds the request body of a single check.
const maxRequestBytes = 1 << 20

// Dispatcher runs one probe described by a raw JSON document and never
// returns an error; faults come back inside the envelope.
type Dispatcher interface {
	Dispatch(ctx context.Context, raw json.RawMessage) probe.Result
}

type Server struct {
	Logger *zap.Logger
	Checks Dispatcher
}

func NewServer(l *zap.Logger, checks Dispatcher) *Server {
	return &Server{Logger: l, Checks: checks}
}

// Router wires the public surface. Probe outcomes, including rejected
// payloads, are answered with HTTP 200 and an envelope; callers read the
// status field, not the status code.
func (s *Server) Router(reqPerMin, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RateLimit(reqPerMin, burst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/check", s.handleCheck)

	return r
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		s.writeResult(w, r, 0, probe.Failure{Status: probe.StatusFail, Error: "read request: " + err.Error()})
		return
	}
	start := time.Now()
	out := s.Checks.Dispatch(r.Context(), body)
	s.writeResult(w, r, time.Since(start), out)
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, elapsed time.Duration, out probe.Result) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)

	s.Logger.Info("check_done",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("type", out.Kind()),
		zap.Bool("ok", !out.Failed()),
		zap.Duration("elapsed", elapsed),
	)
}
