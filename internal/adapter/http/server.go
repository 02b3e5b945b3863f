package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/trip-geo-resolver/internal/domain"
	"github.com/couchcryptid/trip-geo-resolver/internal/mapview"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBytes caps the body of a resolve request.
const maxRequestBytes = 1 << 20

// ItineraryResolver resolves an ordered list of location requests.
type ItineraryResolver interface {
	ResolveAll(ctx context.Context, reqs []domain.LocationRequest) []domain.ResolvedCoordinate
}

// ResolveResponse is the body returned by POST /v1/resolve.
type ResolveResponse struct {
	Itinerary domain.ResolvedItinerary `json:"itinerary"`
	View      mapview.View             `json:"view"`
}

// Server exposes health, readiness, metrics and the synchronous resolve endpoint.
type Server struct {
	httpServer *http.Server
	resolver   ItineraryResolver
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /v1/resolve routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, resolver ItineraryResolver, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		resolver: resolver,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/resolve", s.handleResolve)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	req, err := domain.DecodeItineraryRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	coords := s.resolver.ResolveAll(r.Context(), req.Requests())
	if r.Context().Err() != nil {
		s.logger.Info("resolve request abandoned", "itinerary_id", req.ItineraryID)
		return
	}

	resp := ResolveResponse{
		Itinerary: domain.NewResolvedItinerary(req, coords),
		View:      mapview.Build(coords),
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
