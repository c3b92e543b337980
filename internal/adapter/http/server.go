package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-map-service/internal/composer"
	"github.com/couchcryptid/quake-map-service/internal/domain"
)

const (
	earthquakesPath = "/api/layers/earthquakes"
	platesPath      = "/api/layers/tectonic-plates"
	geoJSONType     = "application/geo+json"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// MapService composes the map configuration and layers.
type MapService interface {
	ReadinessChecker
	Map(preset string) (composer.MapConfig, error)
	Earthquakes(ctx context.Context) (composer.EarthquakeLayer, error)
	Plates(ctx context.Context) (composer.PlateLayer, error)
}

// Options tune the HTTP surface.
type Options struct {
	DefaultPreset string
	// LayerMaxAge is advertised in Cache-Control on the layer endpoints.
	LayerMaxAge time.Duration
}

// Server exposes the map page, layer data, and health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        MapService
	opts       Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the map, layer, and operational routes.
func NewServer(addr string, svc MapService, opts Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      accessLog(logger, mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		opts:   opts,
		logger: logger,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/map", s.handleMap)
	mux.HandleFunc("GET "+earthquakesPath, s.handleEarthquakes)
	mux.HandleFunc("GET "+platesPath, s.handlePlates)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(svc))
	mux.Handle("GET /metrics", promhttp.Handler())

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

// mapConfig resolves ?preset=, falling back to the configured default.
// Unknown presets are answered with 400 and ok=false.
func (s *Server) mapConfig(w http.ResponseWriter, r *http.Request) (composer.MapConfig, bool) {
	preset := r.URL.Query().Get("preset")
	if preset == "" {
		preset = s.opts.DefaultPreset
	}
	cfg, err := s.svc.Map(preset)
	if errors.Is(err, domain.ErrUnknownPreset) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   err.Error(),
			"presets": domain.PresetNames(),
		})
		return composer.MapConfig{}, false
	}
	if err != nil {
		s.logger.Error("resolve map config failed", "preset", preset, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return composer.MapConfig{}, false
	}
	return cfg, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.mapConfig(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := RenderPage(&buf, cfg, NewSources(earthquakesPath, platesPath)); err != nil {
		s.logger.Error("render page failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.mapConfig(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleEarthquakes(w http.ResponseWriter, r *http.Request) {
	layer, err := s.svc.Earthquakes(r.Context())
	if err != nil {
		writeLayerError(w, domain.OverlayQuakes, err)
		return
	}
	body, err := layer.FeatureCollection().MarshalJSON()
	if err != nil {
		s.logger.Error("encode earthquake layer failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encode earthquake layer"})
		return
	}
	writeCacheable(w, r, geoJSONType, s.opts.LayerMaxAge, body)
}

func (s *Server) handlePlates(w http.ResponseWriter, r *http.Request) {
	layer, err := s.svc.Plates(r.Context())
	if err != nil {
		writeLayerError(w, domain.OverlayPlates, err)
		return
	}
	body, err := layer.Collection.MarshalJSON()
	if err != nil {
		s.logger.Error("encode plate layer failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encode plate layer"})
		return
	}
	writeCacheable(w, r, geoJSONType, s.opts.LayerMaxAge, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// writeLayerError reports an upstream feed failure for one overlay.
func writeLayerError(w http.ResponseWriter, layer string, err error) {
	writeJSON(w, http.StatusBadGateway, map[string]string{
		"layer": layer,
		"error": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
