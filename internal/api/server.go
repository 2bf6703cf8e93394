package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Anthony4834/fmr-edge/internal/config"
	"github.com/Anthony4834/fmr-edge/internal/gateway"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server hosts the gateway in front of the FMR application routes. The data
// handlers here are stand-ins; the real SQL-backed endpoints live in the
// application proper and are mounted behind the same middleware chain.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	router     *mux.Router
	httpServer *http.Server
	gateway    *gateway.Gateway
	contact    *ContactLimiter

	requestCount int64
	startTime    time.Time
}

// NewServer wires the router, gateway middleware, and host endpoints.
func NewServer(cfg *config.Config, logger *zap.Logger, gw *gateway.Gateway) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		router:    mux.NewRouter(),
		gateway:   gw,
		contact:   NewContactLimiter(),
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ready", s.handleReady).Methods("GET")
	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")
	s.router.Handle("/metrics", gateway.NewMetrics().Handler()).Methods("GET")

	// Internal cron target, bypassed by the gateway.
	s.router.HandleFunc("/api/cron/refresh", s.handleCronRefresh).Methods("POST")

	// Auth endpoints carry their own limiter upstream; here they are stubs.
	s.router.HandleFunc("/api/auth/session", s.handleAuthSession).Methods("GET")

	// Contact form has its own per-IP limiter instead of the tier quota.
	s.router.Handle("/api/contact", s.contact.Middleware(http.HandlerFunc(s.handleContact))).Methods("POST")

	// Fire-and-forget analytics beacon.
	s.router.HandleFunc("/api/track", s.handleTrack).Methods("POST")

	// Stand-in for the SQL-backed FMR read endpoints.
	s.router.HandleFunc("/api/fmr", s.handleFMR).Methods("GET")

	// Page catch-all (the real app serves the UI here).
	s.router.PathPrefix("/").HandlerFunc(s.handlePage)

	s.router.Use(s.gateway.Middleware)
	s.router.Use(s.loggingMiddleware)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ready":     true,
		"memory_mb": getMemoryUsageMB(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": "0.1.0",
		"go":      runtime.Version(),
	})
}

func (s *Server) handleCronRefresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (s *Server) handleAuthSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": nil})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	// Beacon responses are intentionally empty and always succeed.
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFMR(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"fmrs": []interface{}{}})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<!doctype html><title>FMR</title>"))
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.requestCount, 1)
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// Start begins serving. Blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.Int("port", s.config.Server.Port))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func getMemoryUsageMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc / 1024 / 1024
}
