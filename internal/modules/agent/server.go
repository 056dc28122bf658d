package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Config holds the overlay agent's local API server configuration.
type Config struct {
	Log     zerolog.Logger
	Handler *Handler
	Port    int
}

// Server is the overlay agent's loopback HTTP API: the view-model and
// control surface the host page's injected script (or a companion
// extension) talks to. Unlike the sync service, it trusts its caller —
// it binds to localhost and carries no auth of its own.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// New builds a Server from cfg.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "agent-server").Logger(),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))

	h := cfg.Handler
	s.router.Get("/health", h.HandleHealth)
	s.router.Get("/summary", h.HandleSummary)
	s.router.Get("/buckets/{bucket}", h.HandleBucketDetail)
	s.router.Post("/ingest", h.HandleIngest)
	s.router.Put("/goals/{goalId}/target", h.HandleSetGoalTarget)
	s.router.Put("/instruments/{code}/target", h.HandleSetInstrumentTarget)
	s.router.Post("/sync/trigger", h.HandleTriggerSync)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting overlay agent API")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down overlay agent API")
	return s.server.Shutdown(ctx)
}
