package syncservice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Config holds the sync service's HTTP server configuration.
type Config struct {
	Log         zerolog.Logger
	Store       *Store
	SigningKey  []byte
	Port        int
	CORSOrigins string
	DevMode     bool
	// AccessTTL and RefreshTTL override the default token lifetimes
	// when positive; zero keeps the Authenticator's built-in defaults.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Server is the sync service's HTTP server: authn, rate limiting,
// CORS, and opaque blob CRUD over a shared KV store.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// New builds a Server from cfg, wiring routes and middleware.
func New(cfg Config) *Server {
	auth := NewAuthenticator(cfg.SigningKey).WithTTLs(cfg.AccessTTL, cfg.RefreshTTL)
	handler := NewHandler(cfg.Store, auth, cfg.Log)
	limiter := NewRateLimiter(cfg.Store)
	cors := newOriginAllowlist(cfg.CORSOrigins)

	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "syncservice-server").Logger(),
	}

	s.setupMiddleware(cors, cfg.DevMode)
	s.setupRoutes(handler, limiter)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(cors *originAllowlist, devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Middleware)
	s.router.Use(coarseIPLimiter())
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes(h *Handler, rl *RateLimiter) {
	s.router.Get("/health", h.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", rl.Limit("/auth/register", http.MethodPost, limitAuthRegister, h.HandleRegister))
		r.Post("/login", rl.Limit("/auth/login", http.MethodPost, limitAuthLogin, h.HandleLogin))
		r.Post("/refresh", rl.Limit("/auth/refresh", http.MethodPost, limitAuthRefresh, h.HandleRefresh))
	})

	s.router.Post("/sync", h.RequireAccessToken(rl.Limit("/sync", http.MethodPost, limitSyncUpload, h.HandleUpload)))
	s.router.Get("/sync/{userId}", h.RequireAccessToken(rl.Limit("/sync/{userId}", http.MethodGet, limitSyncDownload, h.HandleDownload)))
	s.router.Delete("/sync/{userId}", h.RequireAccessToken(rl.Limit("/sync/{userId}", http.MethodDelete, limitSyncDelete, h.HandleDelete)))
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
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting sync service")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down sync service")
	return s.server.Shutdown(ctx)
}
