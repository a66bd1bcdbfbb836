// Package web serves the parts inventory JSON API.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/PartsInventory/internal/auth"
	"github.com/JonMunkholm/PartsInventory/internal/config"
	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/JonMunkholm/PartsInventory/internal/web/middleware"
)

// Server is the HTTP server for the inventory.
type Server struct {
	core    *core.Service
	users   *auth.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer wires middleware and routes over the two services.
func NewServer(svc *core.Service, users *auth.Service, cfg *config.Config) *Server {
	s := &Server{
		core:   svc,
		users:  users,
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(requestMetadata)
	if s.cfg.Metrics.Enabled {
		s.router.Use(middleware.Metrics)
	}
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware(s.respondError))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics.Enabled {
		s.router.Handle(s.cfg.Metrics.Path, promhttp.Handler())
	}

	authenticate := middleware.Authenticate(s.users, s.cfg.Auth.CookieName, s.fail)
	adminOnly := middleware.RequireRole(core.RoleAdmin, s.fail)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/logout", s.handleLogout)

			r.Route("/parts", func(r chi.Router) {
				r.Get("/", s.handleListParts)
				r.Post("/", s.handleCreatePart)
				r.Get("/check-number", s.handleCheckPartNumber)
				r.Get("/search", s.handleSearchQuery)
				r.Post("/search", s.handleSearchJSON)
				r.Post("/search/validate", s.handleValidateCriteria)
				r.Get("/search-statistics", s.handleSearchStatistics)

				r.With(adminOnly).Get("/export", s.handleExportAll)
				r.With(adminOnly).Get("/export/search", s.handleExportSearch)
				r.With(adminOnly).Post("/import", s.handleImport)

				r.Get("/{id}", s.handleGetPart)
				r.Put("/{id}", s.handleUpdatePart)
				r.Delete("/{id}", s.handleDeletePart)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", s.handleListCategories)
				r.Get("/tree", s.handleCategoryTree)
				r.Get("/search", s.handleSearchCategories)
				r.Get("/{id}", s.handleGetCategory)
				r.Get("/{id}/children", s.handleChildCategories)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)

				r.Get("/dashboard", s.handleDashboard)
				r.Get("/audit-log", s.handleAuditLog)

				r.Get("/categories/statistics", s.handleCategoryStatistics)
				r.Get("/categories/name-exists", s.handleCategoryNameExists)
				r.Post("/categories", s.handleCreateCategory)
				r.Put("/categories/{id}", s.handleUpdateCategory)
				r.Delete("/categories/{id}", s.handleDeleteCategory)
				r.Get("/categories/{id}/deletable", s.handleCategoryDeletable)

				r.Get("/users", s.handleListUsers)
				r.Post("/users", s.handleCreateUser)
				r.Get("/users/{id}", s.handleGetUser)
				r.Put("/users/{id}", s.handleUpdateUser)
				r.Delete("/users/{id}", s.handleDeleteUser)
			})
		})
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and the limiter's sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

const contentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"

// securityHeaders adds hardening headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				h.Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}
