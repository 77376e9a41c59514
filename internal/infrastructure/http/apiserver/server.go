// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gourmetguru/api/internal/infrastructure/config"
	"github.com/gourmetguru/api/internal/infrastructure/http/handlers"
	"github.com/gourmetguru/api/internal/infrastructure/http/middleware"
	"github.com/gourmetguru/api/internal/infrastructure/monitoring"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"github.com/gourmetguru/api/pkg/healthcheck"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Routes groups the handlers mounted by the server
type Routes struct {
	Recipes    *handlers.RecipeHandlers
	Auth       *handlers.AuthHandlers
	Saved      *handlers.SavedHandlers
	LiveSearch *handlers.LiveSearchHandler
	Health     *healthcheck.HealthCheck
	Metrics    *monitoring.HTTPMetrics
	// Pages is mounted at the root when set
	Pages http.Handler
}

// Server represents the JSON API HTTP server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
	router  *chi.Mux
	openAPI *OpenAPIHandler
}

// NewServer creates a new API server instance
func NewServer(
	cfg *config.Config,
	log *zap.Logger,
	mw *middleware.Middleware,
	authn *middleware.Authenticator,
	routes Routes,
) *Server {
	s := &Server{
		config:  cfg,
		logger:  log.Named("api-server"),
		openAPI: NewOpenAPIHandler(log),
	}

	s.router = s.setupRoutes(mw, authn, routes)
	s.server = &http.Server{
		Addr:           net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	if err := http2.ConfigureServer(s.server, &http2.Server{IdleTimeout: cfg.Server.IdleTimeout}); err != nil {
		s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	return s
}

// setupRoutes configures the middleware chain and every route
func (s *Server) setupRoutes(mw *middleware.Middleware, authn *middleware.Authenticator, routes Routes) *chi.Mux {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(mw.Tracing("http.server"))
	if routes.Metrics != nil {
		r.Use(routes.Metrics.Middleware)
	}
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.Security)
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, apperrors.NewNotFoundError("Route"), chimiddleware.GetReqID(r.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w,
			apperrors.NewAppError(apperrors.CodeBadRequest, "Method not allowed", r.Method),
			chimiddleware.GetReqID(r.Context()))
	})

	if routes.Health != nil {
		r.Get(s.config.Monitoring.HealthCheckPath, routes.Health.Handler())
		r.Get(s.config.Monitoring.ReadinessPath, routes.Health.ReadinessHandler())
		r.Get("/live", routes.Health.LivenessHandler())
	}
	if routes.Metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Handle(s.config.Monitoring.MetricsPath, routes.Metrics.Handler())
	}

	// The websocket stays outside the timeout and compression wrappers
	r.With(authn.OptionalAuth).Handle("/ws/search", routes.LiveSearch)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Timeout())
		r.Use(mw.Compression())
		r.Use(mw.RateLimit)

		r.Get("/openapi.yaml", s.openAPI.ServeOpenAPISpec)
		r.Get("/openapi.json", s.openAPI.ServeOpenAPIJSON)
		r.Get("/docs", s.openAPI.ServeDocs)

		s.setupAPIV1Routes(r, authn, routes)
	})

	if routes.Pages != nil {
		r.Group(func(r chi.Router) {
			r.Use(mw.Timeout())
			r.Use(mw.Compression())
			r.Use(authn.OptionalAuth)
			r.Mount("/", routes.Pages)
		})
	}

	return r
}

// setupAPIV1Routes configures API v1 endpoints
func (s *Server) setupAPIV1Routes(r chi.Router, authn *middleware.Authenticator, routes Routes) {
	r.Route("/recipes", func(r chi.Router) {
		r.Use(authn.OptionalAuth)
		r.Get("/search", routes.Recipes.Search)
		r.Get("/by-ingredients", routes.Recipes.ByIngredients)
		r.Get("/random", routes.Recipes.Random)
		r.Get("/{id}", routes.Recipes.Detail)
	})

	r.Get("/ingredients/autocomplete", routes.Recipes.Autocomplete)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", routes.Auth.SignUp)
		r.Post("/signin", routes.Auth.SignIn)

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth)
			r.Post("/signout", routes.Auth.SignOut)
			r.Get("/me", routes.Auth.Me)
		})
	})

	r.Route("/me/saved", func(r chi.Router) {
		r.With(authn.OptionalAuth).Post("/{id}/toggle", routes.Saved.Toggle)

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth)
			r.Get("/", routes.Saved.List)
			r.Get("/{id}", routes.Saved.IsSaved)
			r.Put("/{id}", routes.Saved.Save)
			r.Delete("/{id}", routes.Saved.Unsave)
		})
	})
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Server returns the underlying HTTP server instance
func (s *Server) Server() *http.Server {
	return s.server
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
