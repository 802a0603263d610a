// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects the JSON file store,
// services, handlers, middleware and routes, and decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config (from cmd/server)
//	  → jsonfile.Store → Collection[Event|Product|User]
//	  → EventService / ProductService / AuthService
//	  → EventHandler / ProductHandler / AuthHandler
//	  → chi routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/auth"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/config"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/handler"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/metrics"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/middleware"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/repository/jsonfile"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/service"
)

// Collections are the three typed collections of the data directory.
type Collections struct {
	Events   *jsonfile.Collection[model.Event]
	Products *jsonfile.Collection[model.Product]
	Users    *jsonfile.Collection[model.User]
}

// OpenCollections binds events.json, products.json and users.json inside
// dataDir. Files are not touched until first use.
func OpenCollections(dataDir string, logger *slog.Logger) (*Collections, error) {
	store, err := jsonfile.New(map[string]string{
		"events":   filepath.Join(dataDir, "events.json"),
		"products": filepath.Join(dataDir, "products.json"),
		"users":    filepath.Join(dataDir, "users.json"),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	events, err := jsonfile.Open(store, "events", jsonfile.Options[model.Event]{})
	if err != nil {
		return nil, err
	}
	products, err := jsonfile.Open(store, "products", jsonfile.Options[model.Product]{
		Default: model.DefaultProducts(),
	})
	if err != nil {
		return nil, err
	}
	users, err := jsonfile.Open(store, "users", jsonfile.Options[model.User]{WrapKey: "users"})
	if err != nil {
		return nil, err
	}

	return &Collections{Events: events, Products: products, Users: users}, nil
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	tokens *auth.TokenService

	events   *handler.EventHandler
	products *handler.ProductHandler
	auth     *handler.AuthHandler
}

// New creates a Server from cfg.
//
// DEPENDENCY INJECTION & WIRING:
//  1. Open the JSON collections under cfg.DataDir
//  2. Build the token issuer and password hasher from the auth settings
//  3. Create the services over the collections
//  4. Create the handlers over the services and register the routes
//
// Each layer only receives what it needs: services get repository.Collection
// interfaces, handlers get service interfaces.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	cols, err := OpenCollections(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		tokens: tokens,
		events: handler.NewEventHandler(service.NewEventService(cols.Events, logger), logger),
		products: handler.NewProductHandler(
			service.NewProductService(cols.Products, logger), logger),
		auth: handler.NewAuthHandler(
			service.NewAuthService(cols.Users, tokens, passwords, logger), logger),
	}
	s.setupRoutes()

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                  → liveness probe
// GET    /metrics                  → Prometheus exposition
// GET    /events                   → list events (?search=, ?max=)
// GET    /events/{id}              → get one event
// POST   /events                   → create event          [write]
// PUT    /events/{id}              → replace event         [write]
// PATCH  /events/{id}/products     → merge product details [write]
// DELETE /events/{id}              → delete event          [write]
// POST   /migrate-old-events       → migrate legacy events [write]
// GET    /products                 → list active products
// POST   /products                 → create product        [write]
// POST   /auth/signup              → create account        [rate limited]
// POST   /auth/login               → log in                [rate limited]
// GET    /auth/me                  → current user          [Bearer token]
//
// [write] routes require a Bearer token when REQUIRE_AUTH is set.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers (the rate limiter keys on it)
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger, Metrics: observe the final status of every request
// 5. CORS: answers preflight requests before they reach a route
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(middleware.CORS(s.config.CORSAllowedOrigin))

	s.router.Get("/healthz", handleHealth)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	requireAuth := auth.RequireAuth(s.tokens)
	writes := func(r chi.Router) chi.Router {
		if s.config.RequireAuth {
			return r.With(requireAuth)
		}
		return r
	}

	s.router.Route("/events", func(r chi.Router) {
		r.Get("/", s.events.HandleList)
		r.Get("/{id}", s.events.HandleGet)

		w := writes(r)
		w.Post("/", s.events.HandleCreate)
		w.Put("/{id}", s.events.HandleUpdate)
		w.Patch("/{id}/products", s.events.HandlePatchProducts)
		w.Delete("/{id}", s.events.HandleDelete)
	})
	writes(s.router).Post("/migrate-old-events", s.events.HandleMigrate)

	s.router.Route("/products", func(r chi.Router) {
		r.Get("/", s.products.HandleList)
		writes(r).Post("/", s.products.HandleCreate)
	})

	s.router.Route("/auth", func(r chi.Router) {
		limited := r.With(middleware.RateLimit(s.config.AuthRateLimitRPS, s.config.AuthRateLimitBurst, s.logger))
		limited.Post("/signup", s.auth.HandleSignup)
		limited.Post("/login", s.auth.HandleLogin)
		r.With(requireAuth).Get("/me", s.auth.HandleMe)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
//
// Every write to the data files is atomic, so a request cut off by the
// timeout leaves each file in its old or its new state.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("data_dir", s.config.DataDir),
			slog.Bool("require_auth", s.config.RequireAuth),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
