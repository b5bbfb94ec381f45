// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the storage backend, services, handlers and
// middleware are all wired together here and nowhere else.
//
//	config.Config → OpenStore → repository.Store
//	Store → services → handlers → chi routes
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
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/social-ledger/internal/auth"
	"github.com/sakif/social-ledger/internal/config"
	"github.com/sakif/social-ledger/internal/handler"
	"github.com/sakif/social-ledger/internal/middleware"
	"github.com/sakif/social-ledger/internal/repository"
	"github.com/sakif/social-ledger/internal/repository/postgres"
	sqliteRepo "github.com/sakif/social-ledger/internal/repository/sqlite"
	"github.com/sakif/social-ledger/internal/service"
)

// Server represents the HTTP server and all its dependencies. It owns the
// storage backend and closes it when Start returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
}

// New opens the storage backend named by cfg and builds the router.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s, err := NewWithStore(cfg, logger, store)
	if err != nil {
		store.Backend.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore builds the router over an already opened store. Tests use
// it with an in-memory SQLite database.
func NewWithStore(cfg config.Config, logger *slog.Logger, store repository.Store) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// OpenStore connects to the backend selected by cfg.DatabaseDriver.
// PostgreSQL migrations run before the pool is opened; SQLite creates its
// schema on open.
func OpenStore(ctx context.Context, cfg config.Config) (repository.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return repository.Store{}, fmt.Errorf("migrating database: %w", err)
		}
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return repository.Store{}, fmt.Errorf("opening database: %w", err)
		}
		return db.Store(), nil

	default:
		if err := ensureDir(cfg.DatabaseURL); err != nil {
			return repository.Store{}, err
		}
		db, err := sqliteRepo.New(cfg.DatabaseURL)
		if err != nil {
			return repository.Store{}, fmt.Errorf("opening database: %w", err)
		}
		return db.Store(), nil
	}
}

// ensureDir creates the parent directory of a SQLite file path.
func ensureDir(path string) error {
	if strings.HasPrefix(path, ":memory:") || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                 → database ping
//	POST   /auth                    → login, returns bearer token
//	GET    /users                   → list users (public projection)
//	GET    /users/activity          → list users with activity   [auth]
//	POST   /users                   → register
//	PUT    /users?id=               → update own profile          [auth]
//	DELETE /users?id=               → delete own account          [auth]
//	GET    /posts                   → list posts
//	GET    /posts/{id}              → get one post
//	POST   /posts                   → create post                 [auth]
//	PUT    /posts?id=               → update own post             [auth]
//	DELETE /posts?id=               → delete own post             [auth]
//	GET    /likes?post_id=          → like ledger of a post
//	GET    /likes/analytics         → per-day like/unlike counts
//	GET    /likes/state?post_id=    → caller's current state      [auth]
//	POST   /likes/create_like       → append like                 [auth]
//	POST   /likes/create_unlike?id= → append unlike               [auth]
//
// Middleware runs in the order it is added: request id, real ip, panic
// recovery, request logging, CORS.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	tokens, err := auth.NewTokenService(s.config.Token)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	// === Services ===
	access := service.NewAccessControl(s.store.Users, tokens, s.logger)
	authService := service.NewAuthService(s.store.Users, tokens, passwords, s.logger)
	userService := service.NewUserService(s.store.Users, passwords, s.logger)
	postService := service.NewPostService(s.store.Posts, s.store.Users, s.logger)
	likeService := service.NewLikeService(s.store.Likes, s.store.Users, s.logger)

	// === Handlers ===
	healthHandler := handler.NewHealthHandler(s.store.Backend, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	likeHandler := handler.NewLikeHandler(likeService, s.logger)

	requireCaller := auth.RequireCaller(access, handler.WriteError)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Post("/auth", authHandler.HandleLogin)

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.HandleList)
		r.Post("/", userHandler.HandleCreate)

		r.Group(func(r chi.Router) {
			r.Use(requireCaller)
			r.Get("/activity", userHandler.HandleActivity)
			r.Put("/", userHandler.HandleUpdate)
			r.Delete("/", userHandler.HandleDelete)
		})
	})

	s.router.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.HandleList)
		r.Get("/{id}", postHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireCaller)
			r.Post("/", postHandler.HandleCreate)
			r.Put("/", postHandler.HandleUpdate)
			r.Delete("/", postHandler.HandleDelete)
		})
	})

	s.router.Route("/likes", func(r chi.Router) {
		r.Get("/", likeHandler.HandleList)
		r.Get("/analytics", likeHandler.HandleAnalytics)

		r.Group(func(r chi.Router) {
			r.Use(requireCaller)
			r.Get("/state", likeHandler.HandleState)
			r.Post("/create_like", likeHandler.HandleLike)
			r.Post("/create_unlike", likeHandler.HandleUnlike)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the storage backend.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Backend.Close(); err != nil {
			s.logger.Error("closing database", slog.String("error", err.Error()))
		}
	}()

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
			slog.String("driver", s.config.DatabaseDriver),
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
