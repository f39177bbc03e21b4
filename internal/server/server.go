// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and routes.
// It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go builds Config → server.New creates:
//	  sqlite.DB + filestore.Disk
//	  → TokenService, PasswordService, SessionManager
//	  → Auth/Image/Comment/User services
//	  → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/photo-gallery/internal/auth"
	"github.com/sakif/photo-gallery/internal/filestore"
	"github.com/sakif/photo-gallery/internal/handler"
	"github.com/sakif/photo-gallery/internal/middleware"
	sqliteRepo "github.com/sakif/photo-gallery/internal/repository/sqlite"
	"github.com/sakif/photo-gallery/internal/service"
)

// DefaultSessionPurgeInterval is how often expired sessions are deleted.
const DefaultSessionPurgeInterval = 10 * time.Minute

// Config holds server configuration.
// Using a struct for config (instead of individual parameters) makes it easy to:
// - Add new config options without changing function signatures
// - Load config from env vars in one place (cmd/server)
type Config struct {
	Port      int
	DBPath    string // SQLite file, or ":memory:"
	UploadDir string // where image bytes are written
	StaticDir string // browser client; empty disables static serving

	// SessionSecret signs session tokens. Empty means a random per-process
	// secret: every restart then signs everybody out.
	SessionSecret string
	BcryptCost    int

	// GitHub sign-in is enabled only when both ID and secret are set.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// SessionPurgeInterval defaults to DefaultSessionPurgeInterval.
	SessionPurgeInterval time.Duration
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection (db). Start closes it during
// graceful shutdown; tests that never call Start use Close.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions *auth.SessionManager
}

// New creates a new Server with the given config.
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.SessionPurgeInterval <= 0 {
		cfg.SessionPurgeInterval = DefaultSessionPurgeInterval
	}

	secret := cfg.SessionSecret
	if secret == "" {
		random, err := randomSecret()
		if err != nil {
			return nil, err
		}
		secret = random
		logger.Warn("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	files, err := filestore.NewDisk(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("opening upload directory: %w", err)
	}

	// === CREATE DATABASE ===
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: auth.NewSessionManager(db, db, tokens),
	}

	s.setupRoutes(files, auth.NewPasswordService(cfg.BcryptCost))

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/signup                                  → create account
//	POST   /api/signin                                  → start session
//	GET    /api/signout                                 → end session
//	GET    /api/users?page&limit                        → user directory
//	GET    /api/users/{userId}/images                   → a user's gallery
//	POST   /api/users/{userId}/images                   → upload          [auth]
//	GET    /api/images/{imageId}                        → image bytes
//	DELETE /api/images/{imageId}                        → delete image    [auth]
//	GET    /api/images/{imageId}/comments?page          → comments
//	POST   /api/images/{imageId}/comments               → post comment    [auth]
//	DELETE /api/images/{imageId}/comments/{commentId}   → delete comment  [auth]
//	GET    /auth/github/login, /auth/github/callback    → optional GitHub sign-in
//	GET    /*                                           → static browser client
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. StripSlashes: "/api/signup/" and "/api/signup" are the same route
// 6. LoadSession: puts the signed-in user (if any) in the context and
//    re-issues the "username" cookie on every response
//
// [auth] routes additionally run auth.RequireAuth, which answers 401
// "access denied" before the handler is ever called.
func (s *Server) setupRoutes(files *filestore.Disk, passwords *auth.PasswordService) {
	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.StripSlashes)
	s.router.Use(auth.LoadSession(s.sessions, s.logger))

	// === Services and handlers ===
	// s.db implements every repository interface; each service only sees
	// the interfaces it asked for.
	authService := service.NewAuthService(s.db, s.sessions, passwords, s.logger)
	imageService := service.NewImageService(s.db, s.db, s.db, files, s.logger)
	commentService := service.NewCommentService(s.db, s.db, s.logger)
	userService := service.NewUserService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	imageHandler := handler.NewImageHandler(imageService, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/signin", authHandler.HandleSignin)
		r.Get("/signout", authHandler.HandleSignout)

		r.Get("/users", userHandler.HandleList)
		r.Get("/users/{userId}/images", imageHandler.HandleList)
		r.With(auth.RequireAuth).Post("/users/{userId}/images", imageHandler.HandleUpload)

		r.Get("/images/{imageId}", imageHandler.HandleGet)
		r.With(auth.RequireAuth).Delete("/images/{imageId}", imageHandler.HandleDelete)

		r.Get("/images/{imageId}/comments", commentHandler.HandleList)
		r.With(auth.RequireAuth).Post("/images/{imageId}/comments", commentHandler.HandlePost)
		r.With(auth.RequireAuth).Delete("/images/{imageId}/comments/{commentId}", commentHandler.HandleDelete)
	})

	// === GitHub sign-in (optional) ===
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		provider := auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
		oauthHandler := handler.NewOAuthHandler(provider, authService, s.logger)

		s.router.Get("/auth/github/login", oauthHandler.HandleLogin)
		s.router.Get("/auth/github/callback", oauthHandler.HandleCallback)
	} else {
		s.logger.Info("GitHub sign-in disabled (GITHUB_CLIENT_ID / GITHUB_CLIENT_SECRET not set)")
	}

	// === Static Files ===
	// The browser client (index.html, js, css) lives at the site root.
	// GET /js/app.js → serves {StaticDir}/js/app.js
	if s.config.StaticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// Handler returns the fully wired router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start does this itself on shutdown.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Stop the session purge loop
// 4. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	// Uploads can take a while on slow links, hence the longer
	// read/write timeouts than a pure JSON API would need.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stopPurge := context.WithCancel(context.Background())
	defer stopPurge()
	go s.purgeSessions(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("uploads", s.config.UploadDir),
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// purgeSessions deletes expired sessions every SessionPurgeInterval until
// ctx is cancelled. Expired sessions are already rejected on use; this only
// keeps the table from growing forever.
func (s *Server) purgeSessions(ctx context.Context) {
	ticker := time.NewTicker(s.config.SessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sessions.PurgeExpired(ctx)
			if err != nil {
				s.logger.Error("session purge failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				s.logger.Info("expired sessions purged", slog.Int64("count", n))
			}
		}
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
