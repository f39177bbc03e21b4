// Package main is the entry point for the photo gallery server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (from env vars, flags, or config files)
// 2. Create dependencies (logger, directories)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
// This separation makes the app testable and its components reusable.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// A project might have multiple executables (e.g., cmd/server, cmd/migrate, cmd/cli).
// Each gets its own directory with its own main.go.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sakif/photo-gallery/internal/auth"
	"github.com/sakif/photo-gallery/internal/server"
)

func main() {
	// === 1. SET UP LOGGING ===
	// slog.New creates a structured logger. slog.NewTextHandler outputs human-readable logs.
	//
	// Log levels (from least to most severe): Debug → Info → Warn → Error
	// LOG_LEVEL=debug turns on the noisy ones during development.
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	// === 2. LOAD .env ===
	// godotenv copies KEY=value lines from .env into the process environment.
	// Variables already set in the real environment win. A missing .env is fine:
	// production sets everything through the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. READ CONFIGURATION ===
	port, err := envInt("PORT", 3000)
	if err != nil {
		logger.Error("invalid PORT value", slog.String("error", err.Error()))
		os.Exit(1)
	}

	bcryptCost, err := envInt("BCRYPT_COST", auth.DefaultCost)
	if err != nil {
		logger.Error("invalid BCRYPT_COST value", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. DATABASE PATH ===
	// DB_PATH allows overriding for production deployments.
	// Example: DB_PATH=/var/lib/gallery/prod.db
	dbPath := envString("DB_PATH", "data/gallery.db")

	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 5. FILE LOCATIONS ===
	// Uploaded image bytes go to UPLOAD_DIR (created on startup).
	// STATIC_DIR holds the browser client; set it to "" to serve the API only.
	uploadDir := envString("UPLOAD_DIR", "uploads")
	staticDir, present := os.LookupEnv("STATIC_DIR")
	if !present {
		staticDir = "static"
	}
	if staticDir != "" {
		staticDir, _ = filepath.Abs(staticDir)
	}

	// === 6. AUTH CONFIGURATION ===
	// SESSION_SECRET must be a long random string. Use:
	//   SESSION_SECRET=$(openssl rand -hex 32)
	// If unset the server generates one, which signs everyone out on restart.
	githubCallbackURL := envString("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", port))

	// === 7. CREATE AND START THE SERVER ===
	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		UploadDir:          uploadDir,
		StaticDir:          staticDir,
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		BcryptCost:         bcryptCost,
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  githubCallbackURL,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// envString returns the variable's value, or def when it is unset or empty.
func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt parses the variable as an integer, or returns def when it is unset.
func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v) // Atoi = ASCII to Integer
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", key, v, err)
	}
	return n, nil
}
