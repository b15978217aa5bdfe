package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/simple-media/pkg/simplemedia/api"
	"github.com/tendant/simple-media/pkg/simplemedia/config"
)

// Config holds process-level settings. Service settings are read by
// config.WithEnv using EnvPrefix.
type Config struct {
	EnvPrefix   string   `env:"SIMPLE_MEDIA_ENV_PREFIX" env-default:""`
	LogLevel    string   `env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string   `env:"LOG_FORMAT" env-default:"text"`
	CORSOrigins []string `env:"CORS_ORIGINS" env-separator:","`
}

func newLogger(cfg Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	serverConfig, err := config.Load(config.WithEnv(cfg.EnvPrefix))
	if err != nil {
		slog.Error("Failed to load server configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	comps, err := serverConfig.BuildComponents(ctx, logger)
	if err != nil {
		slog.Error("Failed to build components", "error", err)
		os.Exit(1)
	}
	defer comps.Close()

	if comps.TokenAuth == nil {
		slog.Warn("JWT_SECRET is not set, admin API is unprotected")
	}

	adminHandler := api.NewAdminHandler(comps.Service, comps.Parser, comps.TokenAuth)
	catalogHandler := api.NewCatalogHandler(comps.Service)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	server.R.Route("/api/v1", func(r chi.Router) {
		r.Use(api.RequestIDMiddleware)
		r.Use(api.RecoveryMiddleware)
		r.Use(api.LoggingMiddleware(logger))
		if len(cfg.CORSOrigins) > 0 {
			r.Use(api.CORSMiddleware(cfg.CORSOrigins))
		}
		r.Mount("/admin", adminHandler.Routes())
		r.Mount("/catalog", catalogHandler.Routes())
	})

	slog.Info("Simple Media server starting",
		"environment", serverConfig.Environment,
		"database", serverConfig.DatabaseType,
		"storage", serverConfig.Storage.Type,
		"media_endpoint", serverConfig.MediaURLEndpoint,
	)

	server.Run()
}
