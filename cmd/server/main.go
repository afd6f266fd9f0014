// @title           VidOptimize API
// @version         1.0
// @description     Video metadata optimization: AI title, description and tag suggestions with per-plan quotas.
// @BasePath        /api
// @schemes         http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidoptimize/internal/api"
	"vidoptimize/internal/auth"
	"vidoptimize/internal/config"
	"vidoptimize/internal/database"
	"vidoptimize/internal/logging"
	"vidoptimize/internal/suggest"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "vidoptimize/docs"
)

const (
	shutdownTimeout  = 10 * time.Second
	limiterSweep     = time.Minute
	limiterIdleAfter = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(logging.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
	})
	for _, warning := range cfg.Warnings {
		logger.Warn().Msg(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create database pool")
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping database")
	}
	logger.Info().Msg("connected to database")

	tokens, err := auth.NewTokenIssuer(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token issuer")
	}

	titleCache, closeCache := newTitleCache(ctx, cfg, logger)
	defer closeCache()

	var generator suggest.Generator
	if cfg.Suggest.GeminiAPIKey != "" {
		generator = suggest.NewGeminiClient(suggest.GeminiConfig{
			APIKey:  cfg.Suggest.GeminiAPIKey,
			Model:   cfg.Suggest.GeminiModel,
			BaseURL: cfg.Suggest.GeminiBaseURL,
			Timeout: cfg.Suggest.Timeout,
		})
		logger.Info().Str("model", cfg.Suggest.GeminiModel).Msg("AI suggestions enabled")
	} else {
		logger.Info().Msg("no Gemini API key configured, using template suggestions")
	}

	metadata := suggest.NewMetadataClient(cfg.Suggest.OEmbedURL, titleCache, logger)
	provider := suggest.NewProvider(generator, metadata, logger)

	limiter := api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Run(ctx, limiterSweep, limiterIdleAfter)

	server := api.NewServer(cfg, database.NewStore(dbpool), tokens, provider, limiter, logger)

	srv := &http.Server{
		Addr:              cfg.AppHost,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Suggest.Timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.AppHost).Str("env", cfg.App.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newTitleCache prefers Redis when an address is configured and falls back to
// an in-process cache when it is not, or when Redis is unreachable.
func newTitleCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (suggest.TitleCache, func()) {
	if cfg.Redis.Addr != "" {
		client, err := suggest.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err == nil {
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("caching video titles in Redis")
			return suggest.NewRedisTitleCache(client, cfg.Cache.TitleTTL, logger), func() { _ = client.Close() }
		}
		logger.Warn().Err(err).Msg("Redis unavailable, caching video titles in memory")
	}

	cache := suggest.NewMemoryTitleCache(cfg.Cache.TitleTTL)
	return cache, func() { _ = cache.Close() }
}
