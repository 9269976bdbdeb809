package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/api"
	"github.com/kitmnp/whattowatch/internal/catalog"
	"github.com/kitmnp/whattowatch/internal/config"
	"github.com/kitmnp/whattowatch/internal/database"
	"github.com/kitmnp/whattowatch/internal/logging"
	"github.com/kitmnp/whattowatch/internal/provider"
	"github.com/kitmnp/whattowatch/internal/resolver"
	"github.com/kitmnp/whattowatch/internal/roulette"
	"github.com/kitmnp/whattowatch/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	db, err := database.Open(cfg.TMDb.CachePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open cache database")
	}
	defer db.Close()

	cache := database.NewCacheRepository(db, cfg.TMDb.CacheTTL)
	if pruned, err := cache.Prune(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("cache prune failed")
	} else if pruned > 0 {
		logger.Info().Int64("entries", pruned).Msg("pruned expired cache entries")
	}

	if cfg.TMDb.APIKey == "" {
		logger.Fatal().Msg("TMDb API key is required (WTW_TMDB_APIKEY)")
	}

	tmdb := catalog.NewClient(catalog.Config{
		APIKey:  cfg.TMDb.APIKey,
		Timeout: cfg.TMDb.Timeout,
	}, cache, logger)

	details := catalog.NewDetailService(tmdb, cfg.TMDb.WatchRegions, logger)

	providers := buildProviders(cfg.Providers, logger)
	if len(providers) == 0 {
		logger.Fatal().Msg("no recommendation providers configured; set at least one API key " +
			"(WTW_PROVIDERS_GEMINI_APIKEY, WTW_PROVIDERS_OPENAI_APIKEY, or WTW_PROVIDERS_OPENROUTER_APIKEY)")
	}

	cascade := provider.NewCascade(providers, logger)
	res := resolver.New(tmdb, cfg.Resolver.Concurrency, logger)

	sessions := session.NewRegistry(func() *roulette.Engine {
		return roulette.NewEngine(details, roulette.Config{
			PreviewInterval: cfg.Roulette.PreviewInterval,
			RevealGrace:     cfg.Roulette.RevealGrace,
		}, nil, logger)
	}, logger)

	app := &api.App{
		Cascade:  cascade,
		Resolver: res,
		Sessions: sessions,
		Logger:   logger,
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(app, cfg.Server.RateLimit),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().
			Int("port", cfg.Server.Port).
			Strs("providers", cascade.Providers()).
			Str("cache", cfg.TMDb.CachePath).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}

// buildProviders assembles the cascade in the configured priority order.
// Entries without an API key are skipped with a notice so a misconfigured
// tier is visible at startup instead of failing every request.
func buildProviders(cfg config.ProvidersConfig, logger zerolog.Logger) []provider.Provider {
	var providers []provider.Provider

	for _, name := range cfg.Order {
		switch name {
		case "gemini":
			if cfg.Gemini.APIKey == "" {
				logger.Info().Msg("gemini provider disabled (no API key)")
				continue
			}
			providers = append(providers, provider.NewGeminiClient(
				cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.CurationRules, cfg.Timeout, logger))
		case "openai":
			if cfg.OpenAI.APIKey == "" {
				logger.Info().Msg("openai provider disabled (no API key)")
				continue
			}
			providers = append(providers, provider.NewOpenAIClient(
				cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.CurationRules, cfg.Timeout, logger))
		case "openrouter":
			if cfg.OpenRouter.APIKey == "" {
				logger.Info().Msg("openrouter provider disabled (no API key)")
				continue
			}
			providers = append(providers, provider.NewOpenRouterClient(
				cfg.OpenRouter.APIKey, cfg.OpenRouter.Model, cfg.CurationRules, cfg.Timeout, logger))
		default:
			logger.Warn().Str("provider", name).Msg("unknown provider in cascade order")
		}
	}

	return providers
}
