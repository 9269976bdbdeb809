package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kitmnp/whattowatch/internal/catalog"
	"github.com/kitmnp/whattowatch/internal/config"
	"github.com/kitmnp/whattowatch/internal/provider"
)

// Smoke test for the configured cascade and the TMDb key: runs a sample
// mood through every provider tier and a title search against the catalog.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	mood := "adventurous"
	if len(os.Args) > 1 {
		mood = os.Args[1]
	}

	logger := zerolog.Nop()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("🔍 Checking recommendation providers")
	fmt.Println("====================================")
	fmt.Printf("Mood: %q\n\n", mood)

	specs := []struct {
		name   string
		apiKey string
		build  func() provider.Provider
	}{
		{"gemini", cfg.Providers.Gemini.APIKey, func() provider.Provider {
			return provider.NewGeminiClient(cfg.Providers.Gemini.APIKey, cfg.Providers.Gemini.Model,
				cfg.Providers.CurationRules, cfg.Providers.Timeout, logger)
		}},
		{"openai", cfg.Providers.OpenAI.APIKey, func() provider.Provider {
			return provider.NewOpenAIClient(cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.Model,
				cfg.Providers.CurationRules, cfg.Providers.Timeout, logger)
		}},
		{"openrouter", cfg.Providers.OpenRouter.APIKey, func() provider.Provider {
			return provider.NewOpenRouterClient(cfg.Providers.OpenRouter.APIKey, cfg.Providers.OpenRouter.Model,
				cfg.Providers.CurationRules, cfg.Providers.Timeout, logger)
		}},
	}

	configured := 0
	for _, spec := range specs {
		if spec.apiKey == "" {
			fmt.Printf("⚠️  %s: disabled (no API key)\n", spec.name)
			continue
		}
		configured++

		candidates, err := spec.build().Recommend(ctx, mood)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", spec.name, err)
			continue
		}

		fmt.Printf("✅ %s: %d candidates\n", spec.name, len(candidates))
		for i, c := range candidates {
			if i >= 3 {
				fmt.Println("   ...")
				break
			}
			fmt.Printf("   - %s (%s)\n", c.Title, c.Reason)
		}
	}

	if configured == 0 {
		fmt.Println("\n⚠️  WARNING: No provider API keys configured!")
	}

	fmt.Println("\n🎬 Checking TMDb")
	fmt.Println("================")

	if cfg.TMDb.APIKey == "" {
		fmt.Println("⚠️  TMDb: disabled (no API key)")
		return
	}

	tmdb := catalog.NewClient(catalog.Config{
		APIKey:  cfg.TMDb.APIKey,
		Timeout: cfg.TMDb.Timeout,
	}, nil, logger)

	movies, err := tmdb.SearchMovies(ctx, "The Matrix")
	if err != nil {
		fmt.Printf("❌ TMDb search: %v\n", err)
		return
	}
	if len(movies) == 0 {
		fmt.Println("❌ TMDb search: no results")
		return
	}

	fmt.Printf("✅ TMDb search: %d results, first: %s (%s)\n",
		len(movies), movies[0].Title, movies[0].ReleaseDate)
}
