package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variables before they are mapped
// onto config keys, e.g. WTW_TMDB_APIKEY -> tmdb.apikey.
const envPrefix = "WTW_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Providers ProvidersConfig `koanf:"providers"`
	TMDb      TMDbConfig      `koanf:"tmdb"`
	Resolver  ResolverConfig  `koanf:"resolver"`
	Roulette  RouletteConfig  `koanf:"roulette"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
	RateLimit       int           `koanf:"ratelimit" validate:"min=1"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// ProvidersConfig describes the recommendation cascade. Order is the fixed
// priority list consulted by the orchestrator; entries without an API key
// are skipped at construction time, not at request time.
type ProvidersConfig struct {
	Order         []string           `koanf:"order" validate:"min=1"`
	Timeout       time.Duration      `koanf:"timeout"`
	CurationRules string             `koanf:"curationrules"`
	Gemini        ProviderSpecConfig `koanf:"gemini"`
	OpenAI        ProviderSpecConfig `koanf:"openai"`
	OpenRouter    ProviderSpecConfig `koanf:"openrouter"`
}

type ProviderSpecConfig struct {
	APIKey string `koanf:"apikey"`
	Model  string `koanf:"model"`
}

type TMDbConfig struct {
	APIKey       string        `koanf:"apikey"`
	Timeout      time.Duration `koanf:"timeout"`
	WatchRegions []string      `koanf:"watchregions" validate:"min=1"`
	CachePath    string        `koanf:"cachepath"`
	CacheTTL     time.Duration `koanf:"cachettl"`
}

type ResolverConfig struct {
	Concurrency int `koanf:"concurrency" validate:"min=1"`
}

type RouletteConfig struct {
	PreviewInterval time.Duration `koanf:"previewinterval"`
	RevealGrace     time.Duration `koanf:"revealgrace"`
}

// defaults returns the baseline configuration, overridden first by an
// optional config file and then by WTW_ environment variables.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       60,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
		Providers: ProvidersConfig{
			Order:   []string{"gemini", "openai", "openrouter"},
			Timeout: 15 * time.Second,
			CurationRules: "Favor variety: mix well-known and lesser-known films, " +
				"span at least three decades and three genres, and avoid " +
				"recommending more than one film from the same franchise.",
			Gemini:     ProviderSpecConfig{Model: "gemini-2.0-flash"},
			OpenAI:     ProviderSpecConfig{Model: "gpt-4o-mini"},
			OpenRouter: ProviderSpecConfig{Model: "meta-llama/llama-3.1-70b-instruct"},
		},
		TMDb: TMDbConfig{
			Timeout:      15 * time.Second,
			WatchRegions: []string{"US", "GB", "CA"},
			CachePath:    "./whattowatch.db",
			CacheTTL:     24 * time.Hour,
		},
		Resolver: ResolverConfig{
			Concurrency: 8,
		},
		Roulette: RouletteConfig{
			PreviewInterval: 150 * time.Millisecond,
			RevealGrace:     2 * time.Second,
		},
	}
}

// Load assembles the config from defaults, an optional YAML file (path from
// CONFIG_PATH, falling back to ./config.yaml), and WTW_ env vars.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
