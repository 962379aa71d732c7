// Package config loads runtime settings from an optional YAML file, with environment
// variables taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"previz_studio/entities"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	DBFile   string `koanf:"db_file"`
	LogLevel string `koanf:"log_level"`

	GenerationTimeout time.Duration `koanf:"generation_timeout"`
	DefaultEngine     string        `koanf:"default_engine"`

	// Engine credentials used when a session has not set its own.
	BriaAPIKey   string `koanf:"bria_api_key"`
	FalAPIKey    string `koanf:"fal_api_key"`
	GeminiAPIKey string `koanf:"gemini_api_key"`

	BriaURL     string `koanf:"bria_url"`
	FalURL      string `koanf:"fal_url"`
	GeminiURL   string `koanf:"gemini_url"`
	GeminiModel string `koanf:"gemini_model"`

	DiscordToken string `koanf:"discord_token"`
	DiscordGuild string `koanf:"discord_guild"`

	MetricsAddr string `koanf:"metrics_addr"`

	PlateWidth   int `koanf:"plate_width"`
	PlateHeight  int `koanf:"plate_height"`
	PlateMaxEdge int `koanf:"plate_max_edge"`
}

var (
	ErrMissingDiscordToken = errors.New("DISCORD_TOKEN is required")
	ErrInvalidPlateSize    = errors.New("plate size must be positive")
	ErrInvalidLogLevel     = errors.New("LOG_LEVEL must be one of debug, info, warn, error")
	ErrInvalidTimeout      = errors.New("GENERATION_TIMEOUT must not be negative")
)

const (
	DefaultLogLevel          = "info"
	DefaultGenerationTimeout = 2 * time.Minute
	DefaultPlateWidth        = 1280
	DefaultPlateHeight       = 720
	DefaultPlateMaxEdge      = 1024
)

// Load reads the optional YAML file at path and overlays environment variables. It returns
// the config and every validation error found.
func Load(path string) (*Config, []error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", path, err)}
		}
	}

	var loadErrs []error

	timeout, err := envDuration("GENERATION_TIMEOUT", k, "generation_timeout", DefaultGenerationTimeout)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	plateWidth, err := envInt("PLATE_WIDTH", k, "plate_width", DefaultPlateWidth)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	plateHeight, err := envInt("PLATE_HEIGHT", k, "plate_height", DefaultPlateHeight)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	plateMaxEdge, err := envInt("PLATE_MAX_EDGE", k, "plate_max_edge", DefaultPlateMaxEdge)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	cfg := &Config{
		DBFile:            envOrKoanf("DB_FILE", k, "db_file"),
		LogLevel:          orDefault(envOrKoanf("LOG_LEVEL", k, "log_level"), DefaultLogLevel),
		GenerationTimeout: timeout,
		DefaultEngine:     orDefault(envOrKoanf("DEFAULT_ENGINE", k, "default_engine"), string(entities.EngineBria)),
		BriaAPIKey:        envOrKoanf("BRIA_API_KEY", k, "bria_api_key"),
		FalAPIKey:         envOrKoanf("FAL_KEY", k, "fal_api_key"),
		GeminiAPIKey:      envOrKoanf("GEMINI_API_KEY", k, "gemini_api_key"),
		BriaURL:           envOrKoanf("BRIA_URL", k, "bria_url"),
		FalURL:            envOrKoanf("FAL_URL", k, "fal_url"),
		GeminiURL:         envOrKoanf("GEMINI_URL", k, "gemini_url"),
		GeminiModel:       envOrKoanf("GEMINI_MODEL", k, "gemini_model"),
		DiscordToken:      envOrKoanf("DISCORD_TOKEN", k, "discord_token"),
		DiscordGuild:      envOrKoanf("DISCORD_GUILD", k, "discord_guild"),
		MetricsAddr:       envOrKoanf("METRICS_ADDR", k, "metrics_addr"),
		PlateWidth:        plateWidth,
		PlateHeight:       plateHeight,
		PlateMaxEdge:      plateMaxEdge,
	}

	return cfg, append(loadErrs, cfg.Validate()...)
}

func (c *Config) Validate() []error {
	var errs []error

	if c.DiscordToken == "" {
		errs = append(errs, ErrMissingDiscordToken)
	}

	if c.PlateWidth <= 0 || c.PlateHeight <= 0 || c.PlateMaxEdge < 0 {
		errs = append(errs, ErrInvalidPlateSize)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ErrInvalidLogLevel)
	}

	if c.GenerationTimeout < 0 {
		errs = append(errs, ErrInvalidTimeout)
	}

	if _, err := entities.ParseEngineKind(c.DefaultEngine); err != nil {
		errs = append(errs, err)
	}

	return errs
}

// Credential returns the configured credential for an engine.
func (c *Config) Credential(engine entities.EngineKind) string {
	switch engine {
	case entities.EngineBria:
		return c.BriaAPIKey
	case entities.EngineFal:
		return c.FalAPIKey
	case entities.EngineGemini:
		return c.GeminiAPIKey
	default:
		return ""
	}
}

func envOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}

	return k.String(koanfKey)
}

func orDefault(val, defaultVal string) string {
	if val == "" {
		return defaultVal
	}

	return val
}

func envInt(envKey string, k *koanf.Koanf, koanfKey string, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}

		return i, nil
	}

	if k.Exists(koanfKey) {
		return k.Int(koanfKey), nil
	}

	return defaultVal, nil
}

func envDuration(envKey string, k *koanf.Koanf, koanfKey string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(envKey)
	if val == "" && k.Exists(koanfKey) {
		val = k.String(koanfKey)
	}

	if val == "" {
		return defaultVal, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", envKey, err)
	}

	return d, nil
}
