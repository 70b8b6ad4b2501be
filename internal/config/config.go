package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anime-shed/channel-engine/internal/analyzer"
	"github.com/anime-shed/channel-engine/internal/strategy"
	"github.com/anime-shed/channel-engine/pkg/models"
	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	SourceFetchTimeout time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	// Caller-facing defaults
	DefaultRegionWidth     int
	DefaultRegionHeight    int
	DefaultReferencePolicy models.ReferencePolicy
	DefaultPalette         string
	MaxWorkers             int

	// Engine tunables
	BackgroundMarginFraction  float64
	BackgroundMinStep         int
	BackgroundStride          int
	BackgroundStructureWeight float64
	StrengthMADWeight         float64
	StrengthStdDevWeight      float64
	MixTriggerRatio           float64
	MixMaxAlpha               float64
	StretchShadowsClipping    float64
	StretchTargetBackground   float64

	// Sample sources
	AzureStorageAccount string
	AzureStorageKey     string
	LocalSourceRoot     string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// EngineOptions maps the tunables onto analyzer options
func (c *Config) EngineOptions() analyzer.EngineOptions {
	return analyzer.DefaultOptions().
		WithStrengthWeights(c.StrengthMADWeight, c.StrengthStdDevWeight).
		WithBackgroundSearch(c.BackgroundMarginFraction, c.BackgroundMinStep, c.BackgroundStride, c.BackgroundStructureWeight).
		WithMixThresholds(c.MixTriggerRatio, c.MixMaxAlpha).
		WithStretch(c.StretchShadowsClipping, c.StretchTargetBackground).
		WithMaxWorkers(c.MaxWorkers)
}

// AzureEnabled reports whether blob sources can be served
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

func LoadFromEnv() (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	defaults := analyzer.DefaultOptions()
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		SourceFetchTimeout: parseDurationOrDefault("SOURCE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 64*1024*1024), // 64MB
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),

		DefaultRegionWidth:  int(parseIntOrDefault("DEFAULT_REGION_WIDTH", 50)),
		DefaultRegionHeight: int(parseIntOrDefault("DEFAULT_REGION_HEIGHT", 50)),
		DefaultPalette:      getEnvOrDefault("DEFAULT_PALETTE", strategy.PaletteSHO),
		MaxWorkers:          int(parseIntOrDefault("MAX_WORKERS", 0)),

		BackgroundMarginFraction:  parseFloatOrDefault("BACKGROUND_MARGIN_FRACTION", defaults.BackgroundMarginFraction),
		BackgroundMinStep:         int(parseIntOrDefault("BACKGROUND_MIN_STEP", int64(defaults.BackgroundMinStep))),
		BackgroundStride:          int(parseIntOrDefault("BACKGROUND_STRIDE", int64(defaults.BackgroundStride))),
		BackgroundStructureWeight: parseFloatOrDefault("BACKGROUND_STRUCTURE_WEIGHT", defaults.BackgroundStructureWeight),
		StrengthMADWeight:         parseFloatOrDefault("STRENGTH_MAD_WEIGHT", defaults.StrengthMADWeight),
		StrengthStdDevWeight:      parseFloatOrDefault("STRENGTH_STDDEV_WEIGHT", defaults.StrengthStdDevWeight),
		MixTriggerRatio:           parseFloatOrDefault("MIX_TRIGGER_RATIO", defaults.MixTriggerRatio),
		MixMaxAlpha:               parseFloatOrDefault("MIX_MAX_ALPHA", defaults.MixMaxAlpha),
		StretchShadowsClipping:    parseFloatOrDefault("STRETCH_SHADOWS_CLIPPING", defaults.StretchShadowsClipping),
		StretchTargetBackground:   parseFloatOrDefault("STRETCH_TARGET_BACKGROUND", defaults.StretchTargetBackground),

		AzureStorageAccount: strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
		AzureStorageKey:     strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),
		LocalSourceRoot:     strings.TrimSpace(os.Getenv("LOCAL_SOURCE_ROOT")),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.SourceFetchTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			cfg.RequestTimeout, cfg.SourceFetchTimeout)
	}
	if cfg.DefaultRegionWidth <= 0 || cfg.DefaultRegionHeight <= 0 {
		return nil, fmt.Errorf("default region must be > 0 (got %dx%d)", cfg.DefaultRegionWidth, cfg.DefaultRegionHeight)
	}

	policy, err := models.ParseReferencePolicy(getEnvOrDefault("DEFAULT_REFERENCE_POLICY", "highest"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_REFERENCE_POLICY: %w", err)
	}
	cfg.DefaultReferencePolicy = policy

	if !strategy.IsKnownPalette(cfg.DefaultPalette) {
		return nil, fmt.Errorf("invalid DEFAULT_PALETTE: %q", cfg.DefaultPalette)
	}
	if err := cfg.EngineOptions().Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine tunables: %w", err)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
