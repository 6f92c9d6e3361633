// Package config loads service configuration from files and the
// environment.
//
// Precedence, lowest to highest: built-in defaults, an optional
// semindex.yaml (working directory or ~/.semindex/), then environment
// variables prefixed SEMINDEX_ (nested keys use underscores, e.g.
// SEMINDEX_CHUNKING_MAX_SIZE). A .env file in the working directory is
// folded into the environment before reading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`

	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Enrich    EnrichConfig    `mapstructure:"enrich"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Stats     StatsConfig     `mapstructure:"stats"`
}

// ChunkingConfig sizes chunks, in characters.
type ChunkingConfig struct {
	MinSize int `mapstructure:"min_size"`
	MaxSize int `mapstructure:"max_size"`
	Overlap int `mapstructure:"overlap"`
}

// EnrichConfig controls the enrichment worker pool.
type EnrichConfig struct {
	Workers        int `mapstructure:"workers"`
	BufferCapacity int `mapstructure:"buffer_capacity"`
}

// ScoringConfig tunes the semantic score blend: a base weight per chunk
// type, a bonus for content inside the size band, and a capped
// complexity bonus.
type ScoringConfig struct {
	ClassBase         float64 `mapstructure:"class_base"`
	InterfaceBase     float64 `mapstructure:"interface_base"`
	FunctionBase      float64 `mapstructure:"function_base"`
	MethodBase        float64 `mapstructure:"method_base"`
	TypeBase          float64 `mapstructure:"type_base"`
	BlockBase         float64 `mapstructure:"block_base"`
	DefaultBase       float64 `mapstructure:"default_base"`
	SizeFit           float64 `mapstructure:"size_fit"`
	ComplexityDivisor float64 `mapstructure:"complexity_divisor"`
	ComplexityCap     float64 `mapstructure:"complexity_cap"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	CacheSize int    `mapstructure:"cache_size"`
}

// MemoryConfig controls the heap governor.
type MemoryConfig struct {
	CeilingMB     int           `mapstructure:"ceiling_mb"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// StatsConfig bounds stats aggregation.
type StatsConfig struct {
	SampleSize int `mapstructure:"sample_size"`
}

// Load reads configuration with defaults, optional config file, and
// environment overrides.
func Load() (*Config, error) {
	// a missing .env is the normal case, not an error
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("semindex")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".semindex"))
	}

	v.SetEnvPrefix("SEMINDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// the key never belongs in a config file; environment only
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log_level", "info")

	v.SetDefault("chunking.min_size", 50)
	v.SetDefault("chunking.max_size", 1500)
	v.SetDefault("chunking.overlap", 50)

	v.SetDefault("enrich.workers", 4)
	v.SetDefault("enrich.buffer_capacity", 10)

	v.SetDefault("scoring.class_base", 1.0)
	v.SetDefault("scoring.interface_base", 0.9)
	v.SetDefault("scoring.function_base", 0.8)
	v.SetDefault("scoring.method_base", 0.7)
	v.SetDefault("scoring.type_base", 0.6)
	v.SetDefault("scoring.block_base", 0.5)
	v.SetDefault("scoring.default_base", 0.3)
	v.SetDefault("scoring.size_fit", 0.5)
	v.SetDefault("scoring.complexity_divisor", 20.0)
	v.SetDefault("scoring.complexity_cap", 0.5)

	v.SetDefault("embedding.provider", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.cache_size", 10000)

	v.SetDefault("memory.ceiling_mb", 1024)
	v.SetDefault("memory.check_interval", time.Minute)

	v.SetDefault("stats.sample_size", 1000)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".semindex"
	}
	return filepath.Join(home, ".semindex", "data")
}
