package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by NewFromEnv.
const (
	EnvProvider     = "SEMINDEX_EMBEDDING_PROVIDER"
	EnvModel        = "SEMINDEX_EMBEDDING_MODEL"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Config holds embedder construction parameters.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	CacheSize int
}

// New creates an embedder from explicit configuration.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize != 0 {
		cache = NewCache(cfg.CacheSize)
	} else {
		cache = NewCache(0)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cache)
	case ProviderLocal, "":
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// NewFromEnv creates an embedder from environment variables. An explicit
// provider wins; otherwise an OpenAI key selects the API provider and
// the local provider is the fallback.
func NewFromEnv() (Embedder, error) {
	cfg := Config{
		Provider: os.Getenv(EnvProvider),
		Model:    os.Getenv(EnvModel),
		APIKey:   os.Getenv(EnvOpenAIAPIKey),
	}
	if cfg.Provider == "" && cfg.APIKey != "" {
		cfg.Provider = ProviderOpenAI
	}
	return New(cfg)
}

// DetectProvider reports which provider NewFromEnv would pick.
func DetectProvider() string {
	if p := os.Getenv(EnvProvider); p != "" {
		return strings.ToLower(p)
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}
