package embedder

import (
	"context"
	"crypto/sha256"
	"fmt"
)

const (
	ProviderLocal  = "local"
	LocalDimension = 384
	localModelName = "hash-fold"
)

// LocalProvider produces deterministic vectors from a content hash. It
// needs no network or API key, which makes it the default for tests and
// offline indexing; nearby texts do not get nearby vectors, so search
// quality is whatever exact-match plus chance gives.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates the offline embedder.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{cache: cache}, nil
}

func (l *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	hash := ComputeHash(text)
	if l.cache != nil {
		if v, ok := l.cache.Get(hash); ok {
			return v, nil
		}
	}

	// fold repeated hashing into the full dimension
	vector := make([]float32, LocalDimension)
	seed := []byte(text)
	for i := 0; i < LocalDimension; {
		digest := sha256.Sum256(seed)
		for _, b := range digest {
			if i >= LocalDimension {
				break
			}
			vector[i] = float32(b)/127.5 - 1.0
			i++
		}
		seed = digest[:]
	}
	vector = Normalize(vector)

	if l.cache != nil {
		l.cache.Set(hash, vector)
	}
	return vector, nil
}

func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := l.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return localModelName
}

func (l *LocalProvider) Close() error {
	return nil
}
