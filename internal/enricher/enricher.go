package enricher

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/devmind/semindex/internal/language"
	"github.com/devmind/semindex/pkg/types"
)

const (
	DefaultWorkers        = 4
	DefaultBufferCapacity = 10
)

// Config controls the worker pool and scoring.
type Config struct {
	Workers        int
	BufferCapacity int
	// MinSize and MaxSize define the band that earns the size-fit bonus.
	MinSize int
	MaxSize int
	Weights ScoreWeights
}

// Enricher analyzes chunks and assigns semantic scores.
type Enricher struct {
	cfg      Config
	registry *language.Registry
	log      *slog.Logger
}

// New creates an Enricher. Zero config fields fall back to defaults.
func New(cfg Config, logger *slog.Logger) *Enricher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.BufferCapacity <= 0 {
		cfg.BufferCapacity = DefaultBufferCapacity
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = 50
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1500
	}
	if cfg.Weights.TypeBase == nil {
		cfg.Weights = DefaultScoreWeights()
	}
	if cfg.Weights.ComplexityDivisor <= 0 {
		cfg.Weights.ComplexityDivisor = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		cfg:      cfg,
		registry: language.NewRegistry(),
		log:      logger,
	}
}

// Enrich analyzes every chunk in parallel and returns the enriched
// chunks in the same order as the input. The only error is context
// cancellation; per-chunk failures degrade that chunk instead.
func (e *Enricher) Enrich(ctx context.Context, chunks []types.Chunk) ([]types.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	out := make([]types.Chunk, len(chunks))
	jobs := make(chan int, e.cfg.BufferCapacity)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < e.cfg.Workers; w++ {
		g.Go(func() error {
			for idx := range jobs {
				out[idx] = e.enrichOne(chunks[idx])
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		for i := range chunks {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// enrichOne never lets a strategy panic escape the worker: the chunk
// falls back to a degraded copy with a type-only score.
func (e *Enricher) enrichOne(c types.Chunk) (result types.Chunk) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("chunk analysis panicked, degrading",
				"chunk_type", string(c.ChunkType),
				"start_line", c.StartLine,
				"panic", r)
			result = e.degrade(c)
		}
	}()

	enriched := *c.Clone()

	var analysis types.Analysis
	if strat := e.registry.For(c.Language); strat != nil {
		analysis = strat.AnalyzeStructure(c.Content)
	} else {
		analysis = types.Unparsed()
	}

	enriched.Imports = analysis.Imports
	enriched.Dependencies = analysis.Dependencies
	enriched.Complexity = analysis.Complexity
	if len(analysis.Flags) > 0 {
		if enriched.Metadata == nil {
			enriched.Metadata = make(map[string]string, len(analysis.Flags))
		}
		for k, v := range analysis.Flags {
			enriched.Metadata[k] = v
		}
	}
	enriched.SemanticScore = e.cfg.Weights.score(&enriched, e.cfg.MinSize, e.cfg.MaxSize)
	return enriched
}

func (e *Enricher) degrade(c types.Chunk) types.Chunk {
	d := *c.Clone()
	d.Complexity = 0
	d.SemanticScore = e.cfg.Weights.score(&d, e.cfg.MinSize, e.cfg.MaxSize)
	if d.Metadata == nil {
		d.Metadata = make(map[string]string, 1)
	}
	d.Metadata["degraded"] = "true"
	return d
}
