package enricher

import (
	"github.com/devmind/semindex/pkg/types"
)

// ScoreWeights tunes semantic scoring. Zero values mean "use defaults";
// loaders that want a different blend set fields explicitly.
type ScoreWeights struct {
	TypeBase          map[types.ChunkType]float64
	DefaultBase       float64
	SizeFit           float64
	ComplexityDivisor float64
	ComplexityCap     float64
}

// DefaultScoreWeights returns the standard blend. Classes score highest,
// bare blocks lowest.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		TypeBase: map[types.ChunkType]float64{
			types.ChunkClass:     1.0,
			types.ChunkInterface: 0.9,
			types.ChunkFunction:  0.8,
			types.ChunkMethod:    0.7,
			types.ChunkTypeDecl:  0.6,
			types.ChunkBlock:     0.5,
		},
		DefaultBase:       0.3,
		SizeFit:           0.5,
		ComplexityDivisor: 20,
		ComplexityCap:     0.5,
	}
}

func (w ScoreWeights) base(t types.ChunkType) float64 {
	if v, ok := w.TypeBase[t]; ok {
		return v
	}
	return w.DefaultBase
}

// score computes the semantic score for a chunk whose Complexity is
// already populated.
func (w ScoreWeights) score(c *types.Chunk, minSize, maxSize int) float64 {
	s := w.base(c.ChunkType)
	if n := len(c.Content); n >= minSize && n <= maxSize {
		s += w.SizeFit
	}
	bonus := float64(c.Complexity) / w.ComplexityDivisor
	if bonus > w.ComplexityCap {
		bonus = w.ComplexityCap
	}
	s += bonus
	if s > 1.0 {
		s = 1.0
	}
	return s
}
