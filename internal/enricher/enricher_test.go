package enricher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmind/semindex/pkg/types"
)

func pyChunk(content string, ct types.ChunkType) types.Chunk {
	return types.Chunk{
		Content:   content,
		StartLine: 1,
		EndLine:   1 + countLines(content),
		ChunkType: ct,
		Language:  types.LangPython,
		Metadata:  map[string]string{"strategy": "structural"},
	}
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}

func TestEnrichPreservesOrder(t *testing.T) {
	e := New(Config{Workers: 3, BufferCapacity: 2}, nil)

	var chunks []types.Chunk
	for i := 0; i < 20; i++ {
		chunks = append(chunks, pyChunk("def f():\n    return 1\n", types.ChunkFunction))
		chunks[i].StartLine = i + 1
	}

	out, err := e.Enrich(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, out, len(chunks))
	for i, ch := range out {
		assert.Equal(t, i+1, ch.StartLine)
		assert.Greater(t, ch.SemanticScore, 0.0)
	}
}

func TestEnrichPythonAnalysis(t *testing.T) {
	src := `import json

def load(path):
    with open(path) as f:
        if path:
            return json.load(f)
    return None
`
	e := New(Config{}, nil)
	out, err := e.Enrich(context.Background(), []types.Chunk{pyChunk(src, types.ChunkFunction)})
	require.NoError(t, err)
	require.Len(t, out, 1)

	c := out[0]
	assert.Contains(t, c.Imports, "json")
	assert.Greater(t, c.Complexity, 0)
	assert.Equal(t, "structural", c.Metadata["strategy"])
	assert.Equal(t, "false", c.Metadata["is_async"])
	assert.InDelta(t, 1.0, c.SemanticScore, 0.3)
}

func TestEnrichScoreRange(t *testing.T) {
	e := New(Config{}, nil)

	chunks := []types.Chunk{
		pyChunk("x = 1", types.ChunkBlock),
		pyChunk("class Big:\n    def m(self):\n        if True:\n            pass\n", types.ChunkClass),
	}
	out, err := e.Enrich(context.Background(), chunks)
	require.NoError(t, err)

	for _, c := range out {
		assert.GreaterOrEqual(t, c.SemanticScore, 0.0)
		assert.LessOrEqual(t, c.SemanticScore, 1.0)
	}
	// class base weight dominates the bare block
	assert.Greater(t, out[1].SemanticScore, out[0].SemanticScore)
}

func TestEnrichUnparsableDegradesGracefully(t *testing.T) {
	e := New(Config{}, nil)
	out, err := e.Enrich(context.Background(), []types.Chunk{pyChunk("def broken(:\n", types.ChunkFunction)})
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Zero(t, out[0].Complexity)
	assert.Empty(t, out[0].Imports)
	assert.Greater(t, out[0].SemanticScore, 0.0)
}

func TestEnrichUnknownLanguage(t *testing.T) {
	e := New(Config{}, nil)
	ch := types.Chunk{
		Content:   "opaque bytes",
		StartLine: 1,
		EndLine:   1,
		ChunkType: types.ChunkBlock,
		Language:  types.LangUnknown,
	}
	out, err := e.Enrich(context.Background(), []types.Chunk{ch})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Imports)
	assert.Empty(t, out[0].Dependencies)
}

func TestEnrichCancelledContext(t *testing.T) {
	e := New(Config{Workers: 1, BufferCapacity: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var chunks []types.Chunk
	for i := 0; i < 100; i++ {
		chunks = append(chunks, pyChunk("def f():\n    return 1\n", types.ChunkFunction))
	}
	_, err := e.Enrich(ctx, chunks)
	assert.Error(t, err)
}

func TestEnrichEmptyInput(t *testing.T) {
	e := New(Config{}, nil)
	out, err := e.Enrich(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestScoreWeights(t *testing.T) {
	w := DefaultScoreWeights()

	block := &types.Chunk{Content: "tiny", ChunkType: types.ChunkBlock}
	assert.InDelta(t, 0.5, w.score(block, 50, 1500), 1e-9)

	fn := &types.Chunk{Content: string(make([]byte, 100)), ChunkType: types.ChunkFunction, Complexity: 4}
	// 0.8 base + 0.5 size fit + 0.2 complexity, clamped
	assert.InDelta(t, 1.0, w.score(fn, 50, 1500), 1e-9)

	unknown := &types.Chunk{Content: "x", ChunkType: types.ChunkType("weird")}
	assert.InDelta(t, 0.3, w.score(unknown, 50, 1500), 1e-9)
}
