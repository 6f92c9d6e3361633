package index

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmind/semindex/internal/embedder"
	"github.com/devmind/semindex/pkg/types"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	local, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	c, err := New(Config{}, embedder.AsEmbeddingFunc(local), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

func codeChunk(content, repo string) types.Chunk {
	return types.Chunk{
		Content:       content,
		StartLine:     1,
		EndLine:       3,
		ChunkType:     types.ChunkFunction,
		Language:      types.LangPython,
		SemanticScore: 0.8,
		Complexity:    2,
		Metadata: map[string]string{
			"repository": repo,
			"file_path":  "src/mod.py",
		},
	}
}

func TestUpsertIdempotentID(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	chunk := codeChunk("def f():\n    return 1\n", "r1")
	id1, err := c.Upsert(ctx, &chunk)
	require.NoError(t, err)
	id2, err := c.Upsert(ctx, &chunk)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, types.ChunkID(&chunk), id1)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CodeChunks)
	assert.Equal(t, 1, stats.TotalChunks)
}

func TestUpsertKeepsIndexedAt(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	chunk := codeChunk("def f():\n    return 1\n", "r1")
	id, err := c.Upsert(ctx, &chunk)
	require.NoError(t, err)

	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = c.Upsert(ctx, &chunk)
	require.NoError(t, err)

	doc, err := c.code.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, base.Format(time.RFC3339), doc.Metadata["indexed_at"])
}

func TestUpsertBatch(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	chunks := []types.Chunk{
		codeChunk("def a():\n    return 1\n", "r1"),
		codeChunk("def b():\n    return 2\n", "r1"),
		codeChunk("def c():\n    return 3\n", "r1"),
	}
	ids, err := c.UpsertBatch(ctx, chunks)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	for i := range chunks {
		assert.Equal(t, types.ChunkID(&chunks[i]), ids[i])
	}

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CodeChunks)
}

func TestUpsertBatchAbortsOnInvalidChunk(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	chunks := []types.Chunk{
		codeChunk("def ok():\n    return 1\n", "r1"),
		{Content: "", StartLine: 1, EndLine: 1},
		codeChunk("def never():\n    return 2\n", "r1"),
	}
	ids, err := c.UpsertBatch(ctx, chunks)
	require.ErrorIs(t, err, types.ErrIndexWrite)
	assert.Len(t, ids, 1)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CodeChunks)
}

func TestUpsertRejectsInvalidChunk(t *testing.T) {
	c := newTestCoordinator(t)

	bad := types.Chunk{Content: "", StartLine: 1, EndLine: 1}
	_, err := c.Upsert(context.Background(), &bad)
	assert.ErrorIs(t, err, types.ErrIndexWrite)
}

func TestUpsertRoutesMarkdownToDocs(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	md := types.Chunk{
		Content:   "# Install\n\nRun the installer.\n",
		StartLine: 1,
		EndLine:   3,
		ChunkType: types.ChunkBlock,
		Language:  types.LangMarkdown,
		Metadata:  map[string]string{"repository": "r1"},
	}
	_, err := c.Upsert(ctx, &md)
	require.NoError(t, err)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CodeChunks)
	assert.Equal(t, 1, stats.DocChunks)

	matches, err := c.Search(ctx, "how to install", 5, SearchOptions{Documentation: true})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Content, "Run the installer.")
}

func TestUpsertCompanionMetadata(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	chunk := codeChunk("import os\n\ndef f():\n    return os.sep\n", "r1")
	chunk.Imports = []string{"os"}
	chunk.Dependencies = []string{"helper"}

	id, err := c.Upsert(ctx, &chunk)
	require.NoError(t, err)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MetaRecords)

	matches, err := c.Search(ctx, "os separator", 5, SearchOptions{IncludeMetadata: true})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, id, matches[0].ID)
	assert.Equal(t, []string{"os"}, matches[0].Imports)
	assert.Equal(t, []string{"helper"}, matches[0].Dependencies)

	// without the opt-in the join is skipped
	matches, err = c.Search(ctx, "os separator", 5, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Nil(t, matches[0].Imports)
	assert.Nil(t, matches[0].Dependencies)
}

func TestUpsertNoCompanionWithoutImports(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	chunk := codeChunk("x = 1\n", "r1")
	_, err := c.Upsert(ctx, &chunk)
	require.NoError(t, err)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.MetaRecords)
}

func TestSearchEmptyIndex(t *testing.T) {
	c := newTestCoordinator(t)

	matches, err := c.Search(context.Background(), "anything", 10, SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchEmptyQuery(t *testing.T) {
	c := newTestCoordinator(t)

	_, err := c.Search(context.Background(), "", 10, SearchOptions{})
	assert.ErrorIs(t, err, types.ErrIndexRead)
}

func TestSearchClampsLimitAndOrders(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	contents := []string{
		"def alpha():\n    return 1\n",
		"def beta():\n    return 2\n",
		"def gamma():\n    return 3\n",
	}
	for _, content := range contents {
		chunk := codeChunk(content, "r1")
		_, err := c.Upsert(ctx, &chunk)
		require.NoError(t, err)
	}

	// limit far above both the cap and the population
	matches, err := c.Search(ctx, "def alpha", 500, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, matches, len(contents))

	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i-1].Distance, matches[i].Distance)
	}
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Distance, -1e-6)
		assert.LessOrEqual(t, m.Distance, 2.0)
	}
}

func TestSearchTruncatesLongQuery(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	chunk := codeChunk("def f():\n    return 1\n", "r1")
	_, err := c.Upsert(ctx, &chunk)
	require.NoError(t, err)

	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'q'
	}
	matches, err := c.Search(ctx, string(long), 5, SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestUpsertTruncatesOversizedContent(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	big := make([]byte, maxContentChars+500)
	for i := range big {
		big[i] = 'x'
	}
	chunk := codeChunk(string(big), "r1")
	_, err := c.Upsert(ctx, &chunk)
	require.NoError(t, err)

	matches, err := c.Search(ctx, "xxxx", 5, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Len(t, matches[0].Content, maxContentChars+len(truncationMark))
	assert.Contains(t, matches[0].Content, truncationMark)
}

func TestDeleteByRepository(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	keep := codeChunk("def kept():\n    return 1\n", "keep")
	_, err := c.Upsert(ctx, &keep)
	require.NoError(t, err)

	gone1 := codeChunk("def gone_one():\n    return 2\n", "gone")
	gone1.Imports = []string{"os"}
	_, err = c.Upsert(ctx, &gone1)
	require.NoError(t, err)

	gone2 := types.Chunk{
		Content:   "# Removed docs\n",
		StartLine: 1,
		EndLine:   1,
		ChunkType: types.ChunkBlock,
		Language:  types.LangMarkdown,
		Metadata:  map[string]string{"repository": "gone"},
	}
	_, err = c.Upsert(ctx, &gone2)
	require.NoError(t, err)

	n, err := c.DeleteByRepository(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalChunks)
	assert.Equal(t, 0, stats.DocChunks)
	assert.Equal(t, 0, stats.MetaRecords)
	assert.NotContains(t, stats.Repositories, "gone")
	assert.Equal(t, 1, stats.Repositories["keep"])

	matches, err := c.Search(ctx, "kept", 5, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Content, "def kept")
}

func TestDeleteUnknownRepository(t *testing.T) {
	c := newTestCoordinator(t)

	n, err := c.DeleteByRepository(context.Background(), "nope")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStats(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	for _, content := range []string{"def a():\n    pass\n", "def b():\n    pass\n"} {
		chunk := codeChunk(content, "r1")
		_, err := c.Upsert(ctx, &chunk)
		require.NoError(t, err)
	}

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 2, stats.Languages["python"])
	assert.InDelta(t, 0.8, stats.AvgSemanticScore, 1e-6)
	assert.Equal(t, BuildMode, stats.BuildMode)
	assert.Positive(t, stats.SampleSize)
}

func TestRegistryPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	reg, err := NewRegistry(dir + "/registry.db")
	require.NoError(t, err)

	err = reg.Upsert(context.Background(), ChunkRecord{
		ID:         "c_1",
		Collection: CollectionCode,
		Repository: "r1",
		ChunkType:  "function",
		Language:   "python",
		StartLine:  1,
		EndLine:    2,
	})
	require.NoError(t, err)
	require.NoError(t, reg.Close())

	reg, err = NewRegistry(dir + "/registry.db")
	require.NoError(t, err)
	defer func() {
		_ = reg.Close()
	}()

	n, err := reg.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := reg.ListByRepository(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c_1", records[0].ID)
}
