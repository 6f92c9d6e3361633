package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmind/semindex/internal/chunker"
	"github.com/devmind/semindex/internal/embedder"
	"github.com/devmind/semindex/internal/enricher"
	"github.com/devmind/semindex/internal/index"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	local, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	idx, err := index.New(index.Config{}, embedder.AsEmbeddingFunc(local), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = idx.Close()
	})

	return New(
		chunker.New(chunker.DefaultConfig()),
		enricher.New(enricher.Config{}, nil),
		idx,
		slog.Default(),
	)
}

func collect(ch <-chan ProgressEvent) []ProgressEvent {
	var events []ProgressEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestProcessFileEmitsProgress(t *testing.T) {
	s := newTestService(t)
	src := `def first():
    return 1

def second():
    return 2
`
	events := collect(s.ProcessFile(context.Background(), "mod.py", src, map[string]string{"repository": "r1"}))
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, StatusCompleted, last.Status)
	assert.Equal(t, 1.0, last.Progress)
	assert.Equal(t, 2, last.TotalChunks)

	var processing int
	prev := 0.0
	for _, ev := range events[:len(events)-1] {
		require.Equal(t, StatusProcessing, ev.Status)
		assert.NotEmpty(t, ev.ChunkID)
		assert.Greater(t, ev.Progress, prev)
		prev = ev.Progress
		processing++
	}
	assert.Equal(t, 2, processing)

	matches := s.Search(context.Background(), "def first", 5, index.SearchOptions{})
	require.NotEmpty(t, matches)
}

func TestProcessFileEmptyCompletesWithZeroChunks(t *testing.T) {
	s := newTestService(t)

	events := collect(s.ProcessFile(context.Background(), "empty.py", "", nil))
	require.Len(t, events, 1)
	assert.Equal(t, StatusCompleted, events[0].Status)
	assert.Equal(t, 0, events[0].TotalChunks)
	assert.Equal(t, 1.0, events[0].Progress)
}

func TestProcessFileCancelledContext(t *testing.T) {
	s := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := s.ProcessFile(ctx, "mod.py", "def f():\n    return 1\n", nil)
	events := collect(ch)
	// channel must close without a completed event
	for _, ev := range events {
		assert.NotEqual(t, StatusCompleted, ev.Status)
	}
}

func TestProcessRepository(t *testing.T) {
	s := newTestService(t)
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("def a():\n    return 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# Docs\n\nHello.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignore.bin"), []byte{0, 1, 2}, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg", "x.js"), []byte("var x = 1;"), 0o644))

	summary, err := s.ProcessRepository(context.Background(), root, "repo1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Files)
	assert.Greater(t, summary.Chunks, 0)
	assert.Empty(t, summary.FailedFiles)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary.Chunks, stats.TotalChunks)
	assert.Equal(t, summary.Chunks, stats.Repositories["repo1"])
	assert.Equal(t, 1, stats.DocChunks)
}

func TestDeleteRepository(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	collect(s.ProcessFile(ctx, "a.py", "def a():\n    return 1\n", map[string]string{"repository": "r1"}))
	collect(s.ProcessFile(ctx, "b.py", "def b():\n    return 2\n", map[string]string{"repository": "r2"}))

	n, err := s.DeleteRepository(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.NotContains(t, stats.Repositories, "r1")
	assert.Equal(t, 1, stats.Repositories["r2"])
}

func TestSearchDegradesToEmpty(t *testing.T) {
	s := newTestService(t)

	// empty query is an index error; the service answers with nothing
	matches := s.Search(context.Background(), "", 5, index.SearchOptions{})
	assert.Empty(t, matches)
}
