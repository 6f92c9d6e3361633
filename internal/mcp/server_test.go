package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmind/semindex/internal/chunker"
	"github.com/devmind/semindex/internal/embedder"
	"github.com/devmind/semindex/internal/enricher"
	"github.com/devmind/semindex/internal/index"
	"github.com/devmind/semindex/internal/pipeline"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	local, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	idx, err := index.New(index.Config{}, embedder.AsEmbeddingFunc(local), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = idx.Close()
	})

	service := pipeline.New(
		chunker.New(chunker.DefaultConfig()),
		enricher.New(enricher.Config{}, nil),
		idx,
		slog.Default(),
	)
	return NewServer(service, slog.Default())
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func writeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"),
		[]byte("def handler(event):\n    return event\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"),
		[]byte("# App\n\nHandles events.\n"), 0o644))
	return root
}

func TestHandleIndexRepository(t *testing.T) {
	s := newTestServer(t)
	root := writeRepo(t)

	res, err := s.handleIndexRepository(context.Background(), callRequest(map[string]interface{}{
		"path":       root,
		"repository": "app",
	}))
	require.NoError(t, err)

	payload := resultJSON(t, res)
	assert.Equal(t, true, payload["indexed"])
	assert.Equal(t, "app", payload["repository"])
	assert.Equal(t, float64(2), payload["files"])
	assert.Greater(t, payload["chunks"].(float64), 0.0)
}

func TestHandleIndexRepositoryValidation(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleIndexRepository(context.Background(), callRequest(map[string]interface{}{}))
	require.Error(t, err)

	_, err = s.handleIndexRepository(context.Background(), callRequest(map[string]interface{}{
		"path": "relative/path",
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodePathInvalid, mcpErr.Code)

	_, err = s.handleIndexRepository(context.Background(), callRequest(map[string]interface{}{
		"path": "/definitely/not/a/real/dir",
	}))
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodePathInvalid, mcpErr.Code)
}

func TestHandleSearchCode(t *testing.T) {
	s := newTestServer(t)
	root := writeRepo(t)

	_, err := s.handleIndexRepository(context.Background(), callRequest(map[string]interface{}{
		"path": root,
	}))
	require.NoError(t, err)

	res, err := s.handleSearchCode(context.Background(), callRequest(map[string]interface{}{
		"query": "def handler",
		"limit": float64(5),
	}))
	require.NoError(t, err)

	payload := resultJSON(t, res)
	assert.Equal(t, "def handler", payload["query"])
	assert.Greater(t, payload["count"].(float64), 0.0)

	results := payload["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.NotEmpty(t, first["id"])
	assert.NotEmpty(t, first["content"])
	// without the opt-in no metadata join happens
	assert.NotContains(t, first, "dependencies")

	res, err = s.handleSearchCode(context.Background(), callRequest(map[string]interface{}{
		"query":            "def handler",
		"limit":            float64(5),
		"include_metadata": true,
	}))
	require.NoError(t, err)

	payload = resultJSON(t, res)
	results = payload["results"].([]interface{})
	first = results[0].(map[string]interface{})
	assert.Contains(t, first["dependencies"], "event")
}

func TestHandleSearchCodeValidation(t *testing.T) {
	s := newTestServer(t)

	var mcpErr *MCPError
	_, err := s.handleSearchCode(context.Background(), callRequest(map[string]interface{}{}))
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)

	_, err = s.handleSearchCode(context.Background(), callRequest(map[string]interface{}{
		"query": "x",
		"limit": float64(50),
	}))
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleDeleteRepository(t *testing.T) {
	s := newTestServer(t)
	root := writeRepo(t)

	_, err := s.handleIndexRepository(context.Background(), callRequest(map[string]interface{}{
		"path":       root,
		"repository": "doomed",
	}))
	require.NoError(t, err)

	res, err := s.handleDeleteRepository(context.Background(), callRequest(map[string]interface{}{
		"repository": "doomed",
	}))
	require.NoError(t, err)

	payload := resultJSON(t, res)
	assert.Equal(t, "doomed", payload["repository"])
	assert.Greater(t, payload["deleted_chunks"].(float64), 0.0)

	_, err = s.handleDeleteRepository(context.Background(), callRequest(map[string]interface{}{}))
	assert.Error(t, err)
}

func TestHandleGetStats(t *testing.T) {
	s := newTestServer(t)
	root := writeRepo(t)

	_, err := s.handleIndexRepository(context.Background(), callRequest(map[string]interface{}{
		"path": root,
	}))
	require.NoError(t, err)

	res, err := s.handleGetStats(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)

	payload := resultJSON(t, res)
	assert.Greater(t, payload["total_chunks"].(float64), 0.0)
	assert.NotEmpty(t, payload["build_mode"])
	repos := payload["repositories"].(map[string]interface{})
	assert.NotEmpty(t, repos)
}
