// Package pipeline wires chunking, enrichment and indexing into the
// operations the server exposes.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/devmind/semindex/internal/chunker"
	"github.com/devmind/semindex/internal/enricher"
	"github.com/devmind/semindex/internal/index"
	"github.com/devmind/semindex/pkg/types"
)

// Status tags a progress event.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// ProgressEvent reports per-chunk indexing progress. A completed or
// error event is terminal; nothing follows it on the channel.
type ProgressEvent struct {
	Status      Status
	ChunkID     string
	Progress    float64 // fraction of chunks stored, in [0,1]
	TotalChunks int
	Err         error
}

// Service runs the indexing pipeline.
type Service struct {
	chunker  *chunker.Chunker
	enricher *enricher.Enricher
	index    *index.Coordinator
	log      *slog.Logger
}

// New assembles the pipeline from its stages.
func New(chk *chunker.Chunker, enr *enricher.Enricher, idx *index.Coordinator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		chunker:  chk,
		enricher: enr,
		index:    idx,
		log:      logger,
	}
}

// ProcessFile chunks, enriches and stores one file, streaming progress
// on the returned channel. The channel closes after the terminal event.
// An empty file completes immediately with zero chunks.
func (s *Service) ProcessFile(ctx context.Context, filePath, content string, baseMeta map[string]string) <-chan ProgressEvent {
	events := make(chan ProgressEvent)

	go func() {
		defer close(events)

		send := func(ev ProgressEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		meta := make(map[string]string, len(baseMeta)+1)
		for k, v := range baseMeta {
			meta[k] = v
		}
		meta["file_path"] = filePath

		chunks := s.chunker.Chunk(filePath, content, meta)
		if len(chunks) == 0 {
			send(ProgressEvent{Status: StatusCompleted, Progress: 1, TotalChunks: 0})
			return
		}

		enriched, err := s.enricher.Enrich(ctx, chunks)
		if err != nil {
			send(ProgressEvent{Status: StatusError, Err: fmt.Errorf("enrichment failed: %w", err)})
			return
		}

		total := len(enriched)
		ids, upErr := s.index.UpsertBatch(ctx, enriched)
		for i, id := range ids {
			if !send(ProgressEvent{
				Status:      StatusProcessing,
				ChunkID:     id,
				Progress:    float64(i+1) / float64(total),
				TotalChunks: total,
			}) {
				return
			}
		}
		if upErr != nil {
			s.log.Error("chunk upsert failed",
				"file", filePath,
				"stored", len(ids),
				"error", upErr)
			send(ProgressEvent{Status: StatusError, Err: upErr, TotalChunks: total})
			return
		}

		s.log.Info("file indexed", "file", filePath, "chunks", total)
		send(ProgressEvent{Status: StatusCompleted, Progress: 1, TotalChunks: total})
	}()

	return events
}

// RepoSummary reports a directory walk.
type RepoSummary struct {
	Files       int      `json:"files"`
	Chunks      int      `json:"chunks"`
	FailedFiles []string `json:"failed_files,omitempty"`
}

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	".git":         true,
	"venv":         true,
	".venv":        true,
	"dist":         true,
	"build":        true,
}

// indexableExts are the file extensions worth feeding to the chunker.
var indexableExts = map[string]bool{
	".py": true, ".pyi": true,
	".ts": true, ".tsx": true,
	".js": true, ".jsx": true, ".mjs": true,
	".md": true, ".markdown": true,
}

// ProcessRepository walks a directory tree and indexes every supported
// file under the given repository tag. Unreadable or failing files are
// recorded in the summary and do not abort the walk.
func (s *Service) ProcessRepository(ctx context.Context, root, repository string) (*RepoSummary, error) {
	summary := &RepoSummary{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			name := d.Name()
			if skipDirs[name] || (strings.HasPrefix(name, ".") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		if !indexableExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			summary.FailedFiles = append(summary.FailedFiles, path)
			s.log.Warn("skipping unreadable file", "file", path, "error", err)
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		meta := map[string]string{"repository": repository}

		fileChunks := 0
		for ev := range s.ProcessFile(ctx, rel, string(data), meta) {
			switch ev.Status {
			case StatusError:
				summary.FailedFiles = append(summary.FailedFiles, path)
			case StatusCompleted:
				fileChunks = ev.TotalChunks
			}
		}
		summary.Files++
		summary.Chunks += fileChunks
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("walking %s: %w", root, err)
	}

	s.log.Info("repository indexed",
		"repository", repository,
		"files", summary.Files,
		"chunks", summary.Chunks,
		"failed", len(summary.FailedFiles))
	return summary, nil
}

// Search queries the index. Index failures degrade to an empty result
// with a logged error so callers always get an answer.
func (s *Service) Search(ctx context.Context, query string, limit int, opts index.SearchOptions) []types.Match {
	matches, err := s.index.Search(ctx, query, limit, opts)
	if err != nil {
		s.log.Error("search failed", "error", err)
		return nil
	}
	return matches
}

// DeleteRepository removes all indexed chunks for a repository tag and
// returns how many were deleted.
func (s *Service) DeleteRepository(ctx context.Context, repository string) (int, error) {
	return s.index.DeleteByRepository(ctx, repository)
}

// Stats reports index contents.
func (s *Service) Stats(ctx context.Context) (*index.Stats, error) {
	return s.index.Stats(ctx)
}
