package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/devmind/semindex/pkg/types"
)

// Collection names.
const (
	CollectionCode = "code_chunks"
	CollectionDocs = "documentation"
	CollectionMeta = "chunk_metadata"
)

const (
	// MaxSearchLimit caps how many matches one query may return.
	MaxSearchLimit = 20

	// maxContentChars caps stored document content.
	maxContentChars = 8000
	truncationMark  = "... [truncated]"

	// maxQueryChars caps the query text fed to the embedder.
	maxQueryChars = 1000

	defaultStatsSample = 1000

	// upsertSubBatch bounds how many chunks a batch stores between
	// reclamation checkpoints.
	upsertSubBatch    = 50
	reclaimSubBatches = 4
)

// Config controls coordinator construction.
type Config struct {
	// DataDir holds the persistent vector store and registry. Empty
	// means fully in-memory, which tests rely on.
	DataDir string

	// StatsSampleSize bounds the rows aggregated for Stats.
	StatsSampleSize int
}

// Stats summarizes index contents.
type Stats struct {
	TotalChunks      int            `json:"total_chunks"`
	CodeChunks       int            `json:"code_chunks"`
	DocChunks        int            `json:"doc_chunks"`
	MetaRecords      int            `json:"meta_records"`
	Repositories     map[string]int `json:"repositories"`
	Languages        map[string]int `json:"languages"`
	AvgSemanticScore float64        `json:"avg_semantic_score"`
	SampleSize       int            `json:"sample_size"`
	BuildMode        string         `json:"build_mode"`
}

// Coordinator owns the vector collections and their registry.
type Coordinator struct {
	db       *chromem.DB
	code     *chromem.Collection
	docs     *chromem.Collection
	meta     *chromem.Collection
	registry *Registry
	cfg      Config
	log      *slog.Logger

	// now is swappable for tests
	now func() time.Time
}

// New opens the vector store and registry. A nil embedding function is
// rejected; every collection shares the same one.
func New(cfg Config, embed chromem.EmbeddingFunc, logger *slog.Logger) (*Coordinator, error) {
	if embed == nil {
		return nil, fmt.Errorf("embedding function is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StatsSampleSize <= 0 {
		cfg.StatsSampleSize = defaultStatsSample
	}

	var db *chromem.DB
	registryPath := ":memory:"
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		var err error
		db, err = chromem.NewPersistentDB(filepath.Join(cfg.DataDir, "vectors"), true)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector store: %w", err)
		}
		registryPath = filepath.Join(cfg.DataDir, "registry.db")
	} else {
		db = chromem.NewDB()
	}

	code, err := db.GetOrCreateCollection(CollectionCode, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", CollectionCode, err)
	}
	docs, err := db.GetOrCreateCollection(CollectionDocs, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", CollectionDocs, err)
	}
	meta, err := db.GetOrCreateCollection(CollectionMeta, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", CollectionMeta, err)
	}

	registry, err := NewRegistry(registryPath)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		db:       db,
		code:     code,
		docs:     docs,
		meta:     meta,
		registry: registry,
		cfg:      cfg,
		log:      logger,
		now:      time.Now,
	}, nil
}

// Close releases the registry connection.
func (c *Coordinator) Close() error {
	return c.registry.Close()
}

// Upsert stores one enriched chunk and returns its content-addressed ID.
// Markup chunks go to the documentation collection, everything else to
// code_chunks. Non-empty imports or dependencies produce a companion
// record in the metadata collection. Re-upserting identical content keeps
// the original indexed_at stamp, so the stored payload does not change.
func (c *Coordinator) Upsert(ctx context.Context, chunk *types.Chunk) (string, error) {
	if err := chunk.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrIndexWrite, err)
	}

	id := types.ChunkID(chunk)
	content := chunk.Content
	if len(content) > maxContentChars {
		content = content[:maxContentChars] + truncationMark
	}

	col := c.code
	colName := CollectionCode
	if chunk.Language == types.LangMarkdown {
		col = c.docs
		colName = CollectionDocs
	}

	indexedAt := c.now().UTC().Format(time.RFC3339)
	if existing, err := col.GetByID(ctx, id); err == nil {
		if prev := existing.Metadata["indexed_at"]; prev != "" {
			indexedAt = prev
		}
	}
	meta := documentMetadata(chunk, indexedAt)
	if err := col.AddDocument(ctx, chromem.Document{
		ID:       id,
		Metadata: meta,
		Content:  content,
	}); err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrIndexWrite, err)
	}

	hasMeta := len(chunk.Imports) > 0 || len(chunk.Dependencies) > 0
	if hasMeta {
		payload, err := json.Marshal(types.MetadataRecord{
			Imports:      chunk.Imports,
			Dependencies: chunk.Dependencies,
		})
		if err != nil {
			return "", fmt.Errorf("%w: %v", types.ErrIndexWrite, err)
		}
		if err := c.meta.AddDocument(ctx, chromem.Document{
			ID: types.MetadataID(id),
			Metadata: map[string]string{
				"chunk_id":   id,
				"repository": chunk.Metadata["repository"],
			},
			Content: string(payload),
		}); err != nil {
			return "", fmt.Errorf("%w: %v", types.ErrIndexWrite, err)
		}
	}

	if err := c.registry.Upsert(ctx, ChunkRecord{
		ID:            id,
		Collection:    colName,
		Repository:    chunk.Metadata["repository"],
		FilePath:      chunk.Metadata["file_path"],
		ChunkType:     string(chunk.ChunkType),
		Language:      string(chunk.Language),
		SemanticScore: chunk.SemanticScore,
		Complexity:    chunk.Complexity,
		SizeBytes:     len(chunk.Content),
		StartLine:     chunk.StartLine,
		EndLine:       chunk.EndLine,
		HasMeta:       hasMeta,
		IndexedAt:     c.now(),
	}); err != nil {
		return "", err
	}
	return id, nil
}

// UpsertBatch stores chunks in order and returns their IDs. Storage
// proceeds in bounded sub-batches with a reclamation pass every few
// sub-batches, keeping the peak footprint of a large batch flat. The
// first failure aborts the batch; already-stored chunks stay stored.
func (c *Coordinator) UpsertBatch(ctx context.Context, chunks []types.Chunk) ([]string, error) {
	ids := make([]string, 0, len(chunks))
	for start := 0; start < len(chunks); start += upsertSubBatch {
		end := min(start+upsertSubBatch, len(chunks))
		for i := start; i < end; i++ {
			id, err := c.Upsert(ctx, &chunks[i])
			if err != nil {
				return ids, fmt.Errorf("chunk %d: %w", i, err)
			}
			ids = append(ids, id)
		}
		if sub := start/upsertSubBatch + 1; sub%reclaimSubBatches == 0 && end < len(chunks) {
			runtime.GC()
		}
	}
	return ids, nil
}

// SearchOptions narrow a query.
type SearchOptions struct {
	// Documentation searches the documentation collection instead of
	// code_chunks.
	Documentation bool

	// Where filters on exact metadata values (repository, language,
	// chunk_type).
	Where map[string]string

	// IncludeMetadata joins imports and dependencies from the side
	// collection into each match.
	IncludeMetadata bool
}

// Search embeds the query and returns the closest matches, ascending by
// distance. The limit is clamped to MaxSearchLimit and to the collection
// population; an empty collection yields no matches and no error.
func (c *Coordinator) Search(ctx context.Context, query string, limit int, opts SearchOptions) ([]types.Match, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", types.ErrIndexRead)
	}
	if len(query) > maxQueryChars {
		query = query[:maxQueryChars]
	}
	if limit <= 0 || limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	col := c.code
	if opts.Documentation {
		col = c.docs
	}
	if n := col.Count(); n == 0 {
		return nil, nil
	} else if limit > n {
		limit = n
	}

	results, err := col.Query(ctx, query, limit, opts.Where, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrIndexRead, err)
	}

	matches := make([]types.Match, 0, len(results))
	for _, res := range results {
		m := types.Match{
			ID:       res.ID,
			Content:  res.Content,
			Metadata: res.Metadata,
			Distance: 1 - float64(res.Similarity),
		}
		if opts.IncludeMetadata {
			if imports, deps, ok := c.lookupMetadata(ctx, res.ID); ok {
				m.Imports = imports
				m.Dependencies = deps
			}
		}
		matches = append(matches, m)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches, nil
}

// lookupMetadata fetches the companion imports/dependencies record. A
// missing or malformed companion is not an error; the match just goes
// out without enrichment.
func (c *Coordinator) lookupMetadata(ctx context.Context, chunkID string) ([]string, []string, bool) {
	doc, err := c.meta.GetByID(ctx, types.MetadataID(chunkID))
	if err != nil {
		return nil, nil, false
	}
	var rec types.MetadataRecord
	if err := json.Unmarshal([]byte(doc.Content), &rec); err != nil {
		c.log.Warn("malformed metadata record", "chunk_id", chunkID, "error", err)
		return nil, nil, false
	}
	return rec.Imports, rec.Dependencies, true
}

// DeleteByRepository removes every document tagged with the repository
// from all three collections and returns how many primary chunks were
// deleted. Companion records go first so a partial failure never leaves
// a companion pointing at a missing chunk.
func (c *Coordinator) DeleteByRepository(ctx context.Context, repository string) (int, error) {
	records, err := c.registry.ListByRepository(ctx, repository)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	var metaIDs, codeIDs, docIDs []string
	for _, rec := range records {
		if rec.HasMeta {
			metaIDs = append(metaIDs, types.MetadataID(rec.ID))
		}
		if rec.Collection == CollectionDocs {
			docIDs = append(docIDs, rec.ID)
		} else {
			codeIDs = append(codeIDs, rec.ID)
		}
	}

	if len(metaIDs) > 0 {
		if err := c.meta.Delete(ctx, nil, nil, metaIDs...); err != nil {
			return 0, fmt.Errorf("%w: deleting metadata records: %v", types.ErrIndexWrite, err)
		}
	}
	if len(codeIDs) > 0 {
		if err := c.code.Delete(ctx, nil, nil, codeIDs...); err != nil {
			return 0, fmt.Errorf("%w: deleting code chunks: %v", types.ErrIndexWrite, err)
		}
	}
	if len(docIDs) > 0 {
		if err := c.docs.Delete(ctx, nil, nil, docIDs...); err != nil {
			return 0, fmt.Errorf("%w: deleting documentation chunks: %v", types.ErrIndexWrite, err)
		}
	}

	if _, err := c.registry.DeleteByRepository(ctx, repository); err != nil {
		return 0, err
	}

	c.log.Info("repository deleted from index",
		"repository", repository,
		"chunks", len(records))
	return len(records), nil
}

// Stats reports collection populations plus sampled aggregates from the
// registry.
func (c *Coordinator) Stats(ctx context.Context) (*Stats, error) {
	repos, err := c.registry.RepositoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	avg, languages, err := c.registry.SampleStats(ctx, c.cfg.StatsSampleSize)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalChunks:      c.code.Count() + c.docs.Count(),
		CodeChunks:       c.code.Count(),
		DocChunks:        c.docs.Count(),
		MetaRecords:      c.meta.Count(),
		Repositories:     repos,
		Languages:        languages,
		AvgSemanticScore: avg,
		SampleSize:       c.cfg.StatsSampleSize,
		BuildMode:        BuildMode,
	}, nil
}

// documentMetadata flattens a chunk into the string map stored beside
// the vector.
func documentMetadata(chunk *types.Chunk, indexedAt string) map[string]string {
	meta := make(map[string]string, len(chunk.Metadata)+7)
	for k, v := range chunk.Metadata {
		meta[k] = v
	}
	meta["chunk_type"] = string(chunk.ChunkType)
	meta["language"] = string(chunk.Language)
	meta["semantic_score"] = strconv.FormatFloat(chunk.SemanticScore, 'f', 4, 64)
	meta["complexity"] = strconv.Itoa(chunk.Complexity)
	meta["start_line"] = strconv.Itoa(chunk.StartLine)
	meta["end_line"] = strconv.Itoa(chunk.EndLine)
	meta["indexed_at"] = indexedAt
	return meta
}
