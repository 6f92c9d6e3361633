package index

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ChunkRecord is one registry row mirroring a stored vector document.
type ChunkRecord struct {
	ID            string
	Collection    string
	Repository    string
	FilePath      string
	ChunkType     string
	Language      string
	SemanticScore float64
	Complexity    int
	SizeBytes     int
	StartLine     int
	EndLine       int
	HasMeta       bool
	IndexedAt     time.Time
}

// Registry is the SQLite bookkeeping table behind the vector
// collections.
type Registry struct {
	db *sql.DB
}

// openDatabase opens SQLite with the settings the registry needs: WAL
// for concurrent readers and a single writer connection.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

// NewRegistry opens (or creates) the registry database and applies
// pending migrations.
func NewRegistry(dbPath string) (*Registry, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Upsert writes or replaces the row for a document ID.
func (r *Registry) Upsert(ctx context.Context, rec ChunkRecord) error {
	query := `
		INSERT INTO chunk_records (
			id, collection, repository, file_path, chunk_type, language,
			semantic_score, complexity, size_bytes, start_line, end_line,
			has_meta, indexed_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection = excluded.collection,
			repository = excluded.repository,
			file_path = excluded.file_path,
			chunk_type = excluded.chunk_type,
			language = excluded.language,
			semantic_score = excluded.semantic_score,
			complexity = excluded.complexity,
			size_bytes = excluded.size_bytes,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			has_meta = excluded.has_meta,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	if rec.IndexedAt.IsZero() {
		rec.IndexedAt = now
	}
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Collection, rec.Repository, rec.FilePath, rec.ChunkType,
		rec.Language, rec.SemanticScore, rec.Complexity, rec.SizeBytes,
		rec.StartLine, rec.EndLine, rec.HasMeta, rec.IndexedAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk record: %w", err)
	}
	return nil
}

// ListByRepository returns every record tagged with the repository.
func (r *Registry) ListByRepository(ctx context.Context, repository string) ([]ChunkRecord, error) {
	query := `
		SELECT id, collection, has_meta
		FROM chunk_records
		WHERE repository = ?
	`
	rows, err := r.db.QueryContext(ctx, query, repository)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []ChunkRecord
	for rows.Next() {
		var rec ChunkRecord
		if err := rows.Scan(&rec.ID, &rec.Collection, &rec.HasMeta); err != nil {
			return nil, fmt.Errorf("failed to scan chunk record: %w", err)
		}
		rec.Repository = repository
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteByRepository removes all rows for a repository and reports how
// many went away.
func (r *Registry) DeleteByRepository(ctx context.Context, repository string) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM chunk_records WHERE repository = ?", repository)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunk records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Count returns the total number of registered documents.
func (r *Registry) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunk_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunk records: %w", err)
	}
	return n, nil
}

// RepositoryCounts returns chunk counts per repository tag.
func (r *Registry) RepositoryCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT repository, COUNT(*) FROM chunk_records GROUP BY repository")
	if err != nil {
		return nil, fmt.Errorf("failed to count repositories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var repo string
		var n int
		if err := rows.Scan(&repo, &n); err != nil {
			return nil, err
		}
		counts[repo] = n
	}
	return counts, rows.Err()
}

// SampleStats aggregates semantic score and language distribution over a
// bounded sample of recent rows, so stats stay cheap on large indexes.
func (r *Registry) SampleStats(ctx context.Context, sampleSize int) (avgScore float64, languages map[string]int, err error) {
	if sampleSize <= 0 {
		sampleSize = 1000
	}
	query := `
		SELECT semantic_score, language
		FROM (
			SELECT semantic_score, language
			FROM chunk_records
			ORDER BY updated_at DESC
			LIMIT ?
		)
	`
	rows, err := r.db.QueryContext(ctx, query, sampleSize)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to sample chunk records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	languages = make(map[string]int)
	var sum float64
	var n int
	for rows.Next() {
		var score float64
		var lang string
		if err := rows.Scan(&score, &lang); err != nil {
			return 0, nil, err
		}
		sum += score
		languages[lang]++
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}
	if n > 0 {
		avgScore = sum / float64(n)
	}
	return avgScore, languages, nil
}
