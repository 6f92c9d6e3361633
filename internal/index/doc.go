// Package index coordinates the vector store and its bookkeeping
// registry.
//
// Vectors live in three embedded collections: code_chunks for source
// chunks, documentation for markup chunks, and chunk_metadata for the
// companion imports/dependencies records. Document IDs are content
// addressed (see types.ChunkID), so upserting the same chunk twice
// overwrites in place and re-indexing an unchanged file is a no-op.
//
// The collections cannot enumerate or count by metadata filter, so a
// SQLite registry mirrors one row per stored chunk. Repository-scoped
// deletion resolves its ID list there, and stats aggregate over a
// bounded sample of rows. Two SQLite drivers are supported via build
// tags: mattn/go-sqlite3 with the cgo_sqlite tag, modernc.org/sqlite
// otherwise.
//
// Deletion order is fixed: metadata companions first, then primary
// documents, then registry rows. A crash mid-delete can leave a primary
// chunk whose companion is already gone, which search tolerates, but
// never a companion pointing at a missing chunk.
package index
