// Package types provides shared type definitions for the semindex pipeline.
//
// This package defines the domain types used across the chunking, enrichment
// and indexing components: chunks, structural analysis results, search
// matches and metadata records.
//
// # Core Types
//
// Chunk represents a contiguous, bounded span of source text treated as one
// retrievable unit:
//
//	chunk := &types.Chunk{
//	    Content:   functionBody,
//	    StartLine: 10,
//	    EndLine:   24,
//	    ChunkType: types.ChunkFunction,
//	    Language:  types.LangPython,
//	}
//
// Analysis is the tagged result of structural analysis. A chunk that fails
// to parse (a dangling fragment of a larger construct) yields an Analysis
// with Parsed == false and zero-valued derived fields; this is an expected,
// first-class outcome rather than an error:
//
//	a := strategy.AnalyzeStructure(chunk.Content)
//	if a.Parsed {
//	    chunk.Imports = a.Imports
//	    chunk.Complexity = a.Complexity
//	}
//
// # Content-Addressed Identifiers
//
// ChunkID derives a stable identifier from a chunk's content and line span,
// making re-indexing idempotent: processing identical file content twice
// yields the same identifiers and overwrites records in place.
//
//	id := types.ChunkID(chunk)       // "c_<sha256 hex>"
//	meta := types.MetadataID(id)     // "<id>_meta"
//
// # Validation
//
// Chunks validate their line-span and content invariants:
//
//	if err := chunk.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
