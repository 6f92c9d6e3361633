package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ChunkType classifies the structural unit a chunk covers
type ChunkType string

const (
	ChunkFunction  ChunkType = "function"
	ChunkClass     ChunkType = "class"
	ChunkMethod    ChunkType = "method"
	ChunkInterface ChunkType = "interface"
	ChunkTypeDecl  ChunkType = "type"
	// ChunkBlock is the fallback for spans with no recognized structural
	// unit, such as module-level statements between definitions.
	ChunkBlock ChunkType = "block"
)

// Language is the classifier's output tag for a source file
type Language string

const (
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangMarkdown   Language = "markdown"
	LangUnknown    Language = "unknown"
)

// Chunk represents a contiguous span of source text treated as one
// retrievable unit, together with its derived metadata
type Chunk struct {
	// Content is the exact source substring covered
	Content string

	// Location: 1-based, inclusive, non-decreasing within a file
	StartLine int
	EndLine   int

	ChunkType ChunkType
	Language  Language

	// Derived enrichment fields
	SemanticScore float64 // heuristic in [0,1]
	Complexity    int     // McCabe-style count, 0 when not computable

	// Imports and Dependencies are ordered, possibly empty, never nil
	// after enrichment
	Imports      []string
	Dependencies []string

	// Metadata carries caller-supplied context (repository tag, branch,
	// file path, extension) plus enrichment flags, flattened to strings
	// for index storage
	Metadata map[string]string
}

// Validate checks the chunk's structural invariants
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return ErrEmptyContent
	}
	if c.StartLine <= 0 || c.EndLine <= 0 {
		return ErrInvalidLineSpan
	}
	if c.StartLine > c.EndLine {
		return ErrInvalidLineSpan
	}
	return nil
}

// Clone returns a deep copy of the chunk. Enrichment workers mutate their
// own copy so a degraded item can fall back to the pre-enrichment state.
func (c *Chunk) Clone() *Chunk {
	dup := *c
	if c.Imports != nil {
		dup.Imports = append([]string(nil), c.Imports...)
	}
	if c.Dependencies != nil {
		dup.Dependencies = append([]string(nil), c.Dependencies...)
	}
	if c.Metadata != nil {
		dup.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			dup.Metadata[k] = v
		}
	}
	return &dup
}

// ChunkID computes the content-addressed identifier for a chunk: a SHA-256
// hash over content and line span. Identical content at the same position
// always maps to the same identifier, which makes upserts idempotent.
func ChunkID(c *Chunk) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d", c.Content, c.StartLine, c.EndLine))
	return "c_" + hex.EncodeToString(h[:])
}

// MetadataID derives the side-collection key for a chunk's companion
// metadata record
func MetadataID(chunkID string) string {
	return chunkID + "_meta"
}

// MetadataRecord is the imports/dependencies payload stored in the
// side collection under MetadataID(chunkID)
type MetadataRecord struct {
	Imports      []string `json:"imports"`
	Dependencies []string `json:"dependencies"`
}
