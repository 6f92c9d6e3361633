package types

// Analysis is the tagged result of structural analysis on a chunk.
//
// Parsed reports whether the chunk content parsed as a complete construct
// for its language. Chunks are frequently dangling fragments of a larger
// unit; those yield Parsed == false with zero-valued derived fields, and
// the pipeline continues. The degraded path is a normal branch, not an
// error condition.
type Analysis struct {
	Parsed       bool
	Imports      []string
	Dependencies []string
	Complexity   int

	// Flags carries language-specific boolean enrichment flags
	// (is_async, has_hooks, is_react_component, ...) flattened to
	// strings for metadata storage
	Flags map[string]string
}

// Unparsed returns the degraded analysis used when chunk content does not
// parse for the claimed language
func Unparsed() Analysis {
	return Analysis{
		Parsed:       false,
		Imports:      []string{},
		Dependencies: []string{},
	}
}
