package language

import (
	"github.com/devmind/semindex/pkg/types"
)

// Boundary describes a detected structural unit start
type Boundary struct {
	Type types.ChunkType
	Name string // first non-empty capture group of the matched pattern
}

// Unit is one chunk-to-be within an extracted structural span. Units tile
// the consumed span exactly: every line index in [span start, span end)
// belongs to exactly one unit.
type Unit struct {
	StartIdx int // 0-based, inclusive
	EndIdx   int // 0-based, exclusive
	Boundary Boundary
	Depth    int // indentation or brace depth baseline of the unit
}

// Strategy is the per-language capability set consumed by the chunker and
// enricher: boundary detection, block extraction and structural analysis.
type Strategy interface {
	// Language returns the tag this strategy serves
	Language() types.Language

	// DetectBoundary reports the structural unit starting at line, if any
	DetectBoundary(line string) (Boundary, bool)

	// IsAttachedPrefix reports lines that belong to the structural unit
	// that follows them (decorators) rather than to the preceding block
	IsAttachedPrefix(line string) bool

	// ExtractUnits consumes the structural unit whose boundary was
	// detected at lines[start] and returns the units to emit plus the
	// exclusive end index of the consumed span. A class may subdivide
	// into a header unit and one unit per immediate-child method; units
	// nested deeper are swallowed by their parent's extraction.
	ExtractUnits(lines []string, start int, b Boundary) ([]Unit, int)

	// AnalyzeStructure derives imports, dependencies and complexity (or
	// heuristic flags) from chunk content. Content that fails to parse
	// yields a degraded Analysis, never an error.
	AnalyzeStructure(content string) types.Analysis
}

// Registry maps language tags to strategies. Strategies are stateless and
// shared; the registry is built once at startup and read-only after.
type Registry struct {
	strategies map[types.Language]Strategy
}

// NewRegistry builds the default registry covering all supported languages
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[types.Language]Strategy)}
	for _, s := range []Strategy{
		newPythonStrategy(),
		newBraceStrategy(types.LangTypeScript),
		newBraceStrategy(types.LangJavaScript),
		newMarkupStrategy(),
	} {
		r.strategies[s.Language()] = s
	}
	return r
}

// For returns the strategy for a language tag, or nil when the language is
// unrecognized (callers fall back to fixed-size windowing)
func (r *Registry) For(lang types.Language) Strategy {
	return r.strategies[lang]
}

// indentOf returns the leading-whitespace width of a line
func indentOf(line string) int {
	for i, ch := range line {
		if ch != ' ' && ch != '\t' {
			return i
		}
	}
	return len(line)
}

// isBlank reports whether a line contains only whitespace
func isBlank(line string) bool {
	return indentOf(line) == len(line)
}
