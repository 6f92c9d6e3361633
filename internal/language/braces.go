package language

import (
	"regexp"

	"github.com/devmind/semindex/pkg/types"
)

// statement keywords whose parenthesized forms would otherwise satisfy the
// method pattern
var stmtKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true,
	"catch": true, "return": true, "function": true, "else": true,
	"do": true, "try": true, "new": true, "typeof": true,
}

// braceStrategy handles the brace-delimited languages. TypeScript and
// JavaScript share extraction logic; TypeScript adds interface and type
// alias boundaries.
type braceStrategy struct {
	lang        types.Language
	boundaries  []boundaryPattern
	methodRe    *regexp.Regexp
	decorator   *regexp.Regexp
	asyncRe     *regexp.Regexp
	exportRe    *regexp.Regexp
	hooksRe     *regexp.Regexp
	componentRe *regexp.Regexp
}

func newBraceStrategy(lang types.Language) *braceStrategy {
	s := &braceStrategy{
		lang: lang,
		boundaries: []boundaryPattern{
			{types.ChunkClass, regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`)},
			{types.ChunkFunction, regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`)},
			{types.ChunkFunction, regexp.MustCompile(`^\s*(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s+)?(?:\([^)]*\)|\w+)\s*=>`)},
		},
		methodRe:    regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|async|override)\s+)*(\w+)\s*\([^)]*\)\s*(?::\s*[^{]+)?\{`),
		decorator:   regexp.MustCompile(`^\s*@\w[\w.]*(?:\(.*\))?\s*$`),
		asyncRe:     regexp.MustCompile(`\basync\b`),
		exportRe:    regexp.MustCompile(`\bexport\b`),
		hooksRe:     regexp.MustCompile(`\buse[A-Z]\w*\s*\(`),
		componentRe: regexp.MustCompile(`extends\s+(?:React\.)?(?:Pure)?Component\b|return\s*\(?\s*<[A-Za-z]`),
	}
	if lang == types.LangTypeScript {
		s.boundaries = append(s.boundaries,
			boundaryPattern{types.ChunkInterface, regexp.MustCompile(`^\s*(?:export\s+)?interface\s+(\w+)`)},
			boundaryPattern{types.ChunkTypeDecl, regexp.MustCompile(`^\s*(?:export\s+)?type\s+(\w+)\s*=`)},
		)
	}
	return s
}

func (s *braceStrategy) Language() types.Language {
	return s.lang
}

func (s *braceStrategy) DetectBoundary(line string) (Boundary, bool) {
	if b, ok := matchBoundary(s.boundaries, line); ok {
		return b, true
	}
	if m := s.methodRe.FindStringSubmatch(line); m != nil && !stmtKeywords[m[1]] {
		return Boundary{Type: types.ChunkMethod, Name: m[1]}, true
	}
	return Boundary{}, false
}

func (s *braceStrategy) IsAttachedPrefix(line string) bool {
	return s.decorator.MatchString(line)
}

// ExtractUnits walks brace depth from the boundary line until the braces
// opened on or after it close again. A boundary that never opens a brace
// (type alias on one line, declaration-only signature) is a single-line
// unit.
func (s *braceStrategy) ExtractUnits(lines []string, start int, b Boundary) ([]Unit, int) {
	depth := 0
	opened := false
	end := start + 1
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			end = i + 1
			break
		}
		if !opened && i > start {
			// no block opened on the boundary line itself
			end = start + 1
			break
		}
		end = i + 1
	}
	return []Unit{{StartIdx: start, EndIdx: end, Boundary: b, Depth: indentOf(lines[start])}}, end
}

// AnalyzeStructure computes pattern-based flags. There is no full parse
// for these languages: Parsed stays false and imports, dependencies and
// complexity stay zero-valued.
func (s *braceStrategy) AnalyzeStructure(content string) types.Analysis {
	a := types.Unparsed()
	a.Flags = map[string]string{
		"is_async":           boolFlag(s.asyncRe.MatchString(content)),
		"has_exports":        boolFlag(s.exportRe.MatchString(content)),
		"has_hooks":          boolFlag(s.hooksRe.MatchString(content)),
		"is_react_component": boolFlag(s.componentRe.MatchString(content)),
	}
	return a
}
