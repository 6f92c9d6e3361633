package language

import (
	"regexp"
	"strings"

	"github.com/devmind/semindex/pkg/types"
)

// markupStrategy splits documentation files on headings. A section runs
// from its heading to the next heading of any level; the heading depth is
// kept on the unit for downstream metadata.
type markupStrategy struct {
	heading *regexp.Regexp
}

func newMarkupStrategy() *markupStrategy {
	return &markupStrategy{
		heading: regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`),
	}
}

func (s *markupStrategy) Language() types.Language {
	return types.LangMarkdown
}

func (s *markupStrategy) DetectBoundary(line string) (Boundary, bool) {
	m := s.heading.FindStringSubmatch(line)
	if m == nil {
		return Boundary{}, false
	}
	return Boundary{Type: types.ChunkBlock, Name: m[2]}, true
}

func (s *markupStrategy) IsAttachedPrefix(string) bool {
	return false
}

func (s *markupStrategy) ExtractUnits(lines []string, start int, b Boundary) ([]Unit, int) {
	level := s.headingLevel(lines[start])
	end := start + 1
	for end < len(lines) {
		if s.headingLevel(lines[end]) > 0 {
			break
		}
		end++
	}
	return []Unit{{StartIdx: start, EndIdx: end, Boundary: b, Depth: level}}, end
}

func (s *markupStrategy) AnalyzeStructure(content string) types.Analysis {
	a := types.Unparsed()
	a.Flags = map[string]string{
		"has_code_fence": boolFlag(strings.Contains(content, "```")),
	}
	return a
}

func (s *markupStrategy) headingLevel(line string) int {
	m := s.heading.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return len(m[1])
}
