package language

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/devmind/semindex/pkg/types"
)

// extToLang maps file extensions to language tags
var extToLang = map[string]types.Language{
	".py":       types.LangPython,
	".pyi":      types.LangPython,
	".ts":       types.LangTypeScript,
	".tsx":      types.LangTypeScript,
	".js":       types.LangJavaScript,
	".jsx":      types.LangJavaScript,
	".mjs":      types.LangJavaScript,
	".md":       types.LangMarkdown,
	".markdown": types.LangMarkdown,
}

var (
	jsImportRe  = regexp.MustCompile(`import\s+.*\s+from\s+['"]`)
	pyDefRe     = regexp.MustCompile(`def\s+\w+\s*\(`)
	mdHeadingRe = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
)

// Detect maps a file path plus a content sample to a language tag. The
// extension wins when recognized; otherwise a small set of content
// patterns decides, and LangUnknown is returned when nothing matches.
func Detect(filePath, content string) types.Language {
	ext := strings.ToLower(filepath.Ext(filePath))
	if lang, ok := extToLang[ext]; ok {
		return lang
	}

	switch {
	case jsImportRe.MatchString(content):
		return types.LangJavaScript
	case pyDefRe.MatchString(content):
		return types.LangPython
	case mdHeadingRe.MatchString(content):
		return types.LangMarkdown
	}

	return types.LangUnknown
}
