package language

import (
	"regexp"
	"strings"

	"github.com/go-python/gpython/ast"
	"github.com/go-python/gpython/parser"
	"github.com/go-python/gpython/py"

	"github.com/devmind/semindex/pkg/types"
)

// pythonStrategy handles the indentation-delimited language: regex boundary
// detection, indentation-depth block extraction, and full-parse structural
// analysis of chunk content.
type pythonStrategy struct {
	boundaries   []boundaryPattern
	decorator    *regexp.Regexp
	typeHints    *regexp.Regexp
	asyncDef     *regexp.Regexp
	asyncRewrite *regexp.Regexp
	awaitRewrite *regexp.Regexp
}

type boundaryPattern struct {
	typ types.ChunkType
	re  *regexp.Regexp
}

func newPythonStrategy() *pythonStrategy {
	return &pythonStrategy{
		boundaries: []boundaryPattern{
			{types.ChunkClass, regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)\s*(?:\([^)]*\))?\s*:`)},
			{types.ChunkFunction, regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\([^)]*\)\s*(?:->\s*[^:]+)?\s*:`)},
		},
		decorator:    regexp.MustCompile(`^\s*@\w[\w.]*(?:\(.*\))?\s*$`),
		typeHints:    regexp.MustCompile(`:\s*[A-Z]\w+`),
		asyncDef:     regexp.MustCompile(`\basync\s+def\b`),
		asyncRewrite: regexp.MustCompile(`(?m)^(\s*)async\s+(def|for|with)\b`),
		awaitRewrite: regexp.MustCompile(`\bawait\s+`),
	}
}

func (s *pythonStrategy) Language() types.Language {
	return types.LangPython
}

func (s *pythonStrategy) DetectBoundary(line string) (Boundary, bool) {
	return matchBoundary(s.boundaries, line)
}

func (s *pythonStrategy) IsAttachedPrefix(line string) bool {
	return s.decorator.MatchString(line)
}

// ExtractUnits consumes the indentation block starting at lines[start]. A
// function boundary yields a single unit. A class boundary subdivides into
// a header unit (signature, docstring, class attributes) plus one method
// unit per def at the immediate child indent; decorators directly above a
// method attach to it. Defs nested deeper than one level stay inside their
// enclosing unit.
func (s *pythonStrategy) ExtractUnits(lines []string, start int, b Boundary) ([]Unit, int) {
	base := indentOf(lines[start])
	end := indentBlockEnd(lines, start, base)

	if b.Type != types.ChunkClass {
		return []Unit{{StartIdx: start, EndIdx: end, Boundary: b, Depth: base}}, end
	}

	var units []Unit
	childIndent := -1
	cursor := start
	i := start + 1
	for i < end {
		line := lines[i]
		if isBlank(line) {
			i++
			continue
		}
		ind := indentOf(line)
		if childIndent == -1 {
			childIndent = ind
		}
		if ind == childIndent {
			if mb, ok := s.DetectBoundary(line); ok && mb.Type == types.ChunkFunction {
				mStart := i
				for mStart > cursor {
					prev := lines[mStart-1]
					if !isBlank(prev) && indentOf(prev) == childIndent && s.IsAttachedPrefix(prev) {
						mStart--
						continue
					}
					break
				}
				mEnd := indentBlockEnd(lines, i, ind)
				if mEnd > end {
					mEnd = end
				}
				if mStart > cursor {
					head := Boundary{Type: types.ChunkBlock}
					if len(units) == 0 {
						head = b // class signature plus leading body
					}
					units = append(units, Unit{StartIdx: cursor, EndIdx: mStart, Boundary: head, Depth: base})
				}
				units = append(units, Unit{StartIdx: mStart, EndIdx: mEnd, Boundary: Boundary{Type: types.ChunkMethod, Name: mb.Name}, Depth: ind})
				cursor = mEnd
				i = mEnd
				continue
			}
		}
		i++
	}

	if len(units) == 0 {
		// no immediate-child methods: keep the class as one chunk
		return []Unit{{StartIdx: start, EndIdx: end, Boundary: b, Depth: base}}, end
	}
	if cursor < end {
		units = append(units, Unit{StartIdx: cursor, EndIdx: end, Boundary: Boundary{Type: types.ChunkBlock}, Depth: base})
	}
	return units, end
}

// AnalyzeStructure parses the chunk as a Python module and walks the tree
// for imports, free-variable dependencies and a McCabe-style complexity
// count. Chunks that fail to parse (dangling fragments) degrade to
// zero-valued results; heuristic flags are computed either way.
func (s *pythonStrategy) AnalyzeStructure(content string) types.Analysis {
	flags := s.flags(content)

	// the parser grammar has no async form; rewrite async constructs to
	// their synchronous equivalent before parsing
	src := content
	if strings.Contains(src, "async") || strings.Contains(src, "await") {
		src = s.asyncRewrite.ReplaceAllString(src, "${1}$2")
		src = s.awaitRewrite.ReplaceAllString(src, "")
	}

	mod, err := parser.Parse(strings.NewReader(src), "<chunk>", py.ExecMode)
	if err != nil {
		a := types.Unparsed()
		a.Flags = flags
		return a
	}

	v := newPyVisitor()
	ast.Walk(mod, v.visit)

	return types.Analysis{
		Parsed:       true,
		Imports:      v.imports,
		Dependencies: v.dependencies(),
		Complexity:   v.complexity,
		Flags:        flags,
	}
}

// flags computes pattern-based enrichment flags independent of parsing
func (s *pythonStrategy) flags(content string) map[string]string {
	flags := map[string]string{
		"has_type_hints": boolFlag(s.typeHints.MatchString(content)),
		"is_async":       boolFlag(s.asyncDef.MatchString(content)),
	}
	if decorators := s.decorator.FindAllString(content, -1); len(decorators) > 0 {
		trimmed := make([]string, len(decorators))
		for i, d := range decorators {
			trimmed[i] = strings.TrimSpace(d)
		}
		flags["decorators"] = strings.Join(trimmed, ",")
	}
	return flags
}

// pyVisitor accumulates analysis facts during a parse-tree walk
type pyVisitor struct {
	imports    []string
	importSet  map[string]bool
	functions  map[string]bool
	classes    map[string]bool
	loads      []string
	complexity int
}

func newPyVisitor() *pyVisitor {
	return &pyVisitor{
		imports:   []string{},
		importSet: make(map[string]bool),
		functions: make(map[string]bool),
		classes:   make(map[string]bool),
	}
}

func (v *pyVisitor) visit(node ast.Ast) bool {
	switch n := node.(type) {
	case *ast.Import:
		for _, alias := range n.Names {
			v.addImport(string(alias.Name))
		}
	case *ast.ImportFrom:
		module := string(n.Module)
		for _, alias := range n.Names {
			name := string(alias.Name)
			if module != "" {
				name = module + "." + name
			}
			v.addImport(name)
		}
	case *ast.FunctionDef:
		v.functions[string(n.Name)] = true
		v.complexity++ // each function starts at 1
	case *ast.ClassDef:
		v.classes[string(n.Name)] = true
	case *ast.If, *ast.While, *ast.For, *ast.Break, *ast.Continue:
		v.complexity++
	case *ast.ExceptHandler:
		v.complexity++
	case *ast.BoolOp:
		v.complexity += len(n.Values) - 1
	case *ast.Name:
		if n.Ctx == ast.Load {
			v.loads = append(v.loads, string(n.Id))
		}
	}
	return true
}

func (v *pyVisitor) addImport(name string) {
	if !v.importSet[name] {
		v.importSet[name] = true
		v.imports = append(v.imports, name)
	}
}

// dependencies returns load-context names that are neither defined locally
// nor recorded as imports, de-duplicated in first-occurrence order
func (v *pyVisitor) dependencies() []string {
	deps := []string{}
	seen := make(map[string]bool)
	for _, name := range v.loads {
		if seen[name] || v.functions[name] || v.classes[name] || v.importSet[name] {
			continue
		}
		seen[name] = true
		deps = append(deps, name)
	}
	return deps
}

// matchBoundary returns the first pattern matching the line, with the
// first non-empty capture group as the unit name
func matchBoundary(patterns []boundaryPattern, line string) (Boundary, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := ""
		for _, g := range m[1:] {
			if g != "" {
				name = g
				break
			}
		}
		return Boundary{Type: p.typ, Name: name}, true
	}
	return Boundary{}, false
}

// indentBlockEnd returns the exclusive end of the indentation block whose
// first line sits at depth base: consumption stops at the first non-blank
// line at or above the baseline depth
func indentBlockEnd(lines []string, start, base int) int {
	i := start + 1
	for i < len(lines) {
		if !isBlank(lines[i]) && indentOf(lines[i]) <= base {
			break
		}
		i++
	}
	return i
}

func boolFlag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
