// Package language provides file language classification and per-language
// chunking strategies.
//
// A Strategy bundles the language-specific capability set used by the
// chunker and enricher: boundary detection (where a structural unit
// begins), block extraction (where it ends), and structural analysis
// (imports, dependencies, complexity or heuristic flags). Strategies are
// selected once per file through a Registry keyed by language tag instead
// of conditional dispatch at each call site.
//
// # Supported Languages
//
//   - python: indentation-delimited. Boundaries via regular expressions,
//     block extraction via indentation depth, structural analysis via a
//     full parse of the chunk into a Python syntax tree.
//   - typescript, javascript: brace-delimited. Boundaries via regular
//     expressions, block extraction via brace depth, analysis via
//     pattern-matched heuristic flags (no full parse; imports,
//     dependencies and complexity stay zero-valued).
//   - markdown: markup. Heading lines bound sections.
//   - unknown: no strategy; the chunker falls back to fixed-size
//     sliding windows.
//
// # Usage
//
//	reg := language.NewRegistry()
//	lang := language.Detect("handler.py", content)
//	strat := reg.For(lang) // nil for LangUnknown
package language
