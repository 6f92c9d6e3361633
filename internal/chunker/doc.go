// Package chunker splits source files into semantically coherent chunks.
//
// Files in a recognized language are scanned line by line: structural
// boundaries (functions, classes, interfaces, headings) open units whose
// extent the language strategy determines, and the lines between units
// accumulate into block chunks. Attached prefix lines such as decorators
// travel with the unit they precede. Structural chunks are stored whole
// even past the configured maximum size; only content in an unrecognized
// language falls back to a character sliding window with overlap between
// consecutive windows. Whitespace-only spans attach to the unit that
// follows them, and trailing whitespace joins the last chunk, so the
// emitted chunks tile the original file.
//
// Chunks leave this package unenriched: semantic scores, structural
// analysis and IDs are assigned downstream.
package chunker
