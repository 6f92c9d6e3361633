// Package mcp exposes the indexing pipeline over the Model Context
// Protocol.
//
// Four tools are registered:
//
//	index_repository  - walk a directory and index every supported file
//	search_code       - semantic search over indexed chunks
//	delete_repository - drop everything indexed under a repository tag
//	get_stats         - index population and sampled aggregates
//
// The server speaks stdio; a host process (editor, agent runtime)
// launches it and drives it over JSON-RPC. Tool handlers validate their
// arguments, call the pipeline service, and return indented JSON text
// results.
package mcp
