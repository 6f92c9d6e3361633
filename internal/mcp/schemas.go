package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexRepositoryTool returns the tool definition for index_repository
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Index a repository directory to make its code and documentation searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root",
				},
				"repository": map[string]interface{}{
					"type":        "string",
					"description": "Repository tag stored with every chunk; defaults to the directory name",
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Semantic search over indexed chunks with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-20)",
					"default":     10,
					"minimum":     1,
					"maximum":     20,
				},
				"repository": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one repository tag",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one language (python, typescript, javascript, markdown)",
				},
				"chunk_type": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one chunk type",
					"enum":        []string{"function", "class", "method", "interface", "type", "block"},
				},
				"documentation": map[string]interface{}{
					"type":        "boolean",
					"description": "Search the documentation collection instead of code",
					"default":     false,
				},
				"include_metadata": map[string]interface{}{
					"type":        "boolean",
					"description": "Join imports and dependencies from the metadata collection into each result",
					"default":     false,
				},
			},
			Required: []string{"query"},
		},
	}
}

// deleteRepositoryTool returns the tool definition for delete_repository
func deleteRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_repository",
		Description: "Remove every indexed chunk stored under a repository tag",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repository": map[string]interface{}{
					"type":        "string",
					"description": "Repository tag to delete",
				},
			},
			Required: []string{"repository"},
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Report index population, per-repository counts, and sampled score/language aggregates",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
