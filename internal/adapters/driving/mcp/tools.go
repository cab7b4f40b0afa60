package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// QueryContextInput is the input schema for the query_context tool.
type QueryContextInput struct {
	ProjectID string `json:"project_id" jsonschema:"the processed project to query"`
	Query     string `json:"query" jsonschema:"free-text question about the building model, German or English"`
	MaxTokens int    `json:"max_tokens,omitempty" jsonschema:"total token budget for the exchange (default 4000)"`
	Compact   bool   `json:"compact,omitempty" jsonschema:"render chunk summaries instead of full bodies"`
	Language  string `json:"language,omitempty" jsonschema:"output language, de or en (default de)"`
}

// QueryContextOutput is the output schema for the query_context tool.
type QueryContextOutput struct {
	Header     string   `json:"header,omitempty"`
	Blocks     []string `json:"blocks"`
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	ChunkCount int      `json:"chunk_count"`
	TokenCount int      `json:"token_count"`
	Coverage   int      `json:"coverage"`
}

// ProjectStatusInput is the input schema for the project_status tool.
type ProjectStatusInput struct {
	ProjectID string `json:"project_id" jsonschema:"the project to inspect"`
}

// ProjectStatusOutput is the output schema for the project_status tool.
type ProjectStatusOutput struct {
	ProjectID     string         `json:"project_id"`
	ProjectName   string         `json:"project_name"`
	TotalChunks   int            `json:"total_chunks"`
	TotalEntities int            `json:"total_entities"`
	TotalTokens   int            `json:"total_tokens"`
	ChunksByKind  map[string]int `json:"chunks_by_kind"`
	UpdatedAt     string         `json:"updated_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_context",
		Description: "Build relevance-ranked, token-bounded context for a question about a processed building model",
	}, s.handleQueryContext)

	if s.ports.Manifest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "project_status",
			Description: "Report chunk and token statistics for a processed project",
		}, s.handleProjectStatus)
	}
}

// handleQueryContext handles the query_context tool invocation.
func (s *Server) handleQueryContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryContextInput,
) (*mcp.CallToolResult, QueryContextOutput, error) {
	req := domain.ContextRequest{
		ProjectID: input.ProjectID,
		Query:     input.Query,
		MaxTokens: input.MaxTokens,
		Compact:   input.Compact,
		Language:  input.Language,
	}

	result, err := s.ports.Context.BuildContext(ctx, req)
	if err != nil {
		return nil, QueryContextOutput{}, err
	}

	output := QueryContextOutput{
		Header:     result.Context.Header,
		Blocks:     result.Context.Blocks,
		Intent:     string(result.Intent.Kind),
		Confidence: result.Intent.Confidence,
		ChunkCount: result.Context.Metadata.TotalChunks,
		TokenCount: result.Context.Metadata.TotalTokens,
		Coverage:   result.Context.Metadata.Coverage,
	}

	return nil, output, nil
}

// handleProjectStatus handles the project_status tool invocation.
func (s *Server) handleProjectStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProjectStatusInput,
) (*mcp.CallToolResult, ProjectStatusOutput, error) {
	manifest, err := s.ports.Manifest.Get(ctx, input.ProjectID)
	if err != nil {
		return nil, ProjectStatusOutput{}, err
	}

	byKind := make(map[string]int)
	for _, summary := range manifest.Chunks {
		byKind[string(summary.Kind)]++
	}

	output := ProjectStatusOutput{
		ProjectID:     manifest.ProjectID,
		ProjectName:   manifest.ProjectName,
		TotalChunks:   manifest.TotalChunks,
		TotalEntities: manifest.TotalEntities,
		TotalTokens:   manifest.TotalTokens,
		ChunksByKind:  byKind,
		UpdatedAt:     manifest.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	return nil, output, nil
}
