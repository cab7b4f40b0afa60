package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for bimctx resources.
const uriScheme = "bimctx://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Template for project manifests.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "projects/{projectId}/manifest",
		Name:        "project-manifest",
		Description: "Manifest of a processed building model project: chunk summaries and lookup indices",
		MIMEType:    "application/json",
	}, s.handleManifestResource)
}

// handleManifestResource returns the manifest of a specific project.
func (s *Server) handleManifestResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Manifest == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract projectId from URI: bimctx://projects/{projectId}/manifest
	projectID := extractProjectID(req.Params.URI)
	if projectID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	manifest, err := s.ports.Manifest.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("getting manifest: %w", err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling manifest: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractProjectID extracts the project ID from a URI like bimctx://projects/{projectId}/manifest.
func extractProjectID(uri string) string {
	const prefix = uriScheme + "projects/"
	const suffix = "/manifest"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
