package mcp

import (
	"github.com/vantera-labs/bimctx/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Context answers free-text queries with assembled context.
	Context driving.ContextService

	// Manifest exposes project manifests. Optional; status and
	// manifest resources degrade gracefully without it.
	Manifest driving.ManifestService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Context == nil {
		return ErrMissingContextService
	}
	return nil
}
