// Package mcp provides an MCP (Model Context Protocol) server adapter for bimctx.
// It lets AI assistants query processed building models for assembled context.
package mcp

import "errors"

// ErrMissingContextService is returned when the context service is not provided.
var ErrMissingContextService = errors.New("mcp: context service is required")
