// Package domain defines the core business entities for bimctx.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Entity: One element of a source building model (wall, door, duct, ...)
//   - EnhancedEntity: An entity plus derived geometry/material/quantity data
//   - Chunk: A bounded unit of rendered text plus metadata, the atomic retrieval item
//   - ProjectManifest: Per-project summary record plus lookup indices
//   - QueryIntent: The structured interpretation of a free-text query
//   - BudgetAllocation: The token allowance plan for assembled context
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
