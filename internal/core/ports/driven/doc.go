// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ChunkStore: Chunk, manifest and index persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ModelSource: Loads entity snapshots from a model file. Without it,
//     chunking only accepts entity sets handed in directly.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or strategy package
package driven
