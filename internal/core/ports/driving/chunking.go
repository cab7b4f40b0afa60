package driving

import (
	"context"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// ChunkingService turns entity snapshots into persisted chunks.
type ChunkingService interface {
	// ProcessModel runs all applicable strategies over the snapshot,
	// deduplicates and size-bounds the result, persists chunks and
	// manifest, and returns both.
	ProcessModel(ctx context.Context, projectID, projectName string, snapshot *domain.ModelSnapshot, opts domain.SizeOptions) (*domain.ChunkingResult, error)
}

// ManifestService exposes manifest maintenance to external actors.
type ManifestService interface {
	// Get loads the current manifest of a project.
	Get(ctx context.Context, projectID string) (*domain.ProjectManifest, error)

	// Validate checks manifest integrity against the stored chunks
	// and reports every finding.
	Validate(ctx context.Context, projectID string) (*domain.ValidationResult, error)

	// Rebuild reconstructs manifest and indices from the stored
	// chunks, preserving the original creation timestamp.
	Rebuild(ctx context.Context, projectID string) (*domain.ProjectManifest, error)

	// Update appends newly stored chunks to the manifest and rebuilds
	// the indices over the combined chunk set.
	Update(ctx context.Context, projectID string, newChunks []domain.Chunk) (*domain.ProjectManifest, error)
}
