package driven

import (
	"context"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// ChunkStore persists chunks, manifests and indices per project.
// Backed by SQLite for durable storage, or memory for tests.
type ChunkStore interface {
	// CreateProject registers a project. Idempotent.
	CreateProject(ctx context.Context, projectID, name string) error

	// ProjectExists reports whether the project is known.
	ProjectExists(ctx context.Context, projectID string) (bool, error)

	// SaveChunk stores or replaces a single chunk.
	SaveChunk(ctx context.Context, chunk *domain.Chunk) error

	// SaveChunks stores a batch of chunks.
	SaveChunks(ctx context.Context, projectID string, chunks []domain.Chunk) error

	// LoadChunk retrieves one chunk by ID.
	// Returns domain.ErrNotFound when absent.
	LoadChunk(ctx context.Context, projectID, chunkID string) (*domain.Chunk, error)

	// LoadChunks retrieves the chunks with the given IDs. Missing IDs
	// are skipped, not errors.
	LoadChunks(ctx context.Context, projectID string, chunkIDs []string) ([]domain.Chunk, error)

	// LoadAllChunks retrieves every chunk of a project.
	LoadAllChunks(ctx context.Context, projectID string) ([]domain.Chunk, error)

	// DeleteChunks removes all chunks of a project.
	DeleteChunks(ctx context.Context, projectID string) error

	// SaveManifest stores or replaces the project manifest.
	SaveManifest(ctx context.Context, manifest *domain.ProjectManifest) error

	// LoadManifest retrieves the project manifest.
	// Returns domain.ErrProjectNotFound when absent.
	LoadManifest(ctx context.Context, projectID string) (*domain.ProjectManifest, error)

	// SaveIndex stores or replaces the project's chunk index.
	SaveIndex(ctx context.Context, projectID string, index *domain.ChunkIndex) error

	// LoadIndex retrieves the project's chunk index.
	// Returns domain.ErrNotFound when absent.
	LoadIndex(ctx context.Context, projectID string) (*domain.ChunkIndex, error)
}

// ModelSource loads entity snapshots from an external model file.
type ModelSource interface {
	// Load reads the full entity snapshot.
	Load(ctx context.Context) (*domain.ModelSnapshot, error)

	// Path returns the source file path, for logging.
	Path() string
}
