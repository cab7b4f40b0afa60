// Package memory provides in-memory implementations of driven port interfaces.
//
// These adapters are intended for testing and development. All data is lost
// when the process exits. All operations are thread-safe.
package memory

import (
	"context"
	"sync"

	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu        sync.RWMutex
	projects  map[string]string
	chunks    map[string]map[string]domain.Chunk
	manifests map[string]domain.ProjectManifest
	indices   map[string]domain.ChunkIndex
}

// NewChunkStore creates an empty in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		projects:  make(map[string]string),
		chunks:    make(map[string]map[string]domain.Chunk),
		manifests: make(map[string]domain.ProjectManifest),
		indices:   make(map[string]domain.ChunkIndex),
	}
}

// CreateProject registers a project. Idempotent.
func (s *ChunkStore) CreateProject(_ context.Context, projectID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects[projectID] = name
	if _, ok := s.chunks[projectID]; !ok {
		s.chunks[projectID] = make(map[string]domain.Chunk)
	}
	return nil
}

// ProjectExists reports whether the project is known.
func (s *ChunkStore) ProjectExists(_ context.Context, projectID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.projects[projectID]
	return ok, nil
}

// SaveChunk stores or replaces a single chunk.
func (s *ChunkStore) SaveChunk(_ context.Context, chunk *domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chunks[chunk.ProjectID]; !ok {
		s.chunks[chunk.ProjectID] = make(map[string]domain.Chunk)
	}
	s.chunks[chunk.ProjectID][chunk.ID] = *chunk
	return nil
}

// SaveChunks stores a batch of chunks.
func (s *ChunkStore) SaveChunks(_ context.Context, projectID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chunks[projectID]; !ok {
		s.chunks[projectID] = make(map[string]domain.Chunk)
	}
	for _, chunk := range chunks {
		s.chunks[projectID][chunk.ID] = chunk
	}
	return nil
}

// LoadChunk retrieves one chunk by ID.
func (s *ChunkStore) LoadChunk(_ context.Context, projectID, chunkID string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[projectID][chunkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// LoadChunks retrieves the chunks with the given IDs. Missing IDs
// are skipped, not errors.
func (s *ChunkStore) LoadChunks(_ context.Context, projectID string, chunkIDs []string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Chunk, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		if chunk, ok := s.chunks[projectID][id]; ok {
			result = append(result, chunk)
		}
	}
	return result, nil
}

// LoadAllChunks retrieves every chunk of a project.
func (s *ChunkStore) LoadAllChunks(_ context.Context, projectID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Chunk, 0, len(s.chunks[projectID]))
	for _, chunk := range s.chunks[projectID] {
		result = append(result, chunk)
	}
	return result, nil
}

// DeleteChunks removes all chunks of a project.
func (s *ChunkStore) DeleteChunks(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chunks, projectID)
	return nil
}

// SaveManifest stores or replaces the project manifest.
func (s *ChunkStore) SaveManifest(_ context.Context, manifest *domain.ProjectManifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.manifests[manifest.ProjectID] = *manifest
	return nil
}

// LoadManifest retrieves the project manifest.
func (s *ChunkStore) LoadManifest(_ context.Context, projectID string) (*domain.ProjectManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	manifest, ok := s.manifests[projectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return &manifest, nil
}

// SaveIndex stores or replaces the project's chunk index.
func (s *ChunkStore) SaveIndex(_ context.Context, projectID string, index *domain.ChunkIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.indices[projectID] = *index
	return nil
}

// LoadIndex retrieves the project's chunk index.
func (s *ChunkStore) LoadIndex(_ context.Context, projectID string) (*domain.ChunkIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, ok := s.indices[projectID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &index, nil
}
