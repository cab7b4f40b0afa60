package services

import (
	"context"
	"sync"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// mockChunkStore is a map-backed ChunkStore for service tests.
type mockChunkStore struct {
	mu        sync.Mutex
	projects  map[string]string
	chunks    map[string]map[string]domain.Chunk
	manifests map[string]*domain.ProjectManifest
	indices   map[string]*domain.ChunkIndex

	failSaveChunks bool
	loadCalls      int
}

func newMockChunkStore() *mockChunkStore {
	return &mockChunkStore{
		projects:  make(map[string]string),
		chunks:    make(map[string]map[string]domain.Chunk),
		manifests: make(map[string]*domain.ProjectManifest),
		indices:   make(map[string]*domain.ChunkIndex),
	}
}

func (m *mockChunkStore) CreateProject(_ context.Context, projectID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[projectID] = name
	if m.chunks[projectID] == nil {
		m.chunks[projectID] = make(map[string]domain.Chunk)
	}
	return nil
}

func (m *mockChunkStore) ProjectExists(_ context.Context, projectID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.projects[projectID]
	return ok, nil
}

func (m *mockChunkStore) SaveChunk(_ context.Context, chunk *domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chunks[chunk.ProjectID] == nil {
		m.chunks[chunk.ProjectID] = make(map[string]domain.Chunk)
	}
	m.chunks[chunk.ProjectID][chunk.ID] = *chunk
	return nil
}

func (m *mockChunkStore) SaveChunks(_ context.Context, projectID string, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveChunks {
		return domain.ErrStorageUnavailable
	}
	if m.chunks[projectID] == nil {
		m.chunks[projectID] = make(map[string]domain.Chunk)
	}
	for _, c := range chunks {
		m.chunks[projectID][c.ID] = c
	}
	return nil
}

func (m *mockChunkStore) LoadChunk(_ context.Context, projectID, chunkID string) (*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chunks[projectID][chunkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *mockChunkStore) LoadChunks(_ context.Context, projectID string, chunkIDs []string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls++
	var out []domain.Chunk
	for _, id := range chunkIDs {
		if c, ok := m.chunks[projectID][id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockChunkStore) LoadAllChunks(_ context.Context, projectID string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Chunk
	for _, c := range m.chunks[projectID] {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockChunkStore) DeleteChunks(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[projectID] = make(map[string]domain.Chunk)
	return nil
}

func (m *mockChunkStore) SaveManifest(_ context.Context, manifest *domain.ProjectManifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests[manifest.ProjectID] = manifest
	return nil
}

func (m *mockChunkStore) LoadManifest(_ context.Context, projectID string) (*domain.ProjectManifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	manifest, ok := m.manifests[projectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return manifest, nil
}

func (m *mockChunkStore) SaveIndex(_ context.Context, projectID string, index *domain.ChunkIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indices[projectID] = index
	return nil
}

func (m *mockChunkStore) LoadIndex(_ context.Context, projectID string) (*domain.ChunkIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	index, ok := m.indices[projectID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return index, nil
}
