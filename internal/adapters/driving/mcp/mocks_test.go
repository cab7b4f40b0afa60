package mcp

import (
	"context"
	"time"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// mockContextService is a mock implementation of driving.ContextService.
type mockContextService struct {
	result  *domain.ContextResult
	lastReq domain.ContextRequest
	err     error
}

func (m *mockContextService) BuildContext(_ context.Context, req domain.ContextRequest) (*domain.ContextResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockContextService) InvalidateProject(_ string) {}

// mockManifestService is a mock implementation of driving.ManifestService.
type mockManifestService struct {
	manifest   *domain.ProjectManifest
	validation *domain.ValidationResult
	err        error
}

func (m *mockManifestService) Get(_ context.Context, _ string) (*domain.ProjectManifest, error) {
	return m.manifest, m.err
}

func (m *mockManifestService) Validate(_ context.Context, _ string) (*domain.ValidationResult, error) {
	return m.validation, m.err
}

func (m *mockManifestService) Rebuild(_ context.Context, _ string) (*domain.ProjectManifest, error) {
	return m.manifest, m.err
}

func (m *mockManifestService) Update(_ context.Context, _ string, _ []domain.Chunk) (*domain.ProjectManifest, error) {
	return m.manifest, m.err
}

func testManifest() *domain.ProjectManifest {
	return &domain.ProjectManifest{
		ProjectID:     "tower-a",
		ProjectName:   "Tower A",
		TotalChunks:   3,
		TotalEntities: 42,
		TotalTokens:   1200,
		UpdatedAt:     time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Chunks: []domain.ChunkSummary{
			{ID: "c1", Kind: domain.ChunkSpatial, TokenCount: 400},
			{ID: "c2", Kind: domain.ChunkSpatial, TokenCount: 400},
			{ID: "c3", Kind: domain.ChunkSystem, TokenCount: 400},
		},
	}
}
