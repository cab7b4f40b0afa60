package cli

import (
	"context"
	"errors"
	"time"

	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/core/ports/driven"
)

// setupTestServices installs mock services and returns a cleanup that
// restores the previous wiring.
func setupTestServices() func() {
	oldChunking := chunkingService
	oldContext := contextService
	oldManifest := manifestService

	chunkingService = &mockChunkingService{}
	contextService = &mockContextService{}
	manifestService = &mockManifestService{}

	return func() {
		chunkingService = oldChunking
		contextService = oldContext
		manifestService = oldManifest
	}
}

func testManifest() *domain.ProjectManifest {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &domain.ProjectManifest{
		ProjectID:     "tower-a",
		ProjectName:   "Tower A",
		TotalChunks:   3,
		TotalEntities: 42,
		TotalTokens:   1200,
		CreatedAt:     created,
		UpdatedAt:     created.Add(time.Hour),
		Chunks: []domain.ChunkSummary{
			{ID: "c1", Kind: domain.ChunkSpatial},
			{ID: "c2", Kind: domain.ChunkSpatial},
			{ID: "c3", Kind: domain.ChunkSystem},
		},
	}
}

func testContextResult() *domain.ContextResult {
	return &domain.ContextResult{
		Context: domain.AssembledContext{
			Header: "## Gebäudekontext: Tower A",
			Blocks: []string{"Erdgeschoss: 12 Türen", "1. OG: 8 Türen"},
			Metadata: domain.ContextMetadata{
				TotalChunks: 2,
				TotalTokens: 310,
				Coverage:    85,
			},
		},
		Intent:         domain.QueryIntent{Kind: domain.IntentCount, Confidence: 0.8},
		CandidateCount: 5,
		LoadedCount:    4,
		Duration:       12 * time.Millisecond,
	}
}

type mockChunkingService struct {
	lastProjectID string
	lastOpts      domain.SizeOptions
	err           error
}

func (m *mockChunkingService) ProcessModel(_ context.Context, projectID, projectName string, snapshot *domain.ModelSnapshot, opts domain.SizeOptions) (*domain.ChunkingResult, error) {
	m.lastProjectID = projectID
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	manifest := testManifest()
	manifest.ProjectID = projectID
	manifest.ProjectName = projectName
	if snapshot != nil {
		manifest.TotalEntities = len(snapshot.Entities)
	}
	return &domain.ChunkingResult{
		Manifest: manifest,
		Duration: 20 * time.Millisecond,
	}, nil
}

type mockContextService struct {
	lastReq     domain.ContextRequest
	invalidated []string
	err         error
}

func (m *mockContextService) BuildContext(_ context.Context, req domain.ContextRequest) (*domain.ContextResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return testContextResult(), nil
}

func (m *mockContextService) InvalidateProject(projectID string) {
	m.invalidated = append(m.invalidated, projectID)
}

type mockManifestService struct {
	validation *domain.ValidationResult
	err        error
}

func (m *mockManifestService) Get(_ context.Context, projectID string) (*domain.ProjectManifest, error) {
	if m.err != nil {
		return nil, m.err
	}
	manifest := testManifest()
	manifest.ProjectID = projectID
	return manifest, nil
}

func (m *mockManifestService) Validate(_ context.Context, _ string) (*domain.ValidationResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.validation != nil {
		return m.validation, nil
	}
	return &domain.ValidationResult{Valid: true}, nil
}

func (m *mockManifestService) Rebuild(_ context.Context, projectID string) (*domain.ProjectManifest, error) {
	if m.err != nil {
		return nil, m.err
	}
	manifest := testManifest()
	manifest.ProjectID = projectID
	return manifest, nil
}

func (m *mockManifestService) Update(_ context.Context, projectID string, _ []domain.Chunk) (*domain.ProjectManifest, error) {
	if m.err != nil {
		return nil, m.err
	}
	manifest := testManifest()
	manifest.ProjectID = projectID
	return manifest, nil
}

// mockModelSource replaces file loading in process command tests.
type mockModelSource struct {
	snapshot *domain.ModelSnapshot
	err      error
}

var _ driven.ModelSource = (*mockModelSource)(nil)

func (m *mockModelSource) Load(_ context.Context) (*domain.ModelSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.snapshot != nil {
		return m.snapshot, nil
	}
	return &domain.ModelSnapshot{
		Entities: []domain.Entity{
			{ExpressID: 1, Type: "IFCWALL", Name: "Wand-01"},
			{ExpressID: 2, Type: "IFCDOOR", Name: "Tür-01"},
		},
	}, nil
}

func (m *mockModelSource) Path() string { return "test-model.json" }

// swapModelSource routes process command loads to src for one test.
func swapModelSource(src driven.ModelSource) func() {
	old := newModelSource
	newModelSource = func(_ string) driven.ModelSource { return src }
	return func() {
		newModelSource = old
	}
}

var errBoom = errors.New("boom")
