package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/core/ports/driven"
	"github.com/vantera-labs/bimctx/internal/core/ports/driving"
	"github.com/vantera-labs/bimctx/internal/logger"
)

// Ensure ManifestManager implements the interface.
var _ driving.ManifestService = (*ManifestManager)(nil)

// maxSummaryKeywords bounds the keywords derived from a chunk summary.
const maxSummaryKeywords = 10

// summaryKeywordMinLength filters short filler words from summaries.
const summaryKeywordMinLength = 6

var summaryWordRe = regexp.MustCompile(`[a-zA-Z0-9äöüÄÖÜß]+`)

// BuildManifest constructs a fresh manifest plus lookup indices over
// the chunk set. The created timestamp is caller-supplied so rebuilds
// can preserve the original one.
func BuildManifest(projectID, projectName string, chunks []domain.Chunk, createdAt time.Time) *domain.ProjectManifest {
	m := &domain.ProjectManifest{
		ProjectID:   projectID,
		ProjectName: projectName,
		TotalChunks: len(chunks),
		CreatedAt:   createdAt,
		UpdatedAt:   time.Now(),
		Chunks:      make([]domain.ChunkSummary, 0, len(chunks)),
		Index:       buildIndex(chunks),
	}
	for i := range chunks {
		c := &chunks[i]
		m.TotalEntities += c.Metadata.EntityCount
		m.TotalTokens += c.TokenCount
		m.Chunks = append(m.Chunks, domain.ChunkSummary{
			ID:          c.ID,
			Kind:        c.Kind,
			TokenCount:  c.TokenCount,
			EntityCount: c.Metadata.EntityCount,
			Keywords:    chunkKeywords(c),
		})
	}
	return m
}

func buildIndex(chunks []domain.Chunk) domain.ChunkIndex {
	index := domain.NewChunkIndex()
	for i := range chunks {
		c := &chunks[i]
		index.ByKind[c.Kind] = append(index.ByKind[c.Kind], c.ID)
		for _, t := range c.Metadata.EntityTypes {
			index.ByEntityType[t] = append(index.ByEntityType[t], c.ID)
		}
		if c.Metadata.Floor != nil {
			index.ByFloor[*c.Metadata.Floor] = append(index.ByFloor[*c.Metadata.Floor], c.ID)
		}
		if c.Metadata.System != "" {
			index.BySystem[c.Metadata.System] = append(index.BySystem[c.Metadata.System], c.ID)
		}
		if c.Metadata.BoundingBox != nil {
			index.Spatial = append(index.Spatial, domain.SpatialIndexEntry{
				ChunkID:     c.ID,
				BoundingBox: *c.Metadata.BoundingBox,
			})
		}
	}
	return index
}

// chunkKeywords derives searchable terms from a chunk: its entity
// types, system and floor tags, and the longer words of its summary.
func chunkKeywords(c *domain.Chunk) []string {
	seen := make(map[string]bool)
	var keywords []string
	add := func(k string) {
		k = strings.ToLower(k)
		if k != "" && !seen[k] {
			seen[k] = true
			keywords = append(keywords, k)
		}
	}

	for _, t := range c.Metadata.EntityTypes {
		add(t)
	}
	if c.Metadata.System != "" {
		add(c.Metadata.System)
	}
	if c.Metadata.Floor != nil {
		add(fmt.Sprintf("floor%d", *c.Metadata.Floor))
		add(fmt.Sprintf("level%d", *c.Metadata.Floor))
	}

	fromSummary := 0
	for _, w := range summaryWordRe.FindAllString(c.Summary, -1) {
		if fromSummary >= maxSummaryKeywords {
			break
		}
		if len([]rune(w)) < summaryKeywordMinLength {
			continue
		}
		before := len(keywords)
		add(w)
		if len(keywords) > before {
			fromSummary++
		}
	}
	return keywords
}

// ManifestManager maintains and repairs project manifests.
type ManifestManager struct {
	store driven.ChunkStore
}

// NewManifestManager creates a manifest manager.
func NewManifestManager(store driven.ChunkStore) *ManifestManager {
	return &ManifestManager{store: store}
}

// Get loads a project's manifest.
func (m *ManifestManager) Get(ctx context.Context, projectID string) (*domain.ProjectManifest, error) {
	if projectID == "" {
		return nil, fmt.Errorf("get manifest: %w: empty project id", domain.ErrInvalidInput)
	}
	manifest, err := m.store.LoadManifest(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get manifest: %w", err)
	}
	return manifest, nil
}

// Validate cross-checks the manifest against the stored chunks and
// its own indices. Every inconsistency found is reported; validation
// never stops at the first finding.
func (m *ManifestManager) Validate(ctx context.Context, projectID string) (*domain.ValidationResult, error) {
	manifest, err := m.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}
	chunks, err := m.store.LoadAllChunks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("validate manifest: load chunks: %w", err)
	}

	var findings []string
	report := func(format string, args ...any) {
		findings = append(findings, fmt.Sprintf(format, args...))
	}

	stored := make(map[string]*domain.Chunk, len(chunks))
	for i := range chunks {
		if _, dup := stored[chunks[i].ID]; dup {
			report("duplicate stored chunk id %s", chunks[i].ID)
		}
		stored[chunks[i].ID] = &chunks[i]
	}

	listed := make(map[string]bool, len(manifest.Chunks))
	totalTokens := 0
	for _, s := range manifest.Chunks {
		if listed[s.ID] {
			report("duplicate manifest entry %s", s.ID)
		}
		listed[s.ID] = true
		totalTokens += s.TokenCount

		c, ok := stored[s.ID]
		if !ok {
			report("manifest lists %s but chunk is not stored", s.ID)
			continue
		}
		if c.TokenCount != s.TokenCount {
			report("token count mismatch for %s: manifest %d, chunk %d", s.ID, s.TokenCount, c.TokenCount)
		}
	}
	for id := range stored {
		if !listed[id] {
			report("stored chunk %s missing from manifest", id)
		}
	}

	if manifest.TotalChunks != len(manifest.Chunks) {
		report("totalChunks is %d but %d chunks are listed", manifest.TotalChunks, len(manifest.Chunks))
	}
	if manifest.TotalTokens != totalTokens {
		report("totalTokens is %d but summaries sum to %d", manifest.TotalTokens, totalTokens)
	}

	validateIndex(&manifest.Index, listed, report)

	result := &domain.ValidationResult{Valid: len(findings) == 0, Errors: findings}
	logger.Debug("Manifest %s validated: %d findings", projectID, len(findings))
	return result, nil
}

func validateIndex(index *domain.ChunkIndex, listed map[string]bool, report func(string, ...any)) {
	check := func(indexName, key, id string) {
		if !listed[id] {
			report("index %s[%s] references unknown chunk %s", indexName, key, id)
		}
	}
	for kind, ids := range index.ByKind {
		for _, id := range ids {
			check("byKind", string(kind), id)
		}
	}
	for t, ids := range index.ByEntityType {
		for _, id := range ids {
			check("byEntityType", t, id)
		}
	}
	for floor, ids := range index.ByFloor {
		for _, id := range ids {
			check("byFloor", fmt.Sprintf("%d", floor), id)
		}
	}
	for system, ids := range index.BySystem {
		for _, id := range ids {
			check("bySystem", system, id)
		}
	}
	for _, e := range index.Spatial {
		check("spatial", "-", e.ChunkID)
	}

	// Every listed chunk must be reachable through the kind index.
	inKind := make(map[string]bool)
	for _, ids := range index.ByKind {
		for _, id := range ids {
			inKind[id] = true
		}
	}
	for id := range listed {
		if !inKind[id] {
			report("chunk %s is missing from the byKind index", id)
		}
	}
}

// Rebuild reconstructs manifest and indices from the stored chunks.
// The original creation timestamp is preserved when the old manifest
// is still readable.
func (m *ManifestManager) Rebuild(ctx context.Context, projectID string) (*domain.ProjectManifest, error) {
	if projectID == "" {
		return nil, fmt.Errorf("rebuild manifest: %w: empty project id", domain.ErrInvalidInput)
	}
	chunks, err := m.store.LoadAllChunks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("rebuild manifest: load chunks: %w", err)
	}

	createdAt := time.Now()
	projectName := ""
	if old, err := m.store.LoadManifest(ctx, projectID); err == nil {
		createdAt = old.CreatedAt
		projectName = old.ProjectName
	}

	manifest := BuildManifest(projectID, projectName, chunks, createdAt)
	if err := m.saveManifest(ctx, projectID, manifest); err != nil {
		return nil, fmt.Errorf("rebuild manifest: %w", err)
	}
	logger.Info("Rebuilt manifest for %s: %d chunks", projectID, manifest.TotalChunks)
	return manifest, nil
}

// Update appends newly stored chunks to the manifest and rebuilds the
// indices over the combined set. Indices are cheap to rebuild and
// incremental index surgery is where corruption creeps in.
func (m *ManifestManager) Update(ctx context.Context, projectID string, newChunks []domain.Chunk) (*domain.ProjectManifest, error) {
	manifest, err := m.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("update manifest: %w", err)
	}

	for i := range newChunks {
		c := &newChunks[i]
		manifest.Chunks = append(manifest.Chunks, domain.ChunkSummary{
			ID:          c.ID,
			Kind:        c.Kind,
			TokenCount:  c.TokenCount,
			EntityCount: c.Metadata.EntityCount,
			Keywords:    chunkKeywords(c),
		})
		manifest.TotalEntities += c.Metadata.EntityCount
		manifest.TotalTokens += c.TokenCount
	}
	manifest.TotalChunks = len(manifest.Chunks)
	manifest.UpdatedAt = time.Now()

	all, err := m.store.LoadAllChunks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("update manifest: load chunks: %w", err)
	}
	manifest.Index = buildIndex(all)

	if err := m.saveManifest(ctx, projectID, manifest); err != nil {
		return nil, fmt.Errorf("update manifest: %w", err)
	}
	return manifest, nil
}

func (m *ManifestManager) saveManifest(ctx context.Context, projectID string, manifest *domain.ProjectManifest) error {
	if err := m.store.SaveManifest(ctx, manifest); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	if err := m.store.SaveIndex(ctx, projectID, &manifest.Index); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}
