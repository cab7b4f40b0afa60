package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/core/ports/driven"
	"github.com/vantera-labs/bimctx/internal/core/ports/driving"
	"github.com/vantera-labs/bimctx/internal/logger"
	"github.com/vantera-labs/bimctx/internal/strategies"
	"github.com/vantera-labs/bimctx/internal/tokens"
)

// Ensure ChunkerService implements the interface.
var _ driving.ChunkingService = (*ChunkerService)(nil)

// StrategyFactory builds the strategy set for one processing run.
// Building per run keeps extractor caches scoped to the run: entities
// re-read from a changed model never hit stale memoized attributes.
type StrategyFactory func() []strategies.Strategy

// ChunkerService orchestrates the chunking strategies over a model
// snapshot and persists the result.
type ChunkerService struct {
	store   driven.ChunkStore
	factory StrategyFactory
}

// NewChunkerService creates a chunker. The factory is invoked once per
// ProcessModel call; a nil factory means an empty strategy set.
func NewChunkerService(store driven.ChunkStore, factory StrategyFactory) *ChunkerService {
	return &ChunkerService{store: store, factory: factory}
}

// ProcessModel runs every applicable strategy, deduplicates and
// size-bounds the combined output, then persists chunks, manifest and
// indices. Strategy failures degrade to warnings; only persistence
// and input validation fail the run.
func (s *ChunkerService) ProcessModel(
	ctx context.Context, projectID, projectName string,
	snapshot *domain.ModelSnapshot, opts domain.SizeOptions,
) (*domain.ChunkingResult, error) {
	start := time.Now()
	if projectID == "" {
		return nil, fmt.Errorf("process model: %w: empty project id", domain.ErrInvalidInput)
	}
	opts = opts.Normalize()

	logger.Section("Model Processing")
	var entities []domain.Entity
	if snapshot != nil {
		entities = snapshot.Entities
	}
	logger.Debug("Project: %s, entities: %d", projectID, len(entities))

	var set []strategies.Strategy
	if s.factory != nil {
		set = s.factory()
	}

	var chunks []domain.Chunk
	var warnings []string
	for _, strat := range set {
		if !strat.CanProcess(entities) {
			logger.Debug("Strategy %s skipped: not applicable", strat.Name())
			continue
		}
		result, err := s.runStrategy(ctx, strat, entities, projectID, opts)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("strategy %s failed: %v", strat.Name(), err))
			continue
		}
		logger.Debug("Strategy %s produced %d chunks", strat.Name(), len(result.Chunks))
		chunks = append(chunks, result.Chunks...)
		warnings = append(warnings, result.Warnings...)
	}

	if len(chunks) == 0 && len(entities) > 0 {
		warnings = append(warnings, "no strategy produced chunks, falling back to type-grouped dump")
		chunks = fallbackChunks(entities, projectID)
	}

	chunks, dropped := dedupeChunks(chunks)
	if dropped > 0 {
		logger.Debug("Dropped %d duplicate chunks", dropped)
	}
	chunks = splitOversized(chunks, opts.MaxTokenSize, opts.TargetTokenSize)

	manifest := BuildManifest(projectID, projectName, chunks, start)

	if err := s.persist(ctx, projectID, projectName, chunks, manifest); err != nil {
		return nil, fmt.Errorf("process model: %w", err)
	}

	duration := time.Since(start)
	logger.Timing("model processing", duration)
	return &domain.ChunkingResult{
		Chunks:   chunks,
		Manifest: manifest,
		Warnings: warnings,
		Duration: duration,
	}, nil
}

// runStrategy isolates one strategy run. A panicking strategy must
// not take down the whole processing pass.
func (s *ChunkerService) runStrategy(
	ctx context.Context, strat strategies.Strategy,
	entities []domain.Entity, projectID string, opts domain.SizeOptions,
) (result strategies.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return strat.Process(ctx, entities, projectID, opts)
}

func (s *ChunkerService) persist(
	ctx context.Context, projectID, projectName string,
	chunks []domain.Chunk, manifest *domain.ProjectManifest,
) error {
	if err := s.store.CreateProject(ctx, projectID, projectName); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	if err := s.store.DeleteChunks(ctx, projectID); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}
	if err := s.store.SaveChunks(ctx, projectID, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	if err := s.store.SaveManifest(ctx, manifest); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	if err := s.store.SaveIndex(ctx, projectID, &manifest.Index); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

// fallbackChunks renders all entities into one hybrid chunk grouped
// by type, so a model never ends up unqueryable.
func fallbackChunks(entities []domain.Entity, projectID string) []domain.Chunk {
	byType := make(map[string][]domain.Entity)
	var order []string
	for _, e := range entities {
		if _, ok := byType[e.Type]; !ok {
			order = append(order, e.Type)
		}
		byType[e.Type] = append(byType[e.Type], e)
	}

	var b strings.Builder
	types := make([]string, 0, len(order))
	ids := make([]int, 0, len(entities))
	for _, t := range order {
		group := byType[t]
		fmt.Fprintf(&b, "%s (%d):\n", t, len(group))
		for i := range group {
			fmt.Fprintf(&b, "#%d %s\n", group[i].ExpressID, group[i].DisplayName())
			ids = append(ids, group[i].ExpressID)
		}
		types = append(types, t)
	}

	content := b.String()
	now := time.Now()
	return []domain.Chunk{{
		ID:        fmt.Sprintf("%s-fallback-0-%d", projectID, now.UnixMilli()),
		ProjectID: projectID,
		Kind:      domain.ChunkHybrid,
		Content:   content,
		Summary:   fmt.Sprintf("All %d entities grouped by type", len(entities)),
		Metadata: domain.ChunkMetadata{
			EntityTypes: types,
			EntityCount: len(entities),
			EntityIDs:   ids,
		},
		TokenCount:    tokens.Estimate(content),
		CreatedAt:     now,
		SchemaVersion: domain.SchemaBasic,
	}}
}

// dedupeChunks removes chunks with identical content, keeping the
// first occurrence. Different strategies can legitimately render the
// same group of entities the same way.
func dedupeChunks(chunks []domain.Chunk) ([]domain.Chunk, int) {
	seen := make(map[[16]byte]bool, len(chunks))
	out := chunks[:0]
	dropped := 0
	for _, c := range chunks {
		h := contentHash(c.Content)
		if seen[h] {
			dropped++
			continue
		}
		seen[h] = true
		out = append(out, c)
	}
	return out, dropped
}

func contentHash(content string) [16]byte {
	h := fnv.New128a()
	h.Write([]byte(content))
	var sum [16]byte
	h.Sum(sum[:0])
	return sum
}

// splitOversized replaces chunks above the hard limit with parts
// produced by the sentence-aware splitter. Part IDs derive from the
// original ID so provenance stays visible.
func splitOversized(chunks []domain.Chunk, maxTokens, targetTokens int) []domain.Chunk {
	var out []domain.Chunk
	for _, c := range chunks {
		if c.TokenCount <= maxTokens {
			out = append(out, c)
			continue
		}
		parts := tokens.SplitByLimit(c.Content, targetTokens)
		if len(parts) <= 1 {
			out = append(out, c)
			continue
		}
		for i, part := range parts {
			pc := c
			pc.ID = fmt.Sprintf("%s-split-%d", c.ID, i)
			pc.Content = part
			pc.Summary = fmt.Sprintf("%s (Part %d/%d)", c.Summary, i+1, len(parts))
			pc.TokenCount = tokens.Estimate(part)
			out = append(out, pc)
		}
	}
	return out
}
