package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vantera-labs/bimctx/internal/assemble"
	"github.com/vantera-labs/bimctx/internal/budget"
	"github.com/vantera-labs/bimctx/internal/cache"
	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/core/ports/driven"
	"github.com/vantera-labs/bimctx/internal/core/ports/driving"
	"github.com/vantera-labs/bimctx/internal/logger"
	"github.com/vantera-labs/bimctx/internal/query"
	"github.com/vantera-labs/bimctx/internal/ranking"
)

// Ensure ContextBuilder implements the interface.
var _ driving.ContextService = (*ContextBuilder)(nil)

// Early-termination bounds for batched chunk loading: stop once more
// than highQualityMinCount chunks score above highQualityScore and
// together exceed highQualityBudgetFactor times the context budget.
const (
	highQualityScore        = 0.7
	highQualityMinCount     = 10
	highQualityBudgetFactor = 1.5
)

// ContextBuilder answers free-text queries by running the retrieval
// pipeline over a project's persisted chunks.
type ContextBuilder struct {
	store     driven.ChunkStore
	analyzer  *query.Analyzer
	optimizer *query.Optimizer
	assembler *assemble.Assembler
	cache     *cache.Cache
	weights   ranking.Weights
}

// NewContextBuilder creates a context builder. The cache is optional;
// nil disables result caching.
func NewContextBuilder(store driven.ChunkStore, resultCache *cache.Cache) *ContextBuilder {
	return &ContextBuilder{
		store:     store,
		analyzer:  query.NewAnalyzer(),
		optimizer: query.NewOptimizer(),
		assembler: assemble.NewAssembler(),
		cache:     resultCache,
		weights:   ranking.DefaultWeights(),
	}
}

// SetWeights overrides the scoring weights.
func (b *ContextBuilder) SetWeights(w ranking.Weights) {
	b.weights = w
}

// InvalidateProject drops the project's cached manifest and chunks.
// The next query reloads everything from the store.
func (b *ContextBuilder) InvalidateProject(projectID string) {
	if b.cache != nil {
		b.cache.Invalidate(projectID)
	}
}

// BuildContext runs intent analysis, candidate retrieval, batched
// loading, scoring, budget selection and assembly for one query.
func (b *ContextBuilder) BuildContext(ctx context.Context, req domain.ContextRequest) (*domain.ContextResult, error) {
	start := time.Now()
	if req.ProjectID == "" {
		return nil, fmt.Errorf("build context: %w: empty project id", domain.ErrInvalidInput)
	}
	if req.Query == "" {
		return nil, fmt.Errorf("build context: %w: empty query", domain.ErrInvalidInput)
	}

	logger.Section("Context Pipeline")
	logger.Debug("Query: %q", req.Query)

	manifest, err := b.loadManifest(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	intent := b.analyzer.Analyze(req.Query)
	logger.Debug("Intent: %s (confidence %.2f), types %v", intent.Kind, intent.Confidence, intent.EntityTypes)

	plan := b.optimizer.Optimize(intent, manifest.Index)
	candidates := b.optimizer.Resolve(plan, manifest.Index)
	logger.Debug("Plan: %s, %d candidates", plan.Complexity, len(candidates))

	alloc := budget.Allocate(req.MaxTokens, queryComplexity(intent))
	logger.Debug("Budget: %d for context, strategy %s", alloc.AvailableForContext, alloc.Strategy)

	scorer := ranking.NewScorer(b.weights)
	scorer.SetCorpusStats(manifest.TotalChunks, documentFrequencies(manifest))

	loaded, err := b.loadCandidates(ctx, req.ProjectID, candidates, intent, scorer, alloc)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	ranked := scorer.Rank(loaded, intent)
	selected, err := budget.Select(ranked, alloc)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}
	logger.Debug("Selected %d of %d loaded chunks", len(selected), len(loaded))

	opts := assemble.DefaultOptions()
	opts.Compact = req.Compact
	if req.Language != "" {
		opts.Language = assemble.Language(req.Language)
	}
	assembled := b.assembler.Assemble(selected, ranked, intent, opts)

	duration := time.Since(start)
	logger.Timing("context pipeline", duration)
	return &domain.ContextResult{
		Context:        assembled,
		Intent:         intent,
		Allocation:     alloc,
		CandidateCount: len(candidates),
		LoadedCount:    len(loaded),
		Duration:       duration,
	}, nil
}

func (b *ContextBuilder) loadManifest(ctx context.Context, projectID string) (*domain.ProjectManifest, error) {
	key := cache.Key{ProjectID: projectID, Kind: "manifest"}
	if b.cache != nil {
		if v, ok := b.cache.Get(key); ok {
			return v.(*domain.ProjectManifest), nil
		}
	}
	manifest, err := b.store.LoadManifest(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if b.cache != nil {
		b.cache.Put(key, manifest)
	}
	return manifest, nil
}

// loadCandidates fetches chunks batch by batch. Sequential plans stop
// early once enough high-quality chunks are in hand; parallel plans
// fetch all batches concurrently.
func (b *ContextBuilder) loadCandidates(
	ctx context.Context, projectID string, candidates []string,
	intent domain.QueryIntent, scorer *ranking.Scorer, alloc domain.BudgetAllocation,
) ([]domain.Chunk, error) {
	plan := query.CreateLoadingPlan(candidates, highQualityScore, query.DefaultBatchSize)
	if len(plan.Batches) == 0 {
		return nil, nil
	}

	if plan.Parallel {
		return b.loadParallel(ctx, projectID, plan.Batches)
	}

	var loaded []domain.Chunk
	highQualityCount := 0
	highQualityTokens := 0
	budgetCap := int(float64(alloc.AvailableForContext) * highQualityBudgetFactor)
	for _, batch := range plan.Batches {
		chunks, err := b.loadBatch(ctx, projectID, batch)
		if err != nil {
			return nil, err
		}
		for i := range chunks {
			score, _ := scorer.Score(&chunks[i], intent)
			if score > plan.ScoreThreshold {
				highQualityCount++
				highQualityTokens += chunks[i].TokenCount
			}
		}
		loaded = append(loaded, chunks...)
		if highQualityCount > highQualityMinCount && highQualityTokens > budgetCap {
			logger.Debug("Early termination after %d chunks", len(loaded))
			break
		}
	}
	return loaded, nil
}

func (b *ContextBuilder) loadParallel(ctx context.Context, projectID string, batches [][]string) ([]domain.Chunk, error) {
	results := make([][]domain.Chunk, len(batches))
	errs := make([]error, len(batches))
	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []string) {
			defer wg.Done()
			results[i], errs[i] = b.loadBatch(ctx, projectID, batch)
		}(i, batch)
	}
	wg.Wait()

	var loaded []domain.Chunk
	for i := range batches {
		if errs[i] != nil {
			return nil, errs[i]
		}
		loaded = append(loaded, results[i]...)
	}
	return loaded, nil
}

func (b *ContextBuilder) loadBatch(ctx context.Context, projectID string, ids []string) ([]domain.Chunk, error) {
	var missing []string
	var chunks []domain.Chunk
	if b.cache != nil {
		for _, id := range ids {
			if v, ok := b.cache.Get(cache.Key{ProjectID: projectID, Kind: "chunk", ID: id}); ok {
				chunks = append(chunks, v.(domain.Chunk))
			} else {
				missing = append(missing, id)
			}
		}
	} else {
		missing = ids
	}

	if len(missing) > 0 {
		fetched, err := b.store.LoadChunks(ctx, projectID, missing)
		if err != nil {
			return nil, fmt.Errorf("load chunk batch: %w", err)
		}
		if b.cache != nil {
			for _, c := range fetched {
				b.cache.Put(cache.Key{ProjectID: projectID, Kind: "chunk", ID: c.ID}, c)
			}
		}
		chunks = append(chunks, fetched...)
	}
	return chunks, nil
}

// queryComplexity maps an intent to the [0,1] scale the budget
// allocator expects. Each active filter adds complexity, a wildcard
// widens the search and adds a little more.
func queryComplexity(intent domain.QueryIntent) float64 {
	c := 0.2 + 0.2*float64(intent.FilterCount())
	if intent.HasWildcard() {
		c += 0.1
	}
	if len(intent.Keywords) > 3 {
		c += 0.1
	}
	if c > 1 {
		c = 1
	}
	return c
}

// documentFrequencies derives a per-term document frequency table
// from the manifest's chunk keywords.
func documentFrequencies(manifest *domain.ProjectManifest) map[string]int {
	df := make(map[string]int)
	for _, s := range manifest.Chunks {
		seen := make(map[string]bool, len(s.Keywords))
		for _, k := range s.Keywords {
			if !seen[k] {
				seen[k] = true
				df[k]++
			}
		}
	}
	return df
}
