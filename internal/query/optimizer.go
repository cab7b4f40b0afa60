package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// IndexName identifies one of the manifest's lookup indices.
type IndexName string

const (
	IndexByKind       IndexName = "byKind"
	IndexByEntityType IndexName = "byEntityType"
	IndexByFloor      IndexName = "byFloor"
	IndexBySystem     IndexName = "bySystem"
	IndexSpatial      IndexName = "spatial"
)

// PlanComplexity describes how a query will be resolved.
type PlanComplexity string

const (
	// PlanSingleIndex probes exactly one index.
	PlanSingleIndex PlanComplexity = "single-index"

	// PlanMultiIndex probes several indices and intersects.
	PlanMultiIndex PlanComplexity = "multi-index"

	// PlanFullScan considers every chunk in the manifest.
	PlanFullScan PlanComplexity = "full-scan"
)

// Fallback selectivities used when an index is empty. Entity-type
// lookups are typically the most selective; spatial extents overlap
// heavily and select broad.
var defaultSelectivity = map[IndexName]float64{
	IndexByKind:       0.5,
	IndexByEntityType: 0.3,
	IndexByFloor:      0.2,
	IndexBySystem:     0.25,
	IndexSpatial:      0.4,
}

// PlanStep is one index probe of a query plan.
type PlanStep struct {
	Index IndexName `json:"index"`

	// Keys are the index keys to probe. Floor numbers are carried
	// as their decimal string form.
	Keys []string `json:"keys"`

	// Selectivity estimates the fraction of chunks this step keeps.
	Selectivity float64 `json:"selectivity"`

	// EstimatedCost is the step's relative cost in chunk lookups.
	EstimatedCost float64 `json:"estimatedCost"`
}

// Plan is an ordered sequence of index probes. Steps are intersected:
// a chunk must survive every step to become a candidate.
type Plan struct {
	Complexity    PlanComplexity `json:"complexity"`
	Steps         []PlanStep     `json:"steps,omitempty"`
	EstimatedCost float64        `json:"estimatedCost"`
}

// Optimizer builds and resolves query plans against a chunk index.
// It is stateless and safe for concurrent use.
type Optimizer struct{}

// NewOptimizer returns a query optimizer.
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// Optimize derives a plan from the intent's active filters. One filter
// yields a single-index plan, several yield a multi-index plan with
// steps ordered by ascending selectivity (narrowest first), none
// yields a full scan. A wildcard entity filter does not count as a
// filter: it matches everything.
func (o *Optimizer) Optimize(intent domain.QueryIntent, index domain.ChunkIndex) Plan {
	var steps []PlanStep

	if types := concreteTypes(intent); len(types) > 0 {
		steps = append(steps, o.entityStep(types, index))
	}
	if len(intent.SpatialTerms) > 0 {
		steps = append(steps, o.spatialStep(intent.SpatialTerms, index))
	}
	if len(intent.SystemTerms) > 0 {
		steps = append(steps, o.systemStep(intent.SystemTerms, index))
	}

	if len(steps) == 0 {
		total := float64(totalIndexedChunks(index))
		return Plan{
			Complexity:    PlanFullScan,
			EstimatedCost: total,
		}
	}

	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Selectivity < steps[j].Selectivity
	})

	total := float64(totalIndexedChunks(index))
	cost := 0.0
	for i := range steps {
		// Later steps only narrow what earlier steps kept, but
		// each probe still pays a lookup overhead.
		steps[i].EstimatedCost = total * steps[i].Selectivity * (1 + 0.5*float64(i))
		cost += steps[i].EstimatedCost
	}

	complexity := PlanSingleIndex
	if len(steps) > 1 {
		complexity = PlanMultiIndex
	}
	return Plan{Complexity: complexity, Steps: steps, EstimatedCost: cost}
}

// Resolve executes a plan against the index and returns candidate
// chunk IDs. Multi-step plans intersect; a full scan returns every
// indexed chunk.
func (o *Optimizer) Resolve(plan Plan, index domain.ChunkIndex) []string {
	if plan.Complexity == PlanFullScan {
		return allIndexedChunks(index)
	}

	var results [][]string
	for _, step := range plan.Steps {
		results = append(results, o.probe(step, index))
	}
	return CombineIndexResults(OpAnd, results...)
}

// probe unions the ID lists behind a step's keys.
func (o *Optimizer) probe(step PlanStep, index domain.ChunkIndex) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(list []string) {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	switch step.Index {
	case IndexByEntityType:
		for _, k := range step.Keys {
			add(index.ByEntityType[k])
		}
	case IndexByFloor:
		for _, k := range step.Keys {
			if n, err := strconv.Atoi(k); err == nil {
				add(index.ByFloor[n])
			}
		}
	case IndexBySystem:
		for _, k := range step.Keys {
			add(index.BySystem[k])
		}
	case IndexByKind:
		for _, k := range step.Keys {
			add(index.ByKind[domain.ChunkKind(k)])
		}
	case IndexSpatial:
		for _, e := range index.Spatial {
			add([]string{e.ChunkID})
		}
	}
	return ids
}

func (o *Optimizer) entityStep(types []string, index domain.ChunkIndex) PlanStep {
	return PlanStep{
		Index:       IndexByEntityType,
		Keys:        types,
		Selectivity: estimateSelectivity(IndexByEntityType, len(types), entityTypeStats(index)),
	}
}

// spatialStep prefers the floor index when the terms name concrete
// floors; otherwise it falls back to the spatial extent index.
func (o *Optimizer) spatialStep(terms []string, index domain.ChunkIndex) PlanStep {
	floors := floorNumbers(terms)
	if len(floors) > 0 {
		keys := make([]string, len(floors))
		for i, f := range floors {
			keys[i] = strconv.Itoa(f)
		}
		return PlanStep{
			Index:       IndexByFloor,
			Keys:        keys,
			Selectivity: estimateSelectivity(IndexByFloor, len(keys), floorStats(index)),
		}
	}
	return PlanStep{
		Index:       IndexSpatial,
		Keys:        terms,
		Selectivity: defaultSelectivity[IndexSpatial],
	}
}

func (o *Optimizer) systemStep(terms []string, index domain.ChunkIndex) PlanStep {
	// Only discipline names are index keys; matched raw keywords
	// stay in the intent for scoring.
	var keys []string
	for _, t := range terms {
		if _, ok := systemCharacteristicTypes[t]; ok {
			keys = append(keys, t)
		}
	}
	if len(keys) == 0 {
		keys = terms
	}
	return PlanStep{
		Index:       IndexBySystem,
		Keys:        keys,
		Selectivity: estimateSelectivity(IndexBySystem, len(keys), systemStats(index)),
	}
}

// indexStats summarizes one index for selectivity estimation.
type indexStats struct {
	totalRefs  int
	uniqueKeys int
}

func estimateSelectivity(name IndexName, requestedKeys int, stats indexStats) float64 {
	if stats.uniqueKeys == 0 || stats.totalRefs == 0 {
		return defaultSelectivity[name]
	}
	avgPerKey := float64(stats.totalRefs) / float64(stats.uniqueKeys)
	s := avgPerKey * float64(requestedKeys) / float64(stats.totalRefs)
	if s > 1 {
		s = 1
	}
	return s
}

func entityTypeStats(index domain.ChunkIndex) indexStats {
	s := indexStats{uniqueKeys: len(index.ByEntityType)}
	for _, ids := range index.ByEntityType {
		s.totalRefs += len(ids)
	}
	return s
}

func floorStats(index domain.ChunkIndex) indexStats {
	s := indexStats{uniqueKeys: len(index.ByFloor)}
	for _, ids := range index.ByFloor {
		s.totalRefs += len(ids)
	}
	return s
}

func systemStats(index domain.ChunkIndex) indexStats {
	s := indexStats{uniqueKeys: len(index.BySystem)}
	for _, ids := range index.BySystem {
		s.totalRefs += len(ids)
	}
	return s
}

func concreteTypes(intent domain.QueryIntent) []string {
	if intent.HasWildcard() {
		return nil
	}
	return intent.EntityTypes
}

// floorNumbers parses storey numbers out of spatial terms. German
// "2. OG" counts above ground, "1. UG" below; the ground floor is 0.
func floorNumbers(terms []string) []int {
	seen := make(map[int]bool)
	var floors []int
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			floors = append(floors, n)
		}
	}

	for _, t := range terms {
		lower := strings.ToLower(t)
		if m := floorTermRe.FindStringSubmatch(lower); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if strings.Contains(m[2], "ug") || strings.Contains(m[2], "unter") {
				n = -n
			}
			add(n)
			continue
		}
		if m := floorPrefixRe.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[2]); err == nil {
				add(n)
			}
			continue
		}
		switch {
		case strings.Contains(lower, "erdgeschoss"), lower == "eg", strings.Contains(lower, "ground floor"):
			add(0)
		case strings.Contains(lower, "keller"), strings.Contains(lower, "basement"):
			add(-1)
		}
	}
	return floors
}

func totalIndexedChunks(index domain.ChunkIndex) int {
	return len(allIndexedChunks(index))
}

func allIndexedChunks(index domain.ChunkIndex) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(list []string) {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	for _, kind := range []domain.ChunkKind{
		domain.ChunkSpatial, domain.ChunkSystem, domain.ChunkElementType, domain.ChunkHybrid,
	} {
		add(index.ByKind[kind])
	}
	for _, list := range mapValuesSorted(index.ByEntityType) {
		add(list)
	}
	return ids
}

// mapValuesSorted returns the map's value lists in key order so the
// full-scan candidate order is deterministic.
func mapValuesSorted(m map[string][]string) [][]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lists := make([][]string, len(keys))
	for i, k := range keys {
		lists[i] = m[k]
	}
	return lists
}

// SetOp selects how index results combine.
type SetOp string

const (
	// OpAnd keeps IDs present in every result list.
	OpAnd SetOp = "and"

	// OpOr keeps IDs present in any result list.
	OpOr SetOp = "or"
)

// CombineIndexResults merges ID lists. AND preserves the first list's
// order; OR preserves first-appearance order. No input yields nil.
func CombineIndexResults(op SetOp, results ...[]string) []string {
	if len(results) == 0 {
		return nil
	}
	if len(results) == 1 {
		return append([]string(nil), results[0]...)
	}

	if op == OpOr {
		seen := make(map[string]bool)
		var out []string
		for _, list := range results {
			for _, id := range list {
				if !seen[id] {
					seen[id] = true
					out = append(out, id)
				}
			}
		}
		return out
	}

	counts := make(map[string]int)
	for _, list := range results[1:] {
		seen := make(map[string]bool)
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				counts[id]++
			}
		}
	}
	need := len(results) - 1
	var out []string
	emitted := make(map[string]bool)
	for _, id := range results[0] {
		if counts[id] == need && !emitted[id] {
			emitted[id] = true
			out = append(out, id)
		}
	}
	return out
}

// DefaultBatchSize is the chunk-load batch size used when none is
// configured.
const DefaultBatchSize = 50

// Batches beyond this count are worth loading concurrently.
const parallelBatchThreshold = 3

// LoadingPlan tells the loader how to fetch candidate chunks.
type LoadingPlan struct {
	Batches [][]string `json:"batches"`

	// Parallel signals that batches may be fetched concurrently.
	Parallel bool `json:"parallel"`

	// ScoreThreshold lets the loader stop early once enough
	// high-scoring chunks are in hand.
	ScoreThreshold float64 `json:"scoreThreshold"`
}

// CreateLoadingPlan splits candidate IDs into load batches. A
// non-positive batch size falls back to DefaultBatchSize.
func CreateLoadingPlan(ids []string, scoreThreshold float64, batchSize int) LoadingPlan {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	var batches [][]string
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return LoadingPlan{
		Batches:        batches,
		Parallel:       len(batches) > parallelBatchThreshold,
		ScoreThreshold: scoreThreshold,
	}
}
