package strategies

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/tokens"
)

// commonPropertyThreshold is the minimum fraction of a group's
// entities that must carry a property for it to count as common.
const commonPropertyThreshold = 0.5

// ElementType groups entities by exact schema type and greedily fills
// chunks up to the target token size. A single entity is never split
// across chunks.
type ElementType struct{}

// NewElementType creates the basic element-type strategy.
func NewElementType() *ElementType {
	return &ElementType{}
}

// Name returns the strategy tag.
func (s *ElementType) Name() string { return "elementtype" }

// CanProcess returns true for any non-empty entity set.
func (s *ElementType) CanProcess(entities []domain.Entity) bool {
	return len(entities) > 0
}

// Process emits greedily filled chunks per entity type.
func (s *ElementType) Process(ctx context.Context, entities []domain.Entity, projectID string, opts domain.SizeOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	opts = opts.Normalize()

	var result Result
	index := 0
	for _, entityType := range groupOrder(entities) {
		group := ofType(entities, entityType)
		rendered := make([]string, len(group))
		for i := range group {
			rendered[i] = renderEntity(&group[i])
		}

		for _, batch := range fillBatches(group, rendered, opts.TargetTokenSize) {
			chunk := s.buildChunk(projectID, entityType, index, batch.members, batch.texts)
			result.Chunks = append(result.Chunks, chunk)
			index++
		}
	}

	return result, nil
}

// batch is one greedy fill of entities and their rendered texts.
type batch struct {
	members []domain.Entity
	texts   []string
}

// fillBatches accumulates entities until adding the next one would
// push the rendered-token sum past target. An entity whose own text
// exceeds the target still gets a batch of its own.
func fillBatches(group []domain.Entity, rendered []string, target int) []batch {
	var batches []batch
	var current batch
	currentTokens := 0

	for i := range group {
		entityTokens := tokens.Estimate(rendered[i])
		if len(current.members) > 0 && currentTokens+entityTokens > target {
			batches = append(batches, current)
			current = batch{}
			currentTokens = 0
		}
		current.members = append(current.members, group[i])
		current.texts = append(current.texts, rendered[i])
		currentTokens += entityTokens
	}
	if len(current.members) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func (s *ElementType) buildChunk(projectID, entityType string, index int, members []domain.Entity, texts []string) domain.Chunk {
	stats := computeGroupStats(members)

	var b strings.Builder
	fmt.Fprintf(&b, "Element type: %s. %d elements.\n", entityType, len(members))
	for _, text := range texts {
		b.WriteString(text)
		b.WriteString("\n")
	}

	summary := fmt.Sprintf(
		"%d %s elements (%.0f%% named, %d object types, %.0f%% described)",
		len(members), entityType,
		stats.namedRatio*100, stats.objectTypeCount, stats.describedRatio*100,
	)

	meta := domain.ChunkMetadata{
		EntityTypes:      []string{entityType},
		EntityCount:      len(members),
		EntityIDs:        entityIDs(members),
		BoundingBox:      combinedBoundingBox(members),
		CommonProperties: commonProperties(members),
	}

	return newChunk(projectID, s.Name(), domain.ChunkElementType, index, b.String(), summary, meta, domain.SchemaBasic)
}

// groupStats are per-chunk descriptive statistics.
type groupStats struct {
	namedRatio      float64
	describedRatio  float64
	objectTypeCount int
}

func computeGroupStats(members []domain.Entity) groupStats {
	if len(members) == 0 {
		return groupStats{}
	}
	named := 0
	described := 0
	objectTypes := make(map[string]bool)
	for i := range members {
		if members[i].Name != "" {
			named++
		}
		if members[i].Description != "" {
			described++
		}
		if members[i].ObjectType != "" {
			objectTypes[members[i].ObjectType] = true
		}
	}
	return groupStats{
		namedRatio:      float64(named) / float64(len(members)),
		describedRatio:  float64(described) / float64(len(members)),
		objectTypeCount: len(objectTypes),
	}
}

// commonProperties lists property names present in at least half of
// the group's entities, sorted for determinism.
func commonProperties(members []domain.Entity) []string {
	if len(members) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for i := range members {
		for key := range members[i].Properties {
			counts[key]++
		}
	}
	// Ceiling, so 1 of 3 (33%) never clears the 50% bar.
	threshold := int(math.Ceil(commonPropertyThreshold * float64(len(members))))
	if threshold < 1 {
		threshold = 1
	}
	var common []string
	for key, count := range counts {
		if count >= threshold {
			common = append(common, key)
		}
	}
	sort.Strings(common)
	return common
}

// groupOrder returns distinct entity types in first-seen order so
// chunk indices stay deterministic for a given snapshot.
func groupOrder(entities []domain.Entity) []string {
	seen := make(map[string]bool)
	var order []string
	for i := range entities {
		if !seen[entities[i].Type] {
			seen[entities[i].Type] = true
			order = append(order, entities[i].Type)
		}
	}
	return order
}

// ofType filters entities by exact type, preserving order.
func ofType(entities []domain.Entity, entityType string) []domain.Entity {
	var group []domain.Entity
	for i := range entities {
		if entities[i].Type == entityType {
			group = append(group, entities[i])
		}
	}
	return group
}
