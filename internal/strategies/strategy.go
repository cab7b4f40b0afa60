// Package strategies implements the interchangeable chunking
// algorithms that partition building-model entities into chunks.
//
// The strategy set is closed: spatial, system, element-type (basic or
// attribute-enhanced) and query-adaptive. The orchestrator dispatches
// over this explicit set; there is no ad hoc capability probing.
//
// Strategies never fail a whole run for one malformed entity: defective
// entities are skipped and reported as warnings.
package strategies

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/tokens"
)

// Strategy is the common chunking contract.
type Strategy interface {
	// Name returns the strategy tag used in chunk IDs and logs.
	Name() string

	// CanProcess is a cheap applicability check over the entity set.
	CanProcess(entities []domain.Entity) bool

	// Process partitions entities into chunks. Per-entity defects are
	// skipped and accumulated into Result.Warnings; an error aborts
	// only this strategy, never the whole run.
	Process(ctx context.Context, entities []domain.Entity, projectID string, opts domain.SizeOptions) (Result, error)
}

// Result is one strategy's output.
type Result struct {
	Chunks   []domain.Chunk
	Warnings []string
}

// Config selects the strategy set for a chunking run.
type Config struct {
	// EnhancedAttributes selects the attribute-enhanced element-type
	// variant instead of the basic one.
	EnhancedAttributes bool

	// Patterns overrides the query-adaptive pattern set. Nil means
	// the default four patterns.
	Patterns []QueryPattern
}

// Extractor is the attribute source strategies depend on. Satisfied
// by attributes.Extractor.
type Extractor interface {
	Extract(ctx context.Context, entity domain.Entity, opts ExtractOptions) (*domain.EnhancedEntity, error)
}

// ExtractOptions mirrors the attribute extractor's group selection,
// redeclared here so the strategy package does not depend on the
// extractor implementation.
type ExtractOptions struct {
	IncludeGeometry      bool
	IncludeMaterials     bool
	IncludeQuantities    bool
	IncludeRelationships bool
	IncludeCustom        bool
}

// Default returns the standard strategy set in execution order.
func Default(extractor Extractor, cfg Config) []Strategy {
	var elementType Strategy
	if cfg.EnhancedAttributes {
		elementType = NewEnhancedElementType(extractor)
	} else {
		elementType = NewElementType()
	}

	patterns := cfg.Patterns
	if patterns == nil {
		patterns = DefaultPatterns()
	}

	return []Strategy{
		NewSpatial(),
		NewSystem(),
		elementType,
		NewQueryAdaptive(extractor, patterns),
	}
}

// newChunk builds a chunk with the ID convention
// {projectId}-{strategyTag}-{index}-{creationTimestamp} and a token
// count taken from the estimator at creation time.
func newChunk(projectID, tag string, kind domain.ChunkKind, index int, content, summary string, meta domain.ChunkMetadata, schema int) domain.Chunk {
	now := time.Now()
	return domain.Chunk{
		ID:            fmt.Sprintf("%s-%s-%d-%d", projectID, tag, index, now.UnixMilli()),
		ProjectID:     projectID,
		Kind:          kind,
		Content:       content,
		Summary:       summary,
		Metadata:      meta,
		TokenCount:    tokens.Estimate(content),
		CreatedAt:     now,
		SchemaVersion: schema,
	}
}

// renderEntity produces the basic one-entity text block: type, ID,
// name, object type, description and a bounded property listing.
func renderEntity(e *domain.Entity) string {
	var b strings.Builder
	b.WriteString(e.Type)
	fmt.Fprintf(&b, " #%d", e.ExpressID)
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.ObjectType != "" {
		fmt.Fprintf(&b, " (%s)", e.ObjectType)
	}
	if e.Description != "" {
		b.WriteString(": ")
		b.WriteString(e.Description)
	}

	if len(e.Properties) > 0 {
		keys := sortedPropertyKeys(e.Properties)
		if len(keys) > 8 {
			keys = keys[:8]
		}
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Properties[k]))
		}
		b.WriteString(". ")
		b.WriteString(strings.Join(parts, ", "))
	}
	b.WriteString(".")
	return b.String()
}

func sortedPropertyKeys(props map[string]any) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// entityTypes collects the distinct types of a group, sorted for
// deterministic chunk content and metadata.
func entityTypes(entities []domain.Entity) []string {
	seen := make(map[string]bool)
	var types []string
	for i := range entities {
		if !seen[entities[i].Type] {
			seen[entities[i].Type] = true
			types = append(types, entities[i].Type)
		}
	}
	sort.Strings(types)
	return types
}

// entityIDs collects express IDs in input order.
func entityIDs(entities []domain.Entity) []int {
	ids := make([]int, len(entities))
	for i := range entities {
		ids[i] = entities[i].ExpressID
	}
	return ids
}

// combinedBoundingBox unions the entities' boxes, nil when none carries one.
func combinedBoundingBox(entities []domain.Entity) *domain.BoundingBox {
	var combined *domain.BoundingBox
	for i := range entities {
		box := entities[i].BoundingBox
		if box == nil {
			continue
		}
		if combined == nil {
			c := *box
			combined = &c
			continue
		}
		combined.Min.X = min(combined.Min.X, box.Min.X)
		combined.Min.Y = min(combined.Min.Y, box.Min.Y)
		combined.Min.Z = min(combined.Min.Z, box.Min.Z)
		combined.Max.X = max(combined.Max.X, box.Max.X)
		combined.Max.Y = max(combined.Max.Y, box.Max.Y)
		combined.Max.Z = max(combined.Max.Z, box.Max.Z)
	}
	return combined
}

// typeCounts tallies entity types, returned sorted by descending count.
type typeCount struct {
	entityType string
	count      int
}

func typeCounts(entities []domain.Entity) []typeCount {
	counts := make(map[string]int)
	for i := range entities {
		counts[entities[i].Type]++
	}
	result := make([]typeCount, 0, len(counts))
	for entityType, count := range counts {
		result = append(result, typeCount{entityType, count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].count != result[j].count {
			return result[i].count > result[j].count
		}
		return result[i].entityType < result[j].entityType
	})
	return result
}
