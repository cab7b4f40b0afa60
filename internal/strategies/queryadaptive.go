package strategies

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/tokens"
)

// minPatternChunkTokens drops pattern chunks too small to be useful.
const minPatternChunkTokens = 100

// spatialBucketSize buckets express IDs for proximity grouping.
const spatialBucketSize = 1000

// GroupingKind names a pattern's grouping function.
type GroupingKind string

const (
	// GroupByMaterial clusters entities by primary material name.
	GroupByMaterial GroupingKind = "material"

	// GroupBySpatialBucket clusters entities by express-ID bucket.
	GroupBySpatialBucket GroupingKind = "spatial-bucket"

	// GroupBySystem clusters entities by discipline classification.
	GroupBySystem GroupingKind = "system"

	// GroupFlat keeps all entities in one group.
	GroupFlat GroupingKind = "flat"
)

// RenderKind names a pattern's content renderer.
type RenderKind string

const (
	// RenderMaterialVolumes emits a material-volume breakdown with
	// per-type subtotals.
	RenderMaterialVolumes RenderKind = "material-volumes"

	// RenderSpatialQuantities emits a quantity summary per entity type.
	RenderSpatialQuantities RenderKind = "spatial-quantities"

	// RenderCostEstimate emits a rough cost estimate from the
	// per-material cost table.
	RenderCostEstimate RenderKind = "cost-estimate"

	// RenderTypeCounts emits a generic type-count listing.
	RenderTypeCounts RenderKind = "type-counts"
)

// QueryPattern describes one anticipated query shape the adaptive
// strategy pre-chunks for.
type QueryPattern struct {
	// ID tags the produced chunks' metadata.
	ID string

	// Name is the display name used in summaries.
	Name string

	// Frequency is a usage weight in [0,1]. Currently only a hint for
	// future pattern re-ranking; no auto-tuning happens.
	Frequency float64

	// Attributes are the extractor groups this pattern needs.
	Attributes ExtractOptions

	// EntityTypes restricts the pattern to these types. Empty means
	// all entities.
	EntityTypes []string

	// SpatialContext marks patterns whose grouping is spatial.
	SpatialContext bool

	// SystemContext marks patterns whose grouping is by discipline.
	SystemContext bool

	// Grouping selects the grouping function.
	Grouping GroupingKind

	// Render selects the content renderer.
	Render RenderKind
}

// DefaultPatterns ships the four standard query patterns.
func DefaultPatterns() []QueryPattern {
	return []QueryPattern{
		{
			ID:         "volume-by-material",
			Name:       "Volume by material",
			Frequency:  0.8,
			Attributes: ExtractOptions{IncludeGeometry: true, IncludeMaterials: true},
			Grouping:   GroupByMaterial,
			Render:     RenderMaterialVolumes,
		},
		{
			ID:             "spatial-quantities",
			Name:           "Spatial quantities",
			Frequency:      0.6,
			Attributes:     ExtractOptions{IncludeGeometry: true, IncludeQuantities: true},
			SpatialContext: true,
			Grouping:       GroupBySpatialBucket,
			Render:         RenderSpatialQuantities,
		},
		{
			ID:         "cost-analysis",
			Name:       "Cost analysis",
			Frequency:  0.4,
			Attributes: ExtractOptions{IncludeGeometry: true, IncludeMaterials: true},
			Grouping:   GroupByMaterial,
			Render:     RenderCostEstimate,
		},
		{
			ID:            "system-components",
			Name:          "System components",
			Frequency:     0.5,
			SystemContext: true,
			Grouping:      GroupBySystem,
			Render:        RenderTypeCounts,
		},
	}
}

// costPerCubicMeter maps material keywords to rough unit costs (EUR/m³).
var costPerCubicMeter = []struct {
	keyword string
	cost    float64
}{
	{"beton", 120},
	{"concrete", 120},
	{"stahl", 800},
	{"steel", 800},
	{"holz", 450},
	{"wood", 450},
	{"timber", 450},
	{"glas", 900},
	{"glass", 900},
	{"ziegel", 200},
	{"brick", 200},
}

// defaultCostPerCubicMeter is the fallback unit cost.
const defaultCostPerCubicMeter = 300.0

func lookupCost(material string) float64 {
	lower := strings.ToLower(material)
	for _, entry := range costPerCubicMeter {
		if strings.Contains(lower, entry.keyword) {
			return entry.cost
		}
	}
	return defaultCostPerCubicMeter
}

// QueryAdaptive pre-chunks entities along anticipated query shapes.
type QueryAdaptive struct {
	extractor Extractor

	mu       sync.RWMutex
	patterns []QueryPattern
}

// NewQueryAdaptive creates the query-adaptive strategy.
func NewQueryAdaptive(extractor Extractor, patterns []QueryPattern) *QueryAdaptive {
	return &QueryAdaptive{extractor: extractor, patterns: patterns}
}

// Name returns the strategy tag.
func (s *QueryAdaptive) Name() string { return "adaptive" }

// Patterns returns the current pattern set.
func (s *QueryAdaptive) Patterns() []QueryPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patterns
}

// UpdatePatterns replaces the pattern set. Hook for future
// usage-frequency re-ranking; nothing re-ranks automatically today.
func (s *QueryAdaptive) UpdatePatterns(patterns []QueryPattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = patterns
}

// CanProcess returns true for any non-empty entity set.
func (s *QueryAdaptive) CanProcess(entities []domain.Entity) bool {
	return len(entities) > 0
}

// Process runs every pattern over the (filtered) entity set.
func (s *QueryAdaptive) Process(ctx context.Context, entities []domain.Entity, projectID string, opts domain.SizeOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var result Result
	index := 0
	for _, pattern := range s.Patterns() {
		filtered := filterByAllowList(entities, pattern.EntityTypes)
		if len(filtered) == 0 {
			continue
		}

		enhanced, warnings := s.extractForPattern(ctx, filtered, pattern.Attributes)
		result.Warnings = append(result.Warnings, warnings...)

		groups := groupForPattern(pattern.Grouping, enhanced)
		labels := make([]string, 0, len(groups))
		for label := range groups {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		for _, label := range labels {
			group := groups[label]
			content := renderPattern(pattern, label, group)
			if tokens.Estimate(content) < minPatternChunkTokens {
				continue
			}

			members := make([]domain.Entity, len(group))
			for i, e := range group {
				members[i] = e.Entity
			}

			meta := domain.ChunkMetadata{
				EntityTypes:  entityTypes(members),
				EntityCount:  len(members),
				EntityIDs:    entityIDs(members),
				QueryPattern: pattern.ID,
			}
			if pattern.SystemContext {
				meta.System = label
			}

			summary := fmt.Sprintf("%s: %s (%d elements)", pattern.Name, label, len(members))
			result.Chunks = append(result.Chunks, newChunk(
				projectID, s.Name(), domain.ChunkHybrid, index, content, summary, meta, domain.SchemaEnhanced,
			))
			index++
		}
	}

	return result, nil
}

func filterByAllowList(entities []domain.Entity, allow []string) []domain.Entity {
	if len(allow) == 0 {
		return entities
	}
	allowed := make(map[string]bool, len(allow))
	for _, t := range allow {
		allowed[t] = true
	}
	var filtered []domain.Entity
	for i := range entities {
		if allowed[entities[i].Type] {
			filtered = append(filtered, entities[i])
		}
	}
	return filtered
}

// extractForPattern extracts only the attribute groups the pattern
// declares it needs. Failures degrade to the raw entity.
func (s *QueryAdaptive) extractForPattern(ctx context.Context, entities []domain.Entity, opts ExtractOptions) ([]*domain.EnhancedEntity, []string) {
	enhanced := make([]*domain.EnhancedEntity, len(entities))
	var warnings []string

	if opts == (ExtractOptions{}) {
		for i := range entities {
			enhanced[i] = &domain.EnhancedEntity{Entity: entities[i]}
		}
		return enhanced, nil
	}

	errs := make([]error, len(entities))
	var wg sync.WaitGroup
	wg.Add(len(entities))
	for i := range entities {
		go func(i int) {
			defer wg.Done()
			enhanced[i], errs[i] = s.extractor.Extract(ctx, entities[i], opts)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			warnings = append(warnings, fmt.Sprintf(
				"adaptive: attribute extraction failed for entity #%d: %v", entities[i].ExpressID, err))
			enhanced[i] = &domain.EnhancedEntity{Entity: entities[i]}
		}
	}
	return enhanced, warnings
}

// groupForPattern applies the pattern's grouping function. Keys are
// stable labels; iteration order is made deterministic by the caller's
// sorted traversal below.
func groupForPattern(kind GroupingKind, entities []*domain.EnhancedEntity) map[string][]*domain.EnhancedEntity {
	groups := make(map[string][]*domain.EnhancedEntity)
	for _, e := range entities {
		var label string
		switch kind {
		case GroupByMaterial:
			label = "unknown"
			if mat := e.PrimaryMaterial(); mat != nil {
				label = mat.Name
			}
		case GroupBySpatialBucket:
			label = fmt.Sprintf("area-%d", e.ExpressID/spatialBucketSize)
		case GroupBySystem:
			label = ClassifySystem(e.Type)
			if label == "" {
				continue
			}
		default:
			label = "all"
		}
		groups[label] = append(groups[label], e)
	}
	return groups
}

// renderPattern dispatches to the pattern's renderer.
func renderPattern(pattern QueryPattern, label string, group []*domain.EnhancedEntity) string {
	switch pattern.Render {
	case RenderMaterialVolumes:
		return renderMaterialVolumes(label, group)
	case RenderSpatialQuantities:
		return renderSpatialQuantities(label, group)
	case RenderCostEstimate:
		return renderCostEstimate(label, group)
	default:
		return renderTypeCountListing(label, group)
	}
}

// renderMaterialVolumes emits the material's total volume with
// per-entity-type subtotals.
func renderMaterialVolumes(material string, group []*domain.EnhancedEntity) string {
	var b strings.Builder
	total := 0.0
	byType := make(map[string]float64)
	countByType := make(map[string]int)
	for _, e := range group {
		if e.Geometry != nil {
			total += e.Geometry.Volume
			byType[e.Type] += e.Geometry.Volume
		}
		countByType[e.Type]++
	}

	fmt.Fprintf(&b, "Material: %s. %d elements, total volume %.2f m³.\n", material, len(group), total)
	for _, entityType := range sortedKeys(byType) {
		fmt.Fprintf(&b, "%s: %d elements, %.2f m³.\n", entityType, countByType[entityType], byType[entityType])
	}
	return b.String()
}

// renderSpatialQuantities emits a per-entity-type quantity summary for
// one spatial bucket.
func renderSpatialQuantities(area string, group []*domain.EnhancedEntity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Spatial group %s: %d elements.\n", area, len(group))

	type totals struct {
		count  int
		volume float64
		area   float64
		length float64
	}
	byType := make(map[string]*totals)
	for _, e := range group {
		t := byType[e.Type]
		if t == nil {
			t = &totals{}
			byType[e.Type] = t
		}
		t.count++
		if e.Geometry != nil {
			t.volume += e.Geometry.Volume
			t.area += e.Geometry.Area
			t.length += e.Geometry.Length
		}
	}

	var keys []string
	for k := range byType {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, entityType := range keys {
		t := byType[entityType]
		fmt.Fprintf(&b, "%s: %d elements, volume %.2f m³, area %.2f m², length %.2f m.\n",
			entityType, t.count, t.volume, t.area, t.length)
	}
	return b.String()
}

// renderCostEstimate emits a rough cost figure from material volume
// and the unit-cost table.
func renderCostEstimate(material string, group []*domain.EnhancedEntity) string {
	var b strings.Builder
	volume := 0.0
	for _, e := range group {
		if e.Geometry != nil {
			volume += e.Geometry.Volume
		}
	}
	unitCost := lookupCost(material)
	estimate := volume * unitCost

	fmt.Fprintf(&b, "Cost estimate for %s: %d elements, %.2f m³ at %.0f EUR/m³ = %.0f EUR (rough estimate).\n",
		material, len(group), volume, unitCost, estimate)
	for _, tc := range typeCountsEnhanced(group) {
		fmt.Fprintf(&b, "%s: %d elements.\n", tc.entityType, tc.count)
	}
	return b.String()
}

// renderTypeCountListing is the generic fallback renderer.
func renderTypeCountListing(label string, group []*domain.EnhancedEntity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Group %s: %d elements.\n", label, len(group))
	for _, tc := range typeCountsEnhanced(group) {
		fmt.Fprintf(&b, "%s: %d elements.\n", tc.entityType, tc.count)
	}
	for _, e := range group {
		name := e.DisplayName()
		fmt.Fprintf(&b, "%s #%d %s.\n", e.Type, e.ExpressID, name)
	}
	return b.String()
}

func typeCountsEnhanced(group []*domain.EnhancedEntity) []typeCount {
	members := make([]domain.Entity, len(group))
	for i, e := range group {
		members[i] = e.Entity
	}
	return typeCounts(members)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
