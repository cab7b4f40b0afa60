package strategies

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// maxCustomPropertiesRendered bounds the non-standard properties shown
// per entity in enhanced renderings.
const maxCustomPropertiesRendered = 5

// EnhancedElementType is the attribute-aware element-type variant:
// same grouping and filling as the basic strategy, but every entity is
// first passed through the attribute extractor and rendered with
// dimensions, volume, material, density and weight. Chunks carry
// aggregate statistics and schema version 2.
type EnhancedElementType struct {
	extractor Extractor
}

// NewEnhancedElementType creates the enhanced element-type strategy.
func NewEnhancedElementType(extractor Extractor) *EnhancedElementType {
	return &EnhancedElementType{extractor: extractor}
}

// Name returns the strategy tag.
func (s *EnhancedElementType) Name() string { return "enhanced" }

// CanProcess returns true for any non-empty entity set.
func (s *EnhancedElementType) CanProcess(entities []domain.Entity) bool {
	return len(entities) > 0
}

// Process extracts attributes for every entity (fan-out, no ordering
// guarantee among siblings) and emits greedily filled chunks.
func (s *EnhancedElementType) Process(ctx context.Context, entities []domain.Entity, projectID string, opts domain.SizeOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	opts = opts.Normalize()

	enhanced, warnings := s.extractAll(ctx, entities)

	var result Result
	result.Warnings = warnings
	index := 0
	for _, entityType := range groupOrder(entities) {
		var group []*domain.EnhancedEntity
		for i := range enhanced {
			if enhanced[i] != nil && enhanced[i].Type == entityType {
				group = append(group, enhanced[i])
			}
		}
		if len(group) == 0 {
			continue
		}

		members := make([]domain.Entity, len(group))
		rendered := make([]string, len(group))
		for i, e := range group {
			members[i] = e.Entity
			rendered[i] = renderEnhancedEntity(e)
		}

		for _, b := range fillBatches(members, rendered, opts.TargetTokenSize) {
			chunk := s.buildChunk(projectID, entityType, index, b, group)
			result.Chunks = append(result.Chunks, chunk)
			index++
		}
	}

	return result, nil
}

// extractAll fans out attribute extraction over the entity list.
// A failed extraction leaves a nil slot and a warning; it never
// aborts the strategy.
func (s *EnhancedElementType) extractAll(ctx context.Context, entities []domain.Entity) ([]*domain.EnhancedEntity, []string) {
	enhanced := make([]*domain.EnhancedEntity, len(entities))
	errs := make([]error, len(entities))

	var wg sync.WaitGroup
	wg.Add(len(entities))
	for i := range entities {
		go func(i int) {
			defer wg.Done()
			enhanced[i], errs[i] = s.extractor.Extract(ctx, entities[i], ExtractOptions{
				IncludeGeometry:   true,
				IncludeMaterials:  true,
				IncludeQuantities: true,
				IncludeCustom:     true,
			})
		}(i)
	}
	wg.Wait()

	var warnings []string
	for i, err := range errs {
		if err != nil {
			warnings = append(warnings, fmt.Sprintf(
				"enhanced: attribute extraction failed for entity #%d: %v", entities[i].ExpressID, err))
			// Degrade to the raw entity so it is not lost.
			enhanced[i] = &domain.EnhancedEntity{Entity: entities[i]}
		}
	}
	return enhanced, warnings
}

func (s *EnhancedElementType) buildChunk(projectID, entityType string, index int, b batch, group []*domain.EnhancedEntity) domain.Chunk {
	// Aggregate over the batch members only.
	inBatch := make(map[int]bool, len(b.members))
	for i := range b.members {
		inBatch[b.members[i].ExpressID] = true
	}
	var batchEnhanced []*domain.EnhancedEntity
	for _, e := range group {
		if inBatch[e.ExpressID] {
			batchEnhanced = append(batchEnhanced, e)
		}
	}
	stats := aggregateStats(batchEnhanced)

	var content strings.Builder
	fmt.Fprintf(&content, "Element type: %s. %d elements.\n", entityType, len(b.members))
	for _, text := range b.texts {
		content.WriteString(text)
		content.WriteString("\n")
	}
	content.WriteString(renderAggregates(stats))

	summary := fmt.Sprintf("%d %s elements", len(b.members), entityType)
	if stats != nil && stats.TotalVolume > 0 {
		summary += fmt.Sprintf(", total volume %.2f m³", stats.TotalVolume)
	}

	meta := domain.ChunkMetadata{
		EntityTypes:      []string{entityType},
		EntityCount:      len(b.members),
		EntityIDs:        entityIDs(b.members),
		BoundingBox:      combinedBoundingBox(b.members),
		CommonProperties: commonProperties(b.members),
		Stats:            stats,
	}

	return newChunk(projectID, s.Name(), domain.ChunkElementType, index, content.String(), summary, meta, domain.SchemaEnhanced)
}

// renderEnhancedEntity renders one entity with its derived attributes.
func renderEnhancedEntity(e *domain.EnhancedEntity) string {
	var b strings.Builder
	b.WriteString(e.Type)
	fmt.Fprintf(&b, " #%d", e.ExpressID)
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}

	if geo := e.Geometry; geo != nil {
		var dims []string
		if geo.Length > 0 {
			dims = append(dims, fmt.Sprintf("L=%.2fm", geo.Length))
		}
		if geo.Width > 0 {
			dims = append(dims, fmt.Sprintf("W=%.2fm", geo.Width))
		}
		if geo.Height > 0 {
			dims = append(dims, fmt.Sprintf("H=%.2fm", geo.Height))
		}
		if geo.Thickness > 0 {
			dims = append(dims, fmt.Sprintf("t=%.2fm", geo.Thickness))
		}
		if len(dims) > 0 {
			b.WriteString(". Dimensions: ")
			b.WriteString(strings.Join(dims, ", "))
		}
		if geo.Volume > 0 {
			fmt.Fprintf(&b, ". Volume: %.2f m³", geo.Volume)
		}
		if geo.Area > 0 {
			fmt.Fprintf(&b, ". Area: %.2f m²", geo.Area)
		}
	}

	if mat := e.PrimaryMaterial(); mat != nil {
		fmt.Fprintf(&b, ". Material: %s (%.0f kg/m³)", mat.Name, mat.Density)
	}
	if weight := e.QuantityOf(domain.QuantityWeight); weight != nil {
		fmt.Fprintf(&b, ". Weight: %.0f kg", weight.Value)
	}

	if len(e.CustomAttributes) > 0 {
		keys := sortedPropertyKeys(e.CustomAttributes)
		if len(keys) > maxCustomPropertiesRendered {
			keys = keys[:maxCustomPropertiesRendered]
		}
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.CustomAttributes[k]))
		}
		b.WriteString(". ")
		b.WriteString(strings.Join(parts, ", "))
	}

	b.WriteString(".")
	return b.String()
}

// aggregateStats totals volume, area and weight over a chunk's
// entities and breaks volume down by material, sorted descending.
func aggregateStats(group []*domain.EnhancedEntity) *domain.AggregateStats {
	stats := &domain.AggregateStats{}
	volumeByMaterial := make(map[string]float64)

	for _, e := range group {
		if geo := e.Geometry; geo != nil {
			stats.TotalVolume += geo.Volume
			stats.TotalArea += geo.Area
			if geo.Volume > 0 {
				name := "unknown"
				if mat := e.PrimaryMaterial(); mat != nil {
					name = mat.Name
				}
				volumeByMaterial[name] += geo.Volume
			}
		}
		if weight := e.QuantityOf(domain.QuantityWeight); weight != nil {
			stats.TotalWeight += weight.Value
		}
	}

	if stats.TotalVolume == 0 && stats.TotalArea == 0 && stats.TotalWeight == 0 {
		return nil
	}

	for material, volume := range volumeByMaterial {
		entry := domain.MaterialVolume{Material: material, Volume: volume}
		if stats.TotalVolume > 0 {
			entry.Percent = volume / stats.TotalVolume * 100
		}
		stats.VolumeByMaterial = append(stats.VolumeByMaterial, entry)
	}
	sort.Slice(stats.VolumeByMaterial, func(i, j int) bool {
		if stats.VolumeByMaterial[i].Volume != stats.VolumeByMaterial[j].Volume {
			return stats.VolumeByMaterial[i].Volume > stats.VolumeByMaterial[j].Volume
		}
		return stats.VolumeByMaterial[i].Material < stats.VolumeByMaterial[j].Material
	})

	return stats
}

func renderAggregates(stats *domain.AggregateStats) string {
	if stats == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Totals:")
	if stats.TotalVolume > 0 {
		fmt.Fprintf(&b, " volume %.2f m³.", stats.TotalVolume)
	}
	if stats.TotalArea > 0 {
		fmt.Fprintf(&b, " area %.2f m².", stats.TotalArea)
	}
	if stats.TotalWeight > 0 {
		fmt.Fprintf(&b, " weight %.0f kg.", stats.TotalWeight)
	}
	for _, mv := range stats.VolumeByMaterial {
		fmt.Fprintf(&b, " %s: %.2f m³ (%.1f%%).", mv.Material, mv.Volume, mv.Percent)
	}
	b.WriteString("\n")
	return b.String()
}
