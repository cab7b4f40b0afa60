package strategies

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// fakeExtractor implements Extractor for strategy tests. It derives
// geometry and materials directly from entity properties and can be
// told to fail for specific entity IDs.
type fakeExtractor struct {
	failIDs map[int]bool
}

func (f *fakeExtractor) Extract(_ context.Context, entity domain.Entity, opts ExtractOptions) (*domain.EnhancedEntity, error) {
	if f.failIDs[entity.ExpressID] {
		return nil, errors.New("defective property set")
	}

	enhanced := &domain.EnhancedEntity{Entity: entity}
	if opts.IncludeGeometry {
		geo := &domain.Geometry{}
		if v, ok := entity.Properties["Volume"].(float64); ok {
			geo.Volume = v
		}
		if a, ok := entity.Properties["Area"].(float64); ok {
			geo.Area = a
		}
		enhanced.Geometry = geo
		enhanced.LoadedGroups = append(enhanced.LoadedGroups, domain.AttributeGeometry)
	}
	if opts.IncludeMaterials {
		if name, ok := entity.Properties["Material"].(string); ok {
			enhanced.Materials = []domain.Material{{Name: name, Density: 2400}}
		}
		enhanced.LoadedGroups = append(enhanced.LoadedGroups, domain.AttributeMaterials)
	}
	if opts.IncludeQuantities {
		if enhanced.Geometry != nil && enhanced.Geometry.Volume > 0 && len(enhanced.Materials) > 0 {
			enhanced.Quantities = append(enhanced.Quantities, domain.Quantity{
				Name: "Weight", Value: enhanced.Geometry.Volume * 2400, Unit: "kg", Kind: domain.QuantityWeight,
			})
		}
		enhanced.LoadedGroups = append(enhanced.LoadedGroups, domain.AttributeQuantities)
	}
	return enhanced, nil
}

func makeConcreteWalls(n int) []domain.Entity {
	walls := make([]domain.Entity, n)
	for i := 0; i < n; i++ {
		walls[i] = domain.Entity{
			ExpressID: 2000 + i,
			Type:      "IFCWALL",
			Name:      fmt.Sprintf("Wand-%02d", i),
			Properties: map[string]any{
				"Volume":   2.0,
				"Area":     8.0,
				"Material": "Beton C30/37",
			},
		}
	}
	return walls
}

func TestEnhancedElementTypeSchemaVersion(t *testing.T) {
	s := NewEnhancedElementType(&fakeExtractor{})
	result, err := s.Process(context.Background(), makeConcreteWalls(4), "p1", domain.DefaultSizeOptions())
	require.NoError(t, err)
	require.NotEmpty(t, result.Chunks)

	for _, chunk := range result.Chunks {
		assert.Equal(t, domain.SchemaEnhanced, chunk.SchemaVersion)
		assert.Equal(t, domain.ChunkElementType, chunk.Kind)
	}
}

func TestEnhancedElementTypeAggregates(t *testing.T) {
	s := NewEnhancedElementType(&fakeExtractor{})
	result, err := s.Process(context.Background(), makeConcreteWalls(4), "p1", domain.DefaultSizeOptions())
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	stats := result.Chunks[0].Metadata.Stats
	require.NotNil(t, stats)
	assert.InDelta(t, 8.0, stats.TotalVolume, 1e-9)
	assert.InDelta(t, 32.0, stats.TotalArea, 1e-9)
	assert.InDelta(t, 19200, stats.TotalWeight, 1e-9)

	require.Len(t, stats.VolumeByMaterial, 1)
	assert.Equal(t, "Beton C30/37", stats.VolumeByMaterial[0].Material)
	assert.InDelta(t, 100, stats.VolumeByMaterial[0].Percent, 1e-9)
}

func TestEnhancedElementTypeRendersAttributes(t *testing.T) {
	s := NewEnhancedElementType(&fakeExtractor{})
	result, err := s.Process(context.Background(), makeConcreteWalls(2), "p1", domain.DefaultSizeOptions())
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	content := result.Chunks[0].Content
	assert.Contains(t, content, "Volume: 2.00 m³")
	assert.Contains(t, content, "Material: Beton C30/37")
	assert.Contains(t, content, "Weight: 4800 kg")
}

func TestEnhancedElementTypeDefectiveEntityBecomesWarning(t *testing.T) {
	walls := makeConcreteWalls(3)
	s := NewEnhancedElementType(&fakeExtractor{failIDs: map[int]bool{walls[1].ExpressID: true}})

	result, err := s.Process(context.Background(), walls, "p1", domain.DefaultSizeOptions())
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], fmt.Sprintf("#%d", walls[1].ExpressID))

	// The defective entity is kept with raw data, not dropped.
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, 3, result.Chunks[0].Metadata.EntityCount)
}

func TestAggregateStatsNilWhenNothingMeasured(t *testing.T) {
	group := []*domain.EnhancedEntity{
		{Entity: domain.Entity{ExpressID: 1, Type: "IFCDOOR"}},
	}
	assert.Nil(t, aggregateStats(group))
}
