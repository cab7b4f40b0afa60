package attributes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

func TestExtractGeometryAliases(t *testing.T) {
	tests := []struct {
		name       string
		properties map[string]any
		wantLength float64
	}{
		{"direct length", map[string]any{"Length": 4.2}, 4.2},
		{"net length alias", map[string]any{"NetLength": 3.0}, 3.0},
		{"overall length alias", map[string]any{"OverallLength": 2.5}, 2.5},
		{"first alias wins", map[string]any{"Length": 1.0, "NetLength": 9.0}, 1.0},
		{"negative skipped", map[string]any{"Length": -2.0, "NetLength": 5.0}, 5.0},
		{"non-numeric skipped", map[string]any{"Length": "n/a", "NetLength": 5.0}, 5.0},
		{"numeric string accepted", map[string]any{"Length": "4.5"}, 4.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := NewExtractor()
			entity := domain.Entity{ExpressID: 1, Type: "IFCBEAM", Properties: tt.properties}

			enhanced, err := x.Extract(context.Background(), entity, Options{IncludeGeometry: true})
			require.NoError(t, err)
			require.NotNil(t, enhanced.Geometry)
			assert.Equal(t, tt.wantLength, enhanced.Geometry.Length)
		})
	}
}

func TestExtractDerivedVolume(t *testing.T) {
	x := NewExtractor()
	entity := domain.Entity{
		ExpressID:  2,
		Type:       "IFCBEAM",
		Properties: map[string]any{"Length": 2.0, "Width": 0.5, "Height": 0.4},
	}

	enhanced, err := x.Extract(context.Background(), entity, Options{IncludeGeometry: true})
	require.NoError(t, err)
	require.NotNil(t, enhanced.Geometry)
	assert.InDelta(t, 0.4, enhanced.Geometry.Volume, 1e-9)
}

func TestExtractWallVolumeFromThicknessAndArea(t *testing.T) {
	x := NewExtractor()
	entity := domain.Entity{
		ExpressID:  3,
		Type:       "IFCWALL",
		Properties: map[string]any{"Thickness": 0.3, "NetSideArea": 12.0},
	}

	enhanced, err := x.Extract(context.Background(), entity, Options{IncludeGeometry: true})
	require.NoError(t, err)
	require.NotNil(t, enhanced.Geometry)
	assert.InDelta(t, 3.6, enhanced.Geometry.Volume, 1e-9)
}

func TestExtractNoWallDerivationForOtherTypes(t *testing.T) {
	x := NewExtractor()
	entity := domain.Entity{
		ExpressID:  4,
		Type:       "IFCDOOR",
		Properties: map[string]any{"Thickness": 0.3, "NetSideArea": 12.0},
	}

	enhanced, err := x.Extract(context.Background(), entity, Options{IncludeGeometry: true})
	require.NoError(t, err)
	require.NotNil(t, enhanced.Geometry)
	assert.Zero(t, enhanced.Geometry.Volume)
}

func TestExtractBoundingBoxAnchoredAtOrigin(t *testing.T) {
	x := NewExtractor()
	entity := domain.Entity{
		ExpressID:  5,
		Type:       "IFCBEAM",
		Properties: map[string]any{"Length": 2.0, "Width": 0.5, "Height": 0.4},
	}

	enhanced, err := x.Extract(context.Background(), entity, Options{IncludeGeometry: true})
	require.NoError(t, err)
	require.NotNil(t, enhanced.Geometry.BoundingBox)
	assert.Equal(t, domain.Vector3{}, enhanced.Geometry.BoundingBox.Min)
	assert.Equal(t, domain.Vector3{X: 2.0, Y: 0.5, Z: 0.4}, enhanced.Geometry.BoundingBox.Max)
}

func TestExtractMaterialDensity(t *testing.T) {
	tests := []struct {
		name        string
		properties  map[string]any
		wantDensity float64
	}{
		{"explicit density wins", map[string]any{"Material": "Beton C30/37", "Density": 2350.0}, 2350},
		{"concrete keyword", map[string]any{"Material": "Beton C30/37"}, 2400},
		{"steel keyword english", map[string]any{"MaterialName": "Structural Steel S235"}, 7850},
		{"wood keyword german", map[string]any{"Baustoff": "Brettschichtholz"}, 600},
		{"unknown falls back", map[string]any{"Material": "Unobtainium"}, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := NewExtractor()
			entity := domain.Entity{ExpressID: 6, Type: "IFCWALL", Properties: tt.properties}

			enhanced, err := x.Extract(context.Background(), entity, Options{IncludeMaterials: true})
			require.NoError(t, err)
			require.Len(t, enhanced.Materials, 1)
			assert.Equal(t, tt.wantDensity, enhanced.Materials[0].Density)
		})
	}
}

func TestExtractQuantitiesFromVolumeOnly(t *testing.T) {
	// Direct volume, no material: a NetVolume quantity and no weight.
	x := NewExtractor()
	entity := domain.Entity{
		ExpressID:  7,
		Type:       "IFCSLAB",
		Properties: map[string]any{"Volume": 12.5},
	}

	enhanced, err := x.Extract(context.Background(), entity, Options{
		IncludeGeometry:   true,
		IncludeMaterials:  true,
		IncludeQuantities: true,
	})
	require.NoError(t, err)

	vol := enhanced.QuantityOf(domain.QuantityVolume)
	require.NotNil(t, vol)
	assert.Equal(t, domain.Quantity{Name: "NetVolume", Value: 12.5, Unit: "m³", Kind: domain.QuantityVolume}, *vol)

	assert.Nil(t, enhanced.QuantityOf(domain.QuantityWeight))
}

func TestExtractWeightFromVolumeAndDensity(t *testing.T) {
	x := NewExtractor()
	entity := domain.Entity{
		ExpressID:  8,
		Type:       "IFCSLAB",
		Properties: map[string]any{"Volume": 2.0, "Material": "Beton"},
	}

	enhanced, err := x.Extract(context.Background(), entity, Options{
		IncludeGeometry:   true,
		IncludeMaterials:  true,
		IncludeQuantities: true,
	})
	require.NoError(t, err)

	weight := enhanced.QuantityOf(domain.QuantityWeight)
	require.NotNil(t, weight)
	assert.InDelta(t, 4800, weight.Value, 1e-9)
	assert.Equal(t, "kg", weight.Unit)
}

func TestExtractCacheHitAndPartialCoverage(t *testing.T) {
	x := NewExtractor()
	entity := domain.Entity{
		ExpressID:  9,
		Type:       "IFCWALL",
		Properties: map[string]any{"Volume": 1.0, "Material": "Beton"},
	}
	ctx := context.Background()

	// Geometry only.
	first, err := x.Extract(ctx, entity, Options{IncludeGeometry: true})
	require.NoError(t, err)
	assert.True(t, first.HasGroup(domain.AttributeGeometry))
	assert.False(t, first.HasGroup(domain.AttributeMaterials))

	// A call needing materials must not be served by the partial entry.
	second, err := x.Extract(ctx, entity, Options{IncludeGeometry: true, IncludeMaterials: true})
	require.NoError(t, err)
	assert.True(t, second.HasGroup(domain.AttributeMaterials))

	// A subset request is now a cache hit on the fuller entry.
	third, err := x.Extract(ctx, entity, Options{IncludeGeometry: true})
	require.NoError(t, err)
	assert.Same(t, second, third)
}

func TestClearCache(t *testing.T) {
	x := NewExtractor()
	entity := domain.Entity{ExpressID: 10, Type: "IFCWALL", Properties: map[string]any{"Volume": 1.0}}

	_, err := x.Extract(context.Background(), entity, Options{IncludeGeometry: true})
	require.NoError(t, err)
	assert.Equal(t, 1, x.CacheSize())

	x.ClearCache()
	assert.Equal(t, 0, x.CacheSize())

	// Clearing an empty cache must not panic.
	x.ClearCache()
}

func TestExtractCustomAttributes(t *testing.T) {
	x := NewExtractor()
	entity := domain.Entity{
		ExpressID: 11,
		Type:      "IFCDOOR",
		Properties: map[string]any{
			"Length":     2.1,
			"FireRating": "T30",
			"IsExternal": true,
		},
	}

	enhanced, err := x.Extract(context.Background(), entity, Options{IncludeCustom: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"FireRating": "T30", "IsExternal": true}, enhanced.CustomAttributes)
}
