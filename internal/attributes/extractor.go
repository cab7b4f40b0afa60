// Package attributes derives geometry, material and quantity data for
// building-model entities from their raw property sets.
//
// Results are memoized per entity ID. The cache is owned by the
// Extractor instance, never process-global: each chunking run
// constructs its own Extractor so no state leaks across runs.
package attributes

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// Options selects which attribute groups to extract.
type Options struct {
	IncludeGeometry      bool
	IncludeMaterials     bool
	IncludeQuantities    bool
	IncludeRelationships bool
	IncludeCustom        bool
}

// AllOptions requests every attribute group.
func AllOptions() Options {
	return Options{
		IncludeGeometry:      true,
		IncludeMaterials:     true,
		IncludeQuantities:    true,
		IncludeRelationships: true,
		IncludeCustom:        true,
	}
}

// groups lists the requested attribute groups in canonical order.
func (o Options) groups() []domain.AttributeGroup {
	var g []domain.AttributeGroup
	if o.IncludeGeometry {
		g = append(g, domain.AttributeGeometry)
	}
	if o.IncludeMaterials {
		g = append(g, domain.AttributeMaterials)
	}
	if o.IncludeQuantities {
		g = append(g, domain.AttributeQuantities)
	}
	if o.IncludeRelationships {
		g = append(g, domain.AttributeRelationships)
	}
	if o.IncludeCustom {
		g = append(g, domain.AttributeCustom)
	}
	return g
}

// Extractor derives attributes with per-entity memoization.
// Safe for concurrent use: strategy fan-out extracts sibling
// entities in parallel.
type Extractor struct {
	mu    sync.Mutex
	cache map[int]*domain.EnhancedEntity
}

// NewExtractor creates an extractor with an empty cache.
func NewExtractor() *Extractor {
	return &Extractor{
		cache: make(map[int]*domain.EnhancedEntity),
	}
}

// Extract returns the enhanced form of entity with the requested
// attribute groups populated. A cached result is reused only when it
// already covers every requested group; partial coverage triggers a
// full recompute and cache overwrite, not an incremental top-up.
func (x *Extractor) Extract(ctx context.Context, entity domain.Entity, opts Options) (*domain.EnhancedEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.mu.Lock()
	if cached, ok := x.cache[entity.ExpressID]; ok && covers(cached, opts) {
		x.mu.Unlock()
		return cached, nil
	}
	x.mu.Unlock()

	enhanced := x.compute(entity, opts)

	x.mu.Lock()
	x.cache[entity.ExpressID] = enhanced
	x.mu.Unlock()

	return enhanced, nil
}

// ClearCache drops all memoized results. Safe to call on an
// already-empty cache.
func (x *Extractor) ClearCache() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.cache = make(map[int]*domain.EnhancedEntity)
}

// CacheSize returns the number of memoized entities.
func (x *Extractor) CacheSize() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.cache)
}

// covers reports whether cached already holds every group opts requests.
func covers(cached *domain.EnhancedEntity, opts Options) bool {
	for _, g := range opts.groups() {
		if !cached.HasGroup(g) {
			return false
		}
	}
	return true
}

func (x *Extractor) compute(entity domain.Entity, opts Options) *domain.EnhancedEntity {
	enhanced := &domain.EnhancedEntity{
		Entity:       entity,
		LoadedGroups: opts.groups(),
	}

	if opts.IncludeGeometry {
		enhanced.Geometry = extractGeometry(entity)
	}
	if opts.IncludeMaterials {
		enhanced.Materials = extractMaterials(entity)
	}
	if opts.IncludeQuantities {
		geo := enhanced.Geometry
		if geo == nil {
			geo = extractGeometry(entity)
		}
		enhanced.Quantities = synthesizeQuantities(geo, enhanced.Materials)
	}
	if opts.IncludeRelationships {
		enhanced.Relationships = extractRelationships(entity)
	}
	if opts.IncludeCustom {
		enhanced.CustomAttributes = extractCustom(entity)
	}

	return enhanced
}

// extractGeometry reads dimension aliases and derives missing values.
func extractGeometry(entity domain.Entity) *domain.Geometry {
	geo := &domain.Geometry{
		Length:    propertyNumber(entity.Properties, lengthAliases),
		Width:     propertyNumber(entity.Properties, widthAliases),
		Height:    propertyNumber(entity.Properties, heightAliases),
		Thickness: propertyNumber(entity.Properties, thicknessAliases),
		Area:      propertyNumber(entity.Properties, areaAliases),
		Volume:    propertyNumber(entity.Properties, volumeAliases),
	}

	// Derive volume from the box dimensions when not directly present.
	if geo.Volume == 0 && geo.Length > 0 && geo.Width > 0 && geo.Height > 0 {
		geo.Volume = geo.Length * geo.Width * geo.Height
	}

	// Walls often carry thickness and face area instead of a box.
	if geo.Volume == 0 && wallLikeTypes[entity.Type] && geo.Thickness > 0 && geo.Area > 0 {
		geo.Volume = geo.Thickness * geo.Area
	}

	// Placeholder box anchored at the origin, sized from known
	// dimensions. Not a true world-space extent.
	if geo.Length > 0 || geo.Width > 0 || geo.Height > 0 {
		geo.BoundingBox = &domain.BoundingBox{
			Max: domain.Vector3{X: geo.Length, Y: geo.Width, Z: geo.Height},
		}
	}

	if *geo == (domain.Geometry{}) {
		return nil
	}
	return geo
}

func extractMaterials(entity domain.Entity) []domain.Material {
	name := propertyString(entity.Properties, materialAliases)
	if name == "" {
		return nil
	}

	density := propertyNumber(entity.Properties, densityAliases)
	if density == 0 {
		density = lookupDensity(name)
	}

	return []domain.Material{{Name: name, Density: density}}
}

// lookupDensity matches material name substrings against the default
// density table, falling back to defaultDensity.
func lookupDensity(name string) float64 {
	lower := strings.ToLower(name)
	for _, entry := range densityByKeyword {
		if strings.Contains(lower, entry.keyword) {
			return entry.density
		}
	}
	return defaultDensity
}

// synthesizeQuantities derives quantity records from geometry and
// materials. Weight requires both a volume and a known density.
func synthesizeQuantities(geo *domain.Geometry, materials []domain.Material) []domain.Quantity {
	if geo == nil {
		return nil
	}

	var quantities []domain.Quantity
	if geo.Volume > 0 {
		quantities = append(quantities, domain.Quantity{
			Name: "NetVolume", Value: geo.Volume, Unit: "m³", Kind: domain.QuantityVolume,
		})
	}
	if geo.Area > 0 {
		quantities = append(quantities, domain.Quantity{
			Name: "NetArea", Value: geo.Area, Unit: "m²", Kind: domain.QuantityArea,
		})
	}
	if geo.Length > 0 {
		quantities = append(quantities, domain.Quantity{
			Name: "Length", Value: geo.Length, Unit: "m", Kind: domain.QuantityLength,
		})
	}
	if geo.Volume > 0 && len(materials) > 0 && materials[0].Density > 0 {
		quantities = append(quantities, domain.Quantity{
			Name: "Weight", Value: geo.Volume * materials[0].Density, Unit: "kg", Kind: domain.QuantityWeight,
		})
	}

	return quantities
}

// extractRelationships reads containment links when the extraction
// glue provided them as properties. True relationship data is not
// part of the snapshot contract yet.
func extractRelationships(entity domain.Entity) []domain.Relationship {
	raw, ok := entity.Properties["ContainedInStructure"]
	if !ok {
		return nil
	}
	id, ok := numeric(raw)
	if !ok || id <= 0 {
		return nil
	}
	return []domain.Relationship{{Kind: "containedIn", TargetID: int(id)}}
}

// standardProperties are skipped when collecting custom attributes.
var standardProperties = map[string]bool{}

func init() {
	for _, aliases := range [][]string{
		lengthAliases, widthAliases, heightAliases, thicknessAliases,
		areaAliases, volumeAliases, materialAliases, densityAliases,
	} {
		for _, a := range aliases {
			standardProperties[a] = true
		}
	}
	standardProperties["ContainedInStructure"] = true
}

func extractCustom(entity domain.Entity) map[string]any {
	if len(entity.Properties) == 0 {
		return nil
	}
	custom := make(map[string]any)
	for key, value := range entity.Properties {
		if !standardProperties[key] {
			custom[key] = value
		}
	}
	if len(custom) == 0 {
		return nil
	}
	return custom
}

// propertyNumber returns the first present, positive numeric value
// among the aliases, or 0.
func propertyNumber(props map[string]any, aliases []string) float64 {
	for _, alias := range aliases {
		if raw, ok := props[alias]; ok {
			if v, ok := numeric(raw); ok && v > 0 {
				return v
			}
		}
	}
	return 0
}

// propertyString returns the first present, non-empty string value
// among the aliases, or "".
func propertyString(props map[string]any, aliases []string) string {
	for _, alias := range aliases {
		if raw, ok := props[alias]; ok {
			if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// numeric coerces property scalars to float64. JSON decoding yields
// float64, but extraction glue may hand through ints or strings.
func numeric(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
