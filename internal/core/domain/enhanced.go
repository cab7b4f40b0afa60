package domain

// AttributeGroup identifies one extractable group of derived attributes.
type AttributeGroup string

const (
	// AttributeGeometry covers dimensions, area, volume and bounding box.
	AttributeGeometry AttributeGroup = "geometry"

	// AttributeMaterials covers material names and densities.
	AttributeMaterials AttributeGroup = "materials"

	// AttributeQuantities covers synthesized quantity records.
	AttributeQuantities AttributeGroup = "quantities"

	// AttributeRelationships covers containment/connection links.
	AttributeRelationships AttributeGroup = "relationships"

	// AttributeCustom covers non-standard custom properties.
	AttributeCustom AttributeGroup = "custom"
)

// Geometry holds dimensions derived from an entity's properties.
// A zero value means the dimension is unknown, not zero-sized.
type Geometry struct {
	Length    float64 `json:"length,omitempty"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Thickness float64 `json:"thickness,omitempty"`
	Area      float64 `json:"area,omitempty"`
	Volume    float64 `json:"volume,omitempty"`

	// BoundingBox is anchored at the origin and sized from the known
	// dimensions. It is a placeholder, not a true world-space box.
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

// Material describes one material attached to an entity.
type Material struct {
	// Name is the material label, e.g. "Beton C30/37".
	Name string `json:"name"`

	// Density is in kg/m³. Falls back to a keyword-matched default
	// when no explicit density property is present.
	Density float64 `json:"density,omitempty"`
}

// QuantityKind classifies a synthesized quantity.
type QuantityKind string

const (
	QuantityVolume QuantityKind = "volume"
	QuantityArea   QuantityKind = "area"
	QuantityLength QuantityKind = "length"
	QuantityWeight QuantityKind = "weight"
)

// Quantity is one measured or derived quantity of an entity.
type Quantity struct {
	Name  string       `json:"name"`
	Value float64      `json:"value"`
	Unit  string       `json:"unit"`
	Kind  QuantityKind `json:"kind"`
}

// Relationship links an entity to another entity.
type Relationship struct {
	// Kind names the relation, e.g. "containedIn".
	Kind string `json:"kind"`

	// TargetID is the express ID of the related entity.
	TargetID int `json:"targetId"`
}

// EnhancedEntity wraps an Entity with derived attribute groups.
// Once a group is marked loaded it is never recomputed for the
// cached instance; callers needing fresh data must clear the cache.
type EnhancedEntity struct {
	Entity

	Geometry         *Geometry        `json:"geometry,omitempty"`
	Materials        []Material       `json:"materials,omitempty"`
	Quantities       []Quantity       `json:"quantities,omitempty"`
	Relationships    []Relationship   `json:"relationships,omitempty"`
	CustomAttributes map[string]any   `json:"customAttributes,omitempty"`
	LoadedGroups     []AttributeGroup `json:"loadedGroups,omitempty"`
}

// HasGroup reports whether the given attribute group was loaded.
func (e *EnhancedEntity) HasGroup(group AttributeGroup) bool {
	for _, g := range e.LoadedGroups {
		if g == group {
			return true
		}
	}
	return false
}

// PrimaryMaterial returns the first material, if any.
func (e *EnhancedEntity) PrimaryMaterial() *Material {
	if len(e.Materials) == 0 {
		return nil
	}
	return &e.Materials[0]
}

// QuantityOf returns the first quantity of the given kind, if any.
func (e *EnhancedEntity) QuantityOf(kind QuantityKind) *Quantity {
	for i := range e.Quantities {
		if e.Quantities[i].Kind == kind {
			return &e.Quantities[i]
		}
	}
	return nil
}
