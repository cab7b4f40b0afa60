package domain

// Vector3 is a point in model space.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BoundingBox is an axis-aligned box in model space.
type BoundingBox struct {
	Min Vector3 `json:"min"`
	Max Vector3 `json:"max"`
}

// Entity represents one element of the source building model.
// Entities are produced entirely outside the core (by the model
// extraction collaborator) and are never mutated here.
type Entity struct {
	// ExpressID is the numeric identifier, unique within a model.
	ExpressID int `json:"expressId"`

	// Type is the schema type tag, e.g. "IFCWALL" or "IFCDOOR".
	Type string `json:"type"`

	// Name is the optional human-readable element name.
	Name string `json:"name,omitempty"`

	// Description is the optional free-text description.
	Description string `json:"description,omitempty"`

	// ObjectType is the optional subtype label from the authoring tool.
	ObjectType string `json:"objectType,omitempty"`

	// Properties holds the raw property set values (string -> scalar).
	Properties map[string]any `json:"properties,omitempty"`

	// Position is the optional placement point.
	Position *Vector3 `json:"position,omitempty"`

	// BoundingBox is the optional world-space extent.
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

// DisplayName returns the best available label for the entity.
func (e *Entity) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	if e.ObjectType != "" {
		return e.ObjectType
	}
	return e.Type
}

// ModelSnapshot is the immutable input contract from the entity
// extraction collaborator: all entities of one model plus an index
// mapping entity type to the IDs of entities carrying that type.
type ModelSnapshot struct {
	// Entities is the full entity list.
	Entities []Entity `json:"entities"`

	// EntityIndex maps entity type -> express IDs.
	EntityIndex map[string][]int `json:"entityIndex,omitempty"`
}

// BuildEntityIndex derives the type index from the entity list.
// Used when a snapshot arrives without a precomputed index.
func BuildEntityIndex(entities []Entity) map[string][]int {
	index := make(map[string][]int)
	for i := range entities {
		index[entities[i].Type] = append(index[entities[i].Type], entities[i].ExpressID)
	}
	return index
}
