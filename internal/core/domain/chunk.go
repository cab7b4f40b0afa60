package domain

import "time"

// ChunkKind classifies how a chunk groups entities.
type ChunkKind string

const (
	// ChunkSpatial groups entities by storey/zone proximity.
	ChunkSpatial ChunkKind = "spatial"

	// ChunkSystem groups entities by building discipline (HVAC, ...).
	ChunkSystem ChunkKind = "system"

	// ChunkElementType groups entities by exact schema type.
	ChunkElementType ChunkKind = "element-type"

	// ChunkHybrid is used by query-adaptive and fallback chunks.
	ChunkHybrid ChunkKind = "hybrid"
)

// ChunkKinds is the closed set of valid chunk kinds.
var ChunkKinds = []ChunkKind{ChunkSpatial, ChunkSystem, ChunkElementType, ChunkHybrid}

// IsValid reports whether the kind is one of the known values.
func (k ChunkKind) IsValid() bool {
	for _, kind := range ChunkKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Chunk schema versions.
const (
	// SchemaBasic marks chunks rendered from raw entity data.
	SchemaBasic = 1

	// SchemaEnhanced marks chunks rendered with extracted attributes.
	SchemaEnhanced = 2
)

// MaterialVolume is one entry of a per-material volume breakdown.
type MaterialVolume struct {
	Material string  `json:"material"`
	Volume   float64 `json:"volume"`
	Percent  float64 `json:"percent"`
}

// AggregateStats summarizes attribute-enhanced chunk contents.
type AggregateStats struct {
	TotalVolume      float64          `json:"totalVolume,omitempty"`
	TotalArea        float64          `json:"totalArea,omitempty"`
	TotalWeight      float64          `json:"totalWeight,omitempty"`
	VolumeByMaterial []MaterialVolume `json:"volumeByMaterial,omitempty"`
}

// ChunkMetadata carries the indexable facts about a chunk.
type ChunkMetadata struct {
	// EntityTypes lists the distinct entity types in the chunk.
	EntityTypes []string `json:"entityTypes"`

	// EntityCount is the number of entities rendered into the chunk.
	EntityCount int `json:"entityCount"`

	// EntityIDs lists the express IDs of the rendered entities.
	EntityIDs []int `json:"entityIds,omitempty"`

	// Floor is the storey number, when spatially grouped.
	Floor *int `json:"floor,omitempty"`

	// Zone is the zone/space name, when spatially grouped.
	Zone string `json:"zone,omitempty"`

	// Building is the building name, when known.
	Building string `json:"building,omitempty"`

	// System is the discipline tag (hvac, electrical, ...), when grouped by system.
	System string `json:"system,omitempty"`

	// BoundingBox is the combined extent of the chunk's entities.
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`

	// Stats holds aggregate statistics for enhanced chunks.
	Stats *AggregateStats `json:"stats,omitempty"`

	// QueryPattern tags query-adaptive chunks with the pattern ID.
	QueryPattern string `json:"queryPattern,omitempty"`

	// CommonProperties lists properties present in at least half
	// of the chunk's entities.
	CommonProperties []string `json:"commonProperties,omitempty"`
}

// Chunk is the atomic retrieval unit: a bounded piece of rendered
// text plus metadata. Content is immutable once created; resizing
// always produces new chunks.
type Chunk struct {
	// ID is unique within a project. Convention:
	// {projectId}-{strategyTag}-{index}-{creationTimestamp}.
	ID string `json:"id"`

	// ProjectID links to the owning project.
	ProjectID string `json:"projectId"`

	// Kind classifies the grouping strategy family.
	Kind ChunkKind `json:"kind"`

	// Content is the rendered text body.
	Content string `json:"content"`

	// Summary is a short description of the chunk.
	Summary string `json:"summary"`

	// Metadata carries the indexable facts.
	Metadata ChunkMetadata `json:"metadata"`

	// TokenCount is the estimator's output for Content at creation time.
	TokenCount int `json:"tokenCount"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"createdAt"`

	// SchemaVersion is SchemaBasic or SchemaEnhanced.
	SchemaVersion int `json:"schemaVersion"`
}

// HasSpatialMetadata reports whether the chunk carries any
// floor, zone or bounding-box information.
func (c *Chunk) HasSpatialMetadata() bool {
	return c.Metadata.Floor != nil || c.Metadata.Zone != "" || c.Metadata.BoundingBox != nil
}
