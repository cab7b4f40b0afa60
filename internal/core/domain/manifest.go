package domain

import "time"

// ChunkSummary is the manifest's lightweight record of one chunk.
type ChunkSummary struct {
	ID          string    `json:"id"`
	Kind        ChunkKind `json:"kind"`
	TokenCount  int       `json:"tokenCount"`
	EntityCount int       `json:"entityCount"`

	// Keywords are derived at manifest build time: lowercased entity
	// types, system tag, floor tags and long words from the summary.
	Keywords []string `json:"keywords,omitempty"`
}

// SpatialIndexEntry maps a chunk to its spatial extent.
type SpatialIndexEntry struct {
	ChunkID     string      `json:"chunkId"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// ChunkIndex holds the five lookup indices over a project's chunks.
// Index values are chunk IDs. Every referenced ID must appear in the
// manifest's chunk summary list; a violation is reportable corruption.
type ChunkIndex struct {
	// ByKind maps chunk kind -> chunk IDs.
	ByKind map[ChunkKind][]string `json:"byKind"`

	// ByEntityType maps entity type -> chunk IDs.
	ByEntityType map[string][]string `json:"byEntityType"`

	// ByFloor maps storey number -> chunk IDs.
	ByFloor map[int][]string `json:"byFloor"`

	// BySystem maps discipline tag -> chunk IDs.
	BySystem map[string][]string `json:"bySystem"`

	// Spatial lists chunks with a declared bounding box.
	Spatial []SpatialIndexEntry `json:"spatial"`
}

// NewChunkIndex returns an index with all maps initialized.
func NewChunkIndex() ChunkIndex {
	return ChunkIndex{
		ByKind:       make(map[ChunkKind][]string),
		ByEntityType: make(map[string][]string),
		ByFloor:      make(map[int][]string),
		BySystem:     make(map[string][]string),
	}
}

// ProjectManifest is the per-project summary record plus lookup
// indices. It is fully rebuildable from the chunk set alone.
type ProjectManifest struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`

	TotalChunks   int `json:"totalChunks"`
	TotalEntities int `json:"totalEntities"`
	TotalTokens   int `json:"totalTokens"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Chunks []ChunkSummary `json:"chunks"`
	Index  ChunkIndex     `json:"index"`

	// FileMetadata carries optional facts about the source model file.
	FileMetadata map[string]string `json:"fileMetadata,omitempty"`
}

// SummaryByID returns the chunk summary with the given ID, if present.
func (m *ProjectManifest) SummaryByID(id string) *ChunkSummary {
	for i := range m.Chunks {
		if m.Chunks[i].ID == id {
			return &m.Chunks[i]
		}
	}
	return nil
}

// ValidationResult reports manifest integrity findings. Every
// detected inconsistency is listed; validation never stops at
// the first finding.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}
