// Package modelfile loads entity snapshots from JSON model export files.
//
// The snapshot format is the input contract of the chunking pipeline: a
// JSON document with an "entities" array and an optional "entityIndex"
// map. Files are produced by the upstream model extraction step, typically
// from an IFC export.
//
// The package also provides a Watcher that re-triggers processing when
// the snapshot file changes on disk, debounced through a rate limiter.
package modelfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.ModelSource = (*Source)(nil)

// Source reads entity snapshots from a JSON file on disk.
type Source struct {
	path string
}

// NewSource creates a model source for the given snapshot file.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Path returns the snapshot file path.
func (s *Source) Path() string {
	return s.path
}

// Load reads and decodes the full entity snapshot. A snapshot without
// a precomputed entity index gets one derived from the entity list.
func (s *Source) Load(ctx context.Context) (*domain.ModelSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	var snapshot domain.ModelSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing model file %s: %w", s.path, err)
	}

	if err := validate(&snapshot); err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", s.path, err)
	}

	if snapshot.EntityIndex == nil {
		snapshot.EntityIndex = domain.BuildEntityIndex(snapshot.Entities)
	}

	return &snapshot, nil
}

// validate checks the structural invariants of a decoded snapshot.
func validate(snapshot *domain.ModelSnapshot) error {
	seen := make(map[int]bool, len(snapshot.Entities))
	for i := range snapshot.Entities {
		e := &snapshot.Entities[i]
		if e.ExpressID <= 0 {
			return fmt.Errorf("entity at position %d has invalid express id %d", i, e.ExpressID)
		}
		if e.Type == "" {
			return fmt.Errorf("entity #%d has empty type", e.ExpressID)
		}
		if seen[e.ExpressID] {
			return fmt.Errorf("duplicate express id %d", e.ExpressID)
		}
		seen[e.ExpressID] = true
	}
	return nil
}
