package strategies

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/tokens"
)

// Spatial grouping thresholds.
const (
	// storeyIDWindow is the express-ID distance within which an entity
	// is attributed to a storey.
	storeyIDWindow = 1000

	// spaceIDWindow is the tighter window used for space/zone anchors.
	spaceIDWindow = 200

	// minSpatialGroupSize drops groups too small to be worth a chunk.
	minSpatialGroupSize = 5

	// minSpatialGroupTokens drops groups whose rendering is trivial.
	minSpatialGroupTokens = 100
)

var storeyTypes = map[string]bool{
	"IFCBUILDINGSTOREY": true,
}

var spaceTypes = map[string]bool{
	"IFCSPACE": true,
	"IFCZONE":  true,
}

// Spatial groups entities by an inferred spatial parent.
//
// The model snapshot carries no true containment relationships, so the
// grouping uses identifier proximity: entities whose express ID falls
// within a fixed window of a storey's ID are attributed to that storey.
// This assumes "entities near a storey's identifier number are near it
// in space" and is a placeholder until real spatial hierarchy input is
// available; the external contract will not change when it is.
type Spatial struct{}

// NewSpatial creates the spatial chunking strategy.
func NewSpatial() *Spatial {
	return &Spatial{}
}

// Name returns the strategy tag.
func (s *Spatial) Name() string { return "spatial" }

// CanProcess returns true for any non-empty entity set: with no
// storey or space anchors, everything lands in one general group.
func (s *Spatial) CanProcess(entities []domain.Entity) bool {
	return len(entities) > 0
}

// Process builds one chunk per surviving spatial group.
func (s *Spatial) Process(ctx context.Context, entities []domain.Entity, projectID string, opts domain.SizeOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	groups := s.group(entities)

	var result Result
	index := 0
	for _, group := range groups {
		if len(group.members) < minSpatialGroupSize {
			continue
		}

		content := s.renderGroup(&group)
		if tokens.Estimate(content) < minSpatialGroupTokens {
			continue
		}

		meta := domain.ChunkMetadata{
			EntityTypes: entityTypes(group.members),
			EntityCount: len(group.members),
			EntityIDs:   entityIDs(group.members),
			Floor:       group.floor,
			Zone:        group.zone,
			BoundingBox: combinedBoundingBox(group.members),
		}

		summary := fmt.Sprintf("%d elements in %s", len(group.members), group.label)
		result.Chunks = append(result.Chunks, newChunk(
			projectID, s.Name(), domain.ChunkSpatial, index, content, summary, meta, domain.SchemaBasic,
		))
		index++
	}

	return result, nil
}

// spatialGroup is one inferred spatial cluster.
type spatialGroup struct {
	label   string
	floor   *int
	zone    string
	members []domain.Entity
}

// group partitions entities around storey anchors, falling back to
// space anchors, then to a single general group.
//
// When two anchors' ID windows overlap, the anchor with the lower
// express ID claims the entity; entities are never double-counted.
func (s *Spatial) group(entities []domain.Entity) []spatialGroup {
	storeys := filterByTypes(entities, storeyTypes)
	if len(storeys) > 0 {
		return groupByAnchors(entities, storeys, storeyIDWindow, true)
	}

	spaces := filterByTypes(entities, spaceTypes)
	if len(spaces) > 0 {
		return groupByAnchors(entities, spaces, spaceIDWindow, false)
	}

	return []spatialGroup{{label: "general", members: entities}}
}

func filterByTypes(entities []domain.Entity, types map[string]bool) []domain.Entity {
	var filtered []domain.Entity
	for i := range entities {
		if types[entities[i].Type] {
			filtered = append(filtered, entities[i])
		}
	}
	return filtered
}

func groupByAnchors(entities, anchors []domain.Entity, window int, isStorey bool) []spatialGroup {
	// Ascending anchor ID order makes overlap resolution deterministic:
	// the lower-ID anchor wins contested entities.
	sorted := make([]domain.Entity, len(anchors))
	copy(sorted, anchors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ExpressID < sorted[j].ExpressID })

	groups := make([]spatialGroup, len(sorted))
	for i := range sorted {
		label := sorted[i].DisplayName()
		g := spatialGroup{label: label}
		if isStorey {
			if floor, ok := parseFloorNumber(label, i); ok {
				g.floor = &floor
			}
		} else {
			g.zone = label
		}
		groups[i] = g
	}

	claimed := make(map[int]bool)
	for i := range sorted {
		anchorID := sorted[i].ExpressID
		for j := range entities {
			e := &entities[j]
			if claimed[e.ExpressID] || storeyTypes[e.Type] || spaceTypes[e.Type] {
				continue
			}
			if abs(e.ExpressID-anchorID) <= window {
				groups[i].members = append(groups[i].members, *e)
				claimed[e.ExpressID] = true
			}
		}
	}

	var nonEmpty []spatialGroup
	for i := range groups {
		if len(groups[i].members) > 0 {
			nonEmpty = append(nonEmpty, groups[i])
		}
	}
	return nonEmpty
}

var floorNumberRe = regexp.MustCompile(`(\d+)`)

// parseFloorNumber extracts a storey number from its name, falling
// back to the anchor's ordinal position. German ground floor labels
// map to 0.
func parseFloorNumber(name string, ordinal int) (int, bool) {
	upper := strings.ToUpper(name)
	if strings.Contains(upper, "EG") || strings.Contains(upper, "ERDGESCHOSS") || strings.Contains(upper, "GROUND") {
		return 0, true
	}
	if m := floorNumberRe.FindString(name); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			if strings.Contains(upper, "UG") || strings.Contains(upper, "BASEMENT") {
				return -n, true
			}
			return n, true
		}
	}
	return ordinal, true
}

func (s *Spatial) renderGroup(group *spatialGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s. %d elements.\n", group.label, len(group.members))

	for _, tc := range typeCounts(group.members) {
		fmt.Fprintf(&b, "%s: %d. ", tc.entityType, tc.count)
	}
	b.WriteString("\n")

	for i := range group.members {
		b.WriteString(renderEntity(&group.members[i]))
		b.WriteString("\n")
	}
	return b.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
