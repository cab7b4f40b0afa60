package strategies

import (
	"context"
	"fmt"
	"strings"

	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/tokens"
)

// System grouping thresholds.
const (
	minSystemGroupSize   = 3
	minSystemGroupTokens = 50
)

// Discipline tags used in chunk metadata and the manifest's system index.
const (
	SystemHVAC       = "hvac"
	SystemElectrical = "electrical"
	SystemPlumbing   = "plumbing"
	SystemStructural = "structural"
	SystemOther      = "other"
)

// systemMembership maps curated entity types to their discipline.
var systemMembership = map[string]string{
	// HVAC
	"IFCDUCTSEGMENT":        SystemHVAC,
	"IFCDUCTFITTING":        SystemHVAC,
	"IFCAIRTERMINAL":        SystemHVAC,
	"IFCAIRTOAIRHEATRECOVERY": SystemHVAC,
	"IFCFAN":                SystemHVAC,
	"IFCCOIL":               SystemHVAC,
	"IFCBOILER":             SystemHVAC,
	"IFCCHILLER":            SystemHVAC,
	"IFCUNITARYEQUIPMENT":   SystemHVAC,

	// Electrical
	"IFCCABLECARRIERSEGMENT": SystemElectrical,
	"IFCCABLESEGMENT":        SystemElectrical,
	"IFCLIGHTFIXTURE":        SystemElectrical,
	"IFCOUTLET":              SystemElectrical,
	"IFCSWITCHINGDEVICE":     SystemElectrical,
	"IFCELECTRICAPPLIANCE":   SystemElectrical,
	"IFCELECTRICDISTRIBUTIONBOARD": SystemElectrical,
	"IFCTRANSFORMER":         SystemElectrical,

	// Plumbing
	"IFCPIPESEGMENT":       SystemPlumbing,
	"IFCPIPEFITTING":       SystemPlumbing,
	"IFCSANITARYTERMINAL":  SystemPlumbing,
	"IFCWASTETERMINAL":     SystemPlumbing,
	"IFCVALVE":             SystemPlumbing,
	"IFCPUMP":              SystemPlumbing,
	"IFCTANK":              SystemPlumbing,

	// Structural
	"IFCBEAM":      SystemStructural,
	"IFCCOLUMN":    SystemStructural,
	"IFCSLAB":      SystemStructural,
	"IFCFOOTING":   SystemStructural,
	"IFCPILE":      SystemStructural,
	"IFCPLATE":     SystemStructural,
	"IFCMEMBER":    SystemStructural,
	"IFCREINFORCINGBAR": SystemStructural,
}

// systemOrder fixes the chunk emission order across runs.
var systemOrder = []string{SystemHVAC, SystemElectrical, SystemPlumbing, SystemStructural, SystemOther}

// ClassifySystem maps an entity type to its discipline. Types in no
// curated table land in "other" when their name suggests distribution
// equipment; everything else is unclassified (empty string).
func ClassifySystem(entityType string) string {
	if system, ok := systemMembership[entityType]; ok {
		return system
	}
	if strings.Contains(entityType, "DISTRIBUTION") || strings.Contains(entityType, "FLOW") {
		return SystemOther
	}
	return ""
}

// System groups entities by building discipline using static
// type-membership tables.
type System struct{}

// NewSystem creates the system chunking strategy.
func NewSystem() *System {
	return &System{}
}

// Name returns the strategy tag.
func (s *System) Name() string { return "system" }

// CanProcess returns true when at least one entity classifies into a
// discipline. All-architectural models skip this strategy entirely.
func (s *System) CanProcess(entities []domain.Entity) bool {
	for i := range entities {
		if ClassifySystem(entities[i].Type) != "" {
			return true
		}
	}
	return false
}

// Process emits one chunk per surviving discipline group.
func (s *System) Process(ctx context.Context, entities []domain.Entity, projectID string, opts domain.SizeOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	groups := make(map[string][]domain.Entity)
	for i := range entities {
		if system := ClassifySystem(entities[i].Type); system != "" {
			groups[system] = append(groups[system], entities[i])
		}
	}

	var result Result
	index := 0
	for _, system := range systemOrder {
		members := groups[system]
		if len(members) < minSystemGroupSize {
			continue
		}

		content := s.renderGroup(system, members)
		if tokens.Estimate(content) < minSystemGroupTokens {
			continue
		}

		meta := domain.ChunkMetadata{
			EntityTypes: entityTypes(members),
			EntityCount: len(members),
			EntityIDs:   entityIDs(members),
			System:      system,
			BoundingBox: combinedBoundingBox(members),
		}

		result.Chunks = append(result.Chunks, newChunk(
			projectID, s.Name(), domain.ChunkSystem, index,
			content, s.summarize(system, members), meta, domain.SchemaBasic,
		))
		index++
	}

	return result, nil
}

// summarize names the discipline and its top three sub-types by count.
func (s *System) summarize(system string, members []domain.Entity) string {
	counts := typeCounts(members)
	if len(counts) > 3 {
		counts = counts[:3]
	}
	parts := make([]string, len(counts))
	for i, tc := range counts {
		parts[i] = fmt.Sprintf("%s (%d)", tc.entityType, tc.count)
	}
	return fmt.Sprintf("%s system: %d components. Top types: %s", system, len(members), strings.Join(parts, ", "))
}

func (s *System) renderGroup(system string, members []domain.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "System: %s. %d components.\n", system, len(members))

	for _, tc := range typeCounts(members) {
		fmt.Fprintf(&b, "%s: %d. ", tc.entityType, tc.count)
	}
	b.WriteString("\n")

	for i := range members {
		b.WriteString(renderEntity(&members[i]))
		b.WriteString("\n")
	}
	return b.String()
}
