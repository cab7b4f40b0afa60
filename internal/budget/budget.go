// Package budget allocates token allowances for a query exchange and
// selects ranked chunks that fit the context allowance.
package budget

import (
	"fmt"
	"sort"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

const (
	// DefaultTotalLimit is the token limit assumed when the caller
	// gives none.
	DefaultTotalLimit = 4000

	// DefaultComplexity is the query complexity assumed when the
	// analyzer gives none.
	DefaultComplexity = 0.5

	// minContextTokens is the floor for the context allowance.
	minContextTokens = 500

	systemBase        = 500
	systemPerUnit     = 200
	responseBase      = 1000
	responsePerUnit   = 300
	greedyComplexity  = 0.3
	diverseComplexity = 0.7
	diverseMinAvail   = 3000
	greedyMaxAvail    = 1000
)

// Allocate plans the token split for one exchange. Reservations grow
// with query complexity; whatever remains funds the context, never
// less than the floor. A non-positive total falls back to the
// default, complexity is clamped to [0,1].
func Allocate(totalLimit int, complexity float64) domain.BudgetAllocation {
	if totalLimit <= 0 {
		totalLimit = DefaultTotalLimit
	}
	if complexity < 0 {
		complexity = 0
	}
	if complexity > 1 {
		complexity = 1
	}

	system := systemBase + int(systemPerUnit*complexity)
	response := responseBase + int(responsePerUnit*complexity)
	available := totalLimit - system - response
	if available < minContextTokens {
		available = minContextTokens
	}

	return domain.BudgetAllocation{
		MaxTokens:           totalLimit,
		ReservedForSystem:   system,
		ReservedForResponse: response,
		AvailableForContext: available,
		Strategy:            chooseStrategy(complexity, available),
	}
}

// chooseStrategy picks the selection algorithm. Simple or tight
// queries go greedy, complex queries with room go diverse, everything
// else balances across chunk kinds.
func chooseStrategy(complexity float64, available int) domain.SelectionStrategy {
	switch {
	case complexity < greedyComplexity || available < greedyMaxAvail:
		return domain.SelectGreedy
	case complexity > diverseComplexity && available > diverseMinAvail:
		return domain.SelectDiverse
	default:
		return domain.SelectBalanced
	}
}

// Select picks chunks from a ranked list within the allocation's
// context allowance, dispatching on the allocation's strategy.
func Select(ranked []domain.RankedChunk, alloc domain.BudgetAllocation) ([]domain.Chunk, error) {
	switch alloc.Strategy {
	case domain.SelectGreedy:
		return selectGreedy(ranked, alloc.AvailableForContext), nil
	case domain.SelectBalanced:
		return selectBalanced(ranked, alloc.AvailableForContext), nil
	case domain.SelectDiverse:
		return selectDiverse(ranked, alloc.AvailableForContext), nil
	default:
		return nil, fmt.Errorf("select chunks: %w: strategy %q", domain.ErrInvalidInput, alloc.Strategy)
	}
}

// selectGreedy accepts chunks in score order while they fit. The top
// candidate is taken even when it alone busts the budget, so a
// non-empty ranking never yields an empty selection.
func selectGreedy(ranked []domain.RankedChunk, budget int) []domain.Chunk {
	var selected []domain.Chunk
	used := 0
	for _, rc := range ranked {
		if used+rc.Chunk.TokenCount > budget {
			if len(selected) == 0 {
				selected = append(selected, rc.Chunk)
			}
			break
		}
		selected = append(selected, rc.Chunk)
		used += rc.Chunk.TokenCount
	}
	return selected
}

// selectBalanced splits the budget across chunk kinds in proportion
// to each kind's average score, fills every sub-budget greedily, then
// tops up from the leftovers when usage stays under 80%.
func selectBalanced(ranked []domain.RankedChunk, budget int) []domain.Chunk {
	if len(ranked) == 0 {
		return nil
	}

	byKind := make(map[domain.ChunkKind][]domain.RankedChunk)
	var kinds []domain.ChunkKind
	for _, rc := range ranked {
		if _, ok := byKind[rc.Chunk.Kind]; !ok {
			kinds = append(kinds, rc.Chunk.Kind)
		}
		byKind[rc.Chunk.Kind] = append(byKind[rc.Chunk.Kind], rc)
	}

	avg := make(map[domain.ChunkKind]float64, len(kinds))
	totalAvg := 0.0
	for _, k := range kinds {
		sum := 0.0
		for _, rc := range byKind[k] {
			sum += rc.Score
		}
		avg[k] = sum / float64(len(byKind[k]))
		totalAvg += avg[k]
	}

	selectedIDs := make(map[string]bool)
	var selected []domain.Chunk
	used := 0
	for _, k := range kinds {
		share := budget / len(kinds)
		if totalAvg > 0 {
			share = int(float64(budget) * avg[k] / totalAvg)
		}
		kindUsed := 0
		for _, rc := range byKind[k] {
			if kindUsed+rc.Chunk.TokenCount > share || used+rc.Chunk.TokenCount > budget {
				continue
			}
			selected = append(selected, rc.Chunk)
			selectedIDs[rc.Chunk.ID] = true
			kindUsed += rc.Chunk.TokenCount
			used += rc.Chunk.TokenCount
		}
	}

	if used*5 < budget*4 { // under 80%
		considered := 0
		for _, rc := range ranked {
			if considered >= 10 {
				break
			}
			if selectedIDs[rc.Chunk.ID] {
				continue
			}
			considered++
			if used+rc.Chunk.TokenCount > budget {
				continue
			}
			selected = append(selected, rc.Chunk)
			selectedIDs[rc.Chunk.ID] = true
			used += rc.Chunk.TokenCount
		}
	}
	return selected
}

// selectDiverse favors novelty: a chunk is accepted when it brings a
// new entity type or a new floor-zone combination, or when its score
// clears 0.8 regardless. A second pass tops up with good chunks when
// usage stays under 70%.
func selectDiverse(ranked []domain.RankedChunk, budget int) []domain.Chunk {
	seenTypes := make(map[string]bool)
	seenPlaces := make(map[string]bool)
	selectedIDs := make(map[string]bool)
	var selected []domain.Chunk
	used := 0

	for _, rc := range ranked {
		if used+rc.Chunk.TokenCount > budget {
			continue
		}
		novel := false
		for _, t := range rc.Chunk.Metadata.EntityTypes {
			if !seenTypes[t] {
				novel = true
				break
			}
		}
		place := placeKey(&rc.Chunk)
		if place != "" && !seenPlaces[place] {
			novel = true
		}
		if !novel && rc.Score <= 0.8 {
			continue
		}
		selected = append(selected, rc.Chunk)
		selectedIDs[rc.Chunk.ID] = true
		used += rc.Chunk.TokenCount
		for _, t := range rc.Chunk.Metadata.EntityTypes {
			seenTypes[t] = true
		}
		if place != "" {
			seenPlaces[place] = true
		}
	}

	if used*10 < budget*7 { // under 70%
		considered := 0
		for _, rc := range ranked {
			if considered >= 20 {
				break
			}
			if selectedIDs[rc.Chunk.ID] {
				continue
			}
			considered++
			if rc.Score <= 0.5 || used+rc.Chunk.TokenCount > budget {
				continue
			}
			selected = append(selected, rc.Chunk)
			selectedIDs[rc.Chunk.ID] = true
			used += rc.Chunk.TokenCount
		}
	}
	return selected
}

func placeKey(c *domain.Chunk) string {
	if c.Metadata.Floor == nil && c.Metadata.Zone == "" {
		return ""
	}
	floor := ""
	if c.Metadata.Floor != nil {
		floor = fmt.Sprintf("%d", *c.Metadata.Floor)
	}
	return floor + "/" + c.Metadata.Zone
}

// Stats summarizes token usage over a chunk set.
func Stats(chunks []domain.Chunk) domain.TokenStats {
	stats := domain.TokenStats{
		ChunkCount:   len(chunks),
		TokensByKind: make(map[domain.ChunkKind]int),
	}
	for _, c := range chunks {
		stats.TotalTokens += c.TokenCount
		stats.TokensByKind[c.Kind] += c.TokenCount
	}
	if len(chunks) > 0 {
		stats.AverageTokens = float64(stats.TotalTokens) / float64(len(chunks))
	}
	return stats
}

// SortKinds returns the kinds of a per-kind map in stable order,
// known kinds first in declaration order, then the rest sorted.
func SortKinds[V any](m map[domain.ChunkKind]V) []domain.ChunkKind {
	var kinds []domain.ChunkKind
	seen := make(map[domain.ChunkKind]bool)
	for _, k := range domain.ChunkKinds {
		if _, ok := m[k]; ok {
			kinds = append(kinds, k)
			seen[k] = true
		}
	}
	var rest []domain.ChunkKind
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(kinds, rest...)
}
