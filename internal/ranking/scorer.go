// Package ranking scores loaded chunks against a query intent. The
// score is a weighted sum of five factors, each bounded to [0,1].
package ranking

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// Weights control the factor mix. They need not sum to 1: the
// weighted sum normalizes by the total weight.
type Weights struct {
	TextMatch        float64
	EntityMatch      float64
	SpatialRelevance float64
	Recency          float64
	TypeAlignment    float64
}

// DefaultWeights favor content and entity-type match; recency barely
// matters for a static building model.
func DefaultWeights() Weights {
	return Weights{
		TextMatch:        0.30,
		EntityMatch:      0.30,
		SpatialRelevance: 0.20,
		Recency:          0.05,
		TypeAlignment:    0.15,
	}
}

// recencyWindow is the age at which a chunk's recency factor reaches 0.
const recencyWindow = 30 * 24 * time.Hour

// hierarchyUnlistedScore applies when a chunk kind is not in the
// intent's preference list.
const hierarchyUnlistedScore = 0.3

// typeParents maps entity types to their broader category types for
// hierarchy-fallback matching. Types without an entry fall back to
// the generic product parent.
var typeParents = map[string][]string{
	"IFCWALLSTANDARDCASE": {"IFCWALL", "IFCBUILDINGELEMENT"},
	"IFCCURTAINWALL":      {"IFCWALL", "IFCBUILDINGELEMENT"},
	"IFCWALL":             {"IFCBUILDINGELEMENT"},
	"IFCDOOR":             {"IFCBUILDINGELEMENT"},
	"IFCWINDOW":           {"IFCBUILDINGELEMENT"},
	"IFCSLAB":             {"IFCBUILDINGELEMENT"},
	"IFCBEAM":             {"IFCBUILDINGELEMENT"},
	"IFCCOLUMN":           {"IFCBUILDINGELEMENT"},
	"IFCSTAIR":            {"IFCBUILDINGELEMENT"},
	"IFCROOF":             {"IFCBUILDINGELEMENT"},
	"IFCPIPESEGMENT":      {"IFCFLOWSEGMENT", "IFCDISTRIBUTIONELEMENT"},
	"IFCDUCTSEGMENT":      {"IFCFLOWSEGMENT", "IFCDISTRIBUTIONELEMENT"},
	"IFCPIPEFITTING":      {"IFCFLOWFITTING", "IFCDISTRIBUTIONELEMENT"},
	"IFCDUCTFITTING":      {"IFCFLOWFITTING", "IFCDISTRIBUTIONELEMENT"},
	"IFCAIRTERMINAL":      {"IFCFLOWTERMINAL", "IFCDISTRIBUTIONELEMENT"},
	"IFCSANITARYTERMINAL": {"IFCFLOWTERMINAL", "IFCDISTRIBUTIONELEMENT"},
	"IFCLIGHTFIXTURE":     {"IFCFLOWTERMINAL", "IFCDISTRIBUTIONELEMENT"},
	"IFCSPACE":            {"IFCSPATIALSTRUCTUREELEMENT"},
	"IFCBUILDINGSTOREY":   {"IFCSPATIALSTRUCTUREELEMENT"},
}

const genericParent = "IFCPRODUCT"

// kindPreferences is the per-intent-kind ordered preference list
// consumed by the type-alignment factor.
var kindPreferences = map[domain.IntentKind][]domain.ChunkKind{
	domain.IntentCount: {
		domain.ChunkElementType, domain.ChunkHybrid, domain.ChunkSystem, domain.ChunkSpatial,
	},
	domain.IntentFind: {
		domain.ChunkElementType, domain.ChunkSpatial, domain.ChunkHybrid, domain.ChunkSystem,
	},
	domain.IntentSpatial: {
		domain.ChunkSpatial, domain.ChunkElementType, domain.ChunkHybrid,
	},
	domain.IntentSystem: {
		domain.ChunkSystem, domain.ChunkHybrid, domain.ChunkElementType,
	},
	domain.IntentGeneral: {
		domain.ChunkElementType, domain.ChunkSpatial, domain.ChunkSystem, domain.ChunkHybrid,
	},
}

var wordRe = regexp.MustCompile(`[a-zA-Z0-9äöüÄÖÜß]+`)

// Scorer ranks chunks against intents. Corpus statistics sharpen the
// text-match factor but are optional; without them every term gets a
// document frequency of 1. Safe for concurrent use once configured.
type Scorer struct {
	weights   Weights
	totalDocs int
	docFreq   map[string]int
	now       func() time.Time
}

// NewScorer returns a scorer with the given weights.
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights, now: time.Now}
}

// SetCorpusStats supplies the document count and per-term document
// frequencies used by the TF-IDF text factor.
func (s *Scorer) SetCorpusStats(totalDocs int, docFreq map[string]int) {
	s.totalDocs = totalDocs
	s.docFreq = docFreq
}

// Rank scores every chunk and returns them sorted by descending
// score. Input order breaks ties, so ranking is deterministic.
func (s *Scorer) Rank(chunks []domain.Chunk, intent domain.QueryIntent) []domain.RankedChunk {
	ranked := make([]domain.RankedChunk, 0, len(chunks))
	for _, c := range chunks {
		score, breakdown := s.Score(&c, intent)
		ranked = append(ranked, domain.RankedChunk{Chunk: c, Score: score, Breakdown: breakdown})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Score computes the weighted relevance of one chunk. The result is
// always in [0,1].
func (s *Scorer) Score(chunk *domain.Chunk, intent domain.QueryIntent) (float64, domain.ScoreBreakdown) {
	b := domain.ScoreBreakdown{
		TextMatch:        s.textMatch(chunk, intent.Keywords),
		EntityMatch:      entityMatch(chunk, intent),
		SpatialRelevance: spatialRelevance(chunk, intent.SpatialTerms),
		Recency:          s.recency(chunk),
		TypeAlignment:    typeAlignment(chunk.Kind, intent.Kind),
	}

	total := s.weights.TextMatch + s.weights.EntityMatch + s.weights.SpatialRelevance +
		s.weights.Recency + s.weights.TypeAlignment
	if total == 0 {
		return 0, b
	}
	sum := s.weights.TextMatch*b.TextMatch +
		s.weights.EntityMatch*b.EntityMatch +
		s.weights.SpatialRelevance*b.SpatialRelevance +
		s.weights.Recency*b.Recency +
		s.weights.TypeAlignment*b.TypeAlignment
	score := sum / total
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, b
}

// textMatch combines keyword coverage with a capped TF-IDF sum.
func (s *Scorer) textMatch(chunk *domain.Chunk, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	words := wordRe.FindAllString(strings.ToLower(chunk.Content), -1)
	if len(words) == 0 {
		return 0
	}
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}

	totalDocs := s.totalDocs
	if totalDocs < 1 {
		totalDocs = 1
	}

	matched := 0
	tfidf := 0.0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		occurrences := counts[kw]
		if occurrences == 0 {
			// Stemmed keywords rarely appear verbatim; count
			// words they prefix instead.
			for w, n := range counts {
				if strings.HasPrefix(w, kw) {
					occurrences += n
				}
			}
		}
		if occurrences == 0 {
			continue
		}
		matched++

		tf := float64(occurrences) / float64(len(words))
		df := 1
		if s.docFreq != nil {
			if n, ok := s.docFreq[kw]; ok && n > 0 {
				df = n
			}
		}
		idf := math.Log(float64(totalDocs+1) / float64(df+1))
		if idf < 0 {
			idf = 0
		}
		tfidf += tf * idf
	}

	fraction := float64(matched) / float64(len(keywords))
	if tfidf > 1 {
		tfidf = 1
	}
	return 0.5*fraction + 0.5*tfidf
}

// entityMatch scores requested types against the chunk's types,
// granting half credit when only a broader category type is present.
func entityMatch(chunk *domain.Chunk, intent domain.QueryIntent) float64 {
	if len(intent.EntityTypes) == 0 {
		return 0.5
	}
	chunkTypes := make(map[string]bool, len(chunk.Metadata.EntityTypes))
	for _, t := range chunk.Metadata.EntityTypes {
		chunkTypes[strings.ToUpper(t)] = true
	}
	if intent.HasWildcard() {
		if len(chunkTypes) > 0 {
			return 1
		}
		return 0
	}

	requested := 0
	exact := 0
	hierarchy := 0
	for _, t := range intent.EntityTypes {
		t = strings.ToUpper(t)
		requested++
		if chunkTypes[t] {
			exact++
			continue
		}
		parents := typeParents[t]
		if len(parents) == 0 {
			parents = []string{genericParent}
		}
		for _, p := range parents {
			if chunkTypes[p] {
				hierarchy++
				break
			}
		}
	}
	if requested == 0 {
		return 0.5
	}
	score := float64(exact)/float64(requested) + 0.5*float64(hierarchy)/float64(requested)
	if score > 1 {
		score = 1
	}
	return score
}

func spatialRelevance(chunk *domain.Chunk, terms []string) float64 {
	if len(terms) == 0 {
		return 0.5
	}
	if !chunk.HasSpatialMetadata() && chunk.Metadata.Building == "" {
		return 0
	}

	zone := strings.ToLower(chunk.Metadata.Zone)
	building := strings.ToLower(chunk.Metadata.Building)

	sum := 0.0
	for _, term := range terms {
		term = strings.ToLower(term)
		perTerm := 0.0
		if chunk.Metadata.Floor != nil &&
			strings.Contains(term, strconv.Itoa(*chunk.Metadata.Floor)) {
			perTerm += 1
		}
		if zone != "" && (strings.Contains(zone, term) || strings.Contains(term, zone)) {
			perTerm += 1
		}
		if building != "" && (strings.Contains(building, term) || strings.Contains(term, building)) {
			perTerm += 0.5
		}
		sum += perTerm
	}
	score := sum / float64(len(terms))
	if score > 1 {
		score = 1
	}
	return score
}

// recency decays linearly from 1 to 0 over 30 days of chunk age.
func (s *Scorer) recency(chunk *domain.Chunk) float64 {
	if chunk.CreatedAt.IsZero() {
		return 0.5
	}
	age := s.now().Sub(chunk.CreatedAt)
	if age < 0 {
		return 1
	}
	score := 1 - float64(age)/float64(recencyWindow)
	if score < 0 {
		return 0
	}
	return score
}

func typeAlignment(kind domain.ChunkKind, intent domain.IntentKind) float64 {
	prefs, ok := kindPreferences[intent]
	if !ok {
		prefs = kindPreferences[domain.IntentGeneral]
	}
	for i, k := range prefs {
		if k == kind {
			return 1 - 0.2*float64(i)
		}
	}
	return hierarchyUnlistedScore
}
