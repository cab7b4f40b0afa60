package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

func doorChunk() domain.Chunk {
	floor := 2
	return domain.Chunk{
		ID:      "p1-type-0-1",
		Kind:    domain.ChunkElementType,
		Content: "IFCDOOR #101 \"Tür Besprechung\". IFCDOOR #102 \"Türen Flur\".",
		Summary: "2 IFCDOOR elements",
		Metadata: domain.ChunkMetadata{
			EntityTypes: []string{"IFCDOOR"},
			EntityCount: 2,
			Floor:       &floor,
			Zone:        "Westflügel",
		},
		TokenCount: 40,
		CreatedAt:  time.Now(),
	}
}

func TestScoreBounds(t *testing.T) {
	s := NewScorer(DefaultWeights())
	chunks := []domain.Chunk{
		doorChunk(),
		{Kind: domain.ChunkSystem, Content: ""},
		{Kind: domain.ChunkSpatial, Content: "IFCWALL #1"},
	}
	intents := []domain.QueryIntent{
		{},
		{Kind: domain.IntentCount, EntityTypes: []string{"IFCDOOR"}, Keywords: []string{"tür"}},
		{Kind: domain.IntentSpatial, SpatialTerms: []string{"2. og"}},
		{Kind: domain.IntentFind, EntityTypes: []string{domain.WildcardEntityType}},
	}

	for _, c := range chunks {
		for _, intent := range intents {
			score, b := s.Score(&c, intent)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
			for _, f := range []float64{
				b.TextMatch, b.EntityMatch, b.SpatialRelevance, b.Recency, b.TypeAlignment,
			} {
				assert.GreaterOrEqual(t, f, 0.0)
				assert.LessOrEqual(t, f, 1.0)
			}
		}
	}
}

func TestTextMatchFactor(t *testing.T) {
	s := NewScorer(DefaultWeights())
	chunk := doorChunk()

	t.Run("no keywords is zero", func(t *testing.T) {
		assert.Zero(t, s.textMatch(&chunk, nil))
	})

	t.Run("stemmed keyword matches inflected content", func(t *testing.T) {
		got := s.textMatch(&chunk, []string{"tür"})
		assert.GreaterOrEqual(t, got, 0.5) // full keyword coverage
	})

	t.Run("absent keyword lowers coverage", func(t *testing.T) {
		both := s.textMatch(&chunk, []string{"tür"})
		half := s.textMatch(&chunk, []string{"tür", "beton"})
		assert.Less(t, half, both)
	})

	t.Run("corpus stats sharpen rare terms", func(t *testing.T) {
		rare := NewScorer(DefaultWeights())
		rare.SetCorpusStats(100, map[string]int{"tür": 2})
		common := NewScorer(DefaultWeights())
		common.SetCorpusStats(100, map[string]int{"tür": 90})
		assert.Greater(t, rare.textMatch(&chunk, []string{"tür"}), common.textMatch(&chunk, []string{"tür"}))
	})
}

func TestEntityMatchFactor(t *testing.T) {
	chunk := doorChunk()

	t.Run("no requested types is neutral", func(t *testing.T) {
		got := entityMatch(&chunk, domain.QueryIntent{})
		assert.InDelta(t, 0.5, got, 1e-9)
	})

	t.Run("exact match", func(t *testing.T) {
		got := entityMatch(&chunk, domain.QueryIntent{EntityTypes: []string{"IFCDOOR"}})
		assert.InDelta(t, 1.0, got, 1e-9)
	})

	t.Run("wildcard matches any typed chunk", func(t *testing.T) {
		got := entityMatch(&chunk, domain.QueryIntent{EntityTypes: []string{domain.WildcardEntityType}})
		assert.InDelta(t, 1.0, got, 1e-9)
	})

	t.Run("hierarchy fallback gives half credit", func(t *testing.T) {
		wallChunk := domain.Chunk{Metadata: domain.ChunkMetadata{EntityTypes: []string{"IFCWALL"}}}
		got := entityMatch(&wallChunk, domain.QueryIntent{EntityTypes: []string{"IFCWALLSTANDARDCASE"}})
		assert.InDelta(t, 0.5, got, 1e-9)
	})

	t.Run("unrelated types score zero", func(t *testing.T) {
		got := entityMatch(&chunk, domain.QueryIntent{EntityTypes: []string{"IFCPIPESEGMENT"}})
		assert.Zero(t, got)
	})
}

func TestSpatialRelevanceFactor(t *testing.T) {
	chunk := doorChunk()

	t.Run("no terms is neutral", func(t *testing.T) {
		assert.InDelta(t, 0.5, spatialRelevance(&chunk, nil), 1e-9)
	})

	t.Run("no spatial metadata is zero", func(t *testing.T) {
		bare := domain.Chunk{Kind: domain.ChunkSystem}
		assert.Zero(t, spatialRelevance(&bare, []string{"2. og"}))
	})

	t.Run("floor number match", func(t *testing.T) {
		got := spatialRelevance(&chunk, []string{"2. og"})
		assert.InDelta(t, 1.0, got, 1e-9)
	})

	t.Run("zone match", func(t *testing.T) {
		got := spatialRelevance(&chunk, []string{"westflügel"})
		assert.InDelta(t, 1.0, got, 1e-9)
	})

	t.Run("unmatched term", func(t *testing.T) {
		got := spatialRelevance(&chunk, []string{"9. og"})
		assert.Zero(t, got)
	})
}

func TestRecencyFactor(t *testing.T) {
	s := NewScorer(DefaultWeights())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"fresh", 0, 1.0},
		{"half window", 15 * 24 * time.Hour, 0.5},
		{"expired", 45 * 24 * time.Hour, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := domain.Chunk{CreatedAt: now.Add(-tt.age)}
			assert.InDelta(t, tt.want, s.recency(&c), 1e-9)
		})
	}

	t.Run("no timestamp is neutral", func(t *testing.T) {
		c := domain.Chunk{}
		assert.InDelta(t, 0.5, s.recency(&c), 1e-9)
	})
}

func TestTypeAlignmentFactor(t *testing.T) {
	tests := []struct {
		name   string
		kind   domain.ChunkKind
		intent domain.IntentKind
		want   float64
	}{
		{"count prefers element-type", domain.ChunkElementType, domain.IntentCount, 1.0},
		{"count second choice", domain.ChunkHybrid, domain.IntentCount, 0.8},
		{"spatial prefers spatial", domain.ChunkSpatial, domain.IntentSpatial, 1.0},
		{"system unlisted for spatial intent", domain.ChunkSystem, domain.IntentSpatial, 0.3},
		{"system prefers system", domain.ChunkSystem, domain.IntentSystem, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, typeAlignment(tt.kind, tt.intent), 1e-9)
		})
	}
}

func TestRankSortsDescending(t *testing.T) {
	s := NewScorer(DefaultWeights())
	relevant := doorChunk()
	irrelevant := domain.Chunk{
		ID:      "p1-system-0-1",
		Kind:    domain.ChunkSystem,
		Content: "IFCPIPESEGMENT #300",
		Metadata: domain.ChunkMetadata{
			EntityTypes: []string{"IFCPIPESEGMENT"},
			System:      "plumbing",
		},
	}
	intent := domain.QueryIntent{
		Kind:        domain.IntentCount,
		EntityTypes: []string{"IFCDOOR"},
		Keywords:    []string{"tür"},
	}

	ranked := s.Rank([]domain.Chunk{irrelevant, relevant}, intent)

	require.Len(t, ranked, 2)
	assert.Equal(t, relevant.ID, ranked[0].Chunk.ID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestCustomWeightsNormalized(t *testing.T) {
	// Only the entity factor carries weight; the score equals it.
	s := NewScorer(Weights{EntityMatch: 2})
	chunk := doorChunk()

	score, b := s.Score(&chunk, domain.QueryIntent{EntityTypes: []string{"IFCDOOR"}})

	assert.InDelta(t, b.EntityMatch, score, 1e-9)
}

func TestZeroWeights(t *testing.T) {
	s := NewScorer(Weights{})
	chunk := doorChunk()

	score, _ := s.Score(&chunk, domain.QueryIntent{})

	assert.Zero(t, score)
}
