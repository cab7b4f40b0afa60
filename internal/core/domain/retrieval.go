package domain

// ScoreBreakdown holds the per-factor relevance scores, each in [0,1].
type ScoreBreakdown struct {
	TextMatch        float64 `json:"textMatch"`
	EntityMatch      float64 `json:"entityMatch"`
	SpatialRelevance float64 `json:"spatialRelevance"`
	Recency          float64 `json:"recency"`
	TypeAlignment    float64 `json:"typeAlignment"`
}

// RankedChunk pairs a chunk with its relevance score. Ephemeral.
type RankedChunk struct {
	Chunk     Chunk          `json:"chunk"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// SelectionStrategy names a budget selection algorithm.
type SelectionStrategy string

const (
	// SelectGreedy accepts chunks in score order until the budget fills.
	SelectGreedy SelectionStrategy = "greedy"

	// SelectBalanced splits the budget across chunk kinds by average score.
	SelectBalanced SelectionStrategy = "balanced"

	// SelectDiverse prefers chunks introducing new types or locations.
	SelectDiverse SelectionStrategy = "diverse"
)

// BudgetAllocation is the token allowance plan for one query. Ephemeral.
type BudgetAllocation struct {
	// MaxTokens is the total limit for the whole exchange.
	MaxTokens int `json:"maxTokens"`

	// ReservedForSystem is held back for the system prompt.
	ReservedForSystem int `json:"reservedForSystem"`

	// ReservedForResponse is held back for the model's answer.
	ReservedForResponse int `json:"reservedForResponse"`

	// AvailableForContext is what remains for assembled context.
	AvailableForContext int `json:"availableForContext"`

	// Strategy is the selection algorithm chosen for this allocation.
	Strategy SelectionStrategy `json:"strategy"`
}

// TokenStats reports token usage over a chunk set. Informational only.
type TokenStats struct {
	TotalTokens   int               `json:"totalTokens"`
	ChunkCount    int               `json:"chunkCount"`
	AverageTokens float64           `json:"averageTokens"`
	TokensByKind  map[ChunkKind]int `json:"tokensByKind"`
}

// AssembledContext is the output contract to the LLM-consuming
// collaborator: ordered text blocks plus a metadata summary.
type AssembledContext struct {
	// Header is the localized context preamble, empty when disabled.
	Header string `json:"header,omitempty"`

	// Blocks are the rendered chunk sections in final order.
	Blocks []string `json:"blocks"`

	// Metadata summarizes what the context contains.
	Metadata ContextMetadata `json:"metadata"`
}

// ContextMetadata summarizes an assembled context.
type ContextMetadata struct {
	TotalChunks int `json:"totalChunks"`
	TotalTokens int `json:"totalTokens"`

	// Coverage is min(100, 5 x distinct entity types): a rough proxy,
	// not true corpus coverage.
	Coverage int `json:"coverage"`

	ChunksByKind map[ChunkKind]int `json:"chunksByKind"`
}
