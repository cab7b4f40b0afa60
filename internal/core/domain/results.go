package domain

import "time"

// ChunkingResult is the outcome of processing one model snapshot.
type ChunkingResult struct {
	// Chunks are the deduplicated, size-bounded chunks of all
	// strategies that ran.
	Chunks []Chunk `json:"chunks"`

	// Manifest is the freshly built project manifest.
	Manifest *ProjectManifest `json:"manifest"`

	// Warnings are non-fatal findings (skipped strategies, degraded
	// extractions). Processing succeeded despite them.
	Warnings []string `json:"warnings,omitempty"`

	// Duration is the wall-clock processing time.
	Duration time.Duration `json:"duration"`
}

// ContextRequest asks for assembled context for one query.
type ContextRequest struct {
	ProjectID string `json:"projectId"`
	Query     string `json:"query"`

	// MaxTokens limits the whole exchange; 0 means the default.
	MaxTokens int `json:"maxTokens,omitempty"`

	// Compact selects one-line chunk rendering.
	Compact bool `json:"compact,omitempty"`

	// Language is "de" or "en"; empty defaults to German.
	Language string `json:"language,omitempty"`
}

// ContextResult is the full answer to a context request, including
// the intermediate pipeline products callers may want to display.
type ContextResult struct {
	Context    AssembledContext `json:"context"`
	Intent     QueryIntent      `json:"intent"`
	Allocation BudgetAllocation `json:"allocation"`

	// CandidateCount is how many chunk IDs the index probes yielded.
	CandidateCount int `json:"candidateCount"`

	// LoadedCount is how many chunks were actually loaded and scored.
	LoadedCount int `json:"loadedCount"`

	Duration time.Duration `json:"duration"`
}
