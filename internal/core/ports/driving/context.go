package driving

import (
	"context"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// ContextService answers free-text queries with assembled context.
type ContextService interface {
	// BuildContext runs the full retrieval pipeline: intent analysis,
	// index-based candidate lookup, batched loading, relevance
	// scoring, budget selection and assembly.
	BuildContext(ctx context.Context, req domain.ContextRequest) (*domain.ContextResult, error)

	// InvalidateProject drops cached manifests and chunks of a
	// project. Callers invoke it after reprocessing or a manifest
	// rebuild so long-lived sessions never serve stale data.
	InvalidateProject(projectID string)
}
