package services

import (
	"context"

	"github.com/vantera-labs/bimctx/internal/attributes"
	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/strategies"
)

// strategyExtractor bridges the attribute extractor to the group
// selection type the strategy package declares for itself.
type strategyExtractor struct {
	inner *attributes.Extractor
}

// NewStrategyExtractor wraps an attribute extractor for strategy use.
func NewStrategyExtractor(inner *attributes.Extractor) strategies.Extractor {
	return &strategyExtractor{inner: inner}
}

func (a *strategyExtractor) Extract(ctx context.Context, entity domain.Entity, opts strategies.ExtractOptions) (*domain.EnhancedEntity, error) {
	return a.inner.Extract(ctx, entity, attributes.Options{
		IncludeGeometry:      opts.IncludeGeometry,
		IncludeMaterials:     opts.IncludeMaterials,
		IncludeQuantities:    opts.IncludeQuantities,
		IncludeRelationships: opts.IncludeRelationships,
		IncludeCustom:        opts.IncludeCustom,
	})
}
