// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// QueryRequested is a command to build context for a query.
type QueryRequested struct {
	ProjectID string
	Query     string
}

// QueryCompleted carries the assembled context back to the model.
type QueryCompleted struct {
	Result *domain.ContextResult
	Err    error
}

// ManifestLoaded carries the project manifest for the status line.
type ManifestLoaded struct {
	Manifest *domain.ProjectManifest
	Err      error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
