package tui

import "errors"

// ErrMissingContextService is returned when the context service is not provided.
var ErrMissingContextService = errors.New("tui: context service is required")

// ErrMissingProject is returned when no project is selected.
var ErrMissingProject = errors.New("tui: project id is required")
