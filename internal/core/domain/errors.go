package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrProjectNotFound indicates no project exists for the given ID.
	// Distinct from processing failures so callers can tell
	// "no such project" from "processing failed".
	ErrProjectNotFound = errors.New("project not found")

	// ErrManifestCorrupted indicates the manifest failed integrity
	// validation (orphan index entries, token-count mismatches).
	ErrManifestCorrupted = errors.New("manifest corrupted")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrStorageUnavailable indicates the chunk store is not configured
	// or cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")
)
