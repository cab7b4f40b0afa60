package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vantera-labs/bimctx/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/core/ports/driven"
)

// Store is a SQLite-backed storage for projects, chunks, manifests
// and chunk indices.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.bimctx/data/bimctx.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".bimctx", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "bimctx.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// CreateProject registers a project. Idempotent.
func (s *chunkStore) CreateProject(ctx context.Context, projectID, name string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, projectID, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

// ProjectExists reports whether the project is known.
func (s *chunkStore) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE id = ?", projectID)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("checking project: %w", err)
	}
	return count > 0, nil
}

// SaveChunk stores or replaces a single chunk.
func (s *chunkStore) SaveChunk(ctx context.Context, chunk *domain.Chunk) error {
	metadataJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, upsertChunkSQL,
		chunk.ProjectID, chunk.ID, string(chunk.Kind), chunk.Content, chunk.Summary,
		string(metadataJSON), chunk.TokenCount, chunk.CreatedAt.UTC(), chunk.SchemaVersion)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}
	return nil
}

// SaveChunks stores a batch of chunks in a single transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, projectID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, upsertChunkSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		chunk := &chunks[i]
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", chunk.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			projectID, chunk.ID, string(chunk.Kind), chunk.Content, chunk.Summary,
			string(metadataJSON), chunk.TokenCount, chunk.CreatedAt.UTC(), chunk.SchemaVersion); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

const upsertChunkSQL = `
	INSERT INTO chunks (project_id, id, kind, content, summary, metadata, token_count, created_at, schema_version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(project_id, id) DO UPDATE SET
		kind = excluded.kind,
		content = excluded.content,
		summary = excluded.summary,
		metadata = excluded.metadata,
		token_count = excluded.token_count,
		created_at = excluded.created_at,
		schema_version = excluded.schema_version
`

const selectChunkSQL = `
	SELECT project_id, id, kind, content, summary, metadata, token_count, created_at, schema_version
	FROM chunks
`

// LoadChunk retrieves one chunk by ID.
func (s *chunkStore) LoadChunk(ctx context.Context, projectID, chunkID string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, selectChunkSQL+"WHERE project_id = ? AND id = ?", projectID, chunkID)

	chunk, err := scanChunk(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return chunk, nil
}

// LoadChunks retrieves the chunks with the given IDs. Missing IDs
// are skipped, not errors.
func (s *chunkStore) LoadChunks(ctx context.Context, projectID string, chunkIDs []string) ([]domain.Chunk, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(chunkIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(chunkIDs)+1)
	args = append(args, projectID)
	for _, id := range chunkIDs {
		args = append(args, id)
	}

	rows, err := s.store.db.QueryContext(ctx,
		selectChunkSQL+"WHERE project_id = ? AND id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Chunk)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		byID[chunk.ID] = *chunk
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	// Preserve the requested order.
	result := make([]domain.Chunk, 0, len(byID))
	for _, id := range chunkIDs {
		if chunk, ok := byID[id]; ok {
			result = append(result, chunk)
		}
	}
	return result, nil
}

// LoadAllChunks retrieves every chunk of a project.
func (s *chunkStore) LoadAllChunks(ctx context.Context, projectID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, selectChunkSQL+"WHERE project_id = ? ORDER BY id", projectID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var result []domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return result, nil
}

// DeleteChunks removes all chunks of a project.
func (s *chunkStore) DeleteChunks(ctx context.Context, projectID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// SaveManifest stores or replaces the project manifest.
func (s *chunkStore) SaveManifest(ctx context.Context, manifest *domain.ProjectManifest) error {
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshalling manifest: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO manifests (project_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, manifest.ProjectID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	return nil
}

// LoadManifest retrieves the project manifest.
func (s *chunkStore) LoadManifest(ctx context.Context, projectID string) (*domain.ProjectManifest, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT data FROM manifests WHERE project_id = ?", projectID)

	var data string
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("scanning manifest: %w", err)
	}

	var manifest domain.ProjectManifest
	if err := json.Unmarshal([]byte(data), &manifest); err != nil {
		return nil, fmt.Errorf("unmarshaling manifest: %w", err)
	}
	return &manifest, nil
}

// SaveIndex stores or replaces the project's chunk index.
func (s *chunkStore) SaveIndex(ctx context.Context, projectID string, index *domain.ChunkIndex) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshalling index: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO chunk_indices (project_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, projectID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	return nil
}

// LoadIndex retrieves the project's chunk index.
func (s *chunkStore) LoadIndex(ctx context.Context, projectID string) (*domain.ChunkIndex, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT data FROM chunk_indices WHERE project_id = ?", projectID)

	var data string
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning index: %w", err)
	}

	var index domain.ChunkIndex
	if err := json.Unmarshal([]byte(data), &index); err != nil {
		return nil, fmt.Errorf("unmarshaling index: %w", err)
	}
	return &index, nil
}

// scanner abstracts sql.Row and sql.Rows for chunk scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var kind, metadataJSON string
	var createdAt sql.NullTime
	if err := row.Scan(&chunk.ProjectID, &chunk.ID, &kind, &chunk.Content, &chunk.Summary,
		&metadataJSON, &chunk.TokenCount, &createdAt, &chunk.SchemaVersion); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Kind = domain.ChunkKind(kind)
	if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	if createdAt.Valid {
		chunk.CreatedAt = createdAt.Time
	}
	return &chunk, nil
}
