package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mergehub/mergebot/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
)

// Store is a unified SQLite-based state repository that provides
// access to all state store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// WAL for reader concurrency; busy_timeout bounds how long a
	// writer waits on another before failing the operation.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

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

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// FileStore returns a FileStore interface backed by this store.
func (s *Store) FileStore() driven.FileStore {
	return &fileStore{store: s}
}

// RecordStore returns a RecordStore interface backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// PublishedStore returns a PublishedStore interface backed by this store.
func (s *Store) PublishedStore() driven.PublishedStore {
	return &publishedStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

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

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// Save creates or updates a source row.
func (s *sourceStore) Save(ctx context.Context, source domain.Source) error {
	state := source.State
	if len(state) == 0 {
		state = []byte("{}")
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sources (id, type, last_check_ts, state_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type
	`, source.ID, source.Type, nullTime(source.LastCheck), string(state))
	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// Get retrieves a source by id.
func (s *sourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, type, last_check_ts, state_json
		FROM sources WHERE id = ?
	`, id)

	var source domain.Source
	var lastCheck sql.NullTime
	var stateJSON string
	if err := row.Scan(&source.ID, &source.Type, &lastCheck, &stateJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	if lastCheck.Valid {
		source.LastCheck = lastCheck.Time
	}
	source.State = []byte(stateJSON)
	return &source, nil
}

// UpdateState stores the connector cursor blob and bumps the
// last-check timestamp.
func (s *sourceStore) UpdateState(ctx context.Context, id string, state []byte) error {
	if len(state) == 0 {
		state = []byte("{}")
	}
	_, err := s.store.db.ExecContext(ctx, `
		UPDATE sources SET state_json = ?, last_check_ts = ? WHERE id = ?
	`, string(state), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating source state: %w", err)
	}
	return nil
}

// List returns all sources.
func (s *sourceStore) List(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, type, last_check_ts, state_json FROM sources ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		var source domain.Source
		var lastCheck sql.NullTime
		var stateJSON string
		if err := rows.Scan(&source.ID, &source.Type, &lastCheck, &stateJSON); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		if lastCheck.Valid {
			source.LastCheck = lastCheck.Time
		}
		source.State = []byte(stateJSON)
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

// ==================== File Store ====================

// fileStore implements driven.FileStore.
type fileStore struct {
	store *Store
}

var _ driven.FileStore = (*fileStore)(nil)

// HasSeen reports whether (sourceID, externalID) was ingested before.
func (s *fileStore) HasSeen(ctx context.Context, sourceID, externalID string) (bool, error) {
	var one int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT 1 FROM seen_files WHERE source_id = ? AND external_id = ?
	`, sourceID, externalID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking seen file: %w", err)
	}
	return true, nil
}

// Record inserts a pending file row. INSERT OR IGNORE carries the
// no-duplicate-ingestion invariant: re-recording an already-seen
// (source_id, external_id) pair leaves the existing row untouched.
func (s *fileStore) Record(ctx context.Context, file domain.IngestedFile) error {
	status := file.Status
	if status == "" {
		status = domain.StatusPending
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO seen_files
			(source_id, external_id, content_hash, size, filename, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, file.SourceID, file.ExternalID, file.ContentHash, file.Size,
		file.Filename, string(status), nullString(file.Error))
	if err != nil {
		return fmt.Errorf("recording file: %w", err)
	}
	return nil
}

// Pending returns all files awaiting transformation.
func (s *fileStore) Pending(ctx context.Context) ([]domain.IngestedFile, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_id, external_id, content_hash, size, filename, status, error
		FROM seen_files WHERE status = ? ORDER BY id
	`, string(domain.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("querying pending files: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

// UpdateStatusBatch applies terminal status transitions in one
// transaction.
func (s *fileStore) UpdateStatusBatch(ctx context.Context, updates []driven.FileStatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := applyStatusUpdates(ctx, tx, updates); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UnprocessedHashes returns content hashes of files not yet processed.
func (s *fileStore) UnprocessedHashes(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT DISTINCT content_hash FROM seen_files WHERE status = ?
	`, string(domain.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("querying unprocessed hashes: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// StatusCounts returns the number of files per status.
func (s *fileStore) StatusCounts(ctx context.Context) (map[domain.FileStatus]int, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM seen_files GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("querying status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.FileStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[domain.FileStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}
	return counts, nil
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// AddBatch inserts record rows and applies the accompanying file
// status updates in a single transaction, so a batch either commits
// whole or not at all.
func (s *recordStore) AddBatch(ctx context.Context, rows []driven.RecordRow, statuses []driven.FileStatusUpdate) error {
	if len(rows) == 0 && len(statuses) == 0 {
		return nil
	}
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO records (source_content_hash, record_type, unique_hash, payload_json)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing record insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			payloadJSON, err := json.Marshal(r.Payload)
			if err != nil {
				return fmt.Errorf("marshalling record payload: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, r.SourceContentHash, string(r.Type),
				r.UniqueHash, string(payloadJSON)); err != nil {
				return fmt.Errorf("inserting record: %w", err)
			}
		}
	}

	if err := applyStatusUpdates(ctx, tx, statuses); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ForBuild returns active records of the given types from the given
// sources, one per unique hash, in stable first-seen order. The
// representative of each unique-hash group is the lowest record id, so
// duplicates always resolve to the earliest-inserted payload.
func (s *recordStore) ForBuild(ctx context.Context, types []domain.FormatID, sourceIDs []string) ([]domain.Record, error) {
	if len(types) == 0 || len(sourceIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.source_content_hash, r.record_type, r.unique_hash,
		       r.payload_json, r.created_at, r.is_active
		FROM records r
		WHERE r.id IN (
			SELECT MIN(r2.id)
			FROM records r2
			JOIN seen_files f ON r2.source_content_hash = f.content_hash
			WHERE r2.record_type IN (%s)
			  AND f.source_id IN (%s)
			  AND r2.is_active = 1
			GROUP BY r2.unique_hash
		)
		ORDER BY r.id
	`, placeholders(len(types)), placeholders(len(sourceIDs)))

	args := make([]any, 0, len(types)+len(sourceIDs))
	for _, t := range types {
		args = append(args, string(t))
	}
	for _, id := range sourceIDs {
		args = append(args, id)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records for build: %w", err)
	}
	defer rows.Close()

	var records []domain.Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.Record
		var recordType, payloadJSON string
		var active int
		if err := rows.Scan(&r.ID, &r.SourceContentHash, &recordType,
			&r.UniqueHash, &payloadJSON, &r.CreatedAt, &active); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.Type = domain.FormatID(recordType)
		r.IsActive = active == 1
		if err := json.Unmarshal([]byte(payloadJSON), &r.Payload); err != nil {
			return nil, fmt.Errorf("unmarshalling record payload: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// ActiveContentHashes returns source content hashes referenced by
// active records.
func (s *recordStore) ActiveContentHashes(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT DISTINCT source_content_hash FROM records WHERE is_active = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("querying active content hashes: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// ActiveCount returns the number of active records.
func (s *recordStore) ActiveCount(ctx context.Context) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE is_active = 1").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting active records: %w", err)
	}
	return n, nil
}

// ==================== Published Store ====================

// publishedStore implements driven.PublishedStore.
type publishedStore struct {
	store *Store
}

var _ driven.PublishedStore = (*publishedStore)(nil)

// LastHash returns the most recent artifact hash for a route name.
func (s *publishedStore) LastHash(ctx context.Context, routeName string) (string, error) {
	var hash string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT artifact_hash FROM published_artifacts
		WHERE route_name = ?
		ORDER BY id DESC LIMIT 1
	`, routeName).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying last published hash: %w", err)
	}
	return hash, nil
}

// MarkPublished appends a publication row.
func (s *publishedStore) MarkPublished(ctx context.Context, artifact domain.PublishedArtifact) error {
	metadataJSON, err := json.Marshal(artifact.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling publication metadata: %w", err)
	}
	publishedAt := artifact.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO published_artifacts (route_name, artifact_hash, published_at, metadata_json)
		VALUES (?, ?, ?, ?)
	`, artifact.RouteName, artifact.ArtifactHash, publishedAt, string(metadataJSON))
	if err != nil {
		return fmt.Errorf("marking published: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// applyStatusUpdates executes terminal status transitions inside an
// open transaction.
func applyStatusUpdates(ctx context.Context, tx *sql.Tx, updates []driven.FileStatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		UPDATE seen_files SET status = ?, error = ? WHERE id = ? AND status = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing status update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, string(u.Status), nullString(u.Error),
			u.FileID, string(domain.StatusPending)); err != nil {
			return fmt.Errorf("updating file status: %w", err)
		}
	}
	return nil
}

// scanFiles scans seen_files rows.
func scanFiles(rows *sql.Rows) ([]domain.IngestedFile, error) {
	var files []domain.IngestedFile //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.IngestedFile
		var status string
		var errMsg sql.NullString
		if err := rows.Scan(&f.ID, &f.SourceID, &f.ExternalID, &f.ContentHash,
			&f.Size, &f.Filename, &status, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		f.Status = domain.FileStatus(status)
		f.Error = errMsg.String
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return files, nil
}

// scanStrings scans a single-column string result set.
func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating values: %w", err)
	}
	return out, nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// nullString converts "" to NULL for storage.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullTime converts the zero time to NULL for storage.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
