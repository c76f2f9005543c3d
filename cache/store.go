package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// storeVersion is the version of schema.sql.
const storeVersion = 1

var (
	ErrNotFound      = errors.New("cache document not found")
	ErrLocked        = errors.New("cache is locked by another process")
	ErrSchemaVersion = errors.New("cache schema version mismatch")
)

// Kind names a document type in the store.
type Kind string

const (
	KindRaw   Kind = "raw"
	KindStats Kind = "stats"
)

// Store keeps the latest raw and stats documents per sheet in a sqlite file.
// Writers hold a file lock next to the database for the whole pass so two
// processes never interleave their documents.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open creates or opens the store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path, lock: flock.New(path + ".lock")}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create cache schema: %w", err)
	}
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", storeVersion); err != nil {
			return fmt.Errorf("record cache schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read cache schema version: %w", err)
	case version != storeVersion:
		return fmt.Errorf("%w: store has %d, want %d; delete %s to rebuild it", ErrSchemaVersion, version, storeVersion, s.path)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the lock if held and closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	_ = s.Unlock()
	return s.db.Close()
}

// Lock takes the writer lock without waiting. ErrLocked means another process
// is writing.
func (s *Store) Lock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Unlock releases the writer lock.
func (s *Store) Unlock() error {
	if !s.lock.Locked() {
		return nil
	}
	return s.lock.Unlock()
}

type row struct {
	rawHash     string
	algorithm   string
	generatedAt time.Time
	body        []byte
}

func (s *Store) put(ctx context.Context, kind Kind, sheetID string, r row) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (kind, sheet_id, raw_hash, algorithm, generated_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, sheet_id) DO UPDATE SET
			raw_hash = excluded.raw_hash,
			algorithm = excluded.algorithm,
			generated_at = excluded.generated_at,
			body = excluded.body`,
		string(kind), sheetID, r.rawHash, r.algorithm, r.generatedAt.UTC().Format(time.RFC3339Nano), r.body)
	if err != nil {
		return fmt.Errorf("store %s document: %w", kind, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, kind Kind, sheetID string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE kind = ? AND sheet_id = ?", string(kind), sheetID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s document: %w", kind, err)
	}
	return body, nil
}

// PutRaw stores the raw document for its sheet.
func (s *Store) PutRaw(ctx context.Context, doc *RawDocument) error {
	body, err := MarshalDocument(doc)
	if err != nil {
		return err
	}
	return s.put(ctx, KindRaw, doc.Source.SheetID, row{
		rawHash:     doc.RawHash,
		generatedAt: doc.GeneratedAt,
		body:        body,
	})
}

// GetRaw loads the raw document for a sheet.
func (s *Store) GetRaw(ctx context.Context, sheetID string) (*RawDocument, error) {
	body, err := s.get(ctx, KindRaw, sheetID)
	if err != nil {
		return nil, err
	}
	return UnmarshalRaw(body)
}

// PutStats stores the stats document for a sheet.
func (s *Store) PutStats(ctx context.Context, sheetID string, doc *StatsDocument) error {
	body, err := MarshalDocument(doc)
	if err != nil {
		return err
	}
	return s.put(ctx, KindStats, sheetID, row{
		rawHash:     doc.RawHash,
		algorithm:   doc.StatsAlgorithmVersion,
		generatedAt: doc.GeneratedAt,
		body:        body,
	})
}

// GetStats loads the stats document for a sheet.
func (s *Store) GetStats(ctx context.Context, sheetID string) (*StatsDocument, error) {
	body, err := s.get(ctx, KindStats, sheetID)
	if err != nil {
		return nil, err
	}
	return UnmarshalStats(body)
}

// LookupStats returns the stats document for a sheet only when it was computed
// from raw input with the given hash by the current algorithm.
func (s *Store) LookupStats(ctx context.Context, sheetID, rawHash string) (*StatsDocument, bool, error) {
	var storedHash, algorithm string
	err := s.db.QueryRowContext(ctx,
		"SELECT raw_hash, algorithm FROM documents WHERE kind = ? AND sheet_id = ?", string(KindStats), sheetID,
	).Scan(&storedHash, &algorithm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("check stats document: %w", err)
	}
	if storedHash != rawHash || algorithm != StatsAlgorithmVersion {
		return nil, false, nil
	}
	doc, err := s.GetStats(ctx, sheetID)
	if err != nil {
		if errors.Is(err, ErrSchemaVersion) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return doc, doc.ValidFor(rawHash), nil
}
