package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/pathway/internal/graph"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial graph schema
const currentSchemaVersion = 1

// ErrInvalidSpec is returned when a creation spec or index declaration is
// malformed.
var ErrInvalidSpec = errors.New("invalid element spec")

// Store is a graph.Graph persisted in SQLite.
//
// Thread-safety: all access goes through one connection. Mutations must
// still be serialized by the caller, as for every graph.Graph.
type Store struct {
	db   *sql.DB
	ids  graph.IDGenerator
	path string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the generator used for created elements.
// Default is graph.UUIDv7Generator.
func WithIDGenerator(gen graph.IDGenerator) Option {
	return func(s *Store) {
		s.ids = gen
	}
}

// Open opens the graph database at path, creating it if needed. The path
// ":memory:" gives a private in-memory database that lives as long as the
// Store.
//
// Opening an existing database is safe: the schema is only created where
// missing, and a database written by a newer schema version is refused.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open graph database %s: %w", path, err)
	}

	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, ids: graph.UUIDv7Generator{}, path: path}
	for _, opt := range opts {
		opt(s)
	}

	for _, step := range []struct {
		name string
		fn   func(*sql.DB) error
	}{
		{"connect", func(db *sql.DB) error { return db.Ping() }},
		{"configure", configure},
		{"migrate", migrate},
	} {
		if err := step.fn(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s graph database %s: %w", step.name, path, err)
		}
	}
	return s, nil
}

// Close releases the database. Closing twice is harmless.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// String identifies the backend in logs and plan output.
func (s *Store) String() string {
	return "sqlite:" + s.path
}

// Counts returns the number of stored nodes and relationships.
func (s *Store) Counts(ctx context.Context) (nodes, rels int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM nodes), (SELECT COUNT(*) FROM relationships)
	`).Scan(&nodes, &rels)
	if err != nil {
		return 0, 0, fmt.Errorf("count elements: %w", err)
	}
	return nodes, rels, nil
}

// connectionPragmas are applied to every connection before use. Relationship
// endpoints are foreign keys, so foreign_keys must be on for CreateElements
// to reject dangling references.
var connectionPragmas = []struct {
	name, value string
}{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

func configure(db *sql.DB) error {
	for _, p := range connectionPragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
	}
	return nil
}

// migrate brings the schema to currentSchemaVersion. user_version records
// the version a database was last written with.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case version > currentSchemaVersion:
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	case version == currentSchemaVersion:
		return nil
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// pragma reads the current value of a connection pragma.
func (s *Store) pragma(name string) (string, error) {
	var v string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&v); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return v, nil
}

var (
	_ graph.Graph             = (*Store)(nil)
	_ graph.NodeFilterScanner = (*Store)(nil)
)
