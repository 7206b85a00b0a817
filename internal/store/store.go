// Package store owns the durable state: a SQLite database holding the node
// tree and the append-only history snapshots. All access goes through
// context-aware methods; multi-row mutations run inside a single transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	TypeFolder = "folder"
	TypeNote   = "note"
)

// Node is one row of the nodes table. ParentID is nil for top-level nodes;
// the parent relation is expected to form a forest, enforced by the move
// logic, not the schema.
type Node struct {
	ID            int64
	ParentID      *int64
	Title         string
	Type          string
	Usage         string
	CodeSnippet   string
	CustomModules string
	IsExpanded    bool
	Tags          string
	IsFavorite    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// History is an immutable snapshot of a note's editable fields. NoteID is not
// a foreign key: a snapshot may outlive its note.
type History struct {
	ID        int64
	NoteID    int64
	Title     string
	Content   string
	CreatedAt time.Time
}

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
}

type OpenOptions struct {
	BusyTimeout time.Duration
}

func Open(path string) (*Store, error) {
	return OpenWithOptions(path, OpenOptions{})
}

func OpenWithOptions(path string, opts OpenOptions) (*Store, error) {
	busyMillis := opts.BusyTimeout.Milliseconds()
	if busyMillis <= 0 {
		busyMillis = 5000
	}
	dsn := fmt.Sprintf("file:%s?_fk=1&_busy_timeout=%d", path, busyMillis)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SetLockTimeout(d time.Duration) {
	s.lockTimeout = d
}

// Init applies the schema and, on a fresh database, creates the root folder.
// The root row has a real id of its own; the wire sentinel 0 always means
// "no parent" and never refers to it.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}
	version, err := s.getSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != schemaVersion {
		if err := s.setSchemaVersion(ctx, schemaVersion); err != nil {
			return err
		}
	}
	return s.ensureRoot(ctx)
}

func (s *Store) getSchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, v int) error {
	if _, err := s.execContext(ctx, "DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := s.execContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", v)
	return err
}

func (s *Store) ensureRoot(ctx context.Context) error {
	var count int
	if err := s.queryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	now := time.Now().Unix()
	_, err := s.execContext(ctx, `
		INSERT INTO nodes(parent_id, title, type, is_expanded, tags, created_at, updated_at)
		VALUES(NULL, 'Root', 'folder', 1, 'system,root', ?, ?)`, now, now)
	return err
}
