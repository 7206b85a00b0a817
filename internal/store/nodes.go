package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const nodeColumns = "id, parent_id, title, type, usage, code_snippet, custom_modules, is_expanded, tags, is_favorite, created_at, updated_at"

func scanNode(sc rowScanner) (Node, error) {
	var n Node
	var parent sql.NullInt64
	var expanded, favorite int
	var createdUnix, updatedUnix int64
	err := sc.Scan(&n.ID, &parent, &n.Title, &n.Type, &n.Usage, &n.CodeSnippet,
		&n.CustomModules, &expanded, &n.Tags, &favorite, &createdUnix, &updatedUnix)
	if err != nil {
		return Node{}, err
	}
	if parent.Valid {
		v := parent.Int64
		n.ParentID = &v
	}
	n.IsExpanded = expanded != 0
	n.IsFavorite = favorite != 0
	n.CreatedAt = time.Unix(createdUnix, 0).UTC()
	n.UpdatedAt = time.Unix(updatedUnix, 0).UTC()
	return n, nil
}

// GetNode returns nil without error when the id is unknown.
func (s *Store) GetNode(ctx context.Context, id int64) (*Node, error) {
	row := s.queryRowContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE id=?", id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) AllNodes(ctx context.Context) ([]Node, error) {
	rows, err := s.queryContext(ctx, "SELECT "+nodeColumns+" FROM nodes ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

// Children lists the direct children of parentID; nil means top-level nodes.
func (s *Store) Children(ctx context.Context, parentID *int64) ([]Node, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == nil {
		rows, err = s.queryContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE parent_id IS NULL ORDER BY title")
	} else {
		rows, err = s.queryContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE parent_id=? ORDER BY title", *parentID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

func (s *Store) Favorites(ctx context.Context, limit int) ([]Node, error) {
	rows, err := s.queryContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE is_favorite=1 LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

func (s *Store) RecentNotes(ctx context.Context, limit int) ([]Node, error) {
	rows, err := s.queryContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE type='note' ORDER BY updated_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

// SearchColumn runs a case-insensitive substring scan over one of the three
// searchable columns. The column name is whitelisted here so callers can
// never feed identifiers into the query text.
func (s *Store) SearchColumn(ctx context.Context, column, keyword string, limit int) ([]Node, error) {
	switch column {
	case "title", "tags", "usage":
	default:
		return nil, fmt.Errorf("search column %q not allowed", column)
	}
	query := "SELECT " + nodeColumns + " FROM nodes WHERE instr(lower(" + column + "), lower(?)) > 0 LIMIT ?"
	rows, err := s.queryContext(ctx, query, keyword, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

func collectNodes(rows *sql.Rows) ([]Node, error) {
	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Store) InsertNode(ctx context.Context, n *Node) (int64, error) {
	res, err := s.execContext(ctx, `
		INSERT INTO nodes(parent_id, title, type, usage, code_snippet, custom_modules, is_expanded, tags, is_favorite, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(n.ParentID), n.Title, n.Type, n.Usage, n.CodeSnippet, n.CustomModules,
		boolInt(n.IsExpanded), n.Tags, boolInt(n.IsFavorite), n.CreatedAt.Unix(), n.UpdatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateNode rewrites a node's editable fields. When hist is non-nil the
// pre-update snapshot is written in the same transaction, so either both
// rows land or neither does.
func (s *Store) UpdateNode(ctx context.Context, n *Node, hist *History) error {
	tx, start, err := s.beginTx(ctx, "update-node")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "update-node", start)

	if hist != nil {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO history(note_id, title, content, created_at) VALUES(?, ?, ?, ?)",
			hist.NoteID, hist.Title, hist.Content, hist.CreatedAt.Unix()); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE nodes SET parent_id=?, title=?, usage=?, code_snippet=?, custom_modules=?, is_expanded=?, tags=?, is_favorite=?, updated_at=?
		WHERE id=?`,
		nullableID(n.ParentID), n.Title, n.Usage, n.CodeSnippet, n.CustomModules,
		boolInt(n.IsExpanded), n.Tags, boolInt(n.IsFavorite), n.UpdatedAt.Unix(), n.ID); err != nil {
		return err
	}
	return s.commitTx(tx, "update-node", start)
}

func (s *Store) UpdateParent(ctx context.Context, id int64, parentID *int64, now time.Time) error {
	_, err := s.execContext(ctx, "UPDATE nodes SET parent_id=?, updated_at=? WHERE id=?",
		nullableID(parentID), now.Unix(), id)
	return err
}

func (s *Store) SetFavorite(ctx context.Context, id int64, favorite bool, now time.Time) error {
	_, err := s.execContext(ctx, "UPDATE nodes SET is_favorite=?, updated_at=? WHERE id=?",
		boolInt(favorite), now.Unix(), id)
	return err
}

// DeleteNodes removes the given rows in one transaction; descendants go with
// them through the parent_id cascade.
func (s *Store) DeleteNodes(ctx context.Context, ids []int64) error {
	tx, start, err := s.beginTx(ctx, "delete-nodes")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "delete-nodes", start)

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE id=?", id); err != nil {
			return err
		}
	}
	return s.commitTx(tx, "delete-nodes", start)
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
