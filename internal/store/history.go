package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetHistory returns nil without error when the id is unknown.
func (s *Store) GetHistory(ctx context.Context, id int64) (*History, error) {
	row := s.queryRowContext(ctx, "SELECT id, note_id, title, content, created_at FROM history WHERE id=?", id)
	h, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) HistoryByNote(ctx context.Context, noteID int64, limit int) ([]History, error) {
	rows, err := s.queryContext(ctx, `
		SELECT id, note_id, title, content, created_at
		FROM history WHERE note_id=?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, noteID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []History
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) InsertHistory(ctx context.Context, h *History) (int64, error) {
	res, err := s.execContext(ctx,
		"INSERT INTO history(note_id, title, content, created_at) VALUES(?, ?, ?, ?)",
		h.NoteID, h.Title, h.Content, h.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RestoreNode writes the pre-restore snapshot and applies the restored field
// values to the live note in one transaction.
func (s *Store) RestoreNode(ctx context.Context, n *Node, snapshot *History) error {
	tx, start, err := s.beginTx(ctx, "restore-node")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "restore-node", start)

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO history(note_id, title, content, created_at) VALUES(?, ?, ?, ?)",
		snapshot.NoteID, snapshot.Title, snapshot.Content, snapshot.CreatedAt.Unix()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE nodes SET title=?, usage=?, code_snippet=?, tags=?, custom_modules=?, updated_at=?
		WHERE id=?`,
		n.Title, n.Usage, n.CodeSnippet, n.Tags, n.CustomModules, n.UpdatedAt.Unix(), n.ID); err != nil {
		return err
	}
	return s.commitTx(tx, "restore-node", start)
}

func scanHistory(sc rowScanner) (History, error) {
	var h History
	var createdUnix int64
	if err := sc.Scan(&h.ID, &h.NoteID, &h.Title, &h.Content, &createdUnix); err != nil {
		return History{}, err
	}
	h.CreatedAt = time.Unix(createdUnix, 0).UTC()
	return h, nil
}
