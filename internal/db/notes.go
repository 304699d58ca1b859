package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
)

// NoteStore implements note.Store on top of SQLite.
type NoteStore struct {
	db *sql.DB
}

// NewNoteStore wraps an initialized database handle.
func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

// Put inserts or overwrites the note at key. created_at is preserved on
// overwrite; updated_at always moves forward.
func (s *NoteStore) Put(ctx context.Context, key note.Key, n note.Note) error {
	now := time.Now().Unix()

	query := `
		INSERT INTO notes (owner, id, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, key.Owner, int64(key.ID), n.Title, n.Content, now, now)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Get returns the note at key, or (nil, nil) if absent.
func (s *NoteStore) Get(ctx context.Context, key note.Key) (*note.Note, error) {
	query := `SELECT title, content FROM notes WHERE owner = ? AND id = ?`

	var n note.Note
	err := s.db.QueryRowContext(ctx, query, key.Owner, int64(key.ID)).Scan(&n.Title, &n.Content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &n, nil
}

// Exists reports whether a note is stored at key.
func (s *NoteStore) Exists(ctx context.Context, key note.Key) (bool, error) {
	query := `SELECT 1 FROM notes WHERE owner = ? AND id = ? LIMIT 1`

	var one int
	err := s.db.QueryRowContext(ctx, query, key.Owner, int64(key.ID)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// Remove deletes the note at key, reporting whether one existed.
func (s *NoteStore) Remove(ctx context.Context, key note.Key) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE owner = ? AND id = ?`, key.Owner, int64(key.ID))
	if err != nil {
		return false, errors.NewInternal(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected > 0, nil
}

// ListFor returns all entries belonging to owner, ordered by id.
func (s *NoteStore) ListFor(ctx context.Context, owner string) ([]note.Entry, error) {
	query := `SELECT id, title, content FROM notes WHERE owner = ? ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	entries := make([]note.Entry, 0)
	for rows.Next() {
		var id int64
		var n note.Note
		if err := rows.Scan(&id, &n.Title, &n.Content); err != nil {
			return nil, errors.NewInternal(err)
		}
		entries = append(entries, note.Entry{ID: uint64(id), Note: n})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}
