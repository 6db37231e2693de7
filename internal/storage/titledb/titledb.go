// Package titledb persists note titles in SQLite for exact lookups.
package titledb

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/0x5457/note-index/internal/models"
	"github.com/0x5457/note-index/internal/titles"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS note_titles (
		doc TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		normalized TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_note_titles_normalized ON note_titles(normalized);`)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) UpsertTitles(entries []models.NoteTitle) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO note_titles(doc,title,normalized)
		VALUES(?,?,?)
		ON CONFLICT(doc) DO UPDATE SET
		title=excluded.title,
		normalized=excluded.normalized`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, e := range entries {
		norm := e.Normalized
		if norm == "" {
			norm = titles.Normalize(e.Title)
		}
		if _, err := stmt.Exec(e.Doc, e.Title, norm); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) DeleteByDoc(doc string) error {
	_, err := s.db.Exec(`DELETE FROM note_titles WHERE doc = ?`, doc)
	return err
}

// DeleteAll clears the table ahead of a full rebuild.
func (s *Store) DeleteAll() error {
	_, err := s.db.Exec(`DELETE FROM note_titles`)
	return err
}

// FindByTitle matches on the normalized form, so lookups are insensitive to
// case and punctuation.
func (s *Store) FindByTitle(title string) ([]models.NoteTitle, error) {
	rows, err := s.db.Query(
		`SELECT doc, title, normalized FROM note_titles WHERE normalized = ?`,
		titles.Normalize(title),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []models.NoteTitle
	for rows.Next() {
		var e models.NoteTitle
		if err := rows.Scan(&e.Doc, &e.Title, &e.Normalized); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
