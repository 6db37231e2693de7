// Package sqlvec stores chunk embeddings in SQLite via the sqlite-vec
// extension and serves KNN queries over them.
package sqlvec

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/0x5457/note-index/internal/models"
)

type Store struct {
	db        *sql.DB
	dimension int
}

func New(path string, dimension int) (*Store, error) {
	// enable sqlite-vec for all future connections
	sqlite_vec.Auto()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, dimension); err != nil {
		return nil, err
	}
	return &Store{db: db, dimension: dimension}, nil
}

func migrate(db *sql.DB, dim int) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		seq INTEGER NOT NULL,
		content TEXT,
		token_count INTEGER,
		doc_mtime INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc);`); err != nil {
		return err
	}
	// vec0 virtual table holds embeddings; dimension is fixed per table.
	// If dim <= 0, defer creation until first Upsert when dimension is known.
	if dim > 0 {
		if err := createVecTables(db, dim); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func createVecTables(e execer, dim int) error {
	if _, err := e.Exec(fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(
        embedding float32[%d] distance_metric=cosine
    );`, dim)); err != nil {
		return err
	}
	if _, err := e.Exec(`CREATE TABLE IF NOT EXISTS vec_map (
        rid INTEGER UNIQUE NOT NULL,
        id TEXT UNIQUE NOT NULL
    );`); err != nil {
		return err
	}
	_, err := e.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_vec_map_id ON vec_map(id);`)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Upsert(chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := s.ensureVecTable(tx, chunks); err != nil {
		_ = tx.Rollback()
		return err
	}

	chunkStmt, err := tx.Prepare(`INSERT INTO chunks(id,doc,seq,content,token_count,doc_mtime)
	VALUES(?,?,?,?,?,?)
	ON CONFLICT(id) DO UPDATE SET
		doc=excluded.doc,
		seq=excluded.seq,
		content=excluded.content,
		token_count=excluded.token_count,
		doc_mtime=excluded.doc_mtime`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = chunkStmt.Close() }()

	insertVecStmt, err := tx.Prepare(`INSERT INTO vec_embeddings(embedding) VALUES(?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = insertVecStmt.Close() }()
	replaceVecStmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO vec_embeddings(rowid, embedding) VALUES(?, ?)`,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = replaceVecStmt.Close() }()
	upsertMapStmt, err := tx.Prepare(`INSERT OR REPLACE INTO vec_map(rid, id) VALUES(?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = upsertMapStmt.Close() }()
	selectRidStmt, err := tx.Prepare(`SELECT rid FROM vec_map WHERE id = ?`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = selectRidStmt.Close() }()

	for _, ch := range chunks {
		if _, err := chunkStmt.Exec(
			ch.ID, ch.Doc, ch.Seq, ch.Text, ch.TokenCount, ch.DocModTime.Unix(),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
		v, err := sqlite_vec.SerializeFloat32(ch.Embedding)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		var rid sql.NullInt64
		if err := selectRidStmt.QueryRow(ch.ID).Scan(&rid); err != nil &&
			!errors.Is(err, sql.ErrNoRows) {
			_ = tx.Rollback()
			return err
		}
		if rid.Valid {
			if _, err := replaceVecStmt.Exec(rid.Int64, v); err != nil {
				_ = tx.Rollback()
				return err
			}
		} else {
			if _, err := insertVecStmt.Exec(v); err != nil {
				_ = tx.Rollback()
				return err
			}
			var newRid int64
			if err := tx.QueryRow(`SELECT last_insert_rowid()`).Scan(&newRid); err != nil {
				_ = tx.Rollback()
				return err
			}
			if _, err := upsertMapStmt.Exec(newRid, ch.ID); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *Store) DeleteByDoc(doc string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	rows, err := tx.Query(`SELECT id FROM chunks WHERE doc = ?`, doc)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			_ = tx.Rollback()
			return err
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if _, err := tx.Exec(`DELETE FROM chunks WHERE doc = ?`, doc); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, id := range ids {
		var rid sql.NullInt64
		if err := tx.QueryRow(`SELECT rid FROM vec_map WHERE id = ?`, id).Scan(&rid); err != nil &&
			!errors.Is(err, sql.ErrNoRows) {
			_ = tx.Rollback()
			return err
		}
		if rid.Valid {
			if _, err := tx.Exec(`DELETE FROM vec_embeddings WHERE rowid = ?`, rid.Int64); err != nil {
				_ = tx.Rollback()
				return err
			}
			if _, err := tx.Exec(`DELETE FROM vec_map WHERE rid = ?`, rid.Int64); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

// DeleteAll drops every stored chunk and embedding. A full rebuild calls
// this so rows for documents gone from the vault do not linger.
func (s *Store) DeleteAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM chunks`); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`DELETE FROM vec_map`); err != nil {
		_ = tx.Rollback()
		return err
	}
	// vec_embeddings is created lazily and may not exist yet
	var name string
	err = tx.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='vec_embeddings'`).
		Scan(&name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return err
	}
	if name == "vec_embeddings" {
		if _, err := tx.Exec(`DELETE FROM vec_embeddings`); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) Query(embedding []float32, topK int) ([]models.SemanticHit, error) {
	if topK <= 0 {
		topK = 5
	}
	v, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, err
	}
	// KNN via MATCH ... ORDER BY distance using sqlite-vec
	rows, err := s.db.Query(`
        WITH knn AS (
            SELECT rowid, distance
            FROM vec_embeddings
            WHERE embedding MATCH ?
            ORDER BY distance
            LIMIT ?
        )
        SELECT c.id, c.doc, c.seq, c.content, c.token_count, c.doc_mtime,
               k.distance as score
        FROM knn k
        JOIN vec_map m ON m.rid = k.rowid
        JOIN chunks c ON c.id = m.id
        ORDER BY k.distance ASC
    `, v, topK)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var hits []models.SemanticHit
	for rows.Next() {
		var ch models.Chunk
		var mtime int64
		var score float32
		if err := rows.Scan(&ch.ID, &ch.Doc, &ch.Seq, &ch.Text, &ch.TokenCount, &mtime, &score); err != nil {
			return nil, err
		}
		ch.DocModTime = time.Unix(mtime, 0)
		hits = append(hits, models.SemanticHit{Chunk: ch, Score: 1 - score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

func (s *Store) ensureVecTable(tx *sql.Tx, chunks []models.Chunk) error {
	var name string
	err := tx.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='vec_embeddings'`).
		Scan(&name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if name == "vec_embeddings" {
		return nil
	}
	if len(chunks) == 0 || len(chunks[0].Embedding) == 0 {
		return fmt.Errorf("cannot create vec_embeddings: unknown embedding dimension")
	}
	dim := len(chunks[0].Embedding)
	if err := createVecTables(tx, dim); err != nil {
		return err
	}
	s.dimension = dim
	return nil
}
