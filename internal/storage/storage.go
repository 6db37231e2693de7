package storage

import "github.com/0x5457/note-index/internal/models"

// VectorStore is an optional persistent mirror of the in-memory snapshot,
// for vaults too large to search in memory. Chunk embeddings travel inside
// the chunk records.
type VectorStore interface {
	Upsert(chunks []models.Chunk) error
	DeleteByDoc(doc string) error
	DeleteAll() error
	Query(embedding []float32, topK int) ([]models.SemanticHit, error)
}

// TitleStore persists note titles for exact lookups.
type TitleStore interface {
	UpsertTitles(titles []models.NoteTitle) error
	DeleteByDoc(doc string) error
	DeleteAll() error
	FindByTitle(title string) ([]models.NoteTitle, error)
}
