package sqlvec

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/0x5457/note-index/internal/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "vec.db"), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func chunk(id, doc string, emb []float32) models.Chunk {
	return models.Chunk{
		ID:         id,
		Doc:        doc,
		Seq:        0,
		Text:       "text of " + id,
		TokenCount: 3,
		Embedding:  emb,
		DocModTime: time.Unix(1700000000, 0),
	}
}

func TestQueryScoresAreCosineSimilarity(t *testing.T) {
	s := openStore(t)
	// unit vectors with known cosine similarity against the query [1, 0]
	b := float32(math.Sqrt(1 - 0.78*0.78))
	err := s.Upsert([]models.Chunk{
		chunk("c1", "a.md", []float32{1, 0}),
		chunk("c2", "b.md", []float32{0.78, b}),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := s.Query([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Chunk.Doc != "a.md" || hits[1].Chunk.Doc != "b.md" {
		t.Fatalf("got order %s, %s", hits[0].Chunk.Doc, hits[1].Chunk.Doc)
	}
	if d := math.Abs(float64(hits[0].Score) - 1.0); d > 1e-3 {
		t.Errorf("identical vector scored %v, want 1.0", hits[0].Score)
	}
	if d := math.Abs(float64(hits[1].Score) - 0.78); d > 1e-3 {
		t.Errorf("cosine-0.78 vector scored %v, want 0.78", hits[1].Score)
	}
}

func TestDeleteAllRemovesEveryRow(t *testing.T) {
	s := openStore(t)
	err := s.Upsert([]models.Chunk{
		chunk("c1", "a.md", []float32{1, 0}),
		chunk("c2", "b.md", []float32{0, 1}),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	hits, err := s.Query([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("got %d hits after DeleteAll, want 0", len(hits))
	}
}

func TestUpsertAfterDeleteAll(t *testing.T) {
	s := openStore(t)
	if err := s.Upsert([]models.Chunk{chunk("c1", "a.md", []float32{1, 0})}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if err := s.Upsert([]models.Chunk{chunk("c2", "b.md", []float32{0, 1})}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	hits, err := s.Query([]float32{0, 1}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk.Doc != "b.md" {
		t.Fatalf("got %+v, want the one re-inserted chunk", hits)
	}
}
