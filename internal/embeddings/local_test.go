package embeddings_test

import (
	"context"
	"testing"

	"github.com/0x5457/note-index/internal/embeddings"
)

func Test_LocalEmbedder_Deterministic(t *testing.T) {
	e := embeddings.NewLocal(8)
	v1, _ := e.Embed(context.Background(), "hello")
	v2, _ := e.Embed(context.Background(), "hello")
	if len(v1) != 8 || len(v2) != 8 {
		t.Fatalf("unexpected dim")
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("vectors differ at %d", i)
		}
	}
}

func Test_LocalEmbedder_BatchOrder(t *testing.T) {
	e := embeddings.NewLocal(8)
	texts := []string{"a", "b", "c"}
	vecs, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("batch length mismatch")
	}
	for i, txt := range texts {
		single, _ := e.Embed(context.Background(), txt)
		for j := range single {
			if vecs[i][j] != single[j] {
				t.Fatalf("batch vector %d differs from single embed", i)
			}
		}
	}
}
