package embeddings_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/embeddings"
)

func Test_CompatEmbedder_LearnsDimension(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		type datum struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Data []datum `json:"data"`
		}{}
		for i := range req.Input {
			resp.Data = append(resp.Data, datum{Embedding: []float32{1, 2, 3}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := embeddings.NewCompat(srv.URL, "", "nomic-embed-text")
	if e.Dimensions() != 0 {
		t.Fatalf("dimension must be unknown before the first response")
	}
	vecs, err := e.EmbedBatch(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 3 {
		t.Fatalf("unexpected vectors: %v", vecs)
	}
	if e.Dimensions() != 3 {
		t.Fatalf("dimension not learned: %d", e.Dimensions())
	}
	if gotAuth != "" {
		t.Fatalf("no Authorization header expected without an API key, got %q", gotAuth)
	}
}

func Test_CompatEmbedder_NetworkUnavailable(t *testing.T) {
	// nothing listens here
	e := embeddings.NewCompat("http://127.0.0.1:1", "", "m")
	_, err := e.Embed(context.Background(), "x")
	if !errors.Is(err, embeddings.ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}
}

func Test_OpenAI_NotConfigured(t *testing.T) {
	e := embeddings.NewOpenAI("", "")
	_, err := e.Embed(context.Background(), "x")
	if !errors.Is(err, embeddings.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func Test_Factory_Precedence(t *testing.T) {
	e := embeddings.New(config.EmbeddingConfig{
		SelfHostedURL: "http://localhost:11434/v1",
		Provider:      "custom",
		BaseURL:       "http://example.com/v1",
		Model:         "m",
	})
	if _, ok := e.(*embeddings.CompatEmbedder); !ok {
		t.Fatalf("self-hosted endpoint must win: got %T", e)
	}

	e = embeddings.New(config.EmbeddingConfig{Provider: "custom", BaseURL: "http://example.com/v1"})
	if _, ok := e.(*embeddings.CompatEmbedder); !ok {
		t.Fatalf("custom provider expected, got %T", e)
	}

	e = embeddings.New(config.EmbeddingConfig{APIKey: "sk-test"})
	if _, ok := e.(*embeddings.OpenAIEmbedder); !ok {
		t.Fatalf("cloud default expected, got %T", e)
	}
}
