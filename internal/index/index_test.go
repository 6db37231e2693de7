package index_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/embeddings"
	"github.com/0x5457/note-index/internal/index"
	"github.com/0x5457/note-index/internal/models"
)

type fakeSource struct {
	docs []models.Document
}

func (f *fakeSource) List(_ context.Context) ([]models.Document, error) {
	return f.docs, nil
}

// countingEmbedder wraps the local embedder and counts embed requests.
type countingEmbedder struct {
	inner embeddings.Embedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	return c.inner.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) ModelName() string { return c.inner.ModelName() }
func (c *countingEmbedder) Dimensions() int   { return c.inner.Dimensions() }

// memVectorStore records upserted chunks per document so tests can observe
// exactly which rows a build leaves behind.
type memVectorStore struct {
	chunks map[string][]models.Chunk
}

func newMemVectorStore() *memVectorStore {
	return &memVectorStore{chunks: map[string][]models.Chunk{}}
}

func (m *memVectorStore) Upsert(cs []models.Chunk) error {
	for _, c := range cs {
		m.chunks[c.Doc] = append(m.chunks[c.Doc], c)
	}
	return nil
}

func (m *memVectorStore) DeleteByDoc(doc string) error {
	delete(m.chunks, doc)
	return nil
}

func (m *memVectorStore) DeleteAll() error {
	m.chunks = map[string][]models.Chunk{}
	return nil
}

func (m *memVectorStore) Query(_ []float32, _ int) ([]models.SemanticHit, error) {
	return nil, nil
}

type memTitleStore struct {
	titles map[string]models.NoteTitle
}

func newMemTitleStore() *memTitleStore {
	return &memTitleStore{titles: map[string]models.NoteTitle{}}
}

func (m *memTitleStore) UpsertTitles(entries []models.NoteTitle) error {
	for _, e := range entries {
		m.titles[e.Doc] = e
	}
	return nil
}

func (m *memTitleStore) DeleteByDoc(doc string) error {
	delete(m.titles, doc)
	return nil
}

func (m *memTitleStore) DeleteAll() error {
	m.titles = map[string]models.NoteTitle{}
	return nil
}

func (m *memTitleStore) FindByTitle(title string) ([]models.NoteTitle, error) {
	var out []models.NoteTitle
	for _, e := range m.titles {
		if e.Title == title {
			out = append(out, e)
		}
	}
	return out, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.CachePath = filepath.Join(t.TempDir(), "cache.json")
	return cfg
}

func threeDocs() []models.Document {
	now := time.Now()
	return []models.Document{
		{ID: "one.md", Title: "one", Content: "Notes about gardening tomatoes.", ModTime: now},
		{ID: "two.md", Title: "two", Content: "Minutes of the quarterly budget meeting.", ModTime: now},
		{ID: "three.md", Title: "three", Content: "A recipe for sourdough bread.", ModTime: now},
	}
}

func Test_Build_ThreeDocsThreeChunks(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{docs: threeDocs()}
	idx := index.New(cfg, embeddings.NewLocal(16), src, nil, nil, nil)

	if err := idx.Build(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	stats := idx.Stats()
	if stats.TotalChunks != 3 || stats.TotalDocuments != 3 {
		t.Fatalf("stats = %+v, want 3 chunks over 3 documents", stats)
	}
	if !stats.IsBuilt {
		t.Fatalf("index not marked built")
	}

	// query identical to document two ranks it first
	passages := idx.RetrieveContext(context.Background(), "Minutes of the quarterly budget meeting.")
	if len(passages) == 0 {
		t.Fatal("expected passages")
	}
	if !strings.HasPrefix(passages[0], "[two.md]") {
		t.Fatalf("expected two.md ranked first, got %q", passages[0])
	}
}

func Test_Build_LoadsCacheInsteadOfEmbedding(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{docs: threeDocs()}

	first := index.New(cfg, embeddings.NewLocal(16), src, nil, nil, nil)
	if err := first.Build(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	before := first.Stats()

	counter := &countingEmbedder{inner: embeddings.NewLocal(16)}
	second := index.New(cfg, counter, src, nil, nil, nil)
	if err := second.Build(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if got := counter.calls.Load(); got != 0 {
		t.Fatalf("cache load must not embed, got %d calls", got)
	}
	after := second.Stats()
	if after.TotalChunks != before.TotalChunks || after.TotalDocuments != before.TotalDocuments {
		t.Fatalf("round-trip mismatch: %+v vs %+v", before, after)
	}
}

func Test_Build_ForceRebuilds(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{docs: threeDocs()}

	first := index.New(cfg, embeddings.NewLocal(16), src, nil, nil, nil)
	if err := first.Build(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	counter := &countingEmbedder{inner: embeddings.NewLocal(16)}
	second := index.New(cfg, counter, src, nil, nil, nil)
	if err := second.Build(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if counter.calls.Load() == 0 {
		t.Fatal("force rebuild must recompute embeddings")
	}
}

func Test_UpdateFile_UnchangedMtimeIsNoop(t *testing.T) {
	cfg := testConfig(t)
	docs := threeDocs()
	src := &fakeSource{docs: docs}
	counter := &countingEmbedder{inner: embeddings.NewLocal(16)}
	idx := index.New(cfg, counter, src, nil, nil, nil)

	if err := idx.Build(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	buildCalls := counter.calls.Load()
	before := idx.Stats()

	if err := idx.UpdateFile(context.Background(), "one.md", docs[0].Content, docs[0].ModTime); err != nil {
		t.Fatal(err)
	}
	if counter.calls.Load() != buildCalls {
		t.Fatal("unchanged mtime must not trigger embedding calls")
	}
	if got := idx.Stats(); got != before {
		t.Fatalf("stats changed on no-op update: %+v vs %+v", got, before)
	}
}

func Test_UpdateFile_ReplacesChunks(t *testing.T) {
	cfg := testConfig(t)
	docs := threeDocs()
	src := &fakeSource{docs: docs}
	idx := index.New(cfg, embeddings.NewLocal(16), src, nil, nil, nil)

	if err := idx.Build(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	later := docs[0].ModTime.Add(time.Minute)
	if err := idx.UpdateFile(context.Background(), "one.md", "Entirely new gardening notes.", later); err != nil {
		t.Fatal(err)
	}
	stats := idx.Stats()
	if stats.TotalDocuments != 3 {
		t.Fatalf("document count changed: %+v", stats)
	}

	passages := idx.RetrieveContext(context.Background(), "Entirely new gardening notes.")
	if len(passages) == 0 || !strings.HasPrefix(passages[0], "[one.md]") {
		t.Fatalf("updated content not retrievable: %v", passages)
	}
}

func Test_RemoveFile_NoPassagesFromRemovedDoc(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{docs: threeDocs()}
	idx := index.New(cfg, embeddings.NewLocal(16), src, nil, nil, nil)

	if err := idx.Build(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if err := idx.RemoveFile("two.md"); err != nil {
		t.Fatal(err)
	}
	passages := idx.RetrieveContext(context.Background(), "Minutes of the quarterly budget meeting.")
	for _, p := range passages {
		if strings.HasPrefix(p, "[two.md]") {
			t.Fatalf("passage attributed to removed document: %q", p)
		}
	}
}

func Test_RetrieveContext_DisabledReturnsEmpty(t *testing.T) {
	cfg := testConfig(t)
	cfg.Indexing.Disabled = true
	idx := index.New(cfg, embeddings.NewLocal(16), &fakeSource{docs: threeDocs()}, nil, nil, nil)

	if got := idx.RetrieveContext(context.Background(), "anything"); got != nil {
		t.Fatalf("disabled retrieval must be empty, got %v", got)
	}
}

func Test_RetrieveContext_DegradesOnEmbedFailure(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{docs: threeDocs()}
	idx := index.New(cfg, embeddings.NewLocal(16), src, nil, nil, nil)
	if err := idx.Build(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	// swap in a provider that always fails
	broken := index.New(cfg, embeddings.NewOpenAI("", ""), src, nil, nil, nil)
	if err := broken.Build(context.Background(), false); err != nil {
		t.Fatal(err) // loads from cache, no embedding needed
	}
	if got := broken.RetrieveContext(context.Background(), "anything"); got != nil {
		t.Fatalf("failed retrieval must degrade to empty, got %v", got)
	}
}

func Test_Clear_RemovesCacheArtifact(t *testing.T) {
	cfg := testConfig(t)
	idx := index.New(cfg, embeddings.NewLocal(16), &fakeSource{docs: threeDocs()}, nil, nil, nil)

	if err := idx.Build(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cfg.CachePath); err != nil {
		t.Fatalf("cache artifact missing after build: %v", err)
	}
	if err := idx.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cfg.CachePath); !os.IsNotExist(err) {
		t.Fatalf("cache artifact still present after clear")
	}
	if idx.Stats().TotalChunks != 0 {
		t.Fatal("snapshot not emptied")
	}
}

func Test_Build_PurgesVanishedDocsFromMirror(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{docs: threeDocs()}
	vec := newMemVectorStore()
	ttl := newMemTitleStore()
	idx := index.New(cfg, embeddings.NewLocal(16), src, vec, ttl, nil)

	if err := idx.Build(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if _, ok := vec.chunks["three.md"]; !ok {
		t.Fatal("expected vector rows for three.md after first build")
	}

	// three.md was deleted from the vault while nothing was watching, so
	// no RemoveFile ever ran for it
	src.docs = src.docs[:2]
	if err := idx.Build(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if _, ok := vec.chunks["three.md"]; ok {
		t.Fatal("vector rows for a deleted document survived the rebuild")
	}
	if _, ok := ttl.titles["three.md"]; ok {
		t.Fatal("title row for a deleted document survived the rebuild")
	}
	if len(vec.chunks) != 2 || len(ttl.titles) != 2 {
		t.Fatalf("mirror holds %d docs and %d titles, want 2 and 2", len(vec.chunks), len(ttl.titles))
	}
}

func Test_Clear_PendingSaveDoesNotRecreateCache(t *testing.T) {
	cfg := testConfig(t)
	docs := threeDocs()
	src := &fakeSource{docs: docs}
	idx := index.New(cfg, embeddings.NewLocal(16), src, nil, nil, nil)

	if err := idx.Build(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	// schedule a debounced save, then clear before it fires
	later := docs[0].ModTime.Add(time.Minute)
	if err := idx.UpdateFile(context.Background(), "one.md", "Fresh gardening notes.", later); err != nil {
		t.Fatal(err)
	}
	if err := idx.Clear(); err != nil {
		t.Fatal(err)
	}

	// wait past the debounce window in case a timer was left armed
	time.Sleep(3 * time.Second)
	if _, err := os.Stat(cfg.CachePath); !os.IsNotExist(err) {
		t.Fatal("debounced save recreated the cache after clear")
	}
}
