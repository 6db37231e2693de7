// Package index owns the corpus-wide collection of (document, chunk, vector)
// records. It orchestrates builds, incremental updates and persistence, and
// is the synchronization point for all index mutation.
package index

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/0x5457/note-index/internal/chunker"
	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/embeddings"
	"github.com/0x5457/note-index/internal/models"
	"github.com/0x5457/note-index/internal/storage"
	"github.com/0x5457/note-index/internal/util"
	"github.com/0x5457/note-index/internal/vectormath"
)

// saveDebounce coalesces bursts of incremental updates into one disk write.
const saveDebounce = 2 * time.Second

// Source enumerates the current corpus.
type Source interface {
	List(ctx context.Context) ([]models.Document, error)
}

// Index is the semantic index. Mutation (Build, UpdateFile, RemoveFile,
// Clear) is serialized by a single-writer lock; retrieval reads run
// concurrently against a stable snapshot.
type Index struct {
	cfg    *config.Config
	emb    embeddings.Embedder
	source Source
	vec    storage.VectorStore // optional sqlite mirror, may be nil
	ttl    storage.TitleStore  // optional, may be nil
	logger *log.Logger

	wmu sync.Mutex // single writer over snapshot mutation

	mu        sync.RWMutex
	chunks    map[string][]models.Chunk
	lastBuilt time.Time
	built     bool

	saveMu    sync.Mutex
	saveTimer *time.Timer
	saveGen   uint64 // bumped on cancel; a fired timer from an older generation must not write
}

func New(
	cfg *config.Config,
	emb embeddings.Embedder,
	source Source,
	vec storage.VectorStore,
	ttl storage.TitleStore,
	logger *log.Logger,
) *Index {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Index{
		cfg:    cfg,
		emb:    emb,
		source: source,
		vec:    vec,
		ttl:    ttl,
		logger: logger,
		chunks: make(map[string][]models.Chunk),
	}
}

// Build populates the index. A valid persisted cache is loaded instead of
// recomputing embeddings unless force is set. A full build always persists
// immediately, never debounced.
func (i *Index) Build(ctx context.Context, force bool) error {
	i.wmu.Lock()
	defer i.wmu.Unlock()

	if !force {
		if c, err := loadCache(i.cfg.CachePath); err == nil {
			i.adopt(groupByDoc(c.Chunks), c.LastBuilt)
			return nil
		} else if !os.IsNotExist(err) {
			i.logger.Printf("index cache discarded: %v", err)
		}
	}

	docs, err := i.source.List(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	var all []models.Chunk
	// embed the chunks of a batch of documents together, one batch at a
	// time, to bound peak request size and respect provider rate limits
	batchDocs := i.cfg.Indexing.BatchSize
	for start := 0; start < len(docs); start += batchDocs {
		end := min(start+batchDocs, len(docs))
		var batch []models.Chunk
		for _, doc := range docs[start:end] {
			cs, err := i.chunkDocument(doc)
			if err != nil {
				return err
			}
			batch = append(batch, cs...)
		}
		if err := i.embedChunks(ctx, batch); err != nil {
			return err
		}
		all = append(all, batch...)
	}

	i.adopt(groupByDoc(all), time.Now())

	i.cancelPendingSave()
	if err := i.saveNow(); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	i.mirrorReplaceAll(docs, all)
	return nil
}

// RetrieveContext returns ranked passages relevant to text, at most one per
// source document, each prefixed with its source identifier. Retrieval is
// best-effort: every failure degrades to an empty result.
func (i *Index) RetrieveContext(ctx context.Context, text string) []string {
	if i.cfg.Indexing.Disabled {
		return nil
	}
	if !i.IsBuilt() {
		if err := i.Build(ctx, false); err != nil {
			i.logger.Printf("retrieve: build failed: %v", err)
			return nil
		}
	}
	hits, err := i.Search(ctx, text, i.cfg.Indexing.TopK)
	if err != nil {
		i.logger.Printf("retrieve: search failed: %v", err)
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, h := range hits {
		if seen[h.Chunk.Doc] {
			continue
		}
		seen[h.Chunk.Doc] = true
		out = append(out, fmt.Sprintf("[%s] %s", h.Chunk.Doc, h.Chunk.Text))
	}
	return out
}

// Search embeds the query and runs top-K similarity over all chunks.
func (i *Index) Search(ctx context.Context, query string, k int) ([]models.SemanticHit, error) {
	vec, err := i.emb.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return i.SearchEmbedding(vec, k)
}

// SearchEmbedding runs top-K similarity for an already-computed vector.
func (i *Index) SearchEmbedding(vec []float32, k int) ([]models.SemanticHit, error) {
	if i.vec != nil {
		return i.vec.Query(vec, k)
	}
	i.mu.RLock()
	flat := flatten(i.chunks)
	i.mu.RUnlock()

	cands := make([][]float32, len(flat))
	for idx, ch := range flat {
		cands[idx] = ch.Embedding
	}
	scored, err := vectormath.TopK(vec, cands, k)
	if err != nil {
		return nil, err
	}
	hits := make([]models.SemanticHit, len(scored))
	for idx, s := range scored {
		hits[idx] = models.SemanticHit{Chunk: flat[s.Index], Score: s.Score}
	}
	return hits, nil
}

// UpdateFile re-chunks and re-embeds exactly one document. An unchanged
// modification timestamp is a no-op, so a mere re-save costs no embedding
// calls. The document's old chunks are fully removed before the new ones
// are inserted.
func (i *Index) UpdateFile(ctx context.Context, docID, content string, modifiedAt time.Time) error {
	i.wmu.Lock()
	defer i.wmu.Unlock()

	i.mu.RLock()
	existing := i.chunks[docID]
	i.mu.RUnlock()
	if len(existing) > 0 && existing[0].DocModTime.Equal(modifiedAt) {
		return nil
	}

	doc := models.Document{ID: docID, Content: content, ModTime: modifiedAt}
	cs, err := i.chunkDocument(doc)
	if err != nil {
		return err
	}
	if err := i.embedChunks(ctx, cs); err != nil {
		return err
	}

	i.mu.Lock()
	delete(i.chunks, docID)
	if len(cs) > 0 {
		i.chunks[docID] = cs
	}
	i.mu.Unlock()

	i.mirrorReplaceDoc(docID, cs)
	i.scheduleSave()
	return nil
}

// RemoveFile deletes all chunks belonging to the document.
func (i *Index) RemoveFile(docID string) error {
	i.wmu.Lock()
	defer i.wmu.Unlock()

	i.mu.Lock()
	_, had := i.chunks[docID]
	delete(i.chunks, docID)
	i.mu.Unlock()

	if !had {
		return nil
	}
	if i.vec != nil {
		if err := i.vec.DeleteByDoc(docID); err != nil {
			i.logger.Printf("vector store delete %s: %v", docID, err)
		}
	}
	if i.ttl != nil {
		if err := i.ttl.DeleteByDoc(docID); err != nil {
			i.logger.Printf("title store delete %s: %v", docID, err)
		}
	}
	i.scheduleSave()
	return nil
}

// Clear empties the snapshot, cancels any pending debounced save and deletes
// the persisted cache artifact.
func (i *Index) Clear() error {
	i.wmu.Lock()
	defer i.wmu.Unlock()

	i.mu.Lock()
	i.chunks = make(map[string][]models.Chunk)
	i.lastBuilt = time.Time{}
	i.built = false
	i.mu.Unlock()

	i.cancelPendingSave()
	if err := os.Remove(i.cfg.CachePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Flush persists the snapshot immediately if a debounced save is pending.
// Called on shutdown so recent incremental updates are not lost.
func (i *Index) Flush() error {
	i.saveMu.Lock()
	pending := i.saveTimer != nil
	i.saveMu.Unlock()
	if !pending {
		return nil
	}
	i.cancelPendingSave()
	return i.saveNow()
}

func (i *Index) IsBuilt() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.built
}

func (i *Index) Stats() models.IndexStats {
	i.mu.RLock()
	defer i.mu.RUnlock()
	total := 0
	for _, cs := range i.chunks {
		total += len(cs)
	}
	return models.IndexStats{
		TotalChunks:    total,
		TotalDocuments: len(i.chunks),
		IsBuilt:        i.built,
		Provider:       i.emb.ModelName(),
	}
}

func (i *Index) chunkDocument(doc models.Document) ([]models.Chunk, error) {
	spans, err := chunker.Split(doc.Content, i.cfg.Indexing.ChunkSize, i.cfg.Indexing.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
	}
	cs := make([]models.Chunk, len(spans))
	for seq, sp := range spans {
		cs[seq] = models.Chunk{
			ID:         util.ChunkID(doc.ID, seq),
			Doc:        doc.ID,
			Seq:        seq,
			Text:       sp.Text,
			TokenCount: sp.TokenCount(),
			DocModTime: doc.ModTime,
		}
	}
	return cs, nil
}

func (i *Index) embedChunks(ctx context.Context, cs []models.Chunk) error {
	if len(cs) == 0 {
		return nil
	}
	texts := make([]string, len(cs))
	for idx, ch := range cs {
		texts[idx] = ch.Text
	}
	vecs, err := i.emb.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	for idx := range cs {
		cs[idx].Embedding = vecs[idx]
	}
	return nil
}

func (i *Index) adopt(snapshot map[string][]models.Chunk, builtAt time.Time) {
	i.mu.Lock()
	i.chunks = snapshot
	i.lastBuilt = builtAt
	i.built = true
	i.mu.Unlock()
}

// mirrorReplaceAll swaps the mirrors' contents for the fresh corpus. The
// stores are wiped first, not deleted per document, so rows for documents
// removed from the vault while nothing was watching do not survive a rebuild.
func (i *Index) mirrorReplaceAll(docs []models.Document, all []models.Chunk) {
	if i.vec != nil {
		if err := i.vec.DeleteAll(); err != nil {
			i.logger.Printf("vector store clear: %v", err)
		}
		if err := i.vec.Upsert(all); err != nil {
			i.logger.Printf("vector store upsert: %v", err)
		}
	}
	if i.ttl != nil {
		if err := i.ttl.DeleteAll(); err != nil {
			i.logger.Printf("title store clear: %v", err)
		}
		entries := make([]models.NoteTitle, 0, len(docs))
		for _, d := range docs {
			entries = append(entries, models.NoteTitle{Doc: d.ID, Title: d.Title})
		}
		if err := i.ttl.UpsertTitles(entries); err != nil {
			i.logger.Printf("title store upsert: %v", err)
		}
	}
}

func (i *Index) mirrorReplaceDoc(docID string, cs []models.Chunk) {
	if i.vec != nil {
		if err := i.vec.DeleteByDoc(docID); err != nil {
			i.logger.Printf("vector store delete %s: %v", docID, err)
		}
		if err := i.vec.Upsert(cs); err != nil {
			i.logger.Printf("vector store upsert %s: %v", docID, err)
		}
	}
}

func (i *Index) scheduleSave() {
	i.saveMu.Lock()
	defer i.saveMu.Unlock()
	if i.saveTimer != nil {
		i.saveTimer.Stop()
	}
	gen := i.saveGen
	// Timer.Stop cannot stop a callback that has already fired, so the
	// callback re-checks the generation under saveMu and writes while still
	// holding it. Clear's cancel either invalidates the generation before
	// the check or waits for the write, then removes the file afterwards.
	i.saveTimer = time.AfterFunc(saveDebounce, func() {
		i.saveMu.Lock()
		defer i.saveMu.Unlock()
		if i.saveGen != gen {
			return
		}
		i.saveTimer = nil
		if err := i.saveNow(); err != nil {
			i.logger.Printf("debounced save: %v", err)
		}
	})
}

func (i *Index) cancelPendingSave() {
	i.saveMu.Lock()
	defer i.saveMu.Unlock()
	i.saveGen++
	if i.saveTimer != nil {
		i.saveTimer.Stop()
		i.saveTimer = nil
	}
}

func (i *Index) saveNow() error {
	i.mu.RLock()
	flat := flatten(i.chunks)
	builtAt := i.lastBuilt
	i.mu.RUnlock()
	return saveCache(i.cfg.CachePath, &cacheFile{
		Version:   cacheVersion,
		LastBuilt: builtAt,
		Chunks:    flat,
	})
}

// flatten returns all chunks in deterministic order (document, then
// sequence) so ranking tie-breaks and persisted output are stable.
func flatten(m map[string][]models.Chunk) []models.Chunk {
	docs := make([]string, 0, len(m))
	for d := range m {
		docs = append(docs, d)
	}
	sort.Strings(docs)
	var out []models.Chunk
	for _, d := range docs {
		out = append(out, m[d]...)
	}
	return out
}

func groupByDoc(cs []models.Chunk) map[string][]models.Chunk {
	m := make(map[string][]models.Chunk)
	for _, c := range cs {
		m[c.Doc] = append(m[c.Doc], c)
	}
	for d := range m {
		sort.Slice(m[d], func(a, b int) bool { return m[d][a].Seq < m[d][b].Seq })
	}
	return m
}
