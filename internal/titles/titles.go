// Package titles maintains the exact-match note title index used by the
// context linker.
package titles

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/0x5457/note-index/internal/models"
)

const rebuildAfter = 10 * time.Minute

// Lister enumerates the current vault contents.
type Lister interface {
	List(ctx context.Context) ([]models.Document, error)
}

// Index caches note title entries. Entries are rebuilt when marked dirty or
// when older than ten minutes.
type Index struct {
	source Lister

	mu      sync.Mutex
	entries []models.NoteTitle
	builtAt time.Time
	dirty   bool
}

func NewIndex(source Lister) *Index {
	return &Index{source: source, dirty: true}
}

// Entries returns the title entries, rebuilding them if needed.
func (i *Index) Entries(ctx context.Context) ([]models.NoteTitle, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.dirty && time.Since(i.builtAt) < rebuildAfter {
		return i.entries, nil
	}
	docs, err := i.source.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]models.NoteTitle, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, models.NoteTitle{
			Doc:        d.ID,
			Title:      d.Title,
			Normalized: Normalize(d.Title),
		})
	}
	i.entries = entries
	i.builtAt = time.Now()
	i.dirty = false
	return i.entries, nil
}

// MarkDirty forces a rebuild on the next Entries call.
func (i *Index) MarkDirty() {
	i.mu.Lock()
	i.dirty = true
	i.mu.Unlock()
}

// Normalize lower-cases a title and strips every non-alphanumeric rune.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
