package vault

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/0x5457/note-index/internal/models"
)

// Watcher feeds vault mutations to the index incrementally. Write and
// create events become updates, remove and rename events become removals.
type Watcher struct {
	vault    *Vault
	onUpdate func(models.Document)
	onRemove func(docID string)
	logger   *log.Logger
}

func NewWatcher(v *Vault, onUpdate func(models.Document), onRemove func(string), logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{vault: v, onUpdate: onUpdate, onRemove: onRemove, logger: logger}
}

// Run blocks until ctx is canceled, dispatching vault events as they arrive.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	if err := addDirs(fw, w.vault.Root()); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("watch error: %v", err)
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) {
	// new directories must be watched as they appear
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addDirs(fw, ev.Name); err != nil {
				w.logger.Printf("watch %s: %v", ev.Name, err)
			}
			return
		}
	}
	if !IsNote(ev.Name) {
		return
	}
	rel, err := filepath.Rel(w.vault.Root(), ev.Name)
	if err != nil {
		return
	}
	id := filepath.ToSlash(rel)

	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		w.onRemove(id)
	case ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create):
		doc, err := w.vault.Read(id)
		if err != nil {
			w.logger.Printf("read %s: %v", id, err)
			return
		}
		w.onUpdate(doc)
	}
}

func addDirs(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
