// Package vault reads the note collection from disk. Document identifiers
// are vault-relative paths; titles are base names without extension.
package vault

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/0x5457/note-index/internal/models"
)

var noteExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

type Vault struct {
	root string
}

func New(root string) *Vault { return &Vault{root: root} }

func (v *Vault) Root() string { return v.root }

// List walks the vault and returns every note. Hidden directories and
// non-note files are skipped.
func (v *Vault) List(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") && path != v.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !noteExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		doc, err := v.read(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Read loads a single note by its document identifier.
func (v *Vault) Read(id string) (models.Document, error) {
	return v.read(filepath.Join(v.root, id))
}

func (v *Vault) read(path string) (models.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, err
	}
	id, err := filepath.Rel(v.root, path)
	if err != nil {
		return models.Document{}, err
	}
	id = filepath.ToSlash(id)
	return models.Document{
		ID:      id,
		Title:   Title(id),
		Content: string(data),
		ModTime: info.ModTime(),
	}, nil
}

// Title derives the display name of a document from its identifier.
func Title(id string) string {
	base := filepath.Base(id)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsNote reports whether path looks like a note file.
func IsNote(path string) bool {
	return noteExtensions[strings.ToLower(filepath.Ext(path))]
}
