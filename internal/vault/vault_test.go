package vault_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/0x5457/note-index/internal/vault"
)

func Test_Vault_List(t *testing.T) {
	tmp := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(tmp, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("First Note.md", "alpha.")
	write("sub/Second Note.md", "beta.")
	write("ignored.pdf", "binary")
	write(".obsidian/config.md", "settings")

	v := vault.New(tmp)
	docs, err := v.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(docs))
	}
	byID := map[string]bool{}
	for _, d := range docs {
		byID[d.ID] = true
		if d.ModTime.IsZero() {
			t.Fatalf("mod time not set for %s", d.ID)
		}
	}
	if !byID["First Note.md"] || !byID["sub/Second Note.md"] {
		t.Fatalf("unexpected ids: %v", byID)
	}
}

func Test_Vault_Title(t *testing.T) {
	if got := vault.Title("sub/Apollo Project.md"); got != "Apollo Project" {
		t.Fatalf("title = %q", got)
	}
	if got := vault.Title("plain.txt"); got != "plain" {
		t.Fatalf("title = %q", got)
	}
}
