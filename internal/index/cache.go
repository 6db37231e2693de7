package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/0x5457/note-index/internal/models"
)

// cacheVersion is the persisted snapshot format version. Any mismatch
// invalidates the cache rather than attempting partial migration.
const cacheVersion = 1

// maxCacheAge is the staleness threshold beyond which a persisted snapshot
// is discarded and rebuilt.
const maxCacheAge = 7 * 24 * time.Hour

// ErrCacheInvalid reports a persisted snapshot that must not be trusted:
// unreadable, version-mismatched or stale.
var ErrCacheInvalid = errors.New("index: cache invalid")

type cacheFile struct {
	Version   int            `json:"version"`
	LastBuilt time.Time      `json:"last_built"`
	Chunks    []models.Chunk `json:"chunks"`
}

func loadCache(path string) (*cacheFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c cacheFile
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheInvalid, err)
	}
	if c.Version != cacheVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrCacheInvalid, c.Version, cacheVersion)
	}
	if time.Since(c.LastBuilt) > maxCacheAge {
		return nil, fmt.Errorf("%w: built %s ago", ErrCacheInvalid, time.Since(c.LastBuilt).Round(time.Hour))
	}
	return &c, nil
}

func saveCache(path string, c *cacheFile) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
