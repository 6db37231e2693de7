// Package config defines the explicit configuration consumed by the
// indexing core. All recognized options are enumerated here; components
// receive this struct at construction and never look options up dynamically.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig selects and configures the embedding provider. An explicit
// self-hosted endpoint takes precedence, then an explicit custom provider,
// else the cloud provider is the default.
type EmbeddingConfig struct {
	Model         string `yaml:"model"`
	APIKey        string `yaml:"api_key"`
	APIKeyEnv     string `yaml:"api_key_env"`
	Provider      string `yaml:"provider"` // "", "openai" or "custom"
	BaseURL       string `yaml:"base_url"` // custom provider endpoint
	SelfHostedURL string `yaml:"self_hosted_url"`
}

// IndexingConfig configures chunking and retrieval.
type IndexingConfig struct {
	Disabled     bool `yaml:"disabled"`
	ChunkSize    int  `yaml:"chunk_size"`    // approximate tokens
	ChunkOverlap int  `yaml:"chunk_overlap"` // approximate tokens
	TopK         int  `yaml:"top_k"`
	BatchSize    int  `yaml:"batch_size"` // chunks per embedding request
}

// LinkerConfig configures the context-linking pass.
type LinkerConfig struct {
	Threshold           float32 `yaml:"threshold"`
	MaxLinksPerSentence int     `yaml:"max_links_per_sentence"`
	MaxCandidates       int     `yaml:"max_candidates"` // per sentence
}

// Config is the root configuration.
type Config struct {
	Vault     string          `yaml:"vault"`
	CachePath string          `yaml:"cache_path"`
	DBPath    string          `yaml:"db_path"` // optional sqlite backend
	Embedding EmbeddingConfig `yaml:"embedding"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Linker    LinkerConfig    `yaml:"linker"`
}

// Load reads a config from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(os.TempDir(), "note_index_cache.json")
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv(cfg.Embedding.APIKeyEnv)
	}
	if cfg.Indexing.ChunkSize == 0 {
		cfg.Indexing.ChunkSize = 256
	}
	if cfg.Indexing.ChunkOverlap == 0 {
		cfg.Indexing.ChunkOverlap = 32
	}
	if cfg.Indexing.TopK == 0 {
		cfg.Indexing.TopK = 5
	}
	if cfg.Indexing.BatchSize == 0 {
		cfg.Indexing.BatchSize = 32
	}
	if cfg.Linker.Threshold == 0 {
		cfg.Linker.Threshold = 0.78
	}
	if cfg.Linker.MaxLinksPerSentence == 0 {
		cfg.Linker.MaxLinksPerSentence = 3
	}
	if cfg.Linker.MaxCandidates == 0 {
		cfg.Linker.MaxCandidates = 4
	}
}
