package embeddings

import "github.com/0x5457/note-index/internal/config"

// New selects a provider from configuration. The decision is made once per
// index lifetime: an explicit self-hosted endpoint wins, then an explicit
// custom provider, else the cloud provider.
func New(cfg config.EmbeddingConfig) Embedder {
	if cfg.SelfHostedURL != "" {
		return NewCompat(cfg.SelfHostedURL, cfg.APIKey, cfg.Model)
	}
	if cfg.Provider == "custom" && cfg.BaseURL != "" {
		return NewCompat(cfg.BaseURL, cfg.APIKey, cfg.Model)
	}
	return NewOpenAI(cfg.APIKey, cfg.Model)
}
