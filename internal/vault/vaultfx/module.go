package vaultfx

import (
	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/vault"
	"go.uber.org/fx"
)

// NewVault creates the note corpus rooted at the configured vault path
func NewVault(cfg *config.Config) *vault.Vault {
	return vault.New(cfg.Vault)
}

// Module provides vault components
var Module = fx.Module("vault",
	fx.Provide(NewVault),
)
