package configfx

import (
	"github.com/0x5457/note-index/internal/config"
	"go.uber.org/fx"
)

// Params represents the parameters needed to create configuration
type Params struct {
	fx.In

	ConfigPath string `name:"configPath" optional:"true"`
	Vault      string `name:"vault"      optional:"true"`
	CachePath  string `name:"cachePath"  optional:"true"`
	DBPath     string `name:"dbPath"     optional:"true"`
}

// NewConfig loads configuration from file and applies command-line overrides
func NewConfig(params Params) (*config.Config, error) {
	cfg, err := config.Load(params.ConfigPath)
	if err != nil {
		return nil, err
	}

	if params.Vault != "" {
		cfg.Vault = params.Vault
	}
	if params.CachePath != "" {
		cfg.CachePath = params.CachePath
	}
	if params.DBPath != "" {
		cfg.DBPath = params.DBPath
	}

	return cfg, nil
}

// Module provides configuration for the application
var Module = fx.Module("config",
	fx.Provide(NewConfig),
)
