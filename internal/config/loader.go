package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"triekit/internal/log"
)

// defaultEndpoint is the execution-client RPC endpoint
// used when none is configured, matching the original
// implementation's DEFAULT_ENDPOINT constant.
const defaultEndpoint = "http://localhost:8545/"

// AppConfig is the top-level, parsed configuration for
// the triekit CLI: which execution client to talk to,
// which chain it belongs to, and where to keep the
// node store if persistence is requested.
type AppConfig struct {
	Endpoint string
	Network  string
	DbPath   string
}

// config represents the raw YAML structure
// of the config file.
type config struct {
	Endpoint string `yaml:"endpoint"`
	Network  string `yaml:"network"`
	DbPath   string `yaml:"db_path"`
}

// Loader reads the main config file.
type Loader struct {
	log log.Logger
}

// NewLoader creates a new config Loader with
// the specified logging context attached.
func NewLoader(log log.Logger) *Loader {
	return &Loader{
		log: log.With("component", "config-loader"),
	}
}

// Load reads the config file at the specified path. A
// missing file is not an error: the loader falls back
// to defaults, since every field is individually
// optional.
func (l *Loader) Load(path string) (*AppConfig, error) {
	l.log.Info("load config", "path", path)

	var raw config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		l.log.Debug("no config file found, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &AppConfig{
		Endpoint: raw.Endpoint,
		Network:  raw.Network,
		DbPath:   raw.DbPath,
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Network == "" {
		cfg.Network = "mainnet"
	}

	return cfg, nil
}
