package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon settings loaded from TOML.
type Config struct {
	RPCAddress  string   `toml:"RPCAddress"`
	DataDir     string   `toml:"DataDir"`
	NetworkName string   `toml:"NetworkName"`
	Environment string   `toml:"Environment"`
	Paused      []string `toml:"Paused,omitempty"`
}

const defaultConfig = `# streamvault daemon configuration
RPCAddress = "127.0.0.1:8645"
DataDir = "./streamvault-data"
NetworkName = "streamvault-local"
Environment = "local"
# Paused lists custody modules frozen for mutations, e.g. ["stream"].
Paused = []
`

// Load reads the configuration from path, writing a commented default file
// when none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s contains unknown field %s", path, undecoded[0])
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./streamvault-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "streamvault-local"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	normalized := make([]string, 0, len(cfg.Paused))
	for _, module := range cfg.Paused {
		if trimmed := strings.ToLower(strings.TrimSpace(module)); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	cfg.Paused = normalized
}

func createDefault(path string) (*Config, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if _, err := toml.Decode(defaultConfig, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// IsPaused implements the pause view consumed by the custody engines.
func (c *Config) IsPaused(module string) bool {
	if c == nil {
		return false
	}
	module = strings.ToLower(strings.TrimSpace(module))
	for _, paused := range c.Paused {
		if paused == module {
			return true
		}
	}
	return false
}
