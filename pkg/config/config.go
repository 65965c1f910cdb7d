// Package config loads the server configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// ListenAddr is the host:port the HTTP and websocket endpoints bind.
	ListenAddr string `yaml:"listen_addr"`

	// DataDir holds the bbolt database file.
	DataDir string `yaml:"data_dir"`

	// JWTSecret verifies identity-provider tokens. Writes without a valid
	// token are rejected.
	JWTSecret string `yaml:"jwt_secret"`

	Log struct {
		// Level is one of debug, info, warn, error.
		Level string `yaml:"level"`
		// Console switches from JSON to human-readable output.
		Console bool `yaml:"console"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		ListenAddr: ":8080",
		DataDir:    "./data",
	}
	cfg.Log.Level = "info"
	return cfg
}

// Load reads cfg from path, applying defaults for anything unset. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}
