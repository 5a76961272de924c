//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "pgedge-nl2sql-server.yaml"

	// SystemConfigPath is the system-wide configuration path.
	SystemConfigPath = "/etc/pgedge/" + ConfigFileName
)

// Environment variables consulted for the database password when the
// configuration leaves it empty.
const (
	EnvDBPassword = "NL2SQL_DB_PASSWORD"
	EnvPGPassword = "PGPASSWORD"
)

// Load loads the configuration from the specified path, or searches
// default locations if path is empty.
//
// Search order:
//  1. Explicit path (if provided)
//  2. /etc/pgedge/pgedge-nl2sql-server.yaml
//  3. pgedge-nl2sql-server.yaml in the binary's directory
func Load(path string) (*Config, error) {
	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}

	return loadFromFile(configPath)
}

// findConfigFile finds the configuration file using the search order.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	searchPaths := []string{
		SystemConfigPath,
		getBinaryDirConfigPath(),
	}

	for _, p := range searchPaths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no configuration file found; searched: %v", searchPaths)
}

// getBinaryDirConfigPath returns the path to config file in the binary's
// directory.
func getBinaryDirConfigPath() string {
	executable, err := os.Executable()
	if err != nil {
		return ""
	}

	// Resolve symlinks to get the actual binary location
	executable, err = filepath.EvalSymlinks(executable)
	if err != nil {
		return ""
	}

	return filepath.Join(filepath.Dir(executable), ConfigFileName)
}

// loadFromFile loads and parses the configuration from a YAML file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration data on top of DefaultConfig, applies
// the defaults cascade and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults applies default values to pipelines and the knowledge store
// where not specified.
func applyDefaults(cfg *Config) {
	for i := range cfg.Pipelines {
		p := &cfg.Pipelines[i]

		if p.TopK == 0 {
			p.TopK = cfg.Defaults.TopK
		}

		if p.GenerationLLM.Provider == "" {
			p.GenerationLLM.Provider = cfg.Defaults.GenerationLLM.Provider
		}
		if p.GenerationLLM.Model == "" {
			p.GenerationLLM.Model = cfg.Defaults.GenerationLLM.Model
		}
		if p.GenerationLLM.BaseURL == "" {
			p.GenerationLLM.BaseURL = cfg.Defaults.GenerationLLM.BaseURL
		}

		if p.ModelTimeout == 0 {
			p.ModelTimeout = cfg.Defaults.ModelTimeout
		}
		if p.ModelRetries == nil {
			retries := cfg.Defaults.ModelRetries
			p.ModelRetries = &retries
		}
		if p.StatementTimeout == 0 {
			p.StatementTimeout = cfg.Defaults.StatementTimeout
		}
		if p.MaxResultChars == 0 {
			p.MaxResultChars = cfg.Defaults.MaxResultChars
		}

		// Apply API key defaults (cascade: pipeline -> defaults -> global)
		p.APIKeys = cascadeAPIKeys(p.APIKeys, cfg)

		applyDatabaseDefaults(&p.Database)
	}

	k := &cfg.Knowledge
	if k.EmbeddingLLM.Provider == "" {
		k.EmbeddingLLM.Provider = cfg.Defaults.EmbeddingLLM.Provider
	}
	if k.EmbeddingLLM.Model == "" {
		k.EmbeddingLLM.Model = cfg.Defaults.EmbeddingLLM.Model
	}
	if k.EmbeddingLLM.BaseURL == "" {
		k.EmbeddingLLM.BaseURL = cfg.Defaults.EmbeddingLLM.BaseURL
	}
	if k.Backend == KnowledgeBackendPGVector {
		applyDatabaseDefaults(&k.Database)
	}
}

// cascadeAPIKeys fills unset key paths from the defaults section and then
// from the global section.
func cascadeAPIKeys(keys APIKeysConfig, cfg *Config) APIKeysConfig {
	if keys.Anthropic == "" {
		if cfg.Defaults.APIKeys.Anthropic != "" {
			keys.Anthropic = cfg.Defaults.APIKeys.Anthropic
		} else {
			keys.Anthropic = cfg.APIKeys.Anthropic
		}
	}
	if keys.OpenAI == "" {
		if cfg.Defaults.APIKeys.OpenAI != "" {
			keys.OpenAI = cfg.Defaults.APIKeys.OpenAI
		} else {
			keys.OpenAI = cfg.APIKeys.OpenAI
		}
	}
	return keys
}

// KnowledgeAPIKeys returns the API key paths used by the knowledge store's
// embedding provider.
func (c *Config) KnowledgeAPIKeys() APIKeysConfig {
	return cascadeAPIKeys(APIKeysConfig{}, c)
}

func applyDatabaseDefaults(db *DatabaseConfig) {
	if db.Port == 0 {
		db.Port = 5432
	}
	if db.SSLMode == "" {
		db.SSLMode = "prefer"
	}
	if db.Password == "" {
		if pw := os.Getenv(EnvDBPassword); pw != "" {
			db.Password = pw
		} else {
			db.Password = os.Getenv(EnvPGPassword)
		}
	}
}
