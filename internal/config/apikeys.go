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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Environment variable names for API keys.
const (
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
)

// Default API key file paths (relative to home directory).
const (
	DefaultAnthropicKeyFile = ".anthropic-api-key"
	DefaultOpenAIKeyFile    = ".openai-api-key"
)

// LoadedKeys holds all loaded API keys.
type LoadedKeys struct {
	Anthropic string
	OpenAI    string
}

// keySource describes where one provider's key may come from and where
// the loaded value is stored.
type keySource struct {
	name        string
	envVar      string
	defaultFile string
	configured  func(APIKeysConfig) string
	store       func(*LoadedKeys, string)
}

// keySources lists the providers that need a key. Ollama needs none.
var keySources = map[string]keySource{
	"anthropic": {
		name:        "Anthropic",
		envVar:      EnvAnthropicAPIKey,
		defaultFile: DefaultAnthropicKeyFile,
		configured:  func(c APIKeysConfig) string { return c.Anthropic },
		store:       func(k *LoadedKeys, v string) { k.Anthropic = v },
	},
	"openai": {
		name:        "OpenAI",
		envVar:      EnvOpenAIAPIKey,
		defaultFile: DefaultOpenAIKeyFile,
		configured:  func(c APIKeysConfig) string { return c.OpenAI },
		store:       func(k *LoadedKeys, v string) { k.OpenAI = v },
	},
}

// APIKeyLoader handles loading API keys from configured paths, environment
// variables, or default file locations.
type APIKeyLoader struct {
	config APIKeysConfig
}

// NewAPIKeyLoader creates a new API key loader with the given configuration.
func NewAPIKeyLoader(cfg APIKeysConfig) *APIKeyLoader {
	return &APIKeyLoader{config: cfg}
}

// LoadKeysForPipeline loads the API keys required by a pipeline's
// generation model. The loader should already carry the pipeline's
// effective API key config.
func (l *APIKeyLoader) LoadKeysForPipeline(pipeline Pipeline) (*LoadedKeys, error) {
	return l.LoadKeysForProviders(pipeline.GenerationLLM.Provider)
}

// LoadKeysForProviders loads the API keys needed by the named providers.
// Providers without a key requirement are skipped.
func (l *APIKeyLoader) LoadKeysForProviders(providers ...string) (*LoadedKeys, error) {
	keys := &LoadedKeys{}
	seen := make(map[string]bool, len(providers))

	for _, p := range providers {
		p = strings.ToLower(p)
		src, ok := keySources[p]
		if !ok || seen[p] {
			continue
		}
		seen[p] = true

		key, err := l.load(src)
		if err != nil {
			return nil, err
		}
		src.store(keys, key)
	}

	return keys, nil
}

// load resolves one key, in order: the configured file, the environment
// variable, then ~/<defaultFile>.
func (l *APIKeyLoader) load(src keySource) (string, error) {
	if path := src.configured(l.config); path != "" {
		return readKeyFile(expandPath(path), src.name)
	}

	if key := os.Getenv(src.envVar); key != "" {
		return key, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	path := filepath.Join(homeDir, src.defaultFile)

	key, err := readKeyFile(path, src.name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s API key not found: set %s environment variable or create %s",
			src.name, src.envVar, path)
	}
	return key, err
}

// readKeyFile reads a trimmed, non-empty API key from path.
func readKeyFile(path, providerName string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s API key file not found: %s: %w", providerName, path, err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s API key: %w", providerName, err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%s API key file is empty: %s", providerName, path)
	}
	return key, nil
}
