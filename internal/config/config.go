//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration loading and validation for the
// pgEdge NL2SQL Server.
package config

import "time"

// Knowledge store backends.
const (
	KnowledgeBackendMemory   = "memory"
	KnowledgeBackendSQLite   = "sqlite"
	KnowledgeBackendPGVector = "pgvector"
)

// Config is the root configuration structure for the server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	APIKeys   APIKeysConfig   `yaml:"api_keys"`
	Defaults  Defaults        `yaml:"defaults"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Pipelines []Pipeline      `yaml:"pipelines"`
}

// APIKeysConfig contains paths to files containing API keys for LLM providers.
// If not specified, keys are loaded from environment variables or default
// file locations (~/.anthropic-api-key, ~/.openai-api-key).
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"` // Path to file containing Anthropic API key
	OpenAI    string `yaml:"openai"`    // Path to file containing OpenAI API key
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	ListenAddress string     `yaml:"listen_address"`
	Port          int        `yaml:"port"`
	TLS           TLSConfig  `yaml:"tls"`
	CORS          CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) settings.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"` // Origins to allow, or ["*"] for all
}

// TLSConfig contains TLS/HTTPS settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig selects the slog handler and level.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Defaults contains default values that can be overridden per-pipeline.
type Defaults struct {
	TopK             int           `yaml:"top_k"`
	GenerationLLM    LLMConfig     `yaml:"generation_llm"` // Default text generation provider
	EmbeddingLLM     LLMConfig     `yaml:"embedding_llm"`  // Default embedding provider
	ModelTimeout     time.Duration `yaml:"model_timeout"`  // Per-call deadline for model requests
	ModelRetries     int           `yaml:"model_retries"`  // Retries on transient model failures
	StatementTimeout time.Duration `yaml:"statement_timeout"`
	MaxResultChars   int           `yaml:"max_result_chars"` // Bound on rows serialized into the answer prompt
	APIKeys          APIKeysConfig `yaml:"api_keys"`         // Default API key paths
}

// KnowledgeConfig describes the knowledge store used by retrieval-augmented
// pipelines.
type KnowledgeConfig struct {
	Backend      string         `yaml:"backend"`    // memory, sqlite or pgvector
	Path         string         `yaml:"path"`       // SQLite database file
	Collection   string         `yaml:"collection"` // Logical collection name
	Database     DatabaseConfig `yaml:"database"`   // pgvector backend only
	EmbeddingLLM LLMConfig      `yaml:"embedding_llm"`
	ChunkSize    int            `yaml:"chunk_size"`
	ChunkOverlap int            `yaml:"chunk_overlap"`
	Hybrid       bool           `yaml:"hybrid"`     // Fuse BM25 keyword ranking with vector similarity
	Dimensions   int            `yaml:"dimensions"` // Embedding dimensions (pgvector column size)
}

// Pipeline defines a single NL2SQL pipeline configuration.
type Pipeline struct {
	Name             string         `yaml:"name"`
	Description      string         `yaml:"description"`
	Database         DatabaseConfig `yaml:"database"`
	GenerationLLM    LLMConfig      `yaml:"generation_llm"`
	APIKeys          APIKeysConfig  `yaml:"api_keys"` // Pipeline-specific API key paths
	Retrieval        bool           `yaml:"retrieval"`
	TopK             int            `yaml:"top_k"`
	ModelTimeout     time.Duration  `yaml:"model_timeout"`
	ModelRetries     *int           `yaml:"model_retries"`
	StatementTimeout time.Duration  `yaml:"statement_timeout"`
	MaxResultChars   int            `yaml:"max_result_chars"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`

	// Certificate-based authentication
	SSLCert   string `yaml:"ssl_cert"`
	SSLKey    string `yaml:"ssl_key"`
	SSLRootCA string `yaml:"ssl_root_ca"`
}

// LLMConfig contains settings for an LLM provider.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"` // Optional endpoint override
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress: "0.0.0.0",
			Port:          8080,
			TLS: TLSConfig{
				Enabled: false,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Defaults: Defaults{
			TopK: 3,
			GenerationLLM: LLMConfig{
				Provider: "ollama",
				Model:    "llama3.2",
			},
			EmbeddingLLM: LLMConfig{
				Provider: "ollama",
				Model:    "nomic-embed-text",
			},
			ModelTimeout:     120 * time.Second,
			ModelRetries:     1,
			StatementTimeout: 30 * time.Second,
			MaxResultChars:   8000,
		},
		Knowledge: KnowledgeConfig{
			Backend:      KnowledgeBackendSQLite,
			Path:         "./rag_db/knowledge.db",
			Collection:   "sql_knowledge",
			ChunkSize:    500,
			ChunkOverlap: 50,
			Dimensions:   768,
		},
	}
}

// RetrievalEnabled reports whether any pipeline uses the knowledge store.
func (c *Config) RetrievalEnabled() bool {
	for _, p := range c.Pipelines {
		if p.Retrieval {
			return true
		}
	}
	return false
}
