package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// OraclePrompts are fmt.Sprintf format strings for the two adjudication
// oracle calls. Bundling takes the serialized raw diagnoses; Scoring takes
// body part, evidence text and the retrieval context block.
type OraclePrompts struct {
	Bundling string `toml:"bundling"`
	Scoring  string `toml:"scoring"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type RetryConfig struct {
	MaxAttempts    int `toml:"max_attempts"`
	BackoffSeconds int `toml:"backoff_seconds"`
}

type RetrievalConfig struct {
	CorpusPath string `toml:"corpus_path"`
	TopK       int    `toml:"top_k"`
}

// AuditConfig points at the Memgraph/Neo4j instance used to persist
// completed assessment runs. Empty URI disables persistence.
type AuditConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type ConcurrencyConfig struct {
	Adjudication int `toml:"adjudication"`
}

type Config struct {
	LLM         LLMConfig         `toml:"llm"`
	Retry       RetryConfig       `toml:"retry"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Audit       AuditConfig       `toml:"audit"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Prompts     OraclePrompts     `toml:"prompts"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BackoffSeconds <= 0 {
		c.Retry.BackoffSeconds = 1
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 7
	}
	// Sequential adjudication reproduces the reference behavior.
	if c.Concurrency.Adjudication <= 0 {
		c.Concurrency.Adjudication = 1
	}
}

// ApplyEnvOverrides lets deployment environments override file settings
// without editing the TOML.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		c.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("CORPUS_PATH"); v != "" {
		c.Retrieval.CorpusPath = v
	}
	if v := os.Getenv("AUDIT_URI"); v != "" {
		c.Audit.URI = v
	}
	if v := os.Getenv("AUDIT_USER"); v != "" {
		c.Audit.User = v
	}
	if v := os.Getenv("AUDIT_PASSWORD"); v != "" {
		c.Audit.Password = v
	}
	if v := os.Getenv("ADJUDICATION_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Concurrency.Adjudication = n
		}
	}
}
