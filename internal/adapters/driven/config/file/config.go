// Package file loads the scholia configuration from a TOML file.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	// Papers configures the on-disk paper store.
	Papers PapersConfig `toml:"papers"`

	// Index configures the vector index.
	Index IndexConfig `toml:"index"`

	// Reports configures report output.
	Reports ReportsConfig `toml:"reports"`

	// Retrieval configures thresholds of the retrieval engine.
	Retrieval RetrievalConfig `toml:"retrieval"`

	// Embedding selects and configures the embedding provider.
	Embedding EmbeddingConfig `toml:"embedding"`

	// Generation configures the answer generation provider.
	Generation GenerationConfig `toml:"generation"`

	// Arxiv configures the external paper source.
	Arxiv ArxivConfig `toml:"arxiv"`

	// Retry configures external call retries.
	Retry RetryConfig `toml:"retry"`
}

// PapersConfig holds paper store settings.
type PapersConfig struct {
	// Root is the papers directory.
	Root string `toml:"root"`

	// Watch enables indexing of PDFs dropped into the tree while running.
	Watch bool `toml:"watch"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	// Dir is the index data directory.
	Dir string `toml:"dir"`
}

// ReportsConfig holds report output settings.
type ReportsConfig struct {
	// Dir is the directory reports are written into.
	Dir string `toml:"dir"`
}

// RetrievalConfig holds retrieval thresholds.
type RetrievalConfig struct {
	// MinRelevance is the per-chunk similarity floor.
	MinRelevance float64 `toml:"min_relevance"`

	// SufficiencyThreshold is the confidence floor for a sufficient answer.
	SufficiencyThreshold float64 `toml:"sufficiency_threshold"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`

	// Dimensions overrides the embedding vector size.
	Dimensions int `toml:"dimensions"`
}

// GenerationConfig configures answer generation.
type GenerationConfig struct {
	// Model overrides the default chat model.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`

	// Temperature controls sampling.
	Temperature float64 `toml:"temperature"`
}

// ArxivConfig configures the arXiv client.
type ArxivConfig struct {
	// BaseURL overrides the query endpoint, mainly for tests.
	BaseURL string `toml:"base_url"`

	// MaxResults caps candidates per expansion search.
	MaxResults int `toml:"max_results"`
}

// RetryConfig bounds retries of external calls.
type RetryConfig struct {
	// MaxAttempts caps attempts per call, first try included.
	MaxAttempts int `toml:"max_attempts"`
}

// Default returns the configuration used when no file exists. Data lives
// under ~/.scholia.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".scholia")
	return Config{
		Papers:  PapersConfig{Root: filepath.Join(base, "papers")},
		Index:   IndexConfig{Dir: filepath.Join(base, "index")},
		Reports: ReportsConfig{Dir: filepath.Join(base, "reports")},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Generation: GenerationConfig{
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Arxiv: ArxivConfig{MaxResults: 10},
	}
}

// Load reads the configuration file at path, or the default location
// (~/.scholia/config.toml) when path is empty. A missing file yields the
// defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".scholia", "config.toml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
