// Package file persists configuration as a TOML file in the user's
// home directory. Missing files yield defaults; missing keys keep their
// default values so old config files survive upgrades.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/logger"
)

// DefaultFileName is the config file name under the config directory.
const DefaultFileName = "config.toml"

// Store reads and writes the TOML configuration file.
type Store struct {
	path string
}

// Config is the full on-disk configuration: runtime settings plus the
// provider and backend wiring the CLI needs to build adapters. API
// keys never live here; they come from the environment.
type Config struct {
	Settings  domain.Settings
	Providers Providers
}

// Providers selects AI services and the remote vector backend.
type Providers struct {
	// Embedding is the embedding provider (default: openai).
	Embedding domain.AIProvider

	// EmbeddingModel overrides the provider's default model when set.
	EmbeddingModel string

	// LLM is the language model provider (default: openai).
	LLM domain.AIProvider

	// LLMModel overrides the provider's default model when set.
	LLMModel string

	// QdrantURL is the remote vector store URL, required for the
	// remote and dual store modes.
	QdrantURL string

	// QdrantCollection overrides the default collection name when set.
	QdrantCollection string

	// Scorer selects answer validation: "lexical" or "llm-judge".
	Scorer string
}

// fileConfig is the TOML wire format. Durations are strings like "5m".
type fileConfig struct {
	Chunking struct {
		ChunkSize int `toml:"chunk_size"`
		Overlap   int `toml:"overlap"`
	} `toml:"chunking"`
	Retrieval struct {
		TopK     int     `toml:"top_k"`
		MinScore float64 `toml:"min_score"`
	} `toml:"retrieval"`
	Budgets struct {
		Batch         string `toml:"batch"`
		EmbeddingCall string `toml:"embedding_call"`
		SearchCall    string `toml:"search_call"`
		LLMCall       string `toml:"llm_call"`
	} `toml:"budgets"`
	Store struct {
		Mode       string `toml:"mode"`
		MaxWorkers int    `toml:"max_workers"`
	} `toml:"store"`
	Providers struct {
		Embedding        string `toml:"embedding"`
		EmbeddingModel   string `toml:"embedding_model"`
		LLM              string `toml:"llm"`
		LLMModel         string `toml:"llm_model"`
		QdrantURL        string `toml:"qdrant_url"`
		QdrantCollection string `toml:"qdrant_collection"`
		Scorer           string `toml:"scorer"`
	} `toml:"providers"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Settings: domain.DefaultSettings(),
		Providers: Providers{
			Embedding: domain.AIProviderOpenAI,
			LLM:       domain.AIProviderOpenAI,
			Scorer:    "lexical",
		},
	}
}

// New creates a store at the given path. An empty path uses
// ~/.askdoc/config.toml.
func New(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".askdoc", DefaultFileName)
	}
	return &Store{path: path}, nil
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration, overlaying file values onto defaults.
// A missing file is not an error; a malformed one is.
func (s *Store) Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		logger.Debug("No config file at %s, using defaults", s.path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", s.path, err)
	}

	if fc.Chunking.ChunkSize != 0 {
		cfg.Settings.Chunking.ChunkSize = fc.Chunking.ChunkSize
	}
	if fc.Chunking.Overlap != 0 {
		cfg.Settings.Chunking.Overlap = fc.Chunking.Overlap
	}
	if fc.Retrieval.TopK != 0 {
		cfg.Settings.Retrieval.TopK = fc.Retrieval.TopK
	}
	if fc.Retrieval.MinScore != 0 {
		cfg.Settings.Retrieval.MinScore = fc.Retrieval.MinScore
	}
	if err := overlayDuration(&cfg.Settings.Budgets.Batch, fc.Budgets.Batch); err != nil {
		return cfg, err
	}
	if err := overlayDuration(&cfg.Settings.Budgets.EmbeddingCall, fc.Budgets.EmbeddingCall); err != nil {
		return cfg, err
	}
	if err := overlayDuration(&cfg.Settings.Budgets.SearchCall, fc.Budgets.SearchCall); err != nil {
		return cfg, err
	}
	if err := overlayDuration(&cfg.Settings.Budgets.LLMCall, fc.Budgets.LLMCall); err != nil {
		return cfg, err
	}
	if fc.Store.Mode != "" {
		cfg.Settings.StoreMode = domain.StoreMode(fc.Store.Mode)
	}
	if fc.Store.MaxWorkers != 0 {
		cfg.Settings.MaxWorkers = fc.Store.MaxWorkers
	}
	if fc.Providers.Embedding != "" {
		cfg.Providers.Embedding = domain.AIProvider(fc.Providers.Embedding)
	}
	if fc.Providers.EmbeddingModel != "" {
		cfg.Providers.EmbeddingModel = fc.Providers.EmbeddingModel
	}
	if fc.Providers.LLM != "" {
		cfg.Providers.LLM = domain.AIProvider(fc.Providers.LLM)
	}
	if fc.Providers.LLMModel != "" {
		cfg.Providers.LLMModel = fc.Providers.LLMModel
	}
	if fc.Providers.QdrantURL != "" {
		cfg.Providers.QdrantURL = fc.Providers.QdrantURL
	}
	if fc.Providers.QdrantCollection != "" {
		cfg.Providers.QdrantCollection = fc.Providers.QdrantCollection
	}
	if fc.Providers.Scorer != "" {
		cfg.Providers.Scorer = fc.Providers.Scorer
	}

	if err := cfg.Settings.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", s.path, err)
	}
	if !cfg.Providers.Embedding.IsValid() {
		return cfg, fmt.Errorf("invalid config %s: unknown embedding provider %q", s.path, cfg.Providers.Embedding)
	}
	if !cfg.Providers.LLM.IsValid() {
		return cfg, fmt.Errorf("invalid config %s: unknown llm provider %q", s.path, cfg.Providers.LLM)
	}

	return cfg, nil
}

// Save writes the configuration, creating the directory as needed.
func (s *Store) Save(cfg Config) error {
	var fc fileConfig
	fc.Chunking.ChunkSize = cfg.Settings.Chunking.ChunkSize
	fc.Chunking.Overlap = cfg.Settings.Chunking.Overlap
	fc.Retrieval.TopK = cfg.Settings.Retrieval.TopK
	fc.Retrieval.MinScore = cfg.Settings.Retrieval.MinScore
	fc.Budgets.Batch = cfg.Settings.Budgets.Batch.String()
	fc.Budgets.EmbeddingCall = cfg.Settings.Budgets.EmbeddingCall.String()
	fc.Budgets.SearchCall = cfg.Settings.Budgets.SearchCall.String()
	fc.Budgets.LLMCall = cfg.Settings.Budgets.LLMCall.String()
	fc.Store.Mode = cfg.Settings.StoreMode.String()
	fc.Store.MaxWorkers = cfg.Settings.MaxWorkers
	fc.Providers.Embedding = cfg.Providers.Embedding.String()
	fc.Providers.EmbeddingModel = cfg.Providers.EmbeddingModel
	fc.Providers.LLM = cfg.Providers.LLM.String()
	fc.Providers.LLMModel = cfg.Providers.LLMModel
	fc.Providers.QdrantURL = cfg.Providers.QdrantURL
	fc.Providers.QdrantCollection = cfg.Providers.QdrantCollection
	fc.Providers.Scorer = cfg.Providers.Scorer

	data, err := toml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	logger.Debug("Saved config to %s", s.path)
	return nil
}

func overlayDuration(dst *time.Duration, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value, err)
	}
	*dst = d
	return nil
}
