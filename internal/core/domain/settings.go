package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// StoreMode defines which physical vector backends are active.
// It is a closed set selected at startup; callers never branch on
// backend availability themselves.
type StoreMode string

// Available store modes.
const (
	// StoreModeLocalOnly uses only the on-disk local index.
	StoreModeLocalOnly StoreMode = "local"

	// StoreModeRemoteOnly uses only the remote managed index.
	StoreModeRemoteOnly StoreMode = "remote"

	// StoreModeDual writes to both indexes and read-merges from both.
	StoreModeDual StoreMode = "dual"
)

// IsValid returns true if the store mode is recognised.
func (m StoreMode) IsValid() bool {
	switch m {
	case StoreModeLocalOnly, StoreModeRemoteOnly, StoreModeDual:
		return true
	default:
		return false
	}
}

// UsesLocal returns true if this mode writes to the local index.
func (m StoreMode) UsesLocal() bool {
	return m == StoreModeLocalOnly || m == StoreModeDual
}

// UsesRemote returns true if this mode writes to the remote index.
func (m StoreMode) UsesRemote() bool {
	return m == StoreModeRemoteOnly || m == StoreModeDual
}

// String returns the string representation.
func (m StoreMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m StoreMode) Description() string {
	switch m {
	case StoreModeLocalOnly:
		return "Local only (on-disk index)"
	case StoreModeRemoteOnly:
		return "Remote only (managed index)"
	case StoreModeDual:
		return "Dual (local + remote, read-merged)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is the OpenAI cloud API or a compatible server.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// ChunkingSettings holds document chunking parameters.
type ChunkingSettings struct {
	// ChunkSize is the window size in characters.
	ChunkSize int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int
}

// Validate checks the chunking invariant 0 <= overlap < chunkSize.
func (s ChunkingSettings) Validate() error {
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunking, s.ChunkSize)
	}
	if s.Overlap < 0 || s.Overlap >= s.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidChunking, s.ChunkSize, s.Overlap)
	}
	return nil
}

// RetrievalSettings holds retrieval behaviour configuration.
type RetrievalSettings struct {
	// TopK is the number of passages retrieved per question.
	TopK int

	// MinScore is the similarity floor below which results are dropped,
	// on the normalized [0,1] scale where (cos+1)/2 maps raw cosine
	// similarity.
	MinScore float64
}

// BudgetSettings holds timeout ceilings for external calls.
// Per-call timeouts nest inside the overall batch budget.
type BudgetSettings struct {
	// Batch is the wall-clock budget for a whole question batch.
	Batch time.Duration

	// EmbeddingCall bounds one embedding provider call.
	EmbeddingCall time.Duration

	// SearchCall bounds one vector search call.
	SearchCall time.Duration

	// LLMCall bounds one language model call.
	LLMCall time.Duration
}

// Settings aggregates all runtime configuration.
type Settings struct {
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Budgets   BudgetSettings

	// StoreMode selects the active vector backends.
	StoreMode StoreMode

	// MaxWorkers bounds concurrent question processing.
	MaxWorkers int
}

// Validate checks all settings, failing fast at startup on bad config.
func (s Settings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if !s.StoreMode.IsValid() {
		return fmt.Errorf("invalid store mode %q", s.StoreMode)
	}
	if s.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", s.Retrieval.TopK)
	}
	if s.Retrieval.MinScore < 0 || s.Retrieval.MinScore > 1 {
		return fmt.Errorf("retrieval min_score must be in [0,1], got %g", s.Retrieval.MinScore)
	}
	if s.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be positive, got %d", s.MaxWorkers)
	}
	return nil
}

// DefaultSettings returns the defaults used when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		Chunking: ChunkingSettings{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Retrieval: RetrievalSettings{
			TopK: 5,
			// Scores are cosine similarity normalized to [0,1] via
			// (cos+1)/2, so 0.6 corresponds to a raw cosine of 0.2.
			// Anything below that is noise for dense embeddings.
			MinScore: 0.6,
		},
		Budgets: BudgetSettings{
			Batch:         5 * time.Minute,
			EmbeddingCall: 60 * time.Second,
			SearchCall:    15 * time.Second,
			LLMCall:       120 * time.Second,
		},
		StoreMode:  StoreModeLocalOnly,
		MaxWorkers: 4,
	}
}
