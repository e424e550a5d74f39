package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdoc/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	return s
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSettings(), cfg.Settings)
	assert.Equal(t, domain.AIProviderOpenAI, cfg.Providers.Embedding)
	assert.Equal(t, "lexical", cfg.Providers.Scorer)
}

func TestLoad_OverlaysFileValues(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`
[chunking]
chunk_size = 500

[retrieval]
top_k = 10

[budgets]
batch = "10m"

[store]
mode = "dual"

[providers]
llm = "anthropic"
qdrant_url = "http://localhost:6333"
`), 0o600))

	cfg, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Settings.Chunking.ChunkSize)
	assert.Equal(t, 200, cfg.Settings.Chunking.Overlap, "unset keys keep defaults")
	assert.Equal(t, 10, cfg.Settings.Retrieval.TopK)
	assert.Equal(t, 10*time.Minute, cfg.Settings.Budgets.Batch)
	assert.Equal(t, 60*time.Second, cfg.Settings.Budgets.EmbeddingCall)
	assert.Equal(t, domain.StoreModeDual, cfg.Settings.StoreMode)
	assert.Equal(t, domain.AIProviderAnthropic, cfg.Providers.LLM)
	assert.Equal(t, domain.AIProviderOpenAI, cfg.Providers.Embedding)
	assert.Equal(t, "http://localhost:6333", cfg.Providers.QdrantURL)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed toml", "[chunking\nchunk_size = "},
		{"overlap >= chunk size", "[chunking]\nchunk_size = 100\noverlap = 100"},
		{"unknown store mode", "[store]\nmode = \"faiss\""},
		{"unknown provider", "[providers]\nllm = \"skynet\""},
		{"bad duration", "[budgets]\nbatch = \"several minutes\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.body), 0o600))
			_, err := s.Load()
			require.Error(t, err)
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	want := DefaultConfig()
	want.Settings.Chunking.ChunkSize = 800
	want.Settings.Retrieval.MinScore = 0.4
	want.Settings.StoreMode = domain.StoreModeDual
	want.Providers.LLM = domain.AIProviderAnthropic
	want.Providers.QdrantURL = "http://qdrant:6333"
	want.Providers.Scorer = "llm-judge"

	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSave_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.toml")
	s, err := New(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(DefaultConfig()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}
