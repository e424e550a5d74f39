package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdoc/internal/core/domain"
)

func newFakeAPI(t *testing.T, dims int) (*httptest.Server, *[][]string) {
	t.Helper()
	var batches [][]string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		batches = append(batches, req.Input)

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			// Each input gets a distinct vector so ordering is checkable.
			vec := make([]float64, dims)
			vec[0] = float64(i + 1)
			data[i] = map[string]any{"embedding": vec, "index": i}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"data": data}))
	})
	mux.HandleFunc("GET /models", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &batches
}

func newTestService(t *testing.T, url string, dims int) *EmbeddingService {
	t.Helper()
	svc, err := New(Config{APIKey: "test-key", BaseURL: url, Dimensions: dims})
	require.NoError(t, err)
	return svc
}

func TestNew(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
	})

	t.Run("known model infers dimensions", func(t *testing.T) {
		svc, err := New(Config{APIKey: "k", Model: "text-embedding-3-small"})
		require.NoError(t, err)
		assert.Equal(t, 1536, svc.Dimensions())
	})

	t.Run("unknown model without dimensions fails", func(t *testing.T) {
		_, err := New(Config{APIKey: "k", Model: "mystery-embed-9000"})
		require.Error(t, err)
	})

	t.Run("explicit dimensions override", func(t *testing.T) {
		svc, err := New(Config{APIKey: "k", Model: "mystery-embed-9000", Dimensions: 384})
		require.NoError(t, err)
		assert.Equal(t, 384, svc.Dimensions())
		assert.Equal(t, "mystery-embed-9000", svc.ModelName())
	})
}

func TestEmbed(t *testing.T) {
	srv, _ := newFakeAPI(t, 3)
	svc := newTestService(t, srv.URL, 3)

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vec, 3)
	assert.Equal(t, float32(1), vec[0])
}

func TestEmbedBatch(t *testing.T) {
	srv, batches := newFakeAPI(t, 3)
	svc := newTestService(t, srv.URL, 3)

	texts := []string{"first", "second", "third"}
	vecs, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	for i := range texts {
		assert.Equal(t, float32(i+1), vecs[i][0], "vector %d out of order", i)
	}
	require.Len(t, *batches, 1)
	assert.Equal(t, texts, (*batches)[0])
}

func TestEmbedBatch_SplitsLargeInput(t *testing.T) {
	srv, batches := newFakeAPI(t, 3)
	svc := newTestService(t, srv.URL, 3)

	texts := make([]string, maxBatchSize+10)
	for i := range texts {
		texts[i] = "chunk"
	}

	vecs, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, len(texts))
	require.Len(t, *batches, 2)
	assert.Len(t, (*batches)[0], maxBatchSize)
	assert.Len(t, (*batches)[1], 10)
}

func TestEmbedBatch_Empty(t *testing.T) {
	srv, batches := newFakeAPI(t, 3)
	svc := newTestService(t, srv.URL, 3)

	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Empty(t, *batches, "no API call for an empty batch")
}

func TestEmbedBatch_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /embeddings", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	svc := newTestService(t, srv.URL, 3)
	_, err := svc.EmbedBatch(context.Background(), []string{"x"})
	require.ErrorIs(t, err, domain.ErrEmbeddingProvider)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestEmbedBatch_WrongDimension(t *testing.T) {
	srv, _ := newFakeAPI(t, 5)
	svc := newTestService(t, srv.URL, 3)

	_, err := svc.EmbedBatch(context.Background(), []string{"x"})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestPing(t *testing.T) {
	srv, _ := newFakeAPI(t, 3)
	svc := newTestService(t, srv.URL, 3)

	require.NoError(t, svc.Ping(context.Background()))
}
