// Package qdrant provides the remote vector backend using the Qdrant
// REST API.
package qdrant

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorBackend = (*Index)(nil)

// Default configuration values.
const (
	DefaultCollection = "askdoc-chunks"
	DefaultTimeout    = 15 * time.Second
)

// Config holds configuration for the Qdrant backend.
type Config struct {
	// URL is the Qdrant base URL (required), e.g. http://localhost:6333.
	URL string

	// APIKey authenticates requests when set.
	APIKey string

	// Collection is the collection name (default: askdoc-chunks).
	Collection string

	// Dimension is the vector size (required).
	Dimension int

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration
}

// Index is a minimal REST client to Qdrant. It assumes cosine distance
// and creates the collection on first use if missing.
type Index struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
	dimension  int
}

// New creates a Qdrant backend and ensures the collection exists.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant: URL is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("qdrant: dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	idx := &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}

	if err := idx.ensureCollection(ctx); err != nil {
		return nil, fmt.Errorf("qdrant: ensure collection: %w", err)
	}

	return idx, nil
}

// ensureCollection creates the collection if it does not exist.
// Qdrant returns 200 for an existing collection with the same schema.
func (idx *Index) ensureCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     idx.dimension,
			"distance": "Cosine",
		},
	}
	return idx.doJSON(ctx, http.MethodPut,
		fmt.Sprintf("%s/collections/%s", idx.baseURL, idx.collection), body, nil)
}

// Origin identifies this backend in search results and stats.
func (idx *Index) Origin() domain.BackendOrigin {
	return domain.OriginRemote
}

// Upsert writes chunk vectors as Qdrant points. The point ID is derived
// from the chunk ID so re-ingestion replaces instead of duplicating.
func (idx *Index) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		if len(chunk.Embedding) != idx.dimension {
			return fmt.Errorf("%w: chunk %s has dimension %d, collection expects %d",
				domain.ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), idx.dimension)
		}
		points[i] = map[string]any{
			"id":     pointID(chunk.ID),
			"vector": chunk.Embedding,
			"payload": map[string]any{
				"chunk_id":       chunk.ID,
				"document_id":    chunk.DocumentID,
				"content":        chunk.Text,
				"start_offset":   chunk.StartOffset,
				"end_offset":     chunk.EndOffset,
				"sequence_index": chunk.SequenceIndex,
			},
		}
	}

	body := map[string]any{"points": points}
	return idx.doJSON(ctx, http.MethodPut,
		fmt.Sprintf("%s/collections/%s/points?wait=true", idx.baseURL, idx.collection), body, nil)
}

// Search finds the k nearest points, optionally filtered to one
// document via the payload filter.
func (idx *Index) Search(ctx context.Context, query []float32, k int, documentID string) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, collection expects %d",
			domain.ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": true,
	}
	if documentID != "" {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		}
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := idx.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/search", idx.baseURL, idx.collection), req, &resp)
	if err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := chunkFromPayload(r.Payload)
		hits = append(hits, driven.VectorHit{
			ChunkID: chunk.ID,
			// Qdrant reports raw cosine similarity in [-1,1]; map to
			// [0,1] to match the local backend's scale.
			Score: (r.Score + 1) / 2,
			Chunk: chunk,
		})
	}
	return hits, nil
}

// DeleteDocument removes all points belonging to a document.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	return idx.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/delete?wait=true", idx.baseURL, idx.collection), body, nil)
}

// Count returns the number of stored points.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := idx.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/count", idx.baseURL, idx.collection),
		map[string]any{"exact": true}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// doJSON sends a JSON request and decodes the response into out when
// out is non-nil.
func (idx *Index) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idx.apiKey != "" {
		req.Header.Set("api-key", idx.apiKey)
	}

	resp, err := idx.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, url, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// pointID derives a UUID-shaped point identifier from a chunk ID.
// Qdrant only accepts UUIDs or unsigned integers as point IDs.
func pointID(chunkID string) string {
	sum := sha256.Sum256([]byte(chunkID))
	hexed := hex.EncodeToString(sum[:16])
	return fmt.Sprintf("%s-%s-%s-%s-%s", hexed[0:8], hexed[8:12], hexed[12:16], hexed[16:20], hexed[20:32])
}

// chunkFromPayload rebuilds chunk metadata from a point payload.
func chunkFromPayload(payload map[string]any) domain.Chunk {
	var chunk domain.Chunk
	if v, ok := payload["chunk_id"].(string); ok {
		chunk.ID = v
	}
	if v, ok := payload["document_id"].(string); ok {
		chunk.DocumentID = v
	}
	if v, ok := payload["content"].(string); ok {
		chunk.Text = v
	}
	if v, ok := payload["start_offset"].(float64); ok {
		chunk.StartOffset = int(v)
	}
	if v, ok := payload["end_offset"].(float64); ok {
		chunk.EndOffset = int(v)
	}
	if v, ok := payload["sequence_index"].(float64); ok {
		chunk.SequenceIndex = int(v)
	}
	return chunk
}
