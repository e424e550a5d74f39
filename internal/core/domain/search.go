package domain

// BackendOrigin identifies which physical index produced a search result.
type BackendOrigin string

const (
	// OriginLocal marks results from the local on-disk index.
	OriginLocal BackendOrigin = "local"

	// OriginRemote marks results from the remote managed index.
	OriginRemote BackendOrigin = "remote"
)

// SearchResult is a single similarity hit. It is transient and never
// persisted; a fresh set is produced per query.
type SearchResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the normalized cosine similarity in [0,1].
	// Higher is closer.
	Score float64

	// Origin names the backend that produced this result. After a
	// dual-backend merge it names the backend whose score won.
	Origin BackendOrigin

	// Chunk carries the chunk metadata. In dual mode the local
	// backend's copy is canonical.
	Chunk Chunk
}

// RetrievalOptions configures a retrieval call.
type RetrievalOptions struct {
	// TopK is the maximum number of passages to return.
	TopK int

	// DocumentID restricts results to one document when non-empty.
	DocumentID string

	// MinScore is the similarity floor. Results below it are dropped
	// even if fewer than TopK remain; a near-miss passage returned
	// anyway would degrade answer grounding.
	MinScore float64
}

// BackendStats reports the health of one physical index.
type BackendStats struct {
	// Name is the backend identifier ("local", "remote").
	Name string

	// Available reports whether the backend answered.
	Available bool

	// VectorCount is the number of stored vectors, 0 if unavailable.
	VectorCount int
}

// StoreStats aggregates per-backend health for status reporting.
type StoreStats struct {
	// Mode is the active store mode.
	Mode string

	// Backends holds one entry per configured backend.
	Backends []BackendStats
}
