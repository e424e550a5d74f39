// Package sqlite provides the local vector backend and chunk metadata
// store, persisted to a single SQLite database file.
//
// The index is exact: searches compute cosine similarity against every
// stored vector. At single-document scale (hundreds of chunks) this is
// faster than maintaining an approximate structure, and it keeps the
// on-disk format trivial to rebuild.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/askdoc/internal/adapters/driven/vector/sqlite/migrations"
	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
	"github.com/custodia-labs/askdoc/internal/logger"
)

// Ensure Index implements both interfaces.
var (
	_ driven.VectorBackend = (*Index)(nil)
	_ driven.ChunkStore    = (*Index)(nil)
)

// Meta keys stored in the store_meta table.
const (
	metaDimension    = "dimension"
	metaModelVersion = "model_version"
)

// Index is the local on-disk vector backend. It doubles as the chunk
// metadata store so that search hits can be hydrated without a second
// storage dependency.
type Index struct {
	db           *sql.DB
	path         string
	dimension    int
	modelVersion string
}

// New creates or opens the local index at the specified data directory.
// If dataDir is empty, defaults to ~/.askdoc/data/vectors.db.
//
// A missing or unreadable database file is rebuilt empty rather than
// failing: the local index is the durability guarantee, and an operator
// can always re-ingest.
func New(dataDir string, dimension int, modelVersion string) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("sqlite: dimension must be positive, got %d", dimension)
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".askdoc", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	idx, err := open(dbPath, dimension, modelVersion)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return nil, err
		}
		// Corrupt or unreadable file: rebuild empty.
		logger.Warn("Local index unreadable, rebuilding empty: %v", err)
		if rmErr := os.Remove(dbPath); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("removing corrupt index: %w", rmErr)
		}
		idx, err = open(dbPath, dimension, modelVersion)
		if err != nil {
			return nil, fmt.Errorf("rebuilding local index: %w", err)
		}
	}

	return idx, nil
}

func open(dbPath string, dimension int, modelVersion string) (*Index, error) {
	// WAL mode keeps concurrent question searches from blocking each
	// other during ingestion.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	idx := &Index{
		db:           db,
		path:         dbPath,
		dimension:    dimension,
		modelVersion: modelVersion,
	}

	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := idx.checkMeta(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// checkMeta verifies the stored dimension and model version match the
// configuration. Mixing embeddings from different models in one store
// is a fatal configuration error, not silent corruption.
func (idx *Index) checkMeta() error {
	storedDim, ok, err := idx.getMeta(metaDimension)
	if err != nil {
		return err
	}
	if !ok {
		if err := idx.setMeta(metaDimension, strconv.Itoa(idx.dimension)); err != nil {
			return err
		}
		return idx.setMeta(metaModelVersion, idx.modelVersion)
	}

	if storedDim != strconv.Itoa(idx.dimension) {
		return fmt.Errorf("%w: index has dimension %s, configured %d",
			domain.ErrDimensionMismatch, storedDim, idx.dimension)
	}

	storedModel, ok, err := idx.getMeta(metaModelVersion)
	if err != nil {
		return err
	}
	if ok && storedModel != idx.modelVersion {
		return fmt.Errorf("%w: index built with model %q, configured %q",
			domain.ErrDimensionMismatch, storedModel, idx.modelVersion)
	}

	return nil
}

func (idx *Index) getMeta(key string) (string, bool, error) {
	var value string
	err := idx.db.QueryRow("SELECT value FROM store_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading store meta: %w", err)
	}
	return value, true, nil
}

func (idx *Index) setMeta(key, value string) error {
	_, err := idx.db.Exec(`
		INSERT INTO store_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing store meta: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func (idx *Index) migrate(fsys embed.FS) error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := idx.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := idx.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := idx.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Path returns the database file path.
func (idx *Index) Path() string {
	return idx.path
}

// Origin identifies this backend in search results and stats.
func (idx *Index) Origin() domain.BackendOrigin {
	return domain.OriginLocal
}

// ==================== VectorBackend ====================

// Upsert inserts or replaces vectors for the given chunks. Vectors are
// L2-normalized before storage so that search reduces to a dot product.
func (idx *Index) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	for _, chunk := range chunks {
		if len(chunk.Embedding) != idx.dimension {
			return fmt.Errorf("%w: chunk %s has dimension %d, index expects %d",
				domain.ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), idx.dimension)
		}
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, start_offset, end_offset, sequence_index, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			content = excluded.content,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			sequence_index = excluded.sequence_index,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		blob := float32SliceToBytes(normalize(chunk.Embedding))
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Text,
			chunk.StartOffset, chunk.EndOffset, chunk.SequenceIndex, blob); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search finds the k nearest chunks by cosine similarity, normalized to
// [0,1].
func (idx *Index) Search(ctx context.Context, query []float32, k int, documentID string) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			domain.ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	q := `
		SELECT id, document_id, content, start_offset, end_offset, sequence_index, embedding
		FROM chunks
	`
	args := []any{}
	if documentID != "" {
		q += " WHERE document_id = ?"
		args = append(args, documentID)
	}

	rows, err := idx.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	normalized := normalize(query)

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text,
			&chunk.StartOffset, &chunk.EndOffset, &chunk.SequenceIndex, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		stored := bytesToFloat32Slice(blob)
		if len(stored) != idx.dimension {
			return nil, fmt.Errorf("%w: stored vector for chunk %s has dimension %d",
				domain.ErrDimensionMismatch, chunk.ID, len(stored))
		}

		hits = append(hits, driven.VectorHit{
			ChunkID: chunk.ID,
			Score:   cosineToUnit(dot(normalized, stored)),
			Chunk:   chunk,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.SequenceIndex < hits[j].Chunk.SequenceIndex
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteDocument removes a document and its chunks. Chunk rows cascade.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := idx.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	// Chunks may exist without a document row when only vectors were
	// written. Delete directly as well.
	if _, err := idx.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// Count returns the number of stored vectors.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var count int
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// ==================== ChunkStore ====================

// SaveDocument stores or replaces a document record.
func (idx *Index) SaveDocument(ctx context.Context, doc domain.Document) error {
	_, err := idx.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_uri, content_length, ingested_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_uri = excluded.source_uri,
			content_length = excluded.content_length,
			ingested_at = excluded.ingested_at
	`, doc.ID, doc.SourceURI, doc.ContentLength, doc.IngestedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (idx *Index) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	err := idx.db.QueryRowContext(ctx, `
		SELECT id, source_uri, content_length, ingested_at
		FROM documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.SourceURI, &doc.ContentLength, &doc.IngestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// GetChunk retrieves a chunk by ID. The embedding is not populated.
func (idx *Index) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	var chunk domain.Chunk
	err := idx.db.QueryRowContext(ctx, `
		SELECT id, document_id, content, start_offset, end_offset, sequence_index
		FROM chunks WHERE id = ?
	`, id).Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text,
		&chunk.StartOffset, &chunk.EndOffset, &chunk.SequenceIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return &chunk, nil
}

// GetChunks retrieves all chunks for a document ordered by sequence index.
func (idx *Index) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT id, document_id, content, start_offset, end_offset, sequence_index
		FROM chunks WHERE document_id = ?
		ORDER BY sequence_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text,
			&chunk.StartOffset, &chunk.EndOffset, &chunk.SequenceIndex); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// normalize returns the L2-normalized copy of v. A zero vector is
// returned unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// dot computes the dot product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// cosineToUnit maps cosine similarity from [-1,1] to [0,1] so scores
// are comparable with the remote backend.
func cosineToUnit(cos float64) float64 {
	s := (cos + 1) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
