// Package extract turns document sources into cleaned UTF-8 text.
// Plain text files and HTTP(S) URLs are supported; the cleaned result
// is what the chunking and embedding pipeline operates on.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
	"github.com/custodia-labs/askdoc/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxBytes caps how much a single source may read (32MB).
	DefaultMaxBytes = 32 << 20
)

// Config holds configuration for the extractor.
type Config struct {
	// HTTPTimeout bounds URL fetches (default: 30s).
	HTTPTimeout time.Duration

	// MaxBytes caps how much of a source is read (default: 32MB).
	MaxBytes int64
}

// Extractor reads plain text from local files and HTTP(S) URLs.
type Extractor struct {
	client   *http.Client
	maxBytes int64
}

// New creates an extractor.
func New(cfg Config) *Extractor {
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &Extractor{
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
		maxBytes: cfg.MaxBytes,
	}
}

// Extract fetches the source and returns its cleaned text content.
// A source that yields no usable text is an ingestion failure.
func (e *Extractor) Extract(ctx context.Context, source string) (string, error) {
	var raw []byte
	var err error

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		raw, err = e.fetchURL(ctx, source)
	} else {
		raw, err = e.readFile(source)
	}
	if err != nil {
		return "", err
	}

	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrIngestion, source)
	}

	text := Clean(string(raw))
	if text == "" {
		return "", fmt.Errorf("%w: %s contains no text", domain.ErrIngestion, source)
	}

	logger.Debug("Extracted %d characters from %s", len(text), source)
	return text, nil
}

func (e *Extractor) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIngestion, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrIngestion, path)
	}
	if info.Size() > e.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds the %d byte limit", domain.ErrIngestion, path, e.maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIngestion, err)
	}
	return data, nil
}

func (e *Extractor) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrIngestion, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", domain.ErrIngestion, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s: status %d", domain.ErrIngestion, url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrIngestion, url, err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds the %d byte limit", domain.ErrIngestion, url, e.maxBytes)
	}
	return data, nil
}

var (
	manyBlankLines = regexp.MustCompile(`\n{3,}`)
	trailingSpace  = regexp.MustCompile(`[ \t]+\n`)
)

// Clean normalizes line endings, strips trailing whitespace, collapses
// runs of blank lines and trims the result. Paragraph structure is kept
// so chunk boundaries stay meaningful.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = manyBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
