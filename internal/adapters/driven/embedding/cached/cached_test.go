package cached

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder counts calls and embeds each text deterministically.
type fakeEmbedder struct {
	calls   int
	batches [][]string
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 0}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 2 }
func (f *fakeEmbedder) ModelName() string            { return "fake-embed" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

func TestEmbed_CachesRepeatedText(t *testing.T) {
	inner := &fakeEmbedder{}
	svc := New(inner, 10)
	ctx := context.Background()

	first, err := svc.Embed(ctx, "grace period")
	require.NoError(t, err)

	second, err := svc.Embed(ctx, "grace period")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "second call must come from cache")

	hits, misses := svc.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestEmbedBatch_ForwardsOnlyMisses(t *testing.T) {
	inner := &fakeEmbedder{}
	svc := New(inner, 10)
	ctx := context.Background()

	_, err := svc.EmbedBatch(ctx, []string{"aa", "bbb"})
	require.NoError(t, err)

	vecs, err := svc.EmbedBatch(ctx, []string{"aa", "cccc", "bbb"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	assert.Equal(t, float32(2), vecs[0][0])
	assert.Equal(t, float32(4), vecs[1][0])
	assert.Equal(t, float32(3), vecs[2][0])

	require.Len(t, inner.batches, 2)
	assert.Equal(t, []string{"cccc"}, inner.batches[1], "only the miss reaches the provider")
}

func TestEmbedBatch_AllCachedSkipsProvider(t *testing.T) {
	inner := &fakeEmbedder{}
	svc := New(inner, 10)
	ctx := context.Background()

	_, err := svc.EmbedBatch(ctx, []string{"x", "y"})
	require.NoError(t, err)

	_, err = svc.EmbedBatch(ctx, []string{"y", "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestEmbedBatch_ErrorNotCached(t *testing.T) {
	inner := &fakeEmbedder{err: errors.New("quota exceeded")}
	svc := New(inner, 10)
	ctx := context.Background()

	_, err := svc.EmbedBatch(ctx, []string{"x"})
	require.Error(t, err)

	inner.err = nil
	vecs, err := svc.EmbedBatch(ctx, []string{"x"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.Equal(t, 2, inner.calls, "failed lookup must retry the provider")
}

func TestEviction(t *testing.T) {
	inner := &fakeEmbedder{}
	svc := New(inner, 2)
	ctx := context.Background()

	_, err := svc.EmbedBatch(ctx, []string{"a", "bb", "ccc"})
	require.NoError(t, err)

	// "a" is the oldest entry and should have been evicted.
	_, err = svc.Embed(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	// "ccc" survived.
	_, err = svc.Embed(ctx, "ccc")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestPassthrough(t *testing.T) {
	svc := New(&fakeEmbedder{}, 0)
	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "fake-embed", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
