package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
)

func passages(texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{ID: "c", Text: text}
	}
	return chunks
}

func TestLexicalScorer(t *testing.T) {
	s := NewLexical()
	ctx := context.Background()

	t.Run("fully supported answer scores high", func(t *testing.T) {
		score, err := s.Score(ctx, "How long is the grace period?",
			"grace period thirty days",
			passages("The grace period for premium payment is thirty days."))
		require.NoError(t, err)
		assert.InDelta(t, 10, score, 1e-9)
	})

	t.Run("unsupported answer scores low", func(t *testing.T) {
		score, err := s.Score(ctx, "How long is the grace period?",
			"quantum entanglement violates locality",
			passages("The grace period for premium payment is thirty days."))
		require.NoError(t, err)
		assert.Less(t, score, 3.0)
	})

	t.Run("partial overlap scores in between", func(t *testing.T) {
		score, err := s.Score(ctx, "q",
			"grace period lasts forever apparently",
			passages("The grace period is thirty days."))
		require.NoError(t, err)
		assert.Greater(t, score, 0.0)
		assert.Less(t, score, 10.0)
	})

	t.Run("empty answer scores zero", func(t *testing.T) {
		score, err := s.Score(ctx, "q", "", passages("anything"))
		require.NoError(t, err)
		assert.Zero(t, score)
	})

	t.Run("stopwords do not count as support", func(t *testing.T) {
		score, err := s.Score(ctx, "q", "the and of is", passages("the and of is"))
		require.NoError(t, err)
		assert.Zero(t, score, "stopword-only answers carry no content")
	})

	assert.Equal(t, "lexical-overlap", s.Name())
}

// fakeLLM returns a canned completion.
type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Complete(_ context.Context, _, _ string, _ driven.CompleteOptions) (*driven.Completion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &driven.Completion{Text: f.reply, TotalTokens: 10}, nil
}

func (f *fakeLLM) ModelName() string            { return "fake" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

func TestJudgeScorer(t *testing.T) {
	ctx := context.Background()

	t.Run("parses plain integer grade", func(t *testing.T) {
		s := NewJudge(&fakeLLM{reply: "8"})
		score, err := s.Score(ctx, "q", "a", passages("p"))
		require.NoError(t, err)
		assert.InDelta(t, 8, score, 1e-9)
	})

	t.Run("parses grade with trailing text", func(t *testing.T) {
		s := NewJudge(&fakeLLM{reply: "7/10 well supported"})
		score, err := s.Score(ctx, "q", "a", passages("p"))
		require.NoError(t, err)
		assert.InDelta(t, 7, score, 1e-9)
	})

	t.Run("clamps out-of-range grades", func(t *testing.T) {
		s := NewJudge(&fakeLLM{reply: "15"})
		score, err := s.Score(ctx, "q", "a", passages("p"))
		require.NoError(t, err)
		assert.InDelta(t, 10, score, 1e-9)
	})

	t.Run("errors on digitless reply", func(t *testing.T) {
		s := NewJudge(&fakeLLM{reply: "excellent answer"})
		_, err := s.Score(ctx, "q", "a", passages("p"))
		require.Error(t, err)
	})

	t.Run("propagates provider failure", func(t *testing.T) {
		s := NewJudge(&fakeLLM{err: errors.New("unavailable")})
		_, err := s.Score(ctx, "q", "a", passages("p"))
		require.Error(t, err)
	})

	assert.Equal(t, "llm-judge", NewJudge(nil).Name())
}
