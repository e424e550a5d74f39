package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
)

func newTestOrchestrator(t *testing.T, store *mockStore, llm driven.LLMService, settings domain.Settings) *Orchestrator {
	t.Helper()
	chunks := newMockChunkStore()
	require.NoError(t, chunks.SaveDocument(context.Background(), domain.Document{ID: "doc1"}))

	retriever := NewRetriever(&mockEmbedder{}, store, settings.Budgets)
	synthesizer := NewSynthesizer(llm, &mockScorer{score: 8}, settings.Budgets)
	synthesizer.baseBackoff = time.Millisecond
	return NewOrchestrator(retriever, synthesizer, chunks, settings)
}

func relevantStore() *mockStore {
	return &mockStore{results: []domain.SearchResult{
		searchResult("c1", 0.9, 0, "The grace period is thirty days."),
		searchResult("c2", 0.6, 1, "Premiums are due monthly."),
	}}
}

func TestAnswer(t *testing.T) {
	ctx := context.Background()
	settings := domain.DefaultSettings()

	t.Run("answers align one to one with questions", func(t *testing.T) {
		llm := &mockLLM{replies: []mockReply{{text: "Thirty days."}}}
		o := newTestOrchestrator(t, relevantStore(), llm, settings)

		questions := []string{"q one?", "q two?", "q three?"}
		result, err := o.Answer(ctx, "doc1", questions)
		require.NoError(t, err)

		assert.NotEmpty(t, result.BatchID)
		assert.Equal(t, "doc1", result.DocumentID)
		require.Len(t, result.Answers, len(questions))
		require.Len(t, result.Details, len(questions))
		for i, answer := range result.Answers {
			assert.NotEmpty(t, answer, "answer %d must never be empty", i)
			assert.Equal(t, i, result.Details[i].QuestionIndex)
			assert.Equal(t, questions[i], result.Details[i].Question)
			assert.Equal(t, domain.QuestionDone, result.Details[i].State)
		}
	})

	t.Run("per-question detail carries retrieval and usage metadata", func(t *testing.T) {
		llm := &mockLLM{replies: []mockReply{{text: "Thirty days."}}}
		o := newTestOrchestrator(t, relevantStore(), llm, settings)

		result, err := o.Answer(ctx, "doc1", []string{"How long is the grace period?"})
		require.NoError(t, err)

		detail := result.Details[0]
		assert.Equal(t, 2, detail.SearchResultsCount)
		assert.Equal(t, []float64{0.9, 0.6}, detail.TopSearchScores)
		assert.Equal(t, 120, detail.TokenUsage)
		assert.InDelta(t, 8, detail.ValidationScore, 1e-9)
		assert.Positive(t, detail.ProcessingTime)
		assert.Positive(t, result.TotalTime)
		assert.False(t, result.ProcessedAt.IsZero())
	})

	t.Run("one failing question never aborts its siblings", func(t *testing.T) {
		llm := &mockLLM{replies: []mockReply{
			{text: "Answer one."},
			{err: context.DeadlineExceeded},
			{text: "Answer three."},
		}}
		settings := settings
		settings.MaxWorkers = 1 // deterministic call order
		o := newTestOrchestrator(t, relevantStore(), llm, settings)

		result, err := o.Answer(ctx, "doc1", []string{"q1", "q2", "q3"})
		require.NoError(t, err)
		require.Len(t, result.Answers, 3)

		assert.Equal(t, "Answer one.", result.Answers[0])
		assert.Equal(t, FallbackAnswer, result.Answers[1])
		assert.Equal(t, "Answer three.", result.Answers[2])
		assert.Equal(t, domain.QuestionDone, result.Details[0].State)
		assert.Equal(t, domain.QuestionFailed, result.Details[1].State)
		assert.Equal(t, domain.QuestionDone, result.Details[2].State)
	})

	t.Run("unrelated question gets the fallback answer", func(t *testing.T) {
		store := &mockStore{results: []domain.SearchResult{
			searchResult("c1", 0.05, 0, "nothing relevant here"),
		}}
		llm := &mockLLM{replies: []mockReply{{text: "should not be used"}}}
		o := newTestOrchestrator(t, store, llm, settings)

		result, err := o.Answer(ctx, "doc1", []string{"What is the airspeed of an unladen swallow?"})
		require.NoError(t, err)

		assert.Equal(t, FallbackAnswer, result.Answers[0])
		assert.Equal(t, domain.QuestionDone, result.Details[0].State)
		assert.Zero(t, llm.calls, "no synthesis without grounding passages")
	})

	t.Run("unknown document fails the whole batch", func(t *testing.T) {
		o := newTestOrchestrator(t, relevantStore(), &mockLLM{replies: []mockReply{{text: "x"}}}, settings)

		_, err := o.Answer(ctx, "no-such-doc", []string{"q"})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty question list returns an empty batch", func(t *testing.T) {
		o := newTestOrchestrator(t, relevantStore(), &mockLLM{replies: []mockReply{{text: "x"}}}, settings)

		result, err := o.Answer(ctx, "doc1", nil)
		require.NoError(t, err)
		assert.Empty(t, result.Answers)
		assert.NotEmpty(t, result.BatchID)
	})

	t.Run("expired batch budget finalizes remaining questions", func(t *testing.T) {
		llm := &mockLLM{replies: []mockReply{{text: "fast answer"}}}
		settings := settings
		settings.Budgets.Batch = time.Nanosecond
		settings.MaxWorkers = 1
		o := newTestOrchestrator(t, relevantStore(), llm, settings)

		result, err := o.Answer(ctx, "doc1", []string{"q1", "q2"})
		require.NoError(t, err, "a timed-out batch still returns its result")
		require.Len(t, result.Answers, 2)
		for i, answer := range result.Answers {
			assert.Equal(t, TimeoutAnswer, answer, "expiry must be distinguishable from a grounding miss")
			assert.NotEqual(t, FallbackAnswer, answer)
			assert.Equal(t, domain.QuestionFailed, result.Details[i].State)
		}
	})

	t.Run("aborted caller starts no new questions", func(t *testing.T) {
		llm := &mockLLM{replies: []mockReply{{text: "never used"}}}
		o := newTestOrchestrator(t, relevantStore(), llm, settings)

		aborted, abort := context.WithCancel(context.Background())
		abort()

		result, err := o.Answer(aborted, "doc1", []string{"q1", "q2"})
		require.NoError(t, err)
		require.Len(t, result.Answers, 2)
		for i, answer := range result.Answers {
			assert.Equal(t, FallbackAnswer, answer)
			assert.Equal(t, domain.QuestionFailed, result.Details[i].State)
		}
		assert.Zero(t, llm.calls, "an aborted batch must not reach the language model")
	})

	t.Run("caller abort lets the in-flight call finish", func(t *testing.T) {
		abortCtx, abort := context.WithCancel(context.Background())
		defer abort()

		llm := &abortingLLM{abort: abort}
		llm.replies = []mockReply{{text: "Answer one."}}
		settings := settings
		settings.MaxWorkers = 1 // deterministic call order
		o := newTestOrchestrator(t, relevantStore(), llm, settings)

		result, err := o.Answer(abortCtx, "doc1", []string{"q1", "q2"})
		require.NoError(t, err)
		require.Len(t, result.Answers, 2)

		assert.Equal(t, "Answer one.", result.Answers[0], "the call in flight at abort time completes")
		assert.Equal(t, domain.QuestionDone, result.Details[0].State)
		assert.Equal(t, FallbackAnswer, result.Answers[1])
		assert.Equal(t, domain.QuestionFailed, result.Details[1].State)
		assert.Equal(t, 1, llm.calls)
	})
}

// abortingLLM cancels the caller's batch context on its first
// completion call, simulating a client disconnect mid-synthesis.
type abortingLLM struct {
	mockLLM
	abort context.CancelFunc
	once  sync.Once
}

func (m *abortingLLM) Complete(ctx context.Context, system, user string, opts driven.CompleteOptions) (*driven.Completion, error) {
	m.once.Do(m.abort)
	return m.mockLLM.Complete(ctx, system, user, opts)
}
