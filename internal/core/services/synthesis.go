package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
	"github.com/custodia-labs/askdoc/internal/logger"
)

// FallbackAnswer is returned when no grounded answer can be produced,
// whether because retrieval found nothing relevant or because the
// language model exhausted its retries. Guessing is never an option.
const FallbackAnswer = "The answer cannot be determined from the document."

const systemPrompt = "You are an expert document analyst. Answer the question using only " +
	"the provided passages. Be concise and factual. If the passages do not contain " +
	"the answer, reply exactly: " + FallbackAnswer

// Default retry behaviour for transient provider failures.
const (
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = 500 * time.Millisecond
)

// Synthesizer turns retrieved passages into a grounded answer. Provider
// failures marked retryable are retried with exponential backoff; all
// other failures abort immediately.
type Synthesizer struct {
	llm         driven.LLMService
	scorer      driven.AnswerScorer
	budgets     domain.BudgetSettings
	maxRetries  int
	baseBackoff time.Duration
}

// NewSynthesizer creates the synthesis service.
func NewSynthesizer(llm driven.LLMService, scorer driven.AnswerScorer, budgets domain.BudgetSettings) *Synthesizer {
	return &Synthesizer{
		llm:         llm,
		scorer:      scorer,
		budgets:     budgets,
		maxRetries:  DefaultMaxRetries,
		baseBackoff: DefaultBaseBackoff,
	}
}

// Synthesize answers one question from its retrieved passages. It
// always returns a record with non-empty answer text; failure shows up
// as the failed state with the fallback answer, never as a missing
// record.
func (s *Synthesizer) Synthesize(ctx context.Context, questionIndex int, question string, results []domain.SearchResult) domain.AnswerRecord {
	started := time.Now()
	record := domain.AnswerRecord{
		QuestionIndex: questionIndex,
		State:         domain.QuestionSynthesizing,
	}

	if len(results) == 0 {
		// Nothing relevant was retrieved. Declining to answer is the
		// correct grounded outcome, not a failure.
		record.AnswerText = FallbackAnswer
		record.State = domain.QuestionDone
		record.ProcessingTime = time.Since(started)
		return record
	}

	passages := make([]domain.Chunk, len(results))
	chunkIDs := make([]string, len(results))
	for i, result := range results {
		passages[i] = result.Chunk
		chunkIDs[i] = result.ChunkID
	}
	record.SourceChunkIDs = chunkIDs

	completion, err := s.completeWithRetry(ctx, buildPrompt(question, results))
	if err != nil {
		logger.Warn("Synthesis failed for question %d: %v", questionIndex, err)
		record.AnswerText = FallbackAnswer
		record.State = domain.QuestionFailed
		record.ProcessingTime = time.Since(started)
		return record
	}

	record.AnswerText = strings.TrimSpace(completion.Text)
	if record.AnswerText == "" {
		record.AnswerText = FallbackAnswer
	}
	record.TokenUsage = domain.TokenUsage{
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		TotalTokens:      completion.TotalTokens,
	}

	if s.scorer != nil {
		score, err := s.scorer.Score(ctx, question, record.AnswerText, passages)
		if err != nil {
			// The score is advisory; a scorer failure never blocks the
			// answer.
			logger.Warn("Scorer %s failed for question %d: %v", s.scorer.Name(), questionIndex, err)
		} else {
			record.ValidationScore = score
		}
	}

	record.State = domain.QuestionDone
	record.ProcessingTime = time.Since(started)
	return record
}

// completeWithRetry calls the model, retrying failures the provider
// marked retryable with exponential backoff.
func (s *Synthesizer) completeWithRetry(ctx context.Context, prompt string) (*driven.Completion, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.baseBackoff << (attempt - 1)
			logger.Debug("Retrying synthesis in %s (attempt %d/%d)", backoff, attempt, s.maxRetries)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, ctx.Err())
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.budgets.LLMCall)
		completion, err := s.llm.Complete(callCtx, systemPrompt, prompt, driven.CompleteOptions{
			Temperature: 0,
		})
		cancel()
		if err == nil {
			return completion, nil
		}
		lastErr = err

		var retryable *driven.RetryableError
		if !errors.As(err, &retryable) {
			return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
		}
	}
	return nil, fmt.Errorf("%w: retries exhausted: %v", domain.ErrSynthesis, lastErr)
}

// buildPrompt lays out the passages in retrieval-rank order, each
// tagged with its chunk ID so answers stay traceable to sources.
func buildPrompt(question string, results []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("Passages from the document, most relevant first:\n\n")
	for _, result := range results {
		fmt.Fprintf(&b, "[chunk %s]\n%s\n\n", result.ChunkID, result.Chunk.Text)
	}
	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String()
}
