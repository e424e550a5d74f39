package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
	"github.com/custodia-labs/askdoc/internal/core/ports/driving"
	"github.com/custodia-labs/askdoc/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.AnswerService = (*Orchestrator)(nil)

// topScoresReported caps how many search scores a processing detail
// carries.
const topScoresReported = 3

// TimeoutAnswer finalizes questions still unfinished when the batch
// budget expires. It is distinct from FallbackAnswer so callers can
// tell "the document does not say" from "we ran out of time".
const TimeoutAnswer = "This question was not processed because the batch time budget was exceeded."

// Orchestrator answers batches of questions against one document. Each
// question runs the retrieve-then-synthesize pipeline independently
// under a bounded worker pool; one question failing never aborts its
// siblings, and the whole batch observes a wall-clock budget.
type Orchestrator struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	chunks      driven.ChunkStore
	settings    domain.Settings
}

// NewOrchestrator creates the batch answering service.
func NewOrchestrator(retriever *Retriever, synthesizer *Synthesizer, chunks driven.ChunkStore, settings domain.Settings) *Orchestrator {
	return &Orchestrator{
		retriever:   retriever,
		synthesizer: synthesizer,
		chunks:      chunks,
		settings:    settings,
	}
}

// Answer processes all questions and returns one answer per question,
// in input order. Questions still unfinished when the batch budget
// expires are finalized with TimeoutAnswer.
func (o *Orchestrator) Answer(ctx context.Context, documentID string, questions []string) (*domain.BatchResult, error) {
	started := time.Now()

	if _, err := o.chunks.GetDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, err)
	}

	batchID := uuid.NewString()
	logger.Section("Batch %s: %d questions against %s", batchID, len(questions), documentID)

	result := &domain.BatchResult{
		BatchID:    batchID,
		DocumentID: documentID,
		Answers:    make([]string, len(questions)),
		Details:    make([]domain.ProcessingDetail, len(questions)),
	}
	if len(questions) == 0 {
		result.ProcessedAt = time.Now().UTC()
		return result, nil
	}

	// The budget clock runs detached from the caller's context: when the
	// caller aborts, questions already in flight finish their language
	// model calls (still bounded by the batch budget and per-call
	// timeouts) while the pending ones are finalized without starting.
	budgetCtx, cancel := context.WithTimeoutCause(context.WithoutCancel(ctx), o.settings.Budgets.Batch, domain.ErrBatchTimeout)
	defer cancel()

	// Each worker writes only its own index, so no mutex is needed.
	var g errgroup.Group
	g.SetLimit(o.settings.MaxWorkers)
	for i, question := range questions {
		g.Go(func() error {
			record, detail := o.processQuestion(ctx, budgetCtx, i, documentID, question)
			result.Answers[i] = record.AnswerText
			result.Details[i] = detail
			return nil
		})
	}
	_ = g.Wait()

	result.TotalTime = time.Since(started)
	result.ProcessedAt = time.Now().UTC()

	done := 0
	for _, detail := range result.Details {
		if detail.State == domain.QuestionDone {
			done++
		}
	}
	logger.Info("Batch %s finished: %d/%d answered in %s", batchID, done, len(questions), result.TotalTime)
	return result, nil
}

// processQuestion runs one question through the pipeline. Pipeline
// work runs under the budget context; the caller context only gates
// whether the question starts at all. It always produces an answer
// string; failures degrade to a placeholder answer.
func (o *Orchestrator) processQuestion(callerCtx, ctx context.Context, index int, documentID, question string) (domain.AnswerRecord, domain.ProcessingDetail) {
	started := time.Now()
	detail := domain.ProcessingDetail{
		QuestionIndex: index,
		Question:      question,
		State:         domain.QuestionPending,
	}

	fail := func(err error) (domain.AnswerRecord, domain.ProcessingDetail) {
		logger.Warn("Question %d failed during %s: %v", index, detail.State, err)
		answer := FallbackAnswer
		if errors.Is(err, domain.ErrBatchTimeout) {
			answer = TimeoutAnswer
		}
		detail.State = domain.QuestionFailed
		detail.ProcessingTime = time.Since(started)
		return domain.AnswerRecord{
			QuestionIndex:  index,
			AnswerText:     answer,
			ProcessingTime: detail.ProcessingTime,
			State:          domain.QuestionFailed,
		}, detail
	}

	if err := ctx.Err(); err != nil {
		return fail(batchErr(ctx, err))
	}
	if err := callerCtx.Err(); err != nil {
		return fail(err)
	}

	detail.State = domain.QuestionRetrieving
	results, err := o.retriever.Retrieve(ctx, question, domain.RetrievalOptions{
		TopK:       o.settings.Retrieval.TopK,
		DocumentID: documentID,
		MinScore:   o.settings.Retrieval.MinScore,
	})
	if err != nil {
		return fail(batchErr(ctx, err))
	}

	detail.SearchResultsCount = len(results)
	for i := 0; i < len(results) && i < topScoresReported; i++ {
		detail.TopSearchScores = append(detail.TopSearchScores, results[i].Score)
	}

	detail.State = domain.QuestionSynthesizing
	record := o.synthesizer.Synthesize(ctx, index, question, results)

	detail.State = record.State
	detail.TokenUsage = record.TokenUsage.TotalTokens
	detail.ValidationScore = record.ValidationScore
	detail.ProcessingTime = time.Since(started)
	return record, detail
}

// batchErr surfaces the batch budget as the failure cause when the
// batch context expired underneath a question.
func batchErr(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && errors.Is(cause, domain.ErrBatchTimeout) {
		return domain.ErrBatchTimeout
	}
	return err
}
