package domain

import "time"

// QuestionState tracks a question through the answering pipeline.
type QuestionState string

const (
	// QuestionPending means the question has not started processing.
	QuestionPending QuestionState = "pending"

	// QuestionRetrieving means passage retrieval is in flight.
	QuestionRetrieving QuestionState = "retrieving"

	// QuestionSynthesizing means the language model call is in flight.
	QuestionSynthesizing QuestionState = "synthesizing"

	// QuestionDone means an answer was produced.
	QuestionDone QuestionState = "done"

	// QuestionFailed means the question finished with a placeholder
	// answer. Failure of one question never aborts its siblings.
	QuestionFailed QuestionState = "failed"
)

// TokenUsage counts tokens consumed by a language model call.
type TokenUsage struct {
	// PromptTokens is the input token count.
	PromptTokens int

	// CompletionTokens is the generated token count.
	CompletionTokens int

	// TotalTokens is the sum reported by the provider.
	TotalTokens int
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// AnswerRecord is the result of answering one question. It is created
// once and immutable after creation.
type AnswerRecord struct {
	// QuestionIndex is the position in the input questions slice.
	QuestionIndex int

	// AnswerText is the synthesized answer, or a fallback string for
	// degraded questions. Never empty.
	AnswerText string

	// SourceChunkIDs lists the cited passages in retrieval-rank order
	// for traceability.
	SourceChunkIDs []string

	// ValidationScore estimates answer-to-passage support on a 0-10
	// scale. Advisory metadata, never a gate.
	ValidationScore float64

	// TokenUsage is the language model spend for this question.
	TokenUsage TokenUsage

	// ProcessingTime is the wall-clock time for this question.
	ProcessingTime time.Duration

	// State is the terminal state (QuestionDone or QuestionFailed).
	State QuestionState
}

// ProcessingDetail is the per-question metadata exposed in a batch
// response.
type ProcessingDetail struct {
	QuestionIndex      int           `json:"question_index"`
	Question           string        `json:"question"`
	SearchResultsCount int           `json:"search_results_count"`
	TopSearchScores    []float64     `json:"top_search_scores,omitempty"`
	ProcessingTime     time.Duration `json:"processing_time"`
	TokenUsage         int           `json:"token_usage"`
	ValidationScore    float64       `json:"validation_score"`
	State              QuestionState `json:"state"`
}

// BatchResult is the response for one document plus N questions.
// Answers is always aligned 1:1 with the input questions.
type BatchResult struct {
	// BatchID identifies this run.
	BatchID string `json:"batch_id"`

	// DocumentID is the document the questions were asked against.
	DocumentID string `json:"document_id"`

	// Answers holds one answer string per input question, in input
	// order. Degraded questions carry a fallback string, never an
	// empty slot.
	Answers []string `json:"answers"`

	// Details carries per-question processing metadata, in input order.
	Details []ProcessingDetail `json:"processing_details"`

	// TotalTime is the wall-clock time for the whole batch.
	TotalTime time.Duration `json:"total_processing_time"`

	// ProcessedAt is when the batch completed.
	ProcessedAt time.Time `json:"processed_at"`
}
