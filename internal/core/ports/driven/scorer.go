package driven

import (
	"context"

	"github.com/custodia-labs/askdoc/internal/core/domain"
)

// AnswerScorer estimates how well an answer is supported by the cited
// passages, on a 0-10 scale. The score is advisory metadata attached to
// the answer record; it never blocks returning the answer.
//
// The scoring method is pluggable: a cheap lexical heuristic is the
// default, an LLM-judge implementation is available when a second model
// call is acceptable.
type AnswerScorer interface {
	// Score rates the answer against the passages it cites.
	Score(ctx context.Context, question, answer string, passages []domain.Chunk) (float64, error)

	// Name identifies the scoring method in logs and stats.
	Name() string
}
