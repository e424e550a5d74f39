package scoring

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
	"github.com/custodia-labs/askdoc/internal/logger"
)

// Ensure JudgeScorer implements the interface.
var _ driven.AnswerScorer = (*JudgeScorer)(nil)

const judgeSystemPrompt = "You grade answers for factual grounding. " +
	"Respond with a single integer from 0 to 10 and nothing else. " +
	"10 means every claim in the answer is directly supported by the passages, " +
	"0 means the answer is unsupported or contradicts them."

// JudgeScorer rates answers with a second language model call. More
// discriminating than the lexical scorer, at the cost of latency and
// tokens per question.
type JudgeScorer struct {
	llm driven.LLMService
}

// NewJudge creates an LLM-judge scorer.
func NewJudge(llm driven.LLMService) *JudgeScorer {
	return &JudgeScorer{llm: llm}
}

// Name identifies the scoring method in logs and stats.
func (s *JudgeScorer) Name() string {
	return "llm-judge"
}

// Score asks the model to grade the answer against the passages.
func (s *JudgeScorer) Score(ctx context.Context, question, answer string, passages []domain.Chunk) (float64, error) {
	var prompt strings.Builder
	prompt.WriteString("Passages:\n")
	for i, passage := range passages {
		fmt.Fprintf(&prompt, "[%d] %s\n", i+1, passage.Text)
	}
	fmt.Fprintf(&prompt, "\nQuestion: %s\n\nAnswer: %s\n\nGrade:", question, answer)

	completion, err := s.llm.Complete(ctx, judgeSystemPrompt, prompt.String(), driven.CompleteOptions{
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return 0, fmt.Errorf("judge completion: %w", err)
	}

	score, err := parseGrade(completion.Text)
	if err != nil {
		logger.Warn("Judge returned unparseable grade %q: %v", completion.Text, err)
		return 0, err
	}
	return score, nil
}

// parseGrade extracts the leading integer from the model's reply and
// clamps it to [0,10].
func parseGrade(text string) (float64, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(text), func(r rune) bool {
		return r < '0' || r > '9'
	})
	if len(fields) == 0 {
		return 0, fmt.Errorf("no digits in grade %q", text)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("parse grade %q: %w", text, err)
	}
	if n < 0 {
		n = 0
	}
	if n > 10 {
		n = 10
	}
	return float64(n), nil
}
