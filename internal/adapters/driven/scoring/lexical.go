// Package scoring provides answer validation scorers. The score is a
// 0-10 estimate of how well an answer is supported by the passages it
// cites; it is advisory metadata and never blocks an answer.
package scoring

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/askdoc/internal/core/domain"
	"github.com/custodia-labs/askdoc/internal/core/ports/driven"
)

// Ensure LexicalScorer implements the interface.
var _ driven.AnswerScorer = (*LexicalScorer)(nil)

// LexicalScorer rates answers by the fraction of their content words
// found in the cited passages. Cheap, deterministic and offline; the
// default scorer.
type LexicalScorer struct{}

// NewLexical creates a lexical overlap scorer.
func NewLexical() *LexicalScorer {
	return &LexicalScorer{}
}

// Name identifies the scoring method in logs and stats.
func (s *LexicalScorer) Name() string {
	return "lexical-overlap"
}

// Score rates the answer against the passages on a 0-10 scale.
// An answer with no content words scores zero.
func (s *LexicalScorer) Score(_ context.Context, _ string, answer string, passages []domain.Chunk) (float64, error) {
	answerWords := contentWords(answer)
	if len(answerWords) == 0 {
		return 0, nil
	}

	supported := make(map[string]bool)
	for _, passage := range passages {
		for word := range contentWords(passage.Text) {
			supported[word] = true
		}
	}

	matched := 0
	for word := range answerWords {
		if supported[word] {
			matched++
		}
	}

	return 10 * float64(matched) / float64(len(answerWords)), nil
}

// stopwords are too common to signal grounding either way.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "this": true, "to": true, "was": true,
	"were": true, "will": true, "with": true, "not": true, "no": true,
}

// contentWords lowercases, splits on non-letter-digit runs and drops
// stopwords and single characters.
func contentWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(field) < 2 || stopwords[field] {
			continue
		}
		words[field] = true
	}
	return words
}
