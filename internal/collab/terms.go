package collab

import (
	"context"
	"strings"
)

// DefaultBiasTerms is the built-in flag list for the term scorer. Entries
// are matched case-insensitively as substrings of the comment text.
var DefaultBiasTerms = []string{
	"culture fit",
	"young",
	"energetic",
	"native speaker",
	"digital native",
	"recent graduate",
	"too old",
	"overqualified",
}

// TermScorer is a BiasScorer backed by a static term list. It needs no
// external service, which makes it the default for CLI runs; a model-backed
// scorer can replace it without touching the engine.
type TermScorer struct {
	terms []string
}

// NewTermScorer creates a term scorer. A nil or empty list selects
// DefaultBiasTerms.
func NewTermScorer(terms []string) *TermScorer {
	if len(terms) == 0 {
		terms = DefaultBiasTerms
	}
	return &TermScorer{terms: terms}
}

// ScoreText flags every listed term found in the text. The score grows with
// the number of distinct flagged terms and saturates at 1.
func (s *TermScorer) ScoreText(_ context.Context, text string) (*BiasScore, error) {
	lowered := strings.ToLower(text)
	var flagged []string
	for _, term := range s.terms {
		if strings.Contains(lowered, term) {
			flagged = append(flagged, term)
		}
	}

	score := 0.25 * float64(len(flagged))
	if score > 1 {
		score = 1
	}
	return &BiasScore{Score: score, FlaggedTerms: flagged}, nil
}
