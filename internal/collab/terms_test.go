package collab

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermScorer_FlagsListedTerms(t *testing.T) {
	scorer := NewTermScorer(nil)

	score, err := scorer.ScoreText(context.Background(),
		"Great engineer but I worry about Culture Fit, maybe too old for the team pace.")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"culture fit", "too old"}, score.FlaggedTerms)
	assert.InDelta(t, 0.5, score.Score, 1e-9)
}

func TestTermScorer_CleanTextScoresZero(t *testing.T) {
	scorer := NewTermScorer(nil)

	score, err := scorer.ScoreText(context.Background(),
		"Strong algorithms round, communicated trade-offs clearly.")
	require.NoError(t, err)

	assert.Empty(t, score.FlaggedTerms)
	assert.Equal(t, 0.0, score.Score)
}

func TestTermScorer_CustomTermList(t *testing.T) {
	scorer := NewTermScorer([]string{"rockstar"})

	score, err := scorer.ScoreText(context.Background(), "Looking for a real rockstar here.")
	require.NoError(t, err)
	assert.Equal(t, []string{"rockstar"}, score.FlaggedTerms)

	// The default list is replaced, not extended
	score, err = scorer.ScoreText(context.Background(), "concerns about culture fit")
	require.NoError(t, err)
	assert.Empty(t, score.FlaggedTerms)
}

func TestTermScorer_ScoreSaturatesAtOne(t *testing.T) {
	scorer := NewTermScorer([]string{"a1", "b2", "c3", "d4", "e5"})

	score, err := scorer.ScoreText(context.Background(), "a1 b2 c3 d4 e5")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score.Score)
}

func TestStaticVerifier_VerifiesHeldQualifications(t *testing.T) {
	reviewer := uuid.New()
	verifier := &StaticVerifier{
		Qualified: map[uuid.UUID]map[string]bool{
			reviewer: {"senior_reviewer": true},
		},
	}

	held, err := verifier.Verify(context.Background(), reviewer, "senior_reviewer")
	require.NoError(t, err)
	assert.True(t, held.Verified)

	missing, err := verifier.Verify(context.Background(), reviewer, "ethics_board")
	require.NoError(t, err)
	assert.False(t, missing.Verified)

	stranger, err := verifier.Verify(context.Background(), uuid.New(), "senior_reviewer")
	require.NoError(t, err)
	assert.False(t, stranger.Verified)
}

func TestStaticVerifier_AppliesTTL(t *testing.T) {
	reviewer := uuid.New()
	verifier := &StaticVerifier{
		Qualified: map[uuid.UUID]map[string]bool{
			reviewer: {"senior_reviewer": true},
		},
		TTL: time.Hour,
	}

	held, err := verifier.Verify(context.Background(), reviewer, "senior_reviewer")
	require.NoError(t, err)
	require.NotNil(t, held.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *held.ExpiresAt, time.Minute)
}
