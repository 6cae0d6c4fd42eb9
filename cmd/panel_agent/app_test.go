package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParticipants_WithAndWithoutWeight(t *testing.T) {
	weighted := uuid.New()
	unweighted := uuid.New()

	participants, err := parseParticipants([]string{
		weighted.String() + ":hiring_manager:2.5",
		unweighted.String() + ":technical",
	})
	require.NoError(t, err)
	require.Len(t, participants, 2)

	assert.Equal(t, weighted, participants[0].ID)
	assert.Equal(t, "hiring_manager", participants[0].Role)
	assert.Equal(t, 2.5, participants[0].Weight)

	// Omitted weight stays zero; the engine substitutes its default
	assert.Equal(t, "technical", participants[1].Role)
	assert.Equal(t, 0.0, participants[1].Weight)
}

func TestParseParticipants_RejectsMalformedSpecs(t *testing.T) {
	_, err := parseParticipants([]string{"not-a-uuid:technical"})
	assert.ErrorContains(t, err, "invalid participant UUID")

	_, err = parseParticipants([]string{uuid.New().String()})
	assert.ErrorContains(t, err, "expected uuid:role[:weight]")

	_, err = parseParticipants([]string{uuid.New().String() + ":technical:heavy"})
	assert.ErrorContains(t, err, "invalid participant weight")
}

func TestParseScores_ParsesCriterionPairs(t *testing.T) {
	scores, err := parseScores([]string{"technical=82.5", "communication=70"})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"technical": 82.5, "communication": 70}, scores)
}

func TestParseScores_RejectsMalformedPairs(t *testing.T) {
	_, err := parseScores([]string{"technical"})
	assert.ErrorContains(t, err, "expected criterion=value")

	_, err = parseScores([]string{"technical=great"})
	assert.ErrorContains(t, err, "invalid score value")
}

func TestParseExtensions_EmptyYieldsNil(t *testing.T) {
	extensions, err := parseExtensions(nil)
	require.NoError(t, err)
	assert.Nil(t, extensions)

	extensions, err = parseExtensions([]string{"panel_round=2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"panel_round": "2"}, extensions)
}

func TestParseUUIDs_RejectsInvalid(t *testing.T) {
	first, second := uuid.New(), uuid.New()

	ids, err := parseUUIDs([]string{first.String(), second.String()})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)

	_, err = parseUUIDs([]string{"nope"})
	assert.ErrorContains(t, err, "invalid UUID")
}

func TestStaticVerifier_SkipsMalformedIDs(t *testing.T) {
	reviewer := uuid.New()
	verifier := staticVerifier(map[string][]string{
		reviewer.String(): {"senior_reviewer", "ethics_board"},
		"not-a-uuid":      {"senior_reviewer"},
	})

	require.Len(t, verifier.Qualified, 1)
	assert.True(t, verifier.Qualified[reviewer]["ethics_board"])
}
