package session

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-panel/internal/collab"
	"github.com/jonathan/hiring-panel/internal/store"
	"github.com/jonathan/hiring-panel/internal/types"
)

func submitRequest(score float64, rec types.Recommendation) *types.SubmitEvaluationRequest {
	return &types.SubmitEvaluationRequest{
		Scores:         map[string]float64{"technical": score},
		Recommendation: rec,
	}
}

func TestSubmitEvaluation_FirstSubmissionStartsCollecting(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p1, p2 := twoReviewers()
	created, err := env.engine.CreateSession(ctx, createRequest(p1, p2))
	require.NoError(t, err)

	eval, err := env.engine.SubmitEvaluation(ctx, created.ID, p1.ID, submitRequest(80, types.RecommendHire))
	require.NoError(t, err)

	// Omitted confidence defaults to full confidence
	assert.Equal(t, 1.0, eval.Confidence)

	loaded, err := env.engine.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionCollecting, loaded.State)

	entries, err := env.ledger.Entries(ctx, store.AuditFilter{Action: "session.collecting_started"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSubmitEvaluation_ResubmissionOverwrites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p1, p2 := twoReviewers()
	created, err := env.engine.CreateSession(ctx, createRequest(p1, p2))
	require.NoError(t, err)

	_, err = env.engine.SubmitEvaluation(ctx, created.ID, p1.ID, submitRequest(50, types.RecommendReject))
	require.NoError(t, err)
	_, err = env.engine.SubmitEvaluation(ctx, created.ID, p1.ID, submitRequest(85, types.RecommendHire))
	require.NoError(t, err)

	evals, err := env.engine.Evaluations(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, 85.0, evals[0].Scores["technical"])
	assert.Equal(t, types.RecommendHire, evals[0].Recommendation)
}

func TestSubmitEvaluation_UnknownParticipant(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p1, p2 := twoReviewers()
	created, err := env.engine.CreateSession(ctx, createRequest(p1, p2))
	require.NoError(t, err)

	_, err = env.engine.SubmitEvaluation(ctx, created.ID, uuid.New(), submitRequest(70, types.RecommendHire))

	var unknown *ErrUnknownParticipant
	require.ErrorAs(t, err, &unknown)
}

func TestSubmitEvaluation_RejectedAfterCancellation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p1, p2 := twoReviewers()
	created, err := env.engine.CreateSession(ctx, createRequest(p1, p2))
	require.NoError(t, err)
	require.NoError(t, env.engine.CancelSession(ctx, created.ID, "coordinator", "withdrawn"))

	_, err = env.engine.SubmitEvaluation(ctx, created.ID, p1.ID, submitRequest(70, types.RecommendHire))

	var closed *ErrSessionClosed
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, types.SessionCancelled, closed.State)
}

// stallingScorer blocks inside ScoreText until released, holding a
// submission between its initial validation and its commit.
type stallingScorer struct {
	entered chan struct{}
	release chan struct{}
}

func (s *stallingScorer) ScoreText(context.Context, string) (*collab.BiasScore, error) {
	close(s.entered)
	<-s.release
	return &collab.BiasScore{}, nil
}

func TestSubmitEvaluation_CancelledWhileScoringInFlight(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p1, p2 := twoReviewers()
	created, err := env.engine.CreateSession(ctx, createRequest(p1, p2))
	require.NoError(t, err)

	scorer := &stallingScorer{entered: make(chan struct{}), release: make(chan struct{})}
	env.engine.scorer = scorer

	req := submitRequest(70, types.RecommendHire)
	req.Comments = "Strong coding round."

	result := make(chan error, 1)
	go func() {
		_, err := env.engine.SubmitEvaluation(ctx, created.ID, p1.ID, req)
		result <- err
	}()
	<-scorer.entered

	// Cancel while the submission is parked in the scorer
	require.NoError(t, env.engine.CancelSession(ctx, created.ID, "coordinator", "withdrawn"))
	close(scorer.release)

	submitErr := <-result
	var closed *ErrSessionClosed
	require.ErrorAs(t, submitErr, &closed)
	assert.Equal(t, types.SessionCancelled, closed.State)

	// Nothing was committed for the cancelled session
	evals, err := env.engine.Evaluations(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, evals)
}

func TestSubmitEvaluation_RejectsOutOfRangeScore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p1, p2 := twoReviewers()
	created, err := env.engine.CreateSession(ctx, createRequest(p1, p2))
	require.NoError(t, err)

	_, err = env.engine.SubmitEvaluation(ctx, created.ID, p1.ID, submitRequest(150, types.RecommendHire))
	assert.ErrorContains(t, err, "invalid evaluation")
}

func TestSubmitEvaluation_RejectsNestedExtensions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p1, p2 := twoReviewers()
	created, err := env.engine.CreateSession(ctx, createRequest(p1, p2))
	require.NoError(t, err)

	req := submitRequest(70, types.RecommendHire)
	req.Extensions = map[string]any{"rubric": map[string]any{"depth": 3}}

	_, err = env.engine.SubmitEvaluation(ctx, created.ID, p1.ID, req)
	assert.ErrorContains(t, err, "invalid evaluation extensions")
}

func TestSubmitEvaluation_FlaggedCommentsRecordViolation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p1, p2 := twoReviewers()
	created, err := env.engine.CreateSession(ctx, createRequest(p1, p2))
	require.NoError(t, err)

	req := submitRequest(55, types.RecommendReject)
	req.Comments = "Not sure about the culture fit here."

	eval, err := env.engine.SubmitEvaluation(ctx, created.ID, p1.ID, req)
	require.NoError(t, err)

	require.NotNil(t, eval.BiasAnnotation)
	assert.Contains(t, eval.BiasAnnotation.FlaggedTerms, "culture fit")

	violations, err := env.ledger.Violations(ctx, store.ViolationFilter{Severity: types.SeverityMedium})
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, types.ViolationBiasDetected, violations[0].Type)
	assert.Contains(t, violations[0].AffectedEntities, "session/"+created.ID.String())
}

func TestSubmitEvaluation_CleanCommentsRecordNoViolation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p1, p2 := twoReviewers()
	created, err := env.engine.CreateSession(ctx, createRequest(p1, p2))
	require.NoError(t, err)

	req := submitRequest(75, types.RecommendHire)
	req.Comments = "Strong system design answers, clear communication."

	eval, err := env.engine.SubmitEvaluation(ctx, created.ID, p1.ID, req)
	require.NoError(t, err)

	require.NotNil(t, eval.BiasAnnotation)
	assert.Empty(t, eval.BiasAnnotation.FlaggedTerms)

	violations, err := env.ledger.Violations(ctx, store.ViolationFilter{})
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestSubmitEvaluation_ConcurrentSubmittersAllRecorded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	inputs := make([]types.ParticipantInput, 8)
	for i := range inputs {
		inputs[i] = types.ParticipantInput{ID: uuid.New(), Role: "engineer", Weight: 1.0}
	}
	created, err := env.engine.CreateSession(ctx, createRequest(inputs...))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, len(inputs))
	for i, p := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.engine.SubmitEvaluation(ctx, created.ID, p.ID, submitRequest(70, types.RecommendHire))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	evals, err := env.engine.Evaluations(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, evals, len(inputs))

	// Exactly one submission performed the open -> collecting transition
	entries, err := env.ledger.Entries(ctx, store.AuditFilter{Action: "session.collecting_started"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
