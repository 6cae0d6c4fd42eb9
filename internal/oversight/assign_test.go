package oversight

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-panel/internal/collab"
	"github.com/jonathan/hiring-panel/internal/store"
	"github.com/jonathan/hiring-panel/internal/types"
)

// failingVerifier simulates an unreachable verification service.
type failingVerifier struct{ err error }

func (v *failingVerifier) Verify(_ context.Context, _ uuid.UUID, _ string) (*collab.Verification, error) {
	return nil, v.err
}

func TestAssignReviewers_PartitionsByQualification(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, err := env.gate.CreateRequest(ctx, uuid.New(), "final_decision", types.ImpactHigh)
	require.NoError(t, err)

	qualified := uuid.New()
	unqualified := uuid.New()
	env.qualify(qualified)

	result, err := env.gate.AssignReviewers(ctx, req.ID, []uuid.UUID{qualified, unqualified})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{qualified}, result.Assigned)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, unqualified, result.Rejected[0].ReviewerID)
	assert.Contains(t, result.Rejected[0].Reason, "missing qualification")

	loaded, err := env.gate.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OversightInReview, loaded.Status)
	assert.Equal(t, []uuid.UUID{qualified}, loaded.AssignedReviewers)

	entries, err := env.ledger.Entries(ctx, store.AuditFilter{Action: "oversight.review_started"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAssignReviewers_FailsClosedOnVerifierError(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	env.gate.verifier = &failingVerifier{err: errors.New("registry unreachable")}
	req, err := env.gate.CreateRequest(ctx, uuid.New(), "final_decision", types.ImpactHigh)
	require.NoError(t, err)

	candidate := uuid.New()
	result, err := env.gate.AssignReviewers(ctx, req.ID, []uuid.UUID{candidate})

	// Verification failure rejects the candidate instead of erroring out
	var none *ErrNoReviewersAssigned
	require.ErrorAs(t, err, &none)
	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0].Reason, "unverifiable")

	loaded, getErr := env.gate.GetRequest(ctx, req.ID)
	require.NoError(t, getErr)
	assert.Equal(t, types.OversightPending, loaded.Status)
	assert.Empty(t, loaded.AssignedReviewers)
}

func TestAssignReviewers_AlreadyAssignedRejected(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, err := env.gate.CreateRequest(ctx, uuid.New(), "final_decision", types.ImpactHigh)
	require.NoError(t, err)

	reviewer := uuid.New()
	env.qualify(reviewer)

	_, err = env.gate.AssignReviewers(ctx, req.ID, []uuid.UUID{reviewer})
	require.NoError(t, err)

	result, err := env.gate.AssignReviewers(ctx, req.ID, []uuid.UUID{reviewer})
	require.NoError(t, err)
	assert.Empty(t, result.Assigned)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "already assigned", result.Rejected[0].Reason)

	loaded, err := env.gate.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.AssignedReviewers, 1)
}

func TestAssignReviewers_RequestNotFound(t *testing.T) {
	env := newGateEnv(t)

	_, err := env.gate.AssignReviewers(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})

	var notFound *ErrRequestNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestAssignReviewers_RejectedWhenFinal(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, err := env.gate.CreateRequest(ctx, uuid.New(), "final_decision", types.ImpactHigh)
	require.NoError(t, err)

	r1, r2 := uuid.New(), uuid.New()
	env.qualify(r1)
	env.qualify(r2)
	_, err = env.gate.AssignReviewers(ctx, req.ID, []uuid.UUID{r1, r2})
	require.NoError(t, err)
	_, err = env.gate.SubmitDecision(ctx, req.ID, r1, types.RecommendHire, "")
	require.NoError(t, err)
	_, err = env.gate.SubmitDecision(ctx, req.ID, r2, types.RecommendHire, "")
	require.NoError(t, err)

	_, err = env.gate.AssignReviewers(ctx, req.ID, []uuid.UUID{uuid.New()})

	var closed *ErrRequestClosed
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, types.OversightCompleted, closed.Status)
}
