package oversight

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-panel/internal/store"
	"github.com/jonathan/hiring-panel/internal/types"
)

// inReviewRequest creates a request with two qualified assigned reviewers.
func inReviewRequest(t *testing.T, env *gateEnv) (*types.OversightRequest, uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	req, err := env.gate.CreateRequest(ctx, uuid.New(), "final_decision", types.ImpactHigh)
	require.NoError(t, err)

	r1, r2 := uuid.New(), uuid.New()
	env.qualify(r1)
	env.qualify(r2)
	_, err = env.gate.AssignReviewers(ctx, req.ID, []uuid.UUID{r1, r2})
	require.NoError(t, err)
	return req, r1, r2
}

func TestSubmitDecision_CompletesAtRequiredResponses(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, r1, r2 := inReviewRequest(t, env)

	partial, err := env.gate.SubmitDecision(ctx, req.ID, r1, types.RecommendHire, "solid")
	require.NoError(t, err)
	assert.Equal(t, types.OversightInReview, partial.Status)
	assert.Nil(t, partial.CompletedAt)

	complete, err := env.gate.SubmitDecision(ctx, req.ID, r2, types.RecommendHire, "agree")
	require.NoError(t, err)
	assert.Equal(t, types.OversightCompleted, complete.Status)
	assert.Equal(t, types.RecommendHire, complete.FinalDecision)
	require.NotNil(t, complete.CompletedAt)

	entries, err := env.ledger.Entries(ctx, store.AuditFilter{Action: "oversight.completed"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSubmitDecision_TieBreaksByAssignmentOrder(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, r1, r2 := inReviewRequest(t, env)

	_, err := env.gate.SubmitDecision(ctx, req.ID, r2, types.RecommendReject, "")
	require.NoError(t, err)
	complete, err := env.gate.SubmitDecision(ctx, req.ID, r1, types.RecommendHire, "")
	require.NoError(t, err)

	// r1 was assigned first, so its verdict wins the 1-1 tie regardless of
	// submission order
	assert.Equal(t, types.RecommendHire, complete.FinalDecision)
}

func TestSubmitDecision_OverwriteBeforeCompletion(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, r1, _ := inReviewRequest(t, env)

	_, err := env.gate.SubmitDecision(ctx, req.ID, r1, types.RecommendHire, "first take")
	require.NoError(t, err)
	updated, err := env.gate.SubmitDecision(ctx, req.ID, r1, types.RecommendReject, "changed my mind")
	require.NoError(t, err)

	// One reviewer, one response; the request is still waiting on the other
	assert.Equal(t, types.OversightInReview, updated.Status)
	require.Len(t, updated.Responses, 1)
	assert.Equal(t, types.RecommendReject, updated.Responses[r1].Verdict)
}

func TestSubmitDecision_RejectsUnassignedReviewer(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, _, _ := inReviewRequest(t, env)

	_, err := env.gate.SubmitDecision(ctx, req.ID, uuid.New(), types.RecommendHire, "")

	var notAssigned *ErrNotAssigned
	require.ErrorAs(t, err, &notAssigned)
}

func TestSubmitDecision_RejectsCompletedRequest(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, r1, r2 := inReviewRequest(t, env)
	_, err := env.gate.SubmitDecision(ctx, req.ID, r1, types.RecommendHire, "")
	require.NoError(t, err)
	_, err = env.gate.SubmitDecision(ctx, req.ID, r2, types.RecommendHire, "")
	require.NoError(t, err)

	_, err = env.gate.SubmitDecision(ctx, req.ID, r1, types.RecommendReject, "too late")

	var closed *ErrRequestClosed
	require.ErrorAs(t, err, &closed)
}

func TestSubmitDecision_LateVerdictEscalatesFirst(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, r1, _ := inReviewRequest(t, env)

	// Jump past the escalation deadline
	env.gate.now = func() time.Time { return req.Timeline.EscalationDeadline.Add(time.Hour) }

	_, err := env.gate.SubmitDecision(ctx, req.ID, r1, types.RecommendHire, "")

	var closed *ErrRequestClosed
	require.ErrorAs(t, err, &closed)

	loaded, getErr := env.gate.GetRequest(ctx, req.ID)
	require.NoError(t, getErr)
	assert.Equal(t, types.OversightEscalated, loaded.Status)

	// The breach recorded a high-severity violation
	violations, err := env.ledger.Violations(ctx, store.ViolationFilter{Severity: types.SeverityHigh})
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, types.ViolationDeadlineBreach, violations[0].Type)
}

func TestHandleEscalation_Idempotent(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, _, _ := inReviewRequest(t, env)
	env.gate.now = func() time.Time { return req.Timeline.EscalationDeadline.Add(time.Hour) }

	require.NoError(t, env.gate.HandleEscalation(ctx, req.ID))
	require.NoError(t, env.gate.HandleEscalation(ctx, req.ID))

	entries, err := env.ledger.Entries(ctx, store.AuditFilter{Action: "oversight.deadline_breached"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHandleEscalation_ConcurrentCallsEscalateOnce(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, _, _ := inReviewRequest(t, env)
	env.gate.now = func() time.Time { return req.Timeline.EscalationDeadline.Add(time.Hour) }

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = env.gate.HandleEscalation(ctx, req.ID)
		}()
	}
	wg.Wait()

	entries, err := env.ledger.Entries(ctx, store.AuditFilter{Action: "oversight.deadline_breached"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// stallingNotifier blocks inside Notify until released, exposing work done
// while a notification is in flight.
type stallingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n *stallingNotifier) Notify(context.Context, string, map[string]any) error {
	close(n.entered)
	<-n.release
	return nil
}

func TestHandleEscalation_NotificationDoesNotHoldRequestLock(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, _, _ := inReviewRequest(t, env)
	env.gate.now = func() time.Time { return req.Timeline.EscalationDeadline.Add(time.Hour) }

	notifier := &stallingNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	env.gate.notifier = notifier

	first := make(chan error, 1)
	go func() { first <- env.gate.HandleEscalation(ctx, req.ID) }()
	<-notifier.entered

	// The transition committed before the notification went out
	loaded, err := env.gate.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OversightEscalated, loaded.Status)

	// A second escalation for the same request must not queue behind the
	// stalled notifier; it sees the final status and returns immediately
	second := make(chan error, 1)
	go func() { second <- env.gate.HandleEscalation(ctx, req.ID) }()
	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("escalation blocked behind notification dispatch")
	}

	close(notifier.release)
	require.NoError(t, <-first)
}

func TestHandleEscalation_NotDueIsNoOp(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, _, _ := inReviewRequest(t, env)

	require.NoError(t, env.gate.HandleEscalation(ctx, req.ID))

	loaded, err := env.gate.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OversightInReview, loaded.Status)
}

func TestHandleEscalation_UnassignedPendingExpires(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	req, err := env.gate.CreateRequest(ctx, uuid.New(), "final_decision", types.ImpactHigh)
	require.NoError(t, err)
	env.gate.now = func() time.Time { return req.Timeline.EscalationDeadline.Add(time.Hour) }

	require.NoError(t, env.gate.HandleEscalation(ctx, req.ID))

	loaded, err := env.gate.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	// Nobody was ever assigned: the request expires instead of escalating
	assert.Equal(t, types.OversightExpired, loaded.Status)
}

func TestSweepExpired_TransitionsDueRequests(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)

	overdueAssigned, _, _ := inReviewRequest(t, env)
	overdueUnassigned, err := env.gate.CreateRequest(ctx, uuid.New(), "final_decision", types.ImpactHigh)
	require.NoError(t, err)

	// The sweep runs past both escalation deadlines
	env.gate.now = func() time.Time {
		return overdueUnassigned.Timeline.EscalationDeadline.Add(time.Hour)
	}

	transitioned, err := env.gate.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, transitioned)

	escalated, err := env.gate.GetRequest(ctx, overdueAssigned.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OversightEscalated, escalated.Status)

	expired, err := env.gate.GetRequest(ctx, overdueUnassigned.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OversightExpired, expired.Status)

	// A second sweep finds nothing left to transition
	again, err := env.gate.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again)
}
