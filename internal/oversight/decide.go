package oversight

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/hiring-panel/internal/audit"
	"github.com/jonathan/hiring-panel/internal/consensus"
	"github.com/jonathan/hiring-panel/internal/types"
)

// SubmitDecision records one assigned reviewer's verdict. The completion
// check runs under the request lock, so two final responses arriving
// together cannot both finalize the request. On completion the final
// decision derives from the reviewer verdicts through the same majority
// primitive the consensus engine uses, with assignment order breaking ties.
func (g *Gate) SubmitDecision(ctx context.Context, requestID, reviewerID uuid.UUID, verdict types.Recommendation, comments string) (*types.OversightRequest, error) {
	lock := g.requestLock(requestID)
	lock.Lock()
	req, breached, err := g.submitDecisionLocked(ctx, requestID, reviewerID, verdict, comments)
	lock.Unlock()

	if breached != nil {
		g.dispatchBreach(ctx, breached)
	}
	return req, err
}

// submitDecisionLocked is the under-lock core of SubmitDecision. When the
// lazy deadline check escalates the request, the committed request is
// returned as breached so the caller can dispatch the collaborator side
// effects after releasing the lock.
func (g *Gate) submitDecisionLocked(ctx context.Context, requestID, reviewerID uuid.UUID, verdict types.Recommendation, comments string) (*types.OversightRequest, *types.OversightRequest, error) {
	req, err := g.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load oversight request: %w", err)
	}
	if req == nil {
		return nil, nil, &ErrRequestNotFound{RequestID: requestID}
	}

	// Lazy deadline check: a request past its escalation deadline
	// escalates here rather than accepting a late verdict.
	if g.escalateLocked(ctx, req) {
		if err := g.store.SaveRequest(ctx, req); err != nil {
			return nil, nil, fmt.Errorf("failed to save escalated request: %w", err)
		}
		return nil, req, &ErrRequestClosed{RequestID: requestID, Status: req.Status}
	}
	if req.Status.IsFinal() {
		return nil, nil, &ErrRequestClosed{RequestID: requestID, Status: req.Status}
	}
	if !req.IsAssigned(reviewerID) {
		return nil, nil, &ErrNotAssigned{RequestID: requestID, ReviewerID: reviewerID}
	}

	if req.Responses == nil {
		req.Responses = make(map[uuid.UUID]types.ReviewerDecision)
	}
	req.Responses[reviewerID] = types.ReviewerDecision{
		ReviewerID:  reviewerID,
		Verdict:     verdict,
		Comments:    comments,
		SubmittedAt: g.now(),
	}

	if req.ResponsesComplete() {
		votes := make(map[uuid.UUID]types.Recommendation, len(req.Responses))
		for id, decision := range req.Responses {
			votes[id] = decision.Verdict
		}
		final := consensus.MajorityVerdict(req.AssignedReviewers, votes)

		if _, err := g.recorder.Append(ctx, audit.Entry{
			Action:   "oversight.completed",
			Actor:    reviewerID.String(),
			Resource: requestResource(requestID),
			Changes: map[string]any{
				"from":           string(req.Status),
				"to":             string(types.OversightCompleted),
				"responses":      len(req.Responses),
				"final_decision": string(final),
			},
			EthicalImpact: string(req.Impact),
		}); err != nil {
			return nil, nil, err
		}

		completedAt := g.now()
		req.Status = types.OversightCompleted
		req.FinalDecision = final
		req.CompletedAt = &completedAt
	}

	req.UpdatedAt = g.now()
	if err := g.store.SaveRequest(ctx, req); err != nil {
		return nil, nil, fmt.Errorf("failed to save oversight request: %w", err)
	}

	g.logger.Info("reviewer decision recorded",
		zap.String("request_id", requestID.String()),
		zap.String("reviewer_id", reviewerID.String()),
		zap.String("status", string(req.Status)))
	return req, nil, nil
}

// HandleEscalation applies the deadline-breach transition if it is due.
// Idempotent: the periodic sweep and the lazy on-access check may race, and
// applying it twice has the same effect as once. Escalation never
// auto-approves or auto-rejects; a subsequent explicit decision is always
// required. The violation alert and pool notification dispatch after the
// state is committed and the request lock released, so a slow collaborator
// never blocks other operations on the request.
func (g *Gate) HandleEscalation(ctx context.Context, requestID uuid.UUID) error {
	lock := g.requestLock(requestID)
	lock.Lock()

	req, err := g.store.GetRequest(ctx, requestID)
	if err != nil {
		lock.Unlock()
		return fmt.Errorf("failed to load oversight request: %w", err)
	}
	if req == nil {
		lock.Unlock()
		return &ErrRequestNotFound{RequestID: requestID}
	}

	if !g.escalateLocked(ctx, req) {
		lock.Unlock()
		return nil
	}
	if err := g.store.SaveRequest(ctx, req); err != nil {
		lock.Unlock()
		return fmt.Errorf("failed to save escalated request: %w", err)
	}
	lock.Unlock()

	g.dispatchBreach(ctx, req)
	return nil
}

// escalateLocked applies the deadline transition to the in-memory request
// if due, returning whether a transition happened. Callers hold the request
// lock and are responsible for saving the request and then dispatching the
// breach side effects through dispatchBreach once the lock is released.
// Requests that never left pending expire; requests with assigned reviewers
// escalate.
func (g *Gate) escalateLocked(ctx context.Context, req *types.OversightRequest) bool {
	if req.Status.IsFinal() {
		return false
	}
	if !g.now().After(req.Timeline.EscalationDeadline) {
		return false
	}
	if req.ResponsesComplete() {
		return false
	}

	target := types.OversightEscalated
	if req.Status == types.OversightPending && len(req.AssignedReviewers) == 0 {
		target = types.OversightExpired
	}

	if _, err := g.recorder.Append(ctx, audit.Entry{
		Action:   "oversight.deadline_breached",
		Actor:    "system",
		Resource: requestResource(req.ID),
		Changes: map[string]any{
			"from":      string(req.Status),
			"to":        string(target),
			"deadline":  req.Timeline.EscalationDeadline,
			"responses": len(req.Responses),
			"required":  req.RequiredReviewers,
		},
		EthicalImpact: string(req.Impact),
	}); err != nil {
		g.logger.Error("failed to audit deadline breach, transition aborted",
			zap.String("request_id", req.ID.String()),
			zap.Error(err))
		return false
	}

	req.Status = target
	req.UpdatedAt = g.now()
	g.metrics.OversightEscalated()
	return true
}

// dispatchBreach runs the collaborator side of a committed deadline breach:
// the high-severity violation record with its alert, and the wider
// reviewer-pool notification. Called without the request lock held; both
// dispatches are fire-and-forget and a failure never unwinds the breach.
func (g *Gate) dispatchBreach(ctx context.Context, req *types.OversightRequest) {
	description := fmt.Sprintf("oversight request %s breached its escalation deadline with %d of %d responses",
		req.ID, len(req.Responses), req.RequiredReviewers)
	if _, err := g.recorder.RecordViolation(ctx, types.ViolationDeadlineBreach, description, types.SeverityHigh,
		[]string{requestResource(req.ID), "decision/" + req.DecisionID.String()}); err != nil {
		g.logger.Warn("failed to record deadline-breach violation",
			zap.String("request_id", req.ID.String()),
			zap.Error(err))
	} else {
		g.metrics.ViolationRecorded(string(types.SeverityHigh))
	}

	if g.notifier == nil || req.Status != types.OversightEscalated {
		return
	}
	payload := map[string]any{
		"request_id":  req.ID.String(),
		"decision_id": req.DecisionID.String(),
		"scenario":    req.Scenario,
		"impact":      string(req.Impact),
		"responses":   len(req.Responses),
		"required":    req.RequiredReviewers,
	}
	if err := g.notifier.Notify(ctx, g.cfg.EscalationNotifyChannel, payload); err != nil {
		g.logger.Warn("escalation notification failed",
			zap.String("request_id", req.ID.String()),
			zap.Error(err))
	}
}

// SweepExpired runs the deadline check across every unfinished request whose
// escalation deadline has passed. Returns the number of requests that
// transitioned. Intended for periodic invocation; safe to run concurrently
// with on-access checks because escalation is idempotent.
func (g *Gate) SweepExpired(ctx context.Context) (int, error) {
	due, err := g.store.ListUnfinishedBefore(ctx, g.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list unfinished requests: %w", err)
	}

	transitioned := 0
	for _, req := range due {
		before := req.Status
		if err := g.HandleEscalation(ctx, req.ID); err != nil {
			g.logger.Warn("escalation sweep failed for request",
				zap.String("request_id", req.ID.String()),
				zap.Error(err))
			continue
		}
		after, err := g.store.GetRequest(ctx, req.ID)
		if err != nil || after == nil {
			continue
		}
		if after.Status != before {
			transitioned++
		}
	}
	return transitioned, nil
}
