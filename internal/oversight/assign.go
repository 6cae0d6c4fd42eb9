package oversight

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/hiring-panel/internal/audit"
	"github.com/jonathan/hiring-panel/internal/types"
)

// verifyOutcome is the qualification result for one candidate reviewer
type verifyOutcome struct {
	qualified bool
	reason    string
}

// AssignReviewers checks each candidate independently for qualification and
// partitions them into assigned and rejected with per-rejection reasons.
// Verification runs concurrently and outside the request lock. The
// operation is non-fatal as long as at least one reviewer ends up assigned;
// otherwise it returns the partition together with ErrNoReviewersAssigned.
func (g *Gate) AssignReviewers(ctx context.Context, requestID uuid.UUID, candidates []uuid.UUID) (*types.AssignmentResult, error) {
	lock := g.requestLock(requestID)
	lock.Lock()
	req, err := g.store.GetRequest(ctx, requestID)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to load oversight request: %w", err)
	}
	if req == nil {
		lock.Unlock()
		return nil, &ErrRequestNotFound{RequestID: requestID}
	}
	if req.Status.IsFinal() {
		status := req.Status
		lock.Unlock()
		return nil, &ErrRequestClosed{RequestID: requestID, Status: status}
	}
	qualifications := append([]string(nil), req.RequiredQualifications...)
	lock.Unlock()

	// Qualification checks call out to the verifier and must not hold the
	// request lock. Each candidate is checked independently; verifier
	// failures fail closed and become rejection reasons, never hard errors.
	outcomes := make([]verifyOutcome, len(candidates))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, candidate := range candidates {
		group.Go(func() error {
			outcomes[i] = g.verifyCandidate(groupCtx, candidate, qualifications)
			return nil
		})
	}
	_ = group.Wait() // goroutines report through outcomes, never errors

	lock.Lock()
	defer lock.Unlock()

	// Reload: the request may have escalated or completed while the
	// verifier ran.
	req, err = g.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload oversight request: %w", err)
	}
	if req == nil {
		return nil, &ErrRequestNotFound{RequestID: requestID}
	}
	if req.Status.IsFinal() {
		return nil, &ErrRequestClosed{RequestID: requestID, Status: req.Status}
	}

	result := &types.AssignmentResult{}
	for i, candidate := range candidates {
		if req.IsAssigned(candidate) {
			result.Rejected = append(result.Rejected, types.RejectedReviewer{
				ReviewerID: candidate,
				Reason:     "already assigned",
			})
			continue
		}
		if !outcomes[i].qualified {
			result.Rejected = append(result.Rejected, types.RejectedReviewer{
				ReviewerID: candidate,
				Reason:     outcomes[i].reason,
			})
			continue
		}
		req.AssignedReviewers = append(req.AssignedReviewers, candidate)
		result.Assigned = append(result.Assigned, candidate)
	}

	if len(req.AssignedReviewers) == 0 {
		return result, &ErrNoReviewersAssigned{RequestID: requestID}
	}

	if req.Status == types.OversightPending {
		if _, err := g.recorder.Append(ctx, audit.Entry{
			Action:   "oversight.review_started",
			Actor:    "system",
			Resource: requestResource(requestID),
			Changes: map[string]any{
				"from":     string(types.OversightPending),
				"to":       string(types.OversightInReview),
				"assigned": len(req.AssignedReviewers),
			},
		}); err != nil {
			return nil, err
		}
		req.Status = types.OversightInReview
	}
	req.UpdatedAt = g.now()
	if err := g.store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save oversight request: %w", err)
	}

	g.logger.Info("reviewers assigned",
		zap.String("request_id", requestID.String()),
		zap.Int("assigned", len(result.Assigned)),
		zap.Int("rejected", len(result.Rejected)))
	return result, nil
}

// verifyCandidate checks one candidate against every required
// qualification. A verification failure fails closed: the candidate is
// treated as not qualified.
func (g *Gate) verifyCandidate(ctx context.Context, candidate uuid.UUID, qualifications []string) verifyOutcome {
	if g.verifier == nil {
		return verifyOutcome{reason: "no qualification verifier configured"}
	}
	for _, qualification := range qualifications {
		verification, err := g.verifier.Verify(ctx, candidate, qualification)
		if err != nil {
			unverifiable := &ErrQualificationUnverifiable{
				ReviewerID:    candidate,
				Qualification: qualification,
				Cause:         err,
			}
			g.logger.Warn("qualification check failed closed", zap.Error(unverifiable))
			return verifyOutcome{reason: unverifiable.Error()}
		}
		if !verification.Verified {
			return verifyOutcome{reason: fmt.Sprintf("missing qualification %q", qualification)}
		}
		if verification.ExpiresAt != nil && verification.ExpiresAt.Before(g.now()) {
			return verifyOutcome{reason: fmt.Sprintf("qualification %q expired at %s", qualification, verification.ExpiresAt.Format("2006-01-02"))}
		}
	}
	return verifyOutcome{qualified: true}
}
