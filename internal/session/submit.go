package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/hiring-panel/internal/audit"
	"github.com/jonathan/hiring-panel/internal/schemas"
	"github.com/jonathan/hiring-panel/internal/types"
)

// SubmitEvaluation records one participant's scorecard. The first
// submission moves the session from open to collecting; resubmission while
// still collecting replaces the participant's earlier evaluation. Rejected
// with ErrSessionClosed once the session is past collecting and with
// ErrUnknownParticipant when the submitter is not on the roster.
//
// Comment text is annotated by the external bias scorer outside the session
// lock; the session is revalidated before commit so a concurrent
// cancellation still wins.
func (e *Engine) SubmitEvaluation(ctx context.Context, sessionID, participantID uuid.UUID, req *types.SubmitEvaluationRequest) (*types.Evaluation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid evaluation: %w", err)
	}
	if err := schemas.ValidateExtensions(req.Extensions); err != nil {
		return nil, fmt.Errorf("invalid evaluation extensions: %w", err)
	}

	lock := e.sessionLock(sessionID)
	lock.Lock()
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		lock.Unlock()
		return nil, &ErrSessionNotFound{SessionID: sessionID}
	}
	if !acceptsSubmission(session) {
		state := session.State
		lock.Unlock()
		return nil, &ErrSessionClosed{SessionID: sessionID, State: state}
	}
	if !session.HasParticipant(participantID) {
		lock.Unlock()
		return nil, &ErrUnknownParticipant{SessionID: sessionID, ParticipantID: participantID}
	}
	lock.Unlock()

	// Bias scoring calls out to a collaborator and must not hold the
	// session lock.
	annotation := e.scoreComments(ctx, req.Comments)

	lock.Lock()
	defer lock.Unlock()

	// Revalidate: the session may have been cancelled or advanced while the
	// scorer ran.
	session, err = e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload session: %w", err)
	}
	if session == nil {
		return nil, &ErrSessionNotFound{SessionID: sessionID}
	}
	if !acceptsSubmission(session) {
		return nil, &ErrSessionClosed{SessionID: sessionID, State: session.State}
	}
	if !session.HasParticipant(participantID) {
		return nil, &ErrUnknownParticipant{SessionID: sessionID, ParticipantID: participantID}
	}

	if session.State == types.SessionOpen {
		if _, err := e.recorder.Append(ctx, audit.Entry{
			Action:   "session.collecting_started",
			Actor:    participantID.String(),
			Resource: sessionResource(sessionID),
			Changes: map[string]any{
				"from": string(types.SessionOpen),
				"to":   string(types.SessionCollecting),
			},
		}); err != nil {
			return nil, err
		}
		session.State = types.SessionCollecting
		session.UpdatedAt = e.now()
		if err := e.store.SaveSession(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	eval := &types.Evaluation{
		SessionID:      sessionID,
		ParticipantID:  participantID,
		Scores:         req.Scores,
		Recommendation: req.Recommendation,
		Confidence:     req.EffectiveConfidence(),
		Comments:       req.Comments,
		BiasAnnotation: annotation,
		Extensions:     req.Extensions,
		SubmittedAt:    e.now(),
	}
	if err := e.store.SaveEvaluation(ctx, eval); err != nil {
		return nil, fmt.Errorf("failed to save evaluation: %w", err)
	}

	e.metrics.EvaluationSubmitted()
	e.recordBiasViolation(ctx, sessionID, participantID, annotation)
	return eval, nil
}

// scoreComments annotates comment text via the bias scorer. Scorer failures
// degrade gracefully: the evaluation proceeds without an annotation.
func (e *Engine) scoreComments(ctx context.Context, comments string) *types.BiasAnnotation {
	if e.scorer == nil || comments == "" {
		return nil
	}
	score, err := e.scorer.ScoreText(ctx, comments)
	if err != nil {
		e.logger.Warn("bias scoring failed, continuing without annotation", zap.Error(err))
		return nil
	}
	return &types.BiasAnnotation{Score: score.Score, FlaggedTerms: score.FlaggedTerms}
}

// recordBiasViolation files a violation when the scorer flagged terms in the
// submitted comments. Recording failures are logged, never fatal to the
// submission.
func (e *Engine) recordBiasViolation(ctx context.Context, sessionID, participantID uuid.UUID, annotation *types.BiasAnnotation) {
	if annotation == nil || len(annotation.FlaggedTerms) == 0 {
		return
	}
	description := fmt.Sprintf("bias scorer flagged %d term(s) in evaluation comments", len(annotation.FlaggedTerms))
	entities := []string{sessionResource(sessionID), "participant/" + participantID.String()}
	if _, err := e.recorder.RecordViolation(ctx, types.ViolationBiasDetected, description, types.SeverityMedium, entities); err != nil {
		e.logger.Warn("failed to record bias violation",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		return
	}
	e.metrics.ViolationRecorded(string(types.SeverityMedium))
}
