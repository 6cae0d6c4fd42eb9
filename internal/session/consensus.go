package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/hiring-panel/internal/audit"
	"github.com/jonathan/hiring-panel/internal/types"
)

// RequestConsensus aggregates the session's current evaluation set into a
// decision. Allowed from collecting, and from consensus_pending for Delphi
// sessions awaiting another round. On success the session moves to decided,
// or to escalated when the oversight gate vetoes autonomous standing; a
// non-converged Delphi round leaves it at consensus_pending. Consensus
// errors (insufficient evaluations, degenerate weights) leave the session
// state untouched.
func (e *Engine) RequestConsensus(ctx context.Context, sessionID, facilitatorID uuid.UUID, method types.ConsensusMethod) (*types.ConsensusResult, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, &ErrSessionNotFound{SessionID: sessionID}
	}
	delphiRetry := session.State == types.SessionConsensusPending && session.ConsensusMethod == types.MethodDelphi
	if session.State != types.SessionCollecting && !delphiRetry {
		return nil, &ErrSessionClosed{SessionID: sessionID, State: session.State}
	}

	if method == "" {
		method = session.ConsensusMethod
	}

	evals, err := e.store.ListEvaluations(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}

	result, err := e.consensus.Compute(session, evals, method)
	if err != nil {
		e.metrics.ConsensusFailed()
		return nil, err
	}

	if !delphiRetry {
		if _, err := e.recorder.Append(ctx, audit.Entry{
			Action:   "session.consensus_requested",
			Actor:    facilitatorID.String(),
			Resource: sessionResource(sessionID),
			Changes: map[string]any{
				"from":   string(types.SessionCollecting),
				"to":     string(types.SessionConsensusPending),
				"method": string(method),
			},
		}); err != nil {
			return nil, err
		}
		session.State = types.SessionConsensusPending
	}
	session.ConsensusMethod = method

	if !result.Converged {
		// Delphi round without convergence: stay at consensus_pending and
		// wait for resubmissions.
		if _, err := e.recorder.Append(ctx, audit.Entry{
			Action:   "session.delphi_round",
			Actor:    facilitatorID.String(),
			Resource: sessionResource(sessionID),
			Changes: map[string]any{
				"round":           result.Round,
				"agreement_level": result.AgreementLevel,
				"threshold_met":   false,
			},
		}); err != nil {
			return nil, err
		}
		session.DelphiRound = result.Round
		session.UpdatedAt = e.now()
		if err := e.commitConsensus(ctx, session, result); err != nil {
			return nil, err
		}
		e.metrics.ConsensusComputed(string(method))
		e.logger.Info("delphi round did not converge, awaiting resubmission",
			zap.String("session_id", sessionID.String()),
			zap.Int("round", result.Round),
			zap.Float64("agreement", result.AgreementLevel))
		return result, nil
	}

	// The gate consumes score dispersion as its confidence input: tightly
	// clustered reviewers make a stronger autonomous decision.
	target := types.SessionDecided
	var check types.OversightCheck
	if e.gate != nil {
		check = e.gate.RequiresOversight(session.SessionType, result.AgreementLevel, session.DecisionImpact)
		if check.Required {
			target = types.SessionEscalated
		}
	}

	action := "session.decided"
	changes := map[string]any{
		"from":            string(types.SessionConsensusPending),
		"to":              string(target),
		"method":          string(method),
		"aggregate_score": result.AggregateScore,
		"recommendation":  string(result.AggregateRecommendation),
		"agreement_level": result.AgreementLevel,
	}
	if target == types.SessionEscalated {
		action = "session.escalated"
		changes["oversight_reason"] = check.Reason
	}
	if _, err := e.recorder.Append(ctx, audit.Entry{
		Action:        action,
		Actor:         facilitatorID.String(),
		Resource:      sessionResource(sessionID),
		Changes:       changes,
		EthicalImpact: string(session.DecisionImpact),
	}); err != nil {
		return nil, err
	}

	session.State = target
	session.DelphiRound = result.Round
	session.UpdatedAt = e.now()
	if err := e.commitConsensus(ctx, session, result); err != nil {
		return nil, err
	}
	e.metrics.ConsensusComputed(string(method))

	if target == types.SessionEscalated {
		e.openOversight(ctx, session, check.Reason)
	}

	e.logger.Info("consensus computed",
		zap.String("session_id", sessionID.String()),
		zap.String("method", string(method)),
		zap.String("state", string(target)),
		zap.Float64("aggregate_score", result.AggregateScore))
	return result, nil
}

// commitConsensus persists the result and the session state together.
func (e *Engine) commitConsensus(ctx context.Context, session *types.EvaluationSession, result *types.ConsensusResult) error {
	if err := e.store.SaveConsensusResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save consensus result: %w", err)
	}
	if err := e.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// openOversight files an oversight request for an escalated session. A gate
// failure here is logged, not fatal: the session is already escalated and a
// request can be opened manually.
func (e *Engine) openOversight(ctx context.Context, session *types.EvaluationSession, reason string) {
	if e.gate == nil {
		return
	}
	req, err := e.gate.CreateRequest(ctx, session.ID, session.SessionType, session.DecisionImpact)
	if err != nil {
		e.logger.Error("failed to open oversight request for escalated session",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
		return
	}
	e.logger.Info("oversight request opened",
		zap.String("session_id", session.ID.String()),
		zap.String("request_id", req.ID.String()),
		zap.String("reason", reason))
}

// ResolveEscalation records the explicit human decision that closes an
// escalated session: escalated -> decided. The stored consensus result is
// updated with the signed-off recommendation.
func (e *Engine) ResolveEscalation(ctx context.Context, sessionID uuid.UUID, actor string, final types.Recommendation) error {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return &ErrSessionNotFound{SessionID: sessionID}
	}
	if session.State != types.SessionEscalated {
		return &ErrSessionClosed{SessionID: sessionID, State: session.State}
	}

	if _, err := e.recorder.Append(ctx, audit.Entry{
		Action:   "session.escalation_resolved",
		Actor:    actor,
		Resource: sessionResource(sessionID),
		Changes: map[string]any{
			"from":           string(types.SessionEscalated),
			"to":             string(types.SessionDecided),
			"recommendation": string(final),
		},
		EthicalImpact: string(session.DecisionImpact),
	}); err != nil {
		return err
	}

	session.State = types.SessionDecided
	session.UpdatedAt = e.now()

	result, err := e.store.GetConsensusResult(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load consensus result: %w", err)
	}
	if result != nil {
		result.AggregateRecommendation = final
		if err := e.store.SaveConsensusResult(ctx, result); err != nil {
			return fmt.Errorf("failed to save consensus result: %w", err)
		}
	}
	if err := e.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	e.logger.Info("escalation resolved",
		zap.String("session_id", sessionID.String()),
		zap.String("recommendation", string(final)))
	return nil
}
