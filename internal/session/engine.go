// Package session owns the lifecycle of multi-reviewer evaluation sessions:
// open -> collecting -> consensus_pending -> {decided | escalated}, with
// cancellation allowed from any non-terminal state. Mutating operations are
// serialized per session; distinct sessions proceed fully in parallel.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/hiring-panel/internal/audit"
	"github.com/jonathan/hiring-panel/internal/collab"
	"github.com/jonathan/hiring-panel/internal/config"
	"github.com/jonathan/hiring-panel/internal/consensus"
	"github.com/jonathan/hiring-panel/internal/metrics"
	"github.com/jonathan/hiring-panel/internal/store"
	"github.com/jonathan/hiring-panel/internal/types"
)

// minParticipants is the smallest roster a session may be created with
const minParticipants = 2

// Recorder is the slice of the audit ledger the engine needs. Every state
// transition appends exactly one entry; a failed append aborts the
// transition.
type Recorder interface {
	Append(ctx context.Context, in audit.Entry) (string, error)
	RecordViolation(ctx context.Context, violationType, description string, severity types.Severity, affectedEntities []string) (*types.ViolationRecord, error)
}

// OversightPolicy decides whether a consensus outcome may stand autonomously
// and opens an oversight request when it may not.
type OversightPolicy interface {
	RequiresOversight(scenario string, aiConfidence float64, impact types.DecisionImpact) types.OversightCheck
	CreateRequest(ctx context.Context, decisionID uuid.UUID, scenario string, impact types.DecisionImpact) (*types.OversightRequest, error)
}

// Deps wires the engine's collaborators. Store, Recorder and Consensus are
// required; Gate, Scorer and Metrics are optional.
type Deps struct {
	Store     store.SessionStore
	Recorder  Recorder
	Consensus *consensus.Engine
	Gate      OversightPolicy
	Scorer    collab.BiasScorer
	Metrics   *metrics.Manager
	Timeline  config.TimelineConfig
	Logger    *zap.Logger
}

// Engine is the session state machine.
type Engine struct {
	store     store.SessionStore
	recorder  Recorder
	consensus *consensus.Engine
	gate      OversightPolicy
	scorer    collab.BiasScorer
	metrics   *metrics.Manager
	timeline  config.TimelineConfig
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewEngine creates a session engine with the given dependencies.
func NewEngine(deps Deps) *Engine {
	return &Engine{
		store:     deps.Store,
		recorder:  deps.Recorder,
		consensus: deps.Consensus,
		gate:      deps.Gate,
		scorer:    deps.Scorer,
		metrics:   deps.Metrics,
		timeline:  deps.Timeline,
		logger:    deps.Logger,
		now:       time.Now,
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing mutations of one session.
func (e *Engine) sessionLock(id uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	if lock, ok := e.locks[id]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	e.locks[id] = lock
	return lock
}

// sessionResource names a session in audit entries
func sessionResource(id uuid.UUID) string {
	return fmt.Sprintf("session/%s", id)
}

// CreateSession creates a new evaluation session in the open state. The
// deadline derives from the configured review-timeline policy for the
// session type. Fails with ErrInvalidParticipantCount when the roster has
// fewer than two distinct participants.
func (e *Engine) CreateSession(ctx context.Context, req *types.CreateSessionRequest) (*types.EvaluationSession, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid create session request: %w", err)
	}
	if len(req.Participants) < minParticipants {
		return nil, &ErrInvalidParticipantCount{Got: len(req.Participants)}
	}

	seen := make(map[uuid.UUID]bool, len(req.Participants))
	participants := make([]types.Participant, 0, len(req.Participants))
	for _, p := range req.Participants {
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate participant: %s", p.ID)
		}
		seen[p.ID] = true
		weight := p.Weight
		if weight == 0 {
			weight = 1.0
		}
		participants = append(participants, types.Participant{ID: p.ID, Role: p.Role, Weight: weight})
	}

	impact := req.DecisionImpact
	if impact == "" {
		impact = types.ImpactMedium
	}

	now := e.now()
	session := &types.EvaluationSession{
		ID:              uuid.New(),
		CandidateID:     req.CandidateID,
		JobID:           req.JobID,
		SessionType:     req.SessionType,
		Participants:    participants,
		State:           types.SessionOpen,
		ConsensusMethod: req.ConsensusMethod,
		DecisionImpact:  impact,
		CreatedAt:       now,
		DeadlineAt:      now.Add(e.timeline.SessionDeadline(req.SessionType)),
		UpdatedAt:       now,
	}

	if _, err := e.recorder.Append(ctx, audit.Entry{
		Action:   "session.created",
		Actor:    "system",
		Resource: sessionResource(session.ID),
		Changes: map[string]any{
			"state":            string(types.SessionOpen),
			"session_type":     session.SessionType,
			"consensus_method": string(session.ConsensusMethod),
			"participants":     len(session.Participants),
		},
	}); err != nil {
		return nil, err
	}
	if err := e.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	e.metrics.SessionCreated()
	e.logger.Info("session created",
		zap.String("session_id", session.ID.String()),
		zap.String("session_type", session.SessionType),
		zap.Int("participants", len(session.Participants)))
	return session, nil
}

// CancelSession cancels a session from any non-terminal state. Further
// evaluation submissions are rejected immediately and any pending consensus
// computation for the session is discarded; already-appended audit entries
// stand.
func (e *Engine) CancelSession(ctx context.Context, sessionID uuid.UUID, actor, reason string) error {
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
	if session.IsTerminal() {
		return &ErrSessionClosed{SessionID: sessionID, State: session.State}
	}

	if _, err := e.recorder.Append(ctx, audit.Entry{
		Action:   "session.cancelled",
		Actor:    actor,
		Resource: sessionResource(sessionID),
		Changes: map[string]any{
			"from":   string(session.State),
			"to":     string(types.SessionCancelled),
			"reason": reason,
		},
	}); err != nil {
		return err
	}

	session.State = types.SessionCancelled
	session.CancelReason = reason
	session.UpdatedAt = e.now()
	if err := e.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save cancelled session: %w", err)
	}

	e.logger.Info("session cancelled",
		zap.String("session_id", sessionID.String()),
		zap.String("reason", reason))
	return nil
}

// GetSession returns the session, or ErrSessionNotFound.
func (e *Engine) GetSession(ctx context.Context, sessionID uuid.UUID) (*types.EvaluationSession, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, &ErrSessionNotFound{SessionID: sessionID}
	}
	return session, nil
}

// Evaluations returns the session's current evaluation set.
func (e *Engine) Evaluations(ctx context.Context, sessionID uuid.UUID) ([]types.Evaluation, error) {
	evals, err := e.store.ListEvaluations(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evals, nil
}

// ConsensusResult returns the session's latest consensus result, or
// (nil, nil) when none has been computed yet.
func (e *Engine) ConsensusResult(ctx context.Context, sessionID uuid.UUID) (*types.ConsensusResult, error) {
	result, err := e.store.GetConsensusResult(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load consensus result: %w", err)
	}
	return result, nil
}

// acceptsSubmission reports whether the session takes evaluations in its
// current state. Delphi sessions additionally accept resubmissions while a
// round is pending.
func acceptsSubmission(session *types.EvaluationSession) bool {
	if session.AcceptsEvaluations() {
		return true
	}
	return session.State == types.SessionConsensusPending && session.ConsensusMethod == types.MethodDelphi
}
