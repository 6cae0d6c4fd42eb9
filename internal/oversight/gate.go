// Package oversight implements the human-review gate: the pure decision
// function determining whether a decision may stand autonomously, plus the
// lifecycle of oversight requests through assignment, reviewer verdicts and
// deadline-driven escalation.
package oversight

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
	"github.com/jonathan/hiring-panel/internal/metrics"
	"github.com/jonathan/hiring-panel/internal/store"
	"github.com/jonathan/hiring-panel/internal/types"
)

// Recorder is the slice of the audit ledger the gate needs.
type Recorder interface {
	Append(ctx context.Context, in audit.Entry) (string, error)
	RecordViolation(ctx context.Context, violationType, description string, severity types.Severity, affectedEntities []string) (*types.ViolationRecord, error)
}

// Gate owns oversight determination and request lifecycle. Mutations of one
// request are serialized; assignment verification runs outside the request
// lock so a slow verifier never blocks decision submission.
type Gate struct {
	cfg      config.OversightConfig
	store    store.OversightStore
	verifier collab.QualificationVerifier
	notifier collab.Notifier
	recorder Recorder
	metrics  *metrics.Manager
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// Deps wires the gate's collaborators. Store and Recorder are required;
// Verifier, Notifier and Metrics are optional. A nil Verifier fails closed:
// no qualification can be verified.
type Deps struct {
	Config   config.OversightConfig
	Store    store.OversightStore
	Verifier collab.QualificationVerifier
	Notifier collab.Notifier
	Recorder Recorder
	Metrics  *metrics.Manager
	Logger   *zap.Logger
}

// NewGate creates an oversight gate.
func NewGate(deps Deps) *Gate {
	return &Gate{
		cfg:      deps.Config,
		store:    deps.Store,
		verifier: deps.Verifier,
		notifier: deps.Notifier,
		recorder: deps.Recorder,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      time.Now,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// requestLock returns the mutex serializing mutations of one request.
func (g *Gate) requestLock(id uuid.UUID) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	if lock, ok := g.locks[id]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	g.locks[id] = lock
	return lock
}

// requestResource names an oversight request in audit entries
func requestResource(id uuid.UUID) string {
	return fmt.Sprintf("oversight/%s", id)
}

// RequiresOversight determines whether a decision needs human review: a
// configured mandatory scenario, an AI confidence below the floor, or a
// high or critical decision impact each force review. The reason reflects
// the first matching check; the boolean outcome is order-independent.
func (g *Gate) RequiresOversight(scenario string, aiConfidence float64, impact types.DecisionImpact) types.OversightCheck {
	for _, mandatory := range g.cfg.MandatoryScenarios {
		if scenario == mandatory {
			return types.OversightCheck{
				Required: true,
				Reason:   fmt.Sprintf("scenario %q always requires human oversight", scenario),
			}
		}
	}
	if aiConfidence < g.cfg.ConfidenceFloor {
		return types.OversightCheck{
			Required: true,
			Reason:   fmt.Sprintf("confidence %.2f is below the floor of %.2f", aiConfidence, g.cfg.ConfidenceFloor),
		}
	}
	if impact == types.ImpactHigh || impact == types.ImpactCritical {
		return types.OversightCheck{
			Required: true,
			Reason:   fmt.Sprintf("decision impact %q requires human oversight", impact),
		}
	}
	return types.OversightCheck{}
}

// CreateRequest opens an oversight request for a decision. The three
// timeline deadlines are independent offsets from creation time, not
// chained off each other.
func (g *Gate) CreateRequest(ctx context.Context, decisionID uuid.UUID, scenario string, impact types.DecisionImpact) (*types.OversightRequest, error) {
	now := g.now()
	req := &types.OversightRequest{
		ID:                     uuid.New(),
		DecisionID:             decisionID,
		Scenario:               scenario,
		Impact:                 impact,
		Status:                 types.OversightPending,
		RequiredReviewers:      g.cfg.RequiredReviewers,
		RequiredQualifications: g.cfg.RequiredQualifications,
		Responses:              make(map[uuid.UUID]types.ReviewerDecision),
		Timeline: types.OversightTimeline{
			InitialReviewDeadline: now.Add(g.cfg.InitialReviewOffset()),
			FinalDecisionDeadline: now.Add(g.cfg.FinalDecisionOffset()),
			EscalationDeadline:    now.Add(g.cfg.EscalationOffset()),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := g.recorder.Append(ctx, audit.Entry{
		Action:   "oversight.created",
		Actor:    "system",
		Resource: requestResource(req.ID),
		Changes: map[string]any{
			"decision_id":        decisionID.String(),
			"scenario":           scenario,
			"impact":             string(impact),
			"required_reviewers": req.RequiredReviewers,
		},
		EthicalImpact: string(impact),
	}); err != nil {
		return nil, err
	}
	if err := g.store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save oversight request: %w", err)
	}

	g.logger.Info("oversight request created",
		zap.String("request_id", req.ID.String()),
		zap.String("decision_id", decisionID.String()),
		zap.String("scenario", scenario))
	return req, nil
}

// GetRequest returns the request, or ErrRequestNotFound.
func (g *Gate) GetRequest(ctx context.Context, requestID uuid.UUID) (*types.OversightRequest, error) {
	req, err := g.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load oversight request: %w", err)
	}
	if req == nil {
		return nil, &ErrRequestNotFound{RequestID: requestID}
	}
	return req, nil
}
