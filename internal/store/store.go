// Package store defines the persistence interfaces the evaluation engine
// depends on, plus an in-memory implementation. The engine only needs
// load/save/find-by-criteria semantics; durability and expiry policy belong
// to the backing implementation.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hiring-panel/internal/types"
)

// SessionStore persists sessions, their evaluations and their consensus results.
// Get methods return (nil, nil) when the entity does not exist.
type SessionStore interface {
	SaveSession(ctx context.Context, session *types.EvaluationSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*types.EvaluationSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// SaveEvaluation upserts on (session, participant).
	SaveEvaluation(ctx context.Context, eval *types.Evaluation) error
	ListEvaluations(ctx context.Context, sessionID uuid.UUID) ([]types.Evaluation, error)

	SaveConsensusResult(ctx context.Context, result *types.ConsensusResult) error
	GetConsensusResult(ctx context.Context, sessionID uuid.UUID) (*types.ConsensusResult, error)
}

// OversightStore persists oversight requests.
type OversightStore interface {
	SaveRequest(ctx context.Context, req *types.OversightRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*types.OversightRequest, error)

	// ListUnfinishedBefore returns requests whose escalation deadline is
	// before the given instant and whose status is not final.
	ListUnfinishedBefore(ctx context.Context, deadline time.Time) ([]types.OversightRequest, error)
}

// AuditFilter narrows audit entry queries. Zero values are ignored.
type AuditFilter struct {
	Resource string
	Actor    string
	Action   string
	From     time.Time
	To       time.Time
}

// ViolationFilter narrows violation queries. Zero values are ignored.
type ViolationFilter struct {
	Severity types.Severity
	Entity   string
	From     time.Time
	To       time.Time
}

// AuditStore persists the append-only audit trail and the violation ledger.
// Entries are never updated or deleted; violations are updated only through
// SaveViolation after an explicit resolve.
type AuditStore interface {
	AppendEntry(ctx context.Context, entry *types.AuditEntry) error
	ListEntries(ctx context.Context, filter AuditFilter) ([]types.AuditEntry, error)

	SaveViolation(ctx context.Context, record *types.ViolationRecord) error
	GetViolation(ctx context.Context, id uuid.UUID) (*types.ViolationRecord, error)
	ListViolations(ctx context.Context, filter ViolationFilter) ([]types.ViolationRecord, error)
}
