// Package audit provides the append-only audit trail and violation ledger
// for the evaluation engine. Entries are immutable once appended; violations
// are append-only records mutated solely by an explicit resolve operation.
package audit

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/jonathan/hiring-panel/internal/collab"
	"github.com/jonathan/hiring-panel/internal/store"
	"github.com/jonathan/hiring-panel/internal/types"
)

// alertChannel receives notifications for high and critical violations
const alertChannel = "violation-alerts"

// Entry describes one audit trail append.
type Entry struct {
	Action          string
	Actor           string
	Resource        string
	Changes         map[string]any
	EthicalImpact   string
	ComplianceFlags []string
}

// Ledger appends audit entries and manages violation records. An append
// either succeeds or returns an error the caller must treat as fatal for
// the triggering operation; the ledger never drops an entry silently.
type Ledger struct {
	store    store.AuditStore
	notifier collab.Notifier
	logger   *zap.Logger
	now      func() time.Time

	// entropy feeds monotonic ULID generation and is not safe for
	// concurrent use, hence the mutex.
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewLedger creates a ledger backed by the given store. The notifier may be
// nil, in which case violation alerts are only logged.
func NewLedger(auditStore store.AuditStore, notifier collab.Notifier, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:    auditStore,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// newEntryID returns a fresh ULID. IDs are monotonic within the process, so
// lexicographic order matches append order.
func (l *Ledger) newEntryID(at time.Time) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), l.entropy).String()
}

// Append records one audit entry and returns its opaque immutable ID.
// An error means the entry was not persisted and the caller must roll back
// whatever state change triggered it.
func (l *Ledger) Append(ctx context.Context, in Entry) (string, error) {
	now := l.now()
	entry := &types.AuditEntry{
		ID:              l.newEntryID(now),
		Action:          in.Action,
		Actor:           in.Actor,
		Resource:        in.Resource,
		Changes:         in.Changes,
		EthicalImpact:   in.EthicalImpact,
		ComplianceFlags: in.ComplianceFlags,
		RecordedAt:      now,
	}
	if err := l.store.AppendEntry(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to append audit entry: %w", err)
	}
	return entry.ID, nil
}

// RecordViolation creates a violation record. High and critical severities
// additionally dispatch an alert; alert failures are logged, never fatal.
func (l *Ledger) RecordViolation(ctx context.Context, violationType, description string, severity types.Severity, affectedEntities []string) (*types.ViolationRecord, error) {
	record := &types.ViolationRecord{
		ID:               uuid.New(),
		Type:             violationType,
		Severity:         severity,
		Description:      description,
		AffectedEntities: affectedEntities,
		DetectedAt:       l.now(),
	}
	if err := l.store.SaveViolation(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record violation: %w", err)
	}

	if severity.RequiresAlert() && l.notifier != nil {
		payload := map[string]any{
			"violation_id": record.ID.String(),
			"type":         record.Type,
			"severity":     string(record.Severity),
			"description":  record.Description,
		}
		if err := l.notifier.Notify(ctx, alertChannel, payload); err != nil {
			l.logger.Warn("violation alert dispatch failed",
				zap.String("violation_id", record.ID.String()),
				zap.Error(err))
		}
	}

	return record, nil
}

// ResolveViolation stamps a violation as resolved. Resolving an already
// resolved record is a no-op that returns the existing record, so callers
// racing on the same resolution converge on one outcome.
func (l *Ledger) ResolveViolation(ctx context.Context, id uuid.UUID, resolution string, preventiveMeasures []string) (*types.ViolationRecord, error) {
	record, err := l.store.GetViolation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load violation: %w", err)
	}
	if record == nil {
		return nil, &ErrViolationNotFound{ID: id}
	}

	if record.Resolved() {
		if record.Resolution != nil && record.Resolution.Resolution != resolution {
			l.logger.Warn("violation already resolved with a different resolution",
				zap.String("violation_id", id.String()),
				zap.String("existing", record.Resolution.Resolution),
				zap.String("requested", resolution))
		}
		return record, nil
	}

	resolvedAt := l.now()
	record.ResolvedAt = &resolvedAt
	record.Resolution = &types.ViolationResolution{
		Resolution:         resolution,
		PreventiveMeasures: preventiveMeasures,
	}
	if err := l.store.SaveViolation(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to resolve violation: %w", err)
	}
	return record, nil
}

// Entries returns audit entries matching the filter. Read-only.
func (l *Ledger) Entries(ctx context.Context, filter store.AuditFilter) ([]types.AuditEntry, error) {
	entries, err := l.store.ListEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

// Violations returns violation records matching the filter. Read-only.
func (l *Ledger) Violations(ctx context.Context, filter store.ViolationFilter) ([]types.ViolationRecord, error) {
	records, err := l.store.ListViolations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	return records, nil
}
