package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/hiring-panel/internal/store"
	"github.com/jonathan/hiring-panel/internal/types"
)

// captureNotifier records every dispatched notification.
type captureNotifier struct {
	channels []string
	payloads []map[string]any
	err      error
}

func (n *captureNotifier) Notify(_ context.Context, channel string, payload map[string]any) error {
	n.channels = append(n.channels, channel)
	n.payloads = append(n.payloads, payload)
	return n.err
}

func newTestLedger(notifier *captureNotifier) *Ledger {
	if notifier == nil {
		return NewLedger(store.NewMemoryStore(), nil, zap.NewNop())
	}
	return NewLedger(store.NewMemoryStore(), notifier, zap.NewNop())
}

func TestAppend_IDsFollowAppendOrder(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(nil)

	var ids []string
	for i := 0; i < 10; i++ {
		id, err := ledger.Append(ctx, Entry{
			Action:   "session.created",
			Actor:    "system",
			Resource: "session/x",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// Monotonic ULIDs: lexicographic order equals append order
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}

	entries, err := ledger.Entries(ctx, store.AuditFilter{Resource: "session/x"})
	require.NoError(t, err)
	require.Len(t, entries, 10)
	for i, entry := range entries {
		assert.Equal(t, ids[i], entry.ID)
	}
}

func TestAppend_PreservesEntryFields(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(nil)
	fixed := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	ledger.now = func() time.Time { return fixed }

	id, err := ledger.Append(ctx, Entry{
		Action:          "session.escalated",
		Actor:           "fac-1",
		Resource:        "session/abc",
		Changes:         map[string]any{"from": "consensus_pending", "to": "escalated"},
		EthicalImpact:   "high",
		ComplianceFlags: []string{"gdpr"},
	})
	require.NoError(t, err)

	entries, err := ledger.Entries(ctx, store.AuditFilter{Action: "session.escalated"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "fac-1", entries[0].Actor)
	assert.Equal(t, "escalated", entries[0].Changes["to"])
	assert.Equal(t, "high", entries[0].EthicalImpact)
	assert.Equal(t, []string{"gdpr"}, entries[0].ComplianceFlags)
	assert.Equal(t, fixed, entries[0].RecordedAt)
}

func TestRecordViolation_HighSeverityAlerts(t *testing.T) {
	ctx := context.Background()
	notifier := &captureNotifier{}
	ledger := newTestLedger(notifier)

	record, err := ledger.RecordViolation(ctx, types.ViolationDeadlineBreach,
		"oversight request breached its deadline", types.SeverityHigh,
		[]string{"oversight/x"})
	require.NoError(t, err)

	require.Len(t, notifier.channels, 1)
	assert.Equal(t, "violation-alerts", notifier.channels[0])
	assert.Equal(t, record.ID.String(), notifier.payloads[0]["violation_id"])
}

func TestRecordViolation_MediumSeverityDoesNotAlert(t *testing.T) {
	ctx := context.Background()
	notifier := &captureNotifier{}
	ledger := newTestLedger(notifier)

	_, err := ledger.RecordViolation(ctx, types.ViolationBiasDetected,
		"flagged terms in comments", types.SeverityMedium, []string{"session/y"})
	require.NoError(t, err)

	assert.Empty(t, notifier.channels)
}

func TestRecordViolation_AlertFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	notifier := &captureNotifier{err: errors.New("pager down")}
	ledger := newTestLedger(notifier)

	record, err := ledger.RecordViolation(ctx, types.ViolationDataIntegrity,
		"entry mismatch", types.SeverityCritical, nil)
	require.NoError(t, err)
	require.NotNil(t, record)

	// The record persisted despite the failed alert
	loaded, err := ledger.Violations(ctx, store.ViolationFilter{Severity: types.SeverityCritical})
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestResolveViolation_StampsResolution(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(nil)

	record, err := ledger.RecordViolation(ctx, types.ViolationBiasDetected,
		"flagged terms", types.SeverityMedium, []string{"session/z"})
	require.NoError(t, err)

	resolved, err := ledger.ResolveViolation(ctx, record.ID,
		"reviewer retrained, evaluation resubmitted", []string{"bias training refresh"})
	require.NoError(t, err)

	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, "reviewer retrained, evaluation resubmitted", resolved.Resolution.Resolution)
	assert.Equal(t, []string{"bias training refresh"}, resolved.Resolution.PreventiveMeasures)
}

func TestResolveViolation_SecondResolveIsNoOp(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(nil)

	record, err := ledger.RecordViolation(ctx, types.ViolationBiasDetected,
		"flagged terms", types.SeverityMedium, nil)
	require.NoError(t, err)

	first, err := ledger.ResolveViolation(ctx, record.ID, "resolved once", nil)
	require.NoError(t, err)

	second, err := ledger.ResolveViolation(ctx, record.ID, "a different resolution", nil)
	require.NoError(t, err)

	// The original resolution stands
	assert.Equal(t, first.Resolution.Resolution, second.Resolution.Resolution)
	assert.Equal(t, first.ResolvedAt, second.ResolvedAt)
}

func TestResolveViolation_NotFound(t *testing.T) {
	ledger := newTestLedger(nil)

	_, err := ledger.ResolveViolation(context.Background(), uuid.New(), "anything", nil)

	var notFound *ErrViolationNotFound
	require.ErrorAs(t, err, &notFound)
}
