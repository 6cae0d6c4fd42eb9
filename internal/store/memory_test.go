package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-panel/internal/types"
)

func TestMemoryStore_SessionRoundtrip(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	session := &types.EvaluationSession{
		ID:          uuid.New(),
		CandidateID: uuid.New(),
		JobID:       uuid.New(),
		SessionType: "panel_review",
		Participants: []types.Participant{
			{ID: uuid.New(), Role: "engineer", Weight: 1.0},
			{ID: uuid.New(), Role: "manager", Weight: 2.0},
		},
		State:           types.SessionOpen,
		ConsensusMethod: types.MethodWeightedAverage,
	}

	require.NoError(t, mem.SaveSession(ctx, session))

	loaded, err := mem.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, loaded)
}

func TestMemoryStore_GetSessionAbsent(t *testing.T) {
	loaded, err := NewMemoryStore().GetSession(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStore_CopiesIsolateCallers(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	session := &types.EvaluationSession{
		ID:           uuid.New(),
		Participants: []types.Participant{{ID: uuid.New(), Role: "engineer", Weight: 1.0}},
		State:        types.SessionOpen,
	}
	require.NoError(t, mem.SaveSession(ctx, session))

	// Mutating the caller's copy must not leak into the store
	session.State = types.SessionCancelled
	session.Participants[0].Weight = 99

	loaded, err := mem.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionOpen, loaded.State)
	assert.Equal(t, 1.0, loaded.Participants[0].Weight)

	// Mutating a loaded copy must not leak either
	loaded.State = types.SessionDecided
	reloaded, err := mem.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionOpen, reloaded.State)
}

func TestMemoryStore_EvaluationUpsertKeepsFirstSubmissionOrder(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	sessionID := uuid.New()
	first, second := uuid.New(), uuid.New()

	require.NoError(t, mem.SaveEvaluation(ctx, &types.Evaluation{
		SessionID: sessionID, ParticipantID: first,
		Scores: map[string]float64{"technical": 50}, Confidence: 1.0,
	}))
	require.NoError(t, mem.SaveEvaluation(ctx, &types.Evaluation{
		SessionID: sessionID, ParticipantID: second,
		Scores: map[string]float64{"technical": 60}, Confidence: 1.0,
	}))
	// Resubmission by the first participant overwrites in place
	require.NoError(t, mem.SaveEvaluation(ctx, &types.Evaluation{
		SessionID: sessionID, ParticipantID: first,
		Scores: map[string]float64{"technical": 80}, Confidence: 0.9,
	}))

	evals, err := mem.ListEvaluations(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, evals, 2)
	assert.Equal(t, first, evals[0].ParticipantID)
	assert.Equal(t, 80.0, evals[0].Scores["technical"])
	assert.Equal(t, second, evals[1].ParticipantID)
}

func TestMemoryStore_DeleteSessionCascades(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	sessionID := uuid.New()
	require.NoError(t, mem.SaveSession(ctx, &types.EvaluationSession{ID: sessionID}))
	require.NoError(t, mem.SaveEvaluation(ctx, &types.Evaluation{
		SessionID: sessionID, ParticipantID: uuid.New(),
		Scores: map[string]float64{"technical": 70},
	}))
	require.NoError(t, mem.SaveConsensusResult(ctx, &types.ConsensusResult{SessionID: sessionID}))

	require.NoError(t, mem.DeleteSession(ctx, sessionID))

	session, err := mem.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, session)
	evals, err := mem.ListEvaluations(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, evals)
	result, err := mem.GetConsensusResult(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMemoryStore_ListEntriesFilters(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []types.AuditEntry{
		{ID: "01A", Action: "session.created", Actor: "system", Resource: "session/a", RecordedAt: base},
		{ID: "01B", Action: "session.decided", Actor: "fac-1", Resource: "session/a", RecordedAt: base.Add(time.Hour)},
		{ID: "01C", Action: "session.created", Actor: "system", Resource: "session/b", RecordedAt: base.Add(2 * time.Hour)},
	}
	for i := range entries {
		require.NoError(t, mem.AppendEntry(ctx, &entries[i]))
	}

	byResource, err := mem.ListEntries(ctx, AuditFilter{Resource: "session/a"})
	require.NoError(t, err)
	assert.Len(t, byResource, 2)

	byAction, err := mem.ListEntries(ctx, AuditFilter{Action: "session.created"})
	require.NoError(t, err)
	assert.Len(t, byAction, 2)

	byWindow, err := mem.ListEntries(ctx, AuditFilter{From: base.Add(30 * time.Minute), To: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, byWindow, 1)
	assert.Equal(t, "01B", byWindow[0].ID)
}

func TestMemoryStore_ListUnfinishedBefore(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	now := time.Now()

	overdue := &types.OversightRequest{
		ID:     uuid.New(),
		Status: types.OversightInReview,
		Timeline: types.OversightTimeline{
			EscalationDeadline: now.Add(-time.Hour),
		},
	}
	future := &types.OversightRequest{
		ID:     uuid.New(),
		Status: types.OversightPending,
		Timeline: types.OversightTimeline{
			EscalationDeadline: now.Add(time.Hour),
		},
	}
	finished := &types.OversightRequest{
		ID:     uuid.New(),
		Status: types.OversightCompleted,
		Timeline: types.OversightTimeline{
			EscalationDeadline: now.Add(-time.Hour),
		},
	}
	require.NoError(t, mem.SaveRequest(ctx, overdue))
	require.NoError(t, mem.SaveRequest(ctx, future))
	require.NoError(t, mem.SaveRequest(ctx, finished))

	due, err := mem.ListUnfinishedBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.ID, due[0].ID)
}

func TestMemoryStore_ViolationFilters(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()

	high := &types.ViolationRecord{
		ID:               uuid.New(),
		Type:             types.ViolationDeadlineBreach,
		Severity:         types.SeverityHigh,
		AffectedEntities: []string{"oversight/x"},
		DetectedAt:       time.Now(),
	}
	medium := &types.ViolationRecord{
		ID:               uuid.New(),
		Type:             types.ViolationBiasDetected,
		Severity:         types.SeverityMedium,
		AffectedEntities: []string{"session/y"},
		DetectedAt:       time.Now(),
	}
	require.NoError(t, mem.SaveViolation(ctx, high))
	require.NoError(t, mem.SaveViolation(ctx, medium))

	bySeverity, err := mem.ListViolations(ctx, ViolationFilter{Severity: types.SeverityHigh})
	require.NoError(t, err)
	require.Len(t, bySeverity, 1)
	assert.Equal(t, high.ID, bySeverity[0].ID)

	byEntity, err := mem.ListViolations(ctx, ViolationFilter{Entity: "session/y"})
	require.NoError(t, err)
	require.Len(t, byEntity, 1)
	assert.Equal(t, medium.ID, byEntity[0].ID)
}
