package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hiring-panel/internal/types"
)

// evalKey identifies an evaluation by its (session, participant) pair
type evalKey struct {
	sessionID     uuid.UUID
	participantID uuid.UUID
}

// MemoryStore is an in-memory implementation of the persistence interfaces.
// It copies entities on the way in and out so callers never share state with
// the store. Safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID]*types.EvaluationSession
	evals      map[evalKey]*types.Evaluation
	evalOrder  map[uuid.UUID][]uuid.UUID // sessionID -> participant IDs in first-submission order
	results    map[uuid.UUID]*types.ConsensusResult
	requests   map[uuid.UUID]*types.OversightRequest
	entries    []types.AuditEntry
	violations map[uuid.UUID]*types.ViolationRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[uuid.UUID]*types.EvaluationSession),
		evals:      make(map[evalKey]*types.Evaluation),
		evalOrder:  make(map[uuid.UUID][]uuid.UUID),
		results:    make(map[uuid.UUID]*types.ConsensusResult),
		requests:   make(map[uuid.UUID]*types.OversightRequest),
		violations: make(map[uuid.UUID]*types.ViolationRecord),
	}
}

// SaveSession stores a copy of the session.
func (m *MemoryStore) SaveSession(_ context.Context, session *types.EvaluationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = copySession(session)
	return nil
}

// GetSession returns a copy of the session, or (nil, nil) when absent.
func (m *MemoryStore) GetSession(_ context.Context, id uuid.UUID) (*types.EvaluationSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(session), nil
}

// DeleteSession removes a session and its evaluations and consensus result.
func (m *MemoryStore) DeleteSession(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.results, id)
	for _, pid := range m.evalOrder[id] {
		delete(m.evals, evalKey{sessionID: id, participantID: pid})
	}
	delete(m.evalOrder, id)
	return nil
}

// SaveEvaluation upserts the evaluation for its (session, participant) pair.
func (m *MemoryStore) SaveEvaluation(_ context.Context, eval *types.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := evalKey{sessionID: eval.SessionID, participantID: eval.ParticipantID}
	if _, exists := m.evals[key]; !exists {
		m.evalOrder[eval.SessionID] = append(m.evalOrder[eval.SessionID], eval.ParticipantID)
	}
	m.evals[key] = copyEvaluation(eval)
	return nil
}

// ListEvaluations returns copies of a session's evaluations in
// first-submission order.
func (m *MemoryStore) ListEvaluations(_ context.Context, sessionID uuid.UUID) ([]types.Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order := m.evalOrder[sessionID]
	evals := make([]types.Evaluation, 0, len(order))
	for _, pid := range order {
		if eval, ok := m.evals[evalKey{sessionID: sessionID, participantID: pid}]; ok {
			evals = append(evals, *copyEvaluation(eval))
		}
	}
	return evals, nil
}

// SaveConsensusResult stores a copy of the session's consensus result.
func (m *MemoryStore) SaveConsensusResult(_ context.Context, result *types.ConsensusResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.SessionID] = copyConsensusResult(result)
	return nil
}

// GetConsensusResult returns a copy of the session's consensus result,
// or (nil, nil) when absent.
func (m *MemoryStore) GetConsensusResult(_ context.Context, sessionID uuid.UUID) (*types.ConsensusResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.results[sessionID]
	if !ok {
		return nil, nil
	}
	return copyConsensusResult(result), nil
}

// SaveRequest stores a copy of the oversight request.
func (m *MemoryStore) SaveRequest(_ context.Context, req *types.OversightRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = copyRequest(req)
	return nil
}

// GetRequest returns a copy of the oversight request, or (nil, nil) when absent.
func (m *MemoryStore) GetRequest(_ context.Context, id uuid.UUID) (*types.OversightRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	return copyRequest(req), nil
}

// ListUnfinishedBefore returns non-final requests whose escalation deadline
// precedes the given instant.
func (m *MemoryStore) ListUnfinishedBefore(_ context.Context, deadline time.Time) ([]types.OversightRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.OversightRequest
	for _, req := range m.requests {
		if !req.Status.IsFinal() && req.Timeline.EscalationDeadline.Before(deadline) {
			out = append(out, *copyRequest(req))
		}
	}
	return out, nil
}

// AppendEntry appends a copy of the audit entry. Entries are never mutated.
func (m *MemoryStore) AppendEntry(_ context.Context, entry *types.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *copyEntry(entry))
	return nil
}

// ListEntries returns copies of audit entries matching the filter, in
// append order.
func (m *MemoryStore) ListEntries(_ context.Context, filter AuditFilter) ([]types.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.AuditEntry
	for i := range m.entries {
		entry := &m.entries[i]
		if filter.Resource != "" && entry.Resource != filter.Resource {
			continue
		}
		if filter.Actor != "" && entry.Actor != filter.Actor {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if !filter.From.IsZero() && entry.RecordedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && entry.RecordedAt.After(filter.To) {
			continue
		}
		out = append(out, *copyEntry(entry))
	}
	return out, nil
}

// SaveViolation stores a copy of the violation record.
func (m *MemoryStore) SaveViolation(_ context.Context, record *types.ViolationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations[record.ID] = copyViolation(record)
	return nil
}

// GetViolation returns a copy of the violation record, or (nil, nil) when absent.
func (m *MemoryStore) GetViolation(_ context.Context, id uuid.UUID) (*types.ViolationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.violations[id]
	if !ok {
		return nil, nil
	}
	return copyViolation(record), nil
}

// ListViolations returns copies of violation records matching the filter.
func (m *MemoryStore) ListViolations(_ context.Context, filter ViolationFilter) ([]types.ViolationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.ViolationRecord
	for _, record := range m.violations {
		if filter.Severity != "" && record.Severity != filter.Severity {
			continue
		}
		if filter.Entity != "" && !containsString(record.AffectedEntities, filter.Entity) {
			continue
		}
		if !filter.From.IsZero() && record.DetectedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && record.DetectedAt.After(filter.To) {
			continue
		}
		out = append(out, *copyViolation(record))
	}
	return out, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func copySession(s *types.EvaluationSession) *types.EvaluationSession {
	out := *s
	out.Participants = append([]types.Participant(nil), s.Participants...)
	return &out
}

func copyEvaluation(e *types.Evaluation) *types.Evaluation {
	out := *e
	out.Scores = copyFloatMap(e.Scores)
	if e.BiasAnnotation != nil {
		annotation := *e.BiasAnnotation
		annotation.FlaggedTerms = append([]string(nil), e.BiasAnnotation.FlaggedTerms...)
		out.BiasAnnotation = &annotation
	}
	if e.Extensions != nil {
		out.Extensions = make(map[string]any, len(e.Extensions))
		for k, v := range e.Extensions {
			out.Extensions[k] = v
		}
	}
	return &out
}

func copyConsensusResult(r *types.ConsensusResult) *types.ConsensusResult {
	out := *r
	if r.PerParticipantContribution != nil {
		out.PerParticipantContribution = make(map[uuid.UUID]float64, len(r.PerParticipantContribution))
		for k, v := range r.PerParticipantContribution {
			out.PerParticipantContribution[k] = v
		}
	}
	out.CriterionScores = copyFloatMap(r.CriterionScores)
	return &out
}

func copyRequest(r *types.OversightRequest) *types.OversightRequest {
	out := *r
	out.RequiredQualifications = append([]string(nil), r.RequiredQualifications...)
	out.AssignedReviewers = append([]uuid.UUID(nil), r.AssignedReviewers...)
	if r.Responses != nil {
		out.Responses = make(map[uuid.UUID]types.ReviewerDecision, len(r.Responses))
		for k, v := range r.Responses {
			out.Responses[k] = v
		}
	}
	if r.CompletedAt != nil {
		completed := *r.CompletedAt
		out.CompletedAt = &completed
	}
	return &out
}

func copyEntry(e *types.AuditEntry) *types.AuditEntry {
	out := *e
	if e.Changes != nil {
		out.Changes = make(map[string]any, len(e.Changes))
		for k, v := range e.Changes {
			out.Changes[k] = v
		}
	}
	out.ComplianceFlags = append([]string(nil), e.ComplianceFlags...)
	return &out
}

func copyViolation(v *types.ViolationRecord) *types.ViolationRecord {
	out := *v
	out.AffectedEntities = append([]string(nil), v.AffectedEntities...)
	if v.ResolvedAt != nil {
		resolved := *v.ResolvedAt
		out.ResolvedAt = &resolved
	}
	if v.Resolution != nil {
		resolution := *v.Resolution
		resolution.PreventiveMeasures = append([]string(nil), v.Resolution.PreventiveMeasures...)
		out.Resolution = &resolution
	}
	return &out
}

func copyFloatMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Interface conformance checks
var (
	_ SessionStore   = (*MemoryStore)(nil)
	_ OversightStore = (*MemoryStore)(nil)
	_ AuditStore     = (*MemoryStore)(nil)
)
