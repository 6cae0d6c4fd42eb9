package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_ForwardOnly(t *testing.T) {
	assert.True(t, CanTransition(SessionOpen, SessionCollecting))
	assert.True(t, CanTransition(SessionCollecting, SessionConsensusPending))
	assert.True(t, CanTransition(SessionConsensusPending, SessionDecided))
	assert.True(t, CanTransition(SessionConsensusPending, SessionEscalated))

	// No backward moves
	assert.False(t, CanTransition(SessionCollecting, SessionOpen))
	assert.False(t, CanTransition(SessionConsensusPending, SessionCollecting))
	assert.False(t, CanTransition(SessionDecided, SessionConsensusPending))
}

func TestCanTransition_DelphiSelfLoop(t *testing.T) {
	// A non-converged Delphi round stays in consensus_pending
	assert.True(t, CanTransition(SessionConsensusPending, SessionConsensusPending))
	assert.False(t, CanTransition(SessionCollecting, SessionCollecting))
}

func TestCanTransition_CancellableFromAnyNonTerminal(t *testing.T) {
	for _, from := range []SessionState{SessionOpen, SessionCollecting, SessionConsensusPending, SessionEscalated} {
		assert.True(t, CanTransition(from, SessionCancelled), "from %s", from)
	}
	assert.False(t, CanTransition(SessionDecided, SessionCancelled))
	assert.False(t, CanTransition(SessionCancelled, SessionCancelled))
}

func TestCanTransition_EscalatedResolvesToDecided(t *testing.T) {
	assert.True(t, CanTransition(SessionEscalated, SessionDecided))
	assert.False(t, CanTransition(SessionDecided, SessionEscalated))
}

func TestEvaluationSession_StatePredicates(t *testing.T) {
	session := &EvaluationSession{State: SessionOpen}
	assert.True(t, session.AcceptsEvaluations())
	assert.False(t, session.IsTerminal())

	session.State = SessionCollecting
	assert.True(t, session.AcceptsEvaluations())

	session.State = SessionConsensusPending
	assert.False(t, session.AcceptsEvaluations())
	assert.False(t, session.IsTerminal())

	// Escalated is not terminal: it may still resolve to decided
	session.State = SessionEscalated
	assert.False(t, session.IsTerminal())

	session.State = SessionDecided
	assert.True(t, session.IsTerminal())
	session.State = SessionCancelled
	assert.True(t, session.IsTerminal())
}

func TestEvaluationSession_RosterLookups(t *testing.T) {
	member := uuid.New()
	session := &EvaluationSession{
		Participants: []Participant{
			{ID: member, Role: "technical", Weight: 2.0},
		},
	}

	assert.True(t, session.HasParticipant(member))
	assert.Equal(t, 2.0, session.ParticipantWeight(member))

	stranger := uuid.New()
	assert.False(t, session.HasParticipant(stranger))
	assert.Equal(t, 0.0, session.ParticipantWeight(stranger))
}

func TestCreateSessionRequest_Validate(t *testing.T) {
	valid := &CreateSessionRequest{
		CandidateID: uuid.New(),
		JobID:       uuid.New(),
		SessionType: SessionPanelReview,
		Participants: []ParticipantInput{
			{ID: uuid.New(), Role: "technical", Weight: 1.0},
			{ID: uuid.New(), Role: "hiring_manager", Weight: 1.0},
		},
		ConsensusMethod: MethodWeightedAverage,
	}
	require.NoError(t, valid.Validate())

	unknownType := *valid
	unknownType.SessionType = "hallway_chat"
	assert.Error(t, unknownType.Validate())

	unknownMethod := *valid
	unknownMethod.ConsensusMethod = "coin_flip"
	assert.Error(t, unknownMethod.Validate())

	badImpact := *valid
	badImpact.DecisionImpact = "existential"
	assert.Error(t, badImpact.Validate())
}
