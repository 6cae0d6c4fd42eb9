// Package types provides type definitions for structured data used throughout the hiring-panel system.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SessionType constants for the kinds of collaboration sessions
const (
	SessionTechnicalInterview  = "technical_interview"
	SessionBehavioralInterview = "behavioral_interview"
	SessionPanelReview         = "panel_review"
	SessionFinalDecision       = "final_decision"
)

// SessionState represents the lifecycle state of an evaluation session
type SessionState string

// Session lifecycle states. Transitions only move forward except
// escalated, which may still resolve to decided.
const (
	SessionOpen             SessionState = "open"
	SessionCollecting       SessionState = "collecting"
	SessionConsensusPending SessionState = "consensus_pending"
	SessionDecided          SessionState = "decided"
	SessionEscalated        SessionState = "escalated"
	SessionCancelled        SessionState = "cancelled"
)

// ConsensusMethod identifies the aggregation strategy for a session
type ConsensusMethod string

// Supported consensus methods
const (
	MethodWeightedAverage ConsensusMethod = "weighted_average"
	MethodMajorityVote    ConsensusMethod = "majority_vote"
	MethodDelphi          ConsensusMethod = "delphi_method"
)

// DecisionImpact classifies how consequential a decision is
type DecisionImpact string

// Decision impact levels
const (
	ImpactLow      DecisionImpact = "low"
	ImpactMedium   DecisionImpact = "medium"
	ImpactHigh     DecisionImpact = "high"
	ImpactCritical DecisionImpact = "critical"
)

// Participant is a member of a session roster. Roster order is invite order
// and drives deterministic tie-breaking during consensus.
type Participant struct {
	ID     uuid.UUID `json:"id"`
	Role   string    `json:"role"`
	Weight float64   `json:"weight"` // defaults to 1.0 when unset
}

// EvaluationSession is a bounded collaboration unit in which multiple
// reviewers evaluate one candidate for one job.
type EvaluationSession struct {
	ID              uuid.UUID       `json:"id"`
	CandidateID     uuid.UUID       `json:"candidate_id"`
	JobID           uuid.UUID       `json:"job_id"`
	SessionType     string          `json:"session_type"`
	Participants    []Participant   `json:"participants"`
	State           SessionState    `json:"state"`
	ConsensusMethod ConsensusMethod `json:"consensus_method"`
	DecisionImpact  DecisionImpact  `json:"decision_impact"`
	DelphiRound     int             `json:"delphi_round"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	DeadlineAt      time.Time       `json:"deadline_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the session can undergo no further transitions.
// Escalated is terminal-adjacent: it may still resolve to decided.
func (s *EvaluationSession) IsTerminal() bool {
	return s.State == SessionDecided || s.State == SessionCancelled
}

// AcceptsEvaluations reports whether new evaluations may still be submitted
func (s *EvaluationSession) AcceptsEvaluations() bool {
	return s.State == SessionOpen || s.State == SessionCollecting
}

// HasParticipant reports whether the given ID is on the roster
func (s *EvaluationSession) HasParticipant(id uuid.UUID) bool {
	for _, p := range s.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// ParticipantWeight returns the roster weight for the given participant,
// or 0 if the participant is not on the roster.
func (s *EvaluationSession) ParticipantWeight(id uuid.UUID) float64 {
	for _, p := range s.Participants {
		if p.ID == id {
			return p.Weight
		}
	}
	return 0
}

// sessionTransitions enumerates the allowed forward transitions
var sessionTransitions = map[SessionState][]SessionState{
	SessionOpen:             {SessionCollecting, SessionCancelled},
	SessionCollecting:       {SessionConsensusPending, SessionCancelled},
	SessionConsensusPending: {SessionDecided, SessionEscalated, SessionConsensusPending, SessionCancelled},
	SessionEscalated:        {SessionDecided, SessionCancelled},
}

// CanTransition reports whether moving from one session state to another is allowed.
// consensus_pending -> consensus_pending covers Delphi rounds that did not converge.
func CanTransition(from, to SessionState) bool {
	for _, next := range sessionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParticipantInput describes one roster member when creating a session
type ParticipantInput struct {
	ID     uuid.UUID `json:"id" validate:"required"`
	Role   string    `json:"role" validate:"required"`
	Weight float64   `json:"weight" validate:"gte=0"`
}

// CreateSessionRequest is the boundary input for creating an evaluation session.
type CreateSessionRequest struct {
	CandidateID     uuid.UUID          `json:"candidate_id" validate:"required"`
	JobID           uuid.UUID          `json:"job_id" validate:"required"`
	SessionType     string             `json:"session_type" validate:"required,oneof=technical_interview behavioral_interview panel_review final_decision"`
	Participants    []ParticipantInput `json:"participants" validate:"required,dive"`
	ConsensusMethod ConsensusMethod    `json:"consensus_method" validate:"required,oneof=weighted_average majority_vote delphi_method"`
	DecisionImpact  DecisionImpact     `json:"decision_impact,omitempty" validate:"omitempty,oneof=low medium high critical"`
}

// Validate validates the CreateSessionRequest using the validator.
// The minimum-participant invariant is enforced by the session engine,
// not here, so the caller gets the dedicated error kind.
func (r *CreateSessionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
