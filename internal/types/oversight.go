package types

import (
	"time"

	"github.com/google/uuid"
)

// OversightStatus tracks the lifecycle of an oversight request.
// Transitions are monotonic: pending -> in_review -> {completed | escalated | expired}.
type OversightStatus string

// Oversight request statuses
const (
	OversightPending   OversightStatus = "pending"
	OversightInReview  OversightStatus = "in_review"
	OversightCompleted OversightStatus = "completed"
	OversightEscalated OversightStatus = "escalated"
	OversightExpired   OversightStatus = "expired"
)

// IsFinal reports whether the status admits no further transitions
func (s OversightStatus) IsFinal() bool {
	return s == OversightCompleted || s == OversightEscalated || s == OversightExpired
}

// OversightCheck is the outcome of a mandatory-review determination
type OversightCheck struct {
	Required bool   `json:"required"`
	Reason   string `json:"reason,omitempty"`
}

// OversightTimeline holds the three review deadlines. Each is an
// independent fixed offset from request creation, not chained.
type OversightTimeline struct {
	InitialReviewDeadline time.Time `json:"initial_review_deadline"`
	FinalDecisionDeadline time.Time `json:"final_decision_deadline"`
	EscalationDeadline    time.Time `json:"escalation_deadline"`
}

// ReviewerDecision is one reviewer's verdict on an oversight request
type ReviewerDecision struct {
	ReviewerID  uuid.UUID      `json:"reviewer_id"`
	Verdict     Recommendation `json:"verdict"`
	Comments    string         `json:"comments,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// RejectedReviewer records why a candidate reviewer was not assigned
type RejectedReviewer struct {
	ReviewerID uuid.UUID `json:"reviewer_id"`
	Reason     string    `json:"reason"`
}

// AssignmentResult partitions candidate reviewers after an assignment attempt
type AssignmentResult struct {
	Assigned []uuid.UUID        `json:"assigned"`
	Rejected []RejectedReviewer `json:"rejected,omitempty"`
}

// OversightRequest is a formal request for human sign-off on a decision.
// It references the decision by ID and owns no session data.
type OversightRequest struct {
	ID                     uuid.UUID                    `json:"id"`
	DecisionID             uuid.UUID                    `json:"decision_id"`
	Scenario               string                       `json:"scenario"`
	Impact                 DecisionImpact               `json:"impact"`
	Status                 OversightStatus              `json:"status"`
	RequiredReviewers      int                          `json:"required_reviewers"`
	RequiredQualifications []string                     `json:"required_qualifications,omitempty"`
	AssignedReviewers      []uuid.UUID                  `json:"assigned_reviewers,omitempty"` // assignment order, drives tie-breaking
	Responses              map[uuid.UUID]ReviewerDecision `json:"responses,omitempty"`
	Timeline               OversightTimeline            `json:"timeline"`
	FinalDecision          Recommendation               `json:"final_decision,omitempty"`
	CreatedAt              time.Time                    `json:"created_at"`
	CompletedAt            *time.Time                   `json:"completed_at,omitempty"`
	UpdatedAt              time.Time                    `json:"updated_at"`
}

// IsAssigned reports whether the given reviewer is assigned to this request
func (r *OversightRequest) IsAssigned(reviewerID uuid.UUID) bool {
	for _, id := range r.AssignedReviewers {
		if id == reviewerID {
			return true
		}
	}
	return false
}

// ResponsesComplete reports whether enough verdicts have been received
func (r *OversightRequest) ResponsesComplete() bool {
	return len(r.Responses) >= r.RequiredReviewers
}
