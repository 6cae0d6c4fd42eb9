package oversight

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/hiring-panel/internal/types"
)

// ErrRequestNotFound indicates the oversight request does not exist
type ErrRequestNotFound struct {
	RequestID uuid.UUID
}

func (e *ErrRequestNotFound) Error() string {
	return fmt.Sprintf("oversight request not found: %s", e.RequestID)
}

// ErrRequestClosed indicates the request has reached a final status
type ErrRequestClosed struct {
	RequestID uuid.UUID
	Status    types.OversightStatus
}

func (e *ErrRequestClosed) Error() string {
	return fmt.Sprintf("oversight request %s is closed: status is %s", e.RequestID, e.Status)
}

// ErrNotAssigned indicates the reviewer is not assigned to the request
type ErrNotAssigned struct {
	RequestID  uuid.UUID
	ReviewerID uuid.UUID
}

func (e *ErrNotAssigned) Error() string {
	return fmt.Sprintf("reviewer %s is not assigned to oversight request %s", e.ReviewerID, e.RequestID)
}

// ErrNoReviewersAssigned indicates an assignment attempt qualified nobody
type ErrNoReviewersAssigned struct {
	RequestID uuid.UUID
}

func (e *ErrNoReviewersAssigned) Error() string {
	return fmt.Sprintf("no reviewers could be assigned to oversight request %s", e.RequestID)
}

// ErrQualificationUnverifiable indicates the verification dependency failed.
// Treated as "not qualified" (fail closed) and surfaced as a per-reviewer
// rejection, not a hard error, so assignment proceeds with the rest.
type ErrQualificationUnverifiable struct {
	ReviewerID    uuid.UUID
	Qualification string
	Cause         error
}

func (e *ErrQualificationUnverifiable) Error() string {
	return fmt.Sprintf("qualification %q unverifiable for reviewer %s: %v", e.Qualification, e.ReviewerID, e.Cause)
}

func (e *ErrQualificationUnverifiable) Unwrap() error {
	return e.Cause
}
