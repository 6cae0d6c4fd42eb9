package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/hiring-panel/internal/types"
)

// ErrInvalidParticipantCount indicates a session was created with too few participants
type ErrInvalidParticipantCount struct {
	Got int
}

func (e *ErrInvalidParticipantCount) Error() string {
	return fmt.Sprintf("invalid participant count: got %d, need at least %d", e.Got, minParticipants)
}

// ErrSessionNotFound indicates the session does not exist
type ErrSessionNotFound struct {
	SessionID uuid.UUID
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// ErrSessionClosed indicates the session no longer accepts the requested operation
type ErrSessionClosed struct {
	SessionID uuid.UUID
	State     types.SessionState
}

func (e *ErrSessionClosed) Error() string {
	return fmt.Sprintf("session %s is closed to this operation: state is %s", e.SessionID, e.State)
}

// ErrUnknownParticipant indicates the submitter is not on the session roster
type ErrUnknownParticipant struct {
	SessionID     uuid.UUID
	ParticipantID uuid.UUID
}

func (e *ErrUnknownParticipant) Error() string {
	return fmt.Sprintf("participant %s is not on the roster of session %s", e.ParticipantID, e.SessionID)
}
