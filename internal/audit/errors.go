package audit

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrViolationNotFound indicates a resolve was attempted on an unknown record
type ErrViolationNotFound struct {
	ID uuid.UUID
}

func (e *ErrViolationNotFound) Error() string {
	return fmt.Sprintf("violation not found: %s", e.ID)
}
