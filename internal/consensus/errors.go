package consensus

import "fmt"

// ErrInsufficientEvaluations indicates consensus cannot be computed from the
// current evaluation set; the caller must wait for more submissions.
type ErrInsufficientEvaluations struct {
	Got  int
	Need int
}

func (e *ErrInsufficientEvaluations) Error() string {
	return fmt.Sprintf("insufficient evaluations: got %d, need at least %d", e.Got, e.Need)
}

// ErrDegenerateWeighting indicates every effective weight in the evaluation
// set is zero, so a weighted aggregate is undefined.
type ErrDegenerateWeighting struct{}

func (e *ErrDegenerateWeighting) Error() string {
	return "degenerate weighting: all participant weight-confidence products are zero"
}

// ErrUnknownMethod indicates an unrecognized consensus method was requested
type ErrUnknownMethod struct {
	Method string
}

func (e *ErrUnknownMethod) Error() string {
	return fmt.Sprintf("unknown consensus method: %s", e.Method)
}
