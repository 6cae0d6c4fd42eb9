package types

import (
	"time"

	"github.com/google/uuid"
)

// ConsensusResult is the single aggregated outcome derived from a session's
// evaluation set. It is a pure function of the evaluations, the roster and
// the method: recomputation from the same inputs yields the same result.
type ConsensusResult struct {
	SessionID                  uuid.UUID             `json:"session_id"`
	Method                     ConsensusMethod       `json:"method"`
	AggregateScore             float64               `json:"aggregate_score"`
	AggregateRecommendation    Recommendation        `json:"aggregate_recommendation"`
	PerParticipantContribution map[uuid.UUID]float64 `json:"per_participant_contribution"`
	CriterionScores            map[string]float64    `json:"criterion_scores,omitempty"`
	AgreementLevel             float64               `json:"agreement_level"` // [0,1], 1 = perfect agreement
	Round                      int                   `json:"round"`           // Delphi round this result belongs to
	Converged                  bool                  `json:"converged"`       // false only for non-terminal Delphi rounds
	ComputedAt                 time.Time             `json:"computed_at"`
}

// IsTerminal reports whether this result closes the session or requests
// another Delphi round.
func (r *ConsensusResult) IsTerminal() bool {
	return r.Converged
}
