package consensus

import (
	"github.com/jonathan/hiring-panel/internal/types"
)

// delphiRound evaluates one Delphi iteration. While reviewer scores have not
// converged and the round cap has not been reached, the result is a
// non-terminal further_review: the session stays open for resubmission and a
// new round is implicitly requested. Once agreement reaches the configured
// threshold, or the maximum round count is hit, the round is terminal and
// the weighted-average path produces the final recommendation.
func (e *Engine) delphiRound(session *types.EvaluationSession, ordered []types.Evaluation) (*types.ConsensusResult, error) {
	round := session.DelphiRound + 1
	agreement := agreementLevel(ordered)

	if agreement < e.cfg.DelphiConvergence && round < e.cfg.DelphiMaxRounds {
		result, err := e.weightedAverage(session, ordered)
		if err != nil {
			return nil, err
		}
		result.AggregateRecommendation = types.RecommendFurtherReview
		result.Round = round
		result.Converged = false
		return result, nil
	}

	result, err := e.weightedAverage(session, ordered)
	if err != nil {
		return nil, err
	}
	result.Round = round
	result.Converged = true
	return result, nil
}
