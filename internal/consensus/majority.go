package consensus

import (
	"github.com/google/uuid"

	"github.com/jonathan/hiring-panel/internal/types"
)

// MajorityVerdict returns the most frequent verdict among the votes. Ties
// break deterministically: voters are walked in the given order and the
// first vote that attains the maximum count wins. Voters without a vote are
// skipped. Returns further_review when there are no votes at all.
//
// This is the single aggregation primitive shared by session consensus and
// oversight reviewer decisions.
func MajorityVerdict(order []uuid.UUID, votes map[uuid.UUID]types.Recommendation) types.Recommendation {
	counts := make(map[types.Recommendation]int, len(votes))
	max := 0
	for _, verdict := range votes {
		counts[verdict]++
		if counts[verdict] > max {
			max = counts[verdict]
		}
	}
	if max == 0 {
		return types.RecommendFurtherReview
	}
	for _, voter := range order {
		if verdict, ok := votes[voter]; ok && counts[verdict] == max {
			return verdict
		}
	}
	return types.RecommendFurtherReview
}

// majorityVote picks the recommendation held by the most participants, with
// roster-order tie-breaking. The aggregate score is the unweighted mean of
// overall scores and every participant contributes equally.
func (e *Engine) majorityVote(session *types.EvaluationSession, ordered []types.Evaluation) (*types.ConsensusResult, error) {
	order := make([]uuid.UUID, 0, len(ordered))
	votes := make(map[uuid.UUID]types.Recommendation, len(ordered))
	total := 0.0
	for _, eval := range ordered {
		order = append(order, eval.ParticipantID)
		votes[eval.ParticipantID] = eval.Recommendation
		total += eval.OverallScore()
	}

	share := 1.0 / float64(len(ordered))
	contributions := make(map[uuid.UUID]float64, len(ordered))
	for _, eval := range ordered {
		contributions[eval.ParticipantID] = share
	}

	return &types.ConsensusResult{
		AggregateScore:             total / float64(len(ordered)),
		AggregateRecommendation:    MajorityVerdict(order, votes),
		PerParticipantContribution: contributions,
		Converged:                  true,
	}, nil
}
