// Package consensus aggregates a session's independent evaluations into a
// single outcome under a selectable strategy. Computation is a pure function
// of the evaluation set, the roster and the configuration: no state is
// carried between calls and recomputation yields identical results.
package consensus

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hiring-panel/internal/config"
	"github.com/jonathan/hiring-panel/internal/types"
)

// Engine computes consensus results. It holds only configuration.
type Engine struct {
	cfg config.ConsensusConfig
}

// NewEngine creates a consensus engine with the given configuration.
func NewEngine(cfg config.ConsensusConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Compute aggregates the session's evaluations under the given method.
// Evaluations from participants not on the roster are ignored.
func (e *Engine) Compute(session *types.EvaluationSession, evals []types.Evaluation, method types.ConsensusMethod) (*types.ConsensusResult, error) {
	ordered := orderByRoster(session, evals)
	if len(ordered) == 0 || len(ordered) < e.cfg.MinEvaluations {
		return nil, &ErrInsufficientEvaluations{Got: len(ordered), Need: e.cfg.MinEvaluations}
	}

	var result *types.ConsensusResult
	var err error
	switch method {
	case types.MethodWeightedAverage:
		result, err = e.weightedAverage(session, ordered)
	case types.MethodMajorityVote:
		result, err = e.majorityVote(session, ordered)
	case types.MethodDelphi:
		result, err = e.delphiRound(session, ordered)
	default:
		return nil, &ErrUnknownMethod{Method: string(method)}
	}
	if err != nil {
		return nil, err
	}

	result.SessionID = session.ID
	result.Method = method
	result.AgreementLevel = agreementLevel(ordered)
	result.ComputedAt = time.Now()
	return result, nil
}

// orderByRoster returns the evaluations of roster members in roster order.
func orderByRoster(session *types.EvaluationSession, evals []types.Evaluation) []types.Evaluation {
	byParticipant := make(map[uuid.UUID]types.Evaluation, len(evals))
	for _, eval := range evals {
		byParticipant[eval.ParticipantID] = eval
	}
	ordered := make([]types.Evaluation, 0, len(evals))
	for _, p := range session.Participants {
		if eval, ok := byParticipant[p.ID]; ok {
			ordered = append(ordered, eval)
		}
	}
	return ordered
}

// weightedAverage aggregates per criterion using weight x confidence as the
// effective weight, then combines criterion aggregates into one score mapped
// through the configured recommendation bands.
func (e *Engine) weightedAverage(session *types.EvaluationSession, ordered []types.Evaluation) (*types.ConsensusResult, error) {
	totalWeight := 0.0
	effective := make([]float64, len(ordered))
	for i, eval := range ordered {
		effective[i] = session.ParticipantWeight(eval.ParticipantID) * eval.Confidence
		totalWeight += effective[i]
	}
	if totalWeight == 0 {
		return nil, &ErrDegenerateWeighting{}
	}

	// Stable criterion iteration keeps floating-point summation order fixed.
	criteria := criterionNames(ordered)
	criterionScores := make(map[string]float64, len(criteria))
	combined := 0.0
	combinedCount := 0
	for _, criterion := range criteria {
		sum, weight := 0.0, 0.0
		for i, eval := range ordered {
			if score, ok := eval.Scores[criterion]; ok {
				sum += effective[i] * score
				weight += effective[i]
			}
		}
		if weight == 0 {
			continue // only zero-weight reviewers scored this criterion
		}
		criterionScores[criterion] = sum / weight
		combined += criterionScores[criterion]
		combinedCount++
	}
	if combinedCount == 0 {
		return nil, &ErrDegenerateWeighting{}
	}
	aggregate := combined / float64(combinedCount)

	contributions := make(map[uuid.UUID]float64, len(ordered))
	for i, eval := range ordered {
		contributions[eval.ParticipantID] = effective[i] / totalWeight
	}

	return &types.ConsensusResult{
		AggregateScore:             aggregate,
		AggregateRecommendation:    e.bandFor(aggregate),
		PerParticipantContribution: contributions,
		CriterionScores:            criterionScores,
		Converged:                  true,
	}, nil
}

// bandFor maps a combined score through the configured recommendation bands.
func (e *Engine) bandFor(score float64) types.Recommendation {
	switch {
	case score >= e.cfg.HireThreshold:
		return types.RecommendHire
	case score <= e.cfg.RejectThreshold:
		return types.RecommendReject
	default:
		return types.RecommendFurtherReview
	}
}

// criterionNames returns the sorted union of criterion names across evaluations.
func criterionNames(evals []types.Evaluation) []string {
	seen := make(map[string]bool)
	for _, eval := range evals {
		for criterion := range eval.Scores {
			seen[criterion] = true
		}
	}
	names := make([]string, 0, len(seen))
	for criterion := range seen {
		names = append(names, criterion)
	}
	sort.Strings(names)
	return names
}
