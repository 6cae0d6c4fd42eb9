package consensus

import (
	"math"

	"github.com/jonathan/hiring-panel/internal/types"
)

// maxScoreStdDev is the largest possible population standard deviation of
// scores in [0,100]: half the reviewers at 0 and half at 100.
const maxScoreStdDev = 50.0

// agreementLevel measures how closely reviewers' overall scores cluster:
// 1 - the normalized population standard deviation, clamped to [0,1].
// A single evaluation has perfect agreement.
func agreementLevel(evals []types.Evaluation) float64 {
	if len(evals) < 2 {
		return 1.0
	}

	mean := 0.0
	for _, eval := range evals {
		mean += eval.OverallScore()
	}
	mean /= float64(len(evals))

	variance := 0.0
	for _, eval := range evals {
		diff := eval.OverallScore() - mean
		variance += diff * diff
	}
	variance /= float64(len(evals))

	agreement := 1.0 - math.Sqrt(variance)/maxScoreStdDev
	if agreement < 0 {
		return 0
	}
	if agreement > 1 {
		return 1
	}
	return agreement
}
