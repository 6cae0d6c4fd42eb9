package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Recommendation is a reviewer's hiring verdict
type Recommendation string

// Recommendation values
const (
	RecommendHire          Recommendation = "hire"
	RecommendReject        Recommendation = "reject"
	RecommendFurtherReview Recommendation = "further_review"
)

// BiasAnnotation carries the output of the external bias/term scorer.
// The consensus and oversight logic treats it as opaque input data.
type BiasAnnotation struct {
	Score        float64  `json:"score"`
	FlaggedTerms []string `json:"flagged_terms,omitempty"`
}

// Evaluation is one reviewer's scorecard for a session. At most one
// evaluation exists per (session, participant) pair; resubmission while
// the session is collecting replaces the earlier one.
type Evaluation struct {
	SessionID      uuid.UUID          `json:"session_id"`
	ParticipantID  uuid.UUID          `json:"participant_id"`
	Scores         map[string]float64 `json:"scores"` // criterion name -> [0,100]
	Recommendation Recommendation     `json:"recommendation"`
	Confidence     float64            `json:"confidence"` // [0,1]
	Comments       string             `json:"comments,omitempty"`
	BiasAnnotation *BiasAnnotation    `json:"bias_annotation,omitempty"`
	Extensions     map[string]any     `json:"extensions,omitempty"` // forward-compatible fields, schema-validated at the boundary
	SubmittedAt    time.Time          `json:"submitted_at"`
}

// OverallScore returns the unweighted mean of all criterion scores,
// or 0 when no criteria were scored.
func (e *Evaluation) OverallScore() float64 {
	if len(e.Scores) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range e.Scores {
		total += s
	}
	return total / float64(len(e.Scores))
}

// SubmitEvaluationRequest is the boundary input for submitting an evaluation.
// Confidence is a pointer so an omitted value can default to 1.0.
type SubmitEvaluationRequest struct {
	Scores         map[string]float64 `json:"scores" validate:"required,min=1,dive,gte=0,lte=100"`
	Recommendation Recommendation     `json:"recommendation" validate:"required,oneof=hire reject further_review"`
	Confidence     *float64           `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Comments       string             `json:"comments,omitempty"`
	Extensions     map[string]any     `json:"extensions,omitempty"`
}

// Validate validates the SubmitEvaluationRequest using the validator.
func (r *SubmitEvaluationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// EffectiveConfidence returns the submitted confidence, defaulting to 1.0.
func (r *SubmitEvaluationRequest) EffectiveConfidence() float64 {
	if r.Confidence == nil {
		return 1.0
	}
	return *r.Confidence
}
