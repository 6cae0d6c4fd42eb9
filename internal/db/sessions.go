package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hiring-panel/internal/types"
)

// SaveSession upserts a session record
func (db *DB) SaveSession(ctx context.Context, session *types.EvaluationSession) error {
	participants, err := json.Marshal(session.Participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO evaluation_sessions
		   (id, candidate_id, job_id, session_type, participants, state,
		    consensus_method, decision_impact, delphi_round, cancel_reason,
		    created_at, deadline_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
		   participants = $5, state = $6, consensus_method = $7,
		   decision_impact = $8, delphi_round = $9, cancel_reason = $10,
		   updated_at = $13`,
		session.ID, session.CandidateID, session.JobID, session.SessionType,
		participants, session.State, session.ConsensusMethod,
		session.DecisionImpact, session.DelphiRound, session.CancelReason,
		session.CreatedAt, session.DeadlineAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID, returning (nil, nil) when absent
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*types.EvaluationSession, error) {
	var session types.EvaluationSession
	var participants []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, candidate_id, job_id, session_type, participants, state,
		        consensus_method, decision_impact, delphi_round, cancel_reason,
		        created_at, deadline_at, updated_at
		 FROM evaluation_sessions WHERE id = $1`,
		id,
	).Scan(&session.ID, &session.CandidateID, &session.JobID, &session.SessionType,
		&participants, &session.State, &session.ConsensusMethod,
		&session.DecisionImpact, &session.DelphiRound, &session.CancelReason,
		&session.CreatedAt, &session.DeadlineAt, &session.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if err := json.Unmarshal(participants, &session.Participants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants: %w", err)
	}
	return &session, nil
}

// DeleteSession removes a session and its evaluations and consensus result (via cascade)
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM evaluation_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SaveEvaluation upserts the evaluation for its (session, participant) pair
func (db *DB) SaveEvaluation(ctx context.Context, eval *types.Evaluation) error {
	scores, err := json.Marshal(eval.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}
	var annotation []byte
	if eval.BiasAnnotation != nil {
		annotation, err = json.Marshal(eval.BiasAnnotation)
		if err != nil {
			return fmt.Errorf("failed to marshal bias annotation: %w", err)
		}
	}
	var extensions []byte
	if eval.Extensions != nil {
		extensions, err = json.Marshal(eval.Extensions)
		if err != nil {
			return fmt.Errorf("failed to marshal extensions: %w", err)
		}
	}

	// created_at is set on the first insert only and never touched by the
	// upsert, so it pins the participant's first-submission instant.
	_, err = db.pool.Exec(ctx,
		`INSERT INTO evaluations
		   (session_id, participant_id, scores, recommendation, confidence,
		    comments, bias_annotation, extensions, submitted_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 ON CONFLICT (session_id, participant_id) DO UPDATE SET
		   scores = $3, recommendation = $4, confidence = $5, comments = $6,
		   bias_annotation = $7, extensions = $8, submitted_at = $9`,
		eval.SessionID, eval.ParticipantID, scores, eval.Recommendation,
		eval.Confidence, eval.Comments, annotation, extensions, eval.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	return nil
}

// ListEvaluations retrieves a session's evaluations in first-submission
// order, using the insert-only created_at written by SaveEvaluation so a
// resubmission keeps its original position
func (db *DB) ListEvaluations(ctx context.Context, sessionID uuid.UUID) ([]types.Evaluation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT session_id, participant_id, scores, recommendation, confidence,
		        comments, bias_annotation, extensions, submitted_at
		 FROM evaluations WHERE session_id = $1 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var evals []types.Evaluation
	for rows.Next() {
		var eval types.Evaluation
		var scores, annotation, extensions []byte
		if err := rows.Scan(&eval.SessionID, &eval.ParticipantID, &scores,
			&eval.Recommendation, &eval.Confidence, &eval.Comments,
			&annotation, &extensions, &eval.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		if err := json.Unmarshal(scores, &eval.Scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
		}
		if len(annotation) > 0 {
			if err := json.Unmarshal(annotation, &eval.BiasAnnotation); err != nil {
				return nil, fmt.Errorf("failed to unmarshal bias annotation: %w", err)
			}
		}
		if len(extensions) > 0 {
			if err := json.Unmarshal(extensions, &eval.Extensions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal extensions: %w", err)
			}
		}
		evals = append(evals, eval)
	}
	return evals, nil
}

// SaveConsensusResult upserts the session's consensus result
func (db *DB) SaveConsensusResult(ctx context.Context, result *types.ConsensusResult) error {
	contributions, err := json.Marshal(result.PerParticipantContribution)
	if err != nil {
		return fmt.Errorf("failed to marshal contributions: %w", err)
	}
	criterionScores, err := json.Marshal(result.CriterionScores)
	if err != nil {
		return fmt.Errorf("failed to marshal criterion scores: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO consensus_results
		   (session_id, method, aggregate_score, aggregate_recommendation,
		    contributions, criterion_scores, agreement_level, round, converged, computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (session_id) DO UPDATE SET
		   method = $2, aggregate_score = $3, aggregate_recommendation = $4,
		   contributions = $5, criterion_scores = $6, agreement_level = $7,
		   round = $8, converged = $9, computed_at = $10`,
		result.SessionID, result.Method, result.AggregateScore,
		result.AggregateRecommendation, contributions, criterionScores,
		result.AgreementLevel, result.Round, result.Converged, result.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save consensus result: %w", err)
	}
	return nil
}

// GetConsensusResult retrieves the session's consensus result, returning
// (nil, nil) when absent
func (db *DB) GetConsensusResult(ctx context.Context, sessionID uuid.UUID) (*types.ConsensusResult, error) {
	var result types.ConsensusResult
	var contributions, criterionScores []byte
	err := db.pool.QueryRow(ctx,
		`SELECT session_id, method, aggregate_score, aggregate_recommendation,
		        contributions, criterion_scores, agreement_level, round, converged, computed_at
		 FROM consensus_results WHERE session_id = $1`,
		sessionID,
	).Scan(&result.SessionID, &result.Method, &result.AggregateScore,
		&result.AggregateRecommendation, &contributions, &criterionScores,
		&result.AgreementLevel, &result.Round, &result.Converged, &result.ComputedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get consensus result: %w", err)
	}
	if err := json.Unmarshal(contributions, &result.PerParticipantContribution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contributions: %w", err)
	}
	if len(criterionScores) > 0 {
		if err := json.Unmarshal(criterionScores, &result.CriterionScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal criterion scores: %w", err)
		}
	}
	return &result, nil
}
