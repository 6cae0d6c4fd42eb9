package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hiring-panel/internal/types"
)

// SaveRequest upserts an oversight request
func (db *DB) SaveRequest(ctx context.Context, req *types.OversightRequest) error {
	qualifications, err := json.Marshal(req.RequiredQualifications)
	if err != nil {
		return fmt.Errorf("failed to marshal qualifications: %w", err)
	}
	assigned, err := json.Marshal(req.AssignedReviewers)
	if err != nil {
		return fmt.Errorf("failed to marshal assigned reviewers: %w", err)
	}
	responses, err := json.Marshal(req.Responses)
	if err != nil {
		return fmt.Errorf("failed to marshal responses: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO oversight_requests
		   (id, decision_id, scenario, impact, status, required_reviewers,
		    required_qualifications, assigned_reviewers, responses,
		    initial_review_deadline, final_decision_deadline, escalation_deadline,
		    final_decision, created_at, completed_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (id) DO UPDATE SET
		   status = $5, assigned_reviewers = $8, responses = $9,
		   final_decision = $13, completed_at = $15, updated_at = $16`,
		req.ID, req.DecisionID, req.Scenario, req.Impact, req.Status,
		req.RequiredReviewers, qualifications, assigned, responses,
		req.Timeline.InitialReviewDeadline, req.Timeline.FinalDecisionDeadline,
		req.Timeline.EscalationDeadline, req.FinalDecision, req.CreatedAt,
		req.CompletedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save oversight request: %w", err)
	}
	return nil
}

// GetRequest retrieves an oversight request by ID, returning (nil, nil) when absent
func (db *DB) GetRequest(ctx context.Context, id uuid.UUID) (*types.OversightRequest, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, decision_id, scenario, impact, status, required_reviewers,
		        required_qualifications, assigned_reviewers, responses,
		        initial_review_deadline, final_decision_deadline, escalation_deadline,
		        final_decision, created_at, completed_at, updated_at
		 FROM oversight_requests WHERE id = $1`,
		id,
	)
	req, err := scanRequest(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get oversight request: %w", err)
	}
	return req, nil
}

// ListUnfinishedBefore retrieves non-final requests whose escalation
// deadline precedes the given instant
func (db *DB) ListUnfinishedBefore(ctx context.Context, deadline time.Time) ([]types.OversightRequest, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, decision_id, scenario, impact, status, required_reviewers,
		        required_qualifications, assigned_reviewers, responses,
		        initial_review_deadline, final_decision_deadline, escalation_deadline,
		        final_decision, created_at, completed_at, updated_at
		 FROM oversight_requests
		 WHERE escalation_deadline < $1 AND status IN ('pending', 'in_review')
		 ORDER BY escalation_deadline ASC`,
		deadline,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unfinished requests: %w", err)
	}
	defer rows.Close()

	var requests []types.OversightRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan oversight request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, nil
}

// scanRequest reads one oversight request from a row
func scanRequest(row pgx.Row) (*types.OversightRequest, error) {
	var req types.OversightRequest
	var qualifications, assigned, responses []byte
	err := row.Scan(&req.ID, &req.DecisionID, &req.Scenario, &req.Impact,
		&req.Status, &req.RequiredReviewers, &qualifications, &assigned,
		&responses, &req.Timeline.InitialReviewDeadline,
		&req.Timeline.FinalDecisionDeadline, &req.Timeline.EscalationDeadline,
		&req.FinalDecision, &req.CreatedAt, &req.CompletedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(qualifications, &req.RequiredQualifications); err != nil {
		return nil, fmt.Errorf("failed to unmarshal qualifications: %w", err)
	}
	if err := json.Unmarshal(assigned, &req.AssignedReviewers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assigned reviewers: %w", err)
	}
	if err := json.Unmarshal(responses, &req.Responses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal responses: %w", err)
	}
	return &req, nil
}
