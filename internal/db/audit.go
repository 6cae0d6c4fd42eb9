package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hiring-panel/internal/store"
	"github.com/jonathan/hiring-panel/internal/types"
)

// AppendEntry inserts one audit entry. Entries are insert-only; there is no
// update or delete path.
func (db *DB) AppendEntry(ctx context.Context, entry *types.AuditEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}
	flags, err := json.Marshal(entry.ComplianceFlags)
	if err != nil {
		return fmt.Errorf("failed to marshal compliance flags: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO audit_entries
		   (id, action, actor, resource, changes, ethical_impact, compliance_flags, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.Action, entry.Actor, entry.Resource, changes,
		entry.EthicalImpact, flags, entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListEntries retrieves audit entries matching the filter in append order
func (db *DB) ListEntries(ctx context.Context, filter store.AuditFilter) ([]types.AuditEntry, error) {
	query := `SELECT id, action, actor, resource, changes, ethical_impact, compliance_flags, recorded_at
		FROM audit_entries WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.Resource != "" {
		query += fmt.Sprintf(" AND resource = $%d", argNum)
		args = append(args, filter.Resource)
		argNum++
	}
	if filter.Actor != "" {
		query += fmt.Sprintf(" AND actor = $%d", argNum)
		args = append(args, filter.Actor)
		argNum++
	}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argNum)
		args = append(args, filter.Action)
		argNum++
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND recorded_at >= $%d", argNum)
		args = append(args, filter.From)
		argNum++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND recorded_at <= $%d", argNum)
		args = append(args, filter.To)
		argNum++
	}

	query += " ORDER BY id ASC"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []types.AuditEntry
	for rows.Next() {
		var entry types.AuditEntry
		var changes, flags []byte
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Actor, &entry.Resource,
			&changes, &entry.EthicalImpact, &flags, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &entry.Changes); err != nil {
				return nil, fmt.Errorf("failed to unmarshal changes: %w", err)
			}
		}
		if len(flags) > 0 {
			if err := json.Unmarshal(flags, &entry.ComplianceFlags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal compliance flags: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SaveViolation upserts a violation record. Only the resolve operation
// produces an update, stamping resolved_at and the resolution.
func (db *DB) SaveViolation(ctx context.Context, record *types.ViolationRecord) error {
	entities, err := json.Marshal(record.AffectedEntities)
	if err != nil {
		return fmt.Errorf("failed to marshal affected entities: %w", err)
	}
	var resolution []byte
	if record.Resolution != nil {
		resolution, err = json.Marshal(record.Resolution)
		if err != nil {
			return fmt.Errorf("failed to marshal resolution: %w", err)
		}
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO violations
		   (id, type, severity, description, affected_entities, detected_at, resolved_at, resolution)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET resolved_at = $7, resolution = $8`,
		record.ID, record.Type, record.Severity, record.Description,
		entities, record.DetectedAt, record.ResolvedAt, resolution,
	)
	if err != nil {
		return fmt.Errorf("failed to save violation: %w", err)
	}
	return nil
}

// GetViolation retrieves a violation record by ID, returning (nil, nil) when absent
func (db *DB) GetViolation(ctx context.Context, id uuid.UUID) (*types.ViolationRecord, error) {
	var record types.ViolationRecord
	var entities, resolution []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, type, severity, description, affected_entities, detected_at, resolved_at, resolution
		 FROM violations WHERE id = $1`,
		id,
	).Scan(&record.ID, &record.Type, &record.Severity, &record.Description,
		&entities, &record.DetectedAt, &record.ResolvedAt, &resolution)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get violation: %w", err)
	}
	if err := json.Unmarshal(entities, &record.AffectedEntities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal affected entities: %w", err)
	}
	if len(resolution) > 0 {
		if err := json.Unmarshal(resolution, &record.Resolution); err != nil {
			return nil, fmt.Errorf("failed to unmarshal resolution: %w", err)
		}
	}
	return &record, nil
}

// ListViolations retrieves violation records matching the filter
func (db *DB) ListViolations(ctx context.Context, filter store.ViolationFilter) ([]types.ViolationRecord, error) {
	query := `SELECT id, type, severity, description, affected_entities, detected_at, resolved_at, resolution
		FROM violations WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.Severity != "" {
		query += fmt.Sprintf(" AND severity = $%d", argNum)
		args = append(args, filter.Severity)
		argNum++
	}
	if filter.Entity != "" {
		query += fmt.Sprintf(" AND affected_entities @> $%d", argNum)
		entity, err := json.Marshal([]string{filter.Entity})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal entity filter: %w", err)
		}
		args = append(args, entity)
		argNum++
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND detected_at >= $%d", argNum)
		args = append(args, filter.From)
		argNum++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND detected_at <= $%d", argNum)
		args = append(args, filter.To)
		argNum++
	}

	query += " ORDER BY detected_at ASC"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	defer rows.Close()

	var records []types.ViolationRecord
	for rows.Next() {
		var record types.ViolationRecord
		var entities, resolution []byte
		if err := rows.Scan(&record.ID, &record.Type, &record.Severity,
			&record.Description, &entities, &record.DetectedAt,
			&record.ResolvedAt, &resolution); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		if err := json.Unmarshal(entities, &record.AffectedEntities); err != nil {
			return nil, fmt.Errorf("failed to unmarshal affected entities: %w", err)
		}
		if len(resolution) > 0 {
			if err := json.Unmarshal(resolution, &record.Resolution); err != nil {
				return nil, fmt.Errorf("failed to unmarshal resolution: %w", err)
			}
		}
		records = append(records, record)
	}
	return records, nil
}
