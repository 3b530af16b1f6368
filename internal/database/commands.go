package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ganderhq/gander/internal/models"
)

// CommandRequestRepository handles command request database operations
type CommandRequestRepository struct {
	db *DB
}

// NewCommandRequestRepository creates a new command request repository
func NewCommandRequestRepository(db *DB) *CommandRequestRepository {
	return &CommandRequestRepository{db: db}
}

// Create inserts a new command request
func (r *CommandRequestRepository) Create(ctx context.Context, req *models.CommandRequest) error {
	query := `
		INSERT INTO command_requests (id, utterance, timezone, reference_time, status, draft, command, diagnostics, reject_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	draftJSON, commandJSON, err := marshalPayloads(req)
	if err != nil {
		return err
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		req.ID,
		req.Utterance,
		req.Timezone,
		req.ReferenceTime,
		req.Status,
		draftJSON,
		commandJSON,
		pq.Array(req.Diagnostics),
		req.RejectReason,
		now,
		now,
	).Scan(&req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create command request: %w", err)
	}

	return nil
}

// GetByID retrieves a command request by ID
func (r *CommandRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CommandRequest, error) {
	query := `
		SELECT id, utterance, timezone, reference_time, status, draft, command, diagnostics, reject_reason, created_at, updated_at
		FROM command_requests
		WHERE id = $1
	`

	req := &models.CommandRequest{}
	var draftJSON, commandJSON []byte
	var diagnostics pq.StringArray
	var rejectReason sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.Utterance,
		&req.Timezone,
		&req.ReferenceTime,
		&req.Status,
		&draftJSON,
		&commandJSON,
		&diagnostics,
		&rejectReason,
		&req.CreatedAt,
		&req.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("command request not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get command request: %w", err)
	}

	if err := unmarshalPayloads(req, draftJSON, commandJSON); err != nil {
		return nil, err
	}
	req.Diagnostics = diagnostics
	if rejectReason.Valid {
		req.RejectReason = rejectReason.String
	}

	return req, nil
}

// Update persists the request's status and derived payloads
func (r *CommandRequestRepository) Update(ctx context.Context, req *models.CommandRequest) error {
	query := `
		UPDATE command_requests
		SET status = $2, draft = $3, command = $4, diagnostics = $5, reject_reason = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at
	`

	draftJSON, commandJSON, err := marshalPayloads(req)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, query,
		req.ID,
		req.Status,
		draftJSON,
		commandJSON,
		pq.Array(req.Diagnostics),
		req.RejectReason,
		time.Now(),
	).Scan(&req.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("command request not found: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to update command request: %w", err)
	}

	return nil
}

// ListRecent returns the most recently created requests, optionally
// filtered by status
func (r *CommandRequestRepository) ListRecent(ctx context.Context, status *models.RequestStatus, limit int) ([]*models.CommandRequest, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, utterance, timezone, reference_time, status, draft, command, diagnostics, reject_reason, created_at, updated_at
		FROM command_requests
	`
	args := []any{}
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, string(*status))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query command requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.CommandRequest
	for rows.Next() {
		req := &models.CommandRequest{}
		var draftJSON, commandJSON []byte
		var diagnostics pq.StringArray
		var rejectReason sql.NullString

		err := rows.Scan(
			&req.ID,
			&req.Utterance,
			&req.Timezone,
			&req.ReferenceTime,
			&req.Status,
			&draftJSON,
			&commandJSON,
			&diagnostics,
			&rejectReason,
			&req.CreatedAt,
			&req.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan command request: %w", err)
		}

		if err := unmarshalPayloads(req, draftJSON, commandJSON); err != nil {
			return nil, err
		}
		req.Diagnostics = diagnostics
		if rejectReason.Valid {
			req.RejectReason = rejectReason.String
		}

		out = append(out, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating command requests: %w", err)
	}

	return out, nil
}

func marshalPayloads(req *models.CommandRequest) ([]byte, []byte, error) {
	var draftJSON, commandJSON []byte
	var err error

	if req.Draft != nil {
		if draftJSON, err = json.Marshal(req.Draft); err != nil {
			return nil, nil, fmt.Errorf("failed to marshal draft: %w", err)
		}
	}
	if req.Command != nil {
		if commandJSON, err = json.Marshal(req.Command); err != nil {
			return nil, nil, fmt.Errorf("failed to marshal command: %w", err)
		}
	}
	return draftJSON, commandJSON, nil
}

func unmarshalPayloads(req *models.CommandRequest, draftJSON, commandJSON []byte) error {
	if len(draftJSON) > 0 {
		req.Draft = &models.DraftCommand{}
		if err := json.Unmarshal(draftJSON, req.Draft); err != nil {
			return fmt.Errorf("failed to unmarshal draft: %w", err)
		}
	}
	if len(commandJSON) > 0 {
		req.Command = &models.StructuredCommand{}
		if err := json.Unmarshal(commandJSON, req.Command); err != nil {
			return fmt.Errorf("failed to unmarshal command: %w", err)
		}
	}
	return nil
}
