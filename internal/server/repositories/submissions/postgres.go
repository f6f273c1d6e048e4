// Package submissions provides the PostgreSQL-backed append-only log of
// finalized intake submissions.
package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clientintake/internal/common"
	"github.com/dmitrijs2005/clientintake/internal/dbx"
	"github.com/dmitrijs2005/clientintake/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements the submission log over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts a new submission row. Only INSERTs ever touch this table.
func (r *PostgresRepository) Append(ctx context.Context, userID string, data models.SubmissionData) (*models.Submission, error) {
	sub := &models.Submission{
		ID:          uuid.NewString(),
		UserID:      userID,
		SubmittedAt: time.Now().UTC(),
		Data:        data,
		Status:      models.SubmissionStatusSubmitted,
		Version:     models.SubmissionSchemaVersion,
	}

	raw, err := json.Marshal(sub.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal submission data: %w", err)
	}

	query := `
		INSERT INTO submissions (id, user_id, submitted_at, data, status, version)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.SubmittedAt, raw, string(sub.Status), sub.Version); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return sub, nil
}

// ListAll returns the user's submissions ordered by insertion sequence.
func (r *PostgresRepository) ListAll(ctx context.Context, userID string) ([]*models.Submission, error) {
	query := `
		SELECT id, submitted_at, data, status, version FROM submissions
		WHERE user_id = $1
		ORDER BY seq
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Submission
	for rows.Next() {
		item, err := scanSubmission(rows, userID)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Latest returns the last element of the log, or common.ErrorNotFound.
func (r *PostgresRepository) Latest(ctx context.Context, userID string) (*models.Submission, error) {
	query := `
		SELECT id, submitted_at, data, status, version FROM submissions
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`

	sub := &models.Submission{UserID: userID}
	var raw []byte
	var status string

	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&sub.ID, &sub.SubmittedAt, &raw, &status, &sub.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	sub.Status = models.SubmissionStatus(status)

	if err := json.Unmarshal(raw, &sub.Data); err != nil {
		return nil, fmt.Errorf("unmarshal submission data: %w", err)
	}
	return sub, nil
}

func scanSubmission(rows *sql.Rows, userID string) (*models.Submission, error) {
	sub := &models.Submission{UserID: userID}
	var raw []byte
	var status string

	if err := rows.Scan(&sub.ID, &sub.SubmittedAt, &raw, &status, &sub.Version); err != nil {
		return nil, err
	}
	sub.Status = models.SubmissionStatus(status)

	if err := json.Unmarshal(raw, &sub.Data); err != nil {
		return nil, fmt.Errorf("unmarshal submission data: %w", err)
	}
	return sub, nil
}
