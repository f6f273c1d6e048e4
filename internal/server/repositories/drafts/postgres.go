// Package drafts provides the PostgreSQL-backed repository for in-progress
// intake drafts.
package drafts

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
	"github.com/dmitrijs2005/clientintake/internal/steps"
)

// PostgresRepository implements draft storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save upserts the single draft row for userID. The whole row is replaced;
// concurrent sessions for the same user are not reconciled.
func (r *PostgresRepository) Save(ctx context.Context, userID string, stepIndex int, data steps.Record) (*models.Draft, error) {
	draft := &models.Draft{
		UserID:            userID,
		LastCompletedStep: stepIndex,
		Data:              data.Clone(),
		SavedAt:           time.Now().UTC(),
		Version:           models.DraftSchemaVersion,
	}

	raw, err := json.Marshal(draft.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal draft data: %w", err)
	}

	query := `
		INSERT INTO drafts (user_id, last_completed_step, data, saved_at, version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET
			last_completed_step = EXCLUDED.last_completed_step,
			data = EXCLUDED.data,
			saved_at = EXCLUDED.saved_at,
			version = EXCLUDED.version;
	`
	if _, err := r.db.ExecContext(ctx, query,
		draft.UserID, draft.LastCompletedStep, raw, draft.SavedAt, draft.Version); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return draft, nil
}

// Load returns the draft for userID, or common.ErrorNotFound.
func (r *PostgresRepository) Load(ctx context.Context, userID string) (*models.Draft, error) {
	query := `
		SELECT last_completed_step, data, saved_at, version FROM drafts
		WHERE user_id = $1
	`

	draft := &models.Draft{UserID: userID}
	var raw []byte

	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&draft.LastCompletedStep, &raw, &draft.SavedAt, &draft.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(raw, &draft.Data); err != nil {
		return nil, fmt.Errorf("unmarshal draft data: %w", err)
	}

	return draft, nil
}

// Clear removes the draft row. Idempotent.
func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
