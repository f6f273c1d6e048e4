package drafts

import (
	"context"

	"github.com/dmitrijs2005/clientintake/internal/server/models"
	"github.com/dmitrijs2005/clientintake/internal/steps"
)

// Repository is durable single-slot draft storage keyed by user.
type Repository interface {
	// Save persists a draft snapshot, unconditionally replacing any prior
	// draft for the user (last write wins, no merge or conflict check).
	Save(ctx context.Context, userID string, stepIndex int, data steps.Record) (*models.Draft, error)

	// Load returns the current draft, or common.ErrorNotFound if none exists.
	Load(ctx context.Context, userID string) (*models.Draft, error)

	// Clear deletes the draft. Clearing an absent draft is not an error.
	Clear(ctx context.Context, userID string) error
}
