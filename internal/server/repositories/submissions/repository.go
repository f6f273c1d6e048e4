package submissions

import (
	"context"

	"github.com/dmitrijs2005/clientintake/internal/server/models"
)

// Repository is the append-only submission log. Submissions are never
// mutated or deleted once written; insertion order is chronological order.
type Repository interface {
	// Append writes a new submission with a fresh id and timestamp and
	// returns it. Prior submissions are never inspected or touched, so two
	// rapid submits both land in the log under distinct ids.
	Append(ctx context.Context, userID string, data models.SubmissionData) (*models.Submission, error)

	// ListAll returns the user's submissions in insertion order.
	ListAll(ctx context.Context, userID string) ([]*models.Submission, error)

	// Latest returns the newest submission, or common.ErrorNotFound if the
	// log is empty.
	Latest(ctx context.Context, userID string) (*models.Submission, error)
}
