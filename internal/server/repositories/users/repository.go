package users

import (
	"context"

	"github.com/dmitrijs2005/clientintake/internal/server/models"
)

// Repository stores client accounts. The intake core only needs an account
// to produce a stable user identifier.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
