// Package identity is the thin account collaborator of the intake core: it
// registers a client and exchanges credentials for an access token. Its only
// job, from the sequencer's point of view, is producing a stable user id.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clientintake/internal/common"
	"github.com/dmitrijs2005/clientintake/internal/server/auth"
	"github.com/dmitrijs2005/clientintake/internal/server/config"
	"github.com/dmitrijs2005/clientintake/internal/server/models"
	"github.com/dmitrijs2005/clientintake/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	db                  *sql.DB
	repos               repomanager.RepositoryManager
	jwtSecret           []byte
	accessTokenValidity time.Duration
}

func NewService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config) *Service {
	return &Service{
		db:                  db,
		repos:               repos,
		jwtSecret:           []byte(cfg.SecretKey),
		accessTokenValidity: cfg.AccessTokenValidityDuration,
	}
}

// Register creates an account and returns it together with an access token,
// so a fresh registration can continue straight into the onboarding flow.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
	}

	user, err = s.repos.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidity)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidity)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}
