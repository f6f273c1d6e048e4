// Package httpapi exposes the intake service as a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/clientintake/internal/logging"
	"github.com/dmitrijs2005/clientintake/internal/server/models"
	"github.com/dmitrijs2005/clientintake/internal/server/onboarding"
	"github.com/dmitrijs2005/clientintake/internal/steps"
	"github.com/go-chi/chi/v5"
)

// OnboardingService is the sequencer surface the API depends on.
type OnboardingService interface {
	Initialize(ctx context.Context, userID string) (*onboarding.Session, error)
	CompleteStep(ctx context.Context, userID string, stepID steps.ID, payload json.RawMessage) (int, error)
	Submit(ctx context.Context, userID string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, userID string) ([]*models.Submission, error)
	LatestSubmission(ctx context.Context, userID string) (*models.Submission, error)
}

// IdentityService produces user identifiers and access tokens.
type IdentityService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type HTTPServer struct {
	address    string
	logger     logging.Logger
	onboarding OnboardingService
	identity   IdentityService
	jwtSecret  []byte
}

func NewHTTPServer(address string, l logging.Logger, os OnboardingService, is IdentityService, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:    address,
		logger:     l.With("module", "http_server"),
		onboarding: os,
		identity:   is,
		jwtSecret:  []byte(secretKey),
	}
}

// Router assembles the route tree. Onboarding and submission routes require
// a bearer token; the session lookup accepts anonymous callers so a brand-new
// visitor can be pointed at the identity step.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(s.optionalAuth)
		pr.Get("/onboarding", s.handleInitialize)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireAuth)
		pr.Put("/onboarding/steps/{stepID}", s.handleCompleteStep)
		pr.Post("/onboarding/submit", s.handleSubmit)
		pr.Get("/submissions", s.handleListSubmissions)
		pr.Get("/submissions/latest", s.handleLatestSubmission)
	})

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
