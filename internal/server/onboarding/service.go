// Package onboarding implements the intake step sequencer: it decides where
// a session starts, gates step completion on validation, accumulates the
// per-user record in the draft store, and turns a finished draft into an
// immutable submission.
package onboarding

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clientintake/internal/common"
	"github.com/dmitrijs2005/clientintake/internal/dbx"
	"github.com/dmitrijs2005/clientintake/internal/flags"
	"github.com/dmitrijs2005/clientintake/internal/logging"
	"github.com/dmitrijs2005/clientintake/internal/server/models"
	"github.com/dmitrijs2005/clientintake/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clientintake/internal/steps"
)

// Archiver exports a finalized submission to external storage. Export
// failures never affect the outcome of a submit.
type Archiver interface {
	Export(ctx context.Context, sub *models.Submission) error
}

// Service orchestrates one user's progression through the step catalog.
type Service struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	logger   logging.Logger
	archiver Archiver
}

// NewService constructs the sequencer. archiver may be nil.
func NewService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger, archiver Archiver) *Service {
	return &Service{
		db:       db,
		repos:    repos,
		logger:   logger.With("module", "onboarding"),
		archiver: archiver,
	}
}

// Session tells the caller where to resume and what has been collected so far.
type Session struct {
	StartIndex int          `json:"startIndex"`
	Data       steps.Record `json:"data"`
}

// Initialize resolves the resume point for a user. An unidentified caller
// starts at the identity step; an identified caller with no draft skips it;
// an existing draft resumes one past its high-water mark.
func (s *Service) Initialize(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return &Session{StartIndex: 0, Data: steps.Record{}}, nil
	}

	draft, err := s.repos.Drafts(s.db).Load(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return &Session{StartIndex: 1, Data: steps.Record{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	start := draft.LastCompletedStep + 1
	if start > steps.Count()-1 {
		start = steps.Count() - 1
	}
	if start < 0 {
		start = 0
	}

	return &Session{StartIndex: start, Data: draft.Data}, nil
}

// CompleteStep validates payload for stepID and, on success, merges it into
// the draft and persists a snapshot. Nothing is written when validation
// fails, so re-submitting the same step with the same payload is idempotent.
// Completing a step more than one position past the draft's high-water mark
// is rejected as out of sequence; re-completing an earlier step is allowed
// and replaces that step's payload only.
//
// The returned index is the next step to show, saturating at the terminal
// step: reaching the review step never auto-advances into submission.
func (s *Service) CompleteStep(ctx context.Context, userID string, stepID steps.ID, payload json.RawMessage) (int, error) {
	if userID == "" {
		return 0, common.ErrorUnauthorized
	}

	idx := steps.Index(stepID)
	if idx < 0 {
		return 0, fmt.Errorf("unknown step %q", stepID)
	}

	validate, ok := steps.ValidatorFor(stepID)
	if !ok {
		return 0, fmt.Errorf("no validator for step %q", stepID)
	}
	if res := validate(payload); !res.Valid {
		return 0, &steps.ValidationError{StepID: stepID, Fields: res.Errors}
	}

	repo := s.repos.Drafts(s.db)

	last := -1
	data := steps.Record{}
	draft, err := repo.Load(ctx, userID)
	switch {
	case err == nil:
		last = draft.LastCompletedStep
		data = draft.Data
	case errors.Is(err, common.ErrorNotFound):
	default:
		return 0, fmt.Errorf("load draft: %w", err)
	}

	if idx > last+1 {
		return 0, fmt.Errorf("%w: %s completed at position %d", common.ErrorOutOfSequence, stepID, last)
	}

	// high-water mark never moves backward, even when an earlier step is
	// re-edited
	newLast := max(last, idx)

	if _, err := repo.Save(ctx, userID, newLast, data.Merge(stepID, payload)); err != nil {
		return 0, fmt.Errorf("save draft: %w", err)
	}

	s.logger.Debug(ctx, "step completed", "user_id", userID, "step", stepID, "last_completed", newLast)

	next := idx + 1
	if next > steps.Count()-1 {
		next = steps.Count() - 1
	}
	return next, nil
}

// GoBack returns the previous step index with a floor of zero. Navigating
// backward is purely a view concern: the draft keeps its data and its
// high-water mark.
func (s *Service) GoBack(current int) int {
	if current <= 0 {
		return 0
	}
	return current - 1
}

// Submit finalizes the draft: flags are derived over the accumulated record,
// a submission is appended, and the draft is cleared. Append and clear run in
// one transaction, so a failed append leaves the draft intact for retry.
func (s *Service) Submit(ctx context.Context, userID string) (*models.Submission, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}

	draft, err := s.repos.Drafts(s.db).Load(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("no draft to submit: %w", common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	// the terminal review step must be the current step
	if draft.LastCompletedStep < steps.Count()-2 {
		return nil, fmt.Errorf("%w: completed through position %d", common.ErrorReviewNotReached, draft.LastCompletedStep)
	}

	data := models.SubmissionData{
		Steps: draft.Data,
		Flags: flags.Derive(draft.Data, time.Now().UTC()),
	}

	var sub *models.Submission
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		appended, err := s.repos.Submissions(tx).Append(ctx, userID, data)
		if err != nil {
			return fmt.Errorf("append submission: %w", err)
		}
		if err := s.repos.Drafts(tx).Clear(ctx, userID); err != nil {
			return fmt.Errorf("clear draft: %w", err)
		}
		sub = appended
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "submission created", "user_id", userID, "submission_id", sub.ID)

	if s.archiver != nil {
		if err := s.archiver.Export(ctx, sub); err != nil {
			s.logger.Warn(ctx, "submission archive export failed", "submission_id", sub.ID, "error", err.Error())
		}
	}

	return sub, nil
}

// ListSubmissions returns the user's full submission log in order.
func (s *Service) ListSubmissions(ctx context.Context, userID string) ([]*models.Submission, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}
	return s.repos.Submissions(s.db).ListAll(ctx, userID)
}

// LatestSubmission returns the newest submission, or common.ErrorNotFound.
func (s *Service) LatestSubmission(ctx context.Context, userID string) (*models.Submission, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}
	return s.repos.Submissions(s.db).Latest(ctx, userID)
}
