package models

import (
	"time"

	"github.com/dmitrijs2005/clientintake/internal/flags"
	"github.com/dmitrijs2005/clientintake/internal/steps"
)

// SubmissionSchemaVersion tags persisted submissions.
const SubmissionSchemaVersion = 1

type SubmissionStatus string

const SubmissionStatusSubmitted SubmissionStatus = "submitted"

// SubmissionData is the frozen intake record plus the flags derived from it
// at submission time.
type SubmissionData struct {
	Steps steps.Record      `json:"steps"`
	Flags flags.ClientFlags `json:"flags"`
}

// Submission is one element of a user's append-only submission log. It is
// never mutated or deleted once written.
type Submission struct {
	ID          string
	UserID      string
	SubmittedAt time.Time
	Data        SubmissionData
	Status      SubmissionStatus
	Version     int
}
