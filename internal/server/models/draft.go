// Package models holds the server-side persistence models for the intake
// service.
package models

import (
	"time"

	"github.com/dmitrijs2005/clientintake/internal/steps"
)

// DraftSchemaVersion tags persisted drafts for forward compatibility.
const DraftSchemaVersion = 1

// Draft is the single in-progress intake record for one user. At most one
// exists per user; every save replaces the previous draft wholesale.
//
// LastCompletedStep is an index into the step catalog, -1 before any step has
// been completed, and never decreases over the life of one draft.
type Draft struct {
	UserID            string
	LastCompletedStep int
	Data              steps.Record
	SavedAt           time.Time
	Version           int
}
