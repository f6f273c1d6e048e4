// Package steps defines the fixed onboarding step catalog, the typed payload
// schema for each step, and the uniform payload validators.
//
// The catalog is an ordered, immutable list: the position of a step in the
// list is its index, and the last step is the review step that triggers
// submission.
package steps

import "encoding/json"

// ID identifies a single onboarding step.
type ID string

const (
	Identity            ID = "identity"
	Services            ID = "services"
	TrainingSetup       ID = "training-setup"
	Goals               ID = "goals"
	HealthHistory       ID = "health-history"
	Medications         ID = "medications"
	InjuryProfile       ID = "injury-profile"
	ActivityHistory     ID = "activity-history"
	CoachingPreferences ID = "coaching-preferences"
	NutritionSnapshot   ID = "nutrition-snapshot"
	Review              ID = "review"
)

// catalog holds the steps in completion order. Immutable at runtime.
var catalog = [...]ID{
	Identity,
	Services,
	TrainingSetup,
	Goals,
	HealthHistory,
	Medications,
	InjuryProfile,
	ActivityHistory,
	CoachingPreferences,
	NutritionSnapshot,
	Review,
}

// All returns the catalog in order. The result is a copy.
func All() []ID {
	out := make([]ID, len(catalog))
	copy(out, catalog[:])
	return out
}

// Count returns the total number of steps.
func Count() int {
	return len(catalog)
}

// Index returns the catalog position of id, or -1 if id is not a known step.
func Index(id ID) int {
	for i, s := range catalog {
		if s == id {
			return i
		}
	}
	return -1
}

// ByIndex returns the step at position i.
func ByIndex(i int) (ID, bool) {
	if i < 0 || i >= len(catalog) {
		return "", false
	}
	return catalog[i], true
}

// Terminal returns the last step of the catalog.
func Terminal() ID {
	return catalog[len(catalog)-1]
}

// Valid reports whether id is a member of the catalog.
func Valid(id ID) bool {
	return Index(id) >= 0
}

// Record is the accumulating per-user intake record: raw step payloads keyed
// by step. Keys are only ever added or replaced, never removed.
type Record map[ID]json.RawMessage

// Clone returns a shallow copy of the record. Payload bytes are shared; they
// are treated as immutable once stored.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of the record with payload stored under id, replacing
// any previous payload for that step only.
func (r Record) Merge(id ID, payload json.RawMessage) Record {
	out := r.Clone()
	out[id] = payload
	return out
}
