// Package flags derives operational client flags from an aggregated intake
// record. Derivation is a pure function: it performs no I/O, never fails, and
// treats absent or undecodable step payloads as "no data".
package flags

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/clientintake/internal/steps"
)

// YouthAgeCutoff is the age below which a client is flagged as a youth client.
const YouthAgeCutoff = 18

// ClientFlags routes downstream coaching logic. Computed once at submission
// time and frozen into the submission payload; recomputable from the same
// record at any point.
type ClientFlags struct {
	HasMedicalRedFlags          bool `json:"hasMedicalRedFlags"`
	RequiresInjuryModifications bool `json:"requiresInjuryModifications"`
	LimitedEquipmentAccess      bool `json:"limitedEquipmentAccess"`
	IsYouthClient               bool `json:"isYouthClient"`
	IsAthlete                   bool `json:"isAthlete"`
	IsPostRehab                 bool `json:"isPostRehab"`
}

// Derive computes the flag set over rec. asOf anchors the age calculation so
// that the result is a deterministic function of its inputs.
//
// The identity step stores a date of birth rather than an age, so the youth
// flag is computed from dateOfBirth here. The source system read an age field
// that nothing populated, leaving the flag permanently false.
func Derive(rec steps.Record, asOf time.Time) ClientFlags {
	var f ClientFlags

	if health, ok := decode[steps.HealthHistoryPayload](rec, steps.HealthHistory); ok {
		f.HasMedicalRedFlags = health.Diabetes || health.Hypertension ||
			health.Cardiovascular || health.Asthma || health.Arthritis
	}

	if injuries, ok := decode[steps.InjuryProfilePayload](rec, steps.InjuryProfile); ok {
		f.RequiresInjuryModifications = len(injuries.Injuries) > 0
		for _, inj := range injuries.Injuries {
			if inj.Status == steps.InjuryRecovering || inj.Status == steps.InjuryPostSurgery {
				f.IsPostRehab = true
				break
			}
		}
	}

	if setup, ok := decode[steps.TrainingSetupPayload](rec, steps.TrainingSetup); ok {
		f.LimitedEquipmentAccess = len(setup.Equipment) <= 1
	}

	if identity, ok := decode[steps.IdentityPayload](rec, steps.Identity); ok {
		if dob, err := time.Parse(steps.DateLayout, identity.DateOfBirth); err == nil {
			f.IsYouthClient = age(dob, asOf) < YouthAgeCutoff
		}
	}

	if history, ok := decode[steps.ActivityHistoryPayload](rec, steps.ActivityHistory); ok {
		for _, a := range history.CurrentActivities {
			if a.Type == steps.ActivityCompetitive || a.Type == steps.ActivitySport {
				f.IsAthlete = true
				break
			}
		}
	}

	return f
}

// decode unmarshals the payload stored for id into T. A missing key or
// undecodable payload yields ok=false, which derivation treats as "no data".
func decode[T any](rec steps.Record, id steps.ID) (T, bool) {
	var out T
	raw, present := rec[id]
	if !present {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}

// age returns full years elapsed between dob and asOf.
func age(dob, asOf time.Time) int {
	years := asOf.Year() - dob.Year()
	anniversary := dob.AddDate(years, 0, 0)
	if anniversary.After(asOf) {
		years--
	}
	return years
}
