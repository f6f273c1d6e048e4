package steps

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ValidationResult is the outcome of running a step payload through its
// validator. Errors is keyed by field name.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ValidationError carries field errors for a rejected step payload. It is a
// recoverable condition: the caller fixes the payload and retries.
type ValidationError struct {
	StepID ID
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("step %s: invalid fields: %s", e.StepID, strings.Join(keys, ", "))
}

// Validator checks one step's raw payload. Implementations never mutate state.
type Validator func(payload json.RawMessage) ValidationResult

// validators maps every catalog step to its validator. The sequencer looks
// steps up here and never special-cases individual step types.
var validators = map[ID]Validator{
	Identity:            validateIdentity,
	Services:            validateServices,
	TrainingSetup:       validateTrainingSetup,
	Goals:               validateGoals,
	HealthHistory:       validateHealthHistory,
	Medications:         validateMedications,
	InjuryProfile:       validateInjuryProfile,
	ActivityHistory:     validateActivityHistory,
	CoachingPreferences: validateCoachingPreferences,
	NutritionSnapshot:   validateNutritionSnapshot,
	Review:              validateReview,
}

// ValidatorFor returns the validator registered for id.
func ValidatorFor(id ID) (Validator, bool) {
	v, ok := validators[id]
	return v, ok
}

func ok() ValidationResult {
	return ValidationResult{Valid: true}
}

func invalid(errs map[string]string) ValidationResult {
	return ValidationResult{Valid: false, Errors: errs}
}

func malformed(err error) ValidationResult {
	return invalid(map[string]string{"payload": "malformed payload: " + err.Error()})
}

func validateIdentity(payload json.RawMessage) ValidationResult {
	var p IdentityPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	errs := map[string]string{}
	if strings.TrimSpace(p.FirstName) == "" {
		errs["firstName"] = "required"
	}
	if strings.TrimSpace(p.LastName) == "" {
		errs["lastName"] = "required"
	}
	if !strings.Contains(p.Email, "@") {
		errs["email"] = "must be a valid email address"
	}
	if dob, err := time.Parse(DateLayout, p.DateOfBirth); err != nil {
		errs["dateOfBirth"] = "must be a date in YYYY-MM-DD format"
	} else if dob.After(time.Now()) {
		errs["dateOfBirth"] = "must be in the past"
	}
	if len(errs) > 0 {
		return invalid(errs)
	}
	return ok()
}

func validateServices(payload json.RawMessage) ValidationResult {
	var p ServicesPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	if strings.TrimSpace(p.Package) == "" {
		return invalid(map[string]string{"package": "required"})
	}
	return ok()
}

func validateTrainingSetup(payload json.RawMessage) ValidationResult {
	var p TrainingSetupPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	errs := map[string]string{}
	if strings.TrimSpace(p.Location) == "" {
		errs["location"] = "required"
	}
	if p.DaysPerWeek < 1 || p.DaysPerWeek > 7 {
		errs["daysPerWeek"] = "must be between 1 and 7"
	}
	if p.SessionLengthMinutes < 0 {
		errs["sessionLengthMinutes"] = "must not be negative"
	}
	if len(errs) > 0 {
		return invalid(errs)
	}
	return ok()
}

func validateGoals(payload json.RawMessage) ValidationResult {
	var p GoalsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	errs := map[string]string{}
	if strings.TrimSpace(p.PrimaryGoal) == "" {
		errs["primaryGoal"] = "required"
	}
	if p.TargetDate != "" {
		if _, err := time.Parse(DateLayout, p.TargetDate); err != nil {
			errs["targetDate"] = "must be a date in YYYY-MM-DD format"
		}
	}
	if len(errs) > 0 {
		return invalid(errs)
	}
	return ok()
}

// validateHealthHistory only rejects malformed JSON: every condition marker
// defaults to false and the free-text field is optional.
func validateHealthHistory(payload json.RawMessage) ValidationResult {
	var p HealthHistoryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	return ok()
}

func validateMedications(payload json.RawMessage) ValidationResult {
	var p MedicationsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	for i, m := range p.Medications {
		if strings.TrimSpace(m.Name) == "" {
			return invalid(map[string]string{
				fmt.Sprintf("medications[%d].name", i): "required",
			})
		}
	}
	return ok()
}

func validateInjuryProfile(payload json.RawMessage) ValidationResult {
	var p InjuryProfilePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	errs := map[string]string{}
	for i, inj := range p.Injuries {
		if strings.TrimSpace(inj.Location) == "" {
			errs[fmt.Sprintf("injuries[%d].location", i)] = "required"
		}
		switch inj.Status {
		case InjuryActive, InjuryRecovering, InjuryPostSurgery, InjuryResolved:
		default:
			errs[fmt.Sprintf("injuries[%d].status", i)] = "unknown status"
		}
	}
	if len(errs) > 0 {
		return invalid(errs)
	}
	return ok()
}

func validateActivityHistory(payload json.RawMessage) ValidationResult {
	var p ActivityHistoryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	errs := map[string]string{}
	for i, a := range p.CurrentActivities {
		switch a.Type {
		case ActivityCompetitive, ActivitySport, ActivityRecreational, ActivityOccupational:
		default:
			errs[fmt.Sprintf("currentActivities[%d].type", i)] = "unknown activity type"
		}
	}
	if len(errs) > 0 {
		return invalid(errs)
	}
	return ok()
}

func validateCoachingPreferences(payload json.RawMessage) ValidationResult {
	var p CoachingPreferencesPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	errs := map[string]string{}
	if strings.TrimSpace(p.Channel) == "" {
		errs["channel"] = "required"
	}
	if strings.TrimSpace(p.CheckInFrequency) == "" {
		errs["checkInFrequency"] = "required"
	}
	if len(errs) > 0 {
		return invalid(errs)
	}
	return ok()
}

func validateNutritionSnapshot(payload json.RawMessage) ValidationResult {
	var p NutritionSnapshotPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	if p.MealsPerDay < 0 {
		return invalid(map[string]string{"mealsPerDay": "must not be negative"})
	}
	return ok()
}

func validateReview(payload json.RawMessage) ValidationResult {
	var p ReviewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return malformed(err)
	}
	if !p.ConsentAcknowledged {
		return invalid(map[string]string{"consentAcknowledged": "must be accepted"})
	}
	return ok()
}
