package steps

// DateLayout is the wire format for date fields (date of birth, target date).
const DateLayout = "2006-01-02"

// IdentityPayload holds the contact details collected on the first step.
type IdentityPayload struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth"`
	Phone       string `json:"phone,omitempty"`
}

// ServicesPayload records the selected coaching package.
type ServicesPayload struct {
	Package string   `json:"package"`
	AddOns  []string `json:"addOns,omitempty"`
}

// TrainingSetupPayload describes where and how often the client can train.
type TrainingSetupPayload struct {
	Location             string   `json:"location"`
	Equipment            []string `json:"equipment"`
	DaysPerWeek          int      `json:"daysPerWeek"`
	SessionLengthMinutes int      `json:"sessionLengthMinutes"`
}

type GoalsPayload struct {
	PrimaryGoal    string   `json:"primaryGoal"`
	SecondaryGoals []string `json:"secondaryGoals,omitempty"`
	TargetEvent    string   `json:"targetEvent,omitempty"`
	TargetDate     string   `json:"targetDate,omitempty"`
}

// HealthHistoryPayload holds the named condition markers consumed by flag
// derivation, plus free-text context for the coach.
type HealthHistoryPayload struct {
	Diabetes           bool   `json:"diabetes"`
	Hypertension       bool   `json:"hypertension"`
	Cardiovascular     bool   `json:"cardiovascular"`
	Asthma             bool   `json:"asthma"`
	Arthritis          bool   `json:"arthritis"`
	OtherConditions    string `json:"otherConditions,omitempty"`
	PhysicianClearance bool   `json:"physicianClearance"`
}

type Medication struct {
	Name    string `json:"name"`
	Dosage  string `json:"dosage,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}

type MedicationsPayload struct {
	Medications []Medication `json:"medications"`
}

// InjuryStatus is the lifecycle state of a reported injury.
type InjuryStatus string

const (
	InjuryActive      InjuryStatus = "active"
	InjuryRecovering  InjuryStatus = "recovering"
	InjuryPostSurgery InjuryStatus = "post-surgery"
	InjuryResolved    InjuryStatus = "resolved"
)

type Injury struct {
	Location    string       `json:"location"`
	Description string       `json:"description,omitempty"`
	Status      InjuryStatus `json:"status"`
	OccurredAt  string       `json:"occurredAt,omitempty"`
}

type InjuryProfilePayload struct {
	Injuries []Injury `json:"injuries"`
}

// ActivityType classifies a current activity for athlete detection.
type ActivityType string

const (
	ActivityCompetitive  ActivityType = "competitive"
	ActivitySport        ActivityType = "sport"
	ActivityRecreational ActivityType = "recreational"
	ActivityOccupational ActivityType = "occupational"
)

type Activity struct {
	Type             ActivityType `json:"type"`
	Name             string       `json:"name"`
	FrequencyPerWeek int          `json:"frequencyPerWeek,omitempty"`
}

type ActivityHistoryPayload struct {
	CurrentActivities []Activity `json:"currentActivities"`
	TrainingAgeYears  int        `json:"trainingAgeYears,omitempty"`
}

type CoachingPreferencesPayload struct {
	Channel          string `json:"channel"`
	CheckInFrequency string `json:"checkInFrequency"`
	Style            string `json:"style,omitempty"`
}

type NutritionSnapshotPayload struct {
	MealsPerDay    int      `json:"mealsPerDay"`
	DietaryPattern string   `json:"dietaryPattern,omitempty"`
	Allergies      []string `json:"allergies,omitempty"`
	Supplements    []string `json:"supplements,omitempty"`
}

// ReviewPayload is the terminal step: the client confirms the collected data.
type ReviewPayload struct {
	ConsentAcknowledged bool `json:"consentAcknowledged"`
}
