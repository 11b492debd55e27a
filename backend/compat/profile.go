package compat

import "errors"

var (
	ErrInvalidBudgetRange = errors.New("budget_min must not exceed budget_max")
	ErrNegativeBudget     = errors.New("budget must not be negative")
	ErrMissingUniversity  = errors.New("university is required")
	ErrBudgetTooLarge     = errors.New("budget exceeds the maximum")
)

// MaxBudget is the largest budget a profile may declare. It keeps budgets
// inside the INTEGER columns they are stored in and GraphQL's 32-bit Int.
const MaxBudget = 1_000_000_000

// Profile is a read-only snapshot of one student's roommate profile.
// Empty strings mean "not provided".
type Profile struct {
	UserID      int       `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	BudgetMin   int       `json:"budget_min"`
	BudgetMax   int       `json:"budget_max"`
	University  string    `json:"university"`
	Faculty     string    `json:"faculty,omitempty"`
	Department  string    `json:"department,omitempty"`
	Interests   []string  `json:"interests,omitempty"`
	Lifestyle   Lifestyle `json:"lifestyle_preferences"`
	Bio         string    `json:"bio,omitempty"`
	Active      bool      `json:"is_active"`
}

// Lifestyle holds the preferences collected by the profile form. Only the
// first four fields take part in scoring; the rest are shown on the profile.
type Lifestyle struct {
	Cleanliness   string `json:"cleanliness,omitempty"`
	StudyHabits   string `json:"studyHabits,omitempty"`
	SleepSchedule string `json:"sleepSchedule,omitempty"`
	NoiseLevel    string `json:"noiseLevel,omitempty"`

	Smoking string `json:"smoking,omitempty"`
	Guests  string `json:"guests,omitempty"`
	Pets    string `json:"pets,omitempty"`
	Cooking string `json:"cooking,omitempty"`
}

// Validate checks the fields the profile form requires. Compatibility does
// not call it: a profile that fails validation still scores, just lower.
func (p Profile) Validate() error {
	if p.University == "" {
		return ErrMissingUniversity
	}
	if p.BudgetMin < 0 || p.BudgetMax < 0 {
		return ErrNegativeBudget
	}
	if p.BudgetMin > MaxBudget || p.BudgetMax > MaxBudget {
		return ErrBudgetTooLarge
	}
	if p.BudgetMin > p.BudgetMax {
		return ErrInvalidBudgetRange
	}
	return nil
}

// dimensions returns the scored lifestyle values in a fixed order.
func (l Lifestyle) dimensions() [4]string {
	return [4]string{l.Cleanliness, l.StudyHabits, l.SleepSchedule, l.NoiseLevel}
}
