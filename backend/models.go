package main

import (
	"strings"

	"github.com/unihaven/unihaven/backend/compat"
)

// profileRequest is the body of PUT /me/roommate-profile.
type profileRequest struct {
	DisplayName string           `json:"display_name"`
	BudgetMin   int              `json:"budget_min"`
	BudgetMax   int              `json:"budget_max"`
	University  string           `json:"university"`
	Faculty     string           `json:"faculty"`
	Department  string           `json:"department"`
	Interests   []string         `json:"interests"`
	Lifestyle   compat.Lifestyle `json:"lifestyle_preferences"`
	Bio         string           `json:"bio"`
}

// toProfile trims free text and drops blank or repeated interest tags.
// Tags keep their case: matching is case-sensitive.
func (req profileRequest) toProfile(userID int) compat.Profile {
	seen := make(map[string]struct{}, len(req.Interests))
	interests := make([]string, 0, len(req.Interests))
	for _, tag := range req.Interests {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		interests = append(interests, tag)
	}
	l := req.Lifestyle
	return compat.Profile{
		UserID:      userID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		University:  strings.TrimSpace(req.University),
		Faculty:     strings.TrimSpace(req.Faculty),
		Department:  strings.TrimSpace(req.Department),
		Interests:   interests,
		Lifestyle: compat.Lifestyle{
			Cleanliness:   strings.TrimSpace(l.Cleanliness),
			StudyHabits:   strings.TrimSpace(l.StudyHabits),
			SleepSchedule: strings.TrimSpace(l.SleepSchedule),
			NoiseLevel:    strings.TrimSpace(l.NoiseLevel),
			Smoking:       strings.TrimSpace(l.Smoking),
			Guests:        strings.TrimSpace(l.Guests),
			Pets:          strings.TrimSpace(l.Pets),
			Cooking:       strings.TrimSpace(l.Cooking),
		},
		Bio:    strings.TrimSpace(req.Bio),
		Active: true,
	}
}

// candidate is a stored profile plus presence, as loaded for matching.
type candidate struct {
	compat.Profile
	Online bool
}

// matchEntry is one row of GET /roommates/matches.
type matchEntry struct {
	UserID      int          `json:"user_id"`
	DisplayName string       `json:"display_name"`
	University  string       `json:"university"`
	Score       int          `json:"score"`
	Label       compat.Label `json:"label"`
	IsOnline    bool         `json:"is_online"`
}

// compatibilityResponse is the body of GET /roommates/{id}/compatibility.
type compatibilityResponse struct {
	UserID    int              `json:"user_id"`
	Score     int              `json:"score"`
	Label     compat.Label     `json:"label"`
	Breakdown compat.Breakdown `json:"breakdown"`
}
