package model

type Breakdown struct {
	Budget          int `json:"budget"`
	University      int `json:"university"`
	Faculty         int `json:"faculty"`
	Department      int `json:"department"`
	Lifestyle       int `json:"lifestyle"`
	SharedInterests int `json:"sharedInterests"`
	Interests       int `json:"interests"`
	Total           int `json:"total"`
}

type Compatibility struct {
	UserID    string     `json:"userId"`
	Score     int        `json:"score"`
	Label     string     `json:"label"`
	Breakdown *Breakdown `json:"breakdown"`
}

type Lifestyle struct {
	Cleanliness   *string `json:"cleanliness,omitempty"`
	StudyHabits   *string `json:"studyHabits,omitempty"`
	SleepSchedule *string `json:"sleepSchedule,omitempty"`
	NoiseLevel    *string `json:"noiseLevel,omitempty"`
	Smoking       *string `json:"smoking,omitempty"`
	Guests        *string `json:"guests,omitempty"`
	Pets          *string `json:"pets,omitempty"`
	Cooking       *string `json:"cooking,omitempty"`
}

type LifestyleInput struct {
	Cleanliness   *string `json:"cleanliness,omitempty"`
	StudyHabits   *string `json:"studyHabits,omitempty"`
	SleepSchedule *string `json:"sleepSchedule,omitempty"`
	NoiseLevel    *string `json:"noiseLevel,omitempty"`
	Smoking       *string `json:"smoking,omitempty"`
	Guests        *string `json:"guests,omitempty"`
	Pets          *string `json:"pets,omitempty"`
	Cooking       *string `json:"cooking,omitempty"`
}

type RoommateMatch struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	University  string `json:"university"`
	Score       int    `json:"score"`
	Label       string `json:"label"`
	IsOnline    bool   `json:"isOnline"`
}

type RoommateProfile struct {
	UserID      string     `json:"userId"`
	DisplayName string     `json:"displayName"`
	BudgetMin   int        `json:"budgetMin"`
	BudgetMax   int        `json:"budgetMax"`
	University  string     `json:"university"`
	Faculty     *string    `json:"faculty,omitempty"`
	Department  *string    `json:"department,omitempty"`
	Interests   []string   `json:"interests"`
	Lifestyle   *Lifestyle `json:"lifestyle"`
	Bio         *string    `json:"bio,omitempty"`
	IsActive    bool       `json:"isActive"`
}

type RoommateProfileInput struct {
	DisplayName string          `json:"displayName"`
	BudgetMin   int             `json:"budgetMin"`
	BudgetMax   int             `json:"budgetMax"`
	University  string          `json:"university"`
	Faculty     *string         `json:"faculty,omitempty"`
	Department  *string         `json:"department,omitempty"`
	Interests   []string        `json:"interests,omitempty"`
	Lifestyle   *LifestyleInput `json:"lifestyle,omitempty"`
	Bio         *string         `json:"bio,omitempty"`
}
