// Package compat scores how well two roommate profiles fit together.
//
// The score is additive: each rule below awards a fixed number of points,
// the interest bonus is capped on its own, and the total is clamped to 100.
//
//	budget ranges overlap (inclusive)   +20
//	same university                     +15
//	same faculty                        +10
//	same department                     +15
//	each equal lifestyle dimension      +10 (four dimensions)
//	each shared interest                 +2 (at most +10)
//
// A field missing on either side never counts as a match.
package compat

const (
	BudgetPoints     = 20
	UniversityPoints = 15
	FacultyPoints    = 10
	DepartmentPoints = 15
	LifestylePoints  = 10
	InterestPoints   = 2
	MaxInterestBonus = 10
	MaxScore         = 100
)

// Label is the qualitative badge shown next to a score.
type Label string

const (
	LabelExcellent Label = "Excellent Match!"
	LabelGood      Label = "Good Match"
	LabelPotential Label = "Potential Match"
	LabelFair      Label = "Fair Match"
)

// Result is a clamped score and its label.
type Result struct {
	Score int   `json:"score"`
	Label Label `json:"label"`
}

// Breakdown lists the points each rule awarded before the final clamp.
type Breakdown struct {
	Budget          int `json:"budget"`
	University      int `json:"university"`
	Faculty         int `json:"faculty"`
	Department      int `json:"department"`
	Lifestyle       int `json:"lifestyle"`
	SharedInterests int `json:"shared_interests"`
	Interests       int `json:"interests"`
}

// Total is the unclamped sum of all rules.
func (b Breakdown) Total() int {
	return b.Budget + b.University + b.Faculty + b.Department + b.Lifestyle + b.Interests
}

// Result clamps the total and attaches the label.
func (b Breakdown) Result() Result {
	score := b.Total()
	if score > MaxScore {
		score = MaxScore
	}
	if score < 0 {
		score = 0
	}
	return Result{Score: score, Label: LabelFor(score)}
}

// Compatibility scores candidate from viewer's point of view. Both profiles
// must be present; neither is modified.
func Compatibility(viewer, candidate Profile) Result {
	return Explain(viewer, candidate).Result()
}

// Explain returns the per-rule points behind Compatibility.
func Explain(viewer, candidate Profile) Breakdown {
	var b Breakdown

	if candidate.BudgetMax >= viewer.BudgetMin && candidate.BudgetMin <= viewer.BudgetMax {
		b.Budget = BudgetPoints
	}
	if viewer.University == candidate.University {
		b.University = UniversityPoints
	}
	if present(viewer.Faculty, candidate.Faculty) {
		b.Faculty = FacultyPoints
	}
	if present(viewer.Department, candidate.Department) {
		b.Department = DepartmentPoints
	}

	vl, cl := viewer.Lifestyle.dimensions(), candidate.Lifestyle.dimensions()
	for i := range vl {
		if present(vl[i], cl[i]) {
			b.Lifestyle += LifestylePoints
		}
	}

	b.SharedInterests = sharedCount(viewer.Interests, candidate.Interests)
	b.Interests = b.SharedInterests * InterestPoints
	if b.Interests > MaxInterestBonus {
		b.Interests = MaxInterestBonus
	}
	return b
}

// LabelFor maps a score onto its badge.
func LabelFor(score int) Label {
	switch {
	case score >= 80:
		return LabelExcellent
	case score >= 60:
		return LabelGood
	case score >= 40:
		return LabelPotential
	default:
		return LabelFair
	}
}

// present reports whether both values are set and identical.
func present(a, b string) bool {
	return a != "" && a == b
}

// sharedCount is the size of the set intersection. Duplicate tags on either
// side are counted once.
func sharedCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	small := make(map[string]struct{}, len(a))
	for _, tag := range a {
		if tag != "" {
			small[tag] = struct{}{}
		}
	}
	n := 0
	for _, tag := range b {
		if _, ok := small[tag]; ok {
			n++
			delete(small, tag)
		}
	}
	return n
}
