package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/unihaven/unihaven/backend/compat"
)

type seedStats struct {
	Users      int
	Profiles   int
	Inactive   int
	Dismissals int
}

func (c cfg) validate() error {
	switch {
	case c.DSN == "":
		return errors.New("missing DSN: provide --dsn or set DATABASE_URL")
	case c.Count < 1:
		return errors.New("--count must be at least 1")
	case c.InactiveRate < 0 || c.InactiveRate > 1 || c.DismissRate < 0 || c.DismissRate > 1:
		return errors.New("rate flags must be in range 0..1")
	}
	return nil
}

// seed writes everything in one transaction so a constraint failure leaves
// the database untouched.
func seed(ctx context.Context, db *sql.DB, r *rand.Rand, c cfg, pwHash string) (seedStats, error) {
	var stats seedStats
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return stats, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	fail := func(err error) (seedStats, error) {
		_ = tx.Rollback()
		return seedStats{}, err
	}

	if c.Truncate {
		if err := truncateAll(ctx, tx); err != nil {
			return fail(fmt.Errorf("truncate: %w", err))
		}
	}

	userIDs, err := insertUsers(ctx, tx, r, c.Count, pwHash)
	if err != nil {
		return fail(err)
	}
	stats.Users = len(userIDs)

	profiles := generateProfiles(r, userIDs, c.InactiveRate)
	if err := insertProfiles(ctx, tx, profiles); err != nil {
		return fail(err)
	}
	stats.Profiles = len(profiles)
	for _, p := range profiles {
		if !p.Active {
			stats.Inactive++
		}
	}

	if stats.Dismissals, err = insertDismissals(ctx, tx, r, userIDs, c.DismissRate); err != nil {
		return fail(err)
	}

	if err := tx.Commit(); err != nil {
		return seedStats{}, fmt.Errorf("commit: %w", err)
	}
	return stats, nil
}

func truncateAll(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		TRUNCATE TABLE dismissed_roommates RESTART IDENTITY CASCADE;
		TRUNCATE TABLE roommate_profiles RESTART IDENTITY CASCADE;
		TRUNCATE TABLE users RESTART IDENTITY CASCADE;
	`)
	return err
}

// testEmails are the fixed first accounts, handy for logging in locally.
var testEmails = []string{"user1@test.local", "user2@test.local"}

func insertUsers(ctx context.Context, tx *sql.Tx, r *rand.Rand, n int, pwHash string) ([]int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (email, password_hash, last_online)
		VALUES ($1,$2,$3)
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			last_online = EXCLUDED.last_online
		RETURNING id`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	emails := make(map[string]struct{}, n)
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		var email string
		var lastOnline time.Time
		if i < len(testEmails) {
			email = testEmails[i]
			lastOnline = time.Now()
		} else {
			email = uniqueEmail(r, emails)
			lastOnline = time.Now().Add(-time.Duration(r.Intn(14*24)) * time.Hour)
		}

		var id int
		if err := stmt.QueryRowContext(ctx, email, pwHash, lastOnline).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert user %d (%s): %w", i, email, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func uniqueEmail(r *rand.Rand, used map[string]struct{}) string {
	for {
		local := strings.ToLower(strings.ReplaceAll(displayName(r), " ", "."))
		domain := []string{"student.unilag.edu.ng", "stu.ui.edu.ng", "mail.test"}[r.Intn(3)]
		email := fmt.Sprintf("%s+%d@%s", local, r.Intn(1000000), domain)
		if _, ok := used[email]; !ok {
			used[email] = struct{}{}
			return email
		}
	}
}

type school struct {
	Name      string
	Faculties map[string][]string
}

var schools = []school{
	{"UNILAG", map[string][]string{
		"Science":     {"CS", "Mathematics", "Physics"},
		"Engineering": {"Mechanical", "Electrical"},
		"Arts":        {"English", "History"},
	}},
	{"UI", map[string][]string{
		"Science":  {"CS", "Chemistry"},
		"Medicine": {"Nursing", "Anatomy"},
	}},
	{"OAU", map[string][]string{
		"Technology": {"Computer Engineering", "Civil"},
		"Law":        {"Law"},
	}},
	{"UNN", map[string][]string{
		"Science": {"Microbiology", "Statistics"},
		"Arts":    {"Music", "Philosophy"},
	}},
}

var (
	interestPool = []string{"Football", "Music", "Reading", "Gaming", "Chess", "Art", "Cooking", "Movies", "Fitness", "Coding", "Dancing", "Photography"}
	cleanliness  = []string{"Very neat", "Tidy", "Relaxed"}
	studyHabits  = []string{"Night owl", "Early bird", "Library only"}
	sleep        = []string{"Early sleeper", "Late sleeper", "Irregular"}
	noise        = []string{"Quiet", "Moderate", "Lively"}
	yesNo        = []string{"Yes", "No", "Occasionally"}
)

// generateProfiles builds one valid profile per user. The first two users get
// the same school and habits so they always match each other well.
func generateProfiles(r *rand.Rand, userIDs []int, inactiveRate float64) []compat.Profile {
	out := make([]compat.Profile, 0, len(userIDs))
	for i, uid := range userIDs {
		if i < len(testEmails) {
			out = append(out, compat.Profile{
				UserID:      uid,
				DisplayName: fmt.Sprintf("Test User %d", i+1),
				BudgetMin:   150000,
				BudgetMax:   250000,
				University:  "UNILAG",
				Faculty:     "Science",
				Department:  "CS",
				Interests:   []string{"Football", "Music", "Coding"},
				Lifestyle: compat.Lifestyle{
					Cleanliness: "Very neat", StudyHabits: "Night owl",
					SleepSchedule: "Late sleeper", NoiseLevel: "Quiet",
				},
				Bio:    "Test account.",
				Active: true,
			})
			continue
		}

		s := schools[r.Intn(len(schools))]
		faculty, department := pickFaculty(r, s)
		low := 50000 + 10000*r.Intn(30)
		p := compat.Profile{
			UserID:      uid,
			DisplayName: displayName(r),
			BudgetMin:   low,
			BudgetMax:   low + 10000*(1+r.Intn(15)),
			University:  s.Name,
			Interests:   pickInterests(r, 1+r.Intn(5)),
			Lifestyle: compat.Lifestyle{
				Cleanliness:   maybe(r, cleanliness),
				StudyHabits:   maybe(r, studyHabits),
				SleepSchedule: maybe(r, sleep),
				NoiseLevel:    maybe(r, noise),
				Smoking:       maybe(r, yesNo),
				Guests:        maybe(r, yesNo),
				Pets:          maybe(r, yesNo),
				Cooking:       maybe(r, yesNo),
			},
			Bio:    sampleBio(r),
			Active: r.Float64() >= inactiveRate,
		}
		// Not everyone fills in the academic fields.
		if r.Intn(4) > 0 {
			p.Faculty = faculty
			if r.Intn(3) > 0 {
				p.Department = department
			}
		}
		out = append(out, p)
	}
	return out
}

func pickFaculty(r *rand.Rand, s school) (string, string) {
	names := make([]string, 0, len(s.Faculties))
	for name := range s.Faculties {
		names = append(names, name)
	}
	// Map order is random; sort for a deterministic pick.
	sort.Strings(names)
	f := names[r.Intn(len(names))]
	deps := s.Faculties[f]
	return f, deps[r.Intn(len(deps))]
}

func pickInterests(r *rand.Rand, n int) []string {
	idx := r.Perm(len(interestPool))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = interestPool[j]
	}
	return out
}

// maybe leaves roughly one in five answers blank.
func maybe(r *rand.Rand, opts []string) string {
	if r.Intn(5) == 0 {
		return ""
	}
	return opts[r.Intn(len(opts))]
}

func displayName(r *rand.Rand) string {
	first := []string{"Ada", "Bola", "Chidi", "Dayo", "Emeka", "Funke", "Ifeoma", "Kemi", "Musa", "Ngozi", "Segun", "Tolu", "Uche", "Yemi", "Zainab"}[r.Intn(15)]
	last := []string{"Okafor", "Adeyemi", "Balogun", "Eze", "Ibrahim", "Nwosu", "Ogunleye", "Bello", "Obi", "Lawal"}[r.Intn(10)]
	return first + " " + last
}

func sampleBio(r *rand.Rand) string {
	phr := []string{
		"Final year student, quiet and tidy.",
		"Love weekend football and jollof.",
		"Looking for a calm flat close to campus.",
		"Night owl, mostly in the library.",
		"Happy to share cooking duties.",
	}
	return phr[r.Intn(len(phr))]
}

func insertProfiles(ctx context.Context, tx *sql.Tx, profiles []compat.Profile) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO roommate_profiles (
			user_id, display_name, budget_min, budget_max, university, faculty, department,
			interests, lifestyle, bio, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			budget_min = EXCLUDED.budget_min,
			budget_max = EXCLUDED.budget_max,
			university = EXCLUDED.university,
			faculty = EXCLUDED.faculty,
			department = EXCLUDED.department,
			interests = EXCLUDED.interests,
			lifestyle = EXCLUDED.lifestyle,
			bio = EXCLUDED.bio,
			is_active = EXCLUDED.is_active
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("generated profile for user %d: %w", p.UserID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.UserID, p.DisplayName, p.BudgetMin, p.BudgetMax, p.University,
			nullIfEmpty(p.Faculty), nullIfEmpty(p.Department),
			mustJSON(p.Interests), mustJSON(p.Lifestyle), p.Bio, p.Active,
		); err != nil {
			return fmt.Errorf("insert profile for user %d: %w", p.UserID, err)
		}
	}
	return nil
}

func insertDismissals(ctx context.Context, tx *sql.Tx, r *rand.Rand, users []int, rate float64) (int, error) {
	if rate <= 0 || len(users) < 2 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dismissed_roommates (user_id, dismissed_user_id)
		VALUES ($1,$2) ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, me := range users {
		n := int(float64(len(users))*rate*0.2) + r.Intn(3)
		for i := 0; i < n; i++ {
			target := users[r.Intn(len(users))]
			if target == me {
				continue
			}
			if _, err := stmt.ExecContext(ctx, me, target); err != nil {
				return count, fmt.Errorf("dismiss %d for %d: %w", target, me, err)
			}
			count++
		}
	}
	return count, nil
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
