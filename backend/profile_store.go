package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/unihaven/unihaven/backend/compat"
)

var errProfileNotFound = errors.New("roommate profile not found")

const profileColumns = `p.user_id, p.display_name, p.budget_min, p.budget_max, p.university,
	COALESCE(p.faculty, ''), COALESCE(p.department, ''), p.interests, p.lifestyle, p.bio, p.is_active`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner, extra ...any) (compat.Profile, error) {
	var p compat.Profile
	var interests, lifestyle []byte
	dest := append([]any{
		&p.UserID, &p.DisplayName, &p.BudgetMin, &p.BudgetMax, &p.University,
		&p.Faculty, &p.Department, &interests, &lifestyle, &p.Bio, &p.Active,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return compat.Profile{}, err
	}
	if len(interests) > 0 {
		if err := json.Unmarshal(interests, &p.Interests); err != nil {
			return compat.Profile{}, fmt.Errorf("decode interests of user %d: %w", p.UserID, err)
		}
	}
	if len(lifestyle) > 0 {
		if err := json.Unmarshal(lifestyle, &p.Lifestyle); err != nil {
			return compat.Profile{}, fmt.Errorf("decode lifestyle of user %d: %w", p.UserID, err)
		}
	}
	return p, nil
}

func loadProfile(ctx context.Context, db *sql.DB, userID int) (compat.Profile, error) {
	row := db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM roommate_profiles p WHERE p.user_id = $1`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return compat.Profile{}, errProfileNotFound
	}
	if err != nil {
		return compat.Profile{}, fmt.Errorf("load profile %d: %w", userID, err)
	}
	return p, nil
}

// loadProfilesByIDs returns the active profiles among ids, keyed by user id.
func loadProfilesByIDs(ctx context.Context, db *sql.DB, ids []int) (map[int]compat.Profile, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM roommate_profiles p WHERE p.user_id = ANY($1) AND p.is_active = TRUE`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	defer rows.Close()

	out := make(map[int]compat.Profile, len(ids))
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out[p.UserID] = p
	}
	return out, rows.Err()
}

// loadMatchCandidates returns every active profile the viewer may be matched
// with: not their own and not dismissed by them.
func loadMatchCandidates(ctx context.Context, db *sql.DB, viewerID int) ([]candidate, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+profileColumns+`,
		       COALESCE(u.last_online > NOW() - INTERVAL '90 seconds', FALSE)
		FROM roommate_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.is_active = TRUE
		  AND p.user_id <> $1
		  AND NOT EXISTS (
		      SELECT 1 FROM dismissed_roommates d
		      WHERE d.user_id = $1 AND d.dismissed_user_id = p.user_id
		  )
	`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	defer rows.Close()

	var out []candidate
	for rows.Next() {
		var c candidate
		if c.Profile, err = scanProfile(rows, &c.Online); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// saveProfile upserts p. A new profile starts active; editing an existing one
// keeps its visibility. The returned copy carries the stored is_active.
func saveProfile(ctx context.Context, db *sql.DB, p compat.Profile) (compat.Profile, error) {
	interests, err := json.Marshal(p.Interests)
	if err != nil {
		return compat.Profile{}, err
	}
	if p.Interests == nil {
		interests = []byte("[]")
	}
	lifestyle, err := json.Marshal(p.Lifestyle)
	if err != nil {
		return compat.Profile{}, err
	}
	err = db.QueryRowContext(ctx, `
		INSERT INTO roommate_profiles (
		    user_id, display_name, budget_min, budget_max, university, faculty, department,
		    interests, lifestyle, bio, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
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
		    updated_at = NOW()
		RETURNING is_active
	`,
		p.UserID, p.DisplayName, p.BudgetMin, p.BudgetMax, p.University,
		nullIfEmpty(p.Faculty), nullIfEmpty(p.Department), interests, lifestyle, p.Bio,
	).Scan(&p.Active)
	if err != nil {
		return compat.Profile{}, fmt.Errorf("save profile %d: %w", p.UserID, err)
	}
	return p, nil
}

// setProfileActive hides or re-shows a profile. Returns errProfileNotFound
// when the user has none.
func setProfileActive(ctx context.Context, db *sql.DB, userID int, active bool) error {
	res, err := db.ExecContext(ctx,
		`UPDATE roommate_profiles SET is_active = $2, updated_at = NOW() WHERE user_id = $1`, userID, active)
	if err != nil {
		return fmt.Errorf("set profile %d active=%t: %w", userID, active, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errProfileNotFound
	}
	return nil
}

// deleteProfile removes the profile and every dismissal that mentions the user.
func deleteProfile(ctx context.Context, db *sql.DB, userID int) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM dismissed_roommates WHERE user_id = $1 OR dismissed_user_id = $1`, userID); err != nil {
			return fmt.Errorf("delete dismissals of %d: %w", userID, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM roommate_profiles WHERE user_id = $1`, userID)
		if err != nil {
			return fmt.Errorf("delete profile %d: %w", userID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errProfileNotFound
		}
		return nil
	})
}

// dismissRoommate hides target from the user's matches. Repeating it is a no-op.
func dismissRoommate(ctx context.Context, db *sql.DB, userID, target int) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO dismissed_roommates (user_id, dismissed_user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, target)
	if err != nil {
		return fmt.Errorf("dismiss %d for %d: %w", target, userID, err)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
