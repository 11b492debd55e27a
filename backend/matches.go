package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/unihaven/unihaven/backend/compat"
)

const maxMatchLimit = 100

// Dispatcher for /roommates/*
func roommatesDispatcher(db *sql.DB, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r)
		if len(parts) < 2 || parts[0] != "roommates" {
			http.NotFound(w, r)
			return
		}
		if len(parts) == 2 {
			switch parts[1] {
			case "matches":
				matchesHandler(db, defaultLimit).ServeHTTP(w, r)
			case "compatibility":
				batchCompatibilityHandler(db).ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
			return
		}
		if len(parts) == 3 {
			switch parts[2] {
			case "profile":
				roommateProfileHandler(db).ServeHTTP(w, r)
			case "compatibility":
				compatibilityHandler(db).ServeHTTP(w, r)
			case "dismiss":
				dismissRoommateHandler(db).ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
			return
		}
		http.NotFound(w, r)
	}
}

// requireViewer loads the caller's own profile. Scoring needs one, so callers
// without a profile get 403 no_roommate_profile.
func requireViewer(db *sql.DB, w http.ResponseWriter, r *http.Request) (compat.Profile, bool) {
	viewer, err := loadProfile(r.Context(), db, currentUserID(r))
	if errors.Is(err, errProfileNotFound) {
		writeError(w, http.StatusForbidden, "no_roommate_profile")
		return compat.Profile{}, false
	} else if err != nil {
		logInternal(r, err, "load viewer profile")
		writeError(w, http.StatusInternalServerError, "db_error")
		return compat.Profile{}, false
	}
	return viewer, true
}

// GET /roommates/matches?limit=N - ranked candidates for the caller
func matchesHandler(db *sql.DB, defaultLimit int) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		limit := defaultLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_limit")
				return
			}
			limit = min(n, maxMatchLimit)
		}

		viewer, ok := requireViewer(db, w, r)
		if !ok {
			return
		}
		out, err := findMatches(r.Context(), db, viewer, limit)
		if err != nil {
			logInternal(r, err, "load candidates")
			writeError(w, http.StatusInternalServerError, "match_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string][]matchEntry{"matches": out})
	})
}

// findMatches ranks every candidate for viewer and keeps the best limit.
func findMatches(ctx context.Context, db *sql.DB, viewer compat.Profile, limit int) ([]matchEntry, error) {
	candidates, err := loadMatchCandidates(ctx, db, viewer.UserID)
	if err != nil {
		return nil, err
	}

	profiles := make([]compat.Profile, len(candidates))
	online := make(map[int]bool, len(candidates))
	for i, c := range candidates {
		profiles[i] = c.Profile
		online[c.UserID] = c.Online
	}

	ranked := compat.Rank(viewer, profiles)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]matchEntry, 0, len(ranked))
	for _, m := range ranked {
		matchStats.observe(m.Result)
		out = append(out, matchEntry{
			UserID:      m.Profile.UserID,
			DisplayName: m.Profile.DisplayName,
			University:  m.Profile.University,
			Score:       m.Score,
			Label:       m.Label,
			IsOnline:    online[m.Profile.UserID],
		})
	}
	return out, nil
}

// GET /roommates/{id}/compatibility - score, label and per-rule breakdown
func compatibilityHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		targetID, ok := pathID(pathParts(r), 1)
		if !ok || targetID == currentUserID(r) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		viewer, ok := requireViewer(db, w, r)
		if !ok {
			return
		}
		target, err := loadProfile(r.Context(), db, targetID)
		if errors.Is(err, errProfileNotFound) || (err == nil && !target.Active) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			logInternal(r, err, "load target profile")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		b := compat.Explain(viewer, target)
		res := b.Result()
		matchStats.observe(res)
		writeJSON(w, http.StatusOK, compatibilityResponse{
			UserID:    targetID,
			Score:     res.Score,
			Label:     res.Label,
			Breakdown: b,
		})
	})
}

// GET /roommates/compatibility?ids=1,2,3 - scores for several candidates at once
func batchCompatibilityHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		ids, ok := parseIDList(r.URL.Query().Get("ids"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_ids")
			return
		}
		viewer, ok := requireViewer(db, w, r)
		if !ok {
			return
		}

		loader := loadersFor(r, db).ProfileLoader
		thunks := make([]dataloader.Thunk[compat.Profile], len(ids))
		for i, id := range ids {
			thunks[i] = loader.Load(r.Context(), id)
		}

		type scored struct {
			UserID int          `json:"user_id"`
			Score  int          `json:"score"`
			Label  compat.Label `json:"label"`
		}
		results := make([]scored, 0, len(ids))
		missing := make([]int, 0)
		for i, thunk := range thunks {
			p, err := thunk()
			if errors.Is(err, errProfileNotFound) || (err == nil && p.UserID == viewer.UserID) {
				missing = append(missing, ids[i])
				continue
			} else if err != nil {
				logInternal(r, err, "batch load profiles")
				writeError(w, http.StatusInternalServerError, "db_error")
				return
			}
			res := compat.Compatibility(viewer, p)
			matchStats.observe(res)
			results = append(results, scored{UserID: p.UserID, Score: res.Score, Label: res.Label})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": results, "missing": missing})
	})
}

// POST /roommates/{id}/dismiss
func dismissRoommateHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		targetID, ok := pathID(pathParts(r), 1)
		userID := currentUserID(r)
		if !ok || targetID == userID {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		target, err := loadProfile(r.Context(), db, targetID)
		if errors.Is(err, errProfileNotFound) || (err == nil && !target.Active) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			logInternal(r, err, "load dismissed profile")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if err := dismissRoommate(r.Context(), db, userID, targetID); err != nil {
			logInternal(r, err, "dismiss roommate")
			writeError(w, http.StatusInternalServerError, "dismiss_error")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]bool{"dismissed": true})
	})
}

// parseIDList reads "1,2,3" into distinct positive ids, at most maxMatchLimit.
func parseIDList(s string) ([]int, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	seen := make(map[int]struct{})
	var ids []int
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			return nil, false
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) > maxMatchLimit {
		return nil, false
	}
	return ids, true
}
