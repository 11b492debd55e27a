package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/unihaven/unihaven/backend/compat"
)

// Dispatcher for /me/roommate-profile and its /activate, /deactivate actions.
func meRoommateProfileHandler(db *sql.DB, hub *matchHub) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r)
		if len(parts) == 3 {
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, "invalid_method")
				return
			}
			switch parts[2] {
			case "activate":
				toggleProfile(db, hub, w, r, true)
			case "deactivate":
				toggleProfile(db, hub, w, r, false)
			default:
				http.NotFound(w, r)
			}
			return
		}
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			getOwnProfile(db, w, r)
		case http.MethodPut, http.MethodPost:
			saveOwnProfile(db, hub, w, r)
		case http.MethodDelete:
			deleteOwnProfile(db, hub, w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}

func getOwnProfile(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	p, err := loadProfile(r.Context(), db, currentUserID(r))
	if errors.Is(err, errProfileNotFound) {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	} else if err != nil {
		logInternal(r, err, "load own profile")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func saveOwnProfile(db *sql.DB, hub *matchHub, w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	p := req.toProfile(currentUserID(r))
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, validationCode(err))
		return
	}
	p, err := saveProfile(r.Context(), db, p)
	if err != nil {
		logInternal(r, err, "save profile")
		writeError(w, http.StatusInternalServerError, "profile_save_error")
		return
	}
	hub.profileSaved(p)
	writeJSON(w, http.StatusOK, p)
}

func deleteOwnProfile(db *sql.DB, hub *matchHub, w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	err := deleteProfile(r.Context(), db, userID)
	if errors.Is(err, errProfileNotFound) {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	} else if err != nil {
		logInternal(r, err, "delete profile")
		writeError(w, http.StatusInternalServerError, "profile_delete_error")
		return
	}
	hub.profileRemoved(userID)
	w.WriteHeader(http.StatusNoContent)
}

func toggleProfile(db *sql.DB, hub *matchHub, w http.ResponseWriter, r *http.Request, active bool) {
	userID := currentUserID(r)
	err := setProfileActive(r.Context(), db, userID, active)
	if errors.Is(err, errProfileNotFound) {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	} else if err != nil {
		logInternal(r, err, "toggle profile")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if active {
		// Reactivation makes the profile visible again, so alert like a save.
		if p, err := loadProfile(r.Context(), db, userID); err == nil {
			hub.profileSaved(p)
		}
	} else {
		hub.profileRemoved(userID)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_active": active})
}

// GET /roommates/{id}/profile
func roommateProfileHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		targetID, ok := pathID(pathParts(r), 1)
		if !ok {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		p, err := loadProfile(r.Context(), db, targetID)
		if errors.Is(err, errProfileNotFound) || (err == nil && !p.Active && targetID != currentUserID(r)) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			logInternal(r, err, "load roommate profile")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		writeJSON(w, http.StatusOK, p)
	})
}

func validationCode(err error) string {
	switch {
	case errors.Is(err, compat.ErrInvalidBudgetRange):
		return "invalid_budget_range"
	case errors.Is(err, compat.ErrNegativeBudget):
		return "negative_budget"
	case errors.Is(err, compat.ErrMissingUniversity):
		return "missing_university"
	case errors.Is(err, compat.ErrBudgetTooLarge):
		return "budget_too_large"
	default:
		return "invalid_profile"
	}
}
