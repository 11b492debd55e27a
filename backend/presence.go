package main

import (
	"database/sql"
	"net/http"
)

// POST /me/ping - heartbeat; a user counts as online for 90 seconds after it.
func mePingHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		if _, err := db.ExecContext(r.Context(), `UPDATE users SET last_online = NOW() WHERE id = $1`, currentUserID(r)); err != nil {
			logInternal(r, err, "update last_online")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
