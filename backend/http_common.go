package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// logInternal records an unexpected failure with the request's logger.
func logInternal(r *http.Request, err error, msg string) {
	l := zerolog.Ctx(r.Context())
	ev := l.Error().Err(err)
	if id, ok := r.Context().Value(userIDKey).(int); ok {
		ev = ev.Int("user_id", id)
	}
	ev.Msg(msg)
}

// pathParts splits "/a/b/c" into ["a","b","c"].
func pathParts(r *http.Request) []string {
	return strings.Split(strings.Trim(r.URL.Path, "/"), "/")
}

// pathID parses the numeric segment at index i, e.g. /roommates/{id}/profile.
func pathID(parts []string, i int) (int, bool) {
	if i >= len(parts) {
		return 0, false
	}
	id, err := strconv.Atoi(parts[i])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// withTx wraps a function in a database transaction.
// - Ensures COMMIT on success, ROLLBACK on errors or panics.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
