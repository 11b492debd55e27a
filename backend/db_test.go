package main

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// ============================================================================
// DATABASE FUNCTIONALITY TEST SUITE
// ============================================================================

func TestDatabaseSuite(t *testing.T) {
	t.Run("Schema Applied", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, ensureSchema(context.Background(), db))
	})

	t.Run("Schema Failure Is Wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnError(assert.AnError)

		err := ensureSchema(context.Background(), db)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "apply schema")
	})

	t.Run("Schema Declares Every Table", func(t *testing.T) {
		for _, table := range []string{"users", "roommate_profiles", "dismissed_roommates"} {
			assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" (")
		}
	})

	t.Run("Unreachable Database", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		db, err := openDB(ctx, "host=127.0.0.1 port=1 user=nobody dbname=none sslmode=disable connect_timeout=1")
		assert.Nil(t, db)
		assert.ErrorContains(t, err, "reach database")
	})
}
