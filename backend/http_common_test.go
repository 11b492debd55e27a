package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx(t *testing.T) {
	t.Run("Successful transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := withTx(context.Background(), db, func(tx *sql.Tx) error {
			_, err := tx.Exec("SELECT 1")
			return err
		})
		assert.NoError(t, err)
	})

	t.Run("Transaction with error rollback", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		testError := errors.New("test error")
		err := withTx(context.Background(), db, func(tx *sql.Tx) error {
			return testError
		})
		assert.Same(t, testError, err)
	})

	t.Run("Begin failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin().WillReturnError(assert.AnError)

		called := false
		err := withTx(context.Background(), db, func(tx *sql.Tx) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.False(t, called)
	})

	t.Run("Transaction with panic recovery", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.PanicsWithValue(t, "test panic", func() {
			_ = withTx(context.Background(), db, func(tx *sql.Tx) error {
				panic("test panic")
			})
		})
	})
}

func TestResponseHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusBadRequest, "invalid_json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"invalid_json"}`, w.Body.String())

	w = httptest.NewRecorder()
	writeJSON(w, http.StatusNoContent, nil)
	assert.Empty(t, w.Body.String())
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/roommates/17/profile/", nil)
	parts := pathParts(req)
	require.Equal(t, []string{"roommates", "17", "profile"}, parts)

	id, ok := pathID(parts, 1)
	assert.True(t, ok)
	assert.Equal(t, 17, id)

	_, ok = pathID(parts, 2)
	assert.False(t, ok)
	_, ok = pathID(parts, 5)
	assert.False(t, ok)
	_, ok = pathID([]string{"roommates", "0"}, 1)
	assert.False(t, ok)
}
