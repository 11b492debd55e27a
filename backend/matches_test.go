package main

import (
	"database/sql/driver"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihaven/unihaven/backend/compat"
)

// ============================================================================
// MATCHING TEST SUITE
// ============================================================================

var candidateQuery = regexp.QuoteMeta("JOIN users u ON u.id = p.user_id")

func candidateRows(t *testing.T, online map[int]bool, profiles ...compat.Profile) *sqlmock.Rows {
	rows := sqlmock.NewRows(append(append([]string{}, profileColumnNames...), "online"))
	for _, p := range profiles {
		vals := append(profileValues(t, p), driver.Value(online[p.UserID]))
		rows.AddRow(vals...)
	}
	return rows
}

// matchFixtures returns three candidates for viewerProfile: a twin (100),
// a schoolmate with overlapping budget (35) and a stranger sharing only
// the budget (20).
func matchFixtures() (twin, schoolmate, stranger compat.Profile) {
	twin = viewerProfile()
	twin.UserID, twin.DisplayName = 2, "Bola"

	schoolmate = compat.Profile{UserID: 4, DisplayName: "Chidi", BudgetMin: 150000, BudgetMax: 250000, University: "UNILAG", Active: true}
	stranger = compat.Profile{UserID: 3, DisplayName: "Dayo", BudgetMin: 50000, BudgetMax: 100000, University: "OAU", Active: true}
	return
}

func TestMatchesHandler(t *testing.T) {
	t.Run("Ranked And Limited", func(t *testing.T) {
		db, mock := newMockDB(t)
		me := viewerProfile()
		twin, schoolmate, stranger := matchFixtures()
		expectLoadProfile(t, mock, 1, &me)
		mock.ExpectQuery(candidateQuery).WithArgs(1).
			WillReturnRows(candidateRows(t, map[int]bool{2: true}, stranger, twin, schoolmate))

		w := httptest.NewRecorder()
		matchesHandler(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/matches?limit=2", nil, 1))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decodeBody[map[string][]matchEntry](t, w)["matches"]
		require.Len(t, got, 2)

		assert.Equal(t, matchEntry{UserID: 2, DisplayName: "Bola", University: "UNILAG", Score: 100, Label: compat.LabelExcellent, IsOnline: true}, got[0])
		assert.Equal(t, 4, got[1].UserID)
		assert.Equal(t, 35, got[1].Score)
		assert.Equal(t, compat.LabelFair, got[1].Label)
		assert.False(t, got[1].IsOnline)
	})

	t.Run("Default Limit And Empty Pool", func(t *testing.T) {
		db, mock := newMockDB(t)
		me := viewerProfile()
		expectLoadProfile(t, mock, 1, &me)
		mock.ExpectQuery(candidateQuery).WithArgs(1).WillReturnRows(candidateRows(t, nil))

		w := httptest.NewRecorder()
		matchesHandler(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/matches", nil, 1))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"matches":[]}`, w.Body.String())
	})

	t.Run("No Viewer Profile", func(t *testing.T) {
		db, mock := newMockDB(t)
		expectLoadProfile(t, mock, 1, nil)

		w := httptest.NewRecorder()
		matchesHandler(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/matches", nil, 1))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "no_roommate_profile", errorCode(t, w))
	})

	for _, limit := range []string{"zero", "0", "-3"} {
		t.Run("Invalid Limit "+limit, func(t *testing.T) {
			db, _ := newMockDB(t)
			w := httptest.NewRecorder()
			matchesHandler(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/matches?limit="+limit, nil, 1))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid_limit", errorCode(t, w))
		})
	}

	t.Run("Candidate Query Failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		me := viewerProfile()
		expectLoadProfile(t, mock, 1, &me)
		mock.ExpectQuery(candidateQuery).WithArgs(1).WillReturnError(assert.AnError)

		w := httptest.NewRecorder()
		matchesHandler(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/matches", nil, 1))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "match_error", errorCode(t, w))
	})
}

func TestCompatibilityHandler(t *testing.T) {
	t.Run("Breakdown", func(t *testing.T) {
		db, mock := newMockDB(t)
		me := viewerProfile()
		_, schoolmate, _ := matchFixtures()
		schoolmate.Interests = []string{"Music", "Reading", "Chess"}
		expectLoadProfile(t, mock, 1, &me)
		expectLoadProfile(t, mock, 4, &schoolmate)

		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/4/compatibility", nil, 1))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decodeBody[compatibilityResponse](t, w)
		assert.Equal(t, 4, got.UserID)
		assert.Equal(t, 39, got.Score)
		assert.Equal(t, compat.LabelFair, got.Label)
		assert.Equal(t, compat.Breakdown{Budget: 20, University: 15, SharedInterests: 2, Interests: 4}, got.Breakdown)
	})

	t.Run("Self Is Not A Candidate", func(t *testing.T) {
		db, _ := newMockDB(t)
		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/1/compatibility", nil, 1))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Inactive Target", func(t *testing.T) {
		db, mock := newMockDB(t)
		me := viewerProfile()
		_, schoolmate, _ := matchFixtures()
		schoolmate.Active = false
		expectLoadProfile(t, mock, 1, &me)
		expectLoadProfile(t, mock, 4, &schoolmate)

		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/4/compatibility", nil, 1))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBatchCompatibilityHandler(t *testing.T) {
	t.Run("Scores Found And Reports Missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		me := viewerProfile()
		twin, _, stranger := matchFixtures()
		expectLoadProfile(t, mock, 1, &me)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE p.user_id = ANY($1) AND p.is_active = TRUE")).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(profileRows(t, stranger, twin))

		w := httptest.NewRecorder()
		handler := DataLoaderMiddleware(db)(roommatesDispatcher(db, 20))
		handler.ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/compatibility?ids=2,3,9,2", nil, 1))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{
			"results": [
				{"user_id": 2, "score": 100, "label": "Excellent Match!"},
				{"user_id": 3, "score": 20, "label": "Fair Match"}
			],
			"missing": [9]
		}`, w.Body.String())
	})

	for _, ids := range []string{"", "1,x", "0", "4,-1"} {
		t.Run("Invalid IDs "+ids, func(t *testing.T) {
			db, _ := newMockDB(t)
			w := httptest.NewRecorder()
			roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/compatibility?ids="+ids, nil, 1))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid_ids", errorCode(t, w))
		})
	}
}

func TestDismissRoommateHandler(t *testing.T) {
	t.Run("Dismiss", func(t *testing.T) {
		db, mock := newMockDB(t)
		_, _, stranger := matchFixtures()
		expectLoadProfile(t, mock, 3, &stranger)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dismissed_roommates")).
			WithArgs(1, 3).WillReturnResult(sqlmock.NewResult(0, 1))

		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodPost, "/roommates/3/dismiss", nil, 1))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"dismissed": true}`, w.Body.String())
	})

	t.Run("Unknown Target", func(t *testing.T) {
		db, mock := newMockDB(t)
		expectLoadProfile(t, mock, 8, nil)

		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodPost, "/roommates/8/dismiss", nil, 1))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Self", func(t *testing.T) {
		db, _ := newMockDB(t)
		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodPost, "/roommates/1/dismiss", nil, 1))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Wrong Method", func(t *testing.T) {
		db, _ := newMockDB(t)
		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/3/dismiss", nil, 1))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestRoommatesDispatcherUnknownRoutes(t *testing.T) {
	db, _ := newMockDB(t)
	for _, path := range []string{"/roommates/", "/roommates/nearby", "/roommates/3/chat", "/roommates/3/profile/extra"} {
		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, path, nil, 1))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestParseIDList(t *testing.T) {
	ids, ok := parseIDList(" 3, 1,3 ,2")
	assert.True(t, ok)
	assert.Equal(t, []int{3, 1, 2}, ids)

	_, ok = parseIDList("   ")
	assert.False(t, ok)

	long := "1"
	for i := 2; i <= maxMatchLimit+1; i++ {
		long += "," + strconv.Itoa(i)
	}
	_, ok = parseIDList(long)
	assert.False(t, ok)
}
