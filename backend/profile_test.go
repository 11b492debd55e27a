package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihaven/unihaven/backend/compat"
)

// ============================================================================
// ROOMMATE PROFILE TEST SUITE
// ============================================================================

func TestRoommateProfileSuite(t *testing.T) {
	t.Run("GetOwnProfile", testGetOwnProfile)
	t.Run("SaveProfile", testSaveProfile)
	t.Run("DeleteProfile", testDeleteProfile)
	t.Run("ToggleProfile", testToggleProfile)
	t.Run("OtherUsersProfile", testOtherUsersProfile)
}

func testGetOwnProfile(t *testing.T) {
	t.Run("Existing Profile", func(t *testing.T) {
		db, mock := newMockDB(t)
		me := viewerProfile()
		expectLoadProfile(t, mock, 1, &me)

		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, newMatchHub(60)).ServeHTTP(w, authedRequest(t, http.MethodGet, "/me/roommate-profile", nil, 1))

		require.Equal(t, http.StatusOK, w.Code)
		got := decodeBody[compat.Profile](t, w)
		assert.Equal(t, me, got)
	})

	t.Run("No Profile Yet", func(t *testing.T) {
		db, mock := newMockDB(t)
		expectLoadProfile(t, mock, 1, nil)

		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, newMatchHub(60)).ServeHTTP(w, authedRequest(t, http.MethodGet, "/me/roommate-profile", nil, 1))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "profile_not_found", errorCode(t, w))
	})

	t.Run("Unauthorized", func(t *testing.T) {
		db, _ := newMockDB(t)
		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, newMatchHub(60)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me/roommate-profile", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func testSaveProfile(t *testing.T) {
	t.Run("Valid Profile Is Normalized And Stored", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO roommate_profiles")).
			WithArgs(1, "Ada", 100000, 200000, "UNILAG", sqlmock.AnyArg(), sqlmock.AnyArg(),
				[]byte(`["Chess","Art"]`), sqlmock.AnyArg(), "").
			WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(true))

		body := `{
			"display_name": " Ada ",
			"budget_min": 100000,
			"budget_max": 200000,
			"university": "UNILAG",
			"faculty": "Science",
			"interests": ["Chess", " Art", "Chess", ""],
			"lifestyle_preferences": {"cleanliness": "Very neat", "pets": "No pets"}
		}`
		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, newMatchHub(60)).ServeHTTP(w,
			authedRequest(t, http.MethodPut, "/me/roommate-profile", strings.NewReader(body), 1))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decodeBody[compat.Profile](t, w)
		assert.Equal(t, "Ada", got.DisplayName)
		assert.Equal(t, []string{"Chess", "Art"}, got.Interests)
		assert.Equal(t, "Very neat", got.Lifestyle.Cleanliness)
		assert.Equal(t, "No pets", got.Lifestyle.Pets)
		assert.True(t, got.Active)
	})

	t.Run("Editing Hidden Profile Keeps It Hidden", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("RETURNING is_active")).
			WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(false))

		hub := newMatchHub(0)
		owner := fakeClient(1, 4)
		hub.register(owner, viewerProfile())
		defer hub.unregister(owner)

		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, hub).ServeHTTP(w,
			authedRequest(t, http.MethodPut, "/me/roommate-profile",
				strings.NewReader(`{"display_name": "Ada", "budget_min": 1, "budget_max": 2, "university": "UI"}`), 1))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.False(t, decodeBody[compat.Profile](t, w).Active)
		assert.NotContains(t, hub.viewers, 1, "hidden owner must not be matched")
	})

	t.Run("Upsert Does Not Touch Visibility", func(t *testing.T) {
		var update string
		matcher := sqlmock.QueryMatcherFunc(func(_, actual string) error {
			if i := strings.Index(actual, "DO UPDATE SET"); i >= 0 {
				update = actual[i:]
			}
			return nil
		})
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery("INSERT").WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(true))

		_, err = saveProfile(context.Background(), db, viewerProfile())
		require.NoError(t, err)
		require.NotEmpty(t, update)
		assert.NotContains(t, update, "is_active =")
		assert.Contains(t, update, "RETURNING is_active")
	})

	cases := []struct {
		name string
		body string
		code string
	}{
		{"Inverted Budget", `{"budget_min": 300, "budget_max": 200, "university": "UI"}`, "invalid_budget_range"},
		{"Negative Budget", `{"budget_min": -5, "budget_max": 200, "university": "UI"}`, "negative_budget"},
		{"Missing University", `{"budget_min": 1, "budget_max": 2, "university": "  "}`, "missing_university"},
		{"Budget Too Large", `{"budget_min": 1, "budget_max": 3000000000, "university": "UI"}`, "budget_too_large"},
		{"Invalid JSON", `{"budget_min":`, "invalid_json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, _ := newMockDB(t)
			w := httptest.NewRecorder()
			meRoommateProfileHandler(db, newMatchHub(60)).ServeHTTP(w,
				authedRequest(t, http.MethodPut, "/me/roommate-profile", strings.NewReader(tc.body), 1))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}

	t.Run("Database Failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO roommate_profiles")).WillReturnError(assert.AnError)

		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, newMatchHub(60)).ServeHTTP(w,
			authedRequest(t, http.MethodPut, "/me/roommate-profile",
				strings.NewReader(`{"budget_min": 1, "budget_max": 2, "university": "UI"}`), 1))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "profile_save_error", errorCode(t, w))
	})
}

func testDeleteProfile(t *testing.T) {
	t.Run("Hard Delete", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM dismissed_roommates")).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM roommate_profiles")).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		hub := newMatchHub(0)
		owner := fakeClient(1, 4)
		hub.register(owner, viewerProfile())
		defer hub.unregister(owner)

		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, hub).ServeHTTP(w, authedRequest(t, http.MethodDelete, "/me/roommate-profile", nil, 1))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.NotContains(t, hub.viewers, 1)
		twin, _, _ := matchFixtures()
		assert.Zero(t, hub.profileSaved(twin), "deleted owner must not be alerted")
	})

	t.Run("Nothing To Delete", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM dismissed_roommates")).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM roommate_profiles")).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, newMatchHub(60)).ServeHTTP(w, authedRequest(t, http.MethodDelete, "/me/roommate-profile", nil, 1))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "profile_not_found", errorCode(t, w))
	})
}

func testToggleProfile(t *testing.T) {
	t.Run("Deactivate", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE roommate_profiles SET is_active = $2")).
			WithArgs(1, false).WillReturnResult(sqlmock.NewResult(0, 1))

		hub := newMatchHub(0)
		owner := fakeClient(1, 4)
		hub.register(owner, viewerProfile())
		defer hub.unregister(owner)

		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, hub).ServeHTTP(w,
			authedRequest(t, http.MethodPost, "/me/roommate-profile/deactivate", nil, 1))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]bool{"is_active": false}, decodeBody[map[string]bool](t, w))
		assert.NotContains(t, hub.viewers, 1)
		assert.Equal(t, AlertEvent{Type: "info", Data: "profile_removed"}, <-owner.send)
	})

	t.Run("Activate Reloads Profile", func(t *testing.T) {
		db, mock := newMockDB(t)
		me := viewerProfile()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE roommate_profiles SET is_active = $2")).
			WithArgs(1, true).WillReturnResult(sqlmock.NewResult(0, 1))
		expectLoadProfile(t, mock, 1, &me)

		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, newMatchHub(60)).ServeHTTP(w,
			authedRequest(t, http.MethodPost, "/me/roommate-profile/activate", nil, 1))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("No Profile", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE roommate_profiles SET is_active = $2")).
			WithArgs(1, false).WillReturnResult(sqlmock.NewResult(0, 0))

		w := httptest.NewRecorder()
		meRoommateProfileHandler(db, newMatchHub(60)).ServeHTTP(w,
			authedRequest(t, http.MethodPost, "/me/roommate-profile/deactivate", nil, 1))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Wrong Method And Unknown Action", func(t *testing.T) {
		db, _ := newMockDB(t)
		h := meRoommateProfileHandler(db, newMatchHub(60))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, authedRequest(t, http.MethodGet, "/me/roommate-profile/deactivate", nil, 1))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

		w = httptest.NewRecorder()
		h.ServeHTTP(w, authedRequest(t, http.MethodPost, "/me/roommate-profile/explode", nil, 1))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func testOtherUsersProfile(t *testing.T) {
	t.Run("Active Profile Visible", func(t *testing.T) {
		db, mock := newMockDB(t)
		other := viewerProfile()
		other.UserID = 2
		expectLoadProfile(t, mock, 2, &other)

		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/2/profile", nil, 1))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, decodeBody[compat.Profile](t, w).UserID)
	})

	t.Run("Inactive Profile Hidden", func(t *testing.T) {
		db, mock := newMockDB(t)
		other := viewerProfile()
		other.UserID = 2
		other.Active = false
		expectLoadProfile(t, mock, 2, &other)

		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/2/profile", nil, 1))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Bad ID", func(t *testing.T) {
		db, _ := newMockDB(t)
		w := httptest.NewRecorder()
		roommatesDispatcher(db, 20).ServeHTTP(w, authedRequest(t, http.MethodGet, "/roommates/abc/profile", nil, 1))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProfileRequestToProfile(t *testing.T) {
	req := profileRequest{
		DisplayName: "  Bola ",
		BudgetMin:   10,
		BudgetMax:   20,
		University:  " UI ",
		Department:  " ",
		Interests:   []string{"Chess", "chess", " Chess ", ""},
		Lifestyle:   compat.Lifestyle{NoiseLevel: " Quiet "},
	}
	p := req.toProfile(9)

	assert.Equal(t, 9, p.UserID)
	assert.Equal(t, "Bola", p.DisplayName)
	assert.Equal(t, "UI", p.University)
	assert.Empty(t, p.Department)
	assert.Equal(t, []string{"Chess", "chess"}, p.Interests)
	assert.Equal(t, "Quiet", p.Lifestyle.NoiseLevel)
	assert.True(t, p.Active)
}
