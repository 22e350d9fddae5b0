package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/db"
	"github.com/shinyyama/ctrl-alt-block/internal/economy"
	"github.com/shinyyama/ctrl-alt-block/internal/fup"
	appmw "github.com/shinyyama/ctrl-alt-block/internal/middleware"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func newTestServer(t *testing.T, conn *gorm.DB) *Server {
	return newTestServerWith(t, conn, func(*Deps) {})
}

func newTestServerWith(t *testing.T, conn *gorm.DB, edit func(*Deps)) *Server {
	d := Deps{
		DB:                    conn,
		Auth:                  appmw.DebugAuth{},
		Enforcer:              fup.NewMemoryEnforcer(fup.DefaultPolicy()),
		MaxCombinedMultiplier: 4.0,
	}
	edit(&d)
	return New(d)
}

// seedLogins posts one DAILY_LOGIN per day for the given number of days
// ending today.
func seedLogins(t *testing.T, conn *gorm.DB, uid string, days int) {
	ledger := repository.NewLedgerRepository(conn)
	now := time.Now().UTC()
	for i := 0; i < days; i++ {
		_, err := ledger.Post(context.Background(), repository.Posting{
			UserID:   uid,
			Type:     model.LedgerEntryEarned,
			Activity: economy.ActivityDailyLogin,
			Amount:   10,
			At:       now.AddDate(0, 0, -i),
		})
		require.NoError(t, err)
	}
}

func call(t *testing.T, s *Server, method, path, uid, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set(appmw.DebugUIDHeader, uid)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var out map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func TestHealthzAndLateDB(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := call(t, s, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "connecting", body["db"])

	rec, body = call(t, s, http.MethodGet, "/api/me", "u1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "db_not_ready", errorCode(body))

	s.SetDB(setupTestDB(t))

	_, body = call(t, s, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, "ready", body["db"])
	rec, _ = call(t, s, http.MethodPost, "/api/me", "u1", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, setupTestDB(t))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, setupTestDB(t))
	rec, _ := call(t, s, http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t, setupTestDB(t))

	rec, body := call(t, s, http.MethodGet, "/api/me", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(body))

	rec, body = call(t, s, http.MethodPost, "/api/me", "u1", `{"archetype":"GHOST_RUNNER"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", body["uid"])
	assert.Equal(t, "GHOST_RUNNER", body["archetype"])
	assert.Equal(t, "free", body["tier"])
	assert.EqualValues(t, 0, body["byteBalance"])

	rec, body = call(t, s, http.MethodPost, "/api/me", "u1", `{"archetype":"WIZARD"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", errorCode(body))

	rec, body = call(t, s, http.MethodGet, "/api/me", "u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GHOST_RUNNER", body["archetype"])
}

func TestByteRoutes(t *testing.T) {
	s := newTestServer(t, setupTestDB(t))
	call(t, s, http.MethodPost, "/api/me", "u1", `{}`)

	rec, body := call(t, s, http.MethodPost, "/api/me/bytes/award", "u1", `{"activity":"DAILY_RITUAL_1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 50, body["bytesAwarded"])
	achievements, _ := body["achievements"].([]interface{})
	require.Len(t, achievements, 1)
	assert.Equal(t, "FIRST_BOOT", achievements[0].(map[string]interface{})["id"])
	assert.EqualValues(t, 75, body["newBalance"])

	rec, body = call(t, s, http.MethodPost, "/api/me/bytes/award", "u1", `{"activity":"DAILY_RITUAL_1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["limitReached"])
	assert.EqualValues(t, 75, body["newBalance"])

	rec, body = call(t, s, http.MethodPost, "/api/me/bytes/award", "u1", `{"activity":"NAP"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", errorCode(body))

	rec, _ = call(t, s, http.MethodPost, "/api/me/bytes/award", "u1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = call(t, s, http.MethodPost, "/api/me/bytes/spend", "u1", `{"amount":1000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Insufficient balance", body["message"])
	assert.EqualValues(t, 75, body["newBalance"])

	rec, body = call(t, s, http.MethodPost, "/api/me/bytes/spend", "u1", `{"amount":30,"description":"theme","relatedId":"theme-neon"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 45, body["newBalance"])
	tx, _ := body["transaction"].(map[string]interface{})
	assert.EqualValues(t, -30, tx["amount"])
	assert.Equal(t, "theme-neon", tx["relatedId"])

	rec, _ = call(t, s, http.MethodPost, "/api/me/bytes/spend", "u1", `{"amount":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = call(t, s, http.MethodGet, "/api/me/bytes", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 45, body["balance"])
	recent, _ := body["recentTransactions"].([]interface{})
	assert.Len(t, recent, 3)
	stats, _ := body["stats"].(map[string]interface{})
	assert.EqualValues(t, 75, stats["allTime"])
	assert.EqualValues(t, 1, stats["currentStreak"])

	rec, body = call(t, s, http.MethodGet, "/api/me/bytes/transactions?limit=2&offset=0", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["total"])
	items, _ := body["items"].([]interface{})
	assert.Len(t, items, 2)

	rec, body = call(t, s, http.MethodGet, "/api/me/bytes/stats", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 75, body["today"])
}

func TestStreakBonusRoute(t *testing.T) {
	conn := setupTestDB(t)
	s := newTestServer(t, conn)
	call(t, s, http.MethodPost, "/api/me", "u1", `{}`)

	rec, body := call(t, s, http.MethodPost, "/api/me/bytes/streak-bonus", "u1", `{"streakType":"ritual","streakDays":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = call(t, s, http.MethodPost, "/api/me/bytes/streak-bonus", "u1", `{"streakType":"sleeping","streakDays":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// no history: every threshold of every type is refused
	for _, st := range economy.StreakTypes {
		for days := range economy.StreakBonuses {
			rec, body = call(t, s, http.MethodPost, "/api/me/bytes/streak-bonus", "u1",
				fmt.Sprintf(`{"streakType":%q,"streakDays":%d}`, st, days))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, false, body["success"], "%s/%d", st, days)
		}
	}
	_, body = call(t, s, http.MethodGet, "/api/me/bytes", "u1", "")
	assert.EqualValues(t, 0, body["balance"])

	seedLogins(t, conn, "u1", 3)
	rec, body = call(t, s, http.MethodPost, "/api/me/bytes/streak-bonus", "u1", `{"streakType":"login","streakDays":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 3, body["currentStreak"])
	assert.EqualValues(t, 25, body["bytesAwarded"])

	rec, body = call(t, s, http.MethodPost, "/api/me/bytes/streak-bonus", "u1", `{"streakType":"login","streakDays":7}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestAwardRejectsAdminOnlyActivity(t *testing.T) {
	s := newTestServer(t, setupTestDB(t))
	call(t, s, http.MethodPost, "/api/me", "u1", `{}`)

	rec, body := call(t, s, http.MethodPost, "/api/me/bytes/award", "u1", `{"activity":"MILESTONE_REACHED"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorCode(body))

	_, body = call(t, s, http.MethodGet, "/api/me/bytes", "u1", "")
	assert.EqualValues(t, 0, body["balance"])
}

func TestGlitchIsServerSide(t *testing.T) {
	s := newTestServerWith(t, setupTestDB(t), func(d *Deps) { d.GlitchChance = 1 })
	call(t, s, http.MethodPost, "/api/me", "u1", `{}`)

	rec, _ := call(t, s, http.MethodPost, "/api/me/bytes/glitch", "u1", ``)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := call(t, s, http.MethodPost, "/api/me/bytes/award", "u1", `{"activity":"DAILY_LOGIN"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	glitch, ok := body["glitch"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, []interface{}{"small", "medium", "large"}, glitch["tier"])

	rec, body = call(t, s, http.MethodPost, "/api/me/bytes/award", "u1", `{"activity":"WALL_POST"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body["glitch"])
}

func TestMaxCombinedMultiplierPassesThrough(t *testing.T) {
	award := func(limit float64) interface{} {
		conn := setupTestDB(t)
		s := newTestServerWith(t, conn, func(d *Deps) { d.MaxCombinedMultiplier = limit })
		call(t, s, http.MethodPost, "/api/me", "u1", `{}`)
		now := time.Now().UTC()
		require.NoError(t, repository.NewMultiplierRepository(conn).Activate(context.Background(), &model.UserMultiplier{
			UserID: "u1", MultiplierID: economy.MultiplierStreakFire, Factor: 5,
			ActivatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour), IsActive: true,
		}))
		_, body := call(t, s, http.MethodPost, "/api/me/bytes/award", "u1", `{"activity":"DAILY_LOGIN"}`)
		return body["bytesAwarded"]
	}
	assert.EqualValues(t, 40, award(4))
	assert.EqualValues(t, 50, award(0))
}

func TestAchievementRoutes(t *testing.T) {
	s := newTestServer(t, setupTestDB(t))
	call(t, s, http.MethodPost, "/api/me", "u1", `{}`)
	call(t, s, http.MethodPost, "/api/me/bytes/award", "u1", `{"activity":"DAILY_RITUAL_1"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/me/achievements", nil)
	req.Header.Set(appmw.DebugUIDHeader, "u1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.NotEmpty(t, list)
	assert.Equal(t, "FIRST_BOOT", list[0]["id"])
	assert.Equal(t, true, list[0]["unlocked"])
	assert.NotEmpty(t, list[0]["unlockedAt"])

	rec2, body := call(t, s, http.MethodPost, "/api/me/achievements/check", "u1", `{"activity":"DAILY_RITUAL_1"}`)
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Empty(t, body["unlocked"])

	rec2, body = call(t, s, http.MethodGet, "/api/me/notifications", "u1", "")
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.EqualValues(t, 1, body["unreadCount"])
	notes, _ := body["notifications"].([]interface{})
	require.Len(t, notes, 1)
	assert.Equal(t, "FIRST_BOOT", notes[0].(map[string]interface{})["achievementId"])

	rec2, _ = call(t, s, http.MethodPost, "/api/me/notifications/read", "u1", "")
	require.Equal(t, http.StatusOK, rec2.Code)
	_, body = call(t, s, http.MethodGet, "/api/me/notifications", "u1", "")
	assert.EqualValues(t, 0, body["unreadCount"])
	assert.Empty(t, body["notifications"])

	req = httptest.NewRequest(http.MethodGet, "/api/me/multipliers", nil)
	req.Header.Set(appmw.DebugUIDHeader, "u1")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "["))
}

func TestTherapyRoutes(t *testing.T) {
	s := newTestServer(t, setupTestDB(t))

	// unknown user: the session cannot be evaluated
	rec, body := call(t, s, http.MethodPost, "/api/me/therapy/sessions", "u1", `{"input":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", errorCode(body))

	call(t, s, http.MethodPost, "/api/me", "u1", `{"archetype":"DATA_HOARDER"}`)

	rec, _ = call(t, s, http.MethodPost, "/api/me/therapy/sessions", "u1", `{"input":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for i := 0; i < 2; i++ {
		rec, body = call(t, s, http.MethodPost, "/api/me/therapy/sessions", "u1",
			`{"input":"I feel so anxious and stuck","sessionType":"crisis"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["allowed"])
		sess, _ := body["session"].(map[string]interface{})
		assert.Equal(t, "crisis", sess["sessionType"])
		assert.Equal(t, "DATA_HOARDER", sess["archetype"])
		assert.NotEmpty(t, sess["response"])
		assert.NotEmpty(t, sess["id"])
	}

	rec, body = call(t, s, http.MethodPost, "/api/me/therapy/sessions", "u1", `{"input":"again"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, false, body["allowed"])
	assert.NotEmpty(t, body["reason"])
	assert.NotNil(t, body["cooldownMinutes"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestAllowOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"https://127.0.0.1:5173", true},
		{"https://ctrl-alt-block.vercel.app", true},
		{"http://ctrl-alt-block.vercel.app", false},
		{"https://evil-vercel.app.example.com", false},
		{"https://example.com", false},
	}
	for _, tt := range tests {
		got, err := allowOrigin(tt.origin)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.origin)
	}
}
