package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/cookieworks/internal/catalog"
	"github.com/talgya/cookieworks/internal/economy"
	"github.com/talgya/cookieworks/internal/engine"
	"github.com/talgya/cookieworks/internal/entropy"
	"github.com/talgya/cookieworks/internal/persistence"
)

const testAdminKey = "secret"

func newTestServer(t *testing.T) (*Server, *engine.Game) {
	t.Helper()
	clk := engine.NewMockClock(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	g := engine.NewGame(engine.Options{Clock: clk, Random: entropy.NewFixed()})
	return &Server{
		Sched:     engine.NewScheduler(g, time.Second),
		SessionID: "test-session",
		AdminKey:  testAdminKey,
		Origins:   []string{"http://localhost:5173"},
	}, g
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClickEndpoint(t *testing.T) {
	s, g := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/click", `{"x": 12, "y": 34}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res engine.ClickResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Yield != 1 || res.Effect.X != 12 {
		t.Errorf("unexpected click result %+v", res)
	}

	// An empty body is a click at the origin.
	if rec := do(t, h, http.MethodPost, "/api/v1/click", ""); rec.Code != http.StatusOK {
		t.Errorf("expected empty body to be accepted, got %d", rec.Code)
	}
	if got := g.State().Clicks; got != 2 {
		t.Errorf("expected 2 clicks, got %d", got)
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/click", "{nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad json, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/click", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}
}

func TestClickRateLimited(t *testing.T) {
	s, _ := newTestServer(t)
	s.ClickRate = 0.001
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/v1/click", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected first click allowed, got %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/v1/click", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
}

func TestStateEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	do(t, h, http.MethodPost, "/api/v1/click", "")

	rec := do(t, h, http.MethodGet, "/api/v1/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID != "test-session" || resp.State.Cookies != 1 {
		t.Errorf("unexpected state %+v", resp)
	}
	if resp.BuildingCosts["cursor"] != 15 {
		t.Errorf("expected cursor cost 15, got %v", resp.BuildingCosts["cursor"])
	}
	if resp.CanPrestige {
		t.Error("expected a new session to be ineligible for prestige")
	}
}

func TestCatalogEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/catalog", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"cursor"`, `"multiply_click_yield"`, `"total_cookies"`, `"next_cost"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected catalog to contain %s", want)
		}
	}

	var resp struct {
		Buildings []struct {
			ID       string  `json:"id"`
			NextCost float64 `json:"next_cost"`
			Cost10   float64 `json:"cost_x10"`
		} `json:"buildings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	cursor, _ := catalog.Default().Building("cursor")
	for _, b := range resp.Buildings {
		if b.ID != "cursor" {
			continue
		}
		if want := economy.BulkCost(cursor, 0, 10); b.Cost10 != want {
			t.Errorf("expected cost_x10 %v, got %v", want, b.Cost10)
		}
		if b.Cost10 <= 10*b.NextCost {
			t.Errorf("expected rising prices across the batch, got %v for next cost %v", b.Cost10, b.NextCost)
		}
	}
}

func TestBuyEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/v1/buy/building", `{"id": "cursor"}`); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for an unaffordable building, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/buy/building", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without an id, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/buy/upgrade", `{"id": "reinforced_finger"}`); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for an unaffordable upgrade, got %d", rec.Code)
	}

	for i := 0; i < 15; i++ {
		do(t, h, http.MethodPost, "/api/v1/click", "")
	}
	rec := do(t, h, http.MethodPost, "/api/v1/buy/building", `{"id": "cursor"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected purchase to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State.Buildings["cursor"] != 1 || resp.BuildingCosts["cursor"] != 18 {
		t.Errorf("expected 1 cursor with next cost 18, got %d at %v", resp.State.Buildings["cursor"], resp.BuildingCosts["cursor"])
	}
}

func TestPrestigeEndpointIneligible(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/prestige", ""); rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestSessionEndpoints(t *testing.T) {
	s, g := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/session/pause", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"active": false`) {
		t.Errorf("expected paused, got %d %s", rec.Code, rec.Body.String())
	}
	if g.State().IsActiveSession {
		t.Error("expected game paused")
	}

	rec = do(t, h, http.MethodPost, "/api/v1/session/resume", "")
	if rec.Code != http.StatusOK || !g.State().IsActiveSession {
		t.Errorf("expected resumed, got %d", rec.Code)
	}
}

func TestVIPRequiresAdmin(t *testing.T) {
	s, g := newTestServer(t)
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/v1/vip", `{"tier": "tier2"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
	auth := []string{"Authorization", "Bearer " + testAdminKey}
	if rec := do(t, h, http.MethodPost, "/api/v1/vip", `{"tier": "platinum"}`, auth...); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown tier, got %d", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/api/v1/vip", `{"tier": "tier2"}`, auth...)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if st := g.State(); st.VIPTier.String() != "tier2" || st.OfflineCPSMultiplier != 0.5 {
		t.Errorf("expected tier2 at 0.5, got %v at %v", st.VIPTier, st.OfflineCPSMultiplier)
	}

	s.AdminKey = ""
	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/vip", `{"tier": "tier1"}`, auth...); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 with admin disabled, got %d", rec.Code)
	}
}

func TestNotificationsDrain(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	s.Sched.Do(func(g *engine.Game) {
		g.Click(0, 0)
		g.EvaluateAchievements()
	})

	rec := do(t, h, http.MethodGet, "/api/v1/notifications", "")
	var notes []engine.Notice
	if err := json.Unmarshal(rec.Body.Bytes(), &notes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(notes) != 1 || notes[0].Kind != engine.NoticeAchievement {
		t.Fatalf("expected one achievement notice, got %+v", notes)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/notifications", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected queue drained, got %s", rec.Body.String())
	}
}

func TestEffectsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	do(t, h, http.MethodPost, "/api/v1/click", `{"x": 5, "y": 6}`)

	rec := do(t, h, http.MethodGet, "/api/v1/effects", "")
	if !strings.Contains(rec.Body.String(), `"x": 5`) {
		t.Errorf("expected the click effect, got %s", rec.Body.String())
	}
}

func TestSaveAndUnlocks(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	if rec := do(t, h, http.MethodGet, "/api/v1/unlocks", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a database, got %d", rec.Code)
	}

	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	s.DB = db
	h = s.Handler()

	s.Sched.Do(func(g *engine.Game) {
		g.Click(0, 0)
		g.EvaluateAchievements()
	})
	rec := do(t, h, http.MethodPost, "/api/v1/save", "", "Authorization", "Bearer "+testAdminKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected save to succeed, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/unlocks", "")
	var unlocks []persistence.Unlock
	if err := json.Unmarshal(rec.Body.Bytes(), &unlocks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(unlocks) != 1 || unlocks[0].AchievementID != "wake_and_bake" {
		t.Errorf("expected wake_and_bake in history, got %+v", unlocks)
	}
}

func TestStreamDisabledWithoutHub(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := do(t, s.Handler(), http.MethodGet, "/api/v1/stream", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodOptions, "/api/v1/click", "", "Origin", "http://localhost:5173")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("expected origin echoed for an allowed dev server")
	}

	rec = do(t, s.Handler(), http.MethodOptions, "/api/v1/click", "", "Origin", "http://evil.example")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for an unlisted origin, got %q", got)
	}
}
