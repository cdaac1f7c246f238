// Package api provides the HTTP API for one cookie session.
// GET endpoints read state; POST endpoints drive the game.
// VIP and save endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/cookieworks/internal/catalog"
	"github.com/talgya/cookieworks/internal/effects"
	"github.com/talgya/cookieworks/internal/engine"
	"github.com/talgya/cookieworks/internal/persistence"
	"github.com/talgya/cookieworks/internal/vip"
)

// maxBodyBytes bounds request bodies; every payload is a tiny JSON object.
const maxBodyBytes = 4 << 10

// bulkQuote is the batch size priced in the catalog.
const bulkQuote = 10

// Server serves the session over HTTP.
type Server struct {
	Sched     *engine.Scheduler
	DB        *persistence.DB // Optional. Nil disables save and unlock history.
	Hub       *Hub            // Optional. Nil disables the websocket stream.
	SessionID string
	Port      int
	AdminKey  string   // Bearer token for admin endpoints. Empty = disabled.
	ClickRate float64  // Sustained clicks per second per IP. <= 0 disables limiting.
	Origins   []string // Browser origins allowed by CORS.

	httpServer *http.Server
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Read endpoints.
	mux.HandleFunc("/api/v1/state", allow(http.MethodGet, s.handleState))
	mux.HandleFunc("/api/v1/catalog", allow(http.MethodGet, s.handleCatalog))
	mux.HandleFunc("/api/v1/effects", allow(http.MethodGet, s.handleEffects))
	mux.HandleFunc("/api/v1/notifications", allow(http.MethodGet, s.handleNotifications))
	mux.HandleFunc("/api/v1/unlocks", allow(http.MethodGet, s.handleUnlocks))
	mux.HandleFunc("/api/v1/stream", allow(http.MethodGet, s.handleStream))

	// Player actions.
	click := s.handleClick
	if s.ClickRate > 0 {
		burst := int(math.Ceil(s.ClickRate))
		click = RateLimitMiddleware(NewRateLimiter(s.ClickRate, burst), click)
	}
	mux.HandleFunc("/api/v1/click", allow(http.MethodPost, click))
	mux.HandleFunc("/api/v1/buy/building", allow(http.MethodPost, s.handleBuyBuilding))
	mux.HandleFunc("/api/v1/buy/upgrade", allow(http.MethodPost, s.handleBuyUpgrade))
	mux.HandleFunc("/api/v1/prestige", allow(http.MethodPost, s.handlePrestige))
	mux.HandleFunc("/api/v1/session/pause", allow(http.MethodPost, s.handlePause))
	mux.HandleFunc("/api/v1/session/resume", allow(http.MethodPost, s.handleResume))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/vip", allow(http.MethodPost, s.adminOnly(s.handleVIP)))
	mux.HandleFunc("/api/v1/save", allow(http.MethodPost, s.adminOnly(s.handleSave)))

	return corsMiddleware(s.Origins, mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "click_rate", s.ClickRate)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware echoes the origin back for browsers on the allow list and
// answers preflight requests directly.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow rejects requests that do not use method.
func allow(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no COOKIE_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// decodeBody reads an optional JSON body into v. An empty body is not an error.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type stateResponse struct {
	SessionID      string                         `json:"session_id"`
	State          engine.GameState               `json:"state"`
	CanPrestige    bool                           `json:"can_prestige"`
	PrestigePoints int                            `json:"prestige_points_available"`
	BuildingCosts  map[catalog.BuildingID]float64 `json:"building_costs"`
	Display        map[string]string              `json:"display"`
}

// stateOf must be called inside Sched.Do.
func (s *Server) stateOf(g *engine.Game) stateResponse {
	st := g.State()
	costs := make(map[catalog.BuildingID]float64)
	for _, b := range g.Catalog().Buildings() {
		costs[b.ID], _ = g.BuildingCost(b.ID)
	}
	return stateResponse{
		SessionID:      s.SessionID,
		State:          st,
		CanPrestige:    g.CanPrestige(),
		PrestigePoints: g.PrestigePointsAvailable(),
		BuildingCosts:  costs,
		Display: map[string]string{
			"cookies":       humanize.Commaf(math.Floor(st.Cookies)),
			"total_cookies": humanize.Commaf(math.Floor(st.TotalCookies)),
			"cps":           humanize.CommafWithDigits(st.CookiesPerSecond, 1),
			"coins":         humanize.Commaf(math.Floor(st.Coins)),
		},
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var resp stateResponse
	s.Sched.Do(func(g *engine.Game) { resp = s.stateOf(g) })
	writeJSON(w, resp)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	type buildingEntry struct {
		catalog.Building
		Owned    int     `json:"owned"`
		NextCost float64 `json:"next_cost"`
		Cost10   float64 `json:"cost_x10"`
	}
	type upgradeEntry struct {
		catalog.Upgrade
		Owned bool `json:"owned"`
	}
	type achievementEntry struct {
		catalog.Achievement
		Unlocked bool `json:"unlocked"`
	}

	var (
		buildings    []buildingEntry
		upgrades     []upgradeEntry
		achievements []achievementEntry
	)
	s.Sched.Do(func(g *engine.Game) {
		st := g.State()
		cat := g.Catalog()
		for _, b := range cat.Buildings() {
			cost, _ := g.BuildingCost(b.ID)
			bulk, _ := g.BulkBuildingCost(b.ID, bulkQuote)
			buildings = append(buildings, buildingEntry{Building: b, Owned: st.Buildings[b.ID], NextCost: cost, Cost10: bulk})
		}
		for _, u := range cat.Upgrades() {
			upgrades = append(upgrades, upgradeEntry{Upgrade: u, Owned: st.Upgrades[u.ID]})
		}
		for _, a := range cat.Achievements() {
			achievements = append(achievements, achievementEntry{Achievement: a, Unlocked: st.HasAchievement(a.ID)})
		}
	})

	writeJSON(w, map[string]any{
		"buildings":    buildings,
		"upgrades":     upgrades,
		"achievements": achievements,
	})
}

func (s *Server) handleEffects(w http.ResponseWriter, r *http.Request) {
	var live []effects.Effect
	s.Sched.Do(func(g *engine.Game) { live = g.Effects().Snapshot() })
	writeJSON(w, live)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	var notes []engine.Notice
	s.Sched.Do(func(g *engine.Game) { notes = g.DrainNotifications() })
	if notes == nil {
		notes = []engine.Notice{}
	}
	writeJSON(w, notes)
}

func (s *Server) handleUnlocks(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return
	}
	unlocks, err := s.DB.Unlocks(r.Context(), s.SessionID)
	if err != nil {
		slog.Error("unlock history query failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, unlocks)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}
	s.Hub.ServeWS(w, r)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var res engine.ClickResult
	s.Sched.Do(func(g *engine.Game) { res = g.Click(req.X, req.Y) })
	writeJSON(w, res)
}

type purchaseRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleBuyBuilding(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeBody(r, &req); err != nil || req.ID == "" {
		http.Error(w, "expected {\"id\": ...}", http.StatusBadRequest)
		return
	}

	var (
		ok   bool
		resp stateResponse
	)
	s.Sched.Do(func(g *engine.Game) {
		ok = g.BuyBuilding(catalog.BuildingID(req.ID))
		resp = s.stateOf(g)
	})
	if !ok {
		http.Error(w, "unknown building or not enough cookies", http.StatusConflict)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeBody(r, &req); err != nil || req.ID == "" {
		http.Error(w, "expected {\"id\": ...}", http.StatusBadRequest)
		return
	}

	var (
		ok   bool
		resp stateResponse
	)
	s.Sched.Do(func(g *engine.Game) {
		ok = g.BuyUpgrade(catalog.UpgradeID(req.ID))
		resp = s.stateOf(g)
	})
	if !ok {
		http.Error(w, "unknown upgrade, already owned, or not enough cookies", http.StatusConflict)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handlePrestige(w http.ResponseWriter, r *http.Request) {
	var (
		ok   bool
		resp stateResponse
	)
	s.Sched.Do(func(g *engine.Game) {
		ok = g.Prestige()
		resp = s.stateOf(g)
	})
	if !ok {
		http.Error(w, "not eligible for prestige", http.StatusConflict)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var active bool
	s.Sched.Do(func(g *engine.Game) {
		g.PauseSession()
		active = g.State().IsActiveSession
	})
	writeJSON(w, map[string]bool{"active": active})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	var active bool
	s.Sched.Do(func(g *engine.Game) {
		g.ResumeSession()
		active = g.State().IsActiveSession
	})
	writeJSON(w, map[string]bool{"active": active})
}

func (s *Server) handleVIP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tier string `json:"tier"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tier, err := vip.ParseTier(req.Tier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var mult float64
	s.Sched.Do(func(g *engine.Game) {
		g.SetVIPStatus(tier)
		mult = g.State().OfflineCPSMultiplier
	})
	slog.Info("vip status set", "session", s.SessionID, "tier", tier)
	writeJSON(w, map[string]any{"tier": tier, "offline_multiplier": mult})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return
	}
	var snap engine.Snapshot
	s.Sched.Do(func(g *engine.Game) {
		g.FlushAchievements()
		snap = g.Snapshot()
	})

	if err := s.DB.SaveSnapshot(r.Context(), s.SessionID, snap); err != nil {
		slog.Error("manual save failed", "session", s.SessionID, "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"session_id": s.SessionID, "saved_at": snap.SavedAt})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
