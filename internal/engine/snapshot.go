package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/cookieworks/internal/catalog"
	"github.com/talgya/cookieworks/internal/economy"
	"github.com/talgya/cookieworks/internal/vip"
)

// SnapshotVersion is the current persisted layout.
//
//	1: initial layout (no coins, coin multiplier, active time or lifetime clicks)
//	2: adds Coins, CoinMultiplier, TotalActiveTime, LifetimeClicks, ProductionMultiplier
const SnapshotVersion = 2

// ErrSnapshotVersion is returned for snapshots newer than this build understands.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot is the flat, versioned record of the state that survives a reload.
// Effects and notifications are transient and never included.
type Snapshot struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`

	Cookies              float64 `json:"cookies"`
	TotalCookies         float64 `json:"total_cookies"`
	CookiesPerClick      float64 `json:"cookies_per_click"`
	ProductionMultiplier float64 `json:"production_multiplier"`

	Level         int     `json:"level"`
	XP            float64 `json:"xp"`
	XPToNextLevel float64 `json:"xp_to_next_level"`

	Streak        int       `json:"streak"`
	MaxStreak     int       `json:"max_streak"`
	LastClickTime time.Time `json:"last_click_time"`

	Clicks          int     `json:"clicks"`
	LifetimeClicks  int     `json:"lifetime_clicks"`
	TimePlayed      float64 `json:"time_played"`
	TotalActiveTime float64 `json:"total_active_time"`

	PrestigeLevel  int `json:"prestige_level"`
	PrestigePoints int `json:"prestige_points"`

	Buildings            map[catalog.BuildingID]int          `json:"buildings"`
	Upgrades             map[catalog.UpgradeID]bool          `json:"upgrades"`
	UnlockedAchievements map[catalog.AchievementID]time.Time `json:"unlocked_achievements"`

	Coins          float64 `json:"coins"`
	CoinMultiplier float64 `json:"coin_multiplier"`

	IsActiveSession    bool      `json:"is_active_session"`
	LastTickTimestamp  time.Time `json:"last_tick_timestamp"`
	LastPauseTimestamp time.Time `json:"last_pause_timestamp"`

	VIPTier       vip.Tier  `json:"vip_tier"`
	VIPVerifiedAt time.Time `json:"vip_verified_at"`
}

// Snapshot captures the persisted subset of the current state.
func (g *Game) Snapshot() Snapshot {
	st := g.st.clone()
	return Snapshot{
		Version:              SnapshotVersion,
		SavedAt:              g.clock.Now(),
		Cookies:              st.Cookies,
		TotalCookies:         st.TotalCookies,
		CookiesPerClick:      st.CookiesPerClick,
		ProductionMultiplier: st.ProductionMultiplier,
		Level:                st.Level,
		XP:                   st.XP,
		XPToNextLevel:        st.XPToNextLevel,
		Streak:               st.Streak,
		MaxStreak:            st.MaxStreak,
		LastClickTime:        st.LastClickTime,
		Clicks:               st.Clicks,
		LifetimeClicks:       st.LifetimeClicks,
		TimePlayed:           st.TimePlayed,
		TotalActiveTime:      st.TotalActiveTime,
		PrestigeLevel:        st.PrestigeLevel,
		PrestigePoints:       st.PrestigePoints,
		Buildings:            st.Buildings,
		Upgrades:             st.Upgrades,
		UnlockedAchievements: st.UnlockedAchievements,
		Coins:                st.Coins,
		CoinMultiplier:       st.CoinMultiplier,
		IsActiveSession:      st.IsActiveSession,
		LastTickTimestamp:    st.LastTickTimestamp,
		LastPauseTimestamp:   st.LastPauseTimestamp,
		VIPTier:              st.VIPTier,
		VIPVerifiedAt:        st.VIPVerifiedAt,
	}
}

// Migrate upgrades an older snapshot to SnapshotVersion in place.
func (s *Snapshot) Migrate() error {
	switch {
	case s.Version > SnapshotVersion:
		return fmt.Errorf("%w: %d (max %d)", ErrSnapshotVersion, s.Version, SnapshotVersion)
	case s.Version < 1:
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}
	if s.Version == 1 {
		s.Coins = 0
		s.CoinMultiplier = 1
		s.TotalActiveTime = s.TimePlayed
		s.LifetimeClicks = s.Clicks
		s.ProductionMultiplier = 1
		s.Version = 2
	}
	return nil
}

// Restore rebuilds a Game from a snapshot. Derived fields are recomputed and
// invalid numbers are clamped. A session that was active when saved comes
// back paused as of SavedAt, so the gap is handled as an offline window on
// the next ResumeSession.
func Restore(snap Snapshot, opts Options) (*Game, error) {
	if err := snap.Migrate(); err != nil {
		return nil, err
	}
	g := newGame(opts)
	t := g.tuning

	st := freshState(t.BaseClickYield, t.BaseXPToNextLevel)
	st.Cookies = economy.Sanitize(snap.Cookies)
	st.TotalCookies = economy.Sanitize(snap.TotalCookies)
	if snap.CookiesPerClick > 0 {
		st.CookiesPerClick = snap.CookiesPerClick
	}
	if snap.ProductionMultiplier > 0 {
		st.ProductionMultiplier = snap.ProductionMultiplier
	}
	if snap.Level >= 1 {
		st.Level = snap.Level
	}
	st.XP = economy.Sanitize(snap.XP)
	if snap.XPToNextLevel > 0 {
		st.XPToNextLevel = snap.XPToNextLevel
	}
	st.Streak = max(snap.Streak, 0)
	st.MaxStreak = max(snap.MaxStreak, st.Streak)
	st.LastClickTime = snap.LastClickTime
	st.Clicks = max(snap.Clicks, 0)
	st.LifetimeClicks = max(snap.LifetimeClicks, st.Clicks)
	st.TimePlayed = economy.Sanitize(snap.TimePlayed)
	st.TotalActiveTime = economy.Sanitize(snap.TotalActiveTime)
	st.PrestigeLevel = max(snap.PrestigeLevel, 0)
	st.PrestigePoints = max(snap.PrestigePoints, 0)
	st.Coins = economy.Sanitize(snap.Coins)
	if snap.CoinMultiplier >= 1 {
		st.CoinMultiplier = snap.CoinMultiplier
	}

	dropped := 0
	for id, n := range snap.Buildings {
		if _, ok := g.cat.Building(id); !ok || n <= 0 {
			dropped++
			continue
		}
		st.Buildings[id] = n
	}
	for id, owned := range snap.Upgrades {
		if _, ok := g.cat.Upgrade(id); !ok || !owned {
			continue
		}
		st.Upgrades[id] = true
	}
	// Achievements are append-only; keep ids even if the catalog dropped them.
	for id, at := range snap.UnlockedAchievements {
		st.UnlockedAchievements[id] = at
	}
	if dropped > 0 {
		slog.Warn("restore dropped unknown or empty buildings", "count", dropped)
	}

	st.LastTickTimestamp = snap.LastTickTimestamp
	st.IsActiveSession = false
	st.LastPauseTimestamp = snap.LastPauseTimestamp
	if snap.IsActiveSession || st.LastPauseTimestamp.IsZero() {
		st.LastPauseTimestamp = snap.SavedAt
	}
	if snap.VIPTier.Valid() {
		st.VIPTier = snap.VIPTier
	}
	st.VIPVerifiedAt = snap.VIPVerifiedAt

	g.st = st
	if limits, ok := t.Offline.For(st.VIPTier); ok {
		g.st.OfflineCPSMultiplier = limits.Multiplier
	}
	g.recomputeProduction()
	g.markDirty()
	return g, nil
}
