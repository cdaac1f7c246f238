package engine

import (
	"time"

	"github.com/talgya/cookieworks/internal/catalog"
	"github.com/talgya/cookieworks/internal/vip"
)

// GameState is the single mutable aggregate the engine owns. Callers only ever
// see copies of it (see Game.State).
type GameState struct {
	Cookies              float64 `json:"cookies"`
	TotalCookies         float64 `json:"total_cookies"` // Lifetime production this run; zeroed only by prestige.
	CookiesPerClick      float64 `json:"cookies_per_click"`
	CookiesPerSecond     float64 `json:"cookies_per_second"` // Derived from Buildings and ProductionMultiplier.
	ProductionMultiplier float64 `json:"production_multiplier"`

	Level         int     `json:"level"`
	XP            float64 `json:"xp"`
	XPToNextLevel float64 `json:"xp_to_next_level"`

	Streak        int       `json:"streak"`
	MaxStreak     int       `json:"max_streak"`
	LastClickTime time.Time `json:"last_click_time"`

	Clicks          int     `json:"clicks"`          // Clicks this run.
	LifetimeClicks  int     `json:"lifetime_clicks"` // Never reset.
	TimePlayed      float64 `json:"time_played"`     // Seconds, never reset.
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
	LastPauseTimestamp time.Time `json:"last_pause_timestamp"` // Zero when not paused.

	VIPTier              vip.Tier  `json:"vip_tier"`
	VIPVerifiedAt        time.Time `json:"vip_verified_at"`
	OfflineCPSMultiplier float64   `json:"offline_cps_multiplier"`
}

// BuildingsOwned returns the total number of buildings across all kinds.
func (s GameState) BuildingsOwned() int {
	total := 0
	for _, n := range s.Buildings {
		total += n
	}
	return total
}

// HasAchievement reports whether id is unlocked.
func (s GameState) HasAchievement(id catalog.AchievementID) bool {
	_, ok := s.UnlockedAchievements[id]
	return ok
}

// clone returns a deep copy.
func (s *GameState) clone() GameState {
	out := *s
	out.Buildings = make(map[catalog.BuildingID]int, len(s.Buildings))
	for k, v := range s.Buildings {
		out.Buildings[k] = v
	}
	out.Upgrades = make(map[catalog.UpgradeID]bool, len(s.Upgrades))
	for k, v := range s.Upgrades {
		out.Upgrades[k] = v
	}
	out.UnlockedAchievements = make(map[catalog.AchievementID]time.Time, len(s.UnlockedAchievements))
	for k, v := range s.UnlockedAchievements {
		out.UnlockedAchievements[k] = v
	}
	return out
}

// freshState returns the defaults for a brand-new session.
func freshState(baseClick, baseXP float64) GameState {
	return GameState{
		CookiesPerClick:      baseClick,
		ProductionMultiplier: 1,
		Level:                1,
		XPToNextLevel:        baseXP,
		Buildings:            make(map[catalog.BuildingID]int),
		Upgrades:             make(map[catalog.UpgradeID]bool),
		UnlockedAchievements: make(map[catalog.AchievementID]time.Time),
		CoinMultiplier:       1,
		IsActiveSession:      true,
	}
}
