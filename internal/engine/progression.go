package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/talgya/cookieworks/internal/catalog"
)

// floorDiv returns floor(amount / divisor), or 0 for a non-positive divisor.
func floorDiv(amount, divisor float64) float64 {
	if divisor <= 0 {
		return 0
	}
	return math.Floor(amount / divisor)
}

// gainXP accumulates xp and fires at most one level-up per gain. A gain large
// enough to cross several thresholds still yields a single level; the surplus
// is discarded because xp restarts at zero.
func (g *Game) gainXP(amount float64) bool {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return false
	}
	g.st.XP += amount
	if g.st.XP < g.st.XPToNextLevel {
		return false
	}

	t := g.tuning
	g.st.Level++
	g.st.XP = 0
	g.st.XPToNextLevel *= t.LevelGrowthFactor
	g.st.CookiesPerClick += t.LevelClickBonus
	bonus := float64(g.st.Level) * t.LevelCoinBonus
	g.st.Coins += bonus

	slog.Info("level up",
		"level", g.st.Level,
		"next_xp", humanize.Commaf(math.Round(g.st.XPToNextLevel)),
		"cookies_per_click", g.st.CookiesPerClick,
	)
	g.notify(Notice{
		Kind:    NoticeLevelUp,
		Message: fmt.Sprintf("Reached level %d", g.st.Level),
		Amount:  bonus,
		At:      g.clock.Now(),
	})
	g.markDirty()
	return true
}

// CanPrestige reports whether lifetime production has reached the threshold.
func (g *Game) CanPrestige() bool {
	return g.st.TotalCookies >= g.tuning.PrestigeThreshold
}

// PrestigePointsAvailable is the number of points a prestige would grant now.
func (g *Game) PrestigePointsAvailable() int {
	if !g.CanPrestige() {
		return 0
	}
	return int(math.Floor(g.st.TotalCookies / g.tuning.PrestigeThreshold))
}

// permanentUpgrades returns the owned upgrades that survive prestige. Coin
// upgrades stay owned since CoinMultiplier carries over.
func (g *Game) permanentUpgrades() map[catalog.UpgradeID]bool {
	kept := make(map[catalog.UpgradeID]bool)
	for id, owned := range g.st.Upgrades {
		if !owned {
			continue
		}
		if u, ok := g.cat.Upgrade(id); ok && u.Effect == catalog.MultiplyCoins {
			kept[id] = true
		}
	}
	return kept
}

// Prestige converts lifetime production into prestige points and resets the
// run. Coins, coin upgrades, prestige progress, unlocked achievements, lifetime
// counters, session timing and VIP status carry over. Returns false, leaving state
// untouched, when not eligible.
func (g *Game) Prestige() bool {
	if !g.CanPrestige() {
		return false
	}
	t := g.tuning
	gained := g.PrestigePointsAvailable()
	total := g.st.TotalCookies

	g.st.PrestigeLevel++
	g.st.PrestigePoints += gained

	g.st.Cookies = 0
	g.st.TotalCookies = 0
	g.st.CookiesPerClick = t.BaseClickYield + float64(g.st.PrestigePoints)*t.PrestigeBonusPerPoint
	g.st.ProductionMultiplier = 1
	g.st.Level = 1
	g.st.XP = 0
	g.st.XPToNextLevel = t.BaseXPToNextLevel
	g.st.Streak = 0
	g.st.Clicks = 0
	g.st.Buildings = make(map[catalog.BuildingID]int)
	g.st.Upgrades = g.permanentUpgrades()
	g.recomputeProduction()

	slog.Info("prestige",
		"prestige_level", g.st.PrestigeLevel,
		"points_gained", gained,
		"points_total", g.st.PrestigePoints,
		"lifetime_cookies", humanize.SIWithDigits(total, 2, ""),
	)
	g.notify(Notice{
		Kind:    NoticePrestige,
		Message: fmt.Sprintf("Prestige %d: +%d points", g.st.PrestigeLevel, gained),
		Amount:  float64(gained),
		At:      g.clock.Now(),
	})
	g.markDirty()
	return true
}
