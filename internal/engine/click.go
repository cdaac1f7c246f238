package engine

import (
	"math"
	"time"

	"github.com/talgya/cookieworks/internal/economy"
	"github.com/talgya/cookieworks/internal/effects"
	"github.com/talgya/cookieworks/internal/entropy"
)

// ClickResult reports how a single click resolved.
type ClickResult struct {
	Yield           float64        `json:"yield"`
	Critical        bool           `json:"critical"`
	Combo           bool           `json:"combo"`
	ComboMultiplier float64        `json:"combo_multiplier"`
	Streak          int            `json:"streak"`
	XPGained        float64        `json:"xp_gained"`
	CoinsGained     float64        `json:"coins_gained"`
	LeveledUp       bool           `json:"leveled_up"`
	Effect          effects.Effect `json:"effect"`
}

// Click resolves one click at screen position (x, y). The position only feeds
// the visual effect; it never changes the economy.
func (g *Game) Click(x, y float64) ClickResult {
	now := g.clock.Now()
	t := g.tuning

	sinceLast := time.Duration(math.MaxInt64)
	if !g.st.LastClickTime.IsZero() {
		sinceLast = now.Sub(g.st.LastClickTime)
	}

	yield := g.st.CookiesPerClick
	res := ClickResult{ComboMultiplier: 1}

	if entropy.FloatFromSource(g.random) < t.CritChance {
		yield *= t.CritMultiplier
		res.Critical = true
	}

	if sinceLast >= 0 && sinceLast < t.ComboWindow {
		g.st.Streak++
		if g.st.Streak > g.st.MaxStreak {
			g.st.MaxStreak = g.st.Streak
		}
		res.ComboMultiplier = ComboMultiplier(g.st.Streak, t.ComboPerStreak, t.ComboCap)
		yield *= res.ComboMultiplier
		res.Combo = true
	} else {
		g.st.Streak = 0
	}
	res.Streak = g.st.Streak

	res.XPGained, res.CoinsGained, res.LeveledUp = g.credit(yield, t.ClickXPDivisor, t.ClickCoinDivisor)
	res.Yield = economy.Sanitize(yield)
	g.st.Clicks++
	g.st.LifetimeClicks++
	g.st.LastClickTime = now

	res.Effect = g.fx.Emit(effects.Effect{
		X:         finiteOrZero(x),
		Y:         finiteOrZero(y),
		Value:     res.Yield,
		Critical:  res.Critical,
		Combo:     res.Combo,
		Coins:     res.CoinsGained > 0,
		CreatedAt: now,
	})

	g.markDirty()
	return res
}

// ComboMultiplier is min(limit, 1 + streak*perStreak).
func ComboMultiplier(streak int, perStreak, limit float64) float64 {
	if streak <= 0 {
		return 1
	}
	return math.Min(limit, 1+float64(streak)*perStreak)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
