package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/cookieworks/internal/economy"
	"github.com/talgya/cookieworks/internal/vip"
)

// vipCheckTimeout bounds a trusted VIP lookup made during a tick.
const vipCheckTimeout = 3 * time.Second

// PauseSession stops idle production and opens an offline window. A window
// still waiting to be credited is extended rather than replaced, so pausing
// again before the first tick after a resume loses nothing.
func (g *Game) PauseSession() {
	if !g.st.IsActiveSession {
		return
	}
	now := g.clock.Now()
	g.st.IsActiveSession = false
	g.st.LastPauseTimestamp = now
	if g.pendingOffline {
		g.st.LastPauseTimestamp = g.offlineFrom
		g.pendingOffline = false
	}
	slog.Debug("session paused", "at", now, "offline_since", g.st.LastPauseTimestamp)
}

// ResumeSession restarts idle production. The offline window since the pause
// is credited once, on the next tick.
func (g *Game) ResumeSession() {
	if g.st.IsActiveSession {
		return
	}
	now := g.clock.Now()
	g.st.IsActiveSession = true
	g.st.LastTickTimestamp = now
	if !g.st.LastPauseTimestamp.IsZero() {
		g.pendingOffline = true
		g.offlineFrom = g.st.LastPauseTimestamp
		g.offlineTo = now
	}
	slog.Debug("session resumed", "at", now, "paused_for", now.Sub(g.st.LastPauseTimestamp))
}

// SetVIPStatus records an externally supplied VIP tier. The engine never
// derives a tier itself.
func (g *Game) SetVIPStatus(tier vip.Tier) {
	if !tier.Valid() {
		tier = vip.None
	}
	g.st.VIPTier = tier
	g.st.VIPVerifiedAt = g.clock.Now()
	g.st.OfflineCPSMultiplier = 0
	if limits, ok := g.tuning.Offline.For(tier); ok {
		g.st.OfflineCPSMultiplier = limits.Multiplier
	}
}

// verifiedTier resolves the tier to trust for an offline window that began at
// pausedAt. A configured checker is always asked; a failed lookup counts as
// None. Without a checker, a tier supplied before the pause is not trusted.
func (g *Game) verifiedTier(ctx context.Context, pausedAt time.Time) vip.Tier {
	if g.checker != nil {
		ctx, cancel := context.WithTimeout(ctx, vipCheckTimeout)
		defer cancel()
		tier, err := g.checker.Tier(ctx, g.accountID)
		if err != nil {
			slog.Warn("vip check failed, withholding offline income", "account", g.accountID, "error", err)
			return vip.None
		}
		g.SetVIPStatus(tier)
		return g.st.VIPTier
	}
	if g.st.VIPVerifiedAt.Before(pausedAt) {
		return vip.None
	}
	return g.st.VIPTier
}

// applyOfflineIncome credits the pending offline window, if any, exactly once.
func (g *Game) applyOfflineIncome(ctx context.Context) float64 {
	if !g.pendingOffline {
		return 0
	}
	from, to := g.offlineFrom, g.offlineTo
	g.pendingOffline = false
	g.st.LastPauseTimestamp = time.Time{}

	tier := g.verifiedTier(ctx, from)
	seconds := to.Sub(from).Seconds()
	gain := economy.OfflineGain(g.st.CookiesPerSecond, seconds, tier, g.tuning.Offline)
	if gain <= 0 {
		return 0
	}

	t := g.tuning
	g.credit(gain, t.IdleXPDivisor, t.IdleCoinDivisor)

	slog.Info("offline income credited",
		"tier", tier,
		"offline", to.Sub(from).Round(time.Second),
		"cookies", humanize.Commaf(gain),
	)
	g.notify(Notice{
		Kind:    NoticeOfflineIncome,
		Message: fmt.Sprintf("Your bakery made %s cookies while you were away", humanize.Commaf(gain)),
		Amount:  gain,
		At:      g.clock.Now(),
	})
	g.markDirty()
	return gain
}
