// Package engine is the cookie economy engine: click resolution, idle ticking,
// purchases, leveling, prestige, achievements and offline income, all applied
// to one owned GameState.
//
// A Game is not safe for concurrent use. Every public mutation runs to
// completion before the next begins; the Scheduler serializes callers that
// live on other goroutines.
package engine

import (
	"time"

	"github.com/talgya/cookieworks/internal/catalog"
	"github.com/talgya/cookieworks/internal/config"
	"github.com/talgya/cookieworks/internal/economy"
	"github.com/talgya/cookieworks/internal/effects"
	"github.com/talgya/cookieworks/internal/entropy"
	"github.com/talgya/cookieworks/internal/vip"
)

// NoticeKind classifies a player-facing notification.
type NoticeKind string

const (
	NoticeAchievement   NoticeKind = "achievement"
	NoticeLevelUp       NoticeKind = "level_up"
	NoticePrestige      NoticeKind = "prestige"
	NoticeOfflineIncome NoticeKind = "offline_income"
)

// Notice is a queued notification for the UI.
type Notice struct {
	Kind          NoticeKind            `json:"kind"`
	AchievementID catalog.AchievementID `json:"achievement_id,omitempty"`
	Message       string                `json:"message"`
	Amount        float64               `json:"amount,omitempty"` // Coins rewarded or cookies credited.
	At            time.Time             `json:"at"`
}

// Options configures a new Game. Nil fields take defaults.
type Options struct {
	Catalog   *catalog.Catalog
	Tuning    *config.Tuning
	Clock     Clock
	Random    entropy.Source
	Effects   *effects.Buffer
	VIP       vip.Checker // Trusted VIP source. Nil = trust SetVIPStatus within its window.
	AccountID string      // Account passed to the VIP checker.
}

// Game owns a GameState and applies every engine operation to it.
type Game struct {
	st GameState

	cat       *catalog.Catalog
	tuning    config.Tuning
	clock     Clock
	random    entropy.Source
	fx        *effects.Buffer
	checker   vip.Checker
	accountID string

	// Deferred achievement evaluation.
	achievementsDirty bool
	tickCount         uint64

	// Offline window waiting to be credited on the next active tick.
	pendingOffline bool
	offlineFrom    time.Time
	offlineTo      time.Time

	notices []Notice

	// OnNotice, if set, is called for each notice as it is queued. It must not block.
	OnNotice func(Notice)
}

// NewGame creates a fresh session.
func NewGame(opts Options) *Game {
	g := newGame(opts)
	g.st = freshState(g.tuning.BaseClickYield, g.tuning.BaseXPToNextLevel)
	g.st.LastTickTimestamp = g.clock.Now()
	return g
}

func newGame(opts Options) *Game {
	g := &Game{
		cat:       opts.Catalog,
		clock:     opts.Clock,
		random:    opts.Random,
		fx:        opts.Effects,
		checker:   opts.VIP,
		accountID: opts.AccountID,
	}
	if g.cat == nil {
		g.cat = catalog.Default()
	}
	if opts.Tuning != nil {
		g.tuning = *opts.Tuning
	} else {
		g.tuning = config.DefaultTuning()
	}
	if g.clock == nil {
		g.clock = SystemClock{}
	}
	if g.random == nil {
		g.random = entropy.Crypto{}
	}
	if g.fx == nil {
		g.fx = effects.NewBuffer(g.tuning.MaxEffects, time.Now().UnixNano())
	}
	return g
}

// State returns a deep copy of the current state.
func (g *Game) State() GameState {
	return g.st.clone()
}

// Catalog returns the definitions the game was built with.
func (g *Game) Catalog() *catalog.Catalog {
	return g.cat
}

// Tuning returns the active balance constants.
func (g *Game) Tuning() config.Tuning {
	return g.tuning
}

// Effects returns the visual-effect buffer.
func (g *Game) Effects() *effects.Buffer {
	return g.fx
}

// Notifications returns a copy of the queued notices without consuming them.
func (g *Game) Notifications() []Notice {
	out := make([]Notice, len(g.notices))
	copy(out, g.notices)
	return out
}

// DrainNotifications returns and clears the queued notices.
func (g *Game) DrainNotifications() []Notice {
	out := g.notices
	g.notices = nil
	return out
}

// notify queues n, dropping the oldest notice when the queue is full.
func (g *Game) notify(n Notice) {
	if len(g.notices) >= g.tuning.MaxNotices {
		g.notices = g.notices[1:]
	}
	g.notices = append(g.notices, n)
	if g.OnNotice != nil {
		g.OnNotice(n)
	}
}

// markDirty schedules a deferred achievement evaluation.
func (g *Game) markDirty() {
	g.achievementsDirty = true
}

// AchievementsPending reports whether a deferred evaluation is scheduled.
func (g *Game) AchievementsPending() bool {
	return g.achievementsDirty
}

// recomputeProduction rebuilds CookiesPerSecond from owned buildings.
func (g *Game) recomputeProduction() {
	g.st.CookiesPerSecond = economy.ProductionRate(g.st.Buildings, g.cat, g.st.ProductionMultiplier)
}

// credit adds a cookie gain and its derived xp and coins. Returns the xp and
// coins granted and whether a level-up fired.
func (g *Game) credit(amount, xpDivisor, coinDivisor float64) (xp, coins float64, leveled bool) {
	amount = economy.Sanitize(amount)
	if amount == 0 {
		return 0, 0, false
	}
	xp = floorDiv(amount, xpDivisor)
	coins = floorDiv(amount, coinDivisor) * g.st.CoinMultiplier

	g.st.Cookies += amount
	g.st.TotalCookies += amount
	g.st.Coins += coins
	leveled = g.gainXP(xp)
	return xp, coins, leveled
}
