package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ReportEvery is how many ticks pass between session report log lines.
const ReportEvery = 300

// Tick advances idle simulation to now. See TickContext.
func (g *Game) Tick(now time.Time) {
	g.TickContext(context.Background(), now)
}

// TickContext advances idle simulation to now. The elapsed time since the
// previous tick is capped at Tuning.MaxTickDelta; anything longer is only
// ever credited through offline income. ctx bounds the VIP lookup made when
// crediting an offline window.
func (g *Game) TickContext(ctx context.Context, now time.Time) {
	g.tickCount++
	t := g.tuning

	delta := 0.0
	if last := g.st.LastTickTimestamp; !last.IsZero() {
		delta = now.Sub(last).Seconds()
	}
	if delta < 0 {
		delta = 0 // Clock went backwards.
	}
	if limit := t.MaxTickDelta.Seconds(); delta > limit {
		delta = limit
	}
	if now.After(g.st.LastTickTimestamp) {
		g.st.LastTickTimestamp = now
	}

	g.fx.Prune(now, t.EffectTTL)

	if !g.st.IsActiveSession {
		return
	}

	g.applyOfflineIncome(ctx)

	if gained := g.st.CookiesPerSecond * delta; gained > 0 {
		g.credit(gained, t.IdleXPDivisor, t.IdleCoinDivisor)
		g.markDirty()
	}
	g.st.TimePlayed += delta
	g.st.TotalActiveTime += delta

	if g.achievementsDirty && g.tickCount%uint64(t.AchievementEvery) == 0 {
		g.EvaluateAchievements()
	}
}

// Ticks returns the number of ticks processed by this Game.
func (g *Game) Ticks() uint64 {
	return g.tickCount
}

// Scheduler drives a Game on a fixed interval and serializes every other
// caller through Do, so the Game only ever sees one mutation at a time.
type Scheduler struct {
	mu       sync.Mutex
	game     *Game
	Interval time.Duration
	Now      func() time.Time

	// OnTick runs after the tick with the lock held.
	OnTick func(g *Game, tick uint64)
	// OnAutosave receives a snapshot every AutosaveEvery ticks. It runs after
	// the lock is released, so a slow store never stalls clicks.
	OnAutosave func(snap Snapshot)

	AutosaveEvery uint64

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a scheduler ticking g every interval.
func NewScheduler(g *Game, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = g.tuning.TickInterval
	}
	return &Scheduler{
		game:     g,
		Interval: interval,
		Now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Do runs fn with exclusive access to the game.
func (s *Scheduler) Do(fn func(g *Game)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.game)
}

// Run ticks until ctx is cancelled or Stop is called.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("tick scheduler started", "interval", s.Interval)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick scheduler stopped", "reason", ctx.Err())
			return
		case <-s.stop:
			slog.Info("tick scheduler stopped")
			return
		case <-ticker.C:
			s.Step(ctx)
		}
	}
}

// Stop halts Run. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Step runs a single tick and its callbacks.
func (s *Scheduler) Step(ctx context.Context) {
	snap, save := s.tick(ctx)
	if save {
		s.OnAutosave(snap)
	}
}

func (s *Scheduler) tick(ctx context.Context) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.game
	g.TickContext(ctx, s.Now())
	tick := g.tickCount

	if s.OnTick != nil {
		s.OnTick(g, tick)
	}
	if tick%ReportEvery == 0 {
		logReport(g)
	}
	if s.AutosaveEvery > 0 && tick%s.AutosaveEvery == 0 && s.OnAutosave != nil {
		return g.Snapshot(), true
	}
	return Snapshot{}, false
}

func logReport(g *Game) {
	st := &g.st
	slog.Info("session report",
		"tick", g.tickCount,
		"active", st.IsActiveSession,
		"cookies", humanize.SIWithDigits(st.Cookies, 2, ""),
		"total_cookies", humanize.SIWithDigits(st.TotalCookies, 2, ""),
		"cps", humanize.Commaf(st.CookiesPerSecond),
		"level", st.Level,
		"coins", humanize.Commaf(st.Coins),
		"buildings", st.BuildingsOwned(),
		"achievements", len(st.UnlockedAchievements),
		"prestige_level", st.PrestigeLevel,
	)
}
