package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickCreditsIdleProduction(t *testing.T) {
	g, clk := grandmaGame(t, Options{})

	g.Tick(clk.Advance(time.Second))
	st := g.State()
	if st.Cookies != 1 || st.TotalCookies != 1 {
		t.Errorf("expected 1 cookie after one second, got %v/%v", st.Cookies, st.TotalCookies)
	}
	if st.TimePlayed != 1 || st.TotalActiveTime != 1 {
		t.Errorf("expected 1s of play, got %v/%v", st.TimePlayed, st.TotalActiveTime)
	}
}

func TestTickCapsDelta(t *testing.T) {
	g, clk := grandmaGame(t, Options{})

	g.Tick(clk.Advance(time.Hour))
	if got := g.State().Cookies; got != 1 {
		t.Errorf("expected a long gap capped to one second of production, got %v", got)
	}
}

func TestTickIgnoresBackwardsClock(t *testing.T) {
	g, clk := grandmaGame(t, Options{})

	g.Tick(clk.Now().Add(-time.Minute))
	st := g.State()
	if st.Cookies != 0 || st.TimePlayed != 0 {
		t.Errorf("expected no credit for a backwards tick, got cookies=%v played=%v", st.Cookies, st.TimePlayed)
	}
	if !st.LastTickTimestamp.Equal(clk.Now()) {
		t.Error("expected the tick timestamp never to move backwards")
	}
}

func TestPausedSessionDoesNotProduce(t *testing.T) {
	g, clk := grandmaGame(t, Options{})
	g.PauseSession()

	for i := 0; i < 5; i++ {
		g.Tick(clk.Advance(time.Second))
	}
	st := g.State()
	if st.Cookies != 0 || st.TimePlayed != 0 {
		t.Errorf("expected paused session to stay idle, got cookies=%v played=%v", st.Cookies, st.TimePlayed)
	}
}

func TestTickPrunesEffects(t *testing.T) {
	g, clk := newTestGame(t, nil)
	g.Click(0, 0)
	if g.Effects().Len() != 1 {
		t.Fatalf("expected one live effect, got %d", g.Effects().Len())
	}

	g.Tick(clk.Advance(2 * time.Second))
	if g.Effects().Len() != 0 {
		t.Errorf("expected effect pruned after its ttl, got %d", g.Effects().Len())
	}
}

func TestAchievementsDeferredToCadence(t *testing.T) {
	g, clk := newTestGame(t, nil)
	g.Click(0, 0)

	for i := 1; i < 5; i++ {
		g.Tick(clk.Advance(time.Second))
		if st := g.State(); st.HasAchievement("wake_and_bake") {
			t.Fatalf("tick %d: achievement unlocked before the evaluation cadence", i)
		}
	}
	g.Tick(clk.Advance(time.Second))

	st := g.State()
	if !st.HasAchievement("wake_and_bake") {
		t.Fatal("expected achievement after the fifth tick")
	}
	if st.Coins != 1 {
		t.Errorf("expected reward of 1 coin, got %v", st.Coins)
	}
	if g.AchievementsPending() {
		t.Error("expected evaluation to clear the pending flag")
	}
}

func TestEvaluateAchievementsIdempotent(t *testing.T) {
	g, _ := newTestGame(t, nil)
	g.Click(0, 0)

	first := g.EvaluateAchievements()
	if len(first) != 1 || first[0].ID != "wake_and_bake" {
		t.Fatalf("expected wake_and_bake, got %+v", first)
	}
	coins := g.State().Coins

	if again := g.EvaluateAchievements(); len(again) != 0 {
		t.Errorf("expected nothing new, got %+v", again)
	}
	if g.State().Coins != coins {
		t.Error("expected no second reward")
	}
	if g.FlushAchievements() != nil {
		t.Error("expected flush to be a no-op with nothing pending")
	}
}

func TestClickAchievementUsesRunClicks(t *testing.T) {
	g, clk := newTestGame(t, nil)
	for i := 0; i < 100; i++ {
		clk.Advance(5 * time.Second)
		g.Click(0, 0)
	}

	unlocked := g.FlushAchievements()
	found := false
	for _, a := range unlocked {
		if a.ID == "clicktastic" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected clicktastic after 100 clicks, got %+v", unlocked)
	}
}

func TestSchedulerStepAndAutosave(t *testing.T) {
	g, clk := newTestGame(t, nil)
	s := NewScheduler(g, time.Second)
	s.Now = func() time.Time { return clk.Advance(time.Second) }
	s.AutosaveEvery = 2

	var ticks, saves int
	s.OnTick = func(*Game, uint64) { ticks++ }
	s.OnAutosave = func(Snapshot) { saves++ }

	for i := 0; i < 4; i++ {
		s.Step(context.Background())
	}
	if ticks != 4 || saves != 2 {
		t.Errorf("expected 4 ticks and 2 autosaves, got %d and %d", ticks, saves)
	}
	if g.Ticks() != 4 {
		t.Errorf("expected game tick count 4, got %d", g.Ticks())
	}

	var cookies float64
	s.Do(func(g *Game) {
		g.Click(0, 0)
		cookies = g.State().Cookies
	})
	if cookies != 1 {
		t.Errorf("expected Do to run against the game, got %v cookies", cookies)
	}
}

func TestAutosaveDoesNotHoldLock(t *testing.T) {
	g, clk := newTestGame(t, nil)
	s := NewScheduler(g, time.Second)
	s.Now = func() time.Time { return clk.Advance(time.Second) }
	s.AutosaveEvery = 1

	saving := make(chan struct{})
	release := make(chan struct{})
	var saved Snapshot
	s.OnAutosave = func(snap Snapshot) {
		saved = snap
		close(saving)
		<-release
	}

	stepped := make(chan struct{})
	go func() {
		s.Step(context.Background())
		close(stepped)
	}()
	<-saving

	clicked := make(chan struct{})
	go func() {
		s.Do(func(g *Game) { g.Click(0, 0) })
		close(clicked)
	}()
	select {
	case <-clicked:
	case <-time.After(2 * time.Second):
		t.Fatal("click blocked behind a pending autosave")
	}

	close(release)
	<-stepped
	if saved.Version != SnapshotVersion || saved.Clicks != 0 {
		t.Errorf("expected the snapshot taken at the tick, got version %d clicks %d", saved.Version, saved.Clicks)
	}
}

func TestSchedulerRunStops(t *testing.T) {
	g, _ := newTestGame(t, nil)
	s := NewScheduler(g, 5*time.Millisecond)

	var ticks atomic.Int64
	s.OnTick = func(*Game, uint64) { ticks.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for ticks.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("scheduler never ticked")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
	s.Stop()
	s.Stop()
}
