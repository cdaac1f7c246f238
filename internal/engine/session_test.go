package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/talgya/cookieworks/internal/entropy"
	"github.com/talgya/cookieworks/internal/vip"
)

type failingChecker struct{}

func (failingChecker) Tier(context.Context, string) (vip.Tier, error) {
	return vip.None, errors.New("vip service unavailable")
}

// grandmaGame returns an active game producing exactly 1 cookie per second
// with no cookies in the bank.
func grandmaGame(t *testing.T, opts Options) (*Game, *MockClock) {
	t.Helper()
	clk := NewMockClock(epoch)
	opts.Clock = clk
	opts.Random = entropy.NewFixed()
	g, err := Restore(Snapshot{
		Version: SnapshotVersion,
		SavedAt: epoch,
		Cookies: 100,
	}, opts)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !g.BuyBuilding("grandma") {
		t.Fatal("failed to buy grandma")
	}
	g.ResumeSession()
	g.Tick(clk.Now())
	g.DrainNotifications()

	st := g.State()
	if st.CookiesPerSecond != 1 || st.Cookies != 0 {
		t.Fatalf("unexpected setup: cps=%v cookies=%v", st.CookiesPerSecond, st.Cookies)
	}
	return g, clk
}

func TestPauseAndResume(t *testing.T) {
	g, clk := newTestGame(t, nil)

	g.PauseSession()
	st := g.State()
	if st.IsActiveSession {
		t.Error("expected session paused")
	}
	if !st.LastPauseTimestamp.Equal(epoch) {
		t.Errorf("expected pause stamped at %v, got %v", epoch, st.LastPauseTimestamp)
	}

	clk.Advance(time.Minute)
	g.ResumeSession()
	st = g.State()
	if !st.IsActiveSession {
		t.Error("expected session active")
	}
	if !st.LastTickTimestamp.Equal(clk.Now()) {
		t.Errorf("expected tick timestamp reset to resume time, got %v", st.LastTickTimestamp)
	}
}

func TestOfflineIncomeWithoutVIP(t *testing.T) {
	g, clk := grandmaGame(t, Options{})

	g.PauseSession()
	clk.Advance(2 * time.Hour)
	g.ResumeSession()
	g.Tick(clk.Now())

	if got := g.State().Cookies; got != 0 {
		t.Errorf("expected no offline income without VIP, got %v", got)
	}
}

func TestOfflineIncomeTrustedAfterPause(t *testing.T) {
	g, clk := grandmaGame(t, Options{})

	g.PauseSession()
	clk.Advance(time.Hour)
	g.SetVIPStatus(vip.Tier1)
	g.ResumeSession()
	g.Tick(clk.Now())

	st := g.State()
	if !approx(st.Cookies, 3600*0.30) {
		t.Errorf("expected 1080 cookies, got %v", st.Cookies)
	}
	if !st.LastPauseTimestamp.IsZero() {
		t.Error("expected pause timestamp cleared after crediting")
	}

	found := false
	for _, n := range g.DrainNotifications() {
		if n.Kind == NoticeOfflineIncome {
			found = true
		}
	}
	if !found {
		t.Error("expected an offline income notice")
	}

	// A second tick at the same instant credits nothing more.
	g.Tick(clk.Now())
	if again := g.State().Cookies; !approx(again, st.Cookies) {
		t.Errorf("expected offline income credited once, got %v then %v", st.Cookies, again)
	}
}

func TestRepauseBeforeTickKeepsOfflineWindow(t *testing.T) {
	g, clk := grandmaGame(t, Options{})

	g.PauseSession()
	clk.Advance(3 * time.Hour)
	g.SetVIPStatus(vip.Tier1)
	g.ResumeSession()

	// Paused again before any tick could credit the window.
	clk.Advance(100 * time.Millisecond)
	g.PauseSession()
	if st := g.State(); !st.LastPauseTimestamp.Equal(epoch) {
		t.Errorf("expected offline window to start at the first pause, got %v", st.LastPauseTimestamp)
	}
	clk.Advance(time.Second)
	g.ResumeSession()
	g.Tick(clk.Now())

	window := (3*time.Hour + 1100*time.Millisecond).Seconds()
	if got := g.State().Cookies; !approx(got, window*0.30) {
		t.Errorf("expected %v cookies for the merged window, got %v", window*0.30, got)
	}
}

func TestOfflineIncomeIgnoresStaleVIP(t *testing.T) {
	g, clk := grandmaGame(t, Options{})

	g.SetVIPStatus(vip.Tier3)
	clk.Advance(time.Second)
	g.PauseSession()
	clk.Advance(time.Hour)
	g.ResumeSession()
	g.Tick(clk.Now())

	if got := g.State().Cookies; got != 0 {
		t.Errorf("expected a tier set before the pause to be ignored, got %v", got)
	}
}

func TestOfflineIncomeFromChecker(t *testing.T) {
	checker := vip.NewStatic()
	checker.Set("acct-1", vip.Tier2)
	g, clk := grandmaGame(t, Options{VIP: checker, AccountID: "acct-1"})

	g.PauseSession()
	clk.Advance(10 * time.Hour)
	g.ResumeSession()
	g.Tick(clk.Now())

	st := g.State()
	// Tier 2 caps the window at 8h and pays half.
	if !approx(st.Cookies, 8*3600*0.5) {
		t.Errorf("expected 14400 cookies, got %v", st.Cookies)
	}
	if st.VIPTier != vip.Tier2 {
		t.Errorf("expected verified tier recorded, got %v", st.VIPTier)
	}
}

func TestOfflineIncomeCheckerFailure(t *testing.T) {
	g, clk := grandmaGame(t, Options{VIP: failingChecker{}, AccountID: "acct-1"})
	g.SetVIPStatus(vip.Tier3)

	g.PauseSession()
	clk.Advance(time.Hour)
	g.ResumeSession()
	g.Tick(clk.Now())

	if got := g.State().Cookies; got != 0 {
		t.Errorf("expected a failed lookup to withhold income, got %v", got)
	}
}

func TestSetVIPStatus(t *testing.T) {
	g, clk := newTestGame(t, nil)
	clk.Advance(time.Minute)

	g.SetVIPStatus(vip.Tier2)
	st := g.State()
	if st.VIPTier != vip.Tier2 || st.OfflineCPSMultiplier != 0.5 {
		t.Errorf("expected tier2 at 0.5, got %v at %v", st.VIPTier, st.OfflineCPSMultiplier)
	}
	if !st.VIPVerifiedAt.Equal(clk.Now()) {
		t.Errorf("expected verification stamped now, got %v", st.VIPVerifiedAt)
	}

	g.SetVIPStatus(vip.Tier(9))
	if st := g.State(); st.VIPTier != vip.None || st.OfflineCPSMultiplier != 0 {
		t.Errorf("expected an invalid tier to clear VIP, got %v", st.VIPTier)
	}
}
