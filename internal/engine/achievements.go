package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/cookieworks/internal/catalog"
)

// EvaluateAchievements unlocks every achievement whose requirement is met and
// that is not already unlocked, paying its reward once. Running it again with
// no state change unlocks nothing. Returns the newly unlocked definitions.
func (g *Game) EvaluateAchievements() []catalog.Achievement {
	now := g.clock.Now()
	var unlocked []catalog.Achievement

	for _, a := range g.cat.Achievements() {
		if g.st.HasAchievement(a.ID) {
			continue
		}
		if !g.requirementMet(a) {
			continue
		}
		g.st.UnlockedAchievements[a.ID] = now
		g.st.Coins += a.RewardCoins
		unlocked = append(unlocked, a)

		slog.Info("achievement unlocked", "id", a.ID, "name", a.Name, "reward_coins", a.RewardCoins)
		g.notify(Notice{
			Kind:          NoticeAchievement,
			AchievementID: a.ID,
			Message:       fmt.Sprintf("Achievement unlocked: %s", a.Name),
			Amount:        a.RewardCoins,
			At:            now,
		})
	}

	g.achievementsDirty = false
	return unlocked
}

// FlushAchievements runs a pending deferred evaluation immediately.
func (g *Game) FlushAchievements() []catalog.Achievement {
	if !g.achievementsDirty {
		return nil
	}
	return g.EvaluateAchievements()
}

func (g *Game) requirementMet(a catalog.Achievement) bool {
	var have float64
	switch a.Requirement {
	case catalog.ReqTotalCookies:
		have = g.st.TotalCookies
	case catalog.ReqClicks:
		have = float64(g.st.Clicks)
	case catalog.ReqBuildingsOwned:
		have = float64(g.st.BuildingsOwned())
	case catalog.ReqMaxStreak:
		have = float64(g.st.MaxStreak)
	case catalog.ReqLevel:
		have = float64(g.st.Level)
	case catalog.ReqPrestigeLevel:
		have = float64(g.st.PrestigeLevel)
	default:
		return false
	}
	return have >= a.Value
}
