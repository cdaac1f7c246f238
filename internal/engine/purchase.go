package engine

import (
	"log/slog"

	"github.com/talgya/cookieworks/internal/catalog"
	"github.com/talgya/cookieworks/internal/economy"
)

// BuildingCost returns the price of the next unit of id. ok is false for
// unknown ids.
func (g *Game) BuildingCost(id catalog.BuildingID) (cost float64, ok bool) {
	b, ok := g.cat.Building(id)
	if !ok {
		return 0, false
	}
	return economy.PurchaseCost(b, g.st.Buildings[id]), true
}

// BulkBuildingCost returns the price of the next n units of id.
func (g *Game) BulkBuildingCost(id catalog.BuildingID, n int) (cost float64, ok bool) {
	b, ok := g.cat.Building(id)
	if !ok {
		return 0, false
	}
	return economy.BulkCost(b, g.st.Buildings[id], n), true
}

// BuyBuilding purchases one unit of id. Returns false, with no mutation, when
// the id is unknown or the player cannot afford it.
func (g *Game) BuyBuilding(id catalog.BuildingID) bool {
	b, ok := g.cat.Building(id)
	if !ok {
		slog.Debug("ignoring unknown building", "id", id)
		return false
	}
	cost := economy.PurchaseCost(b, g.st.Buildings[id])
	if g.st.Cookies < cost {
		return false
	}

	g.st.Cookies -= cost
	g.st.Buildings[id]++
	g.st.CookiesPerSecond += economy.UnitRate(b, g.st.ProductionMultiplier)
	g.markDirty()
	return true
}

// BuyUpgrade purchases upgrade id once. Returns false for unknown ids, already
// owned upgrades, or insufficient cookies.
func (g *Game) BuyUpgrade(id catalog.UpgradeID) bool {
	u, ok := g.cat.Upgrade(id)
	if !ok {
		slog.Debug("ignoring unknown upgrade", "id", id)
		return false
	}
	if g.st.Upgrades[id] || g.st.Cookies < u.Cost {
		return false
	}
	if u.Magnitude <= 0 {
		slog.Warn("upgrade has non-positive magnitude", "id", id, "magnitude", u.Magnitude)
		return false
	}

	g.st.Cookies -= u.Cost
	g.st.Upgrades[id] = true
	g.applyUpgrade(u)
	g.markDirty()
	return true
}

func (g *Game) applyUpgrade(u catalog.Upgrade) {
	switch u.Effect {
	case catalog.MultiplyClickYield:
		g.st.CookiesPerClick *= u.Magnitude
	case catalog.AddClickYield:
		g.st.CookiesPerClick += u.Magnitude
	case catalog.MultiplyProduction:
		g.st.ProductionMultiplier *= u.Magnitude
		g.recomputeProduction()
	case catalog.MultiplyCoins:
		g.st.CoinMultiplier *= u.Magnitude
	}
}
