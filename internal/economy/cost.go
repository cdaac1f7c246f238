// Package economy provides the pure pricing and production functions:
// building cost curves, aggregate production, and offline income.
package economy

import (
	"math"

	"github.com/talgya/cookieworks/internal/catalog"
)

// PurchaseCost returns the price of the next unit of b when owned units are
// already held: floor(BaseCost * GrowthRate^owned).
func PurchaseCost(b catalog.Building, owned int) float64 {
	if owned < 0 {
		owned = 0
	}
	growth := b.GrowthRate
	if growth <= 1 {
		growth = catalog.DefaultGrowthRate
	}
	return math.Floor(b.BaseCost * math.Pow(growth, float64(owned)))
}

// BulkCost returns the total price of buying n units starting at owned.
func BulkCost(b catalog.Building, owned, n int) float64 {
	total := 0.0
	for i := 0; i < n; i++ {
		total += PurchaseCost(b, owned+i)
	}
	return total
}

// ProductionRate recomputes cookies per second from scratch:
// sum of owned * BaseCPS, scaled by the global multiplier.
// Unknown building ids contribute nothing.
func ProductionRate(owned map[catalog.BuildingID]int, cat *catalog.Catalog, multiplier float64) float64 {
	if multiplier <= 0 || math.IsNaN(multiplier) {
		multiplier = 1
	}
	rate := 0.0
	for id, n := range owned {
		b, ok := cat.Building(id)
		if !ok || n <= 0 {
			continue
		}
		rate += float64(n) * b.BaseCPS
	}
	return rate * multiplier
}

// UnitRate is the production one more unit of b adds under multiplier.
// Used for incremental updates on purchase.
func UnitRate(b catalog.Building, multiplier float64) float64 {
	if multiplier <= 0 || math.IsNaN(multiplier) {
		multiplier = 1
	}
	return b.BaseCPS * multiplier
}

// Sanitize maps NaN, infinities and negatives to zero.
func Sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}
