package economy

import (
	"time"

	"github.com/talgya/cookieworks/internal/vip"
)

// OfflineTier bounds passive income for one VIP tier.
type OfflineTier struct {
	MaxOffline time.Duration `yaml:"max_offline" json:"max_offline"`
	Multiplier float64       `yaml:"multiplier" json:"multiplier"` // In [0, 1).
}

// OfflineTable holds the per-tier offline income limits.
type OfflineTable struct {
	Tier1 OfflineTier `yaml:"tier1" json:"tier1"`
	Tier2 OfflineTier `yaml:"tier2" json:"tier2"`
	Tier3 OfflineTier `yaml:"tier3" json:"tier3"`
}

// DefaultOfflineTable returns 4h/0.30, 8h/0.50, 12h/0.75.
func DefaultOfflineTable() OfflineTable {
	return OfflineTable{
		Tier1: OfflineTier{MaxOffline: 4 * time.Hour, Multiplier: 0.30},
		Tier2: OfflineTier{MaxOffline: 8 * time.Hour, Multiplier: 0.50},
		Tier3: OfflineTier{MaxOffline: 12 * time.Hour, Multiplier: 0.75},
	}
}

// For returns the limits for t. None and unknown tiers report ok=false.
func (tbl OfflineTable) For(t vip.Tier) (OfflineTier, bool) {
	switch t {
	case vip.Tier1:
		return tbl.Tier1, true
	case vip.Tier2:
		return tbl.Tier2, true
	case vip.Tier3:
		return tbl.Tier3, true
	}
	return OfflineTier{}, false
}

// OfflineGain returns cookies credited for secondsOffline of inactivity.
// Zero for tier None; otherwise the window is capped at the tier's maximum and
// scaled by its multiplier.
func OfflineGain(cps, secondsOffline float64, tier vip.Tier, tbl OfflineTable) float64 {
	limits, ok := tbl.For(tier)
	if !ok {
		return 0
	}
	cps = Sanitize(cps)
	secondsOffline = Sanitize(secondsOffline)
	mult := Sanitize(limits.Multiplier)

	capped := secondsOffline
	if limit := limits.MaxOffline.Seconds(); capped > limit {
		capped = limit
	}
	return cps * capped * mult
}
