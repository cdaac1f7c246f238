// Package catalog holds the static definition tables for buildings, upgrades,
// and achievements. Entries are id-keyed and never mutated after construction.
package catalog

// DefaultGrowthRate is the cost growth factor shared by every building.
const DefaultGrowthRate = 1.20

// BuildingID identifies a building definition.
type BuildingID string

// UpgradeID identifies an upgrade definition.
type UpgradeID string

// AchievementID identifies an achievement definition.
type AchievementID string

// EffectKind is what an upgrade does when purchased.
type EffectKind uint8

const (
	MultiplyClickYield EffectKind = iota
	AddClickYield
	MultiplyProduction
	MultiplyCoins
)

// String returns the effect kind's wire name.
func (k EffectKind) String() string {
	switch k {
	case MultiplyClickYield:
		return "multiply_click_yield"
	case AddClickYield:
		return "add_click_yield"
	case MultiplyProduction:
		return "multiply_production"
	case MultiplyCoins:
		return "multiply_coins"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k EffectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RequirementKind selects the state field an achievement is measured against.
type RequirementKind uint8

const (
	ReqTotalCookies RequirementKind = iota
	ReqClicks
	ReqBuildingsOwned
	ReqMaxStreak
	ReqLevel
	ReqPrestigeLevel
)

// String returns the requirement kind's wire name.
func (k RequirementKind) String() string {
	switch k {
	case ReqTotalCookies:
		return "total_cookies"
	case ReqClicks:
		return "clicks"
	case ReqBuildingsOwned:
		return "buildings_owned"
	case ReqMaxStreak:
		return "max_streak"
	case ReqLevel:
		return "level"
	case ReqPrestigeLevel:
		return "prestige_level"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k RequirementKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Building is a repeatable purchase that produces cookies every second.
type Building struct {
	ID         BuildingID `json:"id"`
	Name       string     `json:"name"`
	BaseCost   float64    `json:"base_cost"`
	BaseCPS    float64    `json:"base_cps"`
	GrowthRate float64    `json:"growth_rate"`
}

// Upgrade is a one-time purchase.
type Upgrade struct {
	ID        UpgradeID  `json:"id"`
	Name      string     `json:"name"`
	Cost      float64    `json:"cost"`
	Effect    EffectKind `json:"effect"`
	Magnitude float64    `json:"magnitude"`
}

// Achievement unlocks once its requirement is met and pays RewardCoins.
type Achievement struct {
	ID          AchievementID   `json:"id"`
	Name        string          `json:"name"`
	Requirement RequirementKind `json:"requirement"`
	Value       float64         `json:"value"`
	RewardCoins float64         `json:"reward_coins"`
}

// Catalog indexes the definition tables. Slices keep display order.
type Catalog struct {
	buildings    []Building
	upgrades     []Upgrade
	achievements []Achievement

	buildingIndex    map[BuildingID]Building
	upgradeIndex     map[UpgradeID]Upgrade
	achievementIndex map[AchievementID]Achievement
}

// New builds a catalog from definition slices. Later duplicates of an id are
// dropped so lookups stay unambiguous.
func New(buildings []Building, upgrades []Upgrade, achievements []Achievement) *Catalog {
	c := &Catalog{
		buildingIndex:    make(map[BuildingID]Building, len(buildings)),
		upgradeIndex:     make(map[UpgradeID]Upgrade, len(upgrades)),
		achievementIndex: make(map[AchievementID]Achievement, len(achievements)),
	}
	for _, b := range buildings {
		if _, dup := c.buildingIndex[b.ID]; dup {
			continue
		}
		if b.GrowthRate <= 1 {
			b.GrowthRate = DefaultGrowthRate
		}
		c.buildingIndex[b.ID] = b
		c.buildings = append(c.buildings, b)
	}
	for _, u := range upgrades {
		if _, dup := c.upgradeIndex[u.ID]; dup {
			continue
		}
		c.upgradeIndex[u.ID] = u
		c.upgrades = append(c.upgrades, u)
	}
	for _, a := range achievements {
		if _, dup := c.achievementIndex[a.ID]; dup {
			continue
		}
		c.achievementIndex[a.ID] = a
		c.achievements = append(c.achievements, a)
	}
	return c
}

// Building looks up a building by id.
func (c *Catalog) Building(id BuildingID) (Building, bool) {
	b, ok := c.buildingIndex[id]
	return b, ok
}

// Upgrade looks up an upgrade by id.
func (c *Catalog) Upgrade(id UpgradeID) (Upgrade, bool) {
	u, ok := c.upgradeIndex[id]
	return u, ok
}

// Achievement looks up an achievement by id.
func (c *Catalog) Achievement(id AchievementID) (Achievement, bool) {
	a, ok := c.achievementIndex[id]
	return a, ok
}

// Buildings returns all buildings in display order.
func (c *Catalog) Buildings() []Building {
	out := make([]Building, len(c.buildings))
	copy(out, c.buildings)
	return out
}

// Upgrades returns all upgrades in display order.
func (c *Catalog) Upgrades() []Upgrade {
	out := make([]Upgrade, len(c.upgrades))
	copy(out, c.upgrades)
	return out
}

// Achievements returns all achievements in evaluation order.
func (c *Catalog) Achievements() []Achievement {
	out := make([]Achievement, len(c.achievements))
	copy(out, c.achievements)
	return out
}
