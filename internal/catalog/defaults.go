package catalog

// Default returns the shipped definition tables.
func Default() *Catalog {
	return New(defaultBuildings(), defaultUpgrades(), defaultAchievements())
}

func defaultBuildings() []Building {
	return []Building{
		{ID: "cursor", Name: "Cursor", BaseCost: 15, BaseCPS: 0.1, GrowthRate: DefaultGrowthRate},
		{ID: "grandma", Name: "Grandma", BaseCost: 100, BaseCPS: 1, GrowthRate: DefaultGrowthRate},
		{ID: "farm", Name: "Farm", BaseCost: 1_100, BaseCPS: 8, GrowthRate: DefaultGrowthRate},
		{ID: "mine", Name: "Mine", BaseCost: 12_000, BaseCPS: 47, GrowthRate: DefaultGrowthRate},
		{ID: "factory", Name: "Factory", BaseCost: 130_000, BaseCPS: 260, GrowthRate: DefaultGrowthRate},
		{ID: "bank", Name: "Bank", BaseCost: 1_400_000, BaseCPS: 1_400, GrowthRate: DefaultGrowthRate},
		{ID: "temple", Name: "Temple", BaseCost: 20_000_000, BaseCPS: 7_800, GrowthRate: DefaultGrowthRate},
	}
}

func defaultUpgrades() []Upgrade {
	return []Upgrade{
		{ID: "reinforced_finger", Name: "Reinforced Finger", Cost: 100, Effect: MultiplyClickYield, Magnitude: 2},
		{ID: "carpal_tunnel_cream", Name: "Carpal Tunnel Cream", Cost: 500, Effect: MultiplyClickYield, Magnitude: 2},
		{ID: "plastic_mouse", Name: "Plastic Mouse", Cost: 50_000, Effect: AddClickYield, Magnitude: 5},
		{ID: "iron_mouse", Name: "Iron Mouse", Cost: 5_000_000, Effect: AddClickYield, Magnitude: 50},
		{ID: "forwards_from_grandma", Name: "Forwards From Grandma", Cost: 1_000, Effect: MultiplyProduction, Magnitude: 1.1},
		{ID: "steel_rolling_pins", Name: "Steel Rolling Pins", Cost: 55_000, Effect: MultiplyProduction, Magnitude: 1.25},
		{ID: "lucky_penny", Name: "Lucky Penny", Cost: 7_777, Effect: MultiplyCoins, Magnitude: 1.5},
		{ID: "golden_piggy", Name: "Golden Piggy", Cost: 777_777, Effect: MultiplyCoins, Magnitude: 2},
	}
}

func defaultAchievements() []Achievement {
	return []Achievement{
		{ID: "wake_and_bake", Name: "Wake and Bake", Requirement: ReqTotalCookies, Value: 1, RewardCoins: 1},
		{ID: "making_some_dough", Name: "Making Some Dough", Requirement: ReqTotalCookies, Value: 1_000, RewardCoins: 10},
		{ID: "so_baked_right_now", Name: "So Baked Right Now", Requirement: ReqTotalCookies, Value: 100_000, RewardCoins: 50},
		{ID: "fledgling_bakery", Name: "Fledgling Bakery", Requirement: ReqTotalCookies, Value: 1_000_000, RewardCoins: 200},
		{ID: "clicktastic", Name: "Clicktastic", Requirement: ReqClicks, Value: 100, RewardCoins: 10},
		{ID: "clickathlon", Name: "Clickathlon", Requirement: ReqClicks, Value: 1_000, RewardCoins: 50},
		{ID: "builder", Name: "Builder", Requirement: ReqBuildingsOwned, Value: 10, RewardCoins: 20},
		{ID: "architect", Name: "Architect", Requirement: ReqBuildingsOwned, Value: 100, RewardCoins: 100},
		{ID: "combo_starter", Name: "Combo Starter", Requirement: ReqMaxStreak, Value: 10, RewardCoins: 15},
		{ID: "combo_master", Name: "Combo Master", Requirement: ReqMaxStreak, Value: 50, RewardCoins: 75},
		{ID: "apprentice", Name: "Apprentice", Requirement: ReqLevel, Value: 5, RewardCoins: 25},
		{ID: "journeyman", Name: "Journeyman", Requirement: ReqLevel, Value: 10, RewardCoins: 100},
		{ID: "reborn", Name: "Reborn", Requirement: ReqPrestigeLevel, Value: 1, RewardCoins: 500},
	}
}
