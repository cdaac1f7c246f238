// Package config holds the balance tuning for the engine and the process
// settings for the cookied server. Tuning defaults live here so the engine has
// no hard-coded balance literals; a YAML file may override any of them.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/cookieworks/internal/economy"
)

// ErrInvalid is returned when tuning values fail validation.
var ErrInvalid = errors.New("invalid tuning")

// Tuning is every balance constant the engine reads.
type Tuning struct {
	// Click resolution.
	CritChance       float64       `yaml:"crit_chance"`
	CritMultiplier   float64       `yaml:"crit_multiplier"`
	ComboWindow      time.Duration `yaml:"combo_window"`
	ComboPerStreak   float64       `yaml:"combo_per_streak"`
	ComboCap         float64       `yaml:"combo_cap"`
	ClickXPDivisor   float64       `yaml:"click_xp_divisor"`
	ClickCoinDivisor float64       `yaml:"click_coin_divisor"`

	// Idle production.
	IdleXPDivisor   float64 `yaml:"idle_xp_divisor"`
	IdleCoinDivisor float64 `yaml:"idle_coin_divisor"`

	// Leveling.
	BaseClickYield    float64 `yaml:"base_click_yield"`
	BaseXPToNextLevel float64 `yaml:"base_xp_to_next_level"`
	LevelGrowthFactor float64 `yaml:"level_growth_factor"`
	LevelClickBonus   float64 `yaml:"level_click_bonus"`
	LevelCoinBonus    float64 `yaml:"level_coin_bonus"` // Multiplied by the new level.

	// Prestige.
	PrestigeThreshold     float64 `yaml:"prestige_threshold"`
	PrestigeBonusPerPoint float64 `yaml:"prestige_bonus_per_point"`

	// Ticking.
	TickInterval     time.Duration `yaml:"tick_interval"`
	MaxTickDelta     time.Duration `yaml:"max_tick_delta"`
	AchievementEvery int           `yaml:"achievement_every"` // Ticks between deferred evaluations.

	// Visual effects and notifications.
	EffectTTL  time.Duration `yaml:"effect_ttl"`
	MaxEffects int           `yaml:"max_effects"`
	MaxNotices int           `yaml:"max_notices"`

	Offline economy.OfflineTable `yaml:"offline"`
}

// DefaultTuning returns the shipped balance.
func DefaultTuning() Tuning {
	return Tuning{
		CritChance:       0.10,
		CritMultiplier:   10,
		ComboWindow:      2 * time.Second,
		ComboPerStreak:   0.10,
		ComboCap:         2.0,
		ClickXPDivisor:   1,
		ClickCoinDivisor: 10,

		IdleXPDivisor:   10,
		IdleCoinDivisor: 100,

		BaseClickYield:    1,
		BaseXPToNextLevel: 100,
		LevelGrowthFactor: 1.3,
		LevelClickBonus:   1,
		LevelCoinBonus:    10,

		PrestigeThreshold:     1_000_000,
		PrestigeBonusPerPoint: 0.1,

		TickInterval:     time.Second,
		MaxTickDelta:     time.Second,
		AchievementEvery: 5,

		EffectTTL:  1500 * time.Millisecond,
		MaxEffects: 256,
		MaxNotices: 64,

		Offline: economy.DefaultOfflineTable(),
	}
}

// Validate rejects tuning that would break engine invariants.
func (t Tuning) Validate() error {
	for name, v := range map[string]float64{
		"crit_chance":              t.CritChance,
		"crit_multiplier":          t.CritMultiplier,
		"combo_per_streak":         t.ComboPerStreak,
		"combo_cap":                t.ComboCap,
		"click_xp_divisor":         t.ClickXPDivisor,
		"click_coin_divisor":       t.ClickCoinDivisor,
		"idle_xp_divisor":          t.IdleXPDivisor,
		"idle_coin_divisor":        t.IdleCoinDivisor,
		"base_click_yield":         t.BaseClickYield,
		"base_xp_to_next_level":    t.BaseXPToNextLevel,
		"level_growth_factor":      t.LevelGrowthFactor,
		"level_click_bonus":        t.LevelClickBonus,
		"level_coin_bonus":         t.LevelCoinBonus,
		"prestige_threshold":       t.PrestigeThreshold,
		"prestige_bonus_per_point": t.PrestigeBonusPerPoint,
		"offline.tier1.multiplier": t.Offline.Tier1.Multiplier,
		"offline.tier2.multiplier": t.Offline.Tier2.Multiplier,
		"offline.tier3.multiplier": t.Offline.Tier3.Multiplier,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalid, name)
		}
	}

	switch {
	case t.CritChance < 0 || t.CritChance > 1:
		return fmt.Errorf("%w: crit_chance %v outside [0,1]", ErrInvalid, t.CritChance)
	case t.CritMultiplier < 1:
		return fmt.Errorf("%w: crit_multiplier %v < 1", ErrInvalid, t.CritMultiplier)
	case t.ComboWindow <= 0:
		return fmt.Errorf("%w: combo_window must be positive", ErrInvalid)
	case t.ComboPerStreak < 0:
		return fmt.Errorf("%w: combo_per_streak %v < 0", ErrInvalid, t.ComboPerStreak)
	case t.ComboCap < 1:
		return fmt.Errorf("%w: combo_cap %v < 1", ErrInvalid, t.ComboCap)
	case t.ClickXPDivisor <= 0 || t.ClickCoinDivisor <= 0 || t.IdleXPDivisor <= 0 || t.IdleCoinDivisor <= 0:
		return fmt.Errorf("%w: xp and coin divisors must be positive", ErrInvalid)
	case t.BaseClickYield <= 0:
		return fmt.Errorf("%w: base_click_yield must be positive", ErrInvalid)
	case t.BaseXPToNextLevel <= 0:
		return fmt.Errorf("%w: base_xp_to_next_level must be positive", ErrInvalid)
	case t.LevelGrowthFactor <= 1:
		return fmt.Errorf("%w: level_growth_factor %v <= 1", ErrInvalid, t.LevelGrowthFactor)
	case t.LevelClickBonus < 0 || t.LevelCoinBonus < 0:
		return fmt.Errorf("%w: level bonuses must not be negative", ErrInvalid)
	case t.PrestigeBonusPerPoint < 0:
		return fmt.Errorf("%w: prestige_bonus_per_point %v < 0", ErrInvalid, t.PrestigeBonusPerPoint)
	case t.PrestigeThreshold <= 0:
		return fmt.Errorf("%w: prestige_threshold must be positive", ErrInvalid)
	case t.TickInterval <= 0 || t.MaxTickDelta <= 0:
		return fmt.Errorf("%w: tick_interval and max_tick_delta must be positive", ErrInvalid)
	case t.AchievementEvery < 1:
		return fmt.Errorf("%w: achievement_every must be >= 1", ErrInvalid)
	case t.MaxEffects < 1 || t.MaxNotices < 1:
		return fmt.Errorf("%w: effect and notice buffers must hold at least one entry", ErrInvalid)
	}

	for name, tier := range map[string]economy.OfflineTier{
		"tier1": t.Offline.Tier1,
		"tier2": t.Offline.Tier2,
		"tier3": t.Offline.Tier3,
	} {
		if tier.Multiplier < 0 || tier.Multiplier >= 1 {
			return fmt.Errorf("%w: offline %s multiplier %v outside [0,1)", ErrInvalid, name, tier.Multiplier)
		}
		if tier.MaxOffline < 0 {
			return fmt.Errorf("%w: offline %s max_offline negative", ErrInvalid, name)
		}
	}
	return nil
}

// LoadTuning reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}
