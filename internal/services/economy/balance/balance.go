// Package balance loads the tunable constants of the economy engine.
package balance

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/louisbranch/guildwork/internal/services/economy/domain/energy"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/progression"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every balance constant.
type Config struct {
	Energy      EnergyConfig      `yaml:"energy"`
	Progression ProgressionConfig `yaml:"progression"`
	Prestige    PrestigeConfig    `yaml:"prestige"`
	Milestones  []MilestoneConfig `yaml:"milestones"`
}

// EnergyConfig holds regeneration, overflow, and max-energy constants.
type EnergyConfig struct {
	BaseRegenPerMinute     float64 `yaml:"base_regen_per_minute"`
	OverflowPct            float64 `yaml:"overflow_pct"`             // 0.5 = +50% above max
	RecoveryZoneMultiplier float64 `yaml:"recovery_zone_multiplier"` // regen scale while resting
	MaxEfficiencyBonus     float64 `yaml:"max_efficiency_bonus"`     // cost floor is 1 - this
	BaseMax                int     `yaml:"base_max"`
	MaxPerLevel            int     `yaml:"max_per_level"`
	MaxRegenMultiplier     float64 `yaml:"max_regen_multiplier"` // cap on temporary regen boosts
}

// ProgressionConfig holds the level curve and catch-up constants.
type ProgressionConfig struct {
	BaseXP           int64   `yaml:"base_xp"`
	ScalingFactor    float64 `yaml:"scaling_factor"`
	MaxLevel         int     `yaml:"max_level"`
	MaxCatchup       float64 `yaml:"max_catchup"`
	CatchupThreshold float64 `yaml:"catchup_threshold"` // level deficit for full catch-up
}

// PrestigeConfig holds the prestige gate and reward.
type PrestigeConfig struct {
	MinLevel      int    `yaml:"min_level"`
	PointsDivisor int    `yaml:"points_divisor"`
	RewardType    string `yaml:"reward_type"`
}

// MilestoneConfig is one level threshold reward.
type MilestoneConfig struct {
	Level  int    `yaml:"level"`
	Reward string `yaml:"reward"`
}

// Load reads the embedded defaults and overlays the file at path, if any.
// Keys missing from the file keep their default.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading balance file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing balance file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("balance: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Validate checks every constant against the rules it feeds.
func (c *Config) Validate() error {
	if err := c.EnergyRules().Validate(); err != nil {
		return fmt.Errorf("energy: %w", err)
	}
	seen := make(map[int]bool, len(c.Milestones))
	for _, m := range c.Milestones {
		if seen[m.Level] {
			return fmt.Errorf("milestones: level %d listed twice", m.Level)
		}
		seen[m.Level] = true
	}
	if err := c.ProgressionRules().Validate(); err != nil {
		return fmt.Errorf("progression: %w", err)
	}
	return nil
}

// EnergyRules converts the energy section.
func (c *Config) EnergyRules() energy.Rules {
	return energy.Rules{
		BaseRegenPerMinute:     c.Energy.BaseRegenPerMinute,
		OverflowPct:            c.Energy.OverflowPct,
		RecoveryZoneMultiplier: c.Energy.RecoveryZoneMultiplier,
		MaxEfficiencyBonus:     c.Energy.MaxEfficiencyBonus,
		BaseMax:                c.Energy.BaseMax,
		MaxPerLevel:            c.Energy.MaxPerLevel,
		MaxRegenMultiplier:     c.Energy.MaxRegenMultiplier,
	}
}

// ProgressionRules converts the progression, prestige, and milestone sections.
func (c *Config) ProgressionRules() progression.Rules {
	table := make(progression.MilestoneTable, len(c.Milestones))
	for _, m := range c.Milestones {
		table[m.Level] = m.Reward
	}
	return progression.Rules{
		Curve: progression.Curve{
			BaseXP:        c.Progression.BaseXP,
			ScalingFactor: c.Progression.ScalingFactor,
			MaxLevel:      c.Progression.MaxLevel,
		},
		Resolver: progression.Resolver{
			MaxCatchup:       c.Progression.MaxCatchup,
			CatchupThreshold: c.Progression.CatchupThreshold,
		},
		Prestige: progression.PrestigeRules{
			MinLevel:      c.Prestige.MinLevel,
			PointsDivisor: c.Prestige.PointsDivisor,
			RewardType:    c.Prestige.RewardType,
		},
		Milestones: table,
	}
}

// WriteYAML writes the effective configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling balance: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing balance file: %w", err)
	}
	return nil
}
