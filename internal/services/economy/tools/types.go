package tools

// PlayerInput identifies one player.
type PlayerInput struct {
	PlayerID string `json:"player_id" jsonschema:"player identifier"`
}

// EnergyAmountInput moves a fixed amount of energy.
type EnergyAmountInput struct {
	PlayerID string `json:"player_id" jsonschema:"player identifier"`
	Amount   int    `json:"amount" jsonschema:"energy points"`
}

// ActionCostInput spends energy for an action before efficiency discounts.
type ActionCostInput struct {
	PlayerID string `json:"player_id" jsonschema:"player identifier"`
	BaseCost int    `json:"base_cost" jsonschema:"undiscounted energy cost of the action"`
}

// EnergyBoostInput grants a consumable energy boost.
type EnergyBoostInput struct {
	PlayerID        string `json:"player_id" jsonschema:"player identifier"`
	Amount          int    `json:"amount" jsonschema:"energy points to add"`
	AllowOverflow   bool   `json:"allow_overflow,omitempty" jsonschema:"allow the balance to exceed max energy"`
	DurationMinutes int    `json:"duration_minutes,omitempty" jsonschema:"minutes the overflow lasts; required with allow_overflow"`
}

// RegenBoostInput sets a temporary regeneration multiplier.
type RegenBoostInput struct {
	PlayerID        string  `json:"player_id" jsonschema:"player identifier"`
	Multiplier      float64 `json:"multiplier" jsonschema:"regeneration multiplier, 1 is normal speed"`
	DurationMinutes int     `json:"duration_minutes" jsonschema:"minutes the multiplier lasts"`
}

// RecoveryZoneInput moves a player into a resting area.
type RecoveryZoneInput struct {
	PlayerID string `json:"player_id" jsonschema:"player identifier"`
	ZoneID   string `json:"zone_id" jsonschema:"recovery zone identifier"`
}

// PassiveBonusesInput installs skill-derived energy bonuses.
type PassiveBonusesInput struct {
	PlayerID        string  `json:"player_id" jsonschema:"player identifier"`
	MaxEnergyBonus  float64 `json:"max_energy_bonus" jsonschema:"fractional max energy bonus, 0.2 is +20%"`
	EfficiencyBonus float64 `json:"efficiency_bonus" jsonschema:"fractional action cost discount"`
}

// EnergyResult is a player's energy ledger.
type EnergyResult struct {
	PlayerID         string  `json:"player_id" jsonschema:"player identifier"`
	Current          int     `json:"current" jsonschema:"energy balance"`
	Max              int     `json:"max" jsonschema:"normal energy maximum"`
	EffectiveCap     int     `json:"effective_cap,omitempty" jsonschema:"ceiling regeneration fills to right now"`
	InOverflow       bool    `json:"in_overflow" jsonschema:"balance is above max energy"`
	RegenMultiplier  float64 `json:"regen_multiplier" jsonschema:"current regeneration multiplier"`
	RegenBoostExpiry string  `json:"regen_boost_expiry,omitempty" jsonschema:"RFC3339 end of the regeneration boost"`
	OverflowExpiry   string  `json:"overflow_expiry,omitempty" jsonschema:"RFC3339 end of the overflow window"`
	RecoveryZoneID   string  `json:"recovery_zone_id,omitempty" jsonschema:"zone the player is resting in"`
	LastUpdate       string  `json:"last_update" jsonschema:"RFC3339 time the ledger was last settled"`
}

// ActionChargeResult reports an efficiency-adjusted spend.
type ActionChargeResult struct {
	BaseCost int          `json:"base_cost" jsonschema:"undiscounted cost"`
	Cost     int          `json:"cost" jsonschema:"energy actually spent"`
	Energy   EnergyResult `json:"energy" jsonschema:"energy after the spend"`
}

// ExperienceInput grants experience.
type ExperienceInput struct {
	PlayerID   string `json:"player_id" jsonschema:"player identifier"`
	BaseAmount int64  `json:"base_amount" jsonschema:"experience before multipliers"`
	ZoneID     string `json:"zone_id,omitempty" jsonschema:"zone where the experience was earned"`
}

// ProgressionResult is a player's progression ledger.
type ProgressionResult struct {
	PlayerID                string `json:"player_id" jsonschema:"player identifier"`
	Level                   int    `json:"level" jsonschema:"current level"`
	Experience              int64  `json:"experience" jsonschema:"experience inside the current level"`
	XPToNextLevel           int64  `json:"xp_to_next_level,omitempty" jsonschema:"experience still needed for the next level"`
	TotalLifetimeExperience int64  `json:"total_lifetime_experience" jsonschema:"experience earned across prestiges"`
	PrestigeLevel           int    `json:"prestige_level" jsonschema:"number of prestige resets"`
	PrestigePoints          int    `json:"prestige_points" jsonschema:"accumulated prestige points"`
}

// MilestoneResult is one reached milestone.
type MilestoneResult struct {
	Level      int    `json:"level" jsonschema:"milestone level, 0 for the prestige milestone"`
	RewardType string `json:"reward_type" jsonschema:"reward unlocked"`
	Claimed    bool   `json:"claimed" jsonschema:"reward was collected"`
	CreatedAt  string `json:"created_at" jsonschema:"RFC3339 time the milestone was reached"`
	ClaimedAt  string `json:"claimed_at,omitempty" jsonschema:"RFC3339 time the reward was collected"`
}

// ExperienceResult reports an experience grant.
type ExperienceResult struct {
	ActualXP           int64             `json:"actual_xp" jsonschema:"experience added after multipliers"`
	LeveledUp          bool              `json:"leveled_up" jsonschema:"the grant raised the level"`
	LevelsGained       int               `json:"levels_gained" jsonschema:"levels gained by the grant"`
	EventMultiplier    float64           `json:"event_multiplier" jsonschema:"winning promotion multiplier"`
	EventID            string            `json:"event_id,omitempty" jsonschema:"winning promotion"`
	CatchupMultiplier  float64           `json:"catchup_multiplier" jsonschema:"catch-up bonus multiplier"`
	Progression        ProgressionResult `json:"progression" jsonschema:"progression after the grant"`
	MilestonesUnlocked []MilestoneResult `json:"milestones_unlocked,omitempty" jsonschema:"milestones first reached by this grant"`
	MaxEnergy          int               `json:"max_energy" jsonschema:"max energy after the grant"`
}

// PrestigeToolResult reports a prestige reset.
type PrestigeToolResult struct {
	FromLevel          int               `json:"from_level" jsonschema:"level given up"`
	PointsAwarded      int               `json:"points_awarded" jsonschema:"prestige points earned"`
	Progression        ProgressionResult `json:"progression" jsonschema:"progression after the reset"`
	MilestonesUnlocked []MilestoneResult `json:"milestones_unlocked,omitempty" jsonschema:"prestige milestone when first reached"`
}

// MilestoneListResult lists reached milestones.
type MilestoneListResult struct {
	Milestones []MilestoneResult `json:"milestones" jsonschema:"reached milestones by level"`
}

// ClaimMilestoneInput collects one milestone reward.
type ClaimMilestoneInput struct {
	PlayerID string `json:"player_id" jsonschema:"player identifier"`
	Level    int    `json:"level" jsonschema:"milestone level"`
}

// MultiplierEventInput schedules an experience promotion.
type MultiplierEventInput struct {
	Multiplier float64  `json:"multiplier" jsonschema:"experience multiplier"`
	StartTime  string   `json:"start_time" jsonschema:"RFC3339 start of the promotion"`
	EndTime    string   `json:"end_time" jsonschema:"RFC3339 end of the promotion"`
	UserScope  []string `json:"user_scope,omitempty" jsonschema:"players covered, empty for everyone"`
	ZoneScope  []string `json:"zone_scope,omitempty" jsonschema:"zones covered, empty for everywhere"`
}

// MultiplierEventResult is one stored promotion.
type MultiplierEventResult struct {
	ID         string   `json:"id" jsonschema:"event identifier"`
	Multiplier float64  `json:"multiplier" jsonschema:"experience multiplier"`
	StartTime  string   `json:"start_time" jsonschema:"RFC3339 start of the promotion"`
	EndTime    string   `json:"end_time" jsonschema:"RFC3339 end of the promotion"`
	UserScope  []string `json:"user_scope,omitempty" jsonschema:"players covered"`
	ZoneScope  []string `json:"zone_scope,omitempty" jsonschema:"zones covered"`
}

// EventIDInput identifies one promotion.
type EventIDInput struct {
	EventID string `json:"event_id" jsonschema:"event identifier"`
}

// ListEventsInput filters the promotion listing.
type ListEventsInput struct {
	ActiveOnly bool `json:"active_only,omitempty" jsonschema:"only list promotions running now"`
}

// MultiplierEventListResult lists promotions.
type MultiplierEventListResult struct {
	Events []MultiplierEventResult `json:"events" jsonschema:"promotions by start time"`
}

// AverageLevelInput publishes the server average level.
type AverageLevelInput struct {
	AverageLevel float64 `json:"average_level" jsonschema:"mean player level used by the catch-up bonus"`
}

// AckResult acknowledges an operation with no payload.
type AckResult struct {
	OK bool `json:"ok"`
}
