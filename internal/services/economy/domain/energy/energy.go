// Package energy implements the regenerating energy ledger: time-based
// regeneration, temporary overflow above the normal maximum, recovery zones,
// and efficiency-adjusted action costs.
//
// Every function is pure. Callers pass the instant to evaluate at; nothing in
// this package reads the wall clock.
package energy

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/louisbranch/guildwork/internal/platform/errors"
)

var (
	// ErrInvalidAmount indicates a non-positive spend or boost, or a negative grant.
	ErrInvalidAmount = apperrors.New(apperrors.CodeEnergyInvalidAmount, "energy amount is invalid")
	// ErrInsufficientEnergy indicates the reconciled balance cannot cover a spend.
	ErrInsufficientEnergy = apperrors.New(apperrors.CodeEnergyInsufficient, "energy is insufficient")
	// ErrInvalidMultiplier indicates a regeneration multiplier that is negative,
	// non-finite, or above the configured maximum.
	ErrInvalidMultiplier = apperrors.New(apperrors.CodeEnergyInvalidMultiplier, "regen multiplier is out of range")
	// ErrInvalidDuration indicates a non-positive boost duration.
	ErrInvalidDuration = apperrors.New(apperrors.CodeEnergyInvalidDuration, "boost duration must be greater than zero")
	// ErrInvalidBonus indicates a negative or non-finite passive bonus.
	ErrInvalidBonus = apperrors.New(apperrors.CodeEnergyInvalidBonus, "passive bonus must not be negative")
	// ErrRecoveryZoneRequired indicates an empty zone id on zone entry.
	ErrRecoveryZoneRequired = apperrors.New(apperrors.CodeRecoveryZoneRequired, "recovery zone id is required")
)

// floatTolerance absorbs binary rounding before floors, so 100*(1-0.9)
// yields 10 rather than 9.
const floatTolerance = 1e-9

// State is one player's energy ledger as persisted.
// Zero times mean "unset".
type State struct {
	Current                int
	Max                    int
	LastUpdate             time.Time
	RegenMultiplier        float64
	RegenBoostExpiry       time.Time
	OverflowExpiry         time.Time
	RecoveryZoneID         string
	RecoveryZoneEntryTime  time.Time
	PassiveMaxEnergyBonus  float64
	PassiveEfficiencyBonus float64
}

// OverflowActive reports whether an overflow window is open at now.
func (s State) OverflowActive(now time.Time) bool {
	return !s.OverflowExpiry.IsZero() && now.Before(s.OverflowExpiry)
}

// InOverflow reports whether the stored balance sits above the normal maximum.
func (s State) InOverflow() bool {
	return s.Current > s.Max
}

// Recovering reports whether the player currently occupies a recovery zone.
func (s State) Recovering() bool {
	return s.RecoveryZoneID != ""
}

// RegenBoostActive reports whether a temporary regen boost is still running at now.
func (s State) RegenBoostActive(now time.Time) bool {
	return !s.RegenBoostExpiry.IsZero() && now.Before(s.RegenBoostExpiry)
}

// Rules holds the tunable constants of the energy ledger.
type Rules struct {
	// BaseRegenPerMinute is the regeneration rate before multipliers.
	BaseRegenPerMinute float64
	// OverflowPct is how far above Max a boost may push the balance (0.5 = +50%).
	OverflowPct float64
	// RecoveryZoneMultiplier scales regeneration while resting in a zone.
	RecoveryZoneMultiplier float64
	// MaxEfficiencyBonus caps cost reductions; 0.9 keeps costs at 10% or more.
	MaxEfficiencyBonus float64
	// BaseMax is the maximum energy of a level 1 player without bonuses.
	BaseMax int
	// MaxPerLevel is added to the maximum for every level above 1.
	MaxPerLevel int
	// MaxRegenMultiplier bounds temporary regen boosts. Zero leaves them unbounded.
	MaxRegenMultiplier float64
}

// DefaultRules returns the design defaults.
func DefaultRules() Rules {
	return Rules{
		BaseRegenPerMinute:     1,
		OverflowPct:            0.50,
		RecoveryZoneMultiplier: 2.5,
		MaxEfficiencyBonus:     0.90,
		BaseMax:                100,
		MaxPerLevel:            5,
		MaxRegenMultiplier:     10,
	}
}

// Validate reports the first rule outside its domain.
func (r Rules) Validate() error {
	switch {
	case r.BaseRegenPerMinute < 0:
		return fmt.Errorf("base regen per minute must not be negative")
	case r.OverflowPct < 0:
		return fmt.Errorf("overflow pct must not be negative")
	case r.RecoveryZoneMultiplier < 1:
		return fmt.Errorf("recovery zone multiplier must be at least 1")
	case r.MaxEfficiencyBonus < 0 || r.MaxEfficiencyBonus >= 1:
		return fmt.Errorf("max efficiency bonus must be in [0, 1)")
	case r.BaseMax <= 0:
		return fmt.Errorf("base max must be greater than zero")
	case r.MaxPerLevel < 0:
		return fmt.Errorf("max per level must not be negative")
	case math.IsNaN(r.MaxRegenMultiplier) || math.IsInf(r.MaxRegenMultiplier, 0):
		return fmt.Errorf("max regen multiplier must be finite")
	case r.MaxRegenMultiplier != 0 && r.MaxRegenMultiplier < 1:
		return fmt.Errorf("max regen multiplier must be at least 1 or zero for unbounded")
	}
	return nil
}

// NewState returns the ledger of a freshly registered player: full energy,
// neutral regeneration, no zone.
func (r Rules) NewState(level int, now time.Time) State {
	maxEnergy := r.MaxEnergy(level, 0)
	return State{
		Current:         maxEnergy,
		Max:             maxEnergy,
		LastUpdate:      now,
		RegenMultiplier: 1,
	}
}

// floorInt floors v into an int, saturating at the int range. NaN floors to 0.
func floorInt(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt:
		return math.MaxInt
	case v <= math.MinInt:
		return math.MinInt
	}
	return int(math.Floor(v + floatTolerance))
}
