// Package progression implements experience accounting: the level curve,
// multiplier stacking, experience grants, milestone crossings, and prestige.
package progression

import (
	"math"

	apperrors "github.com/louisbranch/guildwork/internal/platform/errors"
)

var (
	// ErrInvalidAmount indicates a non-positive or unrepresentably large experience grant.
	ErrInvalidAmount = apperrors.New(apperrors.CodeXPInvalidAmount, "experience amount is out of range")
	// ErrInvalidMultiplier indicates a non-positive or non-finite multiplier.
	ErrInvalidMultiplier = apperrors.New(apperrors.CodeXPInvalidMultiplier, "experience multiplier must be greater than zero")
	// ErrBelowMinimumLevel indicates a prestige attempt before the required level.
	ErrBelowMinimumLevel = apperrors.New(apperrors.CodePrestigeBelowMin, "level is below the prestige minimum")
	// ErrInvalidEvent indicates a malformed multiplier event.
	ErrInvalidEvent = apperrors.New(apperrors.CodeMultiplierEventInvalid, "multiplier event is invalid")
)

const floatTolerance = 1e-9

// State is one player's progression as persisted.
type State struct {
	// Experience accumulated toward the current level only.
	Experience int64
	Level      int
	// TotalLifetimeExperience survives prestige resets.
	TotalLifetimeExperience int64
	PrestigeLevel           int
	PrestigePoints          int
}

// NewState returns the progression of a freshly registered player.
func NewState() State {
	return State{Level: 1}
}

// Rules bundles the progression tunables.
type Rules struct {
	Curve      Curve
	Resolver   Resolver
	Prestige   PrestigeRules
	Milestones MilestoneTable
}

// DefaultRules returns the design defaults with an empty milestone table.
func DefaultRules() Rules {
	return Rules{
		Curve:    DefaultCurve(),
		Resolver: DefaultResolver(),
		Prestige: DefaultPrestigeRules(),
	}
}

// Validate reports the first rule outside its domain.
func (r Rules) Validate() error {
	if err := r.Curve.Validate(); err != nil {
		return err
	}
	if err := r.Resolver.Validate(); err != nil {
		return err
	}
	if err := r.Prestige.Validate(r.Curve); err != nil {
		return err
	}
	return r.Milestones.Validate(r.Curve)
}

func validMultiplier(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
