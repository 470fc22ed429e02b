package progression

import "math"

// Gain is the outcome of one experience grant.
type Gain struct {
	State        State
	ActualXP     int64
	LeveledUp    bool
	LevelsGained int
	// CrossedMilestones lists the milestone levels reached by this grant in
	// ascending order. The caller records them idempotently.
	CrossedMilestones []Milestone
}

// maxGrantXP bounds one scaled grant so the ledger sums stay representable.
const maxGrantXP = float64(math.MaxInt64 / 2)

// GrantExperience adds ceil(baseAmount * multiplier) experience and derives
// the new level from the cumulative total, so within-level experience is
// always cumulative minus the threshold of the new level.
func (r Rules) GrantExperience(state State, baseAmount int64, multiplier float64) (Gain, error) {
	if baseAmount <= 0 {
		return Gain{}, ErrInvalidAmount
	}
	if !validMultiplier(multiplier) {
		return Gain{}, ErrInvalidMultiplier
	}
	if state.Level < 1 {
		state.Level = 1
	}

	scaled := float64(baseAmount) * multiplier
	if scaled >= maxGrantXP {
		return Gain{}, ErrInvalidAmount
	}
	actual := int64(math.Ceil(scaled - floatTolerance))
	if actual < 1 {
		actual = 1
	}

	curve := r.Curve
	cumulative := addSaturating(addSaturating(curve.CumulativeXPForLevel(state.Level), state.Experience), actual)
	newLevel := curve.LevelFromCumulativeXP(cumulative)
	if newLevel < state.Level {
		newLevel = state.Level
	}

	oldLevel := state.Level
	state.Level = newLevel
	state.Experience = cumulative - curve.CumulativeXPForLevel(newLevel)
	state.TotalLifetimeExperience = addSaturating(state.TotalLifetimeExperience, actual)

	return Gain{
		State:             state,
		ActualXP:          actual,
		LeveledUp:         newLevel > oldLevel,
		LevelsGained:      newLevel - oldLevel,
		CrossedMilestones: r.Milestones.Crossed(oldLevel, newLevel),
	}, nil
}

// addSaturating adds b to a, stopping at math.MaxInt64.
func addSaturating(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
