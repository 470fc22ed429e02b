package progression

import (
	"fmt"
	"math"
)

// Infinite is the experience required to leave the maximum level.
const Infinite int64 = math.MaxInt64

// Curve maps levels to experience thresholds. Each level costs
// BaseXP * ScalingFactor^(level-1), floored.
type Curve struct {
	BaseXP        int64
	ScalingFactor float64
	MaxLevel      int
}

// DefaultCurve returns the design defaults.
func DefaultCurve() Curve {
	return Curve{BaseXP: 100, ScalingFactor: 1.2, MaxLevel: 100}
}

// Validate reports whether the curve is usable.
func (c Curve) Validate() error {
	switch {
	case c.BaseXP <= 0:
		return fmt.Errorf("base xp must be greater than zero")
	case c.ScalingFactor < 1:
		return fmt.Errorf("scaling factor must be at least 1")
	case c.MaxLevel < 2:
		return fmt.Errorf("max level must be at least 2")
	}
	if c.CumulativeXPForLevel(c.MaxLevel) == Infinite {
		return fmt.Errorf("curve overflows before max level %d", c.MaxLevel)
	}
	return nil
}

// RequiredXP is the experience needed to advance from level to level+1.
func (c Curve) RequiredXP(level int) int64 {
	if level >= c.MaxLevel {
		return Infinite
	}
	if level < 1 {
		level = 1
	}
	v := float64(c.BaseXP) * math.Pow(c.ScalingFactor, float64(level-1))
	if v >= float64(Infinite) {
		return Infinite
	}
	return int64(math.Floor(v + floatTolerance))
}

// CumulativeXPForLevel is the total experience needed to reach level from
// level 1. Levels past the maximum are treated as the maximum. Totals that do
// not fit saturate at Infinite.
func (c Curve) CumulativeXPForLevel(level int) int64 {
	if level > c.MaxLevel {
		level = c.MaxLevel
	}
	var total int64
	for i := 1; i < level; i++ {
		required := c.RequiredXP(i)
		if required > Infinite-total {
			return Infinite
		}
		total += required
	}
	return total
}

// LevelFromCumulativeXP is the highest level whose cumulative threshold does
// not exceed xp, capped at the maximum level.
func (c Curve) LevelFromCumulativeXP(xp int64) int {
	level := 1
	var total int64
	for level < c.MaxLevel {
		required := c.RequiredXP(level)
		if required > xp-total {
			break
		}
		total += required
		level++
	}
	return level
}

// XPToNextLevel is how much more experience state needs to level up, or
// Infinite at the maximum level.
func (c Curve) XPToNextLevel(state State) int64 {
	required := c.RequiredXP(state.Level)
	if required == Infinite {
		return Infinite
	}
	remaining := required - state.Experience
	if remaining < 0 {
		return 0
	}
	return remaining
}
