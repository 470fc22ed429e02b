package progression

import (
	"fmt"
	"strconv"

	apperrors "github.com/louisbranch/guildwork/internal/platform/errors"
)

// PrestigeRules gates and rewards the voluntary level reset.
type PrestigeRules struct {
	MinLevel int
	// PointsDivisor converts the level given up into prestige points.
	PointsDivisor int
	// RewardType is recorded on the one-time prestige milestone.
	RewardType string
}

// DefaultPrestigeRules returns the design defaults.
func DefaultPrestigeRules() PrestigeRules {
	return PrestigeRules{MinLevel: 50, PointsDivisor: 10, RewardType: "prestige_badge"}
}

// Validate reports whether the rules fit the curve.
func (p PrestigeRules) Validate(curve Curve) error {
	if p.MinLevel < 2 || p.MinLevel > curve.MaxLevel {
		return fmt.Errorf("prestige min level must be in [2, %d]", curve.MaxLevel)
	}
	if p.PointsDivisor <= 0 {
		return fmt.Errorf("prestige points divisor must be greater than zero")
	}
	return nil
}

// PrestigeOutcome summarizes a completed reset.
type PrestigeOutcome struct {
	FromLevel      int
	PointsAwarded  int
	PrestigeLevel  int
	PrestigePoints int
	// FirstPrestige is set when the reset unlocks the prestige milestone.
	FirstPrestige bool
}

// Prestige resets level and within-level experience in exchange for
// prestige points. Lifetime experience is untouched.
func (p PrestigeRules) Prestige(state State) (State, PrestigeOutcome, error) {
	if state.Level < p.MinLevel {
		return State{}, PrestigeOutcome{}, apperrors.WithMetadata(
			apperrors.CodePrestigeBelowMin,
			"level is below the prestige minimum",
			map[string]string{
				"MinimumLevel": strconv.Itoa(p.MinLevel),
				"Level":        strconv.Itoa(state.Level),
			},
		)
	}

	divisor := p.PointsDivisor
	if divisor <= 0 {
		divisor = 1
	}
	outcome := PrestigeOutcome{
		FromLevel:     state.Level,
		PointsAwarded: state.Level / divisor,
		FirstPrestige: state.PrestigeLevel == 0,
	}

	state.Level = 1
	state.Experience = 0
	state.PrestigeLevel++
	state.PrestigePoints += outcome.PointsAwarded

	outcome.PrestigeLevel = state.PrestigeLevel
	outcome.PrestigePoints = state.PrestigePoints
	return state, outcome, nil
}
