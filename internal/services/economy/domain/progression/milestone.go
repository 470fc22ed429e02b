package progression

import (
	"fmt"
	"slices"
)

// PrestigeMilestoneLevel is the reserved level recorded the first time a
// player prestiges. Real levels start at 1.
const PrestigeMilestoneLevel = 0

// Milestone is a level threshold with a one-time reward.
type Milestone struct {
	Level      int
	RewardType string
}

// MilestoneTable maps level thresholds to reward types.
type MilestoneTable map[int]string

// Validate reports entries that can never be reached.
func (t MilestoneTable) Validate(curve Curve) error {
	for level, reward := range t {
		if level < 2 || level > curve.MaxLevel {
			return fmt.Errorf("milestone level %d outside [2, %d]", level, curve.MaxLevel)
		}
		if reward == "" {
			return fmt.Errorf("milestone level %d has no reward type", level)
		}
	}
	return nil
}

// Crossed returns the milestones in (from, to], ascending.
func (t MilestoneTable) Crossed(from, to int) []Milestone {
	if to <= from || len(t) == 0 {
		return nil
	}
	var crossed []Milestone
	for level, reward := range t {
		if level > from && level <= to {
			crossed = append(crossed, Milestone{Level: level, RewardType: reward})
		}
	}
	slices.SortFunc(crossed, func(a, b Milestone) int { return a.Level - b.Level })
	return crossed
}

// Lookup returns the milestone defined at level.
func (t MilestoneTable) Lookup(level int) (Milestone, bool) {
	reward, ok := t[level]
	if !ok {
		return Milestone{}, false
	}
	return Milestone{Level: level, RewardType: reward}, true
}
