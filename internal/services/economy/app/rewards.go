package app

import (
	"context"
	"log"

	"github.com/louisbranch/guildwork/internal/services/economy/storage"
)

// RewardSink hands unlocked milestone rewards to the inventory owner.
// It is called after the milestone is durably recorded, at most once per
// milestone, and failures never undo the grant that unlocked it.
type RewardSink interface {
	MilestoneUnlocked(ctx context.Context, milestone storage.MilestoneRecord) error
}

// LogRewardSink records unlocked milestones in the process log.
type LogRewardSink struct{}

// MilestoneUnlocked logs the milestone.
func (LogRewardSink) MilestoneUnlocked(_ context.Context, milestone storage.MilestoneRecord) error {
	log.Printf("player %s unlocked level %d reward %s", milestone.PlayerID, milestone.Level, milestone.RewardType)
	return nil
}

func (s *Service) deliverRewards(ctx context.Context, milestones []storage.MilestoneRecord) {
	for _, milestone := range milestones {
		if err := s.rewards.MilestoneUnlocked(ctx, milestone); err != nil {
			log.Printf("deliver level %d reward to player %s: %v", milestone.Level, milestone.PlayerID, err)
		}
	}
}
