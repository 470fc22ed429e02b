package app

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/guildwork/internal/platform/errors"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/energy"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/progression"
	"github.com/louisbranch/guildwork/internal/services/economy/storage"
	"go.opentelemetry.io/otel/attribute"
)

// ExperienceGainResult reports one experience grant.
type ExperienceGainResult struct {
	PlayerID     string
	NewLevel     int
	LeveledUp    bool
	LevelsGained int
	ActualXP     int64
	// MultipliersApplied breaks down the multiplier used for the grant.
	MultipliersApplied progression.Multipliers
	// MilestonesTriggered lists milestones first recorded by this grant.
	MilestonesTriggered []storage.MilestoneRecord
	Progression         progression.State
	Energy              energy.State
}

// PrestigeResult reports a completed prestige reset.
type PrestigeResult struct {
	PlayerID            string
	Outcome             progression.PrestigeOutcome
	Progression         progression.State
	Energy              energy.State
	MilestonesTriggered []storage.MilestoneRecord
}

// ProgressionView is a read-only look at a player's progression.
type ProgressionView struct {
	PlayerID      string
	State         progression.State
	RequiredXP    int64
	XPToNextLevel int64
	MaxLevel      int
}

// GetProgression returns a player's level and experience.
func (s *Service) GetProgression(ctx context.Context, playerID string) (_ ProgressionView, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return ProgressionView{}, err
	}
	ctx, span := s.startSpan(ctx, "GetProgression", attribute.String("player.id", playerID))
	defer func() { endSpan(span, err) }()

	record, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return ProgressionView{}, err
	}
	curve := s.progressionRules.Curve
	return ProgressionView{
		PlayerID:      playerID,
		State:         record.Progression,
		RequiredXP:    curve.RequiredXP(record.Progression.Level),
		XPToNextLevel: curve.XPToNextLevel(record.Progression),
		MaxLevel:      curve.MaxLevel,
	}, nil
}

// GrantExperience adds baseAmount experience scaled by the active promotion
// events and the catch-up bonus. zoneID scopes zone-limited events and may be
// empty. Leveling up raises max energy; each milestone crossed is recorded
// once per player.
func (s *Service) GrantExperience(ctx context.Context, playerID string, baseAmount int64, zoneID string) (_ ExperienceGainResult, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return ExperienceGainResult{}, err
	}
	zoneID = strings.TrimSpace(zoneID)
	ctx, span := s.startSpan(ctx, "GrantExperience",
		attribute.String("player.id", playerID),
		attribute.Int64("xp.base", baseAmount),
		attribute.String("zone.id", zoneID),
	)
	defer func() { endSpan(span, err) }()
	if baseAmount <= 0 {
		return ExperienceGainResult{}, progression.ErrInvalidAmount
	}

	var gain progression.Gain
	var applied progression.Multipliers
	record, created, err := s.mutate(ctx, playerID, func(ctx context.Context, record storage.PlayerRecord, now time.Time) (playerChange, error) {
		events, err := s.store.ListActiveMultiplierEvents(ctx, now)
		if err != nil {
			return playerChange{}, err
		}
		averageLevel, err := s.store.GetAverageLevel(ctx)
		if err != nil {
			return playerChange{}, err
		}

		applied = s.progressionRules.Resolver.Breakdown(
			progression.ActiveEvents(events, now),
			record.Progression.Level,
			averageLevel,
			playerID,
			zoneID,
		)
		gain, err = s.progressionRules.GrantExperience(record.Progression, baseAmount, applied.Total())
		if err != nil {
			return playerChange{}, err
		}

		nextEnergy := record.Energy
		if gain.LeveledUp {
			maxEnergy := s.energyRules.MaxEnergy(gain.State.Level, record.Energy.PassiveMaxEnergyBonus)
			nextEnergy = s.energyRules.Rescale(record.Energy, maxEnergy, now)
		}
		return playerChange{
			energy:      nextEnergy,
			progression: gain.State,
			milestones:  milestoneRecords(playerID, gain.CrossedMilestones, now),
		}, nil
	})
	if err != nil {
		return ExperienceGainResult{}, err
	}

	span.SetAttributes(
		attribute.Int64("xp.actual", gain.ActualXP),
		attribute.Float64("xp.multiplier", applied.Total()),
		attribute.Int("progression.level", record.Progression.Level),
	)
	if gain.LeveledUp {
		log.Printf("player %s reached level %d (+%d)", playerID, record.Progression.Level, gain.LevelsGained)
	}
	return ExperienceGainResult{
		PlayerID:            playerID,
		NewLevel:            record.Progression.Level,
		LeveledUp:           gain.LeveledUp,
		LevelsGained:        gain.LevelsGained,
		ActualXP:            gain.ActualXP,
		MultipliersApplied:  applied,
		MilestonesTriggered: created,
		Progression:         record.Progression,
		Energy:              record.Energy,
	}, nil
}

// Prestige resets a player at or above the prestige level back to level 1 in
// exchange for prestige points. Max energy drops back to the level 1 value.
func (s *Service) Prestige(ctx context.Context, playerID string) (_ PrestigeResult, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return PrestigeResult{}, err
	}
	ctx, span := s.startSpan(ctx, "Prestige", attribute.String("player.id", playerID))
	defer func() { endSpan(span, err) }()

	var outcome progression.PrestigeOutcome
	record, created, err := s.mutate(ctx, playerID, func(_ context.Context, record storage.PlayerRecord, now time.Time) (playerChange, error) {
		next, result, err := s.progressionRules.Prestige.Prestige(record.Progression)
		if err != nil {
			return playerChange{}, err
		}
		outcome = result

		maxEnergy := s.energyRules.MaxEnergy(next.Level, record.Energy.PassiveMaxEnergyBonus)
		change := playerChange{
			energy:      s.energyRules.Rescale(record.Energy, maxEnergy, now),
			progression: next,
		}
		if result.FirstPrestige {
			change.milestones = []storage.MilestoneRecord{{
				PlayerID:   playerID,
				Level:      progression.PrestigeMilestoneLevel,
				RewardType: s.progressionRules.Prestige.RewardType,
				CreatedAt:  now,
			}}
		}
		return change, nil
	})
	if err != nil {
		return PrestigeResult{}, err
	}

	log.Printf("player %s prestiged from level %d (+%d points)", playerID, outcome.FromLevel, outcome.PointsAwarded)
	return PrestigeResult{
		PlayerID:            playerID,
		Outcome:             outcome,
		Progression:         record.Progression,
		Energy:              record.Energy,
		MilestonesTriggered: created,
	}, nil
}

// ListMilestones lists the milestones a player has reached.
func (s *Service) ListMilestones(ctx context.Context, playerID string) (_ []storage.MilestoneRecord, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "ListMilestones", attribute.String("player.id", playerID))
	defer func() { endSpan(span, err) }()

	if _, err := s.loadPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	return s.store.ListMilestones(ctx, playerID)
}

// ClaimMilestone marks a reached milestone's reward as collected.
func (s *Service) ClaimMilestone(ctx context.Context, playerID string, level int) (_ storage.MilestoneRecord, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return storage.MilestoneRecord{}, err
	}
	ctx, span := s.startSpan(ctx, "ClaimMilestone",
		attribute.String("player.id", playerID),
		attribute.Int("milestone.level", level),
	)
	defer func() { endSpan(span, err) }()
	if err := s.ready(); err != nil {
		return storage.MilestoneRecord{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	record, err := s.store.ClaimMilestone(ctx, playerID, level, s.now())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return storage.MilestoneRecord{}, withLevel(ErrMilestoneNotFound, level)
	case errors.Is(err, storage.ErrAlreadyClaimed):
		return storage.MilestoneRecord{}, withLevel(ErrMilestoneAlreadyClaimed, level)
	case err != nil:
		return storage.MilestoneRecord{}, mapStoreError(err)
	}
	return record, nil
}

func withLevel(base *apperrors.Error, level int) error {
	return apperrors.WithMetadata(base.Code, base.Message, map[string]string{"Level": strconv.Itoa(level)})
}

func milestoneRecords(playerID string, milestones []progression.Milestone, now time.Time) []storage.MilestoneRecord {
	if len(milestones) == 0 {
		return nil
	}
	records := make([]storage.MilestoneRecord, 0, len(milestones))
	for _, m := range milestones {
		records = append(records, storage.MilestoneRecord{
			PlayerID:   playerID,
			Level:      m.Level,
			RewardType: m.RewardType,
			CreatedAt:  now,
		})
	}
	return records
}
