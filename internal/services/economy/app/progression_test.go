package app

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/louisbranch/guildwork/internal/services/economy/balance"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/progression"
	"github.com/louisbranch/guildwork/internal/services/economy/storage"
)

func milestoneBalance() *balance.Config {
	cfg := balance.Default()
	cfg.Milestones = []balance.MilestoneConfig{
		{Level: 2, Reward: "apprentice_apron"},
		{Level: 3, Reward: "work_bench"},
	}
	return cfg
}

func TestGrantExperienceLevelsUpAndRaisesMaxEnergy(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, "p1")

	result, err := f.service.GrantExperience(ctx, "p1", 250, "")
	if err != nil {
		t.Fatalf("GrantExperience() error = %v", err)
	}
	if result.ActualXP != 250 || result.NewLevel != 3 || result.LevelsGained != 2 || !result.LeveledUp {
		t.Fatalf("result = %+v", result)
	}
	if result.Progression.Experience != 30 || result.Progression.TotalLifetimeExperience != 250 {
		t.Fatalf("progression = %+v", result.Progression)
	}
	if result.Energy.Max != 110 || result.Energy.Current != 100 {
		t.Fatalf("energy = %+v", result.Energy)
	}

	view, err := f.service.GetProgression(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProgression() error = %v", err)
	}
	if view.RequiredXP != 144 || view.XPToNextLevel != 114 || view.MaxLevel != 100 {
		t.Fatalf("view = %+v", view)
	}

	if _, err := f.service.GrantExperience(ctx, "p1", 0, ""); !errors.Is(err, progression.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestGrantExperienceUsesHighestEvent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, "p1")

	window := MultiplierEventInput{StartTime: testStart.Add(-time.Hour), EndTime: testStart.Add(time.Hour)}
	for _, multiplier := range []float64{2, 3} {
		input := window
		input.Multiplier = multiplier
		if _, err := f.service.RegisterMultiplierEvent(ctx, input); err != nil {
			t.Fatalf("RegisterMultiplierEvent(%v) error = %v", multiplier, err)
		}
	}
	mine := window
	mine.Multiplier = 4
	mine.ZoneScope = []string{"mine", " mine ", ""}
	event, err := f.service.RegisterMultiplierEvent(ctx, mine)
	if err != nil {
		t.Fatalf("RegisterMultiplierEvent(zone) error = %v", err)
	}
	if len(event.ZoneScope) != 1 || event.ZoneScope[0] != "mine" {
		t.Fatalf("zone scope = %v", event.ZoneScope)
	}

	result, err := f.service.GrantExperience(ctx, "p1", 100, "")
	if err != nil {
		t.Fatalf("GrantExperience() error = %v", err)
	}
	if result.ActualXP != 300 || result.MultipliersApplied.Event != 3 || result.MultipliersApplied.EventID != "evt-2" {
		t.Fatalf("result = %+v", result)
	}
	if result.NewLevel != 3 || result.Progression.Experience != 80 {
		t.Fatalf("progression = %+v", result.Progression)
	}

	result, err = f.service.GrantExperience(ctx, "p1", 10, "mine")
	if err != nil {
		t.Fatalf("GrantExperience(mine) error = %v", err)
	}
	if result.ActualXP != 40 || result.MultipliersApplied.EventID != event.ID {
		t.Fatalf("zone result = %+v", result)
	}

	f.clock.Advance(2 * time.Hour)
	result, err = f.service.GrantExperience(ctx, "p1", 10, "mine")
	if err != nil {
		t.Fatalf("GrantExperience(after events) error = %v", err)
	}
	if result.ActualXP != 10 || result.MultipliersApplied.EventID != "" {
		t.Fatalf("expired events applied: %+v", result)
	}
}

func TestGrantExperienceCatchup(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, "p1")

	if err := f.service.SetAverageLevel(ctx, 6); err != nil {
		t.Fatalf("SetAverageLevel() error = %v", err)
	}
	result, err := f.service.GrantExperience(ctx, "p1", 100, "")
	if err != nil {
		t.Fatalf("GrantExperience() error = %v", err)
	}
	if result.MultipliersApplied.Catchup != 1.5 || result.ActualXP != 150 {
		t.Fatalf("result = %+v", result)
	}
	if result.NewLevel != 2 || result.Progression.Experience != 50 {
		t.Fatalf("progression = %+v", result.Progression)
	}

	if err := f.service.SetAverageLevel(ctx, -1); !errors.Is(err, ErrAverageLevelInvalid) {
		t.Fatalf("expected ErrAverageLevelInvalid, got %v", err)
	}
}

func TestMilestonesRecordedOnce(t *testing.T) {
	f := newFixture(t, milestoneBalance())
	ctx := context.Background()
	f.register(t, "p1")

	result, err := f.service.GrantExperience(ctx, "p1", 250, "")
	if err != nil {
		t.Fatalf("GrantExperience() error = %v", err)
	}
	if len(result.MilestonesTriggered) != 2 ||
		result.MilestonesTriggered[0].Level != 2 ||
		result.MilestonesTriggered[1].RewardType != "work_bench" {
		t.Fatalf("milestones = %+v", result.MilestonesTriggered)
	}
	if f.sink.count() != 2 {
		t.Fatalf("sink received %d milestones, want 2", f.sink.count())
	}

	f.overwrite(t, "p1", func(record *storage.PlayerRecord) {
		record.Progression.Level = 1
		record.Progression.Experience = 0
	})
	result, err = f.service.GrantExperience(ctx, "p1", 250, "")
	if err != nil {
		t.Fatalf("GrantExperience() replay error = %v", err)
	}
	if len(result.MilestonesTriggered) != 0 {
		t.Fatalf("replay triggered %+v", result.MilestonesTriggered)
	}
	if f.sink.count() != 2 {
		t.Fatalf("sink received %d milestones after replay, want 2", f.sink.count())
	}

	milestones, err := f.service.ListMilestones(ctx, "p1")
	if err != nil {
		t.Fatalf("ListMilestones() error = %v", err)
	}
	if len(milestones) != 2 {
		t.Fatalf("milestones = %+v", milestones)
	}
	if _, err := f.service.ListMilestones(ctx, "ghost"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestRewardSinkFailureKeepsGrant(t *testing.T) {
	f := newFixture(t, milestoneBalance())
	ctx := context.Background()
	f.register(t, "p1")
	f.sink.err = errors.New("inventory offline")

	result, err := f.service.GrantExperience(ctx, "p1", 100, "")
	if err != nil {
		t.Fatalf("GrantExperience() error = %v", err)
	}
	if result.NewLevel != 2 || len(result.MilestonesTriggered) != 1 {
		t.Fatalf("result = %+v", result)
	}
	milestones, err := f.service.ListMilestones(ctx, "p1")
	if err != nil {
		t.Fatalf("ListMilestones() error = %v", err)
	}
	if len(milestones) != 1 {
		t.Fatalf("milestones = %+v", milestones)
	}
}

func TestClaimMilestone(t *testing.T) {
	f := newFixture(t, milestoneBalance())
	ctx := context.Background()
	f.register(t, "p1")
	if _, err := f.service.GrantExperience(ctx, "p1", 100, ""); err != nil {
		t.Fatalf("GrantExperience() error = %v", err)
	}

	f.clock.Advance(time.Minute)
	claimed, err := f.service.ClaimMilestone(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("ClaimMilestone() error = %v", err)
	}
	if !claimed.Claimed || !claimed.ClaimedAt.Equal(testStart.Add(time.Minute)) {
		t.Fatalf("claimed = %+v", claimed)
	}
	if _, err := f.service.ClaimMilestone(ctx, "p1", 2); !errors.Is(err, ErrMilestoneAlreadyClaimed) {
		t.Fatalf("expected ErrMilestoneAlreadyClaimed, got %v", err)
	}
	if _, err := f.service.ClaimMilestone(ctx, "p1", 3); !errors.Is(err, ErrMilestoneNotFound) {
		t.Fatalf("expected ErrMilestoneNotFound, got %v", err)
	}
}

func TestPrestige(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, "p1")

	if _, err := f.service.Prestige(ctx, "p1"); !errors.Is(err, progression.ErrBelowMinimumLevel) {
		t.Fatalf("expected ErrBelowMinimumLevel, got %v", err)
	}

	f.overwrite(t, "p1", func(record *storage.PlayerRecord) {
		record.Progression.Level = 55
		record.Progression.Experience = 40
		record.Progression.TotalLifetimeExperience = 1_000_000
		record.Energy.Max = 370
		record.Energy.Current = 370
	})

	result, err := f.service.Prestige(ctx, "p1")
	if err != nil {
		t.Fatalf("Prestige() error = %v", err)
	}
	if result.Outcome.FromLevel != 55 || result.Outcome.PointsAwarded != 5 || !result.Outcome.FirstPrestige {
		t.Fatalf("outcome = %+v", result.Outcome)
	}
	got := result.Progression
	if got.Level != 1 || got.Experience != 0 || got.TotalLifetimeExperience != 1_000_000 ||
		got.PrestigeLevel != 1 || got.PrestigePoints != 5 {
		t.Fatalf("progression = %+v", got)
	}
	if result.Energy.Max != 100 || result.Energy.Current != 100 {
		t.Fatalf("energy = %+v", result.Energy)
	}
	if len(result.MilestonesTriggered) != 1 ||
		result.MilestonesTriggered[0].Level != progression.PrestigeMilestoneLevel ||
		result.MilestonesTriggered[0].RewardType != "prestige_badge" {
		t.Fatalf("milestones = %+v", result.MilestonesTriggered)
	}

	f.overwrite(t, "p1", func(record *storage.PlayerRecord) {
		record.Progression.Level = 60
	})
	result, err = f.service.Prestige(ctx, "p1")
	if err != nil {
		t.Fatalf("second Prestige() error = %v", err)
	}
	if result.Outcome.FirstPrestige || len(result.MilestonesTriggered) != 0 {
		t.Fatalf("second prestige = %+v", result)
	}
	if result.Progression.PrestigeLevel != 2 || result.Progression.PrestigePoints != 11 {
		t.Fatalf("progression = %+v", result.Progression)
	}
	if f.sink.count() != 1 {
		t.Fatalf("sink received %d milestones, want 1", f.sink.count())
	}
}

func TestGrantExperienceRejectsOversizedGrant(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, "p1")

	if _, err := f.service.GrantExperience(ctx, "p1", math.MaxInt64, ""); !errors.Is(err, progression.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	view, err := f.service.GetProgression(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProgression() error = %v", err)
	}
	if view.State.Level != 1 || view.State.TotalLifetimeExperience != 0 {
		t.Fatalf("rejected grant changed progression: %+v", view)
	}
}
