package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/guildwork/internal/platform/errors"
	"github.com/louisbranch/guildwork/internal/services/economy/app"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/energy"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/progression"
	"github.com/louisbranch/guildwork/internal/services/economy/storage"
)

// Economy is the set of economy operations the tools call.
type Economy interface {
	RegisterPlayer(ctx context.Context, playerID string) (storage.PlayerRecord, error)
	GetEnergy(ctx context.Context, playerID string) (app.EnergyView, error)
	ConsumeEnergy(ctx context.Context, playerID string, amount int) (energy.State, error)
	ConsumeActionEnergy(ctx context.Context, playerID string, baseCost int) (app.ActionCharge, error)
	GrantEnergy(ctx context.Context, playerID string, amount int) (energy.State, error)
	ApplyEnergyBoost(ctx context.Context, playerID string, amount int, allowOverflow bool, durationMinutes int) (energy.State, error)
	ApplyRegenBoost(ctx context.Context, playerID string, multiplier float64, durationMinutes int) (energy.State, error)
	EnterRecoveryZone(ctx context.Context, playerID, zoneID string) (energy.State, error)
	LeaveRecoveryZone(ctx context.Context, playerID string) (energy.State, error)
	SetPassiveBonuses(ctx context.Context, playerID string, maxEnergyBonus, efficiencyBonus float64) (energy.State, error)
	GetProgression(ctx context.Context, playerID string) (app.ProgressionView, error)
	GrantExperience(ctx context.Context, playerID string, baseAmount int64, zoneID string) (app.ExperienceGainResult, error)
	Prestige(ctx context.Context, playerID string) (app.PrestigeResult, error)
	ListMilestones(ctx context.Context, playerID string) ([]storage.MilestoneRecord, error)
	ClaimMilestone(ctx context.Context, playerID string, level int) (storage.MilestoneRecord, error)
	RegisterMultiplierEvent(ctx context.Context, input app.MultiplierEventInput) (progression.MultiplierEvent, error)
	RemoveMultiplierEvent(ctx context.Context, eventID string) error
	ListMultiplierEvents(ctx context.Context, activeOnly bool) ([]progression.MultiplierEvent, error)
	SetAverageLevel(ctx context.Context, averageLevel float64) error
}

// toolError shows the localized message while keeping the cause for callers
// that unwrap it.
type toolError struct {
	message string
	cause   error
}

func (e *toolError) Error() string { return e.message }

func (e *toolError) Unwrap() error { return e.cause }

func failure(err error) error {
	return &toolError{message: apperrors.UserMessage(err, apperrors.DefaultLocale), cause: err}
}

// RegisterPlayerHandler creates a player.
func RegisterPlayerHandler(economy Economy) mcp.ToolHandlerFor[PlayerInput, EnergyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PlayerInput) (*mcp.CallToolResult, EnergyResult, error) {
		record, err := economy.RegisterPlayer(ctx, input.PlayerID)
		if err != nil {
			return nil, EnergyResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, energyResult(record.PlayerID, record.Energy), nil
	}
}

// GetEnergyHandler reads reconciled energy.
func GetEnergyHandler(economy Economy) mcp.ToolHandlerFor[PlayerInput, EnergyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PlayerInput) (*mcp.CallToolResult, EnergyResult, error) {
		view, err := economy.GetEnergy(ctx, input.PlayerID)
		if err != nil {
			return nil, EnergyResult{}, failure(err)
		}
		result := energyResult(view.PlayerID, view.State)
		result.Current = view.Current
		result.EffectiveCap = view.EffectiveCap
		result.InOverflow = view.InOverflow
		return &mcp.CallToolResult{}, result, nil
	}
}

// ConsumeEnergyHandler spends a fixed amount.
func ConsumeEnergyHandler(economy Economy) mcp.ToolHandlerFor[EnergyAmountInput, EnergyResult] {
	return energyAmountHandler(economy.ConsumeEnergy)
}

// GrantEnergyHandler restores energy up to max.
func GrantEnergyHandler(economy Economy) mcp.ToolHandlerFor[EnergyAmountInput, EnergyResult] {
	return energyAmountHandler(economy.GrantEnergy)
}

func energyAmountHandler(apply func(context.Context, string, int) (energy.State, error)) mcp.ToolHandlerFor[EnergyAmountInput, EnergyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EnergyAmountInput) (*mcp.CallToolResult, EnergyResult, error) {
		state, err := apply(ctx, input.PlayerID, input.Amount)
		if err != nil {
			return nil, EnergyResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, energyResult(input.PlayerID, state), nil
	}
}

// ConsumeActionEnergyHandler spends the efficiency-adjusted cost of an action.
func ConsumeActionEnergyHandler(economy Economy) mcp.ToolHandlerFor[ActionCostInput, ActionChargeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ActionCostInput) (*mcp.CallToolResult, ActionChargeResult, error) {
		charge, err := economy.ConsumeActionEnergy(ctx, input.PlayerID, input.BaseCost)
		if err != nil {
			return nil, ActionChargeResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, ActionChargeResult{
			BaseCost: charge.BaseCost,
			Cost:     charge.Cost,
			Energy:   energyResult(input.PlayerID, charge.State),
		}, nil
	}
}

// EnergyBoostHandler applies a consumable boost.
func EnergyBoostHandler(economy Economy) mcp.ToolHandlerFor[EnergyBoostInput, EnergyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EnergyBoostInput) (*mcp.CallToolResult, EnergyResult, error) {
		state, err := economy.ApplyEnergyBoost(ctx, input.PlayerID, input.Amount, input.AllowOverflow, input.DurationMinutes)
		if err != nil {
			return nil, EnergyResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, energyResult(input.PlayerID, state), nil
	}
}

// RegenBoostHandler applies a regeneration multiplier.
func RegenBoostHandler(economy Economy) mcp.ToolHandlerFor[RegenBoostInput, EnergyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RegenBoostInput) (*mcp.CallToolResult, EnergyResult, error) {
		state, err := economy.ApplyRegenBoost(ctx, input.PlayerID, input.Multiplier, input.DurationMinutes)
		if err != nil {
			return nil, EnergyResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, energyResult(input.PlayerID, state), nil
	}
}

// EnterRecoveryZoneHandler starts resting.
func EnterRecoveryZoneHandler(economy Economy) mcp.ToolHandlerFor[RecoveryZoneInput, EnergyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecoveryZoneInput) (*mcp.CallToolResult, EnergyResult, error) {
		state, err := economy.EnterRecoveryZone(ctx, input.PlayerID, input.ZoneID)
		if err != nil {
			return nil, EnergyResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, energyResult(input.PlayerID, state), nil
	}
}

// LeaveRecoveryZoneHandler stops resting.
func LeaveRecoveryZoneHandler(economy Economy) mcp.ToolHandlerFor[PlayerInput, EnergyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PlayerInput) (*mcp.CallToolResult, EnergyResult, error) {
		state, err := economy.LeaveRecoveryZone(ctx, input.PlayerID)
		if err != nil {
			return nil, EnergyResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, energyResult(input.PlayerID, state), nil
	}
}

// PassiveBonusesHandler installs skill bonuses.
func PassiveBonusesHandler(economy Economy) mcp.ToolHandlerFor[PassiveBonusesInput, EnergyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PassiveBonusesInput) (*mcp.CallToolResult, EnergyResult, error) {
		state, err := economy.SetPassiveBonuses(ctx, input.PlayerID, input.MaxEnergyBonus, input.EfficiencyBonus)
		if err != nil {
			return nil, EnergyResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, energyResult(input.PlayerID, state), nil
	}
}

// GetProgressionHandler reads level and experience.
func GetProgressionHandler(economy Economy) mcp.ToolHandlerFor[PlayerInput, ProgressionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PlayerInput) (*mcp.CallToolResult, ProgressionResult, error) {
		view, err := economy.GetProgression(ctx, input.PlayerID)
		if err != nil {
			return nil, ProgressionResult{}, failure(err)
		}
		result := progressionResult(view.PlayerID, view.State)
		if view.XPToNextLevel != progression.Infinite {
			result.XPToNextLevel = view.XPToNextLevel
		}
		return &mcp.CallToolResult{}, result, nil
	}
}

// GrantExperienceHandler awards experience.
func GrantExperienceHandler(economy Economy) mcp.ToolHandlerFor[ExperienceInput, ExperienceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExperienceInput) (*mcp.CallToolResult, ExperienceResult, error) {
		gain, err := economy.GrantExperience(ctx, input.PlayerID, input.BaseAmount, input.ZoneID)
		if err != nil {
			return nil, ExperienceResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, ExperienceResult{
			ActualXP:           gain.ActualXP,
			LeveledUp:          gain.LeveledUp,
			LevelsGained:       gain.LevelsGained,
			EventMultiplier:    gain.MultipliersApplied.Event,
			EventID:            gain.MultipliersApplied.EventID,
			CatchupMultiplier:  gain.MultipliersApplied.Catchup,
			Progression:        progressionResult(gain.PlayerID, gain.Progression),
			MilestonesUnlocked: milestoneResults(gain.MilestonesTriggered),
			MaxEnergy:          gain.Energy.Max,
		}, nil
	}
}

// PrestigeHandler resets a player for prestige points.
func PrestigeHandler(economy Economy) mcp.ToolHandlerFor[PlayerInput, PrestigeToolResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PlayerInput) (*mcp.CallToolResult, PrestigeToolResult, error) {
		result, err := economy.Prestige(ctx, input.PlayerID)
		if err != nil {
			return nil, PrestigeToolResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, PrestigeToolResult{
			FromLevel:          result.Outcome.FromLevel,
			PointsAwarded:      result.Outcome.PointsAwarded,
			Progression:        progressionResult(result.PlayerID, result.Progression),
			MilestonesUnlocked: milestoneResults(result.MilestonesTriggered),
		}, nil
	}
}

// ListMilestonesHandler lists reached milestones.
func ListMilestonesHandler(economy Economy) mcp.ToolHandlerFor[PlayerInput, MilestoneListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PlayerInput) (*mcp.CallToolResult, MilestoneListResult, error) {
		milestones, err := economy.ListMilestones(ctx, input.PlayerID)
		if err != nil {
			return nil, MilestoneListResult{}, failure(err)
		}
		result := milestoneResults(milestones)
		if result == nil {
			result = []MilestoneResult{}
		}
		return &mcp.CallToolResult{}, MilestoneListResult{Milestones: result}, nil
	}
}

// ClaimMilestoneHandler collects a milestone reward.
func ClaimMilestoneHandler(economy Economy) mcp.ToolHandlerFor[ClaimMilestoneInput, MilestoneResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ClaimMilestoneInput) (*mcp.CallToolResult, MilestoneResult, error) {
		milestone, err := economy.ClaimMilestone(ctx, input.PlayerID, input.Level)
		if err != nil {
			return nil, MilestoneResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, milestoneResult(milestone), nil
	}
}

// RegisterMultiplierEventHandler schedules a promotion.
func RegisterMultiplierEventHandler(economy Economy) mcp.ToolHandlerFor[MultiplierEventInput, MultiplierEventResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MultiplierEventInput) (*mcp.CallToolResult, MultiplierEventResult, error) {
		start, err := parseTimestamp("start_time", input.StartTime)
		if err != nil {
			return nil, MultiplierEventResult{}, err
		}
		end, err := parseTimestamp("end_time", input.EndTime)
		if err != nil {
			return nil, MultiplierEventResult{}, err
		}
		event, err := economy.RegisterMultiplierEvent(ctx, app.MultiplierEventInput{
			Multiplier: input.Multiplier,
			StartTime:  start,
			EndTime:    end,
			UserScope:  input.UserScope,
			ZoneScope:  input.ZoneScope,
		})
		if err != nil {
			return nil, MultiplierEventResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, eventResult(event), nil
	}
}

// RemoveMultiplierEventHandler deletes a promotion.
func RemoveMultiplierEventHandler(economy Economy) mcp.ToolHandlerFor[EventIDInput, AckResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventIDInput) (*mcp.CallToolResult, AckResult, error) {
		if err := economy.RemoveMultiplierEvent(ctx, input.EventID); err != nil {
			return nil, AckResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, AckResult{OK: true}, nil
	}
}

// ListMultiplierEventsHandler lists promotions.
func ListMultiplierEventsHandler(economy Economy) mcp.ToolHandlerFor[ListEventsInput, MultiplierEventListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListEventsInput) (*mcp.CallToolResult, MultiplierEventListResult, error) {
		events, err := economy.ListMultiplierEvents(ctx, input.ActiveOnly)
		if err != nil {
			return nil, MultiplierEventListResult{}, failure(err)
		}
		results := make([]MultiplierEventResult, 0, len(events))
		for _, event := range events {
			results = append(results, eventResult(event))
		}
		return &mcp.CallToolResult{}, MultiplierEventListResult{Events: results}, nil
	}
}

// SetAverageLevelHandler publishes the catch-up reference level.
func SetAverageLevelHandler(economy Economy) mcp.ToolHandlerFor[AverageLevelInput, AckResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AverageLevelInput) (*mcp.CallToolResult, AckResult, error) {
		if err := economy.SetAverageLevel(ctx, input.AverageLevel); err != nil {
			return nil, AckResult{}, failure(err)
		}
		return &mcp.CallToolResult{}, AckResult{OK: true}, nil
	}
}

func energyResult(playerID string, state energy.State) EnergyResult {
	return EnergyResult{
		PlayerID:         playerID,
		Current:          state.Current,
		Max:              state.Max,
		InOverflow:       state.InOverflow(),
		RegenMultiplier:  state.RegenMultiplier,
		RegenBoostExpiry: formatTimestamp(state.RegenBoostExpiry),
		OverflowExpiry:   formatTimestamp(state.OverflowExpiry),
		RecoveryZoneID:   state.RecoveryZoneID,
		LastUpdate:       formatTimestamp(state.LastUpdate),
	}
}

func progressionResult(playerID string, state progression.State) ProgressionResult {
	return ProgressionResult{
		PlayerID:                playerID,
		Level:                   state.Level,
		Experience:              state.Experience,
		TotalLifetimeExperience: state.TotalLifetimeExperience,
		PrestigeLevel:           state.PrestigeLevel,
		PrestigePoints:          state.PrestigePoints,
	}
}

func milestoneResult(m storage.MilestoneRecord) MilestoneResult {
	return MilestoneResult{
		Level:      m.Level,
		RewardType: m.RewardType,
		Claimed:    m.Claimed,
		CreatedAt:  formatTimestamp(m.CreatedAt),
		ClaimedAt:  formatTimestamp(m.ClaimedAt),
	}
}

func milestoneResults(milestones []storage.MilestoneRecord) []MilestoneResult {
	if len(milestones) == 0 {
		return nil
	}
	results := make([]MilestoneResult, 0, len(milestones))
	for _, m := range milestones {
		results = append(results, milestoneResult(m))
	}
	return results
}

func eventResult(event progression.MultiplierEvent) MultiplierEventResult {
	return MultiplierEventResult{
		ID:         event.ID,
		Multiplier: event.Multiplier,
		StartTime:  formatTimestamp(event.StartTime),
		EndTime:    formatTimestamp(event.EndTime),
		UserScope:  event.UserScope,
		ZoneScope:  event.ZoneScope,
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC3339 timestamp: %w", field, err)
	}
	return t, nil
}
