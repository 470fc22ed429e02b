package app

import (
	"context"
	"time"

	"github.com/louisbranch/guildwork/internal/services/economy/domain/energy"
	"github.com/louisbranch/guildwork/internal/services/economy/storage"
	"go.opentelemetry.io/otel/attribute"
)

// EnergyView is a reconciled, read-only look at a player's energy.
type EnergyView struct {
	PlayerID string
	// State is the ledger as stored.
	State energy.State
	// Current includes regeneration up to At.
	Current      int
	EffectiveCap int
	InOverflow   bool
	At           time.Time
}

// ActionCharge is the outcome of an efficiency-adjusted spend.
type ActionCharge struct {
	State    energy.State
	BaseCost int
	Cost     int
}

func (s *Service) energyMutation(apply func(state energy.State, now time.Time) (energy.State, error)) mutation {
	return func(_ context.Context, record storage.PlayerRecord, now time.Time) (playerChange, error) {
		next, err := apply(record.Energy, now)
		if err != nil {
			return playerChange{}, err
		}
		return playerChange{energy: next, progression: record.Progression}, nil
	}
}

// GetEnergy returns the reconciled energy without writing.
func (s *Service) GetEnergy(ctx context.Context, playerID string) (_ EnergyView, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return EnergyView{}, err
	}
	ctx, span := s.startSpan(ctx, "GetEnergy", attribute.String("player.id", playerID))
	defer func() { endSpan(span, err) }()

	record, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return EnergyView{}, err
	}
	now := s.now()
	current := s.energyRules.Reconcile(record.Energy, now)
	return EnergyView{
		PlayerID:     playerID,
		State:        record.Energy,
		Current:      current,
		EffectiveCap: s.energyRules.EffectiveCap(record.Energy, now),
		InOverflow:   current > record.Energy.Max,
		At:           now,
	}, nil
}

// ConsumeEnergy debits amount after regeneration is applied.
func (s *Service) ConsumeEnergy(ctx context.Context, playerID string, amount int) (_ energy.State, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return energy.State{}, err
	}
	ctx, span := s.startSpan(ctx, "ConsumeEnergy",
		attribute.String("player.id", playerID),
		attribute.Int("energy.amount", amount),
	)
	defer func() { endSpan(span, err) }()

	record, _, err := s.mutate(ctx, playerID, s.energyMutation(func(state energy.State, now time.Time) (energy.State, error) {
		return s.energyRules.ConsumeEnergy(state, amount, now)
	}))
	if err != nil {
		return energy.State{}, err
	}
	return record.Energy, nil
}

// ConsumeActionEnergy discounts baseCost by the player's efficiency bonus and
// debits the result.
func (s *Service) ConsumeActionEnergy(ctx context.Context, playerID string, baseCost int) (_ ActionCharge, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return ActionCharge{}, err
	}
	ctx, span := s.startSpan(ctx, "ConsumeActionEnergy",
		attribute.String("player.id", playerID),
		attribute.Int("energy.base_cost", baseCost),
	)
	defer func() { endSpan(span, err) }()
	if baseCost <= 0 {
		return ActionCharge{}, energy.ErrInvalidAmount
	}

	var cost int
	record, _, err := s.mutate(ctx, playerID, s.energyMutation(func(state energy.State, now time.Time) (energy.State, error) {
		cost = s.energyRules.EfficiencyCost(baseCost, state.PassiveEfficiencyBonus)
		return s.energyRules.ConsumeEnergy(state, cost, now)
	}))
	if err != nil {
		return ActionCharge{}, err
	}
	span.SetAttributes(attribute.Int("energy.cost", cost))
	return ActionCharge{State: record.Energy, BaseCost: baseCost, Cost: cost}, nil
}

// GrantEnergy adds energy up to the normal maximum.
func (s *Service) GrantEnergy(ctx context.Context, playerID string, amount int) (_ energy.State, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return energy.State{}, err
	}
	ctx, span := s.startSpan(ctx, "GrantEnergy",
		attribute.String("player.id", playerID),
		attribute.Int("energy.amount", amount),
	)
	defer func() { endSpan(span, err) }()

	record, _, err := s.mutate(ctx, playerID, s.energyMutation(func(state energy.State, now time.Time) (energy.State, error) {
		return s.energyRules.GrantEnergy(state, amount, now)
	}))
	if err != nil {
		return energy.State{}, err
	}
	return record.Energy, nil
}

// ApplyEnergyBoost adds energy, optionally opening an overflow window of
// durationMinutes.
func (s *Service) ApplyEnergyBoost(ctx context.Context, playerID string, amount int, allowOverflow bool, durationMinutes int) (_ energy.State, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return energy.State{}, err
	}
	ctx, span := s.startSpan(ctx, "ApplyEnergyBoost",
		attribute.String("player.id", playerID),
		attribute.Int("energy.amount", amount),
		attribute.Bool("energy.allow_overflow", allowOverflow),
		attribute.Int("energy.duration_minutes", durationMinutes),
	)
	defer func() { endSpan(span, err) }()

	record, _, err := s.mutate(ctx, playerID, s.energyMutation(func(state energy.State, now time.Time) (energy.State, error) {
		return s.energyRules.ApplyBoost(state, amount, allowOverflow, durationMinutes, now)
	}))
	if err != nil {
		return energy.State{}, err
	}
	return record.Energy, nil
}

// ApplyRegenBoost sets a temporary regeneration multiplier.
func (s *Service) ApplyRegenBoost(ctx context.Context, playerID string, multiplier float64, durationMinutes int) (_ energy.State, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return energy.State{}, err
	}
	ctx, span := s.startSpan(ctx, "ApplyRegenBoost",
		attribute.String("player.id", playerID),
		attribute.Float64("energy.regen_multiplier", multiplier),
		attribute.Int("energy.duration_minutes", durationMinutes),
	)
	defer func() { endSpan(span, err) }()

	record, _, err := s.mutate(ctx, playerID, s.energyMutation(func(state energy.State, now time.Time) (energy.State, error) {
		return s.energyRules.ApplyRegenBoost(state, multiplier, durationMinutes, now)
	}))
	if err != nil {
		return energy.State{}, err
	}
	return record.Energy, nil
}

// EnterRecoveryZone starts resting in zoneID.
func (s *Service) EnterRecoveryZone(ctx context.Context, playerID, zoneID string) (_ energy.State, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return energy.State{}, err
	}
	ctx, span := s.startSpan(ctx, "EnterRecoveryZone",
		attribute.String("player.id", playerID),
		attribute.String("zone.id", zoneID),
	)
	defer func() { endSpan(span, err) }()

	record, _, err := s.mutate(ctx, playerID, s.energyMutation(func(state energy.State, now time.Time) (energy.State, error) {
		return s.energyRules.EnterRecoveryZone(state, zoneID, now)
	}))
	if err != nil {
		return energy.State{}, err
	}
	return record.Energy, nil
}

// LeaveRecoveryZone stops resting.
func (s *Service) LeaveRecoveryZone(ctx context.Context, playerID string) (_ energy.State, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return energy.State{}, err
	}
	ctx, span := s.startSpan(ctx, "LeaveRecoveryZone", attribute.String("player.id", playerID))
	defer func() { endSpan(span, err) }()

	record, _, err := s.mutate(ctx, playerID, s.energyMutation(func(state energy.State, now time.Time) (energy.State, error) {
		return s.energyRules.LeaveRecoveryZone(state, now), nil
	}))
	if err != nil {
		return energy.State{}, err
	}
	return record.Energy, nil
}

// SetPassiveBonuses installs skill-derived bonuses and rescales max energy.
func (s *Service) SetPassiveBonuses(ctx context.Context, playerID string, maxEnergyBonus, efficiencyBonus float64) (_ energy.State, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return energy.State{}, err
	}
	ctx, span := s.startSpan(ctx, "SetPassiveBonuses",
		attribute.String("player.id", playerID),
		attribute.Float64("energy.passive_max_bonus", maxEnergyBonus),
		attribute.Float64("energy.passive_efficiency_bonus", efficiencyBonus),
	)
	defer func() { endSpan(span, err) }()

	record, _, err := s.mutate(ctx, playerID, func(_ context.Context, record storage.PlayerRecord, now time.Time) (playerChange, error) {
		next, err := s.energyRules.SetPassiveBonuses(record.Energy, record.Progression.Level, maxEnergyBonus, efficiencyBonus, now)
		if err != nil {
			return playerChange{}, err
		}
		return playerChange{energy: next, progression: record.Progression}, nil
	})
	if err != nil {
		return energy.State{}, err
	}
	return record.Energy, nil
}
