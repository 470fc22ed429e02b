package energy

import (
	"math"
	"strconv"
	"time"

	apperrors "github.com/louisbranch/guildwork/internal/platform/errors"
)

// Reconcile returns the balance state holds at now once regeneration is
// applied. It does not modify state and yields the same answer for the same
// inputs.
func (r Rules) Reconcile(state State, now time.Time) int {
	limit := r.EffectiveCap(state, now)
	if state.Current >= limit {
		return state.Current
	}
	room := limit - state.Current
	gain := r.regenGain(state, now)
	if gain+floatTolerance >= float64(room) {
		return limit
	}
	return state.Current + floorInt(gain)
}

// settle writes the reconciled balance into state and moves the regen clock to
// now. Expired regen boosts return to the neutral multiplier. A clock running
// behind the stored timestamp leaves the timestamp untouched so the same
// interval is never credited twice.
func (r Rules) settle(state State, now time.Time) State {
	state.Current = r.Reconcile(state, now)
	if now.After(state.LastUpdate) {
		state.LastUpdate = now
	}
	if !state.RegenBoostExpiry.IsZero() && !now.Before(state.RegenBoostExpiry) {
		state.RegenMultiplier = 1
		state.RegenBoostExpiry = time.Time{}
	}
	return state
}

// Settle reconciles state into a storable ledger without changing anything
// else.
func (r Rules) Settle(state State, now time.Time) State {
	return clampOnWrite(r.settle(state, now), now)
}

// ConsumeEnergy debits amount from the reconciled balance.
func (r Rules) ConsumeEnergy(state State, amount int, now time.Time) (State, error) {
	if amount <= 0 {
		return State{}, ErrInvalidAmount
	}
	state = r.settle(state, now)
	if state.Current < amount {
		return State{}, apperrors.WithMetadata(
			apperrors.CodeEnergyInsufficient,
			"energy is insufficient",
			map[string]string{
				"Required":  strconv.Itoa(amount),
				"Available": strconv.Itoa(state.Current),
			},
		)
	}
	state.Current -= amount
	return clampOnWrite(state, now), nil
}

// GrantEnergy adds amount up to max. Grants never open an overflow and never
// reduce a balance that already sits above max.
func (r Rules) GrantEnergy(state State, amount int, now time.Time) (State, error) {
	if amount < 0 {
		return State{}, ErrInvalidAmount
	}
	state = r.settle(state, now)
	if state.Current < state.Max {
		if amount >= state.Max-state.Current {
			state.Current = state.Max
		} else {
			state.Current += amount
		}
	}
	return clampOnWrite(state, now), nil
}

// ApplyBoost adds amount, optionally allowing the balance to pass max up to
// the overflow cap. Each boost that leaves the balance above max re-arms the
// overflow window to durationMinutes from now.
func (r Rules) ApplyBoost(state State, amount int, allowOverflow bool, durationMinutes int, now time.Time) (State, error) {
	if amount <= 0 {
		return State{}, ErrInvalidAmount
	}
	if allowOverflow && durationMinutes <= 0 {
		return State{}, ErrInvalidDuration
	}
	state = r.settle(state, now)

	limit := state.Max
	if allowOverflow {
		limit = r.OverflowCap(state.Max)
	}
	next := limit
	if amount < limit-state.Current {
		next = state.Current + amount
	}
	if next > state.Current {
		state.Current = next
	}
	if allowOverflow && state.Current > state.Max {
		state.OverflowExpiry = now.Add(time.Duration(durationMinutes) * time.Minute)
	}
	return clampOnWrite(state, now), nil
}

// ApplyRegenBoost replaces the regen multiplier for durationMinutes. Regen
// earned under the previous multiplier is settled first. Multipliers must be
// finite, non-negative, and no larger than MaxRegenMultiplier when that is set.
func (r Rules) ApplyRegenBoost(state State, multiplier float64, durationMinutes int, now time.Time) (State, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier < 0 {
		return State{}, ErrInvalidMultiplier
	}
	if r.MaxRegenMultiplier > 0 && multiplier > r.MaxRegenMultiplier {
		return State{}, ErrInvalidMultiplier
	}
	if durationMinutes <= 0 {
		return State{}, ErrInvalidDuration
	}
	state = r.settle(state, now)
	state.RegenMultiplier = multiplier
	state.RegenBoostExpiry = now.Add(time.Duration(durationMinutes) * time.Minute)
	return clampOnWrite(state, now), nil
}

// EnterRecoveryZone settles regen at the current rate and starts resting in
// zoneID. Entering a different zone moves the player.
func (r Rules) EnterRecoveryZone(state State, zoneID string, now time.Time) (State, error) {
	if zoneID == "" {
		return State{}, ErrRecoveryZoneRequired
	}
	state = r.settle(state, now)
	state.RecoveryZoneID = zoneID
	state.RecoveryZoneEntryTime = now
	return clampOnWrite(state, now), nil
}

// LeaveRecoveryZone settles regen earned in the zone and stops resting.
// Leaving while outside any zone only settles.
func (r Rules) LeaveRecoveryZone(state State, now time.Time) State {
	state = r.settle(state, now)
	state.RecoveryZoneID = ""
	state.RecoveryZoneEntryTime = time.Time{}
	return clampOnWrite(state, now)
}

// Rescale settles regen under the old maximum and then installs maxEnergy.
func (r Rules) Rescale(state State, maxEnergy int, now time.Time) State {
	if maxEnergy < 1 {
		maxEnergy = 1
	}
	state = r.settle(state, now)
	state.Max = maxEnergy
	return clampOnWrite(state, now)
}

// SetPassiveBonuses installs skill-derived bonuses and rescales max for level.
func (r Rules) SetPassiveBonuses(state State, level int, maxEnergyBonus, efficiencyBonus float64, now time.Time) (State, error) {
	if !validBonus(maxEnergyBonus) || !validBonus(efficiencyBonus) {
		return State{}, ErrInvalidBonus
	}
	state.PassiveMaxEnergyBonus = maxEnergyBonus
	state.PassiveEfficiencyBonus = efficiencyBonus
	return r.Rescale(state, r.MaxEnergy(level, maxEnergyBonus), now), nil
}

func validBonus(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
