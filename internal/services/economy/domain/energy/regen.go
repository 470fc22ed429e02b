package energy

import (
	"math"
	"time"
)

// Regenerated returns the whole points state earns between its last update
// and now, ignoring caps. Gains too large for an int saturate at math.MaxInt.
//
// A regen boost that expired inside the window only applies up to its
// expiry; the rest of the window runs at the base rate. The recovery zone
// multiplier applies to the whole window because zone changes always settle
// the ledger first.
func (r Rules) Regenerated(state State, now time.Time) int {
	return floorInt(r.regenGain(state, now))
}

// regenGain is the unfloored regeneration of the window. Non-finite or
// negative results count as no regeneration.
func (r Rules) regenGain(state State, now time.Time) float64 {
	if state.LastUpdate.IsZero() || !now.After(state.LastUpdate) {
		return 0
	}
	elapsed := now.Sub(state.LastUpdate)

	boosted := elapsed
	var unboosted time.Duration
	if !state.RegenBoostExpiry.IsZero() && state.RegenBoostExpiry.Before(now) {
		boosted = state.RegenBoostExpiry.Sub(state.LastUpdate)
		if boosted < 0 {
			boosted = 0
		}
		unboosted = elapsed - boosted
	}

	multiplier := math.Max(state.RegenMultiplier, 0)
	zone := 1.0
	if state.Recovering() {
		zone = r.RecoveryZoneMultiplier
	}

	minutes := boosted.Minutes()*multiplier + unboosted.Minutes()
	gain := minutes * r.BaseRegenPerMinute * zone
	if math.IsNaN(gain) || gain <= 0 {
		return 0
	}
	return gain
}
