package energy

import "time"

// OverflowCap is the highest balance a boost may reach above max.
func (r Rules) OverflowCap(maxEnergy int) int {
	return floorInt(float64(maxEnergy) * (1 + r.OverflowPct))
}

// EffectiveCap is the ceiling regeneration may fill up to at now.
//
// An open overflow window raises the ceiling to the overflow cap. A balance
// already above the ceiling becomes the ceiling itself, so reads never take
// energy away.
func (r Rules) EffectiveCap(state State, now time.Time) int {
	limit := state.Max
	if state.OverflowActive(now) {
		limit = r.OverflowCap(state.Max)
	}
	if state.Current > limit {
		return state.Current
	}
	return limit
}

// clampOnWrite trims a stale overflow once its window has closed.
func clampOnWrite(state State, now time.Time) State {
	if state.OverflowActive(now) {
		return state
	}
	state.OverflowExpiry = time.Time{}
	if state.Current > state.Max {
		state.Current = state.Max
	}
	return state
}
