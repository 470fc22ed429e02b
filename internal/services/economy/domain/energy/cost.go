package energy

// EfficiencyCost discounts baseCost by efficiencyBonus. The bonus is clamped
// to [0, MaxEfficiencyBonus] and the result is never below 1.
func (r Rules) EfficiencyCost(baseCost int, efficiencyBonus float64) int {
	if efficiencyBonus > r.MaxEfficiencyBonus {
		efficiencyBonus = r.MaxEfficiencyBonus
	}
	if efficiencyBonus < 0 {
		efficiencyBonus = 0
	}
	cost := floorInt(float64(baseCost) * (1 - efficiencyBonus))
	if cost < 1 {
		return 1
	}
	return cost
}

// MaxEnergy derives the normal maximum for a level and passive bonus.
func (r Rules) MaxEnergy(level int, passiveMaxEnergyBonus float64) int {
	if level < 1 {
		level = 1
	}
	base := r.BaseMax + r.MaxPerLevel*(level-1)
	maxEnergy := floorInt(float64(base) * (1 + passiveMaxEnergyBonus))
	if maxEnergy < 1 {
		return 1
	}
	return maxEnergy
}
