package balance

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/progression"
)

// LevelRow is one line of the level table handed to designers.
type LevelRow struct {
	Level        int    `csv:"level"`
	RequiredXP   string `csv:"required_xp"`
	CumulativeXP int64  `csv:"cumulative_xp"`
	MaxEnergy    int    `csv:"max_energy"`
	Milestone    string `csv:"milestone"`
}

// LevelTable tabulates every level of the configured curve.
func (c *Config) LevelTable() []LevelRow {
	energyRules := c.EnergyRules()
	rules := c.ProgressionRules()
	curve := rules.Curve

	rows := make([]LevelRow, 0, curve.MaxLevel)
	for level := 1; level <= curve.MaxLevel; level++ {
		required := "max"
		if xp := curve.RequiredXP(level); xp != progression.Infinite {
			required = fmt.Sprintf("%d", xp)
		}
		rows = append(rows, LevelRow{
			Level:        level,
			RequiredXP:   required,
			CumulativeXP: curve.CumulativeXPForLevel(level),
			MaxEnergy:    energyRules.MaxEnergy(level, 0),
			Milestone:    rules.Milestones[level],
		})
	}
	return rows
}

// ExportLevelTable writes the level table as CSV with a header row.
func (c *Config) ExportLevelTable(w io.Writer) error {
	rows := c.LevelTable()
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing level table: %w", err)
	}
	return nil
}
