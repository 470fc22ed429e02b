package progression

import (
	"fmt"
	"slices"
	"time"

	apperrors "github.com/louisbranch/guildwork/internal/platform/errors"
)

// MultiplierEvent is a time-boxed experience promotion. Empty scopes apply
// to everyone.
type MultiplierEvent struct {
	ID         string
	Multiplier float64
	StartTime  time.Time
	EndTime    time.Time
	UserScope  []string
	ZoneScope  []string
}

// Validate reports whether the event is well formed.
func (e MultiplierEvent) Validate() error {
	if !validMultiplier(e.Multiplier) {
		return invalidEvent("multiplier must be greater than zero")
	}
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return invalidEvent("start and end times are required")
	}
	if e.EndTime.Before(e.StartTime) {
		return invalidEvent("end time precedes start time")
	}
	return nil
}

func invalidEvent(reason string) error {
	return apperrors.WithMetadata(
		apperrors.CodeMultiplierEventInvalid,
		"multiplier event is invalid: "+reason,
		map[string]string{"Reason": reason},
	)
}

// ActiveAt reports whether now falls inside the event window, inclusive on
// both ends.
func (e MultiplierEvent) ActiveAt(now time.Time) bool {
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

// Covers reports whether the event scopes include the player and zone.
// A zone-scoped event never covers an action outside any zone.
func (e MultiplierEvent) Covers(playerID, zoneID string) bool {
	if len(e.UserScope) > 0 && !slices.Contains(e.UserScope, playerID) {
		return false
	}
	if len(e.ZoneScope) > 0 && (zoneID == "" || !slices.Contains(e.ZoneScope, zoneID)) {
		return false
	}
	return true
}

// ActiveEvents keeps the events whose window contains now.
func ActiveEvents(events []MultiplierEvent, now time.Time) []MultiplierEvent {
	active := make([]MultiplierEvent, 0, len(events))
	for _, e := range events {
		if e.ActiveAt(now) {
			active = append(active, e)
		}
	}
	return active
}

// Multipliers is the breakdown applied to one experience grant.
type Multipliers struct {
	Event   float64
	Catchup float64
	// EventID names the winning event, empty when none applied.
	EventID string
}

// Total is the combined multiplier.
func (m Multipliers) Total() float64 {
	return m.Event * m.Catchup
}

// Resolver combines promotion events with the catch-up bonus.
type Resolver struct {
	// MaxCatchup is the multiplier reached at CatchupThreshold levels behind.
	MaxCatchup float64
	// CatchupThreshold is the level deficit at which the bonus tops out.
	CatchupThreshold float64
}

// DefaultResolver returns the design defaults.
func DefaultResolver() Resolver {
	return Resolver{MaxCatchup: 1.5, CatchupThreshold: 5}
}

// Validate reports whether the resolver is usable.
func (r Resolver) Validate() error {
	if r.MaxCatchup < 1 {
		return fmt.Errorf("max catchup must be at least 1")
	}
	if r.CatchupThreshold <= 0 {
		return fmt.Errorf("catchup threshold must be greater than zero")
	}
	return nil
}

// Breakdown resolves the multipliers for one grant. Overlapping events do
// not stack: the highest applicable one wins. The winning event and the
// catch-up bonus multiply.
func (r Resolver) Breakdown(active []MultiplierEvent, playerLevel int, averageLevel float64, playerID, zoneID string) Multipliers {
	result := Multipliers{Event: 1, Catchup: r.Catchup(playerLevel, averageLevel)}
	for _, e := range active {
		if !e.Covers(playerID, zoneID) || !validMultiplier(e.Multiplier) {
			continue
		}
		if result.EventID == "" || e.Multiplier > result.Event {
			result.Event = e.Multiplier
			result.EventID = e.ID
		}
	}
	if result.EventID == "" {
		result.Event = 1
	}
	return result
}

// Resolve returns the combined multiplier for one grant.
func (r Resolver) Resolve(active []MultiplierEvent, playerLevel int, averageLevel float64, playerID, zoneID string) float64 {
	return r.Breakdown(active, playerLevel, averageLevel, playerID, zoneID).Total()
}

// Catchup interpolates from 1 to MaxCatchup as the player falls behind the
// server average, reaching the cap at CatchupThreshold levels.
func (r Resolver) Catchup(playerLevel int, averageLevel float64) float64 {
	deficit := averageLevel - float64(playerLevel)
	if averageLevel <= 0 || deficit <= 0 || r.CatchupThreshold <= 0 {
		return 1
	}
	ratio := deficit / r.CatchupThreshold
	if ratio > 1 {
		ratio = 1
	}
	return 1 + ratio*(r.MaxCatchup-1)
}
