// Package storage defines persistence contracts for economy service state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/guildwork/internal/services/economy/domain/energy"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/progression"
)

var (
	// ErrNotFound indicates a requested economy record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrVersionConflict indicates a player row changed since it was read.
	ErrVersionConflict = errors.New("record version conflict")
	// ErrAlreadyClaimed indicates a milestone reward was already claimed.
	ErrAlreadyClaimed = errors.New("milestone already claimed")
)

// PlayerRecord is one player's energy and progression ledgers.
type PlayerRecord struct {
	PlayerID    string
	Energy      energy.State
	Progression progression.State
	// Version increases by one on every successful update.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlayerUpdate replaces a player's ledgers if the stored version still
// matches ExpectedVersion. Milestones are recorded in the same transaction.
type PlayerUpdate struct {
	PlayerID        string
	ExpectedVersion int64
	Energy          energy.State
	Progression     progression.State
	Milestones      []MilestoneRecord
	UpdatedAt       time.Time
}

// MilestoneRecord is a one-time reward unlocked by reaching a level.
type MilestoneRecord struct {
	PlayerID   string
	Level      int
	RewardType string
	Claimed    bool
	CreatedAt  time.Time
	// ClaimedAt is zero until the reward is claimed.
	ClaimedAt time.Time
}

// PlayerStore persists player ledgers.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, record PlayerRecord) error
	GetPlayer(ctx context.Context, playerID string) (PlayerRecord, error)
	// UpdatePlayer applies update and returns the milestones it created.
	// Milestones already recorded for the player are skipped silently.
	UpdatePlayer(ctx context.Context, update PlayerUpdate) (PlayerRecord, []MilestoneRecord, error)
	// AverageLevel is the mean level across registered players, 0 when none.
	AverageLevel(ctx context.Context) (float64, error)
}

// MilestoneStore reads and claims recorded milestones.
type MilestoneStore interface {
	ListMilestones(ctx context.Context, playerID string) ([]MilestoneRecord, error)
	ClaimMilestone(ctx context.Context, playerID string, level int, claimedAt time.Time) (MilestoneRecord, error)
}

// MultiplierEventStore persists experience promotions.
type MultiplierEventStore interface {
	PutMultiplierEvent(ctx context.Context, event progression.MultiplierEvent) error
	DeleteMultiplierEvent(ctx context.Context, id string) error
	ListActiveMultiplierEvents(ctx context.Context, now time.Time) ([]progression.MultiplierEvent, error)
	ListMultiplierEvents(ctx context.Context) ([]progression.MultiplierEvent, error)
	// DeleteExpiredMultiplierEvents removes events that ended before now.
	DeleteExpiredMultiplierEvents(ctx context.Context, now time.Time) (int, error)
}

// ServerStatsStore persists server-wide figures fed by analytics jobs.
type ServerStatsStore interface {
	PutAverageLevel(ctx context.Context, averageLevel float64, updatedAt time.Time) error
	// GetAverageLevel returns 0 when no figure was published yet.
	GetAverageLevel(ctx context.Context) (float64, error)
}

// Store is the full economy persistence surface.
type Store interface {
	PlayerStore
	MilestoneStore
	MultiplierEventStore
	ServerStatsStore
}
