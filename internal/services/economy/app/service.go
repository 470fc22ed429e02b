// Package app wires the economy ledgers to persistence and runs the economy
// process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	apperrors "github.com/louisbranch/guildwork/internal/platform/errors"
	"github.com/louisbranch/guildwork/internal/platform/id"
	"github.com/louisbranch/guildwork/internal/platform/timeouts"
	"github.com/louisbranch/guildwork/internal/services/economy/balance"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/energy"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/progression"
	"github.com/louisbranch/guildwork/internal/services/economy/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/guildwork/internal/services/economy/app"

var (
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("economy store is not configured")
	// ErrPlayerIDRequired indicates a blank player id.
	ErrPlayerIDRequired = apperrors.New(apperrors.CodePlayerIDRequired, "player id is required")
	// ErrPlayerNotFound indicates the player was never registered.
	ErrPlayerNotFound = apperrors.New(apperrors.CodePlayerNotFound, "player not found")
	// ErrPlayerAlreadyExists indicates a duplicate registration.
	ErrPlayerAlreadyExists = apperrors.New(apperrors.CodePlayerAlreadyExists, "player already registered")
	// ErrMilestoneNotFound indicates the player never reached the milestone.
	ErrMilestoneNotFound = apperrors.New(apperrors.CodeMilestoneNotFound, "milestone not found")
	// ErrMilestoneAlreadyClaimed indicates the reward was already collected.
	ErrMilestoneAlreadyClaimed = apperrors.New(apperrors.CodeMilestoneAlreadyClaimed, "milestone already claimed")
	// ErrMultiplierEventNotFound indicates an unknown event id.
	ErrMultiplierEventNotFound = apperrors.New(apperrors.CodeMultiplierEventNotFound, "multiplier event not found")
	// ErrAverageLevelInvalid indicates a negative or non-finite average level.
	ErrAverageLevelInvalid = apperrors.New(apperrors.CodeAverageLevelInvalid, "average level must be a non-negative number")
	// ErrConcurrencyConflict indicates every retry of a write lost its version race.
	ErrConcurrencyConflict = apperrors.New(apperrors.CodeConcurrencyConflict, "player was modified concurrently")
)

// Config tunes the service orchestration.
type Config struct {
	// ConflictRetries is how many times a write that lost a version race is
	// repeated before ErrConcurrencyConflict is returned.
	ConflictRetries int
	// ConflictBackoff is the first delay between conflict retries.
	ConflictBackoff time.Duration
	// OperationTimeout bounds one action including retries.
	OperationTimeout time.Duration
}

const defaultConflictRetries = 3

func (c Config) normalized() Config {
	if c.ConflictRetries < 0 {
		c.ConflictRetries = 0
	}
	if c.ConflictBackoff <= 0 {
		c.ConflictBackoff = timeouts.ConflictBackoff
	}
	if c.OperationTimeout <= 0 {
		c.OperationTimeout = timeouts.StoreOperation
	}
	return c
}

// DefaultConfig returns the production orchestration settings.
func DefaultConfig() Config {
	return Config{ConflictRetries: defaultConflictRetries}.normalized()
}

// Service exposes the energy and progression ledgers to game features.
// Writes for one player are serialized in-process and guarded by a version
// compare-and-set in storage, so concurrent actions never spend the same
// energy twice.
type Service struct {
	store            storage.Store
	energyRules      energy.Rules
	progressionRules progression.Rules
	rewards          RewardSink
	cfg              Config
	clock            func() time.Time
	newID            func() (string, error)
	locks            *playerLocks
	tracer           trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides multiplier event id generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithRewardSink receives newly unlocked milestones.
func WithRewardSink(sink RewardSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.rewards = sink
		}
	}
}

// WithConfig overrides orchestration settings.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg.normalized()
	}
}

// NewService constructs the economy use-cases over store using the rules in
// rules, or the embedded defaults when rules is nil.
func NewService(store storage.Store, rules *balance.Config, opts ...Option) *Service {
	if rules == nil {
		rules = balance.Default()
	}
	s := &Service{
		store:            store,
		energyRules:      rules.EnergyRules(),
		progressionRules: rules.ProgressionRules(),
		rewards:          LogRewardSink{},
		cfg:              DefaultConfig(),
		clock:            time.Now,
		newID:            id.NewID,
		locks:            newPlayerLocks(),
		tracer:           otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func (s *Service) ready() error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	return nil
}

func normalizePlayerID(playerID string) (string, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return "", ErrPlayerIDRequired
	}
	return playerID, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "economy."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(apperrors.GetCode(err)))
	}
	span.End()
}

// playerChange is the write a mutation wants to persist.
type playerChange struct {
	energy      energy.State
	progression progression.State
	milestones  []storage.MilestoneRecord
}

// mutation derives a change from the stored record at now.
type mutation func(ctx context.Context, record storage.PlayerRecord, now time.Time) (playerChange, error)

type mutationResult struct {
	record  storage.PlayerRecord
	created []storage.MilestoneRecord
}

// mutate runs one read-modify-write for a player. The player lock covers the
// whole cycle; a version conflict from another process re-runs the cycle
// against fresh state.
func (s *Service) mutate(ctx context.Context, playerID string, fn mutation) (storage.PlayerRecord, []storage.MilestoneRecord, error) {
	if err := s.ready(); err != nil {
		return storage.PlayerRecord{}, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	unlock := s.locks.lock(playerID)
	defer unlock()

	attempt := 0
	operation := func() (mutationResult, error) {
		attempt++
		record, err := s.store.GetPlayer(ctx, playerID)
		if err != nil {
			return mutationResult{}, backoff.Permanent(mapStoreError(err))
		}
		now := s.now()
		change, err := fn(ctx, record, now)
		if err != nil {
			return mutationResult{}, backoff.Permanent(err)
		}
		updated, created, err := s.store.UpdatePlayer(ctx, storage.PlayerUpdate{
			PlayerID:        record.PlayerID,
			ExpectedVersion: record.Version,
			Energy:          change.energy,
			Progression:     change.progression,
			Milestones:      change.milestones,
			UpdatedAt:       now,
		})
		if err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				log.Printf("player %s version %d conflict on attempt %d", playerID, record.Version, attempt)
				return mutationResult{}, ErrConcurrencyConflict
			}
			return mutationResult{}, backoff.Permanent(mapStoreError(err))
		}
		return mutationResult{record: updated, created: created}, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.ConflictBackoff
	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.cfg.ConflictRetries+1)),
	)
	if err != nil {
		return storage.PlayerRecord{}, nil, err
	}

	s.deliverRewards(ctx, result.created)
	return result.record, result.created, nil
}

func (s *Service) loadPlayer(ctx context.Context, playerID string) (storage.PlayerRecord, error) {
	if err := s.ready(); err != nil {
		return storage.PlayerRecord{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	record, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return storage.PlayerRecord{}, mapStoreError(err)
	}
	return record, nil
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrPlayerAlreadyExists
	case errors.Is(err, storage.ErrVersionConflict):
		return ErrConcurrencyConflict
	default:
		return fmt.Errorf("economy store: %w", err)
	}
}

// RegisterPlayer creates a player with full energy at level 1.
func (s *Service) RegisterPlayer(ctx context.Context, playerID string) (_ storage.PlayerRecord, err error) {
	playerID, err = normalizePlayerID(playerID)
	if err != nil {
		return storage.PlayerRecord{}, err
	}
	ctx, span := s.startSpan(ctx, "RegisterPlayer", attribute.String("player.id", playerID))
	defer func() { endSpan(span, err) }()
	if err := s.ready(); err != nil {
		return storage.PlayerRecord{}, err
	}

	now := s.now()
	record := storage.PlayerRecord{
		PlayerID:    playerID,
		Energy:      s.energyRules.NewState(1, now),
		Progression: progression.NewState(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	if err := s.store.CreatePlayer(ctx, record); err != nil {
		return storage.PlayerRecord{}, mapStoreError(err)
	}
	record.Version = 1
	log.Printf("player %s registered", playerID)
	return record, nil
}
