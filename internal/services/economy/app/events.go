package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	apperrors "github.com/louisbranch/guildwork/internal/platform/errors"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/progression"
	"github.com/louisbranch/guildwork/internal/services/economy/storage"
	"go.opentelemetry.io/otel/attribute"
)

// MultiplierEventInput describes a new experience promotion.
type MultiplierEventInput struct {
	Multiplier float64
	StartTime  time.Time
	EndTime    time.Time
	UserScope  []string
	ZoneScope  []string
}

// RegisterMultiplierEvent stores a promotion and returns it with its id.
func (s *Service) RegisterMultiplierEvent(ctx context.Context, input MultiplierEventInput) (_ progression.MultiplierEvent, err error) {
	ctx, span := s.startSpan(ctx, "RegisterMultiplierEvent", attribute.Float64("event.multiplier", input.Multiplier))
	defer func() { endSpan(span, err) }()
	if err := s.ready(); err != nil {
		return progression.MultiplierEvent{}, err
	}

	event := progression.MultiplierEvent{
		Multiplier: input.Multiplier,
		StartTime:  input.StartTime.UTC(),
		EndTime:    input.EndTime.UTC(),
		UserScope:  cleanScope(input.UserScope),
		ZoneScope:  cleanScope(input.ZoneScope),
	}
	if err := event.Validate(); err != nil {
		return progression.MultiplierEvent{}, err
	}
	event.ID, err = s.newID()
	if err != nil {
		return progression.MultiplierEvent{}, fmt.Errorf("multiplier event id: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	if err := s.store.PutMultiplierEvent(ctx, event); err != nil {
		return progression.MultiplierEvent{}, mapStoreError(err)
	}
	span.SetAttributes(attribute.String("event.id", event.ID))
	log.Printf("multiplier event %s registered: x%.2f from %s to %s", event.ID, event.Multiplier, event.StartTime.Format(time.RFC3339), event.EndTime.Format(time.RFC3339))
	return event, nil
}

// RemoveMultiplierEvent deletes a promotion.
func (s *Service) RemoveMultiplierEvent(ctx context.Context, eventID string) (err error) {
	eventID = strings.TrimSpace(eventID)
	ctx, span := s.startSpan(ctx, "RemoveMultiplierEvent", attribute.String("event.id", eventID))
	defer func() { endSpan(span, err) }()
	if err := s.ready(); err != nil {
		return err
	}
	if eventID == "" {
		return eventNotFound(eventID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	if err := s.store.DeleteMultiplierEvent(ctx, eventID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return eventNotFound(eventID)
		}
		return mapStoreError(err)
	}
	log.Printf("multiplier event %s removed", eventID)
	return nil
}

// ListMultiplierEvents lists stored promotions, or only those running now
// when activeOnly is set.
func (s *Service) ListMultiplierEvents(ctx context.Context, activeOnly bool) (_ []progression.MultiplierEvent, err error) {
	ctx, span := s.startSpan(ctx, "ListMultiplierEvents", attribute.Bool("event.active_only", activeOnly))
	defer func() { endSpan(span, err) }()
	if err := s.ready(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	if activeOnly {
		return s.store.ListActiveMultiplierEvents(ctx, s.now())
	}
	return s.store.ListMultiplierEvents(ctx)
}

// SweepExpiredMultiplierEvents deletes promotions whose window has closed.
func (s *Service) SweepExpiredMultiplierEvents(ctx context.Context) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "SweepExpiredMultiplierEvents")
	defer func() { endSpan(span, err) }()
	if err := s.ready(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	removed, err := s.store.DeleteExpiredMultiplierEvents(ctx, s.now())
	if err != nil {
		return 0, mapStoreError(err)
	}
	span.SetAttributes(attribute.Int("event.removed", removed))
	return removed, nil
}

// SetAverageLevel publishes the server average level used by the catch-up
// bonus.
func (s *Service) SetAverageLevel(ctx context.Context, averageLevel float64) (err error) {
	ctx, span := s.startSpan(ctx, "SetAverageLevel", attribute.Float64("server.average_level", averageLevel))
	defer func() { endSpan(span, err) }()
	if err := s.ready(); err != nil {
		return err
	}
	if !validAverageLevel(averageLevel) {
		return ErrAverageLevelInvalid
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	if err := s.store.PutAverageLevel(ctx, averageLevel, s.now()); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// RefreshAverageLevel recomputes the average from registered players and
// publishes it.
func (s *Service) RefreshAverageLevel(ctx context.Context) (_ float64, err error) {
	ctx, span := s.startSpan(ctx, "RefreshAverageLevel")
	defer func() { endSpan(span, err) }()
	if err := s.ready(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()
	averageLevel, err := s.store.AverageLevel(ctx)
	if err != nil {
		return 0, mapStoreError(err)
	}
	if err := s.store.PutAverageLevel(ctx, averageLevel, s.now()); err != nil {
		return 0, mapStoreError(err)
	}
	span.SetAttributes(attribute.Float64("server.average_level", averageLevel))
	return averageLevel, nil
}

func eventNotFound(eventID string) error {
	return apperrors.WithMetadata(
		ErrMultiplierEventNotFound.Code,
		ErrMultiplierEventNotFound.Message,
		map[string]string{"EventID": eventID},
	)
}

func cleanScope(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	cleaned := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, raw := range ids {
		value := strings.TrimSpace(raw)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		cleaned = append(cleaned, value)
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

func validAverageLevel(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
