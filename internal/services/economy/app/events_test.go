package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/guildwork/internal/services/economy/domain/progression"
)

func TestRegisterMultiplierEventValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input MultiplierEventInput
	}{
		{name: "zero multiplier", input: MultiplierEventInput{StartTime: testStart, EndTime: testStart.Add(time.Hour)}},
		{name: "missing window", input: MultiplierEventInput{Multiplier: 2}},
		{name: "reversed window", input: MultiplierEventInput{Multiplier: 2, StartTime: testStart, EndTime: testStart.Add(-time.Hour)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.service.RegisterMultiplierEvent(ctx, tc.input); !errors.Is(err, progression.ErrInvalidEvent) {
				t.Fatalf("expected ErrInvalidEvent, got %v", err)
			}
		})
	}
}

func TestMultiplierEventLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	past, err := f.service.RegisterMultiplierEvent(ctx, MultiplierEventInput{
		Multiplier: 2,
		StartTime:  testStart.Add(-3 * time.Hour),
		EndTime:    testStart.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("register past event: %v", err)
	}
	current, err := f.service.RegisterMultiplierEvent(ctx, MultiplierEventInput{
		Multiplier: 1.5,
		StartTime:  testStart.Add(-time.Hour),
		EndTime:    testStart.Add(time.Hour),
		UserScope:  []string{"p1"},
	})
	if err != nil {
		t.Fatalf("register current event: %v", err)
	}

	all, err := f.service.ListMultiplierEvents(ctx, false)
	if err != nil {
		t.Fatalf("ListMultiplierEvents(all) error = %v", err)
	}
	if len(all) != 2 || all[0].ID != past.ID {
		t.Fatalf("all = %+v", all)
	}
	active, err := f.service.ListMultiplierEvents(ctx, true)
	if err != nil {
		t.Fatalf("ListMultiplierEvents(active) error = %v", err)
	}
	if len(active) != 1 || active[0].ID != current.ID || active[0].UserScope[0] != "p1" {
		t.Fatalf("active = %+v", active)
	}

	removed, err := f.service.SweepExpiredMultiplierEvents(ctx)
	if err != nil {
		t.Fatalf("SweepExpiredMultiplierEvents() error = %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if err := f.service.RemoveMultiplierEvent(ctx, current.ID); err != nil {
		t.Fatalf("RemoveMultiplierEvent() error = %v", err)
	}
	if err := f.service.RemoveMultiplierEvent(ctx, current.ID); !errors.Is(err, ErrMultiplierEventNotFound) {
		t.Fatalf("expected ErrMultiplierEventNotFound, got %v", err)
	}
	if err := f.service.RemoveMultiplierEvent(ctx, "  "); !errors.Is(err, ErrMultiplierEventNotFound) {
		t.Fatalf("expected ErrMultiplierEventNotFound for blank id, got %v", err)
	}
}

func TestRegisterMultiplierEventIDFailure(t *testing.T) {
	f := newFixture(t, nil, WithIDGenerator(func() (string, error) {
		return "", errors.New("entropy exhausted")
	}))
	_, err := f.service.RegisterMultiplierEvent(context.Background(), MultiplierEventInput{
		Multiplier: 2,
		StartTime:  testStart,
		EndTime:    testStart.Add(time.Hour),
	})
	if err == nil {
		t.Fatal("expected id generation error")
	}
}

func TestRefreshAverageLevel(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, "p1")
	f.register(t, "p2")
	if _, err := f.service.GrantExperience(ctx, "p2", 220, ""); err != nil {
		t.Fatalf("GrantExperience() error = %v", err)
	}

	average, err := f.service.RefreshAverageLevel(ctx)
	if err != nil {
		t.Fatalf("RefreshAverageLevel() error = %v", err)
	}
	if average != 2 {
		t.Fatalf("average = %v, want 2", average)
	}
	stored, err := f.store.GetAverageLevel(ctx)
	if err != nil {
		t.Fatalf("GetAverageLevel() error = %v", err)
	}
	if stored != 2 {
		t.Fatalf("stored average = %v, want 2", stored)
	}
}
