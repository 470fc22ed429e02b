package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"
)

// maintenanceJobs is the slice of the service the scheduler drives.
type maintenanceJobs interface {
	SweepExpiredMultiplierEvents(ctx context.Context) (int, error)
	RefreshAverageLevel(ctx context.Context) (float64, error)
}

// MaintenanceSchedule holds cron specs for background upkeep. An empty spec
// disables that job.
type MaintenanceSchedule struct {
	// SweepExpiredEvents removes closed multiplier events.
	SweepExpiredEvents string
	// RefreshAverageLevel recomputes the catch-up reference level from the
	// player table. Leave empty when an external feed calls SetAverageLevel.
	RefreshAverageLevel string
}

// Maintenance runs scheduled upkeep jobs against the service.
type Maintenance struct {
	cron *cron.Cron
	jobs maintenanceJobs
	ctx  context.Context
}

// NewMaintenance validates schedule and registers its jobs. Jobs run with ctx
// until Stop is called.
func NewMaintenance(ctx context.Context, jobs maintenanceJobs, schedule MaintenanceSchedule) (*Maintenance, error) {
	if jobs == nil {
		return nil, fmt.Errorf("maintenance jobs are required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cron.PrintfLogger(log.Default())
	m := &Maintenance{
		cron: cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		jobs: jobs,
		ctx:  ctx,
	}
	if err := m.add("sweep expired events", schedule.SweepExpiredEvents, m.sweep); err != nil {
		return nil, err
	}
	if err := m.add("refresh average level", schedule.RefreshAverageLevel, m.refreshAverageLevel); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Maintenance) add(name, spec string, job func()) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}
	if _, err := m.cron.AddFunc(spec, job); err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	log.Printf("scheduled %s at %q", name, spec)
	return nil
}

// Jobs reports how many jobs are scheduled.
func (m *Maintenance) Jobs() int {
	return len(m.cron.Entries())
}

// Start begins running jobs in the background.
func (m *Maintenance) Start() {
	m.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish or ctx to end.
func (m *Maintenance) Stop(ctx context.Context) {
	done := m.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Printf("maintenance stop: %v", ctx.Err())
	}
}

func (m *Maintenance) sweep() {
	removed, err := m.jobs.SweepExpiredMultiplierEvents(m.ctx)
	if err != nil {
		log.Printf("sweep expired multiplier events: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("swept %d expired multiplier events", removed)
	}
}

func (m *Maintenance) refreshAverageLevel() {
	average, err := m.jobs.RefreshAverageLevel(m.ctx)
	if err != nil {
		log.Printf("refresh average level: %v", err)
		return
	}
	log.Printf("average level refreshed to %.2f", average)
}
