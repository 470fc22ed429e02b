package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/guildwork/internal/platform/timeouts"
	"github.com/louisbranch/guildwork/internal/services/economy/balance"
	economysqlite "github.com/louisbranch/guildwork/internal/services/economy/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// RuntimeConfig controls economy startup and background upkeep.
type RuntimeConfig struct {
	Port            int
	DBPath          string
	BalancePath     string
	// ConflictRetries bounds retries of writes that lose a version race.
	// Zero disables retries; negative values select the default.
	ConflictRetries int
	ConflictBackoff time.Duration
	Maintenance     MaintenanceSchedule
	// Foreground, when set, runs in place of waiting for ctx once the
	// service is ready. Returning ends the process.
	Foreground func(ctx context.Context, service *Service) error
}

// HealthService is the health check name reported while the runtime serves.
const HealthService = "economy.runtime"

const (
	defaultEconomyPort = 8092
	defaultEconomyDB   = "data/economy.db"
)

func (cfg RuntimeConfig) withDefaults() RuntimeConfig {
	if cfg.Port <= 0 {
		cfg.Port = defaultEconomyPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultEconomyDB
	}
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = defaultConflictRetries
	}
	return cfg
}

// Run opens storage, starts the health server and maintenance jobs, and
// blocks until ctx ends or the foreground runner returns.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.withDefaults()

	rules, err := balance.Load(strings.TrimSpace(cfg.BalancePath))
	if err != nil {
		return fmt.Errorf("load balance: %w", err)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create economy storage dir: %w", err)
		}
	}
	store, err := economysqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open economy sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close economy sqlite store: %v", closeErr)
		}
	}()

	service := NewService(store, rules, WithConfig(Config{
		ConflictRetries: cfg.ConflictRetries,
		ConflictBackoff: cfg.ConflictBackoff,
	}))

	maintenance, err := NewMaintenance(ctx, service, cfg.Maintenance)
	if err != nil {
		return err
	}
	maintenance.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		maintenance.Stop(stopCtx)
	}()

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on economy port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	log.Printf("economy server listening at %v", listener.Addr())
	if cfg.Foreground != nil {
		return cfg.Foreground(ctx, service)
	}
	<-ctx.Done()
	return nil
}
