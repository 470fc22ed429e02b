package app

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	if err := listener.Close(); err != nil {
		t.Fatalf("release port: %v", err)
	}
	return port
}

func TestRunServesHealthAndForeground(t *testing.T) {
	port := freePort(t)
	dbPath := filepath.Join(t.TempDir(), "nested", "economy.db")

	err := Run(context.Background(), RuntimeConfig{
		Port:   port,
		DBPath: dbPath,
		Foreground: func(ctx context.Context, service *Service) error {
			if _, err := service.RegisterPlayer(ctx, "p1"); err != nil {
				return err
			}
			conn, err := grpc.NewClient(net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return err
			}
			defer conn.Close()
			callCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			response, err := grpc_health_v1.NewHealthClient(conn).Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: "economy.runtime"})
			if err != nil {
				return err
			}
			if response.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
				return errors.New("economy runtime is not serving")
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database not created: %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, RuntimeConfig{
			Port:        freePort(t),
			DBPath:      filepath.Join(t.TempDir(), "economy.db"),
			Maintenance: MaintenanceSchedule{SweepExpiredEvents: "@every 1m"},
		})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	badBalance := filepath.Join(dir, "balance.yaml")
	if err := os.WriteFile(badBalance, []byte("energy:\n  base_max: -5\n"), 0o644); err != nil {
		t.Fatalf("write balance: %v", err)
	}

	tests := []struct {
		name string
		cfg  RuntimeConfig
	}{
		{name: "missing balance file", cfg: RuntimeConfig{DBPath: filepath.Join(dir, "a.db"), BalancePath: filepath.Join(dir, "missing.yaml")}},
		{name: "invalid balance", cfg: RuntimeConfig{DBPath: filepath.Join(dir, "b.db"), BalancePath: badBalance}},
		{name: "invalid schedule", cfg: RuntimeConfig{DBPath: filepath.Join(dir, "c.db"), Maintenance: MaintenanceSchedule{SweepExpiredEvents: "sometimes"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Port = freePort(t)
			if err := Run(context.Background(), tc.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRuntimeConfigDefaults(t *testing.T) {
	tests := []struct {
		name        string
		cfg         RuntimeConfig
		wantRetries int
		wantPort    int
	}{
		{name: "zero retries stay disabled", cfg: RuntimeConfig{ConflictRetries: 0}, wantRetries: 0, wantPort: defaultEconomyPort},
		{name: "negative retries use default", cfg: RuntimeConfig{ConflictRetries: -1}, wantRetries: defaultConflictRetries, wantPort: defaultEconomyPort},
		{name: "explicit values kept", cfg: RuntimeConfig{Port: 9100, ConflictRetries: 7}, wantRetries: 7, wantPort: 9100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.cfg.withDefaults()
			if got.ConflictRetries != tc.wantRetries {
				t.Fatalf("ConflictRetries = %d, want %d", got.ConflictRetries, tc.wantRetries)
			}
			if got.Port != tc.wantPort {
				t.Fatalf("Port = %d, want %d", got.Port, tc.wantPort)
			}
			if got.DBPath != defaultEconomyDB {
				t.Fatalf("DBPath = %q, want %q", got.DBPath, defaultEconomyDB)
			}
		})
	}
}
