// Package economy parses economy command flags and launches the economy
// runtime.
package economy

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/guildwork/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/guildwork/internal/platform/grpc"
	"github.com/louisbranch/guildwork/internal/platform/timeouts"
	economyapp "github.com/louisbranch/guildwork/internal/services/economy/app"
	"github.com/louisbranch/guildwork/internal/services/economy/balance"
	"github.com/louisbranch/guildwork/internal/services/economy/tools"
)

// Config holds economy command configuration.
type Config struct {
	Port                 int           `env:"PORT" envDefault:"8092"`
	DBPath               string        `env:"DB_PATH" envDefault:"data/economy.db"`
	BalancePath          string        `env:"BALANCE_PATH"`
	ConflictRetries      int           `env:"CONFLICT_RETRIES" envDefault:"3"`
	ConflictBackoff      time.Duration `env:"CONFLICT_BACKOFF" envDefault:"10ms"`
	SweepSchedule        string        `env:"SWEEP_SCHEDULE" envDefault:"@every 5m"`
	AverageLevelSchedule string        `env:"AVERAGE_LEVEL_SCHEDULE"`
	MCPStdio             bool          `env:"MCP_STDIO"`
	// Probe checks a running economy process on Port and exits.
	Probe bool
	// ExportLevels writes the level table as CSV to this path ("-" for
	// stdout) and exits without starting the service.
	ExportLevels string
	// WriteBalance writes the effective balance constants as YAML to this
	// path and exits.
	WriteBalance string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.Load(entrypoint.ServiceEconomy, &cfg, fs, args, bindFlags); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The economy health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The economy SQLite database path")
	fs.StringVar(&cfg.BalancePath, "balance", cfg.BalancePath, "YAML file overriding the embedded balance constants")
	fs.IntVar(&cfg.ConflictRetries, "conflict-retries", cfg.ConflictRetries, "Retries for writes that lose a version race (0 disables)")
	fs.DurationVar(&cfg.ConflictBackoff, "conflict-backoff", cfg.ConflictBackoff, "First delay between conflict retries")
	fs.StringVar(&cfg.SweepSchedule, "sweep-schedule", cfg.SweepSchedule, "Cron spec for deleting expired multiplier events (empty disables)")
	fs.StringVar(&cfg.AverageLevelSchedule, "average-level-schedule", cfg.AverageLevelSchedule, "Cron spec for recomputing the server average level (empty disables)")
	fs.BoolVar(&cfg.MCPStdio, "mcp-stdio", cfg.MCPStdio, "Serve economy tools over MCP on stdio")
	fs.BoolVar(&cfg.Probe, "probe", cfg.Probe, "Check that the economy service on -port is serving and exit")
	fs.StringVar(&cfg.ExportLevels, "export-levels", cfg.ExportLevels, "Write the level table as CSV to this path (- for stdout) and exit")
	fs.StringVar(&cfg.WriteBalance, "write-balance", cfg.WriteBalance, "Write the effective balance constants as YAML to this path and exit")
}

// Run starts the economy runtime. Export and probe modes run once and return
// without starting it.
func Run(ctx context.Context, cfg Config, stdout io.Writer) error {
	if strings.TrimSpace(cfg.ExportLevels) != "" {
		return exportLevels(cfg, stdout)
	}
	if target := strings.TrimSpace(cfg.WriteBalance); target != "" {
		rules, err := balance.Load(strings.TrimSpace(cfg.BalancePath))
		if err != nil {
			return fmt.Errorf("load balance: %w", err)
		}
		return rules.WriteYAML(target)
	}
	if cfg.Probe {
		return probe(ctx, cfg.Port)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceEconomy, func(ctx context.Context) error {
		runtime := economyapp.RuntimeConfig{
			Port:            cfg.Port,
			DBPath:          cfg.DBPath,
			BalancePath:     cfg.BalancePath,
			ConflictRetries: cfg.ConflictRetries,
			ConflictBackoff: cfg.ConflictBackoff,
			Maintenance: economyapp.MaintenanceSchedule{
				SweepExpiredEvents:  cfg.SweepSchedule,
				RefreshAverageLevel: cfg.AverageLevelSchedule,
			},
		}
		if cfg.MCPStdio {
			runtime.Foreground = serveTools
		}
		return economyapp.Run(ctx, runtime)
	})
}

func serveTools(ctx context.Context, service *economyapp.Service) error {
	server, err := tools.New(service)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

func probe(ctx context.Context, port int) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.HealthProbe)
	defer cancel()
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	if err := platformgrpc.Probe(ctx, addr, economyapp.HealthService, log.Printf); err != nil {
		return fmt.Errorf("probe %s: %w", addr, err)
	}
	return nil
}

func exportLevels(cfg Config, stdout io.Writer) (err error) {
	rules, err := balance.Load(strings.TrimSpace(cfg.BalancePath))
	if err != nil {
		return fmt.Errorf("load balance: %w", err)
	}
	target := strings.TrimSpace(cfg.ExportLevels)
	if target == "-" {
		return rules.ExportLevelTable(stdout)
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create level export: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close level export: %w", closeErr)
		}
	}()
	return rules.ExportLevelTable(file)
}
