package economy

import (
	"bytes"
	"context"
	"flag"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("economy", flag.ContinueOnError)
	t.Setenv("GUILDWORK_ECONOMY_PORT", "9199")
	t.Setenv("GUILDWORK_ECONOMY_AVERAGE_LEVEL_SCHEDULE", "@hourly")

	cfg, err := ParseConfig(fs, []string{"-conflict-retries", "5", "-mcp-stdio"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9199 {
		t.Fatalf("port = %d, want 9199", cfg.Port)
	}
	if cfg.AverageLevelSchedule != "@hourly" {
		t.Fatalf("average level schedule = %q, want @hourly", cfg.AverageLevelSchedule)
	}
	if cfg.ConflictRetries != 5 {
		t.Fatalf("conflict retries = %d, want 5", cfg.ConflictRetries)
	}
	if !cfg.MCPStdio {
		t.Fatal("expected mcp stdio enabled")
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("economy", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8092 || cfg.DBPath != "data/economy.db" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.SweepSchedule != "@every 5m" || cfg.AverageLevelSchedule != "" {
		t.Fatalf("schedules = %q %q", cfg.SweepSchedule, cfg.AverageLevelSchedule)
	}
	if cfg.ConflictBackoff != 10*time.Millisecond {
		t.Fatalf("conflict backoff = %v, want 10ms", cfg.ConflictBackoff)
	}
}

func TestParseConfig_RejectsBadEnv(t *testing.T) {
	fs := flag.NewFlagSet("economy", flag.ContinueOnError)
	t.Setenv("GUILDWORK_ECONOMY_CONFLICT_BACKOFF", "soon")
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestRunExportsLevelsToStdout(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), Config{ExportLevels: "-"}, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 101 {
		t.Fatalf("lines = %d, want header plus 100 levels", len(lines))
	}
	if lines[0] != "level,required_xp,cumulative_xp,max_energy,milestone" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[5] != "5,207,536,120,starter_toolkit" {
		t.Fatalf("level 5 row = %q", lines[5])
	}
}

func TestRunExportsLevelsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.csv")
	if err := Run(context.Background(), Config{ExportLevels: path}, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "level,required_xp") {
		t.Fatalf("export = %q", data)
	}
}

func TestRunProbeFailsWithoutServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	if err := listener.Close(); err != nil {
		t.Fatalf("release port: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := Run(ctx, Config{Port: port, Probe: true}, nil); err == nil {
		t.Fatal("expected probe error with nothing listening")
	}
}

func TestParseConfig_ProbeFlag(t *testing.T) {
	fs := flag.NewFlagSet("economy", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-probe", "-port", "9300"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if !cfg.Probe || cfg.Port != 9300 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestRunWritesEffectiveBalance(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "override.yaml")
	if err := os.WriteFile(override, []byte("energy:\n  base_max: 140\n"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	target := filepath.Join(dir, "effective.yaml")

	if err := Run(context.Background(), Config{BalancePath: override, WriteBalance: target}, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read effective balance: %v", err)
	}
	for _, want := range []string{"base_max: 140", "max_level: 100"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("effective balance missing %q:\n%s", want, data)
		}
	}
}
