// Package cmd holds startup helpers shared by guildwork commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/guildwork/internal/platform/config"
	"github.com/louisbranch/guildwork/internal/platform/otel"
)

// ServiceEconomy names the economy process in logs, env keys, and traces.
const ServiceEconomy = "economy"

const telemetryFlushTimeout = 5 * time.Second

// LogPrefix returns the bracketed log prefix used by a service, e.g. "[ECONOMY] ".
func LogPrefix(service string) string {
	service = strings.TrimSpace(service)
	if service == "" {
		return ""
	}
	return "[" + strings.ToUpper(service) + "] "
}

// EnvPrefix returns the environment variable prefix of a service, e.g.
// "GUILDWORK_ECONOMY_".
func EnvPrefix(service string) string {
	return "GUILDWORK_" + strings.ToUpper(strings.TrimSpace(service)) + "_"
}

// ConfigureLogging applies the service log prefix and UTC timestamps to the
// standard logger.
func ConfigureLogging(service string) {
	log.SetPrefix(LogPrefix(service))
	log.SetFlags(log.LstdFlags | log.LUTC)
}

// Load fills cfg from the service's prefixed environment and then lets
// register bind flags over those values before parsing args.
func Load[T any](service string, cfg *T, fs *flag.FlagSet, args []string, register func(*flag.FlagSet, *T)) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if err := config.ParseEnvWithPrefix(cfg, EnvPrefix(service)); err != nil {
		return err
	}
	if register != nil {
		register(fs, cfg)
	}
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}

// RunWithTelemetry installs tracing for service, runs fn, and flushes spans
// once fn returns.
func RunWithTelemetry(ctx context.Context, service string, fn func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if fn == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	flush, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := flush(flushCtx); err != nil {
			log.Printf("flush telemetry: %v", err)
		}
	}()
	return fn(ctx)
}
