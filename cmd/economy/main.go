// Package main starts the economy service process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	economycmd "github.com/louisbranch/guildwork/internal/cmd/economy"
	entrypoint "github.com/louisbranch/guildwork/internal/platform/cmd"
)

func main() {
	entrypoint.ConfigureLogging(entrypoint.ServiceEconomy)
	cfg, err := economycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := economycmd.Run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("economy: %v", err)
	}
}
