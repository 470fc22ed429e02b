// Package grpc holds gRPC client helpers for guildwork commands.
package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	probeInitialInterval = 200 * time.Millisecond
	probeMaxInterval     = time.Second
	probeCallTimeout     = time.Second
)

// Probe connects to addr and waits until the health service reports service
// as SERVING or ctx ends.
func Probe(ctx context.Context, addr, service string, logf func(string, ...any)) error {
	conn, err := gogrpc.NewClient(
		addr,
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()
	return WaitForServing(ctx, conn, service, logf)
}

// WaitForServing polls the health service on conn with exponential backoff.
func WaitForServing(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	client := grpc_health_v1.NewHealthClient(conn)
	check := func() (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
		callCtx, cancel := context.WithTimeout(ctx, probeCallTimeout)
		defer cancel()
		response, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		if err != nil {
			logf("waiting for %q health: %v", service, err)
			return grpc_health_v1.HealthCheckResponse_UNKNOWN, err
		}
		status := response.GetStatus()
		if status != grpc_health_v1.HealthCheckResponse_SERVING {
			logf("waiting for %q health: status %s", service, status)
			return status, fmt.Errorf("status %s", status)
		}
		return status, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = probeInitialInterval
	policy.MaxInterval = probeMaxInterval
	if _, err := backoff.Retry(ctx, check, backoff.WithBackOff(policy)); err != nil {
		return fmt.Errorf("wait for gRPC health: %w", err)
	}
	logf("%q health is SERVING", service)
	return nil
}
