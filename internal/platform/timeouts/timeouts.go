// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// StoreOperation caps a single persistence round trip made on behalf of a
// player action. A timed-out write is never treated as applied.
const StoreOperation = 3 * time.Second

// ConflictBackoff is the initial wait before retrying an optimistic write
// that lost a version race.
const ConflictBackoff = 10 * time.Millisecond

// Shutdown limits how long a server waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// HealthProbe bounds a command-line health probe against a running service.
const HealthProbe = 5 * time.Second
