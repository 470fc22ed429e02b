// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Player errors
	CodePlayerIDRequired    Code = "PLAYER_ID_REQUIRED"
	CodePlayerNotFound      Code = "PLAYER_NOT_FOUND"
	CodePlayerAlreadyExists Code = "PLAYER_ALREADY_EXISTS"

	// Energy errors
	CodeEnergyInvalidAmount     Code = "ENERGY_INVALID_AMOUNT"
	CodeEnergyInsufficient      Code = "ENERGY_INSUFFICIENT"
	CodeEnergyInvalidMultiplier Code = "ENERGY_INVALID_MULTIPLIER"
	CodeEnergyInvalidDuration   Code = "ENERGY_INVALID_DURATION"
	CodeEnergyInvalidBonus      Code = "ENERGY_INVALID_BONUS"
	CodeRecoveryZoneRequired    Code = "RECOVERY_ZONE_REQUIRED"

	// Progression errors
	CodeXPInvalidAmount     Code = "XP_INVALID_AMOUNT"
	CodeXPInvalidMultiplier Code = "XP_INVALID_MULTIPLIER"
	CodePrestigeBelowMin    Code = "PRESTIGE_BELOW_MINIMUM_LEVEL"

	// Milestone errors
	CodeMilestoneNotFound       Code = "MILESTONE_NOT_FOUND"
	CodeMilestoneAlreadyClaimed Code = "MILESTONE_ALREADY_CLAIMED"

	// Multiplier event errors
	CodeMultiplierEventInvalid  Code = "MULTIPLIER_EVENT_INVALID"
	CodeMultiplierEventNotFound Code = "MULTIPLIER_EVENT_NOT_FOUND"
	CodeAverageLevelInvalid     Code = "AVERAGE_LEVEL_INVALID"

	// Storage errors
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodePlayerIDRequired,
		CodeEnergyInvalidAmount,
		CodeEnergyInvalidMultiplier,
		CodeEnergyInvalidDuration,
		CodeEnergyInvalidBonus,
		CodeRecoveryZoneRequired,
		CodeXPInvalidAmount,
		CodeXPInvalidMultiplier,
		CodeMultiplierEventInvalid,
		CodeAverageLevelInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeEnergyInsufficient,
		CodePrestigeBelowMin,
		CodeMilestoneAlreadyClaimed:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodePlayerNotFound,
		CodeMilestoneNotFound,
		CodeMultiplierEventNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodePlayerAlreadyExists:
		return codes.AlreadyExists

	// Aborted - optimistic write lost a race and may be retried
	case CodeConcurrencyConflict:
		return codes.Aborted

	default:
		return codes.Internal
	}
}

// Retryable reports whether an operation failing with this code may succeed
// when repeated unchanged.
func (c Code) Retryable() bool {
	return c == CodeConcurrencyConflict
}
