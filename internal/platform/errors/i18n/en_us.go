package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodePlayerIDRequired        = "PLAYER_ID_REQUIRED"
	CodePlayerNotFound          = "PLAYER_NOT_FOUND"
	CodePlayerAlreadyExists     = "PLAYER_ALREADY_EXISTS"
	CodeEnergyInvalidAmount     = "ENERGY_INVALID_AMOUNT"
	CodeEnergyInsufficient      = "ENERGY_INSUFFICIENT"
	CodeEnergyInvalidMultiplier = "ENERGY_INVALID_MULTIPLIER"
	CodeEnergyInvalidDuration   = "ENERGY_INVALID_DURATION"
	CodeEnergyInvalidBonus      = "ENERGY_INVALID_BONUS"
	CodeRecoveryZoneRequired    = "RECOVERY_ZONE_REQUIRED"
	CodeXPInvalidAmount         = "XP_INVALID_AMOUNT"
	CodeXPInvalidMultiplier     = "XP_INVALID_MULTIPLIER"
	CodePrestigeBelowMin        = "PRESTIGE_BELOW_MINIMUM_LEVEL"
	CodeMilestoneNotFound       = "MILESTONE_NOT_FOUND"
	CodeMilestoneAlreadyClaimed = "MILESTONE_ALREADY_CLAIMED"
	CodeMultiplierEventInvalid  = "MULTIPLIER_EVENT_INVALID"
	CodeMultiplierEventNotFound = "MULTIPLIER_EVENT_NOT_FOUND"
	CodeAverageLevelInvalid     = "AVERAGE_LEVEL_INVALID"
	CodeConcurrencyConflict     = "CONCURRENCY_CONFLICT"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	entries: map[string]entry{
		unknownCode: {format: "Something went wrong. Please try again later."},

		// Player errors
		CodePlayerIDRequired:    {format: "A player is required for this action."},
		CodePlayerNotFound:      {format: "You have not started playing yet."},
		CodePlayerAlreadyExists: {format: "You are already registered."},

		// Energy errors
		CodeEnergyInvalidAmount:     {format: "Energy amount must be greater than zero."},
		CodeEnergyInsufficient:      {format: "Not enough energy: %d needed, %d available.", args: []string{"Required", "Available"}},
		CodeEnergyInvalidMultiplier: {format: "Regeneration multiplier is out of range."},
		CodeEnergyInvalidDuration:   {format: "Boost duration must be greater than zero."},
		CodeEnergyInvalidBonus:      {format: "Passive bonus must not be negative."},
		CodeRecoveryZoneRequired:    {format: "Choose a place to rest."},

		// Progression errors
		CodeXPInvalidAmount:     {format: "Experience amount is out of range."},
		CodeXPInvalidMultiplier: {format: "Experience multiplier must be greater than zero."},
		CodePrestigeBelowMin:    {format: "You need level %d to prestige (you are level %d).", args: []string{"MinimumLevel", "Level"}},

		// Milestone errors
		CodeMilestoneNotFound:       {format: "No milestone reward for level %d.", args: []string{"Level"}},
		CodeMilestoneAlreadyClaimed: {format: "The level %d reward was already claimed.", args: []string{"Level"}},

		// Multiplier event errors
		CodeMultiplierEventInvalid:  {format: "Bonus event is invalid: %s.", args: []string{"Reason"}},
		CodeMultiplierEventNotFound: {format: "Bonus event %s does not exist.", args: []string{"EventID"}},
		CodeAverageLevelInvalid:     {format: "Average level must not be negative."},

		// Storage errors
		CodeConcurrencyConflict: {format: "You are doing too many things at once. Please try again."},
	},
}
