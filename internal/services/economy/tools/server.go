package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "guildwork economy"
	serverVersion = "0.1.0"
)

// Server serves the economy tools over MCP.
type Server struct {
	mcpServer *mcp.Server
}

// New builds an MCP server with every economy tool registered.
func New(economy Economy) (*Server, error) {
	if economy == nil {
		return nil, fmt.Errorf("economy service is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	if err := register(mcpServer, economy); err != nil {
		return nil, err
	}
	return &Server{mcpServer: mcpServer}, nil
}

func register(server *mcp.Server, economy Economy) error {
	registrations := []func() error{
		add(server, tool("player_register", "Registers a player with full energy at level 1"), RegisterPlayerHandler(economy)),
		add(server, tool("energy_get", "Reads a player's energy including regeneration"), GetEnergyHandler(economy)),
		add(server, tool("energy_consume", "Spends a fixed amount of energy"), ConsumeEnergyHandler(economy)),
		add(server, tool("energy_consume_action", "Spends the efficiency-discounted cost of an action"), ConsumeActionEnergyHandler(economy)),
		add(server, tool("energy_grant", "Restores energy up to the player's max"), GrantEnergyHandler(economy)),
		add(server, tool("energy_boost", "Applies an energy boost, optionally overflowing max for a while"), EnergyBoostHandler(economy)),
		add(server, tool("energy_regen_boost", "Speeds up or slows down regeneration for a while"), RegenBoostHandler(economy)),
		add(server, tool("recovery_zone_enter", "Starts resting in a recovery zone"), EnterRecoveryZoneHandler(economy)),
		add(server, tool("recovery_zone_leave", "Stops resting"), LeaveRecoveryZoneHandler(economy)),
		add(server, tool("energy_passive_bonuses", "Sets skill-derived max energy and efficiency bonuses"), PassiveBonusesHandler(economy)),
		add(server, tool("progression_get", "Reads a player's level and experience"), GetProgressionHandler(economy)),
		add(server, tool("experience_grant", "Awards experience with promotions and catch-up applied"), GrantExperienceHandler(economy)),
		add(server, tool("prestige", "Resets a high-level player to level 1 for prestige points"), PrestigeHandler(economy)),
		add(server, tool("milestones_list", "Lists the milestones a player has reached"), ListMilestonesHandler(economy)),
		add(server, tool("milestone_claim", "Collects a reached milestone's reward"), ClaimMilestoneHandler(economy)),
		add(server, tool("multiplier_event_register", "Schedules an experience promotion"), RegisterMultiplierEventHandler(economy)),
		add(server, tool("multiplier_event_remove", "Deletes an experience promotion"), RemoveMultiplierEventHandler(economy)),
		add(server, tool("multiplier_events_list", "Lists experience promotions"), ListMultiplierEventsHandler(economy)),
		add(server, tool("average_level_set", "Publishes the server average level for catch-up"), SetAverageLevelHandler(economy)),
	}
	for _, registration := range registrations {
		if err := registration(); err != nil {
			return err
		}
	}
	return nil
}

func tool(name, description string) *mcp.Tool {
	return &mcp.Tool{Name: name, Description: description}
}

// add defers registration so a schema failure surfaces as an error instead
// of the SDK panic.
func add[I, O any](server *mcp.Server, tool *mcp.Tool, handler mcp.ToolHandlerFor[I, O]) func() error {
	return func() (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("register tool %s: %v", tool.Name, recovered)
			}
		}()
		mcp.AddTool(server, tool, handler)
		return nil
	}
}

// Serve runs the tools on stdio until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
