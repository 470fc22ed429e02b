package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestNewRequiresEconomy(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil economy")
	}
}

func TestServerListsAndCallsTools(t *testing.T) {
	server, err := New(newTestEconomy(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientCtx, clientCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer clientCancel()
	session, err := client.Connect(clientCtx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(clientCtx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(tools.Tools) != 19 {
		t.Fatalf("tools = %d, want 19", len(tools.Tools))
	}

	result, err := session.CallTool(clientCtx, &mcp.CallToolParams{
		Name:      "player_register",
		Arguments: map[string]any{"player_id": "p1"},
	})
	if err != nil {
		t.Fatalf("call player_register: %v", err)
	}
	if result.IsError {
		t.Fatalf("player_register failed: %+v", result)
	}

	result, err = session.CallTool(clientCtx, &mcp.CallToolParams{
		Name:      "energy_consume",
		Arguments: map[string]any{"player_id": "p1", "amount": 500},
	})
	if err != nil {
		t.Fatalf("call energy_consume: %v", err)
	}
	if !result.IsError || len(result.Content) == 0 {
		t.Fatalf("expected tool error, got %+v", result)
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok || !strings.Contains(text.Text, "Not enough energy") {
		t.Fatalf("content = %+v", result.Content[0])
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
