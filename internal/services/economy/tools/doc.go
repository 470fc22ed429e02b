// Package tools exposes the economy ledgers as MCP tools.
//
// Each tool maps one economy operation onto typed JSON input and output.
// Failures come back as tool errors carrying the player-facing message from
// the error catalog, so an operator or assistant sees the same wording a
// player would.
package tools
