// Package mcp exposes the Casta game server as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes a REST request against
// a running api.Server, and the JSON response is rendered as plain text for
// the model. Moves made through MCP are therefore published to websocket
// clients exactly like REST moves.
//
// Tools:
//   - join_game: join (and create if needed) a session
//   - make_move: move a piece in an existing session
//   - game_state: board, side to move and status
//   - get_session / list_sessions: session details
//   - move_history: paginated ply history
//   - list_layouts: available board layouts
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// over stdio
//	server.ServeStdio(client.GetMCPServer())
//
//	// or as a single-message HTTP endpoint
//	router.Handle("/mcp", client.HTTPHandler())
package mcp
