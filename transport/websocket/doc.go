// Package websocket provides the realtime session gateway for the Casta game server.
//
// The websocket package implements:
//   - Session groups keyed by session ID
//   - join_game and make_move request handling
//   - Full game_state broadcasts to every member of a group
//   - Targeted move_rejected and error replies
//   - Connection lifecycle management
//
// Architecture:
//
// A central Hub owns every connection and every group. One goroutine (Run)
// consumes registrations, disconnects, inbound requests and publications
// from channels and handles each to completion before reading the next, so
// requests touching the same session are applied in arrival order. Each
// connection has a read pump feeding the hub and a write pump draining its
// send buffer.
//
// Message Protocol:
//
// Messages are JSON objects with an "event" field:
//   - Incoming: {"event":"join_game","session_id":"g1"}
//   - Incoming: {"event":"make_move","session_id":"g1","from":{"x":0,"y":6},"to":{"x":0,"y":4}}
//   - Outgoing: {"event":"game_state","session_id":"g1","game_state":{"board":...,"turn":"white","status":"active"}}
//   - Outgoing: {"event":"move_rejected","session_id":"nope","code":"unknown_session","error":"..."}
//
// join_game creates the session on first use. make_move never does: a move
// for an unknown session is answered with move_rejected to the sender only.
//
// Usage:
//
//	hub := websocket.NewHub(gameService, logger)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", hub.ServeWS)
//
// Connection Lifecycle:
//
// 1. Client connects, optionally with ?session=<id> to join immediately
// 2. Connection registered with hub
// 3. Client sends join_game / make_move, receives game_state updates
// 4. Disconnection removes the client from its group; the session is kept
package websocket
