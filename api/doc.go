// Package api provides HTTP REST API handlers for the Casta game server.
//
// The api package implements:
//   - Session join, lookup and listing
//   - Move submission for existing sessions
//   - Game state and paginated move history
//   - Layout listing
//   - WebSocket upgrade routing
//
// Endpoints:
//
// Session Management:
//   - GET /api/sessions - List sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/{id} - Get specific session
//   - POST /api/sessions/{id}/join - Join a session, creating it if needed
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current board, turn and status
//   - POST /api/sessions/{id}/move - Apply a move: {"from":{"x":0,"y":6},"to":{"x":0,"y":4}}
//   - GET /api/sessions/{id}/history - Applied moves (page, limit, order)
//
// Layouts:
//   - GET /api/layouts - List available layouts
//   - GET /api/layouts/{name} - Get one layout
//
// Other:
//   - GET /health - Liveness and connected websocket clients
//   - GET /ws - WebSocket gateway
//
// Joins and moves made over REST are published to the websocket group of the
// session, so browser clients see them like any other move.
//
// Error Handling:
//
// Errors are returned as JSON with a status matching the failure:
//
//	{
//	  "error": "move in session \"g1\": no piece at source",
//	  "code": "no_piece_at_source"
//	}
//
// unknown_session and layout_not_found map to 404, invalid_coordinate,
// invalid_session_id and bad_request to 400, no_piece_at_source to 422.
package api
