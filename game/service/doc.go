// Package service provides the business logic layer for the Casta game server.
//
// The service package implements:
//   - Joining sessions, creating them on first join
//   - Applying moves to existing sessions only
//   - Game state snapshots and paginated move history
//   - Board layout listing
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager is the session registry; it keeps GetOrCreate and Get as
// separate operations so each call site states whether it may create state.
// LayoutManager lists and loads named board layouts.
//
// Architecture:
//
// The service sits between the transports (websocket gateway, REST, MCP) and
// the engine. It never broadcasts: callers receive a result and decide who to
// notify. Each Session guards its own state with a mutex, so moves on the same
// session from different transports are serialized while independent
// sessions proceed in parallel.
//
// Usage:
//
//	sessions := session.NewManager()
//	svc := service.NewGameService(sessions, layouts, service.WithMoveMode(engine.MoveStrict))
//
//	info, err := svc.JoinSession(ctx, "g1")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := svc.MakeMove(ctx, "g1", engine.Coordinate{X: 0, Y: 6}, engine.Coordinate{X: 0, Y: 4})
//
// Errors:
//
// Failures wrap sentinel errors (ErrUnknownSession, engine.ErrInvalidCoordinate,
// engine.ErrNoPieceAtSource, ...). ErrorCode maps them to the short codes sent
// to clients.
package service
