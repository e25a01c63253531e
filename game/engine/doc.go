// Package engine provides the board model and move application for the Casta game.
//
// The engine package implements:
//   - The fixed 8x8 board of optional pieces
//   - Empty and starting board construction
//   - Range-checked cell access
//   - Layout notation parsing and rendering
//   - Ply application with turn alternation
//
// Core Types:
//
// Board is a value type holding 64 cells indexed [y][x]. GameState bundles a
// board with the side to move and the session status and is the snapshot sent
// to clients. Ply records one applied move.
//
// Usage:
//
//	state := engine.NewGameState(engine.NewStartingBoard())
//
//	ply, err := engine.ApplyMove(&state,
//		engine.Coordinate{X: 0, Y: 6},
//		engine.Coordinate{X: 0, Y: 4},
//		engine.MoveStrict)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Game Rules:
//
// The engine deliberately knows no movement patterns, captures or win
// conditions. A move writes the source cell onto the destination, clears the
// source and passes the turn. Only coordinate range is validated, plus an
// optional check that the source cell is occupied (MoveStrict).
package engine
