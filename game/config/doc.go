// Package config provides board layout management for the Casta game server.
//
// The config package handles:
//   - Built-in layouts ("empty" and "starting")
//   - Loading layouts from JSON and YAML files
//   - Default layout selection for new sessions
//   - Layout discovery and listing
//
// Layout Format:
//
// A layout file names a board and lists its 8 rows, top (black) to bottom
// (white). '.' is an empty cell, uppercase letters are white pieces and
// lowercase letters black pieces (R rook, C casta, D dragon):
//
//	name: Skirmish
//	description: Rooks only
//	rows:
//	  - "r......r"
//	  - "........"
//	  - "........"
//	  - "........"
//	  - "........"
//	  - "........"
//	  - "........"
//	  - "R......R"
//
// Usage:
//
//	manager, err := config.NewManager("layouts")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	layout, err := manager.LoadLayout("skirmish")
//
//	if err := manager.SetDefault("starting"); err != nil {
//		log.Fatal(err)
//	}
//	board := manager.DefaultBoard()
package config
