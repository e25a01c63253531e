package service

import (
	"time"

	"github.com/wricardo/casta-game/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string           `json:"id"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	GameState      engine.GameState `json:"game_state"`
	MoveCount      int              `json:"move_count"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	SessionID string           `json:"session_id"`
	Ply       engine.Ply       `json:"ply"`
	GameState engine.GameState `json:"game_state"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.Ply `json:"moves"`
	TotalMoves  int          `json:"total_moves"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	TotalPages  int          `json:"total_pages"`
	HasNext     bool         `json:"has_next"`
	HasPrevious bool         `json:"has_previous"`
}

// LayoutInfo provides information about a board layout
type LayoutInfo struct {
	Filename    string `json:"filename,omitempty"`
	LayoutID    string `json:"layout_id"` // The identifier to use in configuration
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	WhitePieces int    `json:"white_pieces"`
	BlackPieces int    `json:"black_pieces"`
	BuiltIn     bool   `json:"built_in"`
}
