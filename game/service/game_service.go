package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/casta-game/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	JoinSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)

	// Game Operations
	MakeMove(ctx context.Context, sessionID string, from, to engine.Coordinate) (*MoveResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Layouts
	ListLayouts(ctx context.Context) ([]*LayoutInfo, error)
	LoadLayout(ctx context.Context, name string) (*engine.Layout, error)
}

// SessionManager defines session storage operations.
// GetOrCreate may create state; Get never does.
type SessionManager interface {
	GetOrCreate(id string) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
}

// LayoutManager handles board layout loading
type LayoutManager interface {
	LoadLayout(name string) (*engine.Layout, error)
	ListLayouts() ([]*LayoutInfo, error)
}

// Session represents an active game session. Its game state is guarded by
// an internal mutex so concurrent handlers on the same id serialize.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu             sync.Mutex
	state          engine.GameState
	history        []engine.Ply
	lastAccessedAt time.Time
}

// NewSession creates a waiting session on the given board with white to move
func NewSession(id string, board engine.Board) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		CreatedAt:      now,
		state:          engine.NewGameState(board),
		history:        []engine.Ply{},
		lastAccessedAt: now,
	}
}

// Snapshot returns a copy of the current game state
func (s *Session) Snapshot() engine.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ApplyMove applies one ply under the session lock and returns the resulting
// snapshot. On error the session is unchanged.
func (s *Session) ApplyMove(from, to engine.Coordinate, mode engine.MoveMode) (engine.GameState, engine.Ply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ply, err := engine.ApplyMove(&s.state, from, to, mode)
	if err != nil {
		return engine.GameState{}, engine.Ply{}, err
	}

	ply.Number = len(s.history) + 1
	s.history = append(s.history, ply)
	s.lastAccessedAt = time.Now()

	return s.state, ply, nil
}

// History returns a copy of the applied plies in order
func (s *Session) History() []engine.Ply {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]engine.Ply, len(s.history))
	copy(history, s.history)
	return history
}

// Touch records an access to the session
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessedAt = time.Now()
}

// Info captures a consistent view of the session for API responses
func (s *Session) Info() *SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &SessionInfo{
		ID:             s.ID,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.lastAccessedAt,
		GameState:      s.state,
		MoveCount:      len(s.history),
	}
}
