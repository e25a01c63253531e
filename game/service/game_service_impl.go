package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wricardo/casta-game/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	layouts  LayoutManager
	mode     engine.MoveMode
	log      zerolog.Logger
}

// Option customizes the game service
type Option func(*gameServiceImpl)

// WithMoveMode selects strict or permissive handling of moves from empty cells
func WithMoveMode(mode engine.MoveMode) Option {
	return func(s *gameServiceImpl) {
		s.mode = mode
	}
}

// WithLogger sets the logger used for move and join events
func WithLogger(logger zerolog.Logger) Option {
	return func(s *gameServiceImpl) {
		s.log = logger
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, layouts LayoutManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		layouts:  layouts,
		mode:     engine.MoveStrict,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// JoinSession returns the session for sessionID, creating it on first join
func (s *gameServiceImpl) JoinSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.sessions.GetOrCreate(sessionID)
	if err != nil {
		return nil, fmt.Errorf("join session %q: %w", sessionID, err)
	}

	sess.Touch()
	info := sess.Info()

	s.log.Debug().
		Str("session", sessionID).
		Int("moves", info.MoveCount).
		Str("status", string(info.GameState.Status)).
		Msg("session joined")

	return info, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %q: %w", sessionID, err)
	}

	return sess.Info(), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		result = append(result, sess.Info())
	}

	return result, nil
}

// MakeMove applies a ply to an existing session. It never creates a session.
func (s *gameServiceImpl) MakeMove(ctx context.Context, sessionID string, from, to engine.Coordinate) (*MoveResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("move in session %q: %w", sessionID, err)
	}

	state, ply, err := sess.ApplyMove(from, to, s.mode)
	if err != nil {
		s.log.Debug().
			Err(err).
			Str("session", sessionID).
			Stringer("from", from).
			Stringer("to", to).
			Msg("move rejected")
		return nil, fmt.Errorf("move in session %q: %w", sessionID, err)
	}

	s.log.Info().
		Str("session", sessionID).
		Int("ply", ply.Number).
		Str("side", string(ply.Side)).
		Stringer("from", from).
		Stringer("to", to).
		Str("next", string(state.Turn)).
		Msg("move applied")

	return &MoveResult{
		SessionID: sess.ID,
		Ply:       ply,
		GameState: state,
	}, nil
}

// GetGameState returns a snapshot of the session's game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get state of session %q: %w", sessionID, err)
	}

	state := sess.Snapshot()
	return &state, nil
}

// GetMoveHistory returns a page of the session's applied plies
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get history of session %q: %w", sessionID, err)
	}

	history := sess.History()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	// Pages past the end are empty; checked before multiplying so huge page
	// numbers cannot overflow
	start := total
	if opts.Page-1 < totalPages {
		start = (opts.Page - 1) * opts.Limit
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.Ply{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListLayouts returns the available board layouts
func (s *gameServiceImpl) ListLayouts(ctx context.Context) ([]*LayoutInfo, error) {
	if s.layouts == nil {
		return []*LayoutInfo{}, nil
	}
	return s.layouts.ListLayouts()
}

// LoadLayout returns a layout by name
func (s *gameServiceImpl) LoadLayout(ctx context.Context, name string) (*engine.Layout, error) {
	if s.layouts == nil {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, name)
	}
	return s.layouts.LoadLayout(name)
}
