package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wricardo/casta-game/game/engine"
	"github.com/wricardo/casta-game/game/service"
)

// MaxSessionIDLength bounds caller-supplied session identifiers.
const MaxSessionIDLength = 64

// BoardFactory returns the board a new session starts with
type BoardFactory func() engine.Board

// Manager is the registry of live sessions keyed by their exact id
type Manager struct {
	sessions map[string]*service.Session
	newBoard BoardFactory
	log      zerolog.Logger
	mu       sync.RWMutex
}

// Option customizes a Manager
type Option func(*Manager)

// WithBoardFactory sets the board used for newly created sessions
func WithBoardFactory(newBoard BoardFactory) Option {
	return func(m *Manager) {
		if newBoard != nil {
			m.newBoard = newBoard
		}
	}
}

// WithLayout starts new sessions from a parsed layout
func WithLayout(layout *engine.Layout) (Option, error) {
	board, err := layout.Board()
	if err != nil {
		return nil, fmt.Errorf("layout %q: %w", layout.Name, err)
	}
	return WithBoardFactory(func() engine.Board { return board }), nil
}

// WithLogger sets the logger used for lifecycle events
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = logger
	}
}

// NewManager creates a new session manager. Sessions start on an empty board
// unless WithBoardFactory or WithLayout says otherwise.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		newBoard: engine.NewEmptyBoard,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreate returns the session for id, creating it if absent. Concurrent
// callers with the same id always receive the same session.
func (m *Manager) GetOrCreate(id string) (*service.Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	session, exists := m.sessions[id]
	m.mu.RUnlock()
	if exists {
		return session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}

	session = service.NewSession(id, m.newBoard())
	m.sessions[id] = session

	m.log.Info().Str("session", id).Int("total", len(m.sessions)).Msg("session created")

	return session, nil
}

// Get retrieves a session by id. It never creates one.
func (m *Manager) Get(id string) (*service.Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", service.ErrUnknownSession, id)
	}
	return session, nil
}

// List returns all sessions, oldest first
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty", service.ErrInvalidSessionID)
	}
	if len(id) > MaxSessionIDLength {
		return fmt.Errorf("%w: longer than %d bytes", service.ErrInvalidSessionID, MaxSessionIDLength)
	}
	return nil
}
