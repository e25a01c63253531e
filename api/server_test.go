package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/casta-game/game/engine"
	"github.com/wricardo/casta-game/game/service"
	"github.com/wricardo/casta-game/game/session"
	"github.com/wricardo/casta-game/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	JoinSessionFunc  func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	GetSessionFunc   func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc func(ctx context.Context) ([]*service.SessionInfo, error)

	// Game Operations
	MakeMoveFunc func(ctx context.Context, sessionID string, from, to engine.Coordinate) (*service.MoveResult, error)

	// Game State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Layouts
	ListLayoutsFunc func(ctx context.Context) ([]*service.LayoutInfo, error)
	LoadLayoutFunc  func(ctx context.Context, name string) (*engine.Layout, error)
}

func (m *MockGameService) JoinSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.JoinSessionFunc != nil {
		return m.JoinSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:        sessionID,
		CreatedAt: time.Now(),
		GameState: engine.NewGameState(engine.NewEmptyBoard()),
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) MakeMove(ctx context.Context, sessionID string, from, to engine.Coordinate) (*service.MoveResult, error) {
	if m.MakeMoveFunc != nil {
		return m.MakeMoveFunc(ctx, sessionID, from, to)
	}
	return &service.MoveResult{
		SessionID: sessionID,
		Ply:       engine.Ply{Number: 1, Side: engine.White, From: from, To: to},
		GameState: engine.GameState{Turn: engine.Black, Status: engine.StatusActive},
	}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	state := engine.NewGameState(engine.NewEmptyBoard())
	return &state, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.Ply{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) ListLayouts(ctx context.Context) ([]*service.LayoutInfo, error) {
	if m.ListLayoutsFunc != nil {
		return m.ListLayoutsFunc(ctx)
	}
	return []*service.LayoutInfo{}, nil
}

func (m *MockGameService) LoadLayout(ctx context.Context, name string) (*engine.Layout, error) {
	if m.LoadLayoutFunc != nil {
		return m.LoadLayoutFunc(ctx, name)
	}
	return &engine.Layout{Name: name, Rows: engine.NewEmptyBoard().Rows()}, nil
}

type publication struct {
	sessionID string
	state     engine.GameState
	version   int
}

// MockGateway records publications
type MockGateway struct {
	mu        sync.Mutex
	published []publication
}

func (g *MockGateway) Publish(sessionID string, state engine.GameState, version int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.published = append(g.published, publication{sessionID: sessionID, state: state, version: version})
}

func (g *MockGateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func (g *MockGateway) Stats() websocket.Stats {
	return websocket.Stats{Clients: 2, Sessions: map[string]int{"g1": 2}}
}

func (g *MockGateway) Published() []publication {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]publication(nil), g.published...)
}

func newTestServer(svc service.GameService) (*Server, *MockGateway) {
	gateway := &MockGateway{}
	return NewServer(svc, gateway, zerolog.Nop()), gateway
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestServer_JoinSession(t *testing.T) {
	server, gateway := newTestServer(&MockGameService{})

	w := doRequest(t, server, "POST", "/api/sessions/g1/join", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info service.SessionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "g1", info.ID)
	assert.Equal(t, engine.StatusWaiting, info.GameState.Status)

	published := gateway.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "g1", published[0].sessionID)
}

func TestServer_JoinSessionInvalidID(t *testing.T) {
	svc := &MockGameService{
		JoinSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, fmt.Errorf("join session: %w", service.ErrInvalidSessionID)
		},
	}
	server, gateway := newTestServer(svc)

	w := doRequest(t, server, "POST", "/api/sessions/x/join", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.CodeInvalidSessionID, decodeError(t, w).Code)
	assert.Empty(t, gateway.Published())
}

func TestServer_Move(t *testing.T) {
	tests := []struct {
		name        string
		body        interface{}
		moveErr     error
		wantStatus  int
		wantCode    string
		wantPublish bool
	}{
		{
			name:        "valid move",
			body:        MoveRequest{From: &engine.Coordinate{X: 0, Y: 6}, To: &engine.Coordinate{X: 0, Y: 4}},
			wantStatus:  http.StatusOK,
			wantPublish: true,
		},
		{
			name:       "unknown session",
			body:       MoveRequest{From: &engine.Coordinate{X: 0, Y: 6}, To: &engine.Coordinate{X: 0, Y: 4}},
			moveErr:    fmt.Errorf("move: %w", service.ErrUnknownSession),
			wantStatus: http.StatusNotFound,
			wantCode:   service.CodeUnknownSession,
		},
		{
			name:       "invalid coordinate",
			body:       MoveRequest{From: &engine.Coordinate{X: 9, Y: 6}, To: &engine.Coordinate{X: 0, Y: 4}},
			moveErr:    fmt.Errorf("move: %w", engine.ErrInvalidCoordinate),
			wantStatus: http.StatusBadRequest,
			wantCode:   service.CodeInvalidCoordinate,
		},
		{
			name:       "no piece at source",
			body:       MoveRequest{From: &engine.Coordinate{X: 3, Y: 3}, To: &engine.Coordinate{X: 0, Y: 4}},
			moveErr:    fmt.Errorf("move: %w", engine.ErrNoPieceAtSource),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   service.CodeNoPieceAtSource,
		},
		{
			name:       "malformed body",
			body:       `{"from":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   service.CodeBadRequest,
		},
		{
			name:       "missing to",
			body:       `{"from":{"x":1,"y":1}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   service.CodeBadRequest,
		},
		{
			name:       "empty body",
			wantStatus: http.StatusBadRequest,
			wantCode:   service.CodeBadRequest,
		},
		{
			name:       "unexpected failure",
			body:       MoveRequest{From: &engine.Coordinate{X: 0, Y: 6}, To: &engine.Coordinate{X: 0, Y: 4}},
			moveErr:    fmt.Errorf("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   service.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockGameService{}
			if tt.moveErr != nil {
				svc.MakeMoveFunc = func(ctx context.Context, sessionID string, from, to engine.Coordinate) (*service.MoveResult, error) {
					return nil, tt.moveErr
				}
			}
			server, gateway := newTestServer(svc)

			w := doRequest(t, server, "POST", "/api/sessions/g1/move", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantCode != "" {
				resp := decodeError(t, w)
				assert.Equal(t, tt.wantCode, resp.Code)
				assert.NotEmpty(t, resp.Error)
			}

			if tt.wantPublish {
				published := gateway.Published()
				require.Len(t, published, 1)
				assert.Equal(t, "g1", published[0].sessionID)
				assert.Equal(t, engine.Black, published[0].state.Turn)
			} else {
				assert.Empty(t, gateway.Published())
			}
		})
	}
}

func TestServer_GetSessionNotFound(t *testing.T) {
	svc := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, fmt.Errorf("get session %q: %w", sessionID, service.ErrUnknownSession)
		},
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return nil, fmt.Errorf("get state %q: %w", sessionID, service.ErrUnknownSession)
		},
	}
	server, _ := newTestServer(svc)

	for _, path := range []string{"/api/sessions/nope", "/api/sessions/nope/state"} {
		w := doRequest(t, server, "GET", path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, service.CodeUnknownSession, decodeError(t, w).Code, path)
	}
}

func TestServer_ListSessions(t *testing.T) {
	now := time.Now()
	svc := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now},
				{ID: "new", CreatedAt: now, LastAccessedAt: now.Add(-time.Hour)},
				{ID: "mid", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
			}, nil
		},
	}
	server, _ := newTestServer(svc)

	tests := []struct {
		query   string
		wantIDs []string
		total   int
	}{
		{"", []string{"old", "new", "mid"}, 3},
		{"?sort=created", []string{"new", "mid", "old"}, 3},
		{"?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"?sort=created&limit=1", []string{"new"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doRequest(t, server, "GET", "/api/sessions"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			ids := make([]string, 0, len(resp.Sessions))
			for _, s := range resp.Sessions {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), resp.Count)
			assert.Equal(t, tt.total, resp.Total)
		})
	}
}

func TestServer_History(t *testing.T) {
	var got service.HistoryOptions
	svc := &MockGameService{
		GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Moves: []engine.Ply{}, Page: opts.Page, PageSize: opts.Limit}, nil
		},
	}
	server, _ := newTestServer(svc)

	w := doRequest(t, server, "GET", "/api/sessions/g1/history?page=2&limit=5&order=asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.HistoryOptions{Page: 2, Limit: 5, Order: "asc"}, got)

	w = doRequest(t, server, "GET", "/api/sessions/g1/history?page=-1&limit=abc&order=sideways", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}, got)
}

func TestServer_Layouts(t *testing.T) {
	svc := &MockGameService{
		ListLayoutsFunc: func(ctx context.Context) ([]*service.LayoutInfo, error) {
			return []*service.LayoutInfo{{LayoutID: "starting", Name: "Starting", BuiltIn: true}}, nil
		},
		LoadLayoutFunc: func(ctx context.Context, name string) (*engine.Layout, error) {
			if name != "starting" {
				return nil, fmt.Errorf("%w: %s", service.ErrLayoutNotFound, name)
			}
			return &engine.Layout{Name: "Starting", Rows: engine.NewStartingBoard().Rows()}, nil
		},
	}
	server, _ := newTestServer(svc)

	w := doRequest(t, server, "GET", "/api/layouts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var layouts []*service.LayoutInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &layouts))
	require.Len(t, layouts, 1)
	assert.Equal(t, "starting", layouts[0].LayoutID)

	w = doRequest(t, server, "GET", "/api/layouts/starting", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var layout engine.Layout
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &layout))
	assert.Equal(t, "Starting", layout.Name)

	w = doRequest(t, server, "GET", "/api/layouts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, service.CodeLayoutNotFound, decodeError(t, w).Code)
}

func TestServer_Health(t *testing.T) {
	server, _ := newTestServer(&MockGameService{})

	w := doRequest(t, server, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status    string          `json:"status"`
		Websocket websocket.Stats `json:"websocket"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 2, resp.Websocket.Clients)
}

func TestServer_RequestID(t *testing.T) {
	server, _ := newTestServer(&MockGameService{})

	w := doRequest(t, server, "GET", "/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestServer_WithoutGateway(t *testing.T) {
	server := NewServer(&MockGameService{}, nil, zerolog.Nop())

	w := doRequest(t, server, "POST", "/api/sessions/g1/move", MoveRequest{
		From: &engine.Coordinate{X: 0, Y: 6},
		To:   &engine.Coordinate{X: 0, Y: 4},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, "GET", "/ws", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestServer_Integration drives the real service and session store through REST
func TestServer_Integration(t *testing.T) {
	sessions := session.NewManager(session.WithBoardFactory(engine.NewStartingBoard))
	svc := service.NewGameService(sessions, nil)
	server, gateway := newTestServer(svc)

	// A move before anyone joined is rejected and creates nothing
	w := doRequest(t, server, "POST", "/api/sessions/g1/move", MoveRequest{
		From: &engine.Coordinate{X: 0, Y: 6},
		To:   &engine.Coordinate{X: 0, Y: 4},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, sessions.Count())

	w = doRequest(t, server, "POST", "/api/sessions/g1/join", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, server, "POST", "/api/sessions/g1/move", MoveRequest{
		From: &engine.Coordinate{X: 0, Y: 6},
		To:   &engine.Coordinate{X: 0, Y: 4},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result service.MoveResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Ply.Number)
	assert.Equal(t, engine.Black, result.GameState.Turn)

	w = doRequest(t, server, "GET", "/api/sessions/g1/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state engine.GameState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, result.GameState, state)

	w = doRequest(t, server, "GET", "/api/sessions/g1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history service.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Equal(t, 1, history.TotalMoves)

	w = doRequest(t, server, "GET", "/api/sessions/g1/history?page=100000000000000000&limit=100", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Empty(t, history.Moves)

	// join + move, each tagged with its ply count
	published := gateway.Published()
	require.Len(t, published, 2)
	assert.Equal(t, 0, published[0].version)
	assert.Equal(t, 1, published[1].version)
}

// heldGateway forwards to a real hub but holds publications until released
type heldGateway struct {
	*websocket.Hub

	mu   sync.Mutex
	hold bool
	held []publication
}

func (g *heldGateway) Publish(sessionID string, state engine.GameState, version int) {
	g.mu.Lock()
	if g.hold {
		g.held = append(g.held, publication{sessionID: sessionID, state: state, version: version})
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	g.Hub.Publish(sessionID, state, version)
}

func (g *heldGateway) release() {
	g.mu.Lock()
	held := g.held
	g.held, g.hold = nil, false
	g.mu.Unlock()

	for _, p := range held {
		g.Hub.Publish(p.sessionID, p.state, p.version)
	}
}

// TestServer_DelayedPublishDoesNotOverwriteNewerState interleaves a REST move
// whose publication is delayed with a newer websocket move.
func TestServer_DelayedPublishDoesNotOverwriteNewerState(t *testing.T) {
	sessions := session.NewManager(session.WithBoardFactory(engine.NewStartingBoard))
	svc := service.NewGameService(sessions, nil)

	hub := websocket.NewHub(svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	gateway := &heldGateway{Hub: hub}
	ts := httptest.NewServer(NewServer(svc, gateway, zerolog.Nop()))
	defer ts.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?session=g1", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() websocket.OutboundMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg websocket.OutboundMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}
	read()

	gateway.mu.Lock()
	gateway.hold = true
	gateway.mu.Unlock()

	w := doRequest(t, ts.Config.Handler, "POST", "/api/sessions/g1/move", MoveRequest{
		From: &engine.Coordinate{X: 0, Y: 6},
		To:   &engine.Coordinate{X: 0, Y: 5},
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, conn.WriteJSON(websocket.InboundMessage{
		Event:     websocket.EventMakeMove,
		SessionID: "g1",
		From:      &engine.Coordinate{X: 0, Y: 1},
		To:        &engine.Coordinate{X: 0, Y: 2},
	}))
	moved := read()
	require.Equal(t, websocket.EventGameState, moved.Event)
	assert.Equal(t, engine.White, moved.GameState.Turn)

	gateway.release()

	// A fresh join publishes the current state; it must be the next frame
	w = doRequest(t, ts.Config.Handler, "POST", "/api/sessions/g1/join", nil)
	require.Equal(t, http.StatusOK, w.Code)

	next := read()
	require.Equal(t, websocket.EventGameState, next.Event)

	sess, err := sessions.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, sess.Snapshot(), *next.GameState)
	assert.Equal(t, engine.White, next.GameState.Turn)
	assert.Equal(t, &engine.Piece{Kind: engine.Casta, Owner: engine.Black}, next.GameState.Board[2][0])
}
