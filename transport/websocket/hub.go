package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wricardo/casta-game/game/engine"
	"github.com/wricardo/casta-game/game/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins
		return true
	},
}

// GameSessions is the part of the game service the hub drives
type GameSessions interface {
	JoinSession(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	MakeMove(ctx context.Context, sessionID string, from, to engine.Coordinate) (*service.MoveResult, error)
}

// Stats is a point-in-time view of connected clients
type Stats struct {
	Clients  int            `json:"clients"`
	Sessions map[string]int `json:"sessions"`
}

type request struct {
	client *Client
	data   []byte
}

type publication struct {
	sessionID string
	state     engine.GameState
	version   int
}

// outcome is what handling one request produced. reply goes to the
// requester only; broadcast goes to every member of group. version is the
// ply count of the broadcast state.
type outcome struct {
	group     string
	broadcast *OutboundMessage
	version   int
	reply     *OutboundMessage
}

// Hub maintains the set of active clients and their session groups. All
// state below is owned by the Run goroutine; other goroutines talk to it
// through channels only.
type Hub struct {
	service GameSessions
	log     zerolog.Logger

	// All registered clients
	clients map[*Client]bool

	// Clients grouped by session ID
	sessions map[string]map[*Client]bool

	// Ply count of the last state broadcast to each group
	versions map[string]int

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Inbound messages from clients
	requests chan *request

	// State published by other transports
	publish chan *publication

	stats chan chan Stats

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new WebSocket hub
func NewHub(svc GameSessions, logger zerolog.Logger) *Hub {
	return &Hub{
		service:    svc,
		log:        logger.With().Str("component", "hub").Logger(),
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]map[*Client]bool),
		versions:   make(map[string]int),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		requests:   make(chan *request),
		publish:    make(chan *publication),
		stats:      make(chan chan Stats),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. Each event is handled to completion
// before the next one is read, so requests are processed in arrival order.
// Run returns when ctx is cancelled and closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.registerClient(ctx, client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.requests:
			if !h.clients[req.client] {
				continue
			}
			h.deliver(req.client, h.handle(ctx, req))

		case p := <-h.publish:
			h.deliver(nil, outcome{group: p.sessionID, broadcast: gameStateMessage(p.sessionID, p.state), version: p.version})

		case reply := <-h.stats:
			reply <- h.snapshotStats()
		}
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
// A "session" query parameter joins that session right away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		id:             uuid.NewString(),
		hub:            h,
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		initialSession: r.URL.Query().Get("session"),
	}

	if !h.submitRegister(client) {
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// Publish broadcasts state to every client in the session group. Other
// transports call it after they change a session; version is the number of
// plies applied to state. A state older than one the group already received
// is dropped.
func (h *Hub) Publish(sessionID string, state engine.GameState, version int) {
	select {
	case h.publish <- &publication{sessionID: sessionID, state: state, version: version}:
	case <-h.done:
	}
}

// Stats returns the connected client counts. It returns zero values once
// the hub has stopped.
func (h *Hub) Stats() Stats {
	reply := make(chan Stats, 1)
	select {
	case h.stats <- reply:
		return <-reply
	case <-h.done:
		return Stats{Sessions: map[string]int{}}
	}
}

func (h *Hub) submitRegister(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) submitUnregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) submitRequest(req *request) bool {
	select {
	case h.requests <- req:
		return true
	case <-h.done:
		return false
	}
}

// handle decodes and executes one inbound message. A panicking handler is
// reported to the requester and does not stop the hub.
func (h *Hub) handle(ctx context.Context, req *request) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Str("client", req.client.id).Msg("websocket handler panic")
			out = outcome{reply: rejectionMessage(EventError, "", service.CodeInternal, "internal error")}
		}
	}()

	var msg InboundMessage
	if err := json.Unmarshal(req.data, &msg); err != nil {
		return outcome{reply: rejectionMessage(EventError, "", service.CodeBadRequest, "malformed message")}
	}

	switch msg.Event {
	case EventJoinGame:
		return h.join(ctx, req.client, msg.SessionID)
	case EventMakeMove:
		return h.move(ctx, req.client, &msg)
	default:
		return outcome{reply: rejectionMessage(EventError, msg.SessionID, service.CodeBadRequest,
			fmt.Sprintf("unknown event %q", msg.Event))}
	}
}

// join creates the session if needed, moves the client into its group and
// broadcasts the current state to the whole group.
func (h *Hub) join(ctx context.Context, c *Client, sessionID string) outcome {
	info, err := h.service.JoinSession(ctx, sessionID)
	if err != nil {
		h.log.Debug().Err(err).Str("client", c.id).Str("session", sessionID).Msg("join rejected")
		return outcome{reply: rejectionMessage(EventError, sessionID, service.ErrorCode(err), err.Error())}
	}

	h.moveToGroup(c, sessionID)

	return outcome{
		group:     sessionID,
		broadcast: gameStateMessage(sessionID, info.GameState),
		version:   info.MoveCount,
	}
}

// move applies a move to an existing session. Failures are reported to the
// requester only and nothing is broadcast.
func (h *Hub) move(ctx context.Context, c *Client, msg *InboundMessage) outcome {
	if msg.From == nil || msg.To == nil {
		return outcome{reply: rejectionMessage(EventMoveRejected, msg.SessionID, service.CodeBadRequest,
			"from and to are required")}
	}

	result, err := h.service.MakeMove(ctx, msg.SessionID, *msg.From, *msg.To)
	if err != nil {
		h.log.Debug().Err(err).Str("client", c.id).Str("session", msg.SessionID).Msg("move rejected")
		return outcome{reply: rejectionMessage(EventMoveRejected, msg.SessionID, service.ErrorCode(err), err.Error())}
	}

	return outcome{
		group:     msg.SessionID,
		broadcast: gameStateMessage(msg.SessionID, result.GameState),
		version:   result.Ply.Number,
	}
}

// deliver performs the fan-out for an outcome
func (h *Hub) deliver(requester *Client, out outcome) {
	if out.reply != nil && requester != nil {
		if data, ok := h.marshal(out.reply); ok {
			h.enqueue(requester, data)
		}
	}

	if out.broadcast == nil || out.group == "" {
		return
	}

	members := h.sessions[out.group]
	if len(members) == 0 {
		return
	}
	if out.version < h.versions[out.group] {
		h.log.Debug().Str("session", out.group).Int("version", out.version).
			Int("delivered", h.versions[out.group]).Msg("dropping stale game state")
		return
	}
	h.versions[out.group] = out.version

	data, ok := h.marshal(out.broadcast)
	if !ok {
		return
	}

	for client := range members {
		h.enqueue(client, data)
	}
}

func (h *Hub) marshal(msg *OutboundMessage) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("event", msg.Event).Msg("failed to marshal websocket message")
		return nil, false
	}
	return data, true
}

// enqueue hands data to a client's writer. A client whose buffer is full is dropped.
func (h *Hub) enqueue(c *Client, data []byte) {
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn().Str("client", c.id).Str("session", c.sessionID).Msg("send buffer full, dropping client")
		h.unregisterClient(c)
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(ctx context.Context, c *Client) {
	h.clients[c] = true

	h.log.Info().Str("client", c.id).Int("total", len(h.clients)).Msg("client connected")

	if c.initialSession != "" {
		h.deliver(c, h.join(ctx, c, c.initialSession))
	}
}

// unregisterClient removes a client from the hub and its session group.
// Sessions themselves are left untouched.
func (h *Hub) unregisterClient(c *Client) {
	if !h.clients[c] {
		return
	}

	h.leaveGroup(c)
	delete(h.clients, c)
	close(c.send)

	h.log.Info().Str("client", c.id).Int("remaining", len(h.clients)).Msg("client disconnected")
}

func (h *Hub) moveToGroup(c *Client, sessionID string) {
	if c.sessionID == sessionID {
		return
	}
	h.leaveGroup(c)

	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*Client]bool)
	}
	h.sessions[sessionID][c] = true
	c.sessionID = sessionID

	h.log.Debug().Str("client", c.id).Str("session", sessionID).
		Int("members", len(h.sessions[sessionID])).Msg("client joined group")
}

func (h *Hub) leaveGroup(c *Client) {
	if c.sessionID == "" {
		return
	}

	if clients, ok := h.sessions[c.sessionID]; ok {
		delete(clients, c)

		// Clean up empty groups
		if len(clients) == 0 {
			delete(h.sessions, c.sessionID)
			delete(h.versions, c.sessionID)
		}
	}
	c.sessionID = ""
}

func (h *Hub) snapshotStats() Stats {
	stats := Stats{
		Clients:  len(h.clients),
		Sessions: make(map[string]int, len(h.sessions)),
	}
	for id, clients := range h.sessions {
		stats.Sessions[id] = len(clients)
	}
	return stats
}

func (h *Hub) shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)
		for c := range h.clients {
			h.leaveGroup(c)
			delete(h.clients, c)
			close(c.send)
		}
		h.log.Info().Msg("hub stopped")
	})
}
