package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/casta-game/game/engine"
	"github.com/wricardo/casta-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Casta Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Casta Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

THE GAME:
Two sides, white and black, share an 8x8 board. White moves first and turns
alternate after every move. A move takes the piece on "from" and puts it on
"to", replacing whatever was there.

COORDINATES:
x is the column (0-7, left to right), y is the row (0-7, top to bottom).
White starts on rows 6-7, black on rows 0-1.

BOARD NOTATION:
R rook, C casta, D dragon. Uppercase is white, lowercase is black, '.' is empty.

AVAILABLE TOOLS:
- join_game: Join a session by name, creating it if needed
- make_move: Move a piece in a joined session
- game_state: Get the board, turn and status
- get_session: Get session details
- list_sessions: List all active sessions
- move_history: View past moves
- list_layouts: List available board layouts

Moves are shown live to every browser watching the session.`),
	)

	// Register all tools
	c.registerTools()
}

func sessionIDSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordinateSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "integer", "minimum": 0, "maximum": engine.BoardSize - 1},
			"y": map[string]interface{}{"type": "integer", "minimum": 0, "maximum": engine.BoardSize - 1},
		},
		"required": []string{"x", "y"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_game",
		Description: "Join a game session by ID. The session is created on first join.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleJoinGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, side to move and status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "make_move",
		Description: "Move the piece at 'from' to 'to'. The session must already exist (see join_game).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
				"from":       coordinateSchema("Source cell"),
				"to":         coordinateSchema("Destination cell"),
			},
			Required: []string{"session_id", "from", "to"},
		},
	}, c.handleMakeMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get paginated move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Moves per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "asc for oldest first, desc for newest first (default)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Layouts
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_layouts",
		Description: "List available board layouts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLayouts)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves single JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
}

// Helper methods for API calls

// apiError carries the REST error code so tool output can show it
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error == "" {
			errResp.Error = fmt.Sprintf("API error: %d", resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Code: errResp.Code, Message: errResp.Error}
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// coordinateArg reads {"x":..,"y":..} from a tool argument
func coordinateArg(args map[string]interface{}, key string) (*engine.Coordinate, error) {
	raw, ok := args[key].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an object with x and y", key)
	}
	x, okX := raw["x"].(float64)
	y, okY := raw["y"].(float64)
	if !okX || !okY {
		return nil, fmt.Errorf("%s must be an object with x and y", key)
	}
	return &engine.Coordinate{X: int(x), Y: int(y)}, nil
}

// Tool handlers

func (c *Client) handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/join"), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Joined " + formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&result, "- %s (Status: %s, Turn: %s, Moves: %d, Created: %s)\n",
			s.ID, s.GameState.Status, s.GameState.Turn, s.MoveCount, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMakeMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	from, err := coordinateArg(args, "from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := coordinateArg(args, "to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{
		"from": from,
		"to":   to,
	}

	var result service.MoveResult
	err = c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	err := c.apiCall(ctx, "GET", path, nil, &history)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListLayouts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var layouts []service.LayoutInfo
	err := c.apiCall(ctx, "GET", "/api/layouts", nil, &layouts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Layouts:\n\n")
	for _, layout := range layouts {
		source := layout.Filename
		if layout.BuiltIn {
			source = "built-in"
		}
		fmt.Fprintf(&result, "• %s (%s, %s)\n  %s\n  White: %d pieces, Black: %d pieces\n\n",
			layout.LayoutID, layout.Name, source, layout.Description, layout.WhitePieces, layout.BlackPieces)
	}

	return mcp.NewToolResultText(result.String()), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nCreated: %s\nMoves: %d\n\n%s",
		session.ID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.MoveCount,
		formatGameState(&session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Status: %s | Turn: %s\n", state.Status, state.Turn)

	counts := engine.PieceCounts(state.Board)
	fmt.Fprintf(&result, "White: %s | Black: %s\n\n",
		formatCounts(counts[engine.White]), formatCounts(counts[engine.Black]))

	result.WriteString(engine.Render(state.Board))
	return result.String()
}

func formatCounts(counts map[engine.PieceKind]int) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	return fmt.Sprintf("%d (R:%d C:%d D:%d)", total, counts[engine.Rook], counts[engine.Casta], counts[engine.Dragon])
}

func formatMoveResult(result *service.MoveResult) string {
	ply := result.Ply

	var b strings.Builder
	fmt.Fprintf(&b, "Move %d: %s %s -> %s", ply.Number, ply.Side, ply.From, ply.To)
	if ply.Piece != nil {
		fmt.Fprintf(&b, " (%s)", pieceName(ply.Piece))
	}
	if ply.Captured != nil {
		fmt.Fprintf(&b, ", captured %s %s", ply.Captured.Owner, pieceName(ply.Captured))
	}
	b.WriteString("\n\n")
	b.WriteString(formatGameState(&result.GameState))
	return b.String()
}

func pieceName(p *engine.Piece) string {
	switch p.Kind {
	case engine.Rook:
		return "rook"
	case engine.Casta:
		return "casta"
	case engine.Dragon:
		return "dragon"
	default:
		return string(p.Kind)
	}
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	if len(history.Moves) == 0 {
		b.WriteString("(no moves)\n")
		return b.String()
	}

	for _, move := range history.Moves {
		fmt.Fprintf(&b, "%d. %s %s -> %s", move.Number, move.Side, move.From, move.To)
		if move.Captured != nil {
			fmt.Fprintf(&b, " x%s", pieceName(move.Captured))
		}
		b.WriteString("\n")
	}

	return b.String()
}
