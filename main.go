// Command casta starts the Casta game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, the WebSocket gateway and an /mcp endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags (each with an environment variable) control host/port, the layout
// directory and default layout, move validation, logging, and optional ngrok
// tunneling for easy external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/casta-game/api"
	"github.com/wricardo/casta-game/game/config"
	"github.com/wricardo/casta-game/game/engine"
	"github.com/wricardo/casta-game/game/service"
	"github.com/wricardo/casta-game/game/session"
	"github.com/wricardo/casta-game/transport/mcp"
	"github.com/wricardo/casta-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Casta Game Server"
)

const shutdownTimeout = 10 * time.Second

// serverConfig is the resolved set of flags and environment variables
type serverConfig struct {
	Host          string
	Port          int
	LayoutsDir    string
	DefaultLayout string
	MoveMode      string
	LogLevel      string
	LogFormat     string
	Ngrok         bool
	NgrokAuth     string
	NgrokDomain   string
}

func (c serverConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// localURL is the base URL in-process clients use to reach the API. A
// wildcard or empty host is not dialable, so it maps to loopback.
func (c serverConfig) localURL() string {
	host := c.Host
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// main loads .env, parses flags and runs the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("error loading .env file")
		}
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "casta",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "layouts-dir",
				Usage:   "Directory containing board layouts (*.json, *.yaml); built-ins only when empty",
				Sources: cli.EnvVars("LAYOUTS_DIR"),
			},
			&cli.StringFlag{
				Name:    "default-layout",
				Value:   config.LayoutEmpty,
				Usage:   "Layout new sessions start from",
				Sources: cli.EnvVars("DEFAULT_LAYOUT"),
			},
			&cli.StringFlag{
				Name:    "move-mode",
				Value:   string(engine.MoveStrict),
				Usage:   "strict rejects moves from empty cells, permissive applies them",
				Sources: cli.EnvVars("MOVE_MODE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "console",
				Usage:   "Log format (console, json)",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
		},
		Action: runServer,
	}
}

func configFromCommand(cmd *cli.Command) serverConfig {
	return serverConfig{
		Host:          cmd.String("host"),
		Port:          int(cmd.Int("port")),
		LayoutsDir:    cmd.String("layouts-dir"),
		DefaultLayout: cmd.String("default-layout"),
		MoveMode:      cmd.String("move-mode"),
		LogLevel:      cmd.String("log-level"),
		LogFormat:     cmd.String("log-format"),
		Ngrok:         cmd.Bool("ngrok"),
		NgrokAuth:     cmd.String("ngrok-auth"),
		NgrokDomain:   cmd.String("ngrok-domain"),
	}
}

// newLogger builds the process logger. console is for humans, json for collectors.
func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	switch strings.ToLower(format) {
	case "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	case "json", "":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// initializeServices wires the layout catalogue, the session store and the game service.
func initializeServices(cfg serverConfig, logger zerolog.Logger) (service.GameService, error) {
	mode, err := engine.ParseMoveMode(cfg.MoveMode)
	if err != nil {
		return nil, err
	}

	layouts, err := config.NewManager(cfg.LayoutsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create layout manager: %w", err)
	}

	if cfg.DefaultLayout != "" {
		if err := layouts.SetDefault(cfg.DefaultLayout); err != nil {
			return nil, fmt.Errorf("failed to set default layout: %w", err)
		}
	}

	sessions := session.NewManager(
		session.WithBoardFactory(layouts.DefaultBoard),
		session.WithLogger(logger.With().Str("component", "sessions").Logger()),
	)

	logger.Info().
		Str("layout", layouts.DefaultName()).
		Str("move_mode", string(mode)).
		Str("layouts_dir", cfg.LayoutsDir).
		Msg("services initialized")

	return service.NewGameService(sessions, layouts,
		service.WithMoveMode(mode),
		service.WithLogger(logger.With().Str("component", "game").Logger()),
	), nil
}

// newHandler assembles REST, WebSocket and the /mcp endpoint. The MCP proxy
// calls back into the API at baseURL.
func newHandler(gameService service.GameService, hub *websocket.Hub, logger zerolog.Logger, baseURL string) *api.Server {
	apiServer := api.NewServer(gameService, hub, logger)
	apiServer.Mount("/mcp", mcp.NewClient(baseURL).HTTPHandler())
	return apiServer
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return err
	}

	gameService, err := initializeServices(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.addr()
	hub := websocket.NewHub(gameService, logger)
	handler := newHandler(gameService, hub, logger, cfg.localURL())

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	logger.Info().Str("version", Version).Msgf("Starting %s", AppName)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		logger.Info().
			Str("rest", "http://"+addr+"/api").
			Str("websocket", "ws://"+addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+addr+"/mcp").
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Ngrok {
		g.Go(func() error {
			return runNgrok(gctx, cfg, handler, logger)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done. A
// missing auth token disables the tunnel without stopping the server.
func runNgrok(ctx context.Context, cfg serverConfig, handler http.Handler, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "ngrok").Logger()

	if cfg.NgrokAuth == "" {
		logger.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return nil
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
	if err != nil {
		// The local server keeps running without a tunnel
		logger.Error().Err(err).Msg("failed to start ngrok tunnel")
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	logger.Info().
		Str("url", url).
		Str("rest", url+"/api").
		Str("websocket", url+"/ws?session=<session_id>").
		Str("mcp", url+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("ngrok server error")
	}
	logger.Info().Msg("ngrok tunnel closed")
	return nil
}

// apiAvailable reports whether a Casta API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on host:port; otherwise it starts an internal API on a random loopback port.
// Logs go to stderr since stdout carries the protocol.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	externalURL := cfg.localURL()
	baseURL := externalURL

	if apiAvailable(externalURL) {
		logger.Info().Str("url", externalURL).Msg("external API server found, using it for MCP")
	} else {
		logger.Info().Msg("no external API server found, starting internal HTTP server")

		gameService, err := initializeServices(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		baseURL = "http://" + listener.Addr().String()

		hub := websocket.NewHub(gameService, logger)
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		logger.Info().Str("url", baseURL).Msg("internal HTTP server started")
	}

	mcpClient := mcp.NewClient(baseURL)

	logger.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	return server.ServeStdio(mcpClient.GetMCPServer())
}
