// Command rescuebot runs the rescue robot navigation engine.
//
// Subcommands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, /metrics and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "run <map>" – runs one mission locally, writes a CSV activity log and prints the frames
//  4. "version" – prints version information
//
// Flags control host/port, the settings file, debug logging and optional
// ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/rescuebot/api"
	"github.com/wricardo/mcp-training/rescuebot/game/activity"
	"github.com/wricardo/mcp-training/rescuebot/game/config"
	"github.com/wricardo/mcp-training/rescuebot/game/mission"
	"github.com/wricardo/mcp-training/rescuebot/game/service"
	"github.com/wricardo/mcp-training/rescuebot/game/session"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
	"github.com/wricardo/mcp-training/rescuebot/transport/mcp"
	"github.com/wricardo/mcp-training/rescuebot/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Rescue Robot Server"
)

// Sync intervals for the background routines
const (
	cleanupInterval = 10 * time.Minute
	syncInterval    = 5 * time.Second
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	if err := newApp(envErr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree. envErr is the result of loading .env.
// Flags are persistent, so they may be given before or after the subcommand.
func newApp(envErr error) *cli.Command {
	serve := func(ctx context.Context, cmd *cli.Command) error {
		return withApp(ctx, cmd, envErr, func(ctx context.Context, a *app) error {
			return runHTTPServer(ctx, a, serverOptions{
				addr:        listenAddr(cmd),
				ngrok:       cmd.Bool("ngrok"),
				ngrokAuth:   cmd.String("ngrok-auth"),
				ngrokDomain: cmd.String("ngrok-domain"),
			})
		})
	}

	return &cli.Command{
		Name:    "rescuebot",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Settings file (defaults to " + config.DefaultSettingsFile + " when present)",
				Sources: cli.EnvVars("RESCUE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
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
		// No subcommand runs the HTTP server
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, metrics and MCP endpoint",
				Action:  serve,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server backed by an external or internal HTTP API",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, cmd, envErr, func(ctx context.Context, a *app) error {
						return runStdioMCPWithInternalServer(ctx, a, "http://"+listenAddr(cmd))
					})
				},
			},
			{
				Name:      "run",
				Usage:     "Run one mission locally and print the frames",
				ArgsUsage: "<map name or .txt file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "frames",
						Usage: "Print the grid after every mission event",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, cmd, envErr, func(ctx context.Context, a *app) error {
						return runLocal(ctx, a, cmd.Args().First(), cmd.Bool("frames"), os.Stdout)
					})
				},
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

func listenAddr(cmd *cli.Command) string {
	return fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
}

// app carries what every subcommand needs
type app struct {
	settings *config.Settings
	log      *zap.Logger
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	// stdout belongs to the MCP stdio transport
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func withApp(ctx context.Context, cmd *cli.Command, envErr error, fn func(context.Context, *app) error) error {
	log, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	switch {
	case envErr == nil:
		log.Info("loaded environment variables from .env file")
	case !errors.Is(envErr, os.ErrNotExist):
		log.Warn("error loading .env file", zap.Error(envErr))
	}

	settings, err := config.LoadSettings(cmd.String("config"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("command", cmd.Name))
	return fn(ctx, &app{settings: settings, log: log})
}

// services groups the wired managers behind the mission service
type services struct {
	mission     service.MissionService
	sessions    *session.Manager
	persistence session.SessionPersistence
	maps        *config.Manager
}

// initializeServices wires the map manager, session persistence and the mission
// service. It also starts background routines that prune stale sessions and
// keep memory in sync with the sessions directory until ctx is done.
func initializeServices(ctx context.Context, a *app, opts ...service.Option) (*services, error) {
	st := a.settings

	mapManager, err := config.NewManager(st.MapsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create map manager: %w", err)
	}
	if st.DefaultMap != "" {
		if err := mapManager.SetDefault(st.DefaultMap); err != nil {
			return nil, fmt.Errorf("default map: %w", err)
		}
	}

	persistence, err := session.NewFilePersistence(st.SessionsDir, mapManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence, session.WithLogger(a.log.Named("sessions")))

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		a.log.Warn("failed to load persisted sessions", zap.Error(err))
	}

	opts = append([]service.Option{
		service.WithLogger(a.log.Named("service")),
		service.WithActivityLogs(st.LogsDir),
		service.WithExploreOptions(st.ExploreOptions()...),
	}, opts...)
	missionService := service.NewMissionService(sessionManager, mapManager, opts...)

	go sessionCleanupRoutine(ctx, a.log, sessionManager, st.SessionTTL)
	go filesystemSyncRoutine(ctx, a.log, sessionManager, persistence)

	return &services{
		mission:     missionService,
		sessions:    sessionManager,
		persistence: persistence,
		maps:        mapManager,
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the provided retention window.
func sessionCleanupRoutine(ctx context.Context, log *zap.Logger, manager *session.Manager, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

// filesystemSyncRoutine periodically syncs in-memory sessions with filesystem state.
// It removes sessions from memory when their corresponding files are deleted.
func filesystemSyncRoutine(ctx context.Context, log *zap.Logger, manager *session.Manager, persistence session.SessionPersistence) {
	if persistence == nil {
		return
	}
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := syncWithFilesystem(log, manager, persistence); pruned > 0 {
				log.Info("filesystem sync pruned orphaned sessions", zap.Int("pruned", pruned))
			}
		}
	}
}

func syncWithFilesystem(log *zap.Logger, manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		// File deleted, remove from memory
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Debug("pruned session from memory (file deleted)", zap.String("session_id", sess.ID))
		}
	}
	return pruned
}

type serverOptions struct {
	addr        string
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

// newHandler builds the combined API, metrics and /mcp handler
func newHandler(a *app, svc service.MissionService, hub *websocket.Hub, registry *prometheus.Registry, baseURL string) http.Handler {
	apiServer := api.NewServer(svc, hub,
		api.WithLogger(a.log.Named("http")),
		api.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)

	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

func newRegistry() (*prometheus.Registry, *mission.Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := mission.NewMetrics(registry)
	if err != nil {
		return nil, nil, err
	}
	return registry, metrics, nil
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, metrics and an
// /mcp proxy endpoint. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, a *app, opts serverOptions) error {
	log := a.log

	hub := websocket.NewHub(log.Named("ws"))
	go hub.Run(ctx)

	registry, metrics, err := newRegistry()
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	svcs, err := initializeServices(ctx, a,
		service.WithMetrics(metrics),
		service.WithNotifiers(hub.Notifier),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	handler := newHandler(a, svcs.mission, hub, registry, fmt.Sprintf("http://%s", opts.addr))

	httpServer := &http.Server{
		Addr:        opts.addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Missions run inside the request
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info("HTTP server listening",
			zap.String("addr", opts.addr),
			zap.String("api", fmt.Sprintf("http://%s/api", opts.addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", opts.addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", opts.addr)),
			zap.String("metrics", fmt.Sprintf("http://%s/metrics", opts.addr)))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, log, opts, handler)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-serveErr:
		log.Error("HTTP server failed", zap.Error(runErr))
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	}
	if err := svcs.sessions.SaveAllSessions(); err != nil {
		log.Warn("failed to save sessions", zap.Error(err))
	}

	wg.Wait()
	log.Info("server stopped")
	return runErr
}

func runNgrok(ctx context.Context, log *zap.Logger, opts serverOptions, handler http.Handler) {
	if opts.ngrokAuth == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Info("using custom ngrok domain", zap.String("domain", opts.ngrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			log.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	ngrokURL := tun.URL()
	log.Info("ngrok tunnel established",
		zap.String("url", ngrokURL),
		zap.String("api", ngrokURL+"/api"),
		zap.String("mcp", ngrokURL+"/mcp"))

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Warn("ngrok server error", zap.Error(err))
	}
	log.Info("ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at externalURL; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, a *app, externalURL string) error {
	log := a.log
	baseURL := externalURL

	log.Info("checking for external API server", zap.String("url", externalURL))
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Info("external API server found, using it for MCP", zap.String("url", externalURL))
	} else {
		log.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()

		hub := websocket.NewHub(log.Named("ws"))
		go hub.Run(ctx)

		registry, metrics, err := newRegistry()
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		svcs, err := initializeServices(ctx, a, service.WithMetrics(metrics), service.WithNotifiers(hub.Notifier))
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		baseURL = fmt.Sprintf("http://%s", internalAddr)
		httpServer := &http.Server{Handler: newHandler(a, svcs.mission, hub, registry, baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		log.Info("internal HTTP server started", zap.String("addr", internalAddr))
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// loadGrid resolves a map name through the map manager, or reads a .txt path directly
func loadGrid(st *config.Settings, ref string) (string, *world.Grid, error) {
	if strings.HasSuffix(ref, config.MapExt) && strings.ContainsAny(ref, `/\`) {
		grid, err := config.ReadMapFile(ref)
		return strings.TrimSuffix(filepath.Base(ref), config.MapExt), grid, err
	}

	maps, err := config.NewManager(st.MapsDir)
	if err != nil {
		return "", nil, err
	}
	if ref == "" {
		ref = maps.GetDefault()
	}
	grid, err := maps.LoadMap(ref)
	return strings.TrimSuffix(ref, config.MapExt), grid, err
}

// runLocal runs one mission without a server and prints the outcome to out
func runLocal(ctx context.Context, a *app, ref string, frames bool, out io.Writer) error {
	name, grid, err := loadGrid(a.settings, ref)
	if err != nil {
		return err
	}
	w, err := world.New(name, grid)
	if err != nil {
		return err
	}

	csvLog, err := activity.Open(a.settings.LogsDir, "local_"+name)
	if err != nil {
		return err
	}
	defer csvLog.Close()
	csvLog.Start(w.Sense(), w.State())

	fmt.Fprintf(out, "Map %s (%dx%d)\n%s\n", name, w.Rows(), w.Cols(), w.Render())

	opts := []mission.Option{
		mission.WithLogger(a.log.Named("mission")),
		mission.WithActivitySink(csvLog),
		mission.WithExploreOptions(a.settings.ExploreOptions()...),
	}
	if frames {
		// Events are delivered on the mission goroutine, so rendering here is safe
		opts = append(opts, mission.WithNotifier(mission.NotifierFunc(func(ev mission.Event) {
			fmt.Fprintf(out, "[%s] %s %s\n%s\n", ev.State, ev.Type, ev.Agent.Position, w.Render())
		})))
	}

	report, runErr := mission.New(w, opts...).Run(ctx)
	service.WriteOutcome(csvLog, report, runErr)
	summary := service.Summarize(report)

	switch {
	case runErr == nil:
		fmt.Fprintf(out, "Mission complete in %d commands: %s\n", summary.Commands, summary.Sequence)
		if summary.ReturnLen > 0 {
			fmt.Fprintf(out, "Return route: %d steps\n", summary.ReturnLen)
		}
	case errors.Is(runErr, mission.ErrTrappedAgent), errors.Is(runErr, mission.ErrDeadEnd), errors.Is(runErr, mission.ErrSensorFault):
		fmt.Fprintf(out, "Mission aborted: %v\n", runErr)
	default:
		fmt.Fprintf(out, "Mission failed: %v\n", runErr)
	}
	if report != nil && report.KnownMap != "" {
		fmt.Fprintf(out, "\nExplored area:\n%s", report.KnownMap)
	}
	fmt.Fprintf(out, "\n%s\nActivity log: %s\n", w.Render(), csvLog.Path())
	return runErr
}
