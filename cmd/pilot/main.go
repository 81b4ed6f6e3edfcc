// Command pilot flies a rescue mission against a running server. It creates
// (or resumes) a session over the REST API and drives the robot one command
// per request, so the mission sees nothing but what the sensors report.
//
// Usage: pilot [--url http://localhost:8080] [--map name] [--session id] [--all]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rescuebot/game/explore"
	"github.com/wricardo/mcp-training/rescuebot/game/mission"
	"github.com/wricardo/mcp-training/rescuebot/game/service"
)

type options struct {
	mapID     string
	sessionID string
	keep      bool
	verbose   bool
	scan      explore.ScanMode
	maxIter   int
	delay     time.Duration
}

// flight is the outcome of one remote mission
type flight struct {
	SessionID string
	MapName   string
	Summary   *service.Summary
	Requests  int
	Err       error
}

func main() {
	cmd := &cli.Command{
		Name:  "pilot",
		Usage: "Fly a rescue mission through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Server URL", Sources: cli.EnvVars("RESCUE_URL")},
			&cli.StringFlag{Name: "map", Usage: "Map to fly (server default when empty)"},
			&cli.StringFlag{Name: "session", Usage: "Resume an existing session by ID (it is reset first)"},
			&cli.BoolFlag{Name: "all", Usage: "Fly every map the server lists"},
			&cli.BoolFlag{Name: "keep", Usage: "Keep the sessions created for the flight"},
			&cli.StringFlag{Name: "scan", Value: string(explore.ScanFull), Usage: "Neighbour scan mode: full or lazy"},
			&cli.IntFlag{Name: "max-iterations", Value: explore.DefaultMaxIterations, Usage: "Exploration iteration budget"},
			&cli.IntFlag{Name: "delay", Usage: "Delay between commands in milliseconds"},
			&cli.BoolFlag{Name: "v", Usage: "Log every mission event"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer log.Sync()

			scan, err := explore.ParseScanMode(cmd.String("scan"))
			if err != nil {
				return err
			}
			opts := options{
				mapID:     cmd.String("map"),
				sessionID: cmd.String("session"),
				keep:      cmd.Bool("keep"),
				verbose:   cmd.Bool("v"),
				scan:      scan,
				maxIter:   int(cmd.Int("max-iterations")),
				delay:     time.Duration(cmd.Int("delay")) * time.Millisecond,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := NewClient(cmd.String("url"))
			log.Info("connecting to rescue server", zap.String("url", cmd.String("url")))

			if !cmd.Bool("all") {
				f := fly(ctx, log, client, opts)
				printFlight(os.Stdout, f)
				return f.Err
			}

			flights, err := flyAll(ctx, log, client, opts)
			if err != nil {
				return err
			}
			failed := 0
			for _, f := range flights {
				printFlight(os.Stdout, f)
				if f.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d missions failed", failed, len(flights))
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// fly runs one mission on a new session, or on opts.sessionID after a reset
func fly(ctx context.Context, log *zap.Logger, client *Client, opts options) *flight {
	f := &flight{MapName: opts.mapID}

	var state *service.StateView
	if opts.sessionID != "" {
		f.SessionID = opts.sessionID
		log.Info("resuming session", zap.String("session_id", opts.sessionID))
		state, f.Err = client.Reset(ctx, opts.sessionID)
	} else {
		var info *service.SessionInfo
		info, f.Err = client.CreateSession(ctx, opts.mapID)
		if f.Err == nil {
			f.SessionID = info.ID
			state = info.State
			log.Info("session created", zap.String("session_id", info.ID), zap.String("map", info.MapName))
			if !opts.keep {
				defer func() {
					if err := client.DeleteSession(context.Background(), info.ID); err != nil {
						log.Warn("failed to delete session", zap.String("session_id", info.ID), zap.Error(err))
					}
				}()
			}
		}
	}
	if f.Err != nil {
		return f
	}
	if state == nil {
		f.Err = fmt.Errorf("session %s returned no state", f.SessionID)
		return f
	}
	f.MapName = state.MapName

	remote := newRemoteWorld(ctx, client, f.SessionID, state)
	missionOpts := []mission.Option{
		mission.WithLogger(log.Named("mission")),
		mission.WithExploreOptions(explore.WithScanMode(opts.scan), explore.WithMaxIterations(opts.maxIter)),
	}
	if opts.verbose || opts.delay > 0 {
		missionOpts = append(missionOpts, mission.WithNotifier(mission.NotifierFunc(func(ev mission.Event) {
			if opts.verbose {
				log.Info("mission event",
					zap.String("type", string(ev.Type)),
					zap.String("state", string(ev.State)),
					zap.String("position", ev.Agent.Position.String()),
					zap.String("heading", ev.Agent.Orientation.String()))
			}
			if opts.delay > 0 {
				time.Sleep(opts.delay)
			}
		})))
	}

	report, err := mission.New(remote, missionOpts...).Run(ctx)
	f.Summary = service.Summarize(report)
	f.Requests = remote.requests
	f.Err = err
	return f
}

// flyAll flies every listed map on its own session
func flyAll(ctx context.Context, log *zap.Logger, client *Client, opts options) ([]*flight, error) {
	maps, err := client.ListMaps(ctx)
	if err != nil {
		return nil, err
	}
	if len(maps) == 0 {
		return nil, fmt.Errorf("server lists no maps")
	}

	flights := make([]*flight, 0, len(maps))
	for _, m := range maps {
		o := opts
		o.mapID = m.MapID
		o.sessionID = ""
		flights = append(flights, fly(ctx, log, client, o))
		if ctx.Err() != nil {
			break
		}
	}
	return flights, nil
}

func printFlight(w io.Writer, f *flight) {
	fmt.Fprintf(w, "\n=== %s (session %s) ===\n", f.MapName, f.SessionID)
	if f.Summary != nil {
		fmt.Fprintf(w, "Commands: %d over %d requests\n", f.Summary.Commands, f.Requests)
		fmt.Fprintf(w, "Exploration: %d iterations, %d backtracks\n", f.Summary.Iterations, f.Summary.Backtracks)
		if f.Summary.ReturnLen > 0 {
			fmt.Fprintf(w, "Return route: %d steps\n", f.Summary.ReturnLen)
		}
	}
	if f.Err != nil {
		fmt.Fprintf(w, "❌ Mission failed: %v\n", f.Err)
		return
	}
	fmt.Fprintf(w, "✅ Rescued: %s\n", f.Summary.Sequence)
}
