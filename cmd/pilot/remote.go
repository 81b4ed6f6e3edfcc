package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/rescuebot/game/service"
	"github.com/wricardo/mcp-training/rescuebot/game/world"
)

// commandErrors are the world errors a failed command can report
var commandErrors = []error{
	world.ErrCollision,
	world.ErrNoObjectAdjacent,
	world.ErrNotCarrying,
	world.ErrNotAtExit,
	world.ErrInvalidInput,
}

// remoteError restores the sentinel behind an error message returned by the API
func remoteError(msg string) error {
	for _, sentinel := range commandErrors {
		if strings.HasPrefix(msg, sentinel.Error()) {
			return fmt.Errorf("%w%s", sentinel, strings.TrimPrefix(msg, sentinel.Error()))
		}
	}
	return errors.New(msg)
}

// remoteWorld drives a server-side session one command per request. Sense and
// State are answered from the state returned by the last request, so only
// Execute touches the network.
type remoteWorld struct {
	// ctx bounds every request, the agent interface carries none
	ctx       context.Context
	client    *Client
	sessionID string
	state     *service.StateView
	requests  int
}

func newRemoteWorld(ctx context.Context, client *Client, sessionID string, state *service.StateView) *remoteWorld {
	return &remoteWorld{ctx: ctx, client: client, sessionID: sessionID, state: state}
}

func (r *remoteWorld) Name() string {
	return r.state.MapName
}

func (r *remoteWorld) Sense() world.Readings {
	return r.state.Readings
}

func (r *remoteWorld) State() world.AgentState {
	return r.state.Agent
}

// Execute sends one command. Transport failures are returned as is.
func (r *remoteWorld) Execute(cmd world.Command) error {
	r.requests++
	res, err := r.client.Execute(r.ctx, r.sessionID, cmd.String())
	if err != nil {
		return err
	}
	if res.State != nil {
		r.state = res.State
	}
	if !res.Success {
		return remoteError(res.Error)
	}
	return nil
}

// Snapshot parses the grid from the last known state
func (r *remoteWorld) Snapshot() *world.Grid {
	grid, err := world.ParseLines(r.state.Grid)
	if err != nil {
		return world.NewGrid(nil)
	}
	return grid
}
