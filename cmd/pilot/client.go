package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/rescuebot/game/service"
)

// Client talks to the rescue robot REST API
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) CreateSession(ctx context.Context, mapID string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	body := map[string]string{"map_id": mapID}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+id, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+id, nil, nil)
}

func (c *Client) Reset(ctx context.Context, id string) (*service.StateView, error) {
	var state service.StateView
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+id+"/reset", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Execute(ctx context.Context, id, commands string) (*service.CommandResult, error) {
	var result service.CommandResult
	body := map[string]string{"commands": commands}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+id+"/commands", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListMaps(ctx context.Context) ([]*service.MapInfo, error) {
	var maps []*service.MapInfo
	if err := c.do(ctx, http.MethodGet, "/api/maps", nil, &maps); err != nil {
		return nil, err
	}
	return maps, nil
}
