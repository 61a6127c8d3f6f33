package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"inkwell/internal/models"

	"github.com/gorilla/websocket"
)

// feedClient talks to the API over HTTP for credentials and over a websocket
// for the admin activity stream.
type feedClient struct {
	baseURL *url.URL
	http    *http.Client
	dialer  *websocket.Dialer
}

// frame mirrors the envelope the server writes to admin sockets.
type frame struct {
	Type    string          `json:"type"`
	Payload models.Activity `json:"payload"`
}

func newFeedClient(rawURL string) (*feedClient, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url must be http(s), got %q", rawURL)
	}
	return &feedClient{
		baseURL: u,
		http:    &http.Client{Timeout: 5 * time.Second},
		dialer:  websocket.DefaultDialer,
	}, nil
}

func (c *feedClient) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

func (c *feedClient) postJSON(ctx context.Context, path, token string, body, dst any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var apiErr models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, apiErr.Error)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (c *feedClient) login(ctx context.Context, email, password string) (string, error) {
	var result struct {
		AccessToken string `json:"access_token"`
	}
	err := c.postJSON(ctx, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	return result.AccessToken, err
}

func (c *feedClient) ticket(ctx context.Context, token string) (string, error) {
	var result struct {
		Ticket string `json:"ticket"`
	}
	err := c.postJSON(ctx, "/api/ws/ticket", token, nil, &result)
	return result.Ticket, err
}

// tail exchanges token for a ticket, connects to the admin feed and calls
// onActivity for every activity frame until ctx ends or the server closes.
func (c *feedClient) tail(ctx context.Context, token string, onActivity func(models.Activity)) error {
	ticket, err := c.ticket(ctx, token)
	if err != nil {
		return err
	}

	u := *c.baseURL
	u.Scheme = "ws"
	if c.baseURL.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = "/api/ws/notifications"
	u.RawQuery = url.Values{"ticket": {ticket}}.Encode()

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		return fmt.Errorf("dial admin feed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read admin feed: %w", err)
		}
		if f.Type == "activity" {
			onActivity(f.Payload)
		}
	}
}
