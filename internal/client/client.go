// Package client provides an HTTP client for the Boardroom server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/boardroom/internal/api"
	"github.com/raphaelgruber/boardroom/internal/metrics"
	"github.com/raphaelgruber/boardroom/internal/models"
)

// Client talks to the Boardroom HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses BOARDROOM_SERVER_URL env var or defaults to localhost:8484.
// Timeout can be configured via BOARDROOM_CLIENT_TIMEOUT env var (default 5m, a turn waits on every persona).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("BOARDROOM_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8484"
	}

	timeout := 5 * time.Minute
	if t := os.Getenv("BOARDROOM_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error: %d %s - %s", e.Status, http.StatusText(e.Status), e.Message)
}

// do sends a JSON request and decodes the JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp api.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// StartConversation opens a conversation.
func (c *Client) StartConversation(ctx context.Context, req api.StartRequest) (*models.Conversation, error) {
	var conv models.Conversation
	if err := c.do(ctx, http.MethodPost, "/conversations", req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// SendMessage runs one turn and waits for every reply.
func (c *Client) SendMessage(ctx context.Context, conversationID string, req api.SendRequest) (*models.TurnResult, error) {
	var result models.TurnResult
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EndConversation summarizes and closes a conversation.
func (c *Client) EndConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	path := "/conversations/" + url.PathEscape(conversationID) + "/end"
	if err := c.do(ctx, http.MethodPost, path, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetConversation fetches a conversation, optionally with its messages.
func (c *Client) GetConversation(ctx context.Context, conversationID string, withMessages bool) (*models.Conversation, error) {
	var conv models.Conversation
	path := "/conversations/" + url.PathEscape(conversationID)
	if withMessages {
		path += "?messages=true"
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the conversations a user started, newest first.
func (c *Client) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	path := "/users/" + url.PathEscape(userID) + "/conversations"
	if err := c.do(ctx, http.MethodGet, path, nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// ListPersonas returns the board personas.
func (c *Client) ListPersonas(ctx context.Context, activeOnly bool) ([]models.Persona, error) {
	var personas []models.Persona
	path := "/personas"
	if activeOnly {
		path += "?active=true"
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &personas); err != nil {
		return nil, err
	}
	return personas, nil
}

// SetPersonaStatus changes the availability of a board seat.
func (c *Client) SetPersonaStatus(ctx context.Context, role, status string) error {
	path := "/personas/" + url.PathEscape(role) + "/status"
	return c.do(ctx, http.MethodPut, path, api.StatusRequest{Status: status}, nil)
}

// Stats returns in-memory runtime statistics.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// LiveHandlers receive the frames of a live turn. Nil handlers are skipped.
type LiveHandlers struct {
	OnRoute func(personas []models.Persona)
	OnReply func(reply models.Message)
}

// SendMessageLive runs one turn over the live socket, invoking handlers as
// the route is decided and as each reply lands. It returns the final result.
func (c *Client) SendMessageLive(ctx context.Context, conversationID string, req api.SendRequest, h LiveHandlers) (*models.TurnResult, error) {
	wsEndpoint := c.baseURL
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/conversations/" + url.PathEscape(conversationID) + "/live")
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	// Track connection state for proper cleanup
	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	if err := conn.WriteJSON(api.SendFrame(req)); err != nil {
		return nil, fmt.Errorf("send frame: %w", err)
	}

	// Handle context cancellation in a separate goroutine
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var frame api.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read frame: %w", err)
		}

		switch frame.Type {
		case api.FrameRoute:
			if h.OnRoute != nil {
				h.OnRoute(frame.Personas)
			}
		case api.FrameReply:
			if h.OnReply != nil && frame.Reply != nil {
				h.OnReply(*frame.Reply)
			}
		case api.FrameDone:
			if frame.Result == nil {
				return nil, fmt.Errorf("done frame without result")
			}
			return frame.Result, nil
		case api.FrameError:
			return nil, &APIError{Status: frame.Status, Message: frame.Error}
		default:
			// Ignore unknown frame types
			continue
		}
	}
}
