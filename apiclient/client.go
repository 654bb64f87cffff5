package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apitypes "github.com/latinkbd/kbdswitch/apitypes"
)

// Client provides a high-level interface to the kbdswitch session API,
// handling request formatting, response parsing, and error handling.
type Client struct{ transport *Transport }

// New constructs a high-level API client using the internal low-level Transport.
// The addr parameter specifies the TCP address (host:port) of the kbdswitch server.
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithPassword constructs a client that authenticates with the given password.
func NewWithPassword(addr, password string) *Client {
	return &Client{transport: NewTransportWithPassword(addr, password)}
}

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport implementation.
// This is primarily useful for testing or when advanced transport configuration is needed.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Ping returns the version and identity of the server.
func (c *Client) Ping() (*apitypes.PingResponse, error) {
	return c.PingCtx(context.Background())
}

// PingCtx is the context-aware version of Ping.
func (c *Client) PingCtx(ctx context.Context) (*apitypes.PingResponse, error) {
	const path = "ping"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.PingResponse](raw)
}

// SessionCreate starts a headless keyboard session and returns its initial
// state. A nil request uses the server defaults.
func (c *Client) SessionCreate(req *apitypes.SessionCreateRequest) (*apitypes.SessionState, error) {
	return c.SessionCreateCtx(context.Background(), req)
}

func (c *Client) SessionCreateCtx(ctx context.Context, req *apitypes.SessionCreateRequest) (*apitypes.SessionState, error) {
	const path = "session/create"
	var payload any
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("marshal session create request: %w", err)
		}
		payload = b
	}
	raw, err := c.transport.DoCtx(ctx, path, payload, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.SessionState](raw)
}

// SessionList retrieves the IDs of all live sessions.
func (c *Client) SessionList() (*apitypes.SessionListResponse, error) {
	return c.SessionListCtx(context.Background())
}

func (c *Client) SessionListCtx(ctx context.Context) (*apitypes.SessionListResponse, error) {
	const path = "session/list"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.SessionListResponse](raw)
}

// SessionRemove closes a session. Open streams of the session are ended by
// the server on their next event.
func (c *Client) SessionRemove(id string) (*apitypes.SessionRemoveResponse, error) {
	return c.SessionRemoveCtx(context.Background(), id)
}

func (c *Client) SessionRemoveCtx(ctx context.Context, id string) (*apitypes.SessionRemoveResponse, error) {
	const path = "session/remove"
	raw, err := c.transport.DoCtx(ctx, path, id, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.SessionRemoveResponse](raw)
}

// SessionState returns the current state of a session.
func (c *Client) SessionState(id string) (*apitypes.SessionState, error) {
	return c.SessionStateCtx(context.Background(), id)
}

func (c *Client) SessionStateCtx(ctx context.Context, id string) (*apitypes.SessionState, error) {
	pathParams := map[string]string{"id": id}
	const path = "session/{id}/state"
	raw, err := c.transport.DoCtx(ctx, path, nil, pathParams)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.SessionState](raw)
}

// SessionEvent applies one event and returns the resulting state.
func (c *Client) SessionEvent(id string, ev apitypes.Event) (*apitypes.SessionState, error) {
	return c.SessionEventCtx(context.Background(), id, ev)
}

func (c *Client) SessionEventCtx(ctx context.Context, id string, ev apitypes.Event) (*apitypes.SessionState, error) {
	pathParams := map[string]string{"id": id}
	const path = "session/{id}/event"
	payloadBytes, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	raw, err := c.transport.DoCtx(ctx, path, payloadBytes, pathParams)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.SessionState](raw)
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
