package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	apitypes "github.com/latinkbd/kbdswitch/apitypes"
)

// SessionStream is a long-lived connection that applies events to one
// session. Each event is answered with the resulting state.
type SessionStream struct {
	conn   net.Conn
	r      *bufio.Reader
	cfg    Config
	ID     string
	closed bool

	mu sync.Mutex
}

// OpenStream connects to the event stream of an existing session (use
// SessionCreate first).
func (c *Client) OpenStream(ctx context.Context, id string) (*SessionStream, error) {
	if c.transport.mock != nil {
		return nil, fmt.Errorf("stream connections not supported with mock transport")
	}
	conn, err := c.transport.dial(ctx)
	if err != nil {
		return nil, err
	}

	streamPath := fmt.Sprintf("session/%s/stream\x00", id)
	if _, err := conn.Write([]byte(streamPath)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream path: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	return &SessionStream{
		conn: conn,
		r:    bufio.NewReader(conn),
		cfg:  c.transport.cfg,
		ID:   id,
	}, nil
}

// SessionCreateAndConnect creates a session and immediately connects to its
// stream. This is a convenience wrapper combining SessionCreate and OpenStream.
func (c *Client) SessionCreateAndConnect(ctx context.Context, req *apitypes.SessionCreateRequest) (*SessionStream, *apitypes.SessionState, error) {
	state, err := c.SessionCreateCtx(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	stream, err := c.OpenStream(ctx, state.ID)
	if err != nil {
		return nil, state, err
	}

	return stream, state, nil
}

// Send applies ev and waits for the resulting state. A rejected event is
// returned as *apitypes.ApiError and leaves the stream usable.
func (s *SessionStream) Send(ev apitypes.Event) (*apitypes.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("stream closed")
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	if s.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := s.conn.Write(append(b, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	if s.cfg.ReadTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
	line, err := s.r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return parse[apitypes.SessionState](strings.TrimSuffix(line, "\n"))
}

// SetReadDeadline sets the read deadline for the underlying connection.
func (s *SessionStream) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline for the underlying connection.
func (s *SessionStream) SetWriteDeadline(t time.Time) error {
	return s.conn.SetWriteDeadline(t)
}

// Close closes the stream connection.
func (s *SessionStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
