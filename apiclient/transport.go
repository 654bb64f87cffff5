package apiclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/latinkbd/kbdswitch/internal/server/api/auth"
)

// ErrNoResponse is returned when the server closes a request connection
// without answering.
var ErrNoResponse = errors.New("server closed the connection without a response")

// Config controls low-level transport behavior such as timeouts.
type Config struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Password enables the authentication handshake and encrypts every
	// connection.
	Password string
}

func defaultConfig() Config {
	return Config{
		DialTimeout:  3 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Transport speaks the session server's request protocol. Each request uses
// its own connection:
//
//	client: <path>[ <payload>]\x00
//	server: <response line>\n, then close
//
// Only the null byte ends a request, so payloads may span lines. Paths are
// case-insensitive and sent lowercased.
type Transport struct {
	addr string
	mock func(path string, payload any, pathParams map[string]string) (string, error)
	cfg  Config
}

func NewTransport(addr string) *Transport { return NewTransportWithConfig(addr, nil) }

func NewTransportWithPassword(addr, password string) *Transport {
	cfg := defaultConfig()
	cfg.Password = password
	return NewTransportWithConfig(addr, &cfg)
}

// NewTransportWithConfig uses the default timeouts when cfg is nil.
func NewTransportWithConfig(addr string, cfg *Config) *Transport {
	c := defaultConfig()
	if cfg != nil {
		c = *cfg
	}
	return &Transport{addr: addr, cfg: c}
}

// NewMockTransport answers every request with responder instead of the
// network. The responder sees the unfilled path pattern.
func NewMockTransport(responder func(path string, payload any, pathParams map[string]string) (string, error)) *Transport {
	return &Transport{addr: "mock", mock: responder, cfg: defaultConfig()}
}

// Do sends one request and returns the response without its trailing
// newline. A []byte or string payload is sent verbatim, nil or "" sends
// none, and anything else is encoded as JSON.
func (t *Transport) Do(path string, payload any, pathParams map[string]string) (string, error) {
	return t.DoCtx(context.Background(), path, payload, pathParams)
}

// DoCtx is Do bounded by ctx: cancelling ctx aborts the request.
func (t *Transport) DoCtx(ctx context.Context, path string, payload any, pathParams map[string]string) (string, error) {
	if t.mock != nil {
		return t.mock(path, payload, pathParams)
	}
	req, err := encodeRequest(path, payload, pathParams)
	if err != nil {
		return "", err
	}
	conn, err := t.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := conn.Write(req); err != nil {
		return "", fmt.Errorf("write: %w", ctxErr(ctx, err))
	}
	if d := t.readDeadline(ctx); !d.IsZero() {
		_ = conn.SetReadDeadline(d)
	}
	resp, err := io.ReadAll(conn)
	if len(resp) == 0 {
		if err != nil {
			return "", fmt.Errorf("read: %w", ctxErr(ctx, err))
		}
		return "", ErrNoResponse
	}
	return strings.TrimSuffix(string(resp), "\n"), nil
}

func (t *Transport) readDeadline(ctx context.Context) time.Time {
	var d time.Time
	if t.cfg.ReadTimeout > 0 {
		d = time.Now().Add(t.cfg.ReadTimeout)
	}
	if cd, ok := ctx.Deadline(); ok && (d.IsZero() || cd.Before(d)) {
		d = cd
	}
	return d
}

// ctxErr prefers the context's error over the I/O error it caused.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// dial connects to the server and, when a password is configured, completes
// the authentication handshake and returns the encrypted connection.
func (t *Transport) dial(ctx context.Context) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	d := &net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			slog.Warn("failed to set TCP_NODELAY", "error", err)
		}
	}
	if t.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}
	if t.cfg.Password == "" {
		return conn, nil
	}

	key, err := auth.DeriveKey(t.cfg.Password)
	if err != nil {
		conn.Close()
		return nil, err
	}
	nonces, err := auth.ClientHandshake(bufio.NewReader(conn), conn, key)
	if err != nil {
		conn.Close()
		return nil, err
	}
	secured, err := auth.WrapConn(conn, nonces.SessionKey(key), auth.RoleClient)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return secured, nil
}

func encodeRequest(path string, payload any, params map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fillPath(path, params))
	body, err := payloadBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload for %s: %w", path, err)
	}
	if len(body) > 0 {
		buf.WriteByte(' ')
		buf.Write(body)
	}
	buf.WriteByte(0)
	return buf.Bytes(), nil
}

func fillPath(pattern string, params map[string]string) string {
	out := pattern
	for k, v := range params {
		out = strings.ReplaceAll(out, "{"+k+"}", url.PathEscape(v))
	}
	return strings.ToLower(out)
}

func payloadBytes(v any) ([]byte, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		return json.Marshal(v)
	}
}
