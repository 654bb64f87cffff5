package api_test

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latinkbd/kbdswitch/apiclient"
	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/server/api"
	"github.com/latinkbd/kbdswitch/internal/server/api/auth"
	th "github.com/latinkbd/kbdswitch/internal/testing"
)

func echoPayload(req *api.Request, res *api.Response, _ *slog.Logger) error {
	res.JSON = fmt.Sprintf(`{"payload":%q}`, req.Payload)
	return nil
}

func TestAPIServer_Requests(t *testing.T) {
	addr, _, done := th.StartAPIServer(t, func(r *api.Router, _ *headless.Registry, _ *api.Server) {
		r.Register("echo", echoPayload)
		r.Register("empty", func(*api.Request, *api.Response, *slog.Logger) error { return nil })
		r.Register("fail", func(*api.Request, *api.Response, *slog.Logger) error { return errors.New("boom") })
		r.Register("conflict", func(*api.Request, *api.Response, *slog.Logger) error { return api.ErrConflict("taken") })
	})
	defer done()

	tests := []struct {
		name string
		cmd  string
		want string
	}{
		{name: "payload after first whitespace", cmd: "echo a b\nc", want: `{"payload":"a b\nc"}`},
		{name: "path is case-insensitive", cmd: "ECHO x", want: `{"payload":"x"}`},
		{name: "empty success", cmd: "empty", want: ""},
		{name: "plain error wrapped as internal", cmd: "fail", want: `{"status":500,"title":"Internal Server Error","detail":"boom"}`},
		{name: "api error passed through", cmd: "conflict", want: `{"status":409,"title":"Conflict","detail":"taken"}`},
		{name: "unknown path", cmd: "nope", want: `{"status":404,"title":"Not Found","detail":"unknown path: nope"}`},
		{name: "empty request", cmd: "", want: `{"status":400,"title":"Bad Request","detail":"empty request"}`},
		{name: "empty path", cmd: " x", want: `{"status":400,"title":"Bad Request","detail":"empty path"}`},
		{name: "handshake without auth", cmd: auth.HandshakeMagic[:len(auth.HandshakeMagic)-1], want: `{"status":400,"title":"Bad Request","detail":"authentication is not enabled on this server"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, th.ExecCmd(t, addr, tt.cmd))
		})
	}
}

func TestAPIServer_PasswordRequired(t *testing.T) {
	cfg := api.ServerConfig{Password: "s3cret"}
	addr, _, done := th.StartAPIServerWithConfig(t, cfg, func(r *api.Router, _ *headless.Registry, _ *api.Server) {
		r.Register("echo", echoPayload)
	})
	defer done()

	t.Run("plain request rejected", func(t *testing.T) {
		assert.Equal(t, `{"status":401,"title":"Unauthorized","detail":"authentication required"}`, th.ExecCmd(t, addr, "echo hi"))
	})

	t.Run("correct password", func(t *testing.T) {
		line, err := apiclient.NewTransportWithPassword(addr, "s3cret").Do("echo", "hi", nil)
		require.NoError(t, err)
		assert.Equal(t, `{"payload":"hi"}`, line)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := apiclient.NewTransportWithPassword(addr, "guess").Do("echo", "hi", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid password")
	})
}

func TestAPIServer_StreamHandlerError_ClosesConn(t *testing.T) {
	sentinel := fmt.Errorf("boom")
	got := make(chan map[string]string, 1)
	addr, _, done := th.StartAPIServer(t, func(r *api.Router, _ *headless.Registry, _ *api.Server) {
		r.RegisterStream("session/{id}/stream", func(conn net.Conn, params map[string]string, l *slog.Logger) error {
			got <- params
			return sentinel
		})
	})
	defer done()

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()
	_, err = fmt.Fprintf(c, "session/7/stream\x00")
	require.NoError(t, err)

	select {
	case params := <-got:
		assert.Equal(t, map[string]string{"id": "7"}, params)
	case <-time.After(time.Second):
		t.Fatal("stream handler not called")
	}

	buf := make([]byte, 1)
	_ = c.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	_, readErr := c.Read(buf)
	require.Error(t, readErr)
}

func TestAPIServer_StreamKeepsBufferedBytes(t *testing.T) {
	addr, _, done := th.StartAPIServer(t, func(r *api.Router, _ *headless.Registry, _ *api.Server) {
		r.RegisterStream("echo/stream", func(conn net.Conn, _ map[string]string, _ *slog.Logger) error {
			defer conn.Close()
			line, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				return err
			}
			_, err = conn.Write([]byte(line))
			return err
		})
	})
	defer done()

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()
	// Path and first line in one write so both land in the server's buffer.
	_, err = c.Write([]byte("echo/stream\x00hello\n"))
	require.NoError(t, err)

	_ = c.SetReadDeadline(time.Now().Add(time.Second))
	line, err := bufio.NewReader(c).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\n", line)
}

func TestServerAddr(t *testing.T) {
	srv := api.New(headless.NewRegistry(th.Options()), "127.0.0.1:0", api.ServerConfig{}, slog.Default())
	assert.Equal(t, "127.0.0.1:0", srv.Addr())
	require.NoError(t, srv.Start())
	defer srv.Close()
	assert.NotEqual(t, "127.0.0.1:0", srv.Addr())
	assert.NotNil(t, srv.Sessions())
}
