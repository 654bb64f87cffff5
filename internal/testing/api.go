// Package testing holds helpers shared by the API and client tests.
package testing

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/server/api"
	"github.com/latinkbd/kbdswitch/switcher"
)

// Options returns deterministic session options with a discarding logger.
func Options() headless.Options {
	return headless.Options{
		Switcher: switcher.Config{PackageName: "com.latinkbd", ShowSettingsKeyOption: true, DefaultThemeID: "0"},
		Logger:   discardLogger(),
	}
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// RegisterFunc lets a test install the routes it exercises.
type RegisterFunc func(r *api.Router, reg *headless.Registry, apiSrv *api.Server)

// StartAPIServer serves a fresh session registry on a free loopback port.
// The returned done func stops the server and closes every session.
func StartAPIServer(t *testing.T, register RegisterFunc) (addr string, reg *headless.Registry, done func()) {
	t.Helper()
	return StartAPIServerWithConfig(t, api.ServerConfig{}, register)
}

// StartAPIServerWithConfig is StartAPIServer with an explicit server
// configuration, e.g. to require a password.
func StartAPIServerWithConfig(t *testing.T, cfg api.ServerConfig, register RegisterFunc) (addr string, reg *headless.Registry, done func()) {
	t.Helper()
	reg = headless.NewRegistry(Options())
	srv := api.New(reg, "127.0.0.1:0", cfg, discardLogger())
	if register != nil {
		register(srv.Router(), reg, srv)
	}
	if err := srv.Start(); err != nil {
		reg.Close()
		t.Fatalf("start api server: %v", err)
	}
	return srv.Addr(), reg, func() {
		srv.Close()
		reg.Close()
	}
}

// ExecCmd sends one unauthenticated request and returns the first response
// line without its line ending.
func ExecCmd(t *testing.T, addr string, cmd string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := io.WriteString(conn, cmd+"\x00"); err != nil {
		t.Fatalf("write %q: %v", cmd, err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && err != io.EOF {
		t.Fatalf("read response to %q: %v", cmd, err)
	}
	return strings.TrimRight(line, "\r\n")
}
