package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/server/api/auth"
)

var wsRegex = regexp.MustCompile(`\s`)

// Server implements a small TCP API for driving headless keyboard sessions.
type Server struct {
	sessions *headless.Registry
	addr     string
	ln       net.Listener
	lnMu     sync.Mutex
	logger   *slog.Logger
	router   *Router
	config   ServerConfig
	key      []byte
}

// New creates a new API server serving the sessions of reg.
func New(reg *headless.Registry, addr string, config ServerConfig, logger *slog.Logger) *Server {
	a := &Server{
		sessions: reg,
		addr:     addr,
		logger:   logger,
		config:   config,
	}
	a.router = NewRouter()
	return a
}

// Router returns the router used by the API server so callers can register handlers.
func (a *Server) Router() *Router { return a.router }

// Sessions returns the session registry.
func (a *Server) Sessions() *headless.Registry { return a.sessions }

// Config returns the server configuration.
func (a *Server) Config() ServerConfig { return a.config }

// Addr returns the listening address once started, the configured one before.
func (a *Server) Addr() string {
	a.lnMu.Lock()
	defer a.lnMu.Unlock()
	if a.ln != nil {
		return a.ln.Addr().String()
	}
	return a.addr
}

// Start listens on the configured address and serves incoming API commands.
func (a *Server) Start() error {
	if a.config.Password != "" {
		key, err := auth.DeriveKey(a.config.Password)
		if err != nil {
			return fmt.Errorf("derive API key: %w", err)
		}
		a.key = key
	}
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}
	a.lnMu.Lock()
	a.ln = ln
	a.lnMu.Unlock()
	a.logger.Info("API listening", "addr", ln.Addr().String(), "auth", a.key != nil)
	go a.serve(ln)
	return nil
}

// Close stops the API server. Open streams keep running until their client
// disconnects.
func (a *Server) Close() {
	a.lnMu.Lock()
	defer a.lnMu.Unlock()
	if a.ln != nil {
		_ = a.ln.Close()
	}
}

func (a *Server) serve(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				a.logger.Info("API server stopped")
				return
			}
			a.logger.Info("API accept error", "error", err)
			return
		}
		go a.handleConn(c)
	}
}

func (a *Server) writeError(w io.Writer, err error) {
	writeProblem(w, err)
}

func (a *Server) writeOK(w io.Writer, rest string) {
	if rest == "" {
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "%s\n", rest)
	}
}

// bufferedConn reads through r so bytes already buffered while parsing the
// request are not lost when the connection changes hands.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) { return c.r.Read(p) }

// authenticate runs the server side of the handshake and returns the
// encrypted connection.
func (a *Server) authenticate(conn net.Conn, r *bufio.Reader) (net.Conn, error) {
	ok, err := auth.IsHandshake(r)
	if err != nil || !ok {
		return nil, ErrUnauthorized("authentication required")
	}
	nonces, err := auth.ServerHandshake(r, conn, a.key)
	if err != nil {
		return nil, err
	}
	secured, err := auth.WrapConn(&bufferedConn{Conn: conn, r: r}, nonces.SessionKey(a.key), auth.RoleServer)
	if err != nil {
		return nil, err
	}
	return secured, nil
}

func (a *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connCtx, connCancel := context.WithCancel(context.Background())
	defer connCancel()

	connLogger := a.logger.With("remote", conn.RemoteAddr().String())
	if a.config.ConnectionTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(a.config.ConnectionTimeout))
	}

	var c net.Conn = conn
	r := bufio.NewReader(conn)
	if a.key != nil {
		secured, err := a.authenticate(conn, r)
		if err != nil {
			connLogger.Warn("api authentication failed", "error", err)
			a.writeError(conn, err)
			return
		}
		c = secured
		r = bufio.NewReader(secured)
	}
	w := c

	// Read until null terminator
	reqData, err := r.ReadString('\x00')
	if err != nil {
		if err == io.EOF {
			connLogger.Error("api incomplete request (no null terminator)")
		} else {
			connLogger.Error("read api data", "error", err)
		}
		return
	}
	if a.key == nil && reqData == auth.HandshakeMagic {
		a.writeError(w, ErrBadRequest("authentication is not enabled on this server"))
		return
	}
	// Remove null terminator
	reqData = strings.TrimSuffix(reqData, "\x00")

	if reqData == "" {
		connLogger.Error("api empty command")
		a.writeError(w, ErrBadRequest("empty request"))
		return
	}

	// Split on first whitespace character
	var path, payload string
	if loc := wsRegex.FindStringIndex(reqData); loc != nil {
		path = reqData[:loc[0]]
		payload = reqData[loc[1]:]
	} else {
		path = reqData
	}

	if path == "" {
		connLogger.Error("api empty path")
		a.writeError(w, ErrBadRequest("empty path"))
		return
	}

	path = strings.ToLower(path)
	connLogger.Info("api cmd", "path", path)

	if h, params := a.router.Match(path); h != nil {
		req := &Request{Ctx: connCtx, Params: params, Payload: payload}
		res := &Response{}
		if err := h(req, res, connLogger); err != nil {
			connLogger.Error("api handler error", "path", path, "error", err)
			a.writeError(w, err)
			return
		}
		connLogger.Debug("api handler success", "path", path)
		a.writeOK(w, res.JSON)
		return
	} else if sh, params := a.router.MatchStream(path); sh != nil {
		connLogger.Info("api stream begin", "path", path)
		_ = conn.SetDeadline(time.Time{})

		// Stream handler takes ownership of connection
		if err := sh(&bufferedConn{Conn: c, r: r}, params, connLogger); err != nil {
			connLogger.Error("api stream handler error", "path", path, "error", err)
		}
		connLogger.Info("api stream end", "path", path)
		return
	}
	connLogger.Error("api unknown path", "path", path)
	a.writeError(w, ErrNotFound(fmt.Sprintf("unknown path: %s", path)))
}
