package api

import (
	"context"
	"log/slog"
	"net"
	"strings"
)

// Request carries the route placeholders and the raw payload of one command.
type Request struct {
	Ctx     context.Context
	Params  map[string]string
	Payload string
}

// Response holds the JSON line written back on success.
type Response struct {
	JSON string
}

// HandlerFunc serves a single request/response command. The logger is scoped
// to the connection.
type HandlerFunc func(req *Request, res *Response, logger *slog.Logger) error

// StreamHandlerFunc owns conn until it returns. A returned error is logged by
// the server; the connection is closed either way.
type StreamHandlerFunc func(conn net.Conn, params map[string]string, logger *slog.Logger) error

// Router matches lowercased slash-separated paths against patterns such as
// "session/{id}/state".
type Router struct {
	routes  routeTable[HandlerFunc]
	streams routeTable[StreamHandlerFunc]
}

func NewRouter() *Router { return &Router{} }

// Register adds a request/response route.
func (r *Router) Register(pattern string, handler HandlerFunc) {
	r.routes.add(pattern, handler)
}

// RegisterStream adds a route whose handler takes over the connection.
func (r *Router) RegisterStream(pattern string, handler StreamHandlerFunc) {
	r.streams.add(pattern, handler)
}

// Match returns the handler registered for path, or nil.
func (r *Router) Match(path string) (HandlerFunc, map[string]string) {
	return r.routes.match(path)
}

// MatchStream returns the stream handler registered for path, or nil.
func (r *Router) MatchStream(path string) (StreamHandlerFunc, map[string]string) {
	return r.streams.match(path)
}

// segment is one pattern component: a literal, or a placeholder when param
// is set.
type segment struct {
	literal string
	param   string
}

type route[H any] struct {
	segments []segment
	handler  H
}

type routeTable[H any] []route[H]

func (t *routeTable[H]) add(pattern string, handler H) {
	parts := strings.Split(pattern, "/")
	segs := make([]segment, len(parts))
	for i, p := range parts {
		if len(p) > 2 && p[0] == '{' && p[len(p)-1] == '}' {
			// Placeholder names keep the case they were registered with.
			segs[i] = segment{param: p[1 : len(p)-1]}
			continue
		}
		segs[i] = segment{literal: strings.ToLower(p)}
	}
	*t = append(*t, route[H]{segments: segs, handler: handler})
}

func (t routeTable[H]) match(path string) (H, map[string]string) {
	parts := strings.Split(strings.ToLower(path), "/")
outer:
	for _, rt := range t {
		if len(rt.segments) != len(parts) {
			continue
		}
		params := map[string]string{}
		for i, seg := range rt.segments {
			switch {
			case seg.param != "":
				params[seg.param] = parts[i]
			case seg.literal != parts[i]:
				continue outer
			}
		}
		return rt.handler, params
	}
	var zero H
	return zero, nil
}
