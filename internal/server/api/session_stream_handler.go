package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/headless"
)

// maxEventLine bounds a single streamed event.
const maxEventLine = 64 * 1024

// SessionStreamHandler returns a stream handler that applies newline-delimited
// JSON events to the session named by the {id} route parameter. Every event is
// answered with one line: the resulting SessionState, or a problem+json error.
// The stream ends when the client disconnects or the session is removed.
func SessionStreamHandler(reg *headless.Registry) StreamHandlerFunc {
	return func(conn net.Conn, params map[string]string, logger *slog.Logger) error {
		defer conn.Close()

		id := params["id"]
		if reg.Get(id) == nil {
			writeProblem(conn, ErrNotFound(fmt.Sprintf("session %s not found", id)))
			return nil
		}
		logger = logger.With("session", id)

		sc := bufio.NewScanner(conn)
		sc.Buffer(make([]byte, 0, 4096), maxEventLine)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			s := reg.Get(id)
			if s == nil {
				writeProblem(conn, ErrNotFound(fmt.Sprintf("session %s was removed", id)))
				return nil
			}
			ev, err := apitypes.ParseEvent([]byte(line))
			if err != nil {
				writeProblem(conn, ErrBadRequest(err.Error()))
				continue
			}
			state, err := s.Apply(ev)
			if err != nil {
				logger.Debug("stream event failed", "type", ev.Type, "error", err)
				writeProblem(conn, EventError(err))
				continue
			}
			out, err := json.Marshal(state)
			if err != nil {
				return fmt.Errorf("marshal state: %w", err)
			}
			if _, err := fmt.Fprintf(conn, "%s\n", out); err != nil {
				return fmt.Errorf("write state: %w", err)
			}
		}
		if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("read events: %w", err)
		}
		return nil
	}
}

// EventError maps a failed session event to its API error.
func EventError(err error) *apitypes.ApiError {
	switch {
	case errors.Is(err, headless.ErrUnknownEvent), errors.Is(err, headless.ErrInvalidEvent):
		return ErrBadRequest(err.Error())
	default:
		return ErrInternal(err.Error())
	}
}

func writeProblem(w io.Writer, err error) {
	problemJSON, _ := json.Marshal(WrapError(err))
	fmt.Fprintf(w, "%s\n", string(problemJSON))
}
