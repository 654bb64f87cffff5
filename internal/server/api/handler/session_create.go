package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/server/api"
)

// SessionCreate returns a handler that starts a session. The optional payload
// is a JSON SessionCreateRequest; the response is the new session's state.
func SessionCreate(reg *headless.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		var in apitypes.SessionCreateRequest
		if p := strings.TrimSpace(req.Payload); p != "" {
			dec := json.NewDecoder(bytes.NewReader([]byte(p)))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&in); err != nil {
				return api.ErrBadRequest(fmt.Sprintf("invalid session request: %v", err))
			}
		}
		s, err := reg.Create(in)
		if err != nil {
			return api.EventError(err)
		}
		logger.Info("session created", "session", s.ID())
		out, err := json.Marshal(s.State())
		if err != nil {
			return api.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(out)
		return nil
	}
}
