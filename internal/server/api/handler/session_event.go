package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/server/api"
)

// SessionEvent returns a handler that applies one JSON event to session {id}
// and responds with the resulting state.
func SessionEvent(reg *headless.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		id := req.Params["id"]
		s := reg.Get(id)
		if s == nil {
			return api.ErrNotFound(fmt.Sprintf("session %s not found", id))
		}
		if req.Payload == "" {
			return api.ErrBadRequest("missing event payload")
		}
		ev, err := apitypes.ParseEvent([]byte(req.Payload))
		if err != nil {
			return api.ErrBadRequest(err.Error())
		}
		state, err := s.Apply(ev)
		if err != nil {
			return api.EventError(err)
		}
		out, err := json.Marshal(state)
		if err != nil {
			return api.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(out)
		return nil
	}
}
