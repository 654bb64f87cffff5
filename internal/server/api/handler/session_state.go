package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/server/api"
)

// SessionState returns a handler reporting the state of session {id}.
func SessionState(reg *headless.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		id := req.Params["id"]
		s := reg.Get(id)
		if s == nil {
			return api.ErrNotFound(fmt.Sprintf("session %s not found", id))
		}
		out, err := json.Marshal(s.State())
		if err != nil {
			return api.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(out)
		return nil
	}
}
