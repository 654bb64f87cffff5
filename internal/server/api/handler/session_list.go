package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/server/api"
)

// SessionList returns a handler that lists live session IDs.
// Error logging is centralized in the API server.
func SessionList(reg *headless.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		payload := apitypes.SessionListResponse{Sessions: reg.List()}
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
