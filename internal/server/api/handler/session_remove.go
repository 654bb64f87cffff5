package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/server/api"
)

// SessionRemove returns a handler that closes the session named in the payload.
func SessionRemove(reg *headless.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		id := strings.TrimSpace(req.Payload)
		if id == "" {
			return api.ErrBadRequest("missing session id")
		}
		if err := reg.Remove(id); err != nil {
			if errors.Is(err, headless.ErrSessionNotFound) {
				return api.ErrNotFound(fmt.Sprintf("session %s not found", id))
			}
			return err
		}
		logger.Info("session removed", "session", id)
		out, err := json.Marshal(apitypes.SessionRemoveResponse{ID: id})
		if err != nil {
			return api.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(out)
		return nil
	}
}
