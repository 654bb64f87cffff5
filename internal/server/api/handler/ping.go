package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/server/api"
	"github.com/latinkbd/kbdswitch/internal/version"
)

// ServerName identifies kbdswitch in ping responses.
const ServerName = "kbdswitch"

// Ping returns a handler reporting the server identity and version.
func Ping() api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		b, err := json.Marshal(apitypes.PingResponse{Server: ServerName, Version: version.String()})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
