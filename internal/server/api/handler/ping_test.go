package handler_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latinkbd/kbdswitch/apiclient"
	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/server/api"
	"github.com/latinkbd/kbdswitch/internal/server/api/handler"
	handlerTest "github.com/latinkbd/kbdswitch/internal/testing"
	"github.com/latinkbd/kbdswitch/internal/version"
)

func TestPing(t *testing.T) {
	addr, _, done := handlerTest.StartAPIServer(t, func(r *api.Router, reg *headless.Registry, apiSrv *api.Server) {
		r.Register("ping", handler.Ping())
	})
	defer done()

	line, err := apiclient.NewTransport(addr).Do("ping", nil, nil)
	require.NoError(t, err)
	var resp apitypes.PingResponse
	require.NoError(t, json.Unmarshal([]byte(line), &resp))
	assert.Equal(t, handler.ServerName, resp.Server)
	assert.Equal(t, version.String(), resp.Version)
}
