package api_test

import (
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latinkbd/kbdswitch/internal/server/api"
)

func TestRouterMatch(t *testing.T) {
	r := api.NewRouter()
	noop := func(*api.Request, *api.Response, *slog.Logger) error { return nil }
	r.Register("session/list", noop)
	r.Register("session/{id}/state", noop)
	r.RegisterStream("session/{sessionId}/stream", func(net.Conn, map[string]string, *slog.Logger) error { return nil })

	tests := []struct {
		name       string
		path       string
		wantMatch  bool
		wantStream bool
		wantParams map[string]string
	}{
		{name: "static", path: "session/list", wantMatch: true, wantParams: map[string]string{}},
		{name: "placeholder", path: "session/12/state", wantMatch: true, wantParams: map[string]string{"id": "12"}},
		{name: "case folded", path: "SESSION/3/STATE", wantMatch: true, wantParams: map[string]string{"id": "3"}},
		{name: "stream keeps param case", path: "session/5/stream", wantStream: true, wantParams: map[string]string{"sessionId": "5"}},
		{name: "too short", path: "session", wantMatch: false},
		{name: "too long", path: "session/1/state/x", wantMatch: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, params := r.Match(tt.path)
			sh, sparams := r.MatchStream(tt.path)
			switch {
			case tt.wantMatch:
				assert.NotNil(t, h)
				assert.Equal(t, tt.wantParams, params)
				assert.Nil(t, sh)
			case tt.wantStream:
				assert.Nil(t, h)
				assert.NotNil(t, sh)
				assert.Equal(t, tt.wantParams, sparams)
			default:
				assert.Nil(t, h)
				assert.Nil(t, sh)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, api.WrapError(nil))
	assert.Equal(t, 401, api.WrapError(api.ErrUnauthorized("x")).Status)
	assert.Equal(t, 500, api.WrapError(assert.AnError).Status)
}
