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
)

func registerSessions(r *api.Router, reg *headless.Registry, _ *api.Server) {
	r.Register("session/list", handler.SessionList(reg))
	r.Register("session/create", handler.SessionCreate(reg))
	r.Register("session/remove", handler.SessionRemove(reg))
	r.Register("session/{id}/state", handler.SessionState(reg))
	r.Register("session/{id}/event", handler.SessionEvent(reg))
}

func createTextSession(t *testing.T, reg *headless.Registry) string {
	t.Helper()
	s, err := reg.Create(apitypes.SessionCreateRequest{
		Locale: "en-US",
		Editor: &apitypes.EditorInfo{InputClass: "text"},
	})
	require.NoError(t, err)
	return s.ID()
}

func decodeState(t *testing.T, line string) apitypes.SessionState {
	t.Helper()
	var st apitypes.SessionState
	require.NoError(t, json.Unmarshal([]byte(line), &st), line)
	return st
}

func TestSessionList(t *testing.T) {
	tests := []struct {
		name             string
		sessions         int
		expectedResponse string
	}{
		{name: "empty list", expectedResponse: `{"sessions":[]}`},
		{name: "two sessions", sessions: 2, expectedResponse: `{"sessions":["1","2"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, reg, done := handlerTest.StartAPIServer(t, registerSessions)
			defer done()
			for range tt.sessions {
				createTextSession(t, reg)
			}
			line, err := apiclient.NewTransport(addr).Do("session/list", nil, nil)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedResponse, line)
		})
	}
}

func TestSessionCreate(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		wantErr  string
		validate func(t *testing.T, st apitypes.SessionState)
	}{
		{
			name:    "editor loads alphabet layout",
			payload: `{"locale":"en-US","width":320,"orientation":"landscape","editor":{"inputClass":"text"}}`,
			validate: func(t *testing.T, st apitypes.SessionState) {
				assert.Equal(t, "1", st.ID)
				assert.True(t, st.Loaded)
				assert.Equal(t, "alpha", st.Layout)
				assert.Equal(t, 320, st.Width)
				assert.Equal(t, "landscape", st.Orientation)
				assert.Equal(t, "en-US", st.Locale)
			},
		},
		{
			name:    "no editor leaves nothing displayed",
			payload: `{"locale":"de"}`,
			validate: func(t *testing.T, st apitypes.SessionState) {
				assert.False(t, st.Loaded)
				assert.Empty(t, st.Layout)
			},
		},
		{
			name:    "unknown field",
			payload: `{"locale":"en-US","colour":"red"}`,
			wantErr: `"status":400`,
		},
		{
			name:    "unsupported locale",
			payload: `{"locale":"ja"}`,
			wantErr: "unsupported locale",
		},
		{
			name:    "negative width",
			payload: `{"locale":"en-US","width":-1}`,
			wantErr: "negative width",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, reg, done := handlerTest.StartAPIServer(t, registerSessions)
			defer done()

			line, err := apiclient.NewTransport(addr).Do("session/create", tt.payload, nil)
			require.NoError(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, line, tt.wantErr)
				assert.Empty(t, reg.List())
				return
			}
			tt.validate(t, decodeState(t, line))
			assert.Len(t, reg.List(), 1)
		})
	}
}

func TestSessionRemove(t *testing.T) {
	tests := []struct {
		name             string
		payload          string
		expectedResponse string
		remaining        int
	}{
		{name: "existing", payload: "1", expectedResponse: `{"id":"1"}`},
		{name: "missing", payload: "9", expectedResponse: `{"status":404,"title":"Not Found","detail":"session 9 not found"}`, remaining: 1},
		{name: "no id", payload: "", expectedResponse: `{"status":400,"title":"Bad Request","detail":"missing session id"}`, remaining: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, reg, done := handlerTest.StartAPIServer(t, registerSessions)
			defer done()
			createTextSession(t, reg)

			line, err := apiclient.NewTransport(addr).Do("session/remove", tt.payload, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedResponse, line)
			assert.Len(t, reg.List(), tt.remaining)
		})
	}
}

func TestSessionState(t *testing.T) {
	addr, reg, done := handlerTest.StartAPIServer(t, registerSessions)
	defer done()
	id := createTextSession(t, reg)
	c := apiclient.NewTransport(addr)

	line, err := c.Do("session/{id}/state", nil, map[string]string{"id": id})
	require.NoError(t, err)
	st := decodeState(t, line)
	assert.Equal(t, id, st.ID)
	assert.Equal(t, "alpha", st.Layout)
	assert.Equal(t, "alpha", st.SwitchState)

	line, err = c.Do("session/{id}/state", nil, map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, `{"status":404,"title":"Not Found","detail":"session 42 not found"}`, line)
}

func TestSessionEvent(t *testing.T) {
	tests := []struct {
		name     string
		events   []string
		wantErr  string
		validate func(t *testing.T, st apitypes.SessionState)
	}{
		{
			name:   "press mode switches to symbols",
			events: []string{`{"type":"pressMode"}`},
			validate: func(t *testing.T, st apitypes.SessionState) {
				assert.Equal(t, "symbols", st.Layout)
				assert.True(t, st.Momentary)
			},
		},
		{
			name:   "mode chord snaps back on release",
			events: []string{`{"type":"pressMode"}`, `{"type":"otherKey"}`, `{"type":"key","char":"1"}`, `{"type":"releaseMode"}`},
			validate: func(t *testing.T, st apitypes.SessionState) {
				assert.Equal(t, "alpha", st.Layout)
				assert.False(t, st.Momentary)
			},
		},
		{
			name:   "caps lock",
			events: []string{`{"type":"toggleCapsLock"}`},
			validate: func(t *testing.T, st apitypes.SessionState) {
				assert.True(t, st.ShiftLocked)
				assert.True(t, st.Shifted)
			},
		},
		{
			name:    "unknown type",
			events:  []string{`{"type":"explode"}`},
			wantErr: `"status":400`,
		},
		{
			name:    "unknown field",
			events:  []string{`{"type":"key","code":49,"force":true}`},
			wantErr: "unknown field",
		},
		{
			name:    "missing payload",
			events:  []string{""},
			wantErr: "missing event payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, reg, done := handlerTest.StartAPIServer(t, registerSessions)
			defer done()
			id := createTextSession(t, reg)
			c := apiclient.NewTransport(addr)

			var line string
			for _, ev := range tt.events {
				var err error
				line, err = c.Do("session/{id}/event", ev, map[string]string{"id": id})
				require.NoError(t, err)
			}
			if tt.wantErr != "" {
				assert.Contains(t, line, tt.wantErr)
				return
			}
			tt.validate(t, decodeState(t, line))
		})
	}
}

func TestSessionEventUnknownSession(t *testing.T) {
	addr, _, done := handlerTest.StartAPIServer(t, registerSessions)
	defer done()

	line, err := apiclient.NewTransport(addr).Do("session/{id}/event", `{"type":"hide"}`, map[string]string{"id": "3"})
	require.NoError(t, err)
	assert.Equal(t, `{"status":404,"title":"Not Found","detail":"session 3 not found"}`, line)
}
