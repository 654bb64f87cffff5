package auth_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latinkbd/kbdswitch/internal/server/api/auth"
)

// tapeConn writes to out and reads from in.
type tapeConn struct {
	net.Conn
	in  io.Reader
	out bytes.Buffer
}

func (c *tapeConn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *tapeConn) Write(p []byte) (int, error) { return c.out.Write(p) }

func sessionKey(b byte) []byte { return bytes.Repeat([]byte{b}, 32) }

func wrapPair(t *testing.T, clientKey, serverKey []byte) (*auth.Conn, *auth.Conn) {
	t.Helper()
	c, s := net.Pipe()
	t.Cleanup(func() {
		_ = c.Close()
		_ = s.Close()
	})
	client, err := auth.WrapConn(c, clientKey, auth.RoleClient)
	require.NoError(t, err)
	server, err := auth.WrapConn(s, serverKey, auth.RoleServer)
	require.NoError(t, err)
	return client, server
}

func TestConnRoundTrip(t *testing.T) {
	client, server := wrapPair(t, sessionKey(1), sessionKey(1))

	go func() {
		_, _ = client.Write([]byte("session/list\x00"))
	}()
	buf := make([]byte, 64)
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "session/list\x00", string(buf[:n]))

	go func() {
		_, _ = server.Write([]byte(`{"sessions":[]}` + "\n"))
	}()
	n, err = client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, `{"sessions":[]}`+"\n", string(buf[:n]))
}

func TestConnSmallReadsDrainFrame(t *testing.T) {
	client, server := wrapPair(t, sessionKey(1), sessionKey(1))
	go func() { _, _ = client.Write([]byte("abcdef")) }()

	var got []byte
	one := make([]byte, 1)
	for len(got) < 6 {
		n, err := server.Read(one)
		require.NoError(t, err)
		got = append(got, one[:n]...)
	}
	assert.Equal(t, "abcdef", string(got))
}

func TestConnSplitsLargeWrites(t *testing.T) {
	client, server := wrapPair(t, sessionKey(1), sessionKey(1))
	payload := bytes.Repeat([]byte("0123456789"), 500_000)

	errc := make(chan error, 1)
	go func() {
		n, err := client.Write(payload)
		if err == nil && n != len(payload) {
			err = io.ErrShortWrite
		}
		errc <- err
	}()
	got := make([]byte, len(payload))
	_, err := io.ReadFull(server, got)
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.True(t, bytes.Equal(payload, got))
}

func TestConnRejectsWrongKey(t *testing.T) {
	client, server := wrapPair(t, sessionKey(1), sessionKey(2))
	go func() { _, _ = client.Write([]byte("hello")) }()
	_, err := server.Read(make([]byte, 16))
	assert.Error(t, err)
}

func TestWrapConnKeyLength(t *testing.T) {
	c, s := net.Pipe()
	defer c.Close()
	defer s.Close()
	_, err := auth.WrapConn(c, []byte("short"), auth.RoleClient)
	assert.Error(t, err)
}

// record returns the frames written by a fresh conn for role.
func record(t *testing.T, role auth.Role, msgs ...string) []byte {
	t.Helper()
	tape := &tapeConn{in: bytes.NewReader(nil)}
	c, err := auth.WrapConn(tape, sessionKey(1), role)
	require.NoError(t, err)
	for _, m := range msgs {
		_, err := c.Write([]byte(m))
		require.NoError(t, err)
	}
	return tape.out.Bytes()
}

func readAll(t *testing.T, role auth.Role, wire []byte) ([]byte, error) {
	t.Helper()
	c, err := auth.WrapConn(&tapeConn{in: bytes.NewReader(wire)}, sessionKey(1), role)
	require.NoError(t, err)
	return io.ReadAll(c)
}

func TestConnFrameChecks(t *testing.T) {
	two := record(t, auth.RoleClient, "first", "second")
	frameLen := 4 + int(binary.BigEndian.Uint32(two[:4]))
	first := two[:frameLen]

	header := func(size uint32) []byte {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], size)
		return b[:]
	}

	tests := []struct {
		name    string
		reader  auth.Role
		wire    []byte
		want    string
		wantErr error
	}{
		{name: "in order", reader: auth.RoleServer, wire: two, want: "firstsecond"},
		{name: "reflected", reader: auth.RoleClient, wire: two, wantErr: auth.ErrFrameOrder},
		{name: "replayed", reader: auth.RoleServer, wire: append(append([]byte{}, first...), first...), want: "first", wantErr: auth.ErrFrameOrder},
		{name: "reordered", reader: auth.RoleServer, wire: two[frameLen:], wantErr: auth.ErrFrameOrder},
		{name: "too small", reader: auth.RoleServer, wire: append(header(3), 1, 2, 3), wantErr: auth.ErrMalformedFrame},
		{name: "too large", reader: auth.RoleServer, wire: header(3 << 20), wantErr: auth.ErrMalformedFrame},
		{name: "truncated", reader: auth.RoleServer, wire: first[:len(first)-2], wantErr: io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readAll(t, tt.reader, tt.wire)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, string(got))
		})
	}
}
