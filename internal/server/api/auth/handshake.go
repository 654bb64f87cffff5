package auth

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/latinkbd/kbdswitch/apitypes"
	apierror "github.com/latinkbd/kbdswitch/internal/server/api/error"
)

// Wire format:
//
//	client: HandshakeMagic | client nonce | HMAC(key, authContext | client nonce)
//	server: "OK\x00" | server nonce, or a problem+json line on failure
const (
	HandshakeMagic = "kbS1\x00"
	NonceSize      = 32

	handshakeOK    = "OK\x00"
	authContext    = "kbdswitch-Auth-v1"
	sessionContext = "kbdswitch-Session-v1"
)

// Nonces are the random values both sides contributed to a handshake.
type Nonces struct {
	Client []byte
	Server []byte
}

// SessionKey derives the per-connection key from key and both nonces.
// Both nonces salt an HKDF expansion of key, so no two connections share a
// session key.
func (n Nonces) SessionKey(key []byte) []byte {
	salt := make([]byte, 0, len(n.Server)+len(n.Client))
	salt = append(append(salt, n.Server...), n.Client...)
	out := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, salt, []byte(sessionContext)), out); err != nil {
		// Only reachable when asking for more than 255 hash lengths.
		panic(err)
	}
	return out
}

// IsHandshake reports whether r starts with HandshakeMagic without consuming
// anything.
func IsHandshake(r *bufio.Reader) (bool, error) {
	b, err := r.Peek(len(HandshakeMagic))
	if err != nil {
		return false, err
	}
	return string(b) == HandshakeMagic, nil
}

func proof(key, clientNonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(authContext))
	mac.Write(clientNonce)
	return mac.Sum(nil)
}

func newNonce() ([]byte, error) {
	n := make([]byte, NonceSize)
	if _, err := rand.Read(n); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return n, nil
}

// ClientHandshake proves knowledge of key to the server. A rejection by the
// server is returned as *apitypes.ApiError.
func ClientHandshake(r *bufio.Reader, w io.Writer, key []byte) (Nonces, error) {
	if len(key) == 0 {
		return Nonces{}, errors.New("handshake: missing key")
	}
	clientNonce, err := newNonce()
	if err != nil {
		return Nonces{}, err
	}
	msg := make([]byte, 0, len(HandshakeMagic)+NonceSize+sha256.Size)
	msg = append(msg, HandshakeMagic...)
	msg = append(msg, clientNonce...)
	msg = append(msg, proof(key, clientNonce)...)
	if _, err := w.Write(msg); err != nil {
		return Nonces{}, fmt.Errorf("write handshake: %w", err)
	}

	prefix := make([]byte, len(handshakeOK))
	if _, err := io.ReadFull(r, prefix); err != nil {
		if errors.Is(err, io.EOF) {
			// Closed without an answer.
			return Nonces{}, apierror.ErrUnauthorized("invalid password")
		}
		return Nonces{}, fmt.Errorf("read handshake response: %w", err)
	}
	if string(prefix) != handshakeOK {
		return Nonces{}, rejection(prefix, r)
	}

	serverNonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, serverNonce); err != nil {
		return Nonces{}, fmt.Errorf("read server nonce: %w", err)
	}
	return Nonces{Client: clientNonce, Server: serverNonce}, nil
}

func rejection(prefix []byte, r *bufio.Reader) error {
	rest, _ := r.ReadString('\n')
	line := strings.TrimSuffix(string(prefix)+rest, "\n")
	var apiErr apitypes.ApiError
	if err := json.Unmarshal([]byte(line), &apiErr); err == nil && (apiErr.Status != 0 || apiErr.Title != "") {
		return &apiErr
	}
	return fmt.Errorf("invalid handshake response from server: %q", line)
}

// ServerHandshake reads a client handshake from r, checks its proof against
// key and answers on w. A wrong proof yields an unauthorized ApiError and
// nothing is written; the caller reports it.
func ServerHandshake(r *bufio.Reader, w io.Writer, key []byte) (Nonces, error) {
	if len(key) == 0 {
		return Nonces{}, errors.New("handshake: missing key")
	}
	msg := make([]byte, len(HandshakeMagic)+NonceSize+sha256.Size)
	if _, err := io.ReadFull(r, msg); err != nil {
		return Nonces{}, fmt.Errorf("read handshake: %w", err)
	}
	if string(msg[:len(HandshakeMagic)]) != HandshakeMagic {
		return Nonces{}, apierror.ErrUnauthorized("authentication required")
	}
	clientNonce := msg[len(HandshakeMagic) : len(HandshakeMagic)+NonceSize]
	if !hmac.Equal(msg[len(HandshakeMagic)+NonceSize:], proof(key, clientNonce)) {
		return Nonces{}, apierror.ErrUnauthorized("invalid password")
	}

	serverNonce, err := newNonce()
	if err != nil {
		return Nonces{}, err
	}
	if _, err := w.Write(append([]byte(handshakeOK), serverNonce...)); err != nil {
		return Nonces{}, fmt.Errorf("write handshake response: %w", err)
	}
	return Nonces{Client: clientNonce, Server: serverNonce}, nil
}
