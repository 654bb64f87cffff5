package auth

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// Role tells the two ends of a connection apart. It is stamped into every
// nonce so the directions never share one.
type Role byte

const (
	RoleClient Role = 1
	RoleServer Role = 2
)

func (r Role) peer() Role {
	if r == RoleClient {
		return RoleServer
	}
	return RoleClient
}

const (
	maxFrameSize = 2 << 20
	headerSize   = 4
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrFrameOrder     = errors.New("frame out of order")
)

// Conn frames every Write as length | nonce | sealed payload. Nonces carry the
// sender role and a per-direction counter; Read rejects frames that were
// reflected, replayed or reordered.
type Conn struct {
	net.Conn
	aead cipher.AEAD
	role Role

	wmu     sync.Mutex
	sendCtr uint64

	rmu     sync.Mutex
	recvCtr uint64
	pending []byte
}

// WrapConn secures conn with sessionKey for the given side.
func WrapConn(conn net.Conn, sessionKey []byte, role Role) (*Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn, aead: aead, role: role}, nil
}

func (c *Conn) nonce(role Role, ctr uint64) []byte {
	n := make([]byte, c.aead.NonceSize())
	n[0] = byte(role)
	binary.BigEndian.PutUint64(n[len(n)-8:], ctr)
	return n
}

func (c *Conn) maxChunk() int {
	return maxFrameSize - c.aead.NonceSize() - c.aead.Overhead()
}

func (c *Conn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	written := 0
	for len(p) > 0 {
		chunk := p[:min(len(p), c.maxChunk())]
		nonce := c.nonce(c.role, c.sendCtr)
		frame := make([]byte, headerSize, headerSize+len(nonce)+len(chunk)+c.aead.Overhead())
		frame = append(frame, nonce...)
		frame = c.aead.Seal(frame, nonce, chunk, nil)
		binary.BigEndian.PutUint32(frame[:headerSize], uint32(len(frame)-headerSize))
		if _, err := c.Conn.Write(frame); err != nil {
			return written, err
		}
		c.sendCtr++
		written += len(chunk)
		p = p[len(chunk):]
	}
	return written, nil
}

func (c *Conn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	for len(c.pending) == 0 {
		if err := c.readFrame(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *Conn) readFrame() error {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(c.Conn, hdr[:]); err != nil {
		return err
	}
	size := int(binary.BigEndian.Uint32(hdr[:]))
	nonceSize := c.aead.NonceSize()
	if size > maxFrameSize || size < nonceSize+c.aead.Overhead() {
		return fmt.Errorf("%w: size %d", ErrMalformedFrame, size)
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(c.Conn, frame); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	nonce := frame[:nonceSize]
	want := c.nonce(c.role.peer(), c.recvCtr)
	if string(nonce) != string(want) {
		return ErrFrameOrder
	}
	pt, err := c.aead.Open(frame[nonceSize:nonceSize], nonce, frame[nonceSize:], nil)
	if err != nil {
		return err
	}
	c.recvCtr++
	c.pending = pt
	return nil
}
