package headless

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/latinkbd/kbdswitch/apitypes"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry holds the live sessions of a server.
type Registry struct {
	opts       Options
	sessions   map[string]*Session
	sessionsMu sync.Mutex
	nextID     uint64
}

func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts, sessions: make(map[string]*Session)}
}

// Create starts a session with the next free numeric ID.
func (r *Registry) Create(req apitypes.SessionCreateRequest) (*Session, error) {
	r.sessionsMu.Lock()
	r.nextID++
	id := strconv.FormatUint(r.nextID, 10)
	r.sessionsMu.Unlock()

	s, err := NewSession(id, req, r.opts)
	if err != nil {
		return nil, err
	}

	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()
	r.sessions[id] = s
	return s, nil
}

// Get returns a session by ID or nil if not present.
func (r *Registry) Get(id string) *Session {
	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()
	return r.sessions[id]
}

// List returns the IDs of all sessions in creation order.
func (r *Registry) List() []string {
	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()
	out := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	return out
}

// Remove closes and unregisters a session.
func (r *Registry) Remove(id string) error {
	r.sessionsMu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.sessionsMu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	return nil
}

// PreferencesChanged forwards changed base preference keys to every session.
func (r *Registry) PreferencesChanged(keys []string) {
	r.sessionsMu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessionsMu.Unlock()
	for _, s := range sessions {
		if err := s.PreferencesChanged(keys); err != nil {
			s.logger.Warn("applying preference change failed", "keys", keys, "error", err)
		}
	}
}

// Close removes every session.
func (r *Registry) Close() {
	for _, id := range r.List() {
		_ = r.Remove(id)
	}
}
