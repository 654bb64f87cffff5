// Package prefs holds keyboard preferences as string key/value pairs, optionally
// backed by a YAML file that is watched for edits.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	yaml "gopkg.in/yaml.v3"
)

const (
	FileName        = "prefs.yaml"
	DefaultDebounce = 100 * time.Millisecond
)

// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	path   string
}

// NewStore returns an in-memory store seeded with initial.
func NewStore(initial map[string]string) *Store {
	values := make(map[string]string, len(initial))
	maps.Copy(values, initial)
	return &Store{values: values}
}

// Open returns a store backed by the YAML file at path. A missing file yields
// an empty store; it is created on the first Save.
func Open(path string) (*Store, error) {
	s := &Store{values: map[string]string{}, path: path}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) String(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Set stores value under key and reports whether it changed.
func (s *Store) Set(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.values[key]; ok && old == value {
		return false
	}
	s.values[key] = value
	return true
}

func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return false
	}
	delete(s.values, key)
	return true
}

func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Reload re-reads the backing file and returns the keys whose value changed,
// sorted.
func (s *Store) Reload() ([]string, error) {
	if s.path == "" {
		return nil, nil
	}
	next, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed []string
	for k, v := range next {
		if old, ok := s.values[k]; !ok || old != v {
			changed = append(changed, k)
		}
	}
	for k := range s.values {
		if _, ok := next[k]; !ok {
			changed = append(changed, k)
		}
	}
	s.values = next
	slices.Sort(changed)
	return changed, nil
}

// Save writes the store to its backing file.
func (s *Store) Save() error {
	if s.path == "" {
		return errors.New("prefs: store has no backing file")
	}
	data, err := yaml.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse prefs %s: %w", path, err)
	}
	return values, nil
}

// Watch reloads the store whenever its file is written and calls onChange
// with the changed keys. Bursts of writes within debounce collapse into one
// reload. Watch blocks until ctx is done and calls onChange only from its
// own goroutine.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, logger *slog.Logger, onChange func(keys []string)) error {
	if s.path == "" {
		return errors.New("prefs: store has no backing file")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save; the directory watch survives that.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	logger.Debug("watching preferences", "path", s.path)

	// The debounce timer fires into the loop below, so onChange never runs
	// after Watch has returned.
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != filepath.Base(s.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			keys, err := s.Reload()
			if err != nil {
				logger.Warn("reloading preferences failed", "path", s.path, "error", err)
				continue
			}
			if len(keys) > 0 {
				logger.Info("preferences changed", "keys", keys)
				onChange(keys)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("preference watcher error", "error", err)
		}
	}
}
