// Package layoutcache keeps built keyboard layouts keyed by their identity.
package layoutcache

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/latinkbd/kbdswitch/keyboard"
)

const (
	DefaultCapacity         = 12
	DefaultMaxBuildAttempts = 5
	DefaultRetryWait        = 10 * time.Millisecond
)

// ErrBuildExhausted is returned when a layout could not be built within the
// retry budget.
var ErrBuildExhausted = errors.New("layout build retries exhausted")

// Config tunes a Cache. Zero fields take the defaults.
type Config struct {
	Capacity         int           `help:"Maximum number of built layouts kept" default:"12"`
	MaxBuildAttempts int           `help:"Build attempts before giving up on a transient failure" default:"5"`
	RetryWait        time.Duration `help:"Wait after reclaiming memory before retrying a build" default:"10ms"`
}

// Reclaimer frees memory between build attempts.
type Reclaimer interface {
	Reclaim(attempt int)
}

// RuntimeReclaimer asks the Go runtime to collect and return memory, then
// waits for Wait.
type RuntimeReclaimer struct {
	Wait time.Duration
}

func (r RuntimeReclaimer) Reclaim(int) {
	runtime.GC()
	debug.FreeOSMemory()
	if r.Wait > 0 {
		time.Sleep(r.Wait)
	}
}

// ReclaimerFunc adapts a function to Reclaimer.
type ReclaimerFunc func(attempt int)

func (f ReclaimerFunc) Reclaim(attempt int) { f(attempt) }

// Stats counts cache traffic since creation.
type Stats struct {
	Hits      int `json:"hits"`
	Misses    int `json:"misses"`
	Builds    int `json:"builds"`
	Reclaimed int `json:"reclaimed"`
}

// Cache maps keyboard identities to built layouts. A hit returns the stored
// instance unchanged; entries leave the cache through capacity eviction,
// memory reclamation or InvalidateAll.
type Cache struct {
	mu          sync.Mutex
	entries     *lru.Cache[keyboard.ID, keyboard.Layout]
	reclaimed   map[keyboard.ID]struct{}
	invalidated bool
	stats       Stats

	maxAttempts int
	reclaimer   Reclaimer
	logger      *slog.Logger
}

// New creates a Cache. A nil reclaimer selects RuntimeReclaimer with
// cfg.RetryWait.
func New(cfg Config, reclaimer Reclaimer, logger *slog.Logger) (*Cache, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.MaxBuildAttempts <= 0 {
		cfg.MaxBuildAttempts = DefaultMaxBuildAttempts
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = DefaultRetryWait
	}
	if reclaimer == nil {
		reclaimer = RuntimeReclaimer{Wait: cfg.RetryWait}
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		reclaimed:   make(map[keyboard.ID]struct{}),
		maxAttempts: cfg.MaxBuildAttempts,
		reclaimer:   reclaimer,
		logger:      logger,
	}
	entries, err := lru.NewWithEvict(cfg.Capacity, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create layout cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

func (c *Cache) onEvict(id keyboard.ID, _ keyboard.Layout) {
	if c.invalidated {
		return
	}
	c.reclaimed[id] = struct{}{}
	c.stats.Reclaimed++
}

// GetOrBuild returns the layout cached for id, building and storing it on a
// miss. Builder errors wrapping keyboard.ErrResourceExhausted are retried
// after reclaiming memory; any other error is returned as is.
func (c *Cache) GetOrBuild(id keyboard.ID, build keyboard.BuildFunc) (keyboard.Layout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.entries.Get(id); ok {
		c.stats.Hits++
		c.logger.Debug("keyboard cache", "event", "hit", "size", c.entries.Len(), "id", id)
		return l, nil
	}
	c.stats.Misses++

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		l, err := build(id)
		if err == nil {
			c.stats.Builds++
			c.entries.Add(id, l)
			event := "load"
			if _, ok := c.reclaimed[id]; ok {
				event = "reclaimed"
				delete(c.reclaimed, id)
			}
			c.logger.Debug("keyboard cache", "event", event, "size", c.entries.Len(), "id", id)
			return l, nil
		}
		if !errors.Is(err, keyboard.ErrResourceExhausted) {
			return nil, fmt.Errorf("build %s: %w", id, err)
		}
		lastErr = err
		c.logger.Warn("keyboard build failed, reclaiming", "id", id, "attempt", attempt, "error", err)
		if attempt < c.maxAttempts {
			c.entries.Purge()
			c.reclaimer.Reclaim(attempt)
		}
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %w", ErrBuildExhausted, id, c.maxAttempts, lastErr)
}

// InvalidateAll drops every entry. The next request for any identity builds
// a fresh layout.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = true
	c.entries.Purge()
	c.invalidated = false
	clear(c.reclaimed)
}

// Contains reports whether id is cached without touching its recency.
func (c *Cache) Contains(id keyboard.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Contains(id)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
