package flow

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/advocata/intakepipe/internal/store"
)

// DefaultFlowCacheTTL is how long a fetched flow definition stays fresh.
const DefaultFlowCacheTTL = 300 * time.Second

// FlowCache serves the active flow definition from memory, refreshing it
// from the store when the TTL expires. Concurrent refreshes are collapsed
// into a single store read. When the store has no definition yet, the
// built-in default is persisted and served.
type FlowCache struct {
	store store.Store
	ttl   time.Duration

	mu        sync.RWMutex
	cached    *models.FlowDefinition
	fetchedAt time.Time

	group singleflight.Group
}

// NewFlowCache returns a cache over st. A non-positive ttl falls back to
// DefaultFlowCacheTTL.
func NewFlowCache(st store.Store, ttl time.Duration) *FlowCache {
	if ttl <= 0 {
		ttl = DefaultFlowCacheTTL
	}
	return &FlowCache{store: st, ttl: ttl}
}

// Get returns the active flow definition, from cache when fresh.
func (c *FlowCache) Get() (*models.FlowDefinition, error) {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		def := c.cached
		c.mu.RUnlock()
		return def, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("flow", func() (interface{}, error) {
		return c.refresh()
	})
	if err != nil {
		// Serve the stale definition rather than fail a live conversation.
		c.mu.RLock()
		stale := c.cached
		c.mu.RUnlock()
		if stale != nil {
			slog.Warn("FlowCache.Get: refresh failed, serving stale definition", "error", err)
			return stale, nil
		}
		return nil, err
	}
	return v.(*models.FlowDefinition), nil
}

// Invalidate drops the cached definition so the next Get hits the store.
func (c *FlowCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// Save persists a new flow definition and makes it immediately visible.
func (c *FlowCache) Save(def *models.FlowDefinition) error {
	if err := c.store.SaveFlow(*def); err != nil {
		return models.NewPersistenceError("save flow", err)
	}
	c.mu.Lock()
	c.cached = def
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	slog.Info("FlowCache.Save: flow definition updated", "steps", len(def.Steps), "version", def.Version)
	return nil
}

func (c *FlowCache) refresh() (*models.FlowDefinition, error) {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		def := c.cached
		c.mu.RUnlock()
		return def, nil
	}
	c.mu.RUnlock()

	def, err := c.store.GetFlow()
	if err != nil {
		return nil, models.NewPersistenceError("get flow", err)
	}
	if def == nil {
		d := models.DefaultFlowDefinition()
		def = &d
		if err := c.store.SaveFlow(d); err != nil {
			// The default still serves in memory for this process.
			slog.Warn("FlowCache.refresh: failed to persist default flow", "error", err)
		} else {
			slog.Info("FlowCache.refresh: created default flow definition", "steps", len(def.Steps))
		}
	}
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("flow definition has no steps")
	}

	c.mu.Lock()
	c.cached = def
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	slog.Debug("FlowCache.refresh: flow definition loaded", "steps", len(def.Steps), "version", def.Version)
	return def, nil
}
