// Package memory provides an in-memory type-definition cache with TTL
// expiry.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/content-interop/cmis-go/cmis/model"
	"github.com/content-interop/cmis-go/cmis/typecache"
)

func init() {
	typecache.Register("memory", func(cfg *typecache.DriverConfig) (typecache.Store, error) {
		var settings Settings
		if cfg.Settings != nil {
			if err := mapstructure.Decode(cfg.Settings, &settings); err != nil {
				return nil, err
			}
		}
		ttl := 15 * time.Minute
		if settings.DefaultTTLSeconds > 0 {
			ttl = time.Duration(settings.DefaultTTLSeconds) * time.Second
		}
		cleanup := 5 * time.Minute
		if settings.CleanupIntervalSeconds > 0 {
			cleanup = time.Duration(settings.CleanupIntervalSeconds) * time.Second
		}
		return New(ttl, cleanup), nil
	})
}

// Settings are the memory driver options.
type Settings struct {
	DefaultTTLSeconds      int `mapstructure:"default_ttl_seconds"`
	CleanupIntervalSeconds int `mapstructure:"cleanup_interval_seconds"`
}

type item struct {
	def       *model.TypeDefinition
	expiresAt time.Time
}

func (i *item) expired() bool { return time.Now().After(i.expiresAt) }

// Cache is an in-memory type-definition cache. Definitions are stored by
// reference; the decode convention keeps them immutable.
type Cache struct {
	mu        sync.RWMutex
	items     map[string]map[string]*item
	ttl       time.Duration
	stopClean chan struct{}
	closeOnce sync.Once
}

// New creates a cache. cleanupInterval 0 disables the sweeper goroutine.
func New(ttl, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		items:     make(map[string]map[string]*item),
		ttl:       ttl,
		stopClean: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}
	return c
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopClean:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for repo, byType := range c.items {
		for id, it := range byType {
			if now.After(it.expiresAt) {
				delete(byType, id)
			}
		}
		if len(byType) == 0 {
			delete(c.items, repo)
		}
	}
}

func (c *Cache) Get(ctx context.Context, repositoryID, typeID string) (*model.TypeDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[repositoryID][typeID]
	if !ok || it.expired() {
		return nil, typecache.ErrNotFound
	}
	return it.def, nil
}

func (c *Cache) Put(ctx context.Context, repositoryID string, def *model.TypeDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	byType, ok := c.items[repositoryID]
	if !ok {
		byType = make(map[string]*item)
		c.items[repositoryID] = byType
	}
	byType[def.ID] = &item{def: def, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

func (c *Cache) Remove(ctx context.Context, repositoryID, typeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items[repositoryID], typeID)
	return nil
}

func (c *Cache) RemoveAll(ctx context.Context, repositoryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, repositoryID)
	return nil
}

func (c *Cache) Close() error {
	c.closeOnce.Do(func() { close(c.stopClean) })
	return nil
}

var _ typecache.Store = (*Cache)(nil)
