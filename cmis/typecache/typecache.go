// Package typecache provides the long-lived type-definition cache shared
// across binding calls. The cache is externally owned: the binding consults
// and populates it but never decides its retention policy. Backends are
// pluggable drivers registered by name.
package typecache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/content-interop/cmis-go/cmis/model"
)

var (
	ErrNotFound = errors.New("type definition not found")
	ErrClosed   = errors.New("type cache closed")
)

// Store is the cache contract. Implementations must be safe for concurrent
// use; the binding reads and writes from arbitrary goroutines.
type Store interface {
	// Get returns the cached definition, or ErrNotFound.
	Get(ctx context.Context, repositoryID, typeID string) (*model.TypeDefinition, error)

	// Put stores or overwrites a definition.
	Put(ctx context.Context, repositoryID string, def *model.TypeDefinition) error

	// Remove drops one definition. Removing an absent entry is not an error.
	Remove(ctx context.Context, repositoryID, typeID string) error

	// RemoveAll drops every definition cached for the repository.
	RemoveAll(ctx context.Context, repositoryID string) error

	// Close releases backend resources.
	Close() error
}

// DriverConfig selects and configures a cache backend.
type DriverConfig struct {
	// Driver is the backend name: memory, sqlite.
	Driver string `json:"driver"`

	// DataDir is the directory for persistent backends.
	DataDir string `json:"data_dir"`

	// Settings holds driver-specific options, decoded per driver.
	Settings map[string]any `json:"settings"`
}

// DriverFactory creates a store from its configuration.
type DriverFactory func(cfg *DriverConfig) (Store, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DriverFactory)
)

// Register registers a driver factory by name, typically from a driver
// package's init().
func Register(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = factory
}

// New creates a store from the configuration.
func New(cfg *DriverConfig) (Store, error) {
	driversMu.RLock()
	factory, ok := drivers[cfg.Driver]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown type cache driver: %s", cfg.Driver)
	}
	return factory(cfg)
}

// AvailableDrivers returns the registered driver names.
func AvailableDrivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}
