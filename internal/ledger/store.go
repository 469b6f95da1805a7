package ledger

import (
	"context"
	"fmt"
	"io"

	"github.com/pokevault/auctioneer/internal/config"
)

// Store persists the state document as a whole. Save must be atomic: a crash
// mid-write never corrupts the previous valid snapshot. Load of an empty
// backend produces a default document and persists it immediately.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}

// Handle groups a Store with its lifecycle hooks.
type Handle struct {
	Store Store
	// Closer releases underlying resources (e.g. a DB connection).
	Closer io.Closer
	// Ping checks backend health.
	Ping func(ctx context.Context) error
}

// Options carries cross-driver dependencies.
type Options struct {
	// NextIDStart seeds the auction id counter when creating a fresh document.
	NextIDStart int64
}

// Driver opens a backend and returns a Handle.
type Driver func(ctx context.Context, cfg config.LedgerConfig, opts Options) (*Handle, error)

// registry maps driver names to their factory functions.
var registry = map[string]Driver{}

// Register adds a named driver to the global registry.
// It is intended to be called from init() in each driver package.
func Register(name string, d Driver) {
	registry[name] = d
}

// Open selects the driver specified in cfg.Driver and returns a Handle.
func Open(ctx context.Context, cfg config.LedgerConfig, opts Options) (*Handle, error) {
	d, ok := registry[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unknown ledger driver %q (registered: %v)", cfg.Driver, registeredNames())
	}
	return d(ctx, cfg, opts)
}

func registeredNames() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	return names
}
