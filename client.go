// Package folio embeds the wiki search engine in a Go program: an SQLite
// store, the term indexer, and the query executor behind one client. The
// HTTP service in cmd/folio wires the same pieces; the client exists for
// programs that want the search engine in-process.
package folio

import (
	"context"
	"errors"
	"fmt"

	"github.com/folioworks/folio/internal/storage/sqlite"
	healthuc "github.com/folioworks/folio/internal/usecase/health"
	indexuc "github.com/folioworks/folio/internal/usecase/index"
	searchuc "github.com/folioworks/folio/internal/usecase/search"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	path string
}

// WithPath sets the SQLite database path. Parent directories are created
// as needed.
func WithPath(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.path = path
	})
}

// WithMemoryStore keeps the whole wiki in a private in-memory database.
// Useful for tests and ephemeral indexes.
func WithMemoryStore() Option {
	return optionFunc(func(c *clientConfig) {
		c.path = ":memory:"
	})
}

// Client is the folio SDK entry point.
type Client struct {
	store     *sqlite.Store
	indexer   *indexuc.Service
	searcher  *searchuc.Service
	healthSvc *healthuc.Service
}

// New creates a folio Client and opens the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.path == "" {
		return nil, errors.New("folio: database path required (use WithPath or WithMemoryStore)")
	}

	store, err := sqlite.Open(cfg.path)
	if err != nil {
		return nil, fmt.Errorf("folio: open store: %w", err)
	}

	return &Client{
		store:     store,
		indexer:   indexuc.New(store),
		searcher:  searchuc.New(store, sqlite.NewPermissionFilter()),
		healthSvc: healthuc.New(store, store),
	}, nil
}

// Close releases all resources.
func (c *Client) Close() error {
	return c.store.Close()
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// HealthReport is the aggregated component health.
type HealthReport struct {
	Status string
	Checks map[string]string
}

// Health runs component checks.
func (c *Client) Health(ctx context.Context) HealthReport {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}
	return HealthReport{Status: string(report.Status), Checks: checks}
}

// Search returns the query service.
func (c *Client) Search() *SearchService {
	return &SearchService{svc: c.searcher}
}

// Entities returns the entity lifecycle service.
func (c *Client) Entities() *EntityService {
	return &EntityService{store: c.store, indexer: c.indexer}
}

// RebuildIndex rebuilds the whole term index. Returns ErrReindexRunning if
// a rebuild is already in flight.
func (c *Client) RebuildIndex(ctx context.Context) error {
	return c.indexer.IndexAll(ctx)
}
