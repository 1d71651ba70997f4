package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexStats reports the size of the term index.
type IndexStats interface {
	CountTerms(ctx context.Context) (int, error)
}
