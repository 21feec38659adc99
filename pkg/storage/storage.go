package storage

import "context"

// Operation names understood by artifact storage providers. Providers receive
// them as the query argument of Exec and Query.
const (
	OpEnsureDir = "docsite.ensure_dir"
	OpWrite     = "docsite.write"
	OpRead      = "docsite.read"
	OpRemove    = "docsite.remove"
)

// Provider encapsulates the operations the generator issues against an
// artifact store. The shape mirrors database/sql so stores backed by a
// database and stores backed by a filesystem share one contract.
type Provider interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	Transaction(ctx context.Context, fn func(tx Transaction) error) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

type Transaction interface {
	Provider
	Commit() error
	Rollback() error
}
