package store

import (
	"context"
	"database/sql"
)

// Narrow views over sqlx. Stores take the smallest interface that covers the
// statement they run, so the same method works against *sqlx.DB in straight
// reads and *sqlx.Tx inside a serialized balance mutation.

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type DB interface {
	Execer
	Getter
	Selecter
}

// Tx is what a row-locking read-then-write path needs. Both *sqlx.Tx and the
// test stubs satisfy it.
type Tx interface {
	Execer
	Getter
}
