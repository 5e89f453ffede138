package repomanager

import (
	"context"

	"github.com/dmitrijs2005/testmart/internal/server/repositories/users"
)

// TxFunc runs against repositories bound to a single transaction.
type TxFunc func(ctx context.Context, users users.Repository) error

// RepositoryManager vends repositories and the transaction boundary around
// them. Every mutation of a user record goes through InTx, so a
// read-lock-modify-write sequence either fully commits or leaves no trace.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	InTx(ctx context.Context, fn TxFunc) error
	Close() error
}
