package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/testmart/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. Transactions
// are serialized by a single mutex and rolled back by restoring a snapshot.
type MemoryRepositoryManager struct {
	txMu  sync.Mutex
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn TxFunc) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.users.Snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.users.Restore(snap)
			panic(p)
		}
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			m.users.Restore(snap)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, m.users)
}

func (m *MemoryRepositoryManager) Close() error {
	return nil
}
