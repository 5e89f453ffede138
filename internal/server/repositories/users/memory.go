package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/testmart/internal/common"
	"github.com/dmitrijs2005/testmart/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It performs no locking of
// its own beyond map safety: callers that need read-modify-write atomicity
// go through the repository manager, which serializes transactions.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	r.byID[user.ID] = user.Clone()
	r.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.FindByID(ctx, id)
}

// LockByID is FindByID: exclusion comes from the manager's transaction.
func (r *MemoryRepository) LockByID(ctx context.Context, id string) (*models.User, error) {
	return r.FindByID(ctx, id)
}

func (r *MemoryRepository) LockByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.FindByEmail(ctx, email)
}

func (r *MemoryRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if old.Email != user.Email {
		if _, taken := r.byEmail[user.Email]; taken {
			return common.ErrorAlreadyExists
		}
		delete(r.byEmail, old.Email)
		r.byEmail[user.Email] = user.ID
	}
	r.byID[user.ID] = user.Clone()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}

// Snapshot returns a deep copy of the stored users.
func (r *MemoryRepository) Snapshot() map[string]*models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*models.User, len(r.byID))
	for id, u := range r.byID {
		out[id] = u.Clone()
	}
	return out
}

// Restore replaces the stored users with snap.
func (r *MemoryRepository) Restore(snap map[string]*models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID = make(map[string]*models.User, len(snap))
	r.byEmail = make(map[string]string, len(snap))
	for id, u := range snap {
		r.byID[id] = u.Clone()
		r.byEmail[u.Email] = id
	}
}
