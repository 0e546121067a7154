package memory

import (
	"context"
	"sync"

	directory "factory-ops/internal/directory/domain"
)

// UserRepository is an in-memory directory of operator accounts.
type UserRepository struct {
	mu   sync.RWMutex
	data map[string]*directory.User
}

// NewUserRepository constructs a repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{data: make(map[string]*directory.User)}
}

// Put inserts or replaces a user.
func (r *UserRepository) Put(ctx context.Context, user *directory.User) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	clone.DeviceTokens = append([]string(nil), user.DeviceTokens...)
	r.data[user.ID] = &clone
	return nil
}

// GetByID loads a user, or nil.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*directory.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	clone := *user
	clone.DeviceTokens = append([]string(nil), user.DeviceTokens...)
	return &clone, nil
}

// ListSupervisorTokens collects device tokens of active supervisors and
// admins with push notifications enabled.
func (r *UserRepository) ListSupervisorTokens(ctx context.Context) ([]string, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tokens []string
	for _, user := range r.data {
		if !user.Active || !user.PushEnabled {
			continue
		}
		if user.Role != directory.RoleSupervisor && user.Role != directory.RoleAdmin {
			continue
		}
		tokens = append(tokens, user.DeviceTokens...)
	}
	return tokens, nil
}
