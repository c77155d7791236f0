package memory

import (
	"context"
	"sort"
	"sync"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/auth"
)

// UserRepo implements auth.Repository in memory.
type UserRepo struct {
	mu         sync.RWMutex
	items      map[id.ID]*auth.User
	byUsername map[string]id.ID
}

// NewUserRepo creates an in-memory user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{
		items:      make(map[id.ID]*auth.User),
		byUsername: make(map[string]id.ID),
	}
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[u.Username]; exists {
		return apperror.NewDuplicate("user", "username", u.Username)
	}

	clone := *u
	r.items[u.ID] = &clone
	r.byUsername[u.Username] = u.ID
	return nil
}

// Update saves user state.
func (r *UserRepo) Update(ctx context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.ID]; !ok {
		return apperror.NewNotFound("user", u.ID)
	}
	clone := *u
	r.items[u.ID] = &clone
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	clone := *u
	return &clone, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uid, ok := r.byUsername[username]
	if !ok {
		return nil, apperror.NewNotFound("user", username)
	}
	clone := *r.items[uid]
	return &clone, nil
}

// List retrieves all users ordered by username.
func (r *UserRepo) List(ctx context.Context) ([]*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*auth.User, 0, len(r.items))
	for _, u := range r.items {
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
