// Package memory keeps users in process memory. It backs tests and the
// "memory" database driver; nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"user-service/internal/model"
	"user-service/internal/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

type UserRepository struct {
	mu     sync.RWMutex
	users  map[uint]model.User
	order  []uint
	nextID uint
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uint]model.User)}
}

func (r *UserRepository) Save(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == 0 {
		r.nextID++
		user.ID = r.nextID
	}
	if _, ok := r.users[user.ID]; !ok {
		r.order = append(r.order, user.ID)
		if user.ID > r.nextID {
			r.nextID = user.ID
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) FindAll(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, r.users[id])
	}
	return users, nil
}

func (r *UserRepository) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// FindByUsername returns the most recently created user with that name.
func (r *UserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		user := r.users[r.order[i]]
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) ExistsByID(_ context.Context, id uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[id]
	return ok, nil
}

func (r *UserRepository) DeleteByID(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return nil
	}
	delete(r.users, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
