package repositories

import (
	"context"
	"sync"

	"github.com/volunteerhub/backend/internal/models"
)

// memoryUserRepository keeps users in process memory. Intended for development and tests.
type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

// NewMemoryUserRepository creates an empty in-memory user repository
func NewMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{
		byID:    map[string]*models.User{},
		byEmail: map[string]*models.User{},
	}
}

// Create stores a copy of user. The email acts as a unique key.
func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return models.ErrDuplicateEmail
	}

	clone := *user
	r.byID[clone.ID] = &clone
	r.byEmail[clone.Email] = &clone
	return nil
}

// GetByEmail retrieves a user by normalized email
func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

// GetByID retrieves a user by ID
func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

// ExistsByEmail checks if a user exists with the given email
func (r *memoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byEmail[email]
	return exists, nil
}

// UpdateRole sets the role of a user
func (r *memoryUserRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return models.ErrUserNotFound
	}
	user.Role = role
	return nil
}

// Delete removes a user. Account deletion is an administrative operation outside the auth flows.
func (r *memoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return models.ErrUserNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, user.Email)
	return nil
}
