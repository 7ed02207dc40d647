package users

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"campusbook/internal/shared/apperror"

	"gorm.io/gorm"
)

// Directory is the read-only identity lookup used by eligibility checks.
type Directory interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

type Repository interface {
	Directory
	Create(ctx context.Context, user *User) error
	UpdateBalance(ctx context.Context, id string, balance float64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *repository) Create(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *repository) UpdateBalance(ctx context.Context, id string, balance float64) error {
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("balance", balance)
	if res.Error != nil {
		return fmt.Errorf("failed to update balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("user %s not found", id)
	}
	return nil
}

// memoryRepository keeps users in a map. Used by tests and the memory ledger store.
type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepository(seed ...User) Repository {
	r := &memoryRepository{users: make(map[string]User, len(seed))}
	for _, u := range seed {
		r.users[u.ID] = u
	}
	return r
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user %s not found", id)
	}
	return &u, nil
}

func (r *memoryRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memoryRepository) UpdateBalance(_ context.Context, id string, balance float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return apperror.NotFound("user %s not found", id)
	}
	u.Balance = balance
	r.users[id] = u
	return nil
}
