// Package users provides database operations for the locally cached profile.
//
// Users are a store-only kind: the session layer writes the profile here and
// the sync pass never reconciles it.
package users

import (
	"sync"

	"gorm.io/gorm"

	"github.com/avolkov/libry/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts or replaces the profile keyed by its local ID.
func (r *Repository) Upsert(user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Save(user).Error
}

// Current returns the active profile, if any.
func (r *Repository) Current() (*entities.User, bool, error) {
	var user entities.User
	err := r.db.Where("is_deleted = ?", false).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// Remove hard-deletes a profile row, e.g. on logout.
func (r *Repository) Remove(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Delete(&entities.User{}, localID).Error
}
