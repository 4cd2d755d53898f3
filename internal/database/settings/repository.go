// Package settings provides database operations for per-kind sync state.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	err := repo.SetState("books", entities.SyncStatusSuccess, "", passID)
package settings

import (
	"time"

	"gorm.io/gorm"

	"github.com/avolkov/libry/internal/entities"
)

// Repository handles all sync state database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetState retrieves the last recorded outcome for one entity kind.
func (r *Repository) GetState(kind string) (*entities.SyncState, error) {
	var state entities.SyncState
	err := r.db.Where("kind = ?", kind).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// ListStates returns the recorded outcome of every kind.
func (r *Repository) ListStates() ([]entities.SyncState, error) {
	var states []entities.SyncState
	err := r.db.Order("kind ASC").Find(&states).Error
	return states, err
}

// SetState creates or updates the outcome row for one entity kind.
func (r *Repository) SetState(kind string, status entities.SyncStatus, message, passID string) error {
	var state entities.SyncState
	result := r.db.Where("kind = ?", kind).First(&state)

	if result.Error == gorm.ErrRecordNotFound {
		state = entities.SyncState{
			Kind:     kind,
			Status:   status,
			Message:  message,
			LastRun:  time.Now(),
			LastPass: passID,
		}
		return r.db.Create(&state).Error
	} else if result.Error != nil {
		return result.Error
	}

	state.Status = status
	state.Message = message
	state.LastRun = time.Now()
	state.LastPass = passID
	return r.db.Save(&state).Error
}
