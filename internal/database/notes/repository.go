// Package notes provides database operations for the local note store.
//
// This package implements the sync.Store contract used by the notes
// reconciler.
package notes

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/avolkov/libry/internal/database/watch"
	"github.com/avolkov/libry/internal/entities"
)

// Repository handles all note database operations.
type Repository struct {
	db  *gorm.DB
	hub *watch.Hub
	mu  sync.Mutex
}

// NewRepository creates a new notes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, hub: watch.NewHub()}
}

// Upsert inserts or replaces a note keyed by its local ID.
func (r *Repository) Upsert(note *entities.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Save(note).Error; err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// ListActive returns all non-tombstoned notes, most recently updated first.
func (r *Repository) ListActive() ([]entities.Note, error) {
	var notes []entities.Note
	err := r.db.Where("is_deleted = ?", false).Order("updated_at DESC").Find(&notes).Error
	return notes, err
}

// ListUnsynced returns all notes with unconfirmed local edits.
func (r *Repository) ListUnsynced() ([]*entities.Note, error) {
	var notes []*entities.Note
	err := r.db.Where("is_synced = ?", false).Find(&notes).Error
	return notes, err
}

// ListBound returns all notes that have a server identifier.
func (r *Repository) ListBound() ([]*entities.Note, error) {
	var notes []*entities.Note
	err := r.db.Where("server_id IS NOT NULL").Find(&notes).Error
	return notes, err
}

// GetByLocalID retrieves a note by its local primary key.
func (r *Repository) GetByLocalID(localID uint) (*entities.Note, error) {
	var note entities.Note
	err := r.db.First(&note, localID).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// FindByServerID looks up the note bound to a server identifier.
func (r *Repository) FindByServerID(serverID int64) (*entities.Note, bool, error) {
	var note entities.Note
	err := r.db.Where("server_id = ?", serverID).First(&note).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &note, true, nil
}

// MarkDeleted tombstones a note.
func (r *Repository) MarkDeleted(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Model(&entities.Note{}).
		Where("local_id = ?", localID).
		Updates(map[string]any{"is_deleted": true, "is_synced": false}).Error
	if err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// Remove hard-deletes a note.
func (r *Repository) Remove(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Delete(&entities.Note{}, localID).Error; err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// Watch re-emits the active note list on every mutation until ctx ends.
func (r *Repository) Watch(ctx context.Context) <-chan []entities.Note {
	out := make(chan []entities.Note, 1)
	signals := r.hub.Subscribe(ctx)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				notes, err := r.ListActive()
				if err != nil {
					continue
				}
				select {
				case out <- notes:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
