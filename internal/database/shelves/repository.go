// Package shelves provides database operations for the local shelf store.
//
// This package implements the sync.Store contract used by the shelves
// reconciler, plus the shelf-book membership rewrite the post-pass refresh
// step relies on.
package shelves

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/avolkov/libry/internal/database/watch"
	"github.com/avolkov/libry/internal/entities"
)

// Repository handles all shelf database operations.
type Repository struct {
	db  *gorm.DB
	hub *watch.Hub
	mu  sync.Mutex
}

// NewRepository creates a new shelves repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, hub: watch.NewHub()}
}

// Upsert inserts or replaces a shelf keyed by its local ID.
func (r *Repository) Upsert(shelf *entities.Shelf) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Omit("Books").Save(shelf).Error; err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// ListActive returns all non-tombstoned shelves ordered by name.
func (r *Repository) ListActive() ([]entities.Shelf, error) {
	var shelves []entities.Shelf
	err := r.db.Where("is_deleted = ?", false).Order("name ASC").Find(&shelves).Error
	return shelves, err
}

// ListUnsynced returns all shelves with unconfirmed local edits.
func (r *Repository) ListUnsynced() ([]*entities.Shelf, error) {
	var shelves []*entities.Shelf
	err := r.db.Where("is_synced = ?", false).Find(&shelves).Error
	return shelves, err
}

// ListBound returns all shelves that have a server identifier.
func (r *Repository) ListBound() ([]*entities.Shelf, error) {
	var shelves []*entities.Shelf
	err := r.db.Where("server_id IS NOT NULL").Find(&shelves).Error
	return shelves, err
}

// FindByServerID looks up the shelf bound to a server identifier.
func (r *Repository) FindByServerID(serverID int64) (*entities.Shelf, bool, error) {
	var shelf entities.Shelf
	err := r.db.Where("server_id = ?", serverID).First(&shelf).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &shelf, true, nil
}

// GetByLocalID retrieves a shelf by its local primary key.
func (r *Repository) GetByLocalID(localID uint) (*entities.Shelf, error) {
	var shelf entities.Shelf
	err := r.db.First(&shelf, localID).Error
	if err != nil {
		return nil, err
	}
	return &shelf, nil
}

// GetBooks returns the active books currently on a shelf, ordered by title.
func (r *Repository) GetBooks(localID uint) ([]entities.Book, error) {
	var shelf entities.Shelf
	err := r.db.Preload("Books", func(db *gorm.DB) *gorm.DB {
		return db.Where("is_deleted = ?", false).Order("title ASC")
	}).Preload("Books.Authors").First(&shelf, localID).Error
	if err != nil {
		return nil, err
	}
	return shelf.Books, nil
}

// ReplaceBooks rewrites a shelf's book membership with the given local book
// keys. Used by the post-pass membership refresh.
func (r *Repository) ReplaceBooks(localID uint, bookIDs []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM shelf_books WHERE shelf_local_id = ?", localID).Error; err != nil {
			return err
		}
		for _, bookID := range bookIDs {
			if err := tx.Exec(
				"INSERT INTO shelf_books (shelf_local_id, book_local_id) VALUES (?, ?)",
				localID, bookID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// MarkDeleted tombstones a shelf.
func (r *Repository) MarkDeleted(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Model(&entities.Shelf{}).
		Where("local_id = ?", localID).
		Updates(map[string]any{"is_deleted": true, "is_synced": false}).Error
	if err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// Remove hard-deletes a shelf and its membership rows.
func (r *Repository) Remove(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM shelf_books WHERE shelf_local_id = ?", localID).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Shelf{}, localID).Error
	})
	if err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// Watch re-emits the active shelf list on every mutation until ctx ends.
func (r *Repository) Watch(ctx context.Context) <-chan []entities.Shelf {
	out := make(chan []entities.Shelf, 1)
	signals := r.hub.Subscribe(ctx)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				shelves, err := r.ListActive()
				if err != nil {
					continue
				}
				select {
				case out <- shelves:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
