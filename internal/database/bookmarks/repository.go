// Package bookmarks provides database operations for the local bookmark store.
//
// This package implements the sync.Store contract used by the bookmarks
// reconciler.
package bookmarks

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/avolkov/libry/internal/database/watch"
	"github.com/avolkov/libry/internal/entities"
)

// Repository handles all bookmark database operations.
type Repository struct {
	db  *gorm.DB
	hub *watch.Hub
	mu  sync.Mutex
}

// NewRepository creates a new bookmarks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, hub: watch.NewHub()}
}

// Upsert inserts or replaces a bookmark keyed by its local ID.
func (r *Repository) Upsert(bookmark *entities.Bookmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Save(bookmark).Error; err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// ListActive returns all non-tombstoned bookmarks ordered by position.
func (r *Repository) ListActive() ([]entities.Bookmark, error) {
	var bookmarks []entities.Bookmark
	err := r.db.Where("is_deleted = ?", false).Order("position ASC").Find(&bookmarks).Error
	return bookmarks, err
}

// ListActiveForBook returns the non-tombstoned bookmarks of one book.
func (r *Repository) ListActiveForBook(bookID uint) ([]entities.Bookmark, error) {
	var bookmarks []entities.Bookmark
	err := r.db.Where("book_id = ? AND is_deleted = ?", bookID, false).
		Order("position ASC").Find(&bookmarks).Error
	return bookmarks, err
}

// ListUnsynced returns all bookmarks with unconfirmed local edits.
func (r *Repository) ListUnsynced() ([]*entities.Bookmark, error) {
	var bookmarks []*entities.Bookmark
	err := r.db.Where("is_synced = ?", false).Find(&bookmarks).Error
	return bookmarks, err
}

// ListBound returns all bookmarks that have a server identifier.
func (r *Repository) ListBound() ([]*entities.Bookmark, error) {
	var bookmarks []*entities.Bookmark
	err := r.db.Where("server_id IS NOT NULL").Find(&bookmarks).Error
	return bookmarks, err
}

// FindByServerID looks up the bookmark bound to a server identifier.
func (r *Repository) FindByServerID(serverID int64) (*entities.Bookmark, bool, error) {
	var bookmark entities.Bookmark
	err := r.db.Where("server_id = ?", serverID).First(&bookmark).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &bookmark, true, nil
}

// MarkDeleted tombstones a bookmark.
func (r *Repository) MarkDeleted(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Model(&entities.Bookmark{}).
		Where("local_id = ?", localID).
		Updates(map[string]any{"is_deleted": true, "is_synced": false}).Error
	if err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// Remove hard-deletes a bookmark.
func (r *Repository) Remove(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Delete(&entities.Bookmark{}, localID).Error; err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// Watch re-emits the active bookmark list on every mutation until ctx ends.
func (r *Repository) Watch(ctx context.Context) <-chan []entities.Bookmark {
	out := make(chan []entities.Bookmark, 1)
	signals := r.hub.Subscribe(ctx)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				bookmarks, err := r.ListActive()
				if err != nil {
					continue
				}
				select {
				case out <- bookmarks:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
