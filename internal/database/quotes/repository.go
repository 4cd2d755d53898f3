// Package quotes provides database operations for the local quote store.
//
// This package implements the sync.Store contract used by the quotes
// reconciler.
package quotes

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/avolkov/libry/internal/database/watch"
	"github.com/avolkov/libry/internal/entities"
)

// Repository handles all quote database operations.
type Repository struct {
	db  *gorm.DB
	hub *watch.Hub
	mu  sync.Mutex
}

// NewRepository creates a new quotes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, hub: watch.NewHub()}
}

// Upsert inserts or replaces a quote keyed by its local ID.
func (r *Repository) Upsert(quote *entities.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Save(quote).Error; err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// ListActive returns all non-tombstoned quotes ordered by position.
func (r *Repository) ListActive() ([]entities.Quote, error) {
	var quotes []entities.Quote
	err := r.db.Where("is_deleted = ?", false).Order("position ASC").Find(&quotes).Error
	return quotes, err
}

// ListActiveForBook returns the non-tombstoned quotes of one book in
// position order.
func (r *Repository) ListActiveForBook(bookID uint) ([]entities.Quote, error) {
	var quotes []entities.Quote
	err := r.db.Where("book_id = ? AND is_deleted = ?", bookID, false).
		Order("position ASC").Find(&quotes).Error
	return quotes, err
}

// ListUnsynced returns all quotes with unconfirmed local edits.
func (r *Repository) ListUnsynced() ([]*entities.Quote, error) {
	var quotes []*entities.Quote
	err := r.db.Where("is_synced = ?", false).Find(&quotes).Error
	return quotes, err
}

// ListBound returns all quotes that have a server identifier.
func (r *Repository) ListBound() ([]*entities.Quote, error) {
	var quotes []*entities.Quote
	err := r.db.Where("server_id IS NOT NULL").Find(&quotes).Error
	return quotes, err
}

// FindByServerID looks up the quote bound to a server identifier.
func (r *Repository) FindByServerID(serverID int64) (*entities.Quote, bool, error) {
	var quote entities.Quote
	err := r.db.Where("server_id = ?", serverID).First(&quote).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &quote, true, nil
}

// GetByLocalID retrieves a quote by its local primary key.
func (r *Repository) GetByLocalID(localID uint) (*entities.Quote, error) {
	var quote entities.Quote
	err := r.db.First(&quote, localID).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// MarkDeleted tombstones a quote.
func (r *Repository) MarkDeleted(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Model(&entities.Quote{}).
		Where("local_id = ?", localID).
		Updates(map[string]any{"is_deleted": true, "is_synced": false}).Error
	if err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// Remove hard-deletes a quote.
func (r *Repository) Remove(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Delete(&entities.Quote{}, localID).Error; err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// Watch re-emits the active quote list on every mutation until ctx ends.
func (r *Repository) Watch(ctx context.Context) <-chan []entities.Quote {
	out := make(chan []entities.Quote, 1)
	signals := r.hub.Subscribe(ctx)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				quotes, err := r.ListActive()
				if err != nil {
					continue
				}
				select {
				case out <- quotes:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
