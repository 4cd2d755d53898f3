// Package books provides database operations for the local book store.
//
// This package implements the sync.Store contract used by the books reconciler.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	active, err := repo.ListActive()
package books

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/avolkov/libry/internal/database/watch"
	"github.com/avolkov/libry/internal/entities"
)

// Repository handles all book database operations. Writes are serialized so
// no two reconciler or UI mutations for books interleave mid-transaction.
type Repository struct {
	db  *gorm.DB
	hub *watch.Hub
	mu  sync.Mutex
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, hub: watch.NewHub()}
}

// Upsert inserts or replaces a book keyed by its local ID and replaces its
// author set. Notifies read subscribers.
func (r *Repository) Upsert(book *entities.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Authors").Save(book).Error; err != nil {
			return err
		}
		return tx.Model(book).Association("Authors").Replace(book.Authors)
	})
	if err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// ListActive returns all non-tombstoned books ordered by title.
func (r *Repository) ListActive() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Authors").
		Where("is_deleted = ?", false).
		Order("title ASC").
		Find(&books).Error
	return books, err
}

// ListUnsynced returns all books with unconfirmed local edits, tombstones
// included.
func (r *Repository) ListUnsynced() ([]*entities.Book, error) {
	var books []*entities.Book
	err := r.db.Preload("Authors").Where("is_synced = ?", false).Find(&books).Error
	return books, err
}

// ListBound returns all books that have a server identifier, tombstones
// included. The reconciler sweeps these against the authoritative pull.
func (r *Repository) ListBound() ([]*entities.Book, error) {
	var books []*entities.Book
	err := r.db.Where("server_id IS NOT NULL").Find(&books).Error
	return books, err
}

// FindByServerID looks up the book bound to a server identifier.
func (r *Repository) FindByServerID(serverID int64) (*entities.Book, bool, error) {
	var book entities.Book
	err := r.db.Preload("Authors").Where("server_id = ?", serverID).First(&book).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &book, true, nil
}

// GetByLocalID retrieves a book by its local primary key.
func (r *Repository) GetByLocalID(localID uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Authors").First(&book, localID).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// MarkDeleted tombstones a book. The row stays until the deletion is
// acknowledged by the server.
func (r *Repository) MarkDeleted(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Model(&entities.Book{}).
		Where("local_id = ?", localID).
		Updates(map[string]any{"is_deleted": true, "is_synced": false}).Error
	if err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// Remove hard-deletes a book and cascades to its quotes, bookmarks, notes,
// content and join rows. Used only after the server acknowledged the delete
// or the row vanished from an authoritative pull.
func (r *Repository) Remove(localID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", localID).Delete(&entities.Quote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", localID).Delete(&entities.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", localID).Delete(&entities.Note{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", localID).Delete(&entities.BookContent{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM shelf_books WHERE book_local_id = ?", localID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM book_authors WHERE book_local_id = ?", localID).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, localID).Error
	})
	if err != nil {
		return err
	}
	r.hub.Notify()
	return nil
}

// ResolveAuthors maps author names to Author rows, creating missing ones.
func (r *Repository) ResolveAuthors(names []string) ([]entities.Author, error) {
	authors := make([]entities.Author, 0, len(names))
	for _, name := range names {
		var author entities.Author
		err := r.db.Where("name = ?", name).First(&author).Error
		if err == gorm.ErrRecordNotFound {
			author = entities.Author{Name: name}
			if err := r.db.Create(&author).Error; err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, nil
}

// Watch re-emits the active book list on every mutation until ctx ends.
func (r *Repository) Watch(ctx context.Context) <-chan []entities.Book {
	out := make(chan []entities.Book, 1)
	signals := r.hub.Subscribe(ctx)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				books, err := r.ListActive()
				if err != nil {
					continue
				}
				select {
				case out <- books:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
