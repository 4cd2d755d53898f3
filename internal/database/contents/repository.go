// Package contents provides database operations for downloaded book content.
//
// Book content is a store-only kind: the download path writes parsed HTML
// here and the books repository cascade-removes it with its book.
package contents

import (
	"sync"

	"gorm.io/gorm"

	"github.com/avolkov/libry/internal/entities"
)

// Repository handles all book content database operations.
type Repository struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewRepository creates a new contents repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert stores the content of one book, replacing any previous version.
func (r *Repository) Upsert(content *entities.BookContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing entities.BookContent
	err := r.db.Where("book_id = ?", content.BookID).First(&existing).Error
	if err == nil {
		content.LocalID = existing.LocalID
	} else if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.Save(content).Error
}

// GetForBook returns the stored content of one book, if downloaded.
func (r *Repository) GetForBook(bookID uint) (*entities.BookContent, bool, error) {
	var content entities.BookContent
	err := r.db.Where("book_id = ?", bookID).First(&content).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &content, true, nil
}

// Remove hard-deletes the content of one book, e.g. to reclaim space.
func (r *Repository) Remove(bookID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Where("book_id = ?", bookID).Delete(&entities.BookContent{}).Error
}
