// Package library is the mutation surface the UI layer calls. Every write
// lands in the local store first, marked dirty, and reaches the server only
// through a later sync pass. Deletes tombstone; nothing here talks to the
// network.
package library

import (
	"fmt"

	"github.com/avolkov/libry/internal/database/bookmarks"
	"github.com/avolkov/libry/internal/database/books"
	"github.com/avolkov/libry/internal/database/contents"
	"github.com/avolkov/libry/internal/database/notes"
	"github.com/avolkov/libry/internal/database/quotes"
	"github.com/avolkov/libry/internal/database/shelves"
	"github.com/avolkov/libry/internal/entities"
)

// Service coordinates local mutations across the entity repositories.
type Service struct {
	books     *books.Repository
	shelves   *shelves.Repository
	quotes    *quotes.Repository
	bookmarks *bookmarks.Repository
	notes     *notes.Repository
	contents  *contents.Repository
}

// NewService creates a library mutation service.
func NewService(
	booksRepo *books.Repository,
	shelvesRepo *shelves.Repository,
	quotesRepo *quotes.Repository,
	bookmarksRepo *bookmarks.Repository,
	notesRepo *notes.Repository,
	contentsRepo *contents.Repository,
) *Service {
	return &Service{
		books:     booksRepo,
		shelves:   shelvesRepo,
		quotes:    quotesRepo,
		bookmarks: bookmarksRepo,
		notes:     notesRepo,
		contents:  contentsRepo,
	}
}

// RegisterBook adds a locally created book to the store.
func (s *Service) RegisterBook(title string, authorNames []string, isbn, filePath string, format entities.BookFormat) (*entities.Book, error) {
	authors, err := s.books.ResolveAuthors(authorNames)
	if err != nil {
		return nil, fmt.Errorf("resolve authors: %w", err)
	}
	book := &entities.Book{
		Title:    title,
		Authors:  authors,
		ISBN:     isbn,
		FilePath: filePath,
		Format:   format,
	}
	book.MarkDirty()
	if err := s.books.Upsert(book); err != nil {
		return nil, err
	}
	return book, nil
}

// UpdateProgress records the reading position of a book.
func (s *Service) UpdateProgress(bookID uint, progress float64) error {
	book, err := s.books.GetByLocalID(bookID)
	if err != nil {
		return err
	}
	book.Progress = progress
	book.MarkDirty()
	return s.books.Upsert(book)
}

// DeleteBook tombstones a book; its children are removed when the deletion
// is acknowledged.
func (s *Service) DeleteBook(bookID uint) error {
	return s.books.MarkDeleted(bookID)
}

// StoreContent saves the parsed HTML of a downloaded book.
func (s *Service) StoreContent(bookID uint, html string) error {
	if _, err := s.books.GetByLocalID(bookID); err != nil {
		return fmt.Errorf("book %d: %w", bookID, err)
	}
	content := &entities.BookContent{BookID: bookID, HTML: html}
	content.IsSynced = true // content is download-only, never pushed
	return s.contents.Upsert(content)
}

// GetContent returns a book's downloaded content, if present.
func (s *Service) GetContent(bookID uint) (*entities.BookContent, bool, error) {
	return s.contents.GetForBook(bookID)
}

// CreateShelf adds a locally created shelf.
func (s *Service) CreateShelf(name, description string) (*entities.Shelf, error) {
	shelf := &entities.Shelf{Name: name, Description: description}
	shelf.MarkDirty()
	if err := s.shelves.Upsert(shelf); err != nil {
		return nil, err
	}
	return shelf, nil
}

// RenameShelf updates a shelf's name and description.
func (s *Service) RenameShelf(shelfID uint, name, description string) error {
	shelf, err := s.shelves.GetByLocalID(shelfID)
	if err != nil {
		return err
	}
	shelf.Name = name
	shelf.Description = description
	shelf.MarkDirty()
	return s.shelves.Upsert(shelf)
}

// DeleteShelf tombstones a shelf.
func (s *Service) DeleteShelf(shelfID uint) error {
	return s.shelves.MarkDeleted(shelfID)
}

// AddQuote records a highlight made while reading.
func (s *Service) AddQuote(bookID uint, text, note string, position int, chapter, color string) (*entities.Quote, error) {
	if _, err := s.books.GetByLocalID(bookID); err != nil {
		return nil, fmt.Errorf("book %d: %w", bookID, err)
	}
	quote := &entities.Quote{
		BookID:   bookID,
		Text:     text,
		Note:     note,
		Position: position,
		Chapter:  chapter,
		Color:    color,
	}
	quote.MarkDirty()
	if err := s.quotes.Upsert(quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// UpdateQuote edits a quote's note or styling.
func (s *Service) UpdateQuote(quoteID uint, note, color string) error {
	quote, err := s.quotes.GetByLocalID(quoteID)
	if err != nil {
		return err
	}
	quote.Note = note
	quote.Color = color
	quote.MarkDirty()
	return s.quotes.Upsert(quote)
}

// DeleteQuote tombstones a quote.
func (s *Service) DeleteQuote(quoteID uint) error {
	return s.quotes.MarkDeleted(quoteID)
}

// AddBookmark records a reading position marker.
func (s *Service) AddBookmark(bookID uint, position int, name string) (*entities.Bookmark, error) {
	if _, err := s.books.GetByLocalID(bookID); err != nil {
		return nil, fmt.Errorf("book %d: %w", bookID, err)
	}
	bookmark := &entities.Bookmark{BookID: bookID, Position: position, Name: name}
	bookmark.MarkDirty()
	if err := s.bookmarks.Upsert(bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

// DeleteBookmark tombstones a bookmark.
func (s *Service) DeleteBookmark(bookmarkID uint) error {
	return s.bookmarks.MarkDeleted(bookmarkID)
}

// CreateNote adds a note, optionally attached to a book.
func (s *Service) CreateNote(bookID *uint, title, content string) (*entities.Note, error) {
	if bookID != nil {
		if _, err := s.books.GetByLocalID(*bookID); err != nil {
			return nil, fmt.Errorf("book %d: %w", *bookID, err)
		}
	}
	note := &entities.Note{BookID: bookID, Title: title, Content: content}
	note.MarkDirty()
	if err := s.notes.Upsert(note); err != nil {
		return nil, err
	}
	return note, nil
}

// UpdateNote edits a note's title and content.
func (s *Service) UpdateNote(noteID uint, title, content string) error {
	note, err := s.notes.GetByLocalID(noteID)
	if err != nil {
		return err
	}
	note.Title = title
	note.Content = content
	note.MarkDirty()
	return s.notes.Upsert(note)
}

// DeleteNote tombstones a note.
func (s *Service) DeleteNote(noteID uint) error {
	return s.notes.MarkDeleted(noteID)
}
