package sync

import (
	"fmt"

	"github.com/avolkov/libry/internal/database/bookmarks"
	"github.com/avolkov/libry/internal/database/books"
	"github.com/avolkov/libry/internal/database/notes"
	"github.com/avolkov/libry/internal/database/quotes"
	"github.com/avolkov/libry/internal/database/shelves"
	"github.com/avolkov/libry/internal/entities"
	"github.com/avolkov/libry/internal/remote"
)

// Step names double as the sync-state kind keys.
const (
	KindBooks      = "books"
	KindShelves    = "shelves"
	KindQuotes     = "quotes"
	KindNotes      = "notes"
	KindBookmarks  = "bookmarks"
	KindShelfBooks = "shelf_books"
)

// NewBooksReconciler binds the books repository to the books gateway.
func NewBooksReconciler(repo *books.Repository, gw Gateway[remote.Book]) *Reconciler[*entities.Book, remote.Book] {
	codec := Codec[*entities.Book, remote.Book]{
		ToRemote: func(b *entities.Book) (remote.Book, error) {
			names := make([]string, 0, len(b.Authors))
			for _, a := range b.Authors {
				names = append(names, a.Name)
			}
			return remote.Book{
				Title:    b.Title,
				Authors:  names,
				ISBN:     b.ISBN,
				CoverURL: b.CoverURL,
				Format:   string(b.Format),
				Progress: b.Progress,
			}, nil
		},
		FromRemote: func(rb remote.Book) (*entities.Book, error) {
			authors, err := repo.ResolveAuthors(rb.Authors)
			if err != nil {
				return nil, err
			}
			return &entities.Book{
				Title:    rb.Title,
				Authors:  authors,
				ISBN:     rb.ISBN,
				CoverURL: rb.CoverURL,
				Format:   entities.BookFormat(rb.Format),
				Progress: rb.Progress,
			}, nil
		},
		Merge: func(b *entities.Book, rb remote.Book) error {
			authors, err := repo.ResolveAuthors(rb.Authors)
			if err != nil {
				return err
			}
			b.Title = rb.Title
			b.Authors = authors
			b.ISBN = rb.ISBN
			b.CoverURL = rb.CoverURL
			b.Format = entities.BookFormat(rb.Format)
			b.Progress = rb.Progress
			return nil
		},
		RemoteID: func(rb remote.Book) int64 { return rb.ID },
	}
	return NewReconciler(KindBooks, repo, gw, codec)
}

// NewShelvesReconciler binds the shelves repository to the shelves gateway.
func NewShelvesReconciler(repo *shelves.Repository, gw Gateway[remote.Shelf]) *Reconciler[*entities.Shelf, remote.Shelf] {
	codec := Codec[*entities.Shelf, remote.Shelf]{
		ToRemote: func(s *entities.Shelf) (remote.Shelf, error) {
			return remote.Shelf{Name: s.Name, Description: s.Description}, nil
		},
		FromRemote: func(rs remote.Shelf) (*entities.Shelf, error) {
			return &entities.Shelf{Name: rs.Name, Description: rs.Description}, nil
		},
		Merge: func(s *entities.Shelf, rs remote.Shelf) error {
			s.Name = rs.Name
			s.Description = rs.Description
			return nil
		},
		RemoteID: func(rs remote.Shelf) int64 { return rs.ID },
	}
	return NewReconciler(KindShelves, repo, gw, codec)
}

// bookBinding resolves a local book reference to its server identifier and
// back. Child kinds defer rows whose book is not bound or not pulled yet.
type bookBinding struct {
	repo *books.Repository
}

func (b bookBinding) serverID(localID uint) (int64, error) {
	book, err := b.repo.GetByLocalID(localID)
	if err != nil {
		return 0, fmt.Errorf("book %d lookup: %w", localID, err)
	}
	if book.ServerID == nil {
		return 0, ErrSkipRow
	}
	return *book.ServerID, nil
}

func (b bookBinding) localID(serverID int64) (uint, error) {
	book, ok, err := b.repo.FindByServerID(serverID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrSkipRow
	}
	return book.LocalID, nil
}

// NewQuotesReconciler binds the quotes repository to the quotes gateway,
// remapping book references through the books repository.
func NewQuotesReconciler(repo *quotes.Repository, booksRepo *books.Repository, gw Gateway[remote.Quote]) *Reconciler[*entities.Quote, remote.Quote] {
	binding := bookBinding{repo: booksRepo}
	codec := Codec[*entities.Quote, remote.Quote]{
		ToRemote: func(q *entities.Quote) (remote.Quote, error) {
			bookID, err := binding.serverID(q.BookID)
			if err != nil {
				return remote.Quote{}, err
			}
			return remote.Quote{
				BookID:   bookID,
				Text:     q.Text,
				Note:     q.Note,
				Position: q.Position,
				Chapter:  q.Chapter,
				Color:    q.Color,
			}, nil
		},
		FromRemote: func(rq remote.Quote) (*entities.Quote, error) {
			bookID, err := binding.localID(rq.BookID)
			if err != nil {
				return nil, err
			}
			return &entities.Quote{
				BookID:   bookID,
				Text:     rq.Text,
				Note:     rq.Note,
				Position: rq.Position,
				Chapter:  rq.Chapter,
				Color:    rq.Color,
			}, nil
		},
		Merge: func(q *entities.Quote, rq remote.Quote) error {
			bookID, err := binding.localID(rq.BookID)
			if err != nil {
				return err
			}
			q.BookID = bookID
			q.Text = rq.Text
			q.Note = rq.Note
			q.Position = rq.Position
			q.Chapter = rq.Chapter
			q.Color = rq.Color
			return nil
		},
		RemoteID: func(rq remote.Quote) int64 { return rq.ID },
	}
	return NewReconciler(KindQuotes, repo, gw, codec)
}

// NewBookmarksReconciler binds the bookmarks repository to the bookmarks
// gateway, remapping book references through the books repository.
func NewBookmarksReconciler(repo *bookmarks.Repository, booksRepo *books.Repository, gw Gateway[remote.Bookmark]) *Reconciler[*entities.Bookmark, remote.Bookmark] {
	binding := bookBinding{repo: booksRepo}
	codec := Codec[*entities.Bookmark, remote.Bookmark]{
		ToRemote: func(b *entities.Bookmark) (remote.Bookmark, error) {
			bookID, err := binding.serverID(b.BookID)
			if err != nil {
				return remote.Bookmark{}, err
			}
			return remote.Bookmark{BookID: bookID, Position: b.Position, Name: b.Name}, nil
		},
		FromRemote: func(rb remote.Bookmark) (*entities.Bookmark, error) {
			bookID, err := binding.localID(rb.BookID)
			if err != nil {
				return nil, err
			}
			return &entities.Bookmark{BookID: bookID, Position: rb.Position, Name: rb.Name}, nil
		},
		Merge: func(b *entities.Bookmark, rb remote.Bookmark) error {
			bookID, err := binding.localID(rb.BookID)
			if err != nil {
				return err
			}
			b.BookID = bookID
			b.Position = rb.Position
			b.Name = rb.Name
			return nil
		},
		RemoteID: func(rb remote.Bookmark) int64 { return rb.ID },
	}
	return NewReconciler(KindBookmarks, repo, gw, codec)
}

// NewNotesReconciler binds the notes repository to the notes gateway. Notes
// may be standalone; only book-bound notes go through the book mapping.
func NewNotesReconciler(repo *notes.Repository, booksRepo *books.Repository, gw Gateway[remote.Note]) *Reconciler[*entities.Note, remote.Note] {
	binding := bookBinding{repo: booksRepo}
	codec := Codec[*entities.Note, remote.Note]{
		ToRemote: func(n *entities.Note) (remote.Note, error) {
			payload := remote.Note{Title: n.Title, Content: n.Content}
			if n.BookID != nil {
				bookID, err := binding.serverID(*n.BookID)
				if err != nil {
					return remote.Note{}, err
				}
				payload.BookID = &bookID
			}
			return payload, nil
		},
		FromRemote: func(rn remote.Note) (*entities.Note, error) {
			note := &entities.Note{Title: rn.Title, Content: rn.Content}
			if rn.BookID != nil {
				bookID, err := binding.localID(*rn.BookID)
				if err != nil {
					return nil, err
				}
				note.BookID = &bookID
			}
			return note, nil
		},
		Merge: func(n *entities.Note, rn remote.Note) error {
			n.Title = rn.Title
			n.Content = rn.Content
			if rn.BookID == nil {
				n.BookID = nil
				return nil
			}
			bookID, err := binding.localID(*rn.BookID)
			if err != nil {
				return err
			}
			n.BookID = &bookID
			return nil
		},
		RemoteID: func(rn remote.Note) int64 { return rn.ID },
	}
	return NewReconciler(KindNotes, repo, gw, codec)
}
