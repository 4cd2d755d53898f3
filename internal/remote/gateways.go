package remote

import (
	"context"
	"fmt"
	"net/http"
)

// Book is the wire payload for books. IDs are server identifiers.
type Book struct {
	ID       int64    `json:"id,omitempty"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors,omitempty"`
	ISBN     string   `json:"isbn,omitempty"`
	CoverURL string   `json:"cover_url,omitempty"`
	Format   string   `json:"format,omitempty"`
	Progress float64  `json:"progress"`
}

// Shelf is the wire payload for shelves.
type Shelf struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Quote is the wire payload for quotes. BookID references the server book.
type Quote struct {
	ID       int64  `json:"id,omitempty"`
	BookID   int64  `json:"book_id"`
	Text     string `json:"text"`
	Note     string `json:"note,omitempty"`
	Position int    `json:"position"`
	Chapter  string `json:"chapter,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Bookmark is the wire payload for bookmarks.
type Bookmark struct {
	ID       int64  `json:"id,omitempty"`
	BookID   int64  `json:"book_id"`
	Position int    `json:"position"`
	Name     string `json:"name,omitempty"`
}

// Note is the wire payload for notes. BookID is nil for standalone notes.
type Note struct {
	ID      int64  `json:"id,omitempty"`
	BookID  *int64 `json:"book_id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// kindClient implements the list/create/update/delete contract for one
// resource collection.
type kindClient[R any] struct {
	client *Client
	path   string // e.g. "/api/v1/books"
}

func (k *kindClient[R]) List(ctx context.Context) ([]R, error) {
	var out []R
	if err := k.client.do(ctx, http.MethodGet, k.path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (k *kindClient[R]) Create(ctx context.Context, payload R) (R, error) {
	var out R
	if err := k.client.do(ctx, http.MethodPost, k.path, payload, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (k *kindClient[R]) Update(ctx context.Context, serverID int64, payload R) error {
	return k.client.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", k.path, serverID), payload, nil)
}

func (k *kindClient[R]) Delete(ctx context.Context, serverID int64) error {
	return k.client.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", k.path, serverID), nil, nil)
}

// BooksGateway exposes the book collection of the library server.
type BooksGateway struct{ kindClient[Book] }

// ShelvesGateway exposes the shelf collection, plus per-shelf membership.
type ShelvesGateway struct{ kindClient[Shelf] }

// QuotesGateway exposes the quote collection.
type QuotesGateway struct{ kindClient[Quote] }

// BookmarksGateway exposes the bookmark collection.
type BookmarksGateway struct{ kindClient[Bookmark] }

// NotesGateway exposes the note collection.
type NotesGateway struct{ kindClient[Note] }

func NewBooksGateway(c *Client) *BooksGateway {
	return &BooksGateway{kindClient[Book]{client: c, path: "/api/v1/books"}}
}

func NewShelvesGateway(c *Client) *ShelvesGateway {
	return &ShelvesGateway{kindClient[Shelf]{client: c, path: "/api/v1/shelves"}}
}

func NewQuotesGateway(c *Client) *QuotesGateway {
	return &QuotesGateway{kindClient[Quote]{client: c, path: "/api/v1/quotes"}}
}

func NewBookmarksGateway(c *Client) *BookmarksGateway {
	return &BookmarksGateway{kindClient[Bookmark]{client: c, path: "/api/v1/bookmarks"}}
}

func NewNotesGateway(c *Client) *NotesGateway {
	return &NotesGateway{kindClient[Note]{client: c, path: "/api/v1/notes"}}
}

// Books returns the server book IDs shelved on one shelf. Used by the
// post-pass membership refresh.
func (g *ShelvesGateway) Books(ctx context.Context, shelfID int64) ([]int64, error) {
	var out []int64
	path := fmt.Sprintf("%s/%d/books", g.path, shelfID)
	if err := g.client.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
