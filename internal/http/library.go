package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/libry/internal/database/bookmarks"
	"github.com/avolkov/libry/internal/database/books"
	"github.com/avolkov/libry/internal/database/notes"
	"github.com/avolkov/libry/internal/database/quotes"
	"github.com/avolkov/libry/internal/database/shelves"
	"github.com/avolkov/libry/internal/entities"
	"github.com/avolkov/libry/internal/library"
)

// LibraryController serves reads and mutations over the local store.
// Mutations only mark rows dirty; the network is never touched here.
type LibraryController struct {
	library   *library.Service
	books     *books.Repository
	shelves   *shelves.Repository
	quotes    *quotes.Repository
	bookmarks *bookmarks.Repository
	notes     *notes.Repository
}

// NewLibraryController creates a new LibraryController.
func NewLibraryController(cfg RouterConfig) *LibraryController {
	return &LibraryController{
		library:   cfg.Library,
		books:     cfg.Books,
		shelves:   cfg.Shelves,
		quotes:    cfg.Quotes,
		bookmarks: cfg.Bookmarks,
		notes:     cfg.Notes,
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

type createBookRequest struct {
	Title    string   `json:"title" binding:"required"`
	Authors  []string `json:"authors"`
	ISBN     string   `json:"isbn"`
	FilePath string   `json:"file_path"`
	Format   string   `json:"format"`
}

// ListBooks handles GET /api/books.
func (lc *LibraryController) ListBooks(c *gin.Context) {
	items, err := lc.books.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, items)
}

// CreateBook handles POST /api/books.
func (lc *LibraryController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := lc.library.RegisterBook(req.Title, req.Authors, req.ISBN, req.FilePath, entities.BookFormat(req.Format))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusCreated, book)
}

type updateProgressRequest struct {
	Progress float64 `json:"progress"`
}

// UpdateProgress handles PUT /api/books/:id/progress.
func (lc *LibraryController) UpdateProgress(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Progress < 0 || req.Progress > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "progress must be between 0 and 1"})
		return
	}
	if err := lc.library.UpdateProgress(id, req.Progress); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type storeContentRequest struct {
	HTML string `json:"html" binding:"required"`
}

// GetContent handles GET /api/books/:id/content.
func (lc *LibraryController) GetContent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	content, found, err := lc.library.GetContent(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not downloaded"})
		return
	}
	c.IndentedJSON(http.StatusOK, content)
}

// StoreContent handles PUT /api/books/:id/content.
func (lc *LibraryController) StoreContent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req storeContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lc.library.StoreContent(id, req.HTML); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteBook handles DELETE /api/books/:id. The row becomes a tombstone and
// disappears from reads; physical removal happens after the delete is pushed.
func (lc *LibraryController) DeleteBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := lc.library.DeleteBook(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type createQuoteRequest struct {
	Text     string `json:"text" binding:"required"`
	Note     string `json:"note"`
	Position int    `json:"position"`
	Chapter  string `json:"chapter"`
	Color    string `json:"color"`
}

// ListQuotes handles GET /api/books/:id/quotes.
func (lc *LibraryController) ListQuotes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	items, err := lc.quotes.ListActiveForBook(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, items)
}

// CreateQuote handles POST /api/books/:id/quotes.
func (lc *LibraryController) CreateQuote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := lc.library.AddQuote(id, req.Text, req.Note, req.Position, req.Chapter, req.Color)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusCreated, quote)
}

type updateQuoteRequest struct {
	Note  string `json:"note"`
	Color string `json:"color"`
}

// UpdateQuote handles PUT /api/quotes/:id.
func (lc *LibraryController) UpdateQuote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lc.library.UpdateQuote(id, req.Note, req.Color); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteQuote handles DELETE /api/quotes/:id.
func (lc *LibraryController) DeleteQuote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := lc.library.DeleteQuote(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type createBookmarkRequest struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
}

// ListBookmarks handles GET /api/books/:id/bookmarks.
func (lc *LibraryController) ListBookmarks(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	items, err := lc.bookmarks.ListActiveForBook(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, items)
}

// CreateBookmark handles POST /api/books/:id/bookmarks.
func (lc *LibraryController) CreateBookmark(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req createBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookmark, err := lc.library.AddBookmark(id, req.Position, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusCreated, bookmark)
}

// DeleteBookmark handles DELETE /api/bookmarks/:id.
func (lc *LibraryController) DeleteBookmark(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := lc.library.DeleteBookmark(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type createShelfRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ListShelves handles GET /api/shelves.
func (lc *LibraryController) ListShelves(c *gin.Context) {
	items, err := lc.shelves.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, items)
}

// CreateShelf handles POST /api/shelves.
func (lc *LibraryController) CreateShelf(c *gin.Context) {
	var req createShelfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shelf, err := lc.library.CreateShelf(req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusCreated, shelf)
}

// RenameShelf handles PUT /api/shelves/:id.
func (lc *LibraryController) RenameShelf(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req createShelfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lc.library.RenameShelf(id, req.Name, req.Description); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteShelf handles DELETE /api/shelves/:id.
func (lc *LibraryController) DeleteShelf(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := lc.library.DeleteShelf(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListShelfBooks handles GET /api/shelves/:id/books.
func (lc *LibraryController) ListShelfBooks(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	items, err := lc.shelves.GetBooks(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, items)
}

type createNoteRequest struct {
	BookID  *uint  `json:"book_id"`
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
}

// ListNotes handles GET /api/notes.
func (lc *LibraryController) ListNotes(c *gin.Context) {
	items, err := lc.notes.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, items)
}

// CreateNote handles POST /api/notes.
func (lc *LibraryController) CreateNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note, err := lc.library.CreateNote(req.BookID, req.Title, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusCreated, note)
}

type updateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
}

// UpdateNote handles PUT /api/notes/:id.
func (lc *LibraryController) UpdateNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lc.library.UpdateNote(id, req.Title, req.Content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteNote handles DELETE /api/notes/:id.
func (lc *LibraryController) DeleteNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := lc.library.DeleteNote(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
