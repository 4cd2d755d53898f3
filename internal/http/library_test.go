package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/libry/internal/database"
	"github.com/avolkov/libry/internal/database/bookmarks"
	"github.com/avolkov/libry/internal/database/books"
	"github.com/avolkov/libry/internal/database/contents"
	"github.com/avolkov/libry/internal/database/notes"
	"github.com/avolkov/libry/internal/database/quotes"
	"github.com/avolkov/libry/internal/database/settings"
	"github.com/avolkov/libry/internal/database/shelves"
	"github.com/avolkov/libry/internal/database/users"
	"github.com/avolkov/libry/internal/entities"
	"github.com/avolkov/libry/internal/library"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *database.Database, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	booksRepo := books.NewRepository(db.DB)
	shelvesRepo := shelves.NewRepository(db.DB)
	quotesRepo := quotes.NewRepository(db.DB)
	bookmarksRepo := bookmarks.NewRepository(db.DB)
	notesRepo := notes.NewRepository(db.DB)

	router := NewRouter(RouterConfig{
		Database: db,
		Settings: settings.NewRepository(db.DB),
		Library: library.NewService(
			booksRepo, shelvesRepo, quotesRepo, bookmarksRepo, notesRepo,
			contents.NewRepository(db.DB),
		),
		Books:     booksRepo,
		Shelves:   shelvesRepo,
		Quotes:    quotesRepo,
		Bookmarks: bookmarksRepo,
		Notes:     notesRepo,
		Users:     users.NewRepository(db.DB),
		Version:   "test",
	})

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, db, cleanup
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBooksEndpoints_CreateListDelete(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/books", gin.H{
		"title":   "The Left Hand of Darkness",
		"authors": []string{"Ursula K. Le Guin"},
		"format":  "epub",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.LocalID)
	assert.False(t, created.IsSynced)

	w = doJSON(t, router, "GET", "/api/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	w = doJSON(t, router, "DELETE", "/api/books/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Tombstoned books vanish from reads immediately.
	w = doJSON(t, router, "GET", "/api/books", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Empty(t, listed)
}

func TestBooksEndpoints_CreateRequiresTitle(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/books", gin.H{"isbn": "123"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteEndpoints(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/books", gin.H{"title": "Quotable"})
	require.Equal(t, http.StatusCreated, w.Code)
	var book entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))

	w = doJSON(t, router, "POST", "/api/books/1/quotes", gin.H{
		"text":     "a line worth keeping",
		"position": 42,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "GET", "/api/books/1/quotes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var quotes []entities.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quotes))
	require.Len(t, quotes, 1)
	assert.Equal(t, "a line worth keeping", quotes[0].Text)

	w = doJSON(t, router, "DELETE", "/api/quotes/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", "/api/books/1/quotes", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quotes))
	assert.Empty(t, quotes)
}

func TestBookProgressEndpoint(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/books", gin.H{"title": "Progress"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "PUT", "/api/books/1/progress", gin.H{"progress": 0.42})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "PUT", "/api/books/1/progress", gin.H{"progress": 1.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "GET", "/api/books", nil)
	var listed []entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.InDelta(t, 0.42, listed[0].Progress, 1e-9)
}

func TestBookContentEndpoints(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/books", gin.H{"title": "Readable"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Nothing downloaded yet.
	w = doJSON(t, router, "GET", "/api/books/1/content", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "PUT", "/api/books/1/content", gin.H{"html": "<p>chapter one</p>"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", "/api/books/1/content", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var content entities.BookContent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &content))
	assert.Equal(t, "<p>chapter one</p>", content.HTML)
}

func TestQuoteUpdateEndpoint(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/books", gin.H{"title": "Annotated"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, router, "POST", "/api/books/1/quotes", gin.H{"text": "keep this"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "PUT", "/api/quotes/1", gin.H{"note": "revisit", "color": "yellow"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", "/api/books/1/quotes", nil)
	var quotes []entities.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quotes))
	require.Len(t, quotes, 1)
	assert.Equal(t, "revisit", quotes[0].Note)
	assert.Equal(t, "yellow", quotes[0].Color)
}

func TestQuoteEndpoints_UnknownBook(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/books/99/quotes", gin.H{"text": "orphan"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestShelfEndpoints(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/shelves", gin.H{"name": "To Read"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "GET", "/api/shelves", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var shelves []entities.Shelf
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shelves))
	require.Len(t, shelves, 1)

	w = doJSON(t, router, "GET", "/api/shelves/1/books", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "DELETE", "/api/shelves/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestShelfRenameEndpoint(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/shelves", gin.H{"name": "To Raed"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "PUT", "/api/shelves/1", gin.H{"name": "To Read"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", "/api/shelves", nil)
	var shelves []entities.Shelf
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shelves))
	require.Len(t, shelves, 1)
	assert.Equal(t, "To Read", shelves[0].Name)
}

func TestNoteEndpoints_Standalone(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "POST", "/api/notes", gin.H{
		"title":   "plan",
		"content": "finish part two",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var note entities.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &note))
	assert.Nil(t, note.BookID)

	w = doJSON(t, router, "GET", "/api/notes", nil)
	var listed []entities.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	w = doJSON(t, router, "PUT", "/api/notes/1", gin.H{
		"title":   "plan",
		"content": "finish part two, then the appendix",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", "/api/notes", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "finish part two, then the appendix", listed[0].Content)
}

func TestInvalidIDReturnsBadRequest(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "DELETE", "/api/books/not-a-number", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncEndpoints_DisabledScheduler(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	// Without a scheduler wired, manual sync is unavailable but status works.
	w := doJSON(t, router, "POST", "/api/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, router, "GET", "/api/sync/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status SyncStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.SchedulerRunning)
	assert.Empty(t, status.Kinds)
}

func TestProfileEndpoints(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "GET", "/api/user", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "PUT", "/api/user", gin.H{
		"name":  "Reader",
		"email": "reader@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile entities.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "reader@example.com", profile.Email)

	w = doJSON(t, router, "DELETE", "/api/user", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", "/api/user", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router, _, cleanup := setupTestRouter(t)
	defer cleanup()

	w := doJSON(t, router, "GET", "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Equal(t, "ok", health.Checks["database"])
}
