package library

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avolkov/libry/internal/database/bookmarks"
	"github.com/avolkov/libry/internal/database/books"
	"github.com/avolkov/libry/internal/database/contents"
	"github.com/avolkov/libry/internal/database/notes"
	"github.com/avolkov/libry/internal/database/quotes"
	"github.com/avolkov/libry/internal/database/shelves"
	"github.com/avolkov/libry/internal/entities"
)

func setupTestService(t *testing.T) (*gorm.DB, *Service, func()) {
	dbPath := "./test_library_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Author{},
		&entities.Shelf{},
		&entities.Quote{},
		&entities.Bookmark{},
		&entities.Note{},
		&entities.BookContent{},
	)
	require.NoError(t, err)

	service := NewService(
		books.NewRepository(db),
		shelves.NewRepository(db),
		quotes.NewRepository(db),
		bookmarks.NewRepository(db),
		notes.NewRepository(db),
		contents.NewRepository(db),
	)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, service, cleanup
}

func TestService_RegisterBookStartsDirty(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	book, err := service.RegisterBook(
		"The Dispossessed", []string{"Ursula K. Le Guin"},
		"9780061054884", "/books/dispossessed.epub", entities.BookFormatEPUB,
	)

	require.NoError(t, err)
	assert.NotZero(t, book.LocalID)
	assert.False(t, book.IsSynced, "a local create must wait for the next sync pass")
	assert.Nil(t, book.ServerID)
	require.Len(t, book.Authors, 1)
}

func TestService_UpdateProgressMarksDirty(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	book, err := service.RegisterBook("Read Me", nil, "", "", entities.BookFormatEPUB)
	require.NoError(t, err)

	// Pretend it was already pushed.
	book.Bind(4)
	require.NoError(t, db.Save(book).Error)

	require.NoError(t, service.UpdateProgress(book.LocalID, 0.42))

	var stored entities.Book
	require.NoError(t, db.First(&stored, book.LocalID).Error)
	assert.InDelta(t, 0.42, stored.Progress, 0.001)
	assert.False(t, stored.IsSynced)
	require.NotNil(t, stored.ServerID, "editing must never drop the server binding")
}

func TestService_DeleteBookTombstones(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	book, err := service.RegisterBook("Doomed", nil, "", "", entities.BookFormatPDF)
	require.NoError(t, err)

	require.NoError(t, service.DeleteBook(book.LocalID))

	var stored entities.Book
	require.NoError(t, db.First(&stored, book.LocalID).Error)
	assert.True(t, stored.IsDeleted)
	assert.False(t, stored.IsSynced)
}

func TestService_AddQuoteRequiresExistingBook(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.AddQuote(999, "orphan", "", 1, "", "")

	assert.Error(t, err)
}

func TestService_AddQuoteForBook(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	book, err := service.RegisterBook("Quotable", nil, "", "", entities.BookFormatEPUB)
	require.NoError(t, err)

	quote, err := service.AddQuote(book.LocalID, "words to keep", "margin note", 120, "Ch. 3", "#ffdd00")

	require.NoError(t, err)
	assert.Equal(t, book.LocalID, quote.BookID)
	assert.False(t, quote.IsSynced)
}

func TestService_CreateNoteStandalone(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	note, err := service.CreateNote(nil, "reading plan", "finish part two this week")

	require.NoError(t, err)
	assert.Nil(t, note.BookID)
	assert.False(t, note.IsSynced)
}

func TestService_UpdateNote(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	note, err := service.CreateNote(nil, "draft", "v1")
	require.NoError(t, err)

	require.NoError(t, service.UpdateNote(note.LocalID, "final", "v2"))

	var stored entities.Note
	require.NoError(t, db.First(&stored, note.LocalID).Error)
	assert.Equal(t, "final", stored.Title)
	assert.Equal(t, "v2", stored.Content)
}

func TestService_StoreContentIsNeverPushed(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	book, err := service.RegisterBook("Downloaded", nil, "", "", entities.BookFormatFB2)
	require.NoError(t, err)

	require.NoError(t, service.StoreContent(book.LocalID, "<html><p>text</p></html>"))

	var stored entities.BookContent
	require.NoError(t, db.Where("book_id = ?", book.LocalID).First(&stored).Error)
	assert.True(t, stored.IsSynced, "downloaded content never enters the push queue")
}

func TestService_RenameShelf(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	shelf, err := service.CreateShelf("Drafts", "")
	require.NoError(t, err)

	require.NoError(t, service.RenameShelf(shelf.LocalID, "Favourites", "the keepers"))

	var stored entities.Shelf
	require.NoError(t, db.First(&stored, shelf.LocalID).Error)
	assert.Equal(t, "Favourites", stored.Name)
	assert.Equal(t, "the keepers", stored.Description)
	assert.False(t, stored.IsSynced)
}
