package shelves

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avolkov/libry/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_shelves_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Author{},
		&entities.Shelf{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestShelf(t *testing.T, repo *Repository, name string) *entities.Shelf {
	shelf := &entities.Shelf{Name: name}
	require.NoError(t, repo.Upsert(shelf))
	return shelf
}

func createTestBook(t *testing.T, db *gorm.DB, title string) *entities.Book {
	book := &entities.Book{Title: title}
	require.NoError(t, db.Create(book).Error)
	return book
}

func TestRepository_ListActiveOrdersByName(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestShelf(t, repo, "Sci-Fi")
	createTestShelf(t, repo, "Classics")
	gone := createTestShelf(t, repo, "Abandoned")
	require.NoError(t, repo.MarkDeleted(gone.LocalID))

	shelves, err := repo.ListActive()

	require.NoError(t, err)
	require.Len(t, shelves, 2)
	assert.Equal(t, "Classics", shelves[0].Name)
	assert.Equal(t, "Sci-Fi", shelves[1].Name)
}

func TestRepository_ReplaceBooksRewritesMembership(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	shelf := createTestShelf(t, repo, "Reading")
	first := createTestBook(t, db, "First")
	second := createTestBook(t, db, "Second")
	third := createTestBook(t, db, "Third")

	require.NoError(t, repo.ReplaceBooks(shelf.LocalID, []uint{first.LocalID, second.LocalID}))

	books, err := repo.GetBooks(shelf.LocalID)
	require.NoError(t, err)
	require.Len(t, books, 2)

	// Full rewrite: old membership goes away.
	require.NoError(t, repo.ReplaceBooks(shelf.LocalID, []uint{third.LocalID}))

	books, err = repo.GetBooks(shelf.LocalID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Third", books[0].Title)
}

func TestRepository_GetBooksHidesTombstonedBooks(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	shelf := createTestShelf(t, repo, "Reading")
	kept := createTestBook(t, db, "Kept")
	doomed := createTestBook(t, db, "Doomed")
	require.NoError(t, repo.ReplaceBooks(shelf.LocalID, []uint{kept.LocalID, doomed.LocalID}))

	require.NoError(t, db.Model(&entities.Book{}).
		Where("local_id = ?", doomed.LocalID).
		Update("is_deleted", true).Error)

	books, err := repo.GetBooks(shelf.LocalID)

	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Kept", books[0].Title)
}

func TestRepository_RemoveDeletesMembershipRows(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	shelf := createTestShelf(t, repo, "Reading")
	book := createTestBook(t, db, "On Shelf")
	require.NoError(t, repo.ReplaceBooks(shelf.LocalID, []uint{book.LocalID}))

	require.NoError(t, repo.Remove(shelf.LocalID))

	var count int64
	db.Table("shelf_books").Where("shelf_local_id = ?", shelf.LocalID).Count(&count)
	assert.Zero(t, count)

	err := db.First(&entities.Shelf{}, shelf.LocalID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The book itself survives its shelf.
	require.NoError(t, db.First(&entities.Book{}, book.LocalID).Error)
}

func TestRepository_FindByServerID(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	shelf := createTestShelf(t, repo, "Bound")
	shelf.Bind(21)
	require.NoError(t, repo.Upsert(shelf))

	found, ok, err := repo.FindByServerID(21)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, shelf.LocalID, found.LocalID)

	_, ok, err = repo.FindByServerID(404)
	require.NoError(t, err)
	assert.False(t, ok)
}
