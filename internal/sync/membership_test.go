package sync

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avolkov/libry/internal/database/books"
	"github.com/avolkov/libry/internal/database/shelves"
	"github.com/avolkov/libry/internal/entities"
)

type fakeShelfBooks struct {
	byShelf map[int64][]int64
}

func (f *fakeShelfBooks) Books(ctx context.Context, shelfID int64) ([]int64, error) {
	return f.byShelf[shelfID], nil
}

func setupMembershipTest(t *testing.T) (*shelves.Repository, *books.Repository, func()) {
	dbPath := "./test_membership_" + t.Name() + ".db"

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

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return shelves.NewRepository(db), books.NewRepository(db), cleanup
}

func boundBook(t *testing.T, repo *books.Repository, title string, serverID int64) *entities.Book {
	book := &entities.Book{Title: title}
	book.Bind(serverID)
	require.NoError(t, repo.Upsert(book))
	return book
}

func TestShelfMembershipStep_RewritesFromServerView(t *testing.T) {
	shelvesRepo, booksRepo, cleanup := setupMembershipTest(t)
	defer cleanup()

	first := boundBook(t, booksRepo, "First", 101)
	second := boundBook(t, booksRepo, "Second", 102)

	shelf := &entities.Shelf{Name: "Reading"}
	shelf.Bind(7)
	require.NoError(t, shelvesRepo.Upsert(shelf))
	// Stale local membership: only "First".
	require.NoError(t, shelvesRepo.ReplaceBooks(shelf.LocalID, []uint{first.LocalID}))

	gw := &fakeShelfBooks{byShelf: map[int64][]int64{7: {101, 102}}}
	step := NewShelfMembershipStep(shelvesRepo, booksRepo, gw)

	require.NoError(t, step.Run(context.Background()))

	onShelf, err := shelvesRepo.GetBooks(shelf.LocalID)
	require.NoError(t, err)
	require.Len(t, onShelf, 2)
	assert.Equal(t, first.Title, onShelf[0].Title)
	assert.Equal(t, second.Title, onShelf[1].Title)
}

func TestShelfMembershipStep_SkipsUnpulledBooks(t *testing.T) {
	shelvesRepo, booksRepo, cleanup := setupMembershipTest(t)
	defer cleanup()

	known := boundBook(t, booksRepo, "Known", 101)

	shelf := &entities.Shelf{Name: "Reading"}
	shelf.Bind(7)
	require.NoError(t, shelvesRepo.Upsert(shelf))

	// 999 has no local binding yet; the rewrite keeps only what it can map.
	gw := &fakeShelfBooks{byShelf: map[int64][]int64{7: {101, 999}}}
	step := NewShelfMembershipStep(shelvesRepo, booksRepo, gw)

	require.NoError(t, step.Run(context.Background()))

	onShelf, err := shelvesRepo.GetBooks(shelf.LocalID)
	require.NoError(t, err)
	require.Len(t, onShelf, 1)
	assert.Equal(t, known.LocalID, onShelf[0].LocalID)
}

func TestShelfMembershipStep_IgnoresPendingShelves(t *testing.T) {
	shelvesRepo, booksRepo, cleanup := setupMembershipTest(t)
	defer cleanup()

	book := boundBook(t, booksRepo, "Book", 101)

	// Bound but dirty: a local rename is still waiting to be pushed.
	dirty := &entities.Shelf{Name: "Renamed Locally"}
	dirty.Bind(7)
	dirty.MarkDirty()
	require.NoError(t, shelvesRepo.Upsert(dirty))
	require.NoError(t, shelvesRepo.ReplaceBooks(dirty.LocalID, []uint{book.LocalID}))

	// Server says the shelf is empty, but local state is pending.
	gw := &fakeShelfBooks{byShelf: map[int64][]int64{7: {}}}
	step := NewShelfMembershipStep(shelvesRepo, booksRepo, gw)

	require.NoError(t, step.Run(context.Background()))

	onShelf, err := shelvesRepo.GetBooks(dirty.LocalID)
	require.NoError(t, err)
	assert.Len(t, onShelf, 1, "pending shelves keep their local membership")
}
