package quotes

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
	dbPath := "./test_quotes_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Quote{},
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

func createTestQuote(t *testing.T, repo *Repository, bookID uint, text string, position int) *entities.Quote {
	quote := &entities.Quote{BookID: bookID, Text: text, Position: position}
	require.NoError(t, repo.Upsert(quote))
	return quote
}

func TestRepository_ListActiveForBookOrdersByPosition(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestQuote(t, repo, 1, "later", 200)
	createTestQuote(t, repo, 1, "earlier", 50)
	createTestQuote(t, repo, 2, "other book", 10)

	quotes, err := repo.ListActiveForBook(1)

	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "earlier", quotes[0].Text)
	assert.Equal(t, "later", quotes[1].Text)
}

func TestRepository_MarkDeletedHidesFromActiveReads(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	quote := createTestQuote(t, repo, 1, "doomed", 10)
	require.NoError(t, repo.MarkDeleted(quote.LocalID))

	active, err := repo.ListActiveForBook(1)
	require.NoError(t, err)
	assert.Empty(t, active)

	// The tombstone itself survives until the reconciler removes it.
	var stored entities.Quote
	require.NoError(t, db.First(&stored, quote.LocalID).Error)
	assert.True(t, stored.IsDeleted)
	assert.False(t, stored.IsSynced)
}

func TestRepository_ListUnsynced(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	pushed := createTestQuote(t, repo, 1, "pushed", 1)
	pushed.Bind(31)
	require.NoError(t, repo.Upsert(pushed))

	createTestQuote(t, repo, 1, "fresh", 2)

	unsynced, err := repo.ListUnsynced()

	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "fresh", unsynced[0].Text)
}

func TestRepository_ListBound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	bound := createTestQuote(t, repo, 1, "bound", 1)
	bound.Bind(55)
	require.NoError(t, repo.Upsert(bound))

	createTestQuote(t, repo, 1, "local only", 2)

	rows, err := repo.ListBound()

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(55), *rows[0].ServerID)
}

func TestRepository_RemoveHardDeletes(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	quote := createTestQuote(t, repo, 1, "gone", 1)
	require.NoError(t, repo.Remove(quote.LocalID))

	err := db.First(&entities.Quote{}, quote.LocalID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_GetByLocalID_NotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByLocalID(999)

	assert.Error(t, err)
}
