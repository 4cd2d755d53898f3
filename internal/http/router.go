// Package http exposes the thin JSON surface of the sync service: health,
// manual sync triggers, per-kind sync status and read/mutation endpoints over
// the local store. Reads always come from the local store, never the network.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avolkov/libry/internal/database"
	"github.com/avolkov/libry/internal/database/bookmarks"
	"github.com/avolkov/libry/internal/database/books"
	"github.com/avolkov/libry/internal/database/notes"
	"github.com/avolkov/libry/internal/database/quotes"
	"github.com/avolkov/libry/internal/database/settings"
	"github.com/avolkov/libry/internal/database/shelves"
	"github.com/avolkov/libry/internal/database/users"
	"github.com/avolkov/libry/internal/library"
	"github.com/avolkov/libry/internal/scheduler"
	libsync "github.com/avolkov/libry/internal/sync"
)

// RouterConfig carries all handler dependencies.
type RouterConfig struct {
	Database     *database.Database
	Scheduler    *scheduler.SyncScheduler
	Orchestrator *libsync.Orchestrator
	Settings     *settings.Repository
	Library      *library.Service

	Books     *books.Repository
	Shelves   *shelves.Repository
	Quotes    *quotes.Repository
	Bookmarks *bookmarks.Repository
	Notes     *notes.Repository
	Users     *users.Repository

	Version string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.Database, cfg.Version)
	syncController := NewSyncController(cfg.Scheduler, cfg.Orchestrator, cfg.Settings)
	libraryController := NewLibraryController(cfg)
	profileController := NewProfileController(cfg.Users)

	router.GET("/health", healthController.Status)

	api := router.Group("/api")
	{
		api.POST("/sync", syncController.TriggerSync)
		api.GET("/sync/status", syncController.Status)

		api.GET("/books", libraryController.ListBooks)
		api.POST("/books", libraryController.CreateBook)
		api.DELETE("/books/:id", libraryController.DeleteBook)
		api.PUT("/books/:id/progress", libraryController.UpdateProgress)
		api.GET("/books/:id/content", libraryController.GetContent)
		api.PUT("/books/:id/content", libraryController.StoreContent)
		api.GET("/books/:id/quotes", libraryController.ListQuotes)
		api.POST("/books/:id/quotes", libraryController.CreateQuote)
		api.GET("/books/:id/bookmarks", libraryController.ListBookmarks)
		api.POST("/books/:id/bookmarks", libraryController.CreateBookmark)

		api.GET("/shelves", libraryController.ListShelves)
		api.POST("/shelves", libraryController.CreateShelf)
		api.PUT("/shelves/:id", libraryController.RenameShelf)
		api.DELETE("/shelves/:id", libraryController.DeleteShelf)
		api.GET("/shelves/:id/books", libraryController.ListShelfBooks)

		api.PUT("/quotes/:id", libraryController.UpdateQuote)
		api.DELETE("/quotes/:id", libraryController.DeleteQuote)
		api.DELETE("/bookmarks/:id", libraryController.DeleteBookmark)

		api.GET("/notes", libraryController.ListNotes)
		api.POST("/notes", libraryController.CreateNote)
		api.PUT("/notes/:id", libraryController.UpdateNote)
		api.DELETE("/notes/:id", libraryController.DeleteNote)

		api.GET("/user", profileController.Current)
		api.PUT("/user", profileController.Put)
		api.DELETE("/user", profileController.Forget)
	}

	return router
}
