package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/libry/internal/audit"
	"github.com/avolkov/libry/internal/config"
	"github.com/avolkov/libry/internal/database"
	"github.com/avolkov/libry/internal/database/bookmarks"
	"github.com/avolkov/libry/internal/database/books"
	"github.com/avolkov/libry/internal/database/contents"
	"github.com/avolkov/libry/internal/database/notes"
	"github.com/avolkov/libry/internal/database/quotes"
	"github.com/avolkov/libry/internal/database/settings"
	"github.com/avolkov/libry/internal/database/shelves"
	"github.com/avolkov/libry/internal/database/users"
	http_controllers "github.com/avolkov/libry/internal/http"
	"github.com/avolkov/libry/internal/library"
	"github.com/avolkov/libry/internal/remote"
	"github.com/avolkov/libry/internal/scheduler"
	libsync "github.com/avolkov/libry/internal/sync"
	"github.com/avolkov/libry/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop the scheduler and drain the task queue before closing the listener
	// so an in-flight sync pass gets a chance to finish.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Libry v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	booksRepo := books.NewRepository(db.DB)
	shelvesRepo := shelves.NewRepository(db.DB)
	quotesRepo := quotes.NewRepository(db.DB)
	bookmarksRepo := bookmarks.NewRepository(db.DB)
	notesRepo := notes.NewRepository(db.DB)
	contentsRepo := contents.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)
	usersRepo := users.NewRepository(db.DB)

	libraryService := library.NewService(
		booksRepo, shelvesRepo, quotesRepo, bookmarksRepo, notesRepo, contentsRepo,
	)

	auditor := audit.NewAuditor(cfg.Audit.Dir)

	var syncScheduler *scheduler.SyncScheduler
	var orchestrator *libsync.Orchestrator
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc

	if cfg.Sync.Enabled {
		if cfg.Remote.BaseURL == "" {
			log.Printf("WARNING: REMOTE_BASE_URL is not set. Sync is configured on but every pass will fail until it is provided.")
		}
		if cfg.Remote.Token == "" {
			log.Printf("WARNING: REMOTE_TOKEN is not set. The remote will reject sync requests. Set 'REMOTE_TOKEN' to authenticate.")
		}

		remoteClient := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token)
		shelvesGateway := remote.NewShelvesGateway(remoteClient)

		orchestrator = libsync.NewOrchestrator(
			settingsRepo,
			libsync.Step{
				Name: libsync.KindBooks,
				Run:  libsync.NewBooksReconciler(booksRepo, remote.NewBooksGateway(remoteClient)).Run,
			},
			libsync.Step{
				Name: libsync.KindShelves,
				Run:  libsync.NewShelvesReconciler(shelvesRepo, shelvesGateway).Run,
			},
			libsync.Step{
				Name: libsync.KindQuotes,
				Run:  libsync.NewQuotesReconciler(quotesRepo, booksRepo, remote.NewQuotesGateway(remoteClient)).Run,
			},
			libsync.Step{
				Name: libsync.KindNotes,
				Run:  libsync.NewNotesReconciler(notesRepo, booksRepo, remote.NewNotesGateway(remoteClient)).Run,
			},
			libsync.Step{
				Name: libsync.KindBookmarks,
				Run:  libsync.NewBookmarksReconciler(bookmarksRepo, booksRepo, remote.NewBookmarksGateway(remoteClient)).Run,
			},
			libsync.NewShelfMembershipStep(shelvesRepo, booksRepo, shelvesGateway),
		)

		// Session expiry is surfaced once per pass; re-authentication is a
		// manual operation, so all we can do here is say so loudly.
		go func() {
			for range orchestrator.Unauthorized() {
				log.Printf("Sync: remote rejected credentials. Update REMOTE_TOKEN and restart.")
			}
		}()

		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewSyncPassQueue(orchestrator, auditor),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		syncScheduler = scheduler.NewSyncScheduler(taskClient, cfg.Sync.Schedule)
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start sync scheduler: %v", err)
		}
	} else {
		log.Printf("Sync disabled. The store works offline only; set SYNC_ENABLED=true to reconcile with the remote.")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:     db,
		Scheduler:    syncScheduler,
		Orchestrator: orchestrator,
		Settings:     settingsRepo,
		Library:      libraryService,
		Books:        booksRepo,
		Shelves:      shelvesRepo,
		Quotes:       quotesRepo,
		Bookmarks:    bookmarksRepo,
		Notes:        notesRepo,
		Users:        usersRepo,
		Version:      version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if syncScheduler != nil {
			syncScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
