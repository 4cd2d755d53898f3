package sync

import (
	"context"
	"fmt"
	"log"

	"github.com/avolkov/libry/internal/database/books"
	"github.com/avolkov/libry/internal/database/shelves"
)

// ShelfBooksLister is the slice of the shelves gateway the membership
// refresh needs.
type ShelfBooksLister interface {
	Books(ctx context.Context, shelfID int64) ([]int64, error)
}

// NewShelfMembershipStep builds the post-pass step that rewrites each synced
// shelf's book membership from the server's view. Runs after books and
// shelves so both sides of the join are already reconciled.
func NewShelfMembershipStep(shelvesRepo *shelves.Repository, booksRepo *books.Repository, gw ShelfBooksLister) Step {
	return Step{
		Name: KindShelfBooks,
		Run: func(ctx context.Context) error {
			bound, err := shelvesRepo.ListBound()
			if err != nil {
				return err
			}

			for _, shelf := range bound {
				if err := ctx.Err(); err != nil {
					return err
				}
				if shelf.IsDeleted || !shelf.IsSynced {
					// Pending local state; membership follows once the shelf
					// itself is reconciled.
					continue
				}

				serverBookIDs, err := gw.Books(ctx, *shelf.ServerID)
				if err != nil {
					return fmt.Errorf("shelf %d membership fetch: %w", shelf.LocalID, err)
				}

				localBookIDs := make([]uint, 0, len(serverBookIDs))
				for _, serverID := range serverBookIDs {
					book, ok, err := booksRepo.FindByServerID(serverID)
					if err != nil {
						return err
					}
					if !ok {
						log.Printf("Sync %s: shelf %d references unpulled book %d, skipped",
							KindShelfBooks, shelf.LocalID, serverID)
						continue
					}
					localBookIDs = append(localBookIDs, book.LocalID)
				}

				if err := shelvesRepo.ReplaceBooks(shelf.LocalID, localBookIDs); err != nil {
					return fmt.Errorf("shelf %d membership rewrite: %w", shelf.LocalID, err)
				}
			}
			return nil
		},
	}
}
