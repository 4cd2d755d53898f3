// Package sync implements the offline-first reconciliation core: the
// per-kind push-then-pull protocol and the orchestrator that runs every kind
// once per pass.
//
// Push runs first so local edits cannot be clobbered by a pull that arrives
// before they are sent; pull runs second so the store reflects the server's
// view of everything else as soon as possible.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/avolkov/libry/internal/entities"
	"github.com/avolkov/libry/internal/remote"
)

// Entity is any local row carrying sync metadata.
type Entity interface {
	SyncRef() *entities.SyncMeta
	Key() uint
}

// Store is the slice of an entity repository the reconciler needs.
type Store[E Entity] interface {
	ListUnsynced() ([]E, error)
	ListBound() ([]E, error)
	FindByServerID(serverID int64) (E, bool, error)
	Upsert(E) error
	Remove(localID uint) error
}

// Gateway is the remote collection contract for one entity kind.
type Gateway[R any] interface {
	List(ctx context.Context) ([]R, error)
	Create(ctx context.Context, payload R) (R, error)
	Update(ctx context.Context, serverID int64, payload R) error
	Delete(ctx context.Context, serverID int64) error
}

// ErrSkipRow signals a row cannot cross the wire yet, e.g. a quote whose
// book has no server binding. The row is left untouched for a later pass.
var ErrSkipRow = errors.New("row not ready for sync")

// Codec translates between local rows and wire payloads.
type Codec[E Entity, R any] struct {
	// ToRemote builds the wire payload for a local row. May return
	// ErrSkipRow when a referenced parent is not bound yet.
	ToRemote func(E) (R, error)

	// FromRemote builds a fresh local row from a pulled payload. May return
	// ErrSkipRow when a referenced parent has not been pulled yet.
	FromRemote func(R) (E, error)

	// Merge overwrites the local row's domain fields with pulled values.
	// Sync metadata is the reconciler's business, not Merge's.
	Merge func(local E, pulled R) error

	// RemoteID extracts the server identifier from a payload.
	RemoteID func(R) int64
}

// Reconciler brings one entity kind's local and remote state into agreement.
type Reconciler[E Entity, R any] struct {
	name    string
	store   Store[E]
	gateway Gateway[R]
	codec   Codec[E, R]
}

// NewReconciler creates a reconciler for one entity kind.
func NewReconciler[E Entity, R any](name string, store Store[E], gateway Gateway[R], codec Codec[E, R]) *Reconciler[E, R] {
	return &Reconciler[E, R]{name: name, store: store, gateway: gateway, codec: codec}
}

// Name returns the entity kind this reconciler owns.
func (r *Reconciler[E, R]) Name() string { return r.name }

// Run executes one push-then-pull cycle. Per-row failures are logged and the
// row stays dirty for the next pass; only unauthorized sessions, store
// listing failures and a failed pull abort the step.
func (r *Reconciler[E, R]) Run(ctx context.Context) error {
	if err := r.push(ctx); err != nil {
		return fmt.Errorf("%s push: %w", r.name, err)
	}
	if err := r.pull(ctx); err != nil {
		return fmt.Errorf("%s pull: %w", r.name, err)
	}
	return nil
}

func (r *Reconciler[E, R]) push(ctx context.Context) error {
	rows, err := r.store.ListUnsynced()
	if err != nil {
		return err
	}

	for _, row := range rows {
		// Cancellation is honored between rows only: once a network call is
		// made, its result is written back so a server-side create is never
		// left unbound.
		if err := ctx.Err(); err != nil {
			return err
		}

		meta := row.SyncRef()
		var rowErr error
		switch {
		case meta.IsDeleted && meta.ServerID != nil:
			rowErr = r.pushDelete(ctx, row)
		case meta.IsDeleted:
			// Never reached the server, nothing to propagate.
			rowErr = r.store.Remove(row.Key())
		case meta.ServerID == nil:
			rowErr = r.pushCreate(ctx, row)
		default:
			rowErr = r.pushUpdate(ctx, row)
		}

		if rowErr == nil {
			continue
		}
		if errors.Is(rowErr, ErrSkipRow) {
			log.Printf("Sync %s: row %d deferred (parent not bound yet)", r.name, row.Key())
			continue
		}
		if errors.Is(rowErr, remote.ErrUnauthorized) {
			// The session is dead for the rest of this pass; rows stay dirty.
			return rowErr
		}
		log.Printf("Sync %s: push of row %d failed, left dirty for retry: %v", r.name, row.Key(), rowErr)
	}
	return nil
}

func (r *Reconciler[E, R]) pushDelete(ctx context.Context, row E) error {
	if err := r.gateway.Delete(ctx, *row.SyncRef().ServerID); err != nil {
		return err
	}
	return r.store.Remove(row.Key())
}

func (r *Reconciler[E, R]) pushCreate(ctx context.Context, row E) error {
	payload, err := r.codec.ToRemote(row)
	if err != nil {
		return err
	}
	created, err := r.gateway.Create(ctx, payload)
	if err != nil {
		return err
	}
	row.SyncRef().Bind(r.codec.RemoteID(created))
	return r.store.Upsert(row)
}

func (r *Reconciler[E, R]) pushUpdate(ctx context.Context, row E) error {
	payload, err := r.codec.ToRemote(row)
	if err != nil {
		return err
	}
	if err := r.gateway.Update(ctx, *row.SyncRef().ServerID, payload); err != nil {
		return err
	}
	row.SyncRef().IsSynced = true
	return r.store.Upsert(row)
}

func (r *Reconciler[E, R]) pull(ctx context.Context) error {
	pulled, err := r.gateway.List(ctx)
	if err != nil {
		return err
	}

	seen := make(map[int64]bool, len(pulled))
	for _, payload := range pulled {
		serverID := r.codec.RemoteID(payload)
		seen[serverID] = true

		local, ok, err := r.store.FindByServerID(serverID)
		if err != nil {
			log.Printf("Sync %s: lookup of server row %d failed: %v", r.name, serverID, err)
			continue
		}

		if ok {
			meta := local.SyncRef()
			if !meta.IsSynced {
				// Unsynced local edits (and pending tombstones) take
				// precedence until pushed.
				continue
			}
			if err := r.codec.Merge(local, payload); err != nil {
				log.Printf("Sync %s: merge of server row %d failed: %v", r.name, serverID, err)
				continue
			}
			if err := r.store.Upsert(local); err != nil {
				log.Printf("Sync %s: store write for server row %d failed: %v", r.name, serverID, err)
			}
			continue
		}

		fresh, err := r.codec.FromRemote(payload)
		if err != nil {
			if errors.Is(err, ErrSkipRow) {
				log.Printf("Sync %s: server row %d deferred (parent not pulled yet)", r.name, serverID)
			} else {
				log.Printf("Sync %s: decode of server row %d failed: %v", r.name, serverID, err)
			}
			continue
		}
		fresh.SyncRef().Bind(serverID)
		if err := r.store.Upsert(fresh); err != nil {
			log.Printf("Sync %s: insert of server row %d failed: %v", r.name, serverID, err)
		}
	}

	// Bound rows absent from the authoritative list are confirmed deleted
	// server-side: tombstones whose delete call failed or raced, and synced
	// rows removed by another device.
	bound, err := r.store.ListBound()
	if err != nil {
		return err
	}
	for _, row := range bound {
		meta := row.SyncRef()
		if seen[*meta.ServerID] {
			continue
		}
		if meta.IsDeleted || meta.IsSynced {
			if err := r.store.Remove(row.Key()); err != nil {
				log.Printf("Sync %s: removal of confirmed-deleted row %d failed: %v", r.name, row.Key(), err)
			}
		}
		// A dirty, undeleted row whose server copy vanished keeps its local
		// edit; the next push decides its fate.
	}
	return nil
}
