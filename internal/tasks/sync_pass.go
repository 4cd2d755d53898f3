package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/avolkov/libry/internal/audit"
	libsync "github.com/avolkov/libry/internal/sync"
)

// SyncPassTask runs one full reconciliation pass across all entity kinds.
// Trigger records who asked, for the task log only.
type SyncPassTask struct {
	Trigger string `json:"trigger"` // "scheduled" or "manual"
}

// Config returns the queue configuration for sync pass tasks. MaxAttempts
// bounds retries per trigger: after the third failed attempt the task is
// dropped and the next trigger starts a fresh count.
func (t SyncPassTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sync_pass",
		MaxAttempts: 3,
		Backoff:     1 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SyncPassProcessor creates a processor function for SyncPassTask. auditor
// may be nil when report persistence is not configured.
func SyncPassProcessor(orchestrator *libsync.Orchestrator, auditor *audit.Auditor) backlite.QueueProcessor[SyncPassTask] {
	return func(ctx context.Context, task SyncPassTask) error {
		report, err := orchestrator.Run(ctx)
		if errors.Is(err, libsync.ErrSyncInFlight) {
			// Another trigger's pass is running; this one is coalesced.
			log.Printf("[TASK] sync pass (%s) skipped: already in flight", task.Trigger)
			return nil
		}
		if err != nil {
			return fmt.Errorf("sync pass (%s): %w", task.Trigger, err)
		}

		if auditor != nil {
			if _, auditErr := auditor.SaveReport(report); auditErr != nil {
				log.Printf("[TASK] failed to save sync audit record: %v", auditErr)
			}
		}

		if passErr := report.Err(); passErr != nil {
			// A failed step leaves its rows dirty; returning the error makes
			// backlite retry the whole pass, which is idempotent.
			return passErr
		}

		log.Printf("[TASK] sync pass (%s) completed: %d steps in %v",
			task.Trigger, len(report.Steps), report.Duration().Round(time.Millisecond))
		return nil
	}
}

// NewSyncPassQueue creates a backlite queue for sync pass tasks.
func NewSyncPassQueue(orchestrator *libsync.Orchestrator, auditor *audit.Auditor) backlite.Queue {
	return backlite.NewQueue(SyncPassProcessor(orchestrator, auditor))
}
