package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/avolkov/libry/internal/database/settings"
	"github.com/avolkov/libry/internal/entities"
	"github.com/avolkov/libry/internal/remote"
)

// Step is one unit of a sync pass: a reconciler or the post-pass membership
// refresh.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Orchestrator runs every step once per pass in a fixed order and reports
// per-step outcomes without short-circuiting: a failing kind never blocks the
// kinds after it. At most one pass is in flight; concurrent triggers are
// coalesced.
type Orchestrator struct {
	steps  []Step
	states *settings.Repository

	mu       sync.Mutex
	inFlight bool

	unauthorized chan struct{}
}

// NewOrchestrator creates an orchestrator over the given steps. Kinds with
// referential lookups (quotes, bookmarks, notes resolve their book through
// the books mapping) must be listed after books. states may be nil in tests.
func NewOrchestrator(states *settings.Repository, steps ...Step) *Orchestrator {
	return &Orchestrator{
		steps:        steps,
		states:       states,
		unauthorized: make(chan struct{}, 1),
	}
}

// Unauthorized signals once per pass in which any step hit an expired
// session. The entrypoint (or whoever owns session handling) subscribes;
// there is no global notifier.
func (o *Orchestrator) Unauthorized() <-chan struct{} {
	return o.unauthorized
}

// InFlight reports whether a pass is currently running.
func (o *Orchestrator) InFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

// Run executes one sync pass. Returns ErrSyncInFlight when a pass is already
// active. Step failures, including panics inside a reconciler, are recorded
// in the report and never abort the pass.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrSyncInFlight
	}
	o.inFlight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	report := newReport()
	log.Printf("Sync: pass %s starting (%d steps)", report.ID, len(o.steps))

	sessionExpired := false
	for _, step := range o.steps {
		err := o.runStep(ctx, step)
		report.record(step.Name, err)

		status := entities.SyncStatusSuccess
		message := ""
		if err != nil {
			status = entities.SyncStatusFailed
			message = err.Error()
			if errors.Is(err, remote.ErrUnauthorized) {
				sessionExpired = true
			}
			log.Printf("Sync: step %s failed: %v", step.Name, err)
		} else {
			log.Printf("Sync: step %s ok", step.Name)
		}

		if o.states != nil {
			if stateErr := o.states.SetState(step.Name, status, message, report.ID); stateErr != nil {
				log.Printf("Sync: failed to record state for %s: %v", step.Name, stateErr)
			}
		}
	}

	if sessionExpired {
		select {
		case o.unauthorized <- struct{}{}:
		default:
		}
	}

	report.CompletedAt = time.Now()
	log.Printf("Sync: pass %s finished in %v (%d/%d steps ok)",
		report.ID, report.Duration().Round(time.Millisecond),
		len(report.Steps)-len(report.Failed()), len(report.Steps))
	return report, nil
}

// runStep converts a reconciler panic into a recorded failure so a bug in
// one kind cannot take down the pass.
func (o *Orchestrator) runStep(ctx context.Context, step Step) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reconciler panicked: %v", rec)
		}
	}()
	return step.Run(ctx)
}
