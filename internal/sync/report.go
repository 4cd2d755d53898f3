package sync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StepResult records the outcome of one reconciler step within a pass.
type StepResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Report is the aggregate outcome of one sync pass.
type Report struct {
	ID          string       `json:"id"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
	Steps       []StepResult `json:"steps"`
}

func newReport() *Report {
	return &Report{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
	}
}

func (r *Report) record(name string, err error) {
	result := StepResult{Name: name, OK: err == nil}
	if err != nil {
		result.Error = err.Error()
	}
	r.Steps = append(r.Steps, result)
}

// Failed returns the names of the steps that did not succeed.
func (r *Report) Failed() []string {
	var failed []string
	for _, step := range r.Steps {
		if !step.OK {
			failed = append(failed, step.Name)
		}
	}
	return failed
}

// Err collapses the report into a single error when any step failed, so
// callers with retry semantics (the task queue) can re-run the pass.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("sync pass %s: %d step(s) failed: %s",
		r.ID, len(failed), strings.Join(failed, ", "))
}

// Duration returns the wall time of the pass.
func (r *Report) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// ErrSyncInFlight is returned when Run is called while a pass is already
// active; the new trigger is coalesced, not queued.
var ErrSyncInFlight = errors.New("sync pass already in flight")
