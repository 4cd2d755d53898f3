package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/libry/internal/database/settings"
	"github.com/avolkov/libry/internal/scheduler"
	libsync "github.com/avolkov/libry/internal/sync"
)

// SyncController handles manual sync triggers and status reads.
type SyncController struct {
	scheduler    *scheduler.SyncScheduler
	orchestrator *libsync.Orchestrator
	settings     *settings.Repository
}

// NewSyncController creates a new SyncController.
func NewSyncController(sched *scheduler.SyncScheduler, orch *libsync.Orchestrator, settingsRepo *settings.Repository) *SyncController {
	return &SyncController{scheduler: sched, orchestrator: orch, settings: settingsRepo}
}

// TriggerSync handles POST /api/sync. The pass runs in the background.
func (sc *SyncController) TriggerSync(c *gin.Context) {
	if sc.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync is disabled"})
		return
	}
	if sc.orchestrator != nil && sc.orchestrator.InFlight() {
		c.JSON(http.StatusConflict, gin.H{"error": "a sync pass is already running"})
		return
	}
	if err := sc.scheduler.RunNow(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sync enqueued"})
}

// KindStatus is one entity kind's last recorded outcome.
type KindStatus struct {
	Kind    string    `json:"kind"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

// SyncStatusResponse is the aggregate sync status.
type SyncStatusResponse struct {
	SchedulerRunning bool         `json:"scheduler_running"`
	NextRun          *time.Time   `json:"next_run,omitempty"`
	Kinds            []KindStatus `json:"kinds"`
}

// Status handles GET /api/sync/status.
func (sc *SyncController) Status(c *gin.Context) {
	resp := SyncStatusResponse{}

	if sc.scheduler != nil {
		resp.SchedulerRunning = sc.scheduler.IsRunning()
		resp.NextRun = sc.scheduler.NextRunTime()
	}

	states, err := sc.settings.ListStates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, state := range states {
		resp.Kinds = append(resp.Kinds, KindStatus{
			Kind:    state.Kind,
			Status:  string(state.Status),
			Message: state.Message,
			LastRun: state.LastRun,
		})
	}

	c.IndentedJSON(http.StatusOK, resp)
}
