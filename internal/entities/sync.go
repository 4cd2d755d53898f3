package entities

import "time"

// SyncMeta carries the synchronization state every synced entity embeds.
//
// ServerID is nil until the server acknowledges creation. IsSynced is false
// whenever the row holds local edits the server has not confirmed. IsDeleted
// marks a tombstone: the row is hidden from reads and retained until the
// deletion is acknowledged server-side.
type SyncMeta struct {
	ServerID  *int64 `gorm:"uniqueIndex" json:"server_id,omitempty"`
	IsSynced  bool   `gorm:"default:false;index" json:"is_synced"`
	IsDeleted bool   `gorm:"default:false;index" json:"is_deleted"`
}

// MarkDirty flags the row as holding unconfirmed local edits.
func (m *SyncMeta) MarkDirty() {
	m.IsSynced = false
}

// MarkDeleted turns the row into a dirty tombstone.
func (m *SyncMeta) MarkDeleted() {
	m.IsDeleted = true
	m.IsSynced = false
}

// Bind records the server-assigned identifier after a confirmed create.
func (m *SyncMeta) Bind(serverID int64) {
	m.ServerID = &serverID
	m.IsSynced = true
}

type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusSkipped SyncStatus = "skipped"
)

// SyncState records the outcome of the most recent reconciliation of one
// entity kind. One row per kind, surfaced by the sync status endpoint.
type SyncState struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	Kind     string     `gorm:"uniqueIndex;size:50" json:"kind"`
	Status   SyncStatus `gorm:"size:20" json:"status"`
	Message  string     `gorm:"type:text" json:"message,omitempty"`
	LastRun  time.Time  `json:"last_run"`
	LastPass string     `gorm:"size:36" json:"last_pass"`
}

func (SyncState) TableName() string {
	return "sync_states"
}
