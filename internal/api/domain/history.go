package domain

import "time"

type HistoryAction string

const (
	HistoryCreated     HistoryAction = "CREATED"
	HistoryUpdated     HistoryAction = "UPDATED"
	HistoryAssigned    HistoryAction = "ASSIGNED"
	HistoryRoleChanged HistoryAction = "ROLE_CHANGED"
	HistoryRemoved     HistoryAction = "REMOVED"
)

// HistoryEntry is an append-only audit record.
type HistoryEntry struct {
	ID          int64
	UserID      int64
	ProjectID   *int64
	TaskID      *int64
	Action      HistoryAction
	Description string
	CreatedAt   time.Time
}
