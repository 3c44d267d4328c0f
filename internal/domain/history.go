package domain

import "time"

// Action is the kind of mutation a history entry records.
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionUpdate       Action = "UPDATE"
	ActionDelete       Action = "DELETE"
	ActionStatusChange Action = "STATUS_CHANGE"
)

// HistoryEntry is an append-only audit record. GuestID is a weak reference:
// entries outlive the soft delete of their guest.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	GuestID   int64     `json:"guestId"`
	Action    Action    `json:"action"`
	Field     *string   `json:"field"`
	OldValue  *string   `json:"oldValue"`
	NewValue  *string   `json:"newValue"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryFilter scopes a history read. A zero GuestID reads every guest.
type HistoryFilter struct {
	GuestID int64
}
