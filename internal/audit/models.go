package audit

import "time"

// Event is an immutable admin action record.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and IP capture are best-effort; a failed append never blocks the action.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`
	IPAddress   string `json:"ip_address,omitempty" db:"ip_address"`

	// TargetID is the affected record: a submission id, list entry id or cache.
	TargetID string `json:"target_id,omitempty" db:"target_id"`

	Message string `json:"message,omitempty" db:"message"`
	// Metadata is optional JSON.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventStatusChange    EventType = "submission_status"
	EventBulkAction      EventType = "submission_bulk"
	EventWhitelistAdd    EventType = "whitelist_add"
	EventWhitelistRemove EventType = "whitelist_remove"
	EventBlocklistAdd    EventType = "blocklist_add"
	EventBlocklistRemove EventType = "blocklist_remove"
	EventSettingsUpdate  EventType = "settings_update"
	EventCacheFlush      EventType = "cache_flush"
)

// Actor identifies who performed an admin action.
type Actor struct {
	UserID string
	Role   string
	IP     string
}
