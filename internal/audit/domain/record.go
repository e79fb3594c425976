package domain

import (
	"encoding/json"
	"time"
)

// ActionKind classifies an audited mutation.
type ActionKind string

const (
	ActionCreate         ActionKind = "create"
	ActionUpdate         ActionKind = "update"
	ActionDelete         ActionKind = "delete"
	ActionRoleChange     ActionKind = "role_change"
	ActionRollbackFailed ActionKind = "rollback_failed"
)

// Record is an immutable audit entry. Records are only ever appended; nothing
// in the system updates or deletes them.
type Record struct {
	ID           string          `json:"id"`
	Action       ActionKind      `json:"action"`
	ResourceKind string          `json:"resourceKind"`
	ResourceID   string          `json:"resourceId"`
	Before       json.RawMessage `json:"before,omitempty"`
	After        json.RawMessage `json:"after,omitempty"`
	// Diff is set only for set-valued mutations (role assignment replacement):
	// the added/removed/unchanged breakdown by normalized key.
	Diff      json.RawMessage `json:"diff,omitempty"`
	ActorID   string          `json:"actorId"`
	CreatedAt time.Time       `json:"createdAt"`
}
