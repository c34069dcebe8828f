package entity

import "time"

// WorkflowHistoryEntry is one append-only audit record for a form. Entries
// are never updated or deleted; the timeline view orders them by creation
// time.
type WorkflowHistoryEntry struct {
	ID               int64     `json:"id"`
	FormID           string    `json:"form_id"`
	Action           string    `json:"action"`
	ActorEmail       string    `json:"actor_email"`
	Note             string    `json:"note,omitempty"`
	ForwardedToEmail string    `json:"forwarded_to_email,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
