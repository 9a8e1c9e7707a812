// Package audit records an append-only trail of intake mutations.
//
// Auditing is ops-tier: a failed emit is logged and never fails the business
// operation that produced it.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies what happened to a client record.
type Action string

const (
	ActionClientCreated      Action = "client_created"
	ActionSectionUpdated     Action = "section_updated"
	ActionSectionsBulkUpdate Action = "sections_bulk_updated"
)

// Event is one audit trail entry. ActorID is the opaque authenticated caller
// identity; the intake core records it without interpreting it.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    Action    `json:"action"`
	RecordID  uuid.UUID `json:"record_id"`
	Sections  []string  `json:"sections,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
