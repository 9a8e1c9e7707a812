package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientSummary is the service-level view returned by create and summary
// reads: record metadata plus fresh completion figures, no section bodies.
type ClientSummary struct {
	ID                   uuid.UUID `json:"id"`
	ClientNumber         string    `json:"client_number"`
	Status               Status    `json:"status"`
	CompletionPercentage int       `json:"completion_percentage"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// UpdateResult is returned by single-section writes.
type UpdateResult struct {
	UpdatedSection       string `json:"updated_section"`
	CompletionPercentage int    `json:"completion_percentage"`
	Status               Status `json:"status"`
}

// BulkUpdateResult is returned by multi-section writes. UpdatedSections is
// reported in registry order regardless of request map ordering.
type BulkUpdateResult struct {
	UpdatedSections      []string `json:"updated_sections"`
	CompletionPercentage int      `json:"completion_percentage"`
	Status               Status   `json:"status"`
}
