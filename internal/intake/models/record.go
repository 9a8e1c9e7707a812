package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the derived lifecycle label of a client record.
//
// It is never set directly by a caller: every value is recomputed from the
// completion percentage after a write. Backward transitions are legal: a
// write that empties a previously complete section demotes the record.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in-progress"
	StatusComplete   Status = "complete"
)

// StatusForPercentage maps a completion percentage to a lifecycle status.
// The mapping is a policy choice: 0% → new, 100% → complete, anything in
// between → in-progress.
func StatusForPercentage(p int) Status {
	switch {
	case p <= 0:
		return StatusNew
	case p >= 100:
		return StatusComplete
	default:
		return StatusInProgress
	}
}

// SectionPayload is the schema-less body of one intake section. The core
// never interprets individual fields beyond the registry's completeness
// rules; field-level validation belongs to each section's owner.
type SectionPayload map[string]any

// IsPopulated reports whether a single payload value counts as filled in.
// Strings are trimmed; empty slices and maps do not count.
func IsPopulated(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	case SectionPayload:
		return len(val) > 0
	default:
		return true
	}
}

// HasPopulated reports whether the named key is present and filled in.
func (p SectionPayload) HasPopulated(key string) bool {
	v, ok := p[key]
	return ok && IsPopulated(v)
}

// HasAny reports whether at least one of the named keys is filled in.
func (p SectionPayload) HasAny(keys ...string) bool {
	for _, key := range keys {
		if p.HasPopulated(key) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the payload has no populated keys at all.
func (p SectionPayload) IsEmpty() bool {
	for _, v := range p {
		if IsPopulated(v) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so stored payloads never alias caller maps.
func (p SectionPayload) Clone() SectionPayload {
	if p == nil {
		return nil
	}
	out := make(SectionPayload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case SectionPayload:
		return map[string]any(val.Clone())
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return val
	}
}

// ClientRecord is the aggregate root for one client application.
//
// Invariants:
//   - ID and ClientNumber are assigned at creation and immutable
//   - Sections keys are always a subset of the section registry
//   - Status is derived from completion, never written by callers
//   - UpdatedAt changes on every successful section write
//
// A record with zero populated sections is valid: partial data is a
// first-class state, not an error state.
type ClientRecord struct {
	ID           uuid.UUID                 `json:"id"`
	ClientNumber string                    `json:"client_number"`
	Status       Status                    `json:"status"`
	Sections     map[string]SectionPayload `json:"sections"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// Section returns the named section payload, or nil when absent.
func (r *ClientRecord) Section(name string) SectionPayload {
	if r.Sections == nil {
		return nil
	}
	return r.Sections[name]
}

// Clone returns a deep copy of the record. Stores hand out clones so callers
// can never mutate persisted state through a returned pointer.
func (r *ClientRecord) Clone() *ClientRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Sections = make(map[string]SectionPayload, len(r.Sections))
	for name, payload := range r.Sections {
		out.Sections[name] = payload.Clone()
	}
	return &out
}
