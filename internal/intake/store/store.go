// Package store persists client records as one document per record.
//
// Three implementations share the same contract: in-memory (tests and
// single-process deployments), PostgreSQL (JSONB column), and Redis (JSON
// value). All of them:
//
//   - assign the human-facing client number at creation
//   - persist only registry-known sections
//   - replace (never deep-merge) a section payload on write
//   - apply multi-section writes atomically: a concurrent reader sees either
//     all named sections updated or none of them
//   - return sentinel.ErrNotFound for unknown record IDs
//
// The service defines the consuming interface; these types satisfy it
// implicitly.
package store

import (
	"meridian/internal/intake/models"
	"meridian/internal/intake/registry"
)

// clientNumberBase is where human-facing sequential numbers start.
const clientNumberBase = 100000

// filterRegistered drops any section the registry does not know. The
// validation gate rejects unknown names before a write gets here; the filter
// is the store-level guarantee that arbitrary keys are never persisted.
func filterRegistered(reg *registry.Registry, sections map[string]models.SectionPayload) map[string]models.SectionPayload {
	out := make(map[string]models.SectionPayload, len(sections))
	for name, payload := range sections {
		if reg.Contains(name) && payload != nil {
			out[name] = payload.Clone()
		}
	}
	return out
}
