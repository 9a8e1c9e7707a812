// Package completion computes derived completion state for a client record.
//
// Compute is pure: no clock, no randomness, no I/O. Identical sections always
// yield an identical report, which is what lets the service recompute after
// every write without callers ever observing stale completion metadata.
package completion

import (
	"math"

	"meridian/internal/intake/models"
	"meridian/internal/intake/registry"
)

// Compute aggregates a record's sections against the registry.
//
// The denominator is the registry size, not the number of sections present:
// an absent section counts as incomplete. A record with zero sections yields
// 0%, an empty completed list, and status "new".
func Compute(sections map[string]models.SectionPayload, reg *registry.Registry) models.CompletionReport {
	total := reg.Len()
	completed := make([]string, 0, total)
	progress := make(map[string]models.SectionProgress, total)

	for _, name := range reg.Names() {
		payload := sections[name]
		// Registry names come from the registry itself, so the error path
		// is unreachable here.
		done, _ := reg.IsComplete(name, payload)
		ratio, _ := reg.FillRatio(name, payload)
		progress[name] = models.SectionProgress{
			Completed:            done,
			CompletionPercentage: ratio,
		}
		if done {
			completed = append(completed, name)
		}
	}

	pct := Percentage(len(completed), total)
	return models.CompletionReport{
		CompletionPercentage: pct,
		CompletedSections:    completed,
		CompletedCount:       len(completed),
		TotalSections:        total,
		SectionProgress:      progress,
		Status:               models.StatusForPercentage(pct),
	}
}

// Percentage rounds completed/total to the nearest whole percent.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
