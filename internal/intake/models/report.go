package models

// SectionProgress is the per-section slice of a completion report.
type SectionProgress struct {
	Completed            bool `json:"completed"`
	CompletionPercentage int  `json:"completion_percentage"`
}

// CompletionReport is derived state: recomputed on demand and after every
// write, never persisted as authoritative. Two computations over the same
// sections always produce identical reports.
type CompletionReport struct {
	CompletionPercentage int                        `json:"completion_percentage"`
	CompletedSections    []string                   `json:"completed_sections"`
	CompletedCount       int                        `json:"completed_count"`
	TotalSections        int                        `json:"total_sections"`
	SectionProgress      map[string]SectionProgress `json:"section_progress"`
	Status               Status                     `json:"status"`
}
