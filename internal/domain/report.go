package domain

import "time"

// InputFile is an fmap discovered by the source.
type InputFile struct {
	Path string
	Name string
	Size int64
}

// FileReport summarizes the fix applied to one file.
type FileReport struct {
	File             string         `json:"file"`
	VisibilityRaised map[string]int `json:"visibility_raised"`
	TCUCleared       int            `json:"tcu_cleared"`
	Duration         time.Duration  `json:"duration_ns"`
	ProcessedAt      time.Time      `json:"processed_at"`
}

// NewFileReport builds a report for file, stamped with the package clock.
func NewFileReport(file string, stats FixStats, took time.Duration) FileReport {
	raised := make(map[string]int, len(stats.VisibilityRaised))
	for c, n := range stats.VisibilityRaised {
		raised[c.String()] = n
	}
	return FileReport{
		File:             file,
		VisibilityRaised: raised,
		TCUCleared:       stats.TCUCleared,
		Duration:         took,
		ProcessedAt:      clock.Now().UTC(),
	}
}

// RunSummary totals a completed batch.
type RunSummary struct {
	Discovered       int
	Processed        int
	VisibilityRaised int
	TCUCleared       int
}

// Add folds one file's stats into the summary.
func (s *RunSummary) Add(stats FixStats) {
	s.Processed++
	s.VisibilityRaised += stats.TotalRaised()
	s.TCUCleared += stats.TCUCleared
}
