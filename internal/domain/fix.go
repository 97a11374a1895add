package domain

import "github.com/couchcryptid/fmap-wx-fixer/internal/fmap"

// Thresholds holds the minimum visibility per category, in the units the
// engine stores (statute miles for the stock weather engine).
type Thresholds struct {
	Sunny     float32
	Fair      float32
	Poor      float32
	Inclement float32
}

// DefaultThresholds returns the stock floors: 60, 40, 30 and 20.
func DefaultThresholds() Thresholds {
	return Thresholds{Sunny: 60, Fair: 40, Poor: 30, Inclement: 20}
}

// For returns the floor for c, or zero for an unknown category.
func (t Thresholds) For(c Category) float32 {
	switch c {
	case Sunny:
		return t.Sunny
	case Fair:
		return t.Fair
	case Poor:
		return t.Poor
	case Inclement:
		return t.Inclement
	default:
		return 0
	}
}

// FixOptions configures Fix.
type FixOptions struct {
	Thresholds Thresholds

	// MinTCU clears TCU markers in every cell whose category is at or below
	// it. The zero value leaves the TCU grid untouched.
	MinTCU Category
}

// FixStats counts the cells Fix changed.
type FixStats struct {
	VisibilityRaised map[Category]int
	TCUCleared       int
}

// TotalRaised sums VisibilityRaised over every category.
func (s FixStats) TotalRaised() int {
	n := 0
	for _, v := range s.VisibilityRaised {
		n += v
	}
	return n
}

// ApplyMinVisibility raises visibility to floor in every cell of the given
// category that is below it and returns the number of cells changed. NaN
// visibilities never compare below floor and are left alone.
func ApplyMinVisibility(rec *fmap.Record, c Category, floor float32) int {
	cloud := rec.CloudMap.Values
	vis := rec.Visibility.Values
	changed := 0
	for i := range vis {
		if cloud[i] == int32(c) && vis[i] < floor {
			vis[i] = floor
			changed++
		}
	}
	return changed
}

// ApplyMinTCUCategory zeroes the TCU marker in every cell whose category
// code is at or below limit and returns how many nonzero markers it cleared.
func ApplyMinTCUCategory(rec *fmap.Record, limit Category) int {
	cloud := rec.CloudMap.Values
	tcu := rec.TCU.Values
	cleared := 0
	for i := range tcu {
		if cloud[i] <= int32(limit) {
			if tcu[i] != 0 {
				cleared++
			}
			tcu[i] = 0
		}
	}
	return cleared
}

// Fix runs the four visibility passes in category order, then the TCU pass
// when opts.MinTCU is set. rec is modified in place.
func Fix(rec *fmap.Record, opts FixOptions) FixStats {
	stats := FixStats{VisibilityRaised: make(map[Category]int, len(Categories))}
	for _, c := range Categories {
		stats.VisibilityRaised[c] = ApplyMinVisibility(rec, c, opts.Thresholds.For(c))
	}
	if opts.MinTCU != 0 {
		stats.TCUCleared = ApplyMinTCUCategory(rec, opts.MinTCU)
	}
	return stats
}
