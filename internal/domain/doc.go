// Package domain holds the weather rules applied to decoded fmap records.
//
// # Weather categories
//
// The weather engine tags every grid cell with one of four categories,
// stored as int32 codes in the cloud map:
//
//	1 sunny | 2 fair | 3 poor | 4 inclement
//
// Higher codes are worse weather. A TCU threshold of "fair" therefore
// covers sunny and fair cells.
//
// # Visibility floors
//
// The engine sometimes writes visibilities far below anything plausible for
// the cell's category (single-digit values under clear skies). Each category
// has its own floor and a cell is raised to the floor of its own category
// only. Because a cell has exactly one category, the four passes never touch
// the same cell twice and can run in any order with the same result. The
// stock floors are 60, 40, 30 and 20 for sunny through inclement.
//
// # Towering cumulus
//
// The TCU grid marks cells where the simulator draws towering cumulus. The
// engine scatters markers into benign weather as well; clearing every marker
// at or below a chosen category keeps TCU in the weather that produces it.
package domain
