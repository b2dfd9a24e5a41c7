// Package fetcher defines the normalized types shared by the upstream
// platform fetchers. Each platform client translates its own wire schema into
// these types so the merge engine never sees upstream-specific shapes.
package fetcher

import "time"

// Platform identifies which upstream a submission came from.
type Platform string

const (
	PlatformLeetCode   Platform = "LeetCode"
	PlatformCodeforces Platform = "Codeforces"
)

// DifficultyUnknown is the sentinel difficulty used when a per-problem detail
// lookup fails. The submission is kept rather than dropped.
const DifficultyUnknown = "Unknown"

// Submission is a single normalized submission from either platform.
// URL is the unique identity used for deduplication.
type Submission struct {
	Name       string
	URL        string
	Platform   Platform
	Difficulty string   // LeetCode difficulty name, or DifficultyUnknown
	Rating     *int     // Codeforces problem rating, nil when unrated
	Tags       []string
	Accepted   bool
	CreatedAt  time.Time
}

// Handles holds the per-platform usernames configured for a user.
// An empty handle means the platform is skipped, never an error.
type Handles struct {
	LeetCode   string
	Codeforces string
}

// Configured reports whether at least one platform handle is set.
func (h Handles) Configured() bool {
	return h.LeetCode != "" || h.Codeforces != ""
}

// LeetCodeStats holds the platform-reported aggregate fields for LeetCode.
// Nil fields mean the upstream was unavailable, which downstream must keep
// distinguishable from zero.
type LeetCodeStats struct {
	TotalSolved  *int
	EasySolved   *int
	MediumSolved *int
	HardSolved   *int
	// SubmissionCalendar maps UTC day-start unix timestamps to counts.
	SubmissionCalendar map[int64]int
}

// CodeforcesInfo holds the platform-reported aggregate fields for Codeforces.
type CodeforcesInfo struct {
	Rating    *int
	MaxRating *int
	Rank      *string
}

// ProblemTotals holds the global LeetCode problem counts per difficulty.
type ProblemTotals struct {
	Easy   *int
	Medium *int
	Hard   *int
}
