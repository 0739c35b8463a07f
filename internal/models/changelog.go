package models

import "time"

// ChangelogEntry is an immutable record of one version transition. The
// triple (TargetID, PreviousVersion, NewVersion) is unique: the store
// absorbs duplicate writes of the same transition.
type ChangelogEntry struct {
	ID              string    `json:"id"`
	TargetID        string    `json:"target_id"`
	PreviousVersion string    `json:"previous_version"`
	NewVersion      string    `json:"new_version"`
	Summary         string    `json:"summary"`
	BreakingCount   int       `json:"breaking_count"`
	TotalChanges    int       `json:"total_changes"`
	LinesAdded      int       `json:"lines_added"`
	LinesDeleted    int       `json:"lines_deleted"`
	CreatedAt       time.Time `json:"created_at"`
}
