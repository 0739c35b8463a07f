package models

import "time"

// ChangeEvent is the payload handed to notification collaborators when a
// check detects a new version of a target's specification.
type ChangeEvent struct {
	TargetID        string    `json:"target_id"`
	TargetName      string    `json:"target_name"`
	TargetURL       string    `json:"target_url"`
	PreviousVersion string    `json:"previous_version"`
	NewVersion      string    `json:"new_version"`
	ChangeSet       ChangeSet `json:"change_set"`
	Summary         string    `json:"summary"`
	DetectedAt      time.Time `json:"detected_at"`
}
