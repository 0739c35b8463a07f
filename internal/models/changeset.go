package models

import (
	"fmt"
	"sort"
	"strings"
)

// ChangeKind describes the direction of a single change.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// ChangeCategory describes which part of the document a change touches.
type ChangeCategory string

const (
	CategoryPath      ChangeCategory = "path"
	CategoryOperation ChangeCategory = "operation"
	CategoryParameter ChangeCategory = "parameter"
	CategorySchema    ChangeCategory = "schema"
	CategoryResponse  ChangeCategory = "response"
	CategoryOther     ChangeCategory = "other"
)

// Change is one classified difference between two specification documents.
// Breaking classification is a pure function of category, kind and the
// before/after pair; it never depends on surrounding context.
type Change struct {
	Kind     ChangeKind     `json:"kind"`
	Category ChangeCategory `json:"category"`
	Location string         `json:"location"`
	Before   interface{}    `json:"before,omitempty"`
	After    interface{}    `json:"after,omitempty"`
	Breaking bool           `json:"breaking"`
	Detail   string         `json:"detail,omitempty"`
}

// ChangeSet is the ordered output of a diff run.
type ChangeSet struct {
	TargetID string   `json:"target_id"`
	Changes  []Change `json:"changes"`
}

// HasChanges reports whether the set contains any change.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.Changes) > 0
}

// BreakingCount returns the number of breaking changes in the set.
func (cs *ChangeSet) BreakingCount() int {
	count := 0
	for _, c := range cs.Changes {
		if c.Breaking {
			count++
		}
	}
	return count
}

// Locations returns the set of change locations, useful for symmetry checks.
func (cs *ChangeSet) Locations() map[string]struct{} {
	locs := make(map[string]struct{}, len(cs.Changes))
	for _, c := range cs.Changes {
		locs[c.Location] = struct{}{}
	}
	return locs
}

// Sort orders changes by category then location then kind, so repeated runs
// over identical inputs produce byte-identical serialized output.
func (cs *ChangeSet) Sort() {
	sort.SliceStable(cs.Changes, func(i, j int) bool {
		a, b := cs.Changes[i], cs.Changes[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		return a.Kind < b.Kind
	})
}

// Summary renders a human-readable description of the set, one line per
// change, prefixed with an aggregate count line.
func (cs *ChangeSet) Summary() string {
	if !cs.HasChanges() {
		return "no changes detected"
	}

	var sb strings.Builder
	breaking := cs.BreakingCount()
	fmt.Fprintf(&sb, "%d change(s) detected (%d breaking)\n", len(cs.Changes), breaking)
	for _, c := range cs.Changes {
		marker := ""
		if c.Breaking {
			marker = " [breaking]"
		}
		if c.Detail != "" {
			fmt.Fprintf(&sb, "- %s %s: %s (%s)%s\n", c.Kind, c.Category, c.Location, c.Detail, marker)
		} else {
			fmt.Fprintf(&sb, "- %s %s: %s%s\n", c.Kind, c.Category, c.Location, marker)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
