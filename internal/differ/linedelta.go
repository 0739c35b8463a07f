package differ

import (
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineDelta holds line add/delete counts between two serialized documents,
// recorded on changelog entries alongside the structural summary.
type LineDelta struct {
	LinesAdded   int
	LinesDeleted int
}

// ComputeLineDelta diffs the canonical JSON serializations of two documents
// line by line and counts inserted and deleted segments.
func ComputeLineDelta(previous, current models.SpecDocument) LineDelta {
	prevJSON, err := previous.CanonicalJSON()
	if err != nil {
		return LineDelta{}
	}
	currJSON, err := current.CanonicalJSON()
	if err != nil {
		return LineDelta{}
	}

	dmp := diffmatchpatch.New()
	prevRunes, currRunes, lines := dmp.DiffLinesToRunes(string(prevJSON), string(currJSON))
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(prevRunes, currRunes, false), lines)

	delta := LineDelta{}
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			delta.LinesAdded += countLines(diff.Text)
		case diffmatchpatch.DiffDelete:
			delta.LinesDeleted += countLines(diff.Text)
		}
	}
	return delta
}

func countLines(text string) int {
	count := 0
	for _, r := range text {
		if r == '\n' {
			count++
		}
	}
	if count == 0 && len(text) > 0 {
		count = 1
	}
	return count
}
