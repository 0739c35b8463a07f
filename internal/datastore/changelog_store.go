package datastore

import (
	"time"

	"github.com/aleister1102/specwatch/internal/common"
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChangelogStore persists version-transition records. The unique index on
// (target_id, previous_version, new_version) makes duplicate writes of the
// same transition a silent no-op.
type ChangelogStore struct {
	db     *DB
	logger zerolog.Logger
}

// NewChangelogStore creates a new ChangelogStore.
func NewChangelogStore(db *DB, logger zerolog.Logger) *ChangelogStore {
	return &ChangelogStore{
		db:     db,
		logger: logger.With().Str("component", "ChangelogStore").Logger(),
	}
}

// Create inserts a changelog entry. A transition that was already recorded
// returns common.ErrDuplicateTransition; callers treat it as a no-op, not a
// failure.
func (cs *ChangelogStore) Create(entry *models.ChangelogEntry) error {
	entry.ID = uuid.NewString()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `INSERT OR IGNORE INTO changelog (id, target_id, previous_version,
		new_version, summary, breaking_count, total_changes, lines_added,
		lines_deleted, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := cs.db.db.Exec(query,
		entry.ID, entry.TargetID, entry.PreviousVersion, entry.NewVersion,
		entry.Summary, entry.BreakingCount, entry.TotalChanges,
		entry.LinesAdded, entry.LinesDeleted, entry.CreatedAt,
	)
	if err != nil {
		return common.NewPersistenceError("changelog insert", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return common.NewPersistenceError("changelog insert", err)
	}
	if affected == 0 {
		cs.logger.Debug().
			Str("target_id", entry.TargetID).
			Str("previous_version", entry.PreviousVersion).
			Str("new_version", entry.NewVersion).
			Msg("Duplicate version transition absorbed")
		return common.ErrDuplicateTransition
	}

	cs.logger.Info().
		Str("target_id", entry.TargetID).
		Str("previous_version", entry.PreviousVersion).
		Str("new_version", entry.NewVersion).
		Int("total_changes", entry.TotalChanges).
		Msg("Changelog entry recorded")
	return nil
}

// ListByTarget returns a target's changelog entries, newest first.
func (cs *ChangelogStore) ListByTarget(targetID string, limit int) ([]*models.ChangelogEntry, error) {
	query := changelogSelect + ` WHERE target_id = ? ORDER BY created_at DESC LIMIT ?`
	return cs.queryEntries(query, targetID, limit)
}

// ListRecent returns the global changelog timeline, newest first.
func (cs *ChangelogStore) ListRecent(limit int) ([]*models.ChangelogEntry, error) {
	query := changelogSelect + ` ORDER BY created_at DESC LIMIT ?`
	return cs.queryEntries(query, limit)
}

// DeleteByTarget removes all changelog entries of a target (cascade path).
func (cs *ChangelogStore) DeleteByTarget(targetID string) error {
	if _, err := cs.db.db.Exec(`DELETE FROM changelog WHERE target_id = ?`, targetID); err != nil {
		return common.NewPersistenceError("changelog delete", err)
	}
	return nil
}

const changelogSelect = `SELECT id, target_id, previous_version, new_version,
	summary, breaking_count, total_changes, lines_added, lines_deleted,
	created_at FROM changelog`

func (cs *ChangelogStore) queryEntries(query string, args ...interface{}) ([]*models.ChangelogEntry, error) {
	rows, err := cs.db.db.Query(query, args...)
	if err != nil {
		return nil, common.NewPersistenceError("changelog list", err)
	}
	defer rows.Close()

	var entries []*models.ChangelogEntry
	for rows.Next() {
		var entry models.ChangelogEntry
		err := rows.Scan(
			&entry.ID, &entry.TargetID, &entry.PreviousVersion, &entry.NewVersion,
			&entry.Summary, &entry.BreakingCount, &entry.TotalChanges,
			&entry.LinesAdded, &entry.LinesDeleted, &entry.CreatedAt,
		)
		if err != nil {
			return nil, common.NewPersistenceError("changelog scan", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
