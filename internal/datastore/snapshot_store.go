package datastore

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/aleister1102/specwatch/internal/common"
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SnapshotStore persists immutable specification snapshots. Rows are written
// once and never updated.
type SnapshotStore struct {
	db       *DB
	archiver *SnapshotArchiver
	logger   zerolog.Logger
}

// NewSnapshotStore creates a new SnapshotStore. The archiver may be nil when
// pruned snapshots should be discarded instead of archived.
func NewSnapshotStore(db *DB, archiver *SnapshotArchiver, logger zerolog.Logger) *SnapshotStore {
	return &SnapshotStore{
		db:       db,
		archiver: archiver,
		logger:   logger.With().Str("component", "SnapshotStore").Logger(),
	}
}

// Create inserts a snapshot, assigning its identifier.
func (ss *SnapshotStore) Create(snapshot *models.Snapshot) error {
	snapshot.ID = uuid.NewString()

	docJSON, err := json.Marshal(snapshot.Document)
	if err != nil {
		return common.NewPersistenceError("snapshot insert", err)
	}

	query := `INSERT INTO snapshots (id, target_id, version, document,
		endpoint_count, schema_count, size_bytes, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = ss.db.db.Exec(query,
		snapshot.ID, snapshot.TargetID, snapshot.Version, string(docJSON),
		snapshot.Metadata.EndpointCount, snapshot.Metadata.SchemaCount,
		snapshot.Metadata.SizeBytes, snapshot.DetectedAt,
	)
	if err != nil {
		return common.NewPersistenceError("snapshot insert", err)
	}

	ss.logger.Debug().
		Str("snapshot_id", snapshot.ID).
		Str("target_id", snapshot.TargetID).
		Str("version", snapshot.Version).
		Msg("Snapshot stored")
	return nil
}

// Latest returns the most recent snapshot for a target.
func (ss *SnapshotStore) Latest(targetID string) (*models.Snapshot, error) {
	query := snapshotSelect + ` WHERE target_id = ? ORDER BY detected_at DESC LIMIT 1`
	row := ss.db.db.QueryRow(query, targetID)
	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrRecordNotFound
	}
	return snapshot, err
}

// ListByTarget returns a target's snapshots, newest first.
func (ss *SnapshotStore) ListByTarget(targetID string, limit int) ([]*models.Snapshot, error) {
	query := snapshotSelect + ` WHERE target_id = ? ORDER BY detected_at DESC LIMIT ?`
	rows, err := ss.db.db.Query(query, targetID, limit)
	if err != nil {
		return nil, common.NewPersistenceError("snapshot list", err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

// CountByTarget returns how many snapshots a target has.
func (ss *SnapshotStore) CountByTarget(targetID string) (int, error) {
	var count int
	err := ss.db.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE target_id = ?`, targetID).Scan(&count)
	if err != nil {
		return 0, common.NewPersistenceError("snapshot count", err)
	}
	return count, nil
}

// DeleteByTarget removes all snapshots of a target (cascade path).
func (ss *SnapshotStore) DeleteByTarget(targetID string) error {
	if _, err := ss.db.db.Exec(`DELETE FROM snapshots WHERE target_id = ?`, targetID); err != nil {
		return common.NewPersistenceError("snapshot delete", err)
	}
	return nil
}

// Prune keeps the newest `retain` snapshots of a target, archiving and
// removing the rest. Archive failures abort the prune so no snapshot is
// lost.
func (ss *SnapshotStore) Prune(targetID string, retain int) (int, error) {
	if retain <= 0 {
		return 0, nil
	}

	query := snapshotSelect + ` WHERE target_id = ? ORDER BY detected_at DESC LIMIT -1 OFFSET ?`
	rows, err := ss.db.db.Query(query, targetID, retain)
	if err != nil {
		return 0, common.NewPersistenceError("snapshot prune", err)
	}
	defer rows.Close()

	var pruned []*models.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return 0, err
		}
		pruned = append(pruned, snapshot)
	}
	if err := rows.Err(); err != nil {
		return 0, common.NewPersistenceError("snapshot prune", err)
	}
	if len(pruned) == 0 {
		return 0, nil
	}

	if ss.archiver != nil {
		if err := ss.archiver.Archive(targetID, pruned); err != nil {
			return 0, err
		}
	}

	for _, snapshot := range pruned {
		if _, err := ss.db.db.Exec(`DELETE FROM snapshots WHERE id = ?`, snapshot.ID); err != nil {
			return 0, common.NewPersistenceError("snapshot prune", err)
		}
	}

	ss.logger.Info().
		Str("target_id", targetID).
		Int("pruned", len(pruned)).
		Int("retained", retain).
		Msg("Old snapshots pruned")
	return len(pruned), nil
}

const snapshotSelect = `SELECT id, target_id, version, document,
	endpoint_count, schema_count, size_bytes, detected_at FROM snapshots`

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var (
		snapshot models.Snapshot
		docJSON  string
	)
	err := row.Scan(
		&snapshot.ID, &snapshot.TargetID, &snapshot.Version, &docJSON,
		&snapshot.Metadata.EndpointCount, &snapshot.Metadata.SchemaCount,
		&snapshot.Metadata.SizeBytes, &snapshot.DetectedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, common.NewPersistenceError("snapshot scan", err)
	}
	if err := json.Unmarshal([]byte(docJSON), &snapshot.Document); err != nil {
		return nil, common.NewPersistenceError("snapshot scan", err)
	}
	return &snapshot, nil
}
