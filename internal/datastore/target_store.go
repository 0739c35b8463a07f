package datastore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/aleister1102/specwatch/internal/common"
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TargetStore persists monitored targets.
type TargetStore struct {
	db     *DB
	logger zerolog.Logger
}

// NewTargetStore creates a new TargetStore.
func NewTargetStore(db *DB, logger zerolog.Logger) *TargetStore {
	return &TargetStore{
		db:     db,
		logger: logger.With().Str("component", "TargetStore").Logger(),
	}
}

const targetColumns = `id, name, url, doc_type, current_version, specification,
	check_frequency, is_active, health_status, last_checked, last_health_check,
	last_error, change_count, owner_id, tags, created_at, updated_at`

// Create inserts a new target, assigning its identifier and timestamps.
func (ts *TargetStore) Create(target *models.MonitoredTarget) error {
	target.ID = uuid.NewString()
	now := time.Now().UTC()
	target.CreatedAt = now
	target.UpdatedAt = now

	specJSON, err := json.Marshal(target.Specification)
	if err != nil {
		return common.NewPersistenceError("target insert", err)
	}
	tagsJSON, err := json.Marshal(target.Tags)
	if err != nil {
		return common.NewPersistenceError("target insert", err)
	}

	query := `INSERT INTO targets (` + targetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = ts.db.db.Exec(query,
		target.ID, target.Name, target.URL, target.DocType, target.CurrentVersion,
		string(specJSON), string(target.CheckFrequency), target.IsActive,
		string(target.HealthStatus), nullableTime(target.LastChecked),
		nullableTime(target.LastHealthCheck), nullableString(target.LastError),
		target.ChangeCount, target.OwnerID, string(tagsJSON),
		target.CreatedAt, target.UpdatedAt,
	)
	if err != nil {
		return common.NewPersistenceError("target insert", err)
	}

	ts.logger.Info().Str("target_id", target.ID).Str("url", target.URL).Msg("Target created")
	return nil
}

// GetByID fetches one target by identifier.
func (ts *TargetStore) GetByID(id string) (*models.MonitoredTarget, error) {
	query := `SELECT ` + targetColumns + ` FROM targets WHERE id = ?`
	row := ts.db.db.QueryRow(query, id)
	target, err := scanTarget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrTargetNotFound
	}
	return target, err
}

// ListActive returns all active targets.
func (ts *TargetStore) ListActive() ([]*models.MonitoredTarget, error) {
	query := `SELECT ` + targetColumns + ` FROM targets WHERE is_active = 1 ORDER BY created_at`
	rows, err := ts.db.db.Query(query)
	if err != nil {
		return nil, common.NewPersistenceError("target list", err)
	}
	defer rows.Close()

	var targets []*models.MonitoredTarget
	for rows.Next() {
		target, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

// ExistsByURL reports whether any target is registered for the URL. Seed
// loading uses this to keep registration idempotent across restarts.
func (ts *TargetStore) ExistsByURL(url string) (bool, error) {
	var count int
	err := ts.db.db.QueryRow(`SELECT COUNT(*) FROM targets WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return false, common.NewPersistenceError("target lookup", err)
	}
	return count > 0, nil
}

// MarkCheckStarted transitions the target into the checking state.
func (ts *TargetStore) MarkCheckStarted(id string) error {
	return ts.exec(`UPDATE targets SET health_status = ?, updated_at = ? WHERE id = ?`,
		string(models.HealthChecking), time.Now().UTC(), id)
}

// RecordCheckFailure marks a failed check: health becomes error and the
// message is recorded. last_checked is deliberately left unmodified so the
// target stays due for the next cycle.
func (ts *TargetStore) RecordCheckFailure(id, message string, at time.Time) error {
	return ts.exec(`UPDATE targets SET health_status = ?, last_error = ?, last_health_check = ?, updated_at = ? WHERE id = ?`,
		string(models.HealthError), message, at, at, id)
}

// RecordUnhealthy marks a failed explicit connectivity test.
func (ts *TargetStore) RecordUnhealthy(id, message string, at time.Time) error {
	return ts.exec(`UPDATE targets SET health_status = ?, last_error = ?, last_health_check = ?, updated_at = ? WHERE id = ?`,
		string(models.HealthUnhealthy), message, at, at, id)
}

// RecordConnectivityOK marks a passed connectivity test without touching
// last_checked: no diff ran, so the target stays on its schedule.
func (ts *TargetStore) RecordConnectivityOK(id string, at time.Time) error {
	return ts.exec(`UPDATE targets SET health_status = ?, last_error = NULL, last_health_check = ?, updated_at = ? WHERE id = ?`,
		string(models.HealthHealthy), at, at, id)
}

// RecordCheckSuccess marks a completed check with no detected change.
func (ts *TargetStore) RecordCheckSuccess(id string, at time.Time) error {
	return ts.exec(`UPDATE targets SET health_status = ?, last_error = NULL, last_checked = ?, last_health_check = ?, updated_at = ? WHERE id = ?`,
		string(models.HealthHealthy), at, at, at, id)
}

// RecordChangeApplied replaces the stored specification and version,
// increments the monotonic change counter and records a healthy check.
func (ts *TargetStore) RecordChangeApplied(id string, doc models.SpecDocument, version string, at time.Time) error {
	specJSON, err := json.Marshal(doc)
	if err != nil {
		return common.NewPersistenceError("target update", err)
	}
	return ts.exec(`UPDATE targets SET specification = ?, current_version = ?,
		change_count = change_count + 1, health_status = ?, last_error = NULL,
		last_checked = ?, last_health_check = ?, updated_at = ? WHERE id = ?`,
		string(specJSON), version, string(models.HealthHealthy), at, at, at, id)
}

// SetActive toggles the active flag. Deactivation only prevents future
// scheduling; a check already in flight runs to completion.
func (ts *TargetStore) SetActive(id string, active bool) error {
	return ts.exec(`UPDATE targets SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
}

// Delete removes a target row.
func (ts *TargetStore) Delete(id string) error {
	result, err := ts.db.db.Exec(`DELETE FROM targets WHERE id = ?`, id)
	if err != nil {
		return common.NewPersistenceError("target delete", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return common.NewPersistenceError("target delete", err)
	}
	if affected == 0 {
		return common.ErrTargetNotFound
	}
	return nil
}

// CountActive returns the number of active targets.
func (ts *TargetStore) CountActive() (int, error) {
	var count int
	err := ts.db.db.QueryRow(`SELECT COUNT(*) FROM targets WHERE is_active = 1`).Scan(&count)
	if err != nil {
		return 0, common.NewPersistenceError("target count", err)
	}
	return count, nil
}

// SumChangeCounts aggregates the change counters across all targets.
func (ts *TargetStore) SumChangeCounts() (int, error) {
	var total sql.NullInt64
	err := ts.db.db.QueryRow(`SELECT SUM(change_count) FROM targets`).Scan(&total)
	if err != nil {
		return 0, common.NewPersistenceError("target aggregate", err)
	}
	return int(total.Int64), nil
}

func (ts *TargetStore) exec(query string, args ...interface{}) error {
	result, err := ts.db.db.Exec(query, args...)
	if err != nil {
		return common.NewPersistenceError("target update", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return common.NewPersistenceError("target update", err)
	}
	if affected == 0 {
		return common.ErrTargetNotFound
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTarget(row rowScanner) (*models.MonitoredTarget, error) {
	var (
		target          models.MonitoredTarget
		specJSON        string
		tagsJSON        string
		frequency       string
		health          string
		lastChecked     sql.NullTime
		lastHealthCheck sql.NullTime
		lastError       sql.NullString
	)

	err := row.Scan(
		&target.ID, &target.Name, &target.URL, &target.DocType,
		&target.CurrentVersion, &specJSON, &frequency, &target.IsActive,
		&health, &lastChecked, &lastHealthCheck, &lastError,
		&target.ChangeCount, &target.OwnerID, &tagsJSON,
		&target.CreatedAt, &target.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, common.NewPersistenceError("target scan", err)
	}

	if err := json.Unmarshal([]byte(specJSON), &target.Specification); err != nil {
		return nil, common.NewPersistenceError("target scan", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &target.Tags); err != nil {
		return nil, common.NewPersistenceError("target scan", err)
	}

	target.CheckFrequency = models.CheckFrequency(frequency)
	target.HealthStatus = models.HealthStatus(health)
	if lastChecked.Valid {
		t := lastChecked.Time
		target.LastChecked = &t
	}
	if lastHealthCheck.Valid {
		t := lastHealthCheck.Time
		target.LastHealthCheck = &t
	}
	if lastError.Valid {
		target.LastError = lastError.String
	}
	return &target, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
