package datastore

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/aleister1102/specwatch/internal/common"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection shared by the target, snapshot and
// changelog stores.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewDB initializes a new DB connection and ensures the schema is set up.
func NewDB(dataSourceName string, logger zerolog.Logger) (*DB, error) {
	dbLogger := logger.With().Str("component", "DB").Logger()
	dbLogger.Info().Str("db_path", dataSourceName).Msg("Initializing document store connection")

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, common.WrapError(err, "failed to create database directory "+dbDir)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, common.WrapError(err, "sql.Open failed for "+dataSourceName)
	}
	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent checks.
	dbInstance.SetMaxOpenConns(1)

	db := &DB{
		db:     dbInstance,
		logger: dbLogger,
	}

	if err := db.InitSchema(); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "failed to initialize schema")
	}

	dbLogger.Info().Str("path", dataSourceName).Msg("Document store initialized and schema verified")
	return db, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// InitSchema creates the tables and indexes if they don't already exist.
// The unique index on changelog(target_id, previous_version, new_version)
// enforces transition deduplication at the storage layer.
func (d *DB) InitSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS targets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			doc_type TEXT NOT NULL DEFAULT 'openapi',
			current_version TEXT NOT NULL DEFAULT '',
			specification TEXT NOT NULL DEFAULT '{}',
			check_frequency TEXT NOT NULL DEFAULT '1h',
			is_active INTEGER NOT NULL DEFAULT 1,
			health_status TEXT NOT NULL DEFAULT 'healthy',
			last_checked DATETIME,
			last_health_check DATETIME,
			last_error TEXT,
			change_count INTEGER NOT NULL DEFAULT 0,
			owner_id TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			target_id TEXT NOT NULL,
			version TEXT NOT NULL DEFAULT '',
			document TEXT NOT NULL,
			endpoint_count INTEGER NOT NULL DEFAULT 0,
			schema_count INTEGER NOT NULL DEFAULT 0,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			detected_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_target_detected
			ON snapshots(target_id, detected_at DESC);`,
		`CREATE TABLE IF NOT EXISTS changelog (
			id TEXT PRIMARY KEY,
			target_id TEXT NOT NULL,
			previous_version TEXT NOT NULL,
			new_version TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			breaking_count INTEGER NOT NULL DEFAULT 0,
			total_changes INTEGER NOT NULL DEFAULT 0,
			lines_added INTEGER NOT NULL DEFAULT 0,
			lines_deleted INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_changelog_transition
			ON changelog(target_id, previous_version, new_version);`,
		`CREATE INDEX IF NOT EXISTS idx_changelog_target_created
			ON changelog(target_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_changelog_created
			ON changelog(created_at DESC);`,
	}

	for _, stmt := range statements {
		if _, err := d.db.Exec(stmt); err != nil {
			d.logger.Error().Err(err).Msg("DB: Failed to initialize schema")
			return err
		}
	}

	d.logger.Debug().Msg("DB: Schema initialized successfully")
	return nil
}
