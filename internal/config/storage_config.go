package config

// StorageConfig defines configuration for the document store and snapshot
// retention.
type StorageConfig struct {
	SQLiteDBPath           string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty" validate:"required"`
	MaxSnapshotsPerTarget  int    `json:"max_snapshots_per_target,omitempty" yaml:"max_snapshots_per_target,omitempty" validate:"omitempty,min=1"`
	ArchiveBasePath        string `json:"archive_base_path,omitempty" yaml:"archive_base_path,omitempty"`
	ArchivePrunedSnapshots bool   `json:"archive_pruned_snapshots" yaml:"archive_pruned_snapshots"`
}

// NewDefaultStorageConfig creates default storage configuration.
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		SQLiteDBPath:           "database/specwatch.db",
		MaxSnapshotsPerTarget:  50,
		ArchiveBasePath:        "database/archive",
		ArchivePrunedSnapshots: true,
	}
}
