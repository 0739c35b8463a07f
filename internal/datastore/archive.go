package datastore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aleister1102/specwatch/internal/common"
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// SnapshotArchiver appends pruned snapshots to per-target Parquet files so
// retention limits never destroy history outright.
type SnapshotArchiver struct {
	basePath string
	logger   zerolog.Logger
}

// NewSnapshotArchiver creates a new SnapshotArchiver rooted at basePath.
func NewSnapshotArchiver(basePath string, logger zerolog.Logger) *SnapshotArchiver {
	return &SnapshotArchiver{
		basePath: basePath,
		logger:   logger.With().Str("component", "SnapshotArchiver").Logger(),
	}
}

// Archive appends the given snapshots to the target's archive file.
func (sa *SnapshotArchiver) Archive(targetID string, snapshots []*models.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	if sa.basePath == "" {
		return common.NewValidationError("archive_base_path", sa.basePath, "archive base path is not configured")
	}

	if err := os.MkdirAll(sa.basePath, 0755); err != nil {
		return common.WrapError(err, "failed to create snapshot archive directory: "+sa.basePath)
	}

	rows := make([]models.ArchivedSnapshot, 0, len(snapshots))
	for _, snapshot := range snapshots {
		docJSON, err := json.Marshal(snapshot.Document)
		if err != nil {
			return common.WrapError(err, "failed to serialize snapshot for archive")
		}
		rows = append(rows, models.ArchivedSnapshot{
			SnapshotID:    snapshot.ID,
			TargetID:      snapshot.TargetID,
			Version:       snapshot.Version,
			Document:      docJSON,
			EndpointCount: int32(snapshot.Metadata.EndpointCount),
			SchemaCount:   int32(snapshot.Metadata.SchemaCount),
			SizeBytes:     int64(snapshot.Metadata.SizeBytes),
			DetectedAt:    snapshot.DetectedAt.UnixMilli(),
		})
	}

	filePath := filepath.Join(sa.basePath, targetID+".parquet")
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return common.WrapError(err, "failed to open snapshot archive file: "+filePath)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[models.ArchivedSnapshot](file, parquet.Compression(&parquet.Zstd))
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return common.WrapError(err, "failed to write snapshots to archive file")
	}
	if err := writer.Close(); err != nil {
		return common.WrapError(err, "failed to finalize snapshot archive file")
	}

	sa.logger.Info().
		Str("file_path", filePath).
		Int("records_written", len(rows)).
		Msg("Pruned snapshots archived")
	return nil
}
