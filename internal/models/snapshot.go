package models

import "time"

// SnapshotMetadata holds counts derived from a snapshot's document at write
// time so listings never need to deserialize the payload.
type SnapshotMetadata struct {
	EndpointCount int `json:"endpoint_count"`
	SchemaCount   int `json:"schema_count"`
	SizeBytes     int `json:"size_bytes"`
}

// Snapshot is an immutable record of a target's specification content at a
// detection time. It is written exactly once per detected change (including
// the registration baseline) and never updated.
type Snapshot struct {
	ID         string           `json:"id"`
	TargetID   string           `json:"target_id"`
	Version    string           `json:"version"`
	Document   SpecDocument     `json:"document"`
	Metadata   SnapshotMetadata `json:"metadata"`
	DetectedAt time.Time        `json:"detected_at"`
}

// NewSnapshot builds a snapshot for a target's document, deriving metadata
// from the canonical serialization.
func NewSnapshot(targetID string, doc SpecDocument, detectedAt time.Time) (*Snapshot, error) {
	raw, err := doc.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		TargetID: targetID,
		Version:  doc.Version(),
		Document: doc,
		Metadata: SnapshotMetadata{
			EndpointCount: doc.EndpointCount(),
			SchemaCount:   doc.SchemaCount(),
			SizeBytes:     len(raw),
		},
		DetectedAt: detectedAt,
	}, nil
}

// ArchivedSnapshot is the Parquet row layout used when retention pruning
// moves old snapshots out of the primary store.
type ArchivedSnapshot struct {
	SnapshotID    string `parquet:"snapshot_id,zstd"`
	TargetID      string `parquet:"target_id,zstd"`
	Version       string `parquet:"version,zstd"`
	Document      []byte `parquet:"document,zstd"`
	EndpointCount int32  `parquet:"endpoint_count"`
	SchemaCount   int32  `parquet:"schema_count"`
	SizeBytes     int64  `parquet:"size_bytes"`
	DetectedAt    int64  `parquet:"detected_at_unix_ms"`
}
