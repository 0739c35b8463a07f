package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/specwatch/internal/common"
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "specwatch.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleTarget() *models.MonitoredTarget {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.MonitoredTarget{
		Name:           "Petstore",
		URL:            "https://petstore.example.com/openapi.json",
		DocType:        "openapi",
		CurrentVersion: "1.0.0",
		Specification: models.SpecDocument{
			"openapi": "3.0.0",
			"info":    map[string]interface{}{"title": "Petstore", "version": "1.0.0"},
		},
		CheckFrequency: models.Frequency1h,
		IsActive:       true,
		HealthStatus:   models.HealthHealthy,
		LastChecked:    &now,
		OwnerID:        "team-api",
		Tags:           []string{"prod", "public"},
	}
}

func TestTargetStore_CreateAndGetByID(t *testing.T) {
	store := NewTargetStore(testDB(t), zerolog.Nop())

	target := sampleTarget()
	require.NoError(t, store.Create(target))
	assert.NotEmpty(t, target.ID)

	loaded, err := store.GetByID(target.ID)
	require.NoError(t, err)

	assert.Equal(t, target.Name, loaded.Name)
	assert.Equal(t, target.URL, loaded.URL)
	assert.Equal(t, target.CurrentVersion, loaded.CurrentVersion)
	assert.Equal(t, models.Frequency1h, loaded.CheckFrequency)
	assert.Equal(t, models.HealthHealthy, loaded.HealthStatus)
	assert.Equal(t, []string{"prod", "public"}, loaded.Tags)
	assert.Equal(t, "1.0.0", loaded.Specification.Version())
	require.NotNil(t, loaded.LastChecked)
}

func TestTargetStore_GetByID_NotFound(t *testing.T) {
	store := NewTargetStore(testDB(t), zerolog.Nop())

	_, err := store.GetByID("no-such-id")
	assert.ErrorIs(t, err, common.ErrTargetNotFound)
}

func TestTargetStore_ExistsByURL(t *testing.T) {
	store := NewTargetStore(testDB(t), zerolog.Nop())
	target := sampleTarget()
	require.NoError(t, store.Create(target))

	exists, err := store.ExistsByURL(target.URL)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsByURL("https://other.example.com/spec.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTargetStore_ListActive(t *testing.T) {
	store := NewTargetStore(testDB(t), zerolog.Nop())

	active := sampleTarget()
	require.NoError(t, store.Create(active))

	inactive := sampleTarget()
	inactive.URL = "https://inactive.example.com/spec.json"
	inactive.IsActive = false
	require.NoError(t, store.Create(inactive))

	targets, err := store.ListActive()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, active.ID, targets[0].ID)
}

func TestTargetStore_RecordCheckFailure_LeavesLastCheckedUnchanged(t *testing.T) {
	store := NewTargetStore(testDB(t), zerolog.Nop())
	target := sampleTarget()
	require.NoError(t, store.Create(target))

	before, err := store.GetByID(target.ID)
	require.NoError(t, err)
	require.NotNil(t, before.LastChecked)

	failedAt := time.Now().UTC().Add(time.Minute)
	require.NoError(t, store.RecordCheckFailure(target.ID, "connection refused", failedAt))

	after, err := store.GetByID(target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HealthError, after.HealthStatus)
	assert.Equal(t, "connection refused", after.LastError)
	require.NotNil(t, after.LastChecked)
	assert.True(t, after.LastChecked.Equal(*before.LastChecked), "last_checked must not move on failure")
}

func TestTargetStore_RecordCheckSuccess(t *testing.T) {
	store := NewTargetStore(testDB(t), zerolog.Nop())
	target := sampleTarget()
	target.HealthStatus = models.HealthError
	target.LastError = "stale failure"
	require.NoError(t, store.Create(target))

	checkedAt := time.Now().UTC().Add(time.Minute).Truncate(time.Second)
	require.NoError(t, store.RecordCheckSuccess(target.ID, checkedAt))

	loaded, err := store.GetByID(target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HealthHealthy, loaded.HealthStatus)
	assert.Empty(t, loaded.LastError)
	require.NotNil(t, loaded.LastChecked)
	assert.True(t, loaded.LastChecked.Equal(checkedAt))
}

func TestTargetStore_RecordChangeApplied(t *testing.T) {
	store := NewTargetStore(testDB(t), zerolog.Nop())
	target := sampleTarget()
	require.NoError(t, store.Create(target))

	newDoc := models.SpecDocument{
		"openapi": "3.0.0",
		"info":    map[string]interface{}{"title": "Petstore", "version": "2.0.0"},
	}
	appliedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.RecordChangeApplied(target.ID, newDoc, "2.0.0", appliedAt))
	require.NoError(t, store.RecordChangeApplied(target.ID, newDoc, "2.0.0", appliedAt))

	loaded, err := store.GetByID(target.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", loaded.CurrentVersion)
	assert.Equal(t, "2.0.0", loaded.Specification.Version())
	assert.Equal(t, 2, loaded.ChangeCount)
	assert.Equal(t, models.HealthHealthy, loaded.HealthStatus)
}

func TestTargetStore_MarkCheckStarted(t *testing.T) {
	store := NewTargetStore(testDB(t), zerolog.Nop())
	target := sampleTarget()
	require.NoError(t, store.Create(target))

	require.NoError(t, store.MarkCheckStarted(target.ID))

	loaded, err := store.GetByID(target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HealthChecking, loaded.HealthStatus)
}

func TestTargetStore_SetActiveAndDelete(t *testing.T) {
	store := NewTargetStore(testDB(t), zerolog.Nop())
	target := sampleTarget()
	require.NoError(t, store.Create(target))

	require.NoError(t, store.SetActive(target.ID, false))
	loaded, err := store.GetByID(target.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsActive)

	require.NoError(t, store.Delete(target.ID))
	_, err = store.GetByID(target.ID)
	assert.ErrorIs(t, err, common.ErrTargetNotFound)

	assert.ErrorIs(t, store.Delete(target.ID), common.ErrTargetNotFound)
}

func TestTargetStore_CountersAndAggregates(t *testing.T) {
	store := NewTargetStore(testDB(t), zerolog.Nop())

	count, err := store.CountActive()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	total, err := store.SumChangeCounts()
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	first := sampleTarget()
	require.NoError(t, store.Create(first))
	second := sampleTarget()
	second.URL = "https://second.example.com/spec.json"
	require.NoError(t, store.Create(second))

	appliedAt := time.Now().UTC()
	require.NoError(t, store.RecordChangeApplied(first.ID, first.Specification, "1.1.0", appliedAt))

	count, err = store.CountActive()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	total, err = store.SumChangeCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
