package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/aleister1102/specwatch/internal/common"
	"github.com/aleister1102/specwatch/internal/config"
	"github.com/aleister1102/specwatch/internal/datastore"
	"github.com/aleister1102/specwatch/internal/differ"
	"github.com/aleister1102/specwatch/internal/fetcher"
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/aleister1102/specwatch/internal/notifier"
	"github.com/aleister1102/specwatch/internal/urlhandler"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Fetcher retrieves specification documents. Satisfied by
// *fetcher.SpecFetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.FetchResult, error)
}

// MonitoringService orchestrates target checks: fetch, diff, persist,
// notify. Failures are isolated per target; one failing target never blocks
// the others.
type MonitoringService struct {
	cfg            *config.MonitorConfig
	storageCfg     *config.StorageConfig
	targetStore    *datastore.TargetStore
	snapshotStore  *datastore.SnapshotStore
	changelogStore *datastore.ChangelogStore
	specDiffer     *differ.SpecDiffer
	specFetcher    Fetcher
	changeNotifier notifier.Notifier
	guard          *checkGuard
	logger         zerolog.Logger
}

// NewMonitoringService creates a new MonitoringService.
func NewMonitoringService(
	cfg *config.MonitorConfig,
	storageCfg *config.StorageConfig,
	targetStore *datastore.TargetStore,
	snapshotStore *datastore.SnapshotStore,
	changelogStore *datastore.ChangelogStore,
	specFetcher Fetcher,
	changeNotifier notifier.Notifier,
	logger zerolog.Logger,
) *MonitoringService {
	serviceLogger := logger.With().Str("component", "MonitoringService").Logger()
	if changeNotifier == nil {
		changeNotifier = notifier.NewNopNotifier()
	}
	return &MonitoringService{
		cfg:            cfg,
		storageCfg:     storageCfg,
		targetStore:    targetStore,
		snapshotStore:  snapshotStore,
		changelogStore: changelogStore,
		specDiffer:     differ.NewSpecDiffer(logger),
		specFetcher:    specFetcher,
		changeNotifier: changeNotifier,
		guard:          newCheckGuard(logger),
		logger:         serviceLogger,
	}
}

// RegisterTargetInput holds parameters for RegisterTarget.
type RegisterTargetInput struct {
	Name      string
	URL       string
	DocType   string
	Frequency models.CheckFrequency
	OwnerID   string
	Tags      []string
}

// RegisterTarget fetches the document once synchronously, requires a
// declared version, creates the target and writes the baseline snapshot.
// A failed fetch fails the whole registration: no partial target is created.
func (s *MonitoringService) RegisterTarget(ctx context.Context, input RegisterTargetInput) (*models.MonitoredTarget, error) {
	if input.URL == "" {
		return nil, common.NewValidationError("url", input.URL, "target URL cannot be empty")
	}
	if err := urlhandler.ValidateURLFormat(input.URL); err != nil {
		return nil, common.NewValidationError("url", input.URL, err.Error())
	}
	if !input.Frequency.IsValid() {
		input.Frequency = models.CheckFrequency(s.cfg.DefaultFrequency)
		if !input.Frequency.IsValid() {
			input.Frequency = models.Frequency1h
		}
	}
	if input.DocType == "" {
		input.DocType = "openapi"
	}

	result, err := s.fetchWithRetry(ctx, input.URL)
	if err != nil {
		return nil, err
	}
	doc := result.Document
	if doc.Version() == "" {
		return nil, common.NewInvalidSpecError(input.URL, "document has no info.version")
	}

	now := time.Now().UTC()
	name := input.Name
	if name == "" {
		name = doc.Title()
	}

	target := &models.MonitoredTarget{
		Name:            name,
		URL:             input.URL,
		DocType:         input.DocType,
		CurrentVersion:  doc.Version(),
		Specification:   doc,
		CheckFrequency:  input.Frequency,
		IsActive:        true,
		HealthStatus:    models.HealthHealthy,
		LastChecked:     &now,
		LastHealthCheck: &now,
		ChangeCount:     0,
		OwnerID:         input.OwnerID,
		Tags:            input.Tags,
	}
	if err := s.targetStore.Create(target); err != nil {
		return nil, err
	}

	snapshot, err := models.NewSnapshot(target.ID, doc, now)
	if err == nil {
		err = s.snapshotStore.Create(snapshot)
	}
	if err != nil {
		// Every registered target must have its baseline snapshot; undo
		// the registration rather than leave the invariant broken.
		if delErr := s.targetStore.Delete(target.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("target_id", target.ID).Msg("Failed to roll back target after baseline snapshot failure")
		}
		return nil, err
	}

	s.logger.Info().
		Str("target_id", target.ID).
		Str("url", target.URL).
		Str("version", target.CurrentVersion).
		Str("frequency", string(target.CheckFrequency)).
		Msg("Target registered with baseline snapshot")
	return target, nil
}

// GetDueTargets returns the active targets due for a check, capped by the
// configured batch size.
func (s *MonitoringService) GetDueTargets() ([]*models.MonitoredTarget, error) {
	targets, err := s.targetStore.ListActive()
	if err != nil {
		return nil, err
	}
	due := DueTargets(targets, time.Now().UTC())
	if s.cfg.BatchSize > 0 && len(due) > s.cfg.BatchSize {
		due = due[:s.cfg.BatchSize]
	}
	return due, nil
}

// CheckResult describes the outcome of one target check.
type CheckResult struct {
	TargetID        string
	HasChanges      bool
	ChangeSet       models.ChangeSet
	PreviousVersion string
	NewVersion      string
	Skipped         bool
	Failed          bool
	ErrorMessage    string
}

// RunCheck performs a check for one target and reports the outcome to the
// caller. Check failures (fetch, parse, persistence) are reflected in the
// result and in the target's health state, not returned as errors.
func (s *MonitoringService) RunCheck(ctx context.Context, targetID string) (*CheckResult, error) {
	if !s.guard.tryAcquire(targetID) {
		return nil, common.ErrCheckInProgress
	}
	defer s.guard.release(targetID)

	target, err := s.targetStore.GetByID(targetID)
	if err != nil {
		return nil, err
	}
	result := s.performCheck(ctx, target)
	return result, nil
}

// CheckTarget is the scheduler-facing entry point: all failures are absorbed
// into the target's health state so the cycle continues. In-flight exclusion
// comes from the guard alone; a persisted checking state only means a
// previous run was interrupted, and the check re-diffs against the last
// stored document.
func (s *MonitoringService) CheckTarget(ctx context.Context, targetID string) {
	if !s.guard.tryAcquire(targetID) {
		return
	}
	defer s.guard.release(targetID)

	target, err := s.targetStore.GetByID(targetID)
	if err != nil {
		s.logger.Error().Err(err).Str("target_id", targetID).Msg("Failed to load target for check")
		return
	}
	if target.HealthStatus == models.HealthChecking {
		s.logger.Warn().Str("target_id", targetID).Msg("Target left in checking state by an interrupted run, re-checking")
	}
	s.performCheck(ctx, target)
}

// performCheck runs the per-target check procedure. The write ordering is
// fixed: fetch, diff, snapshot, changelog, target update. Partial completion
// is reconciled on the next run; the changelog uniqueness constraint absorbs
// the duplicate attempt.
func (s *MonitoringService) performCheck(ctx context.Context, target *models.MonitoredTarget) *CheckResult {
	result := &CheckResult{TargetID: target.ID, PreviousVersion: target.CurrentVersion}
	checkLogger := s.logger.With().Str("target_id", target.ID).Str("url", target.URL).Logger()
	checkLogger.Debug().Msg("Checking target")

	if err := s.targetStore.MarkCheckStarted(target.ID); err != nil {
		checkLogger.Error().Err(err).Msg("Failed to mark check started")
		return s.failCheck(result, target.ID, err.Error(), checkLogger)
	}

	fetchResult, err := s.fetchWithRetry(ctx, target.URL)
	if err != nil {
		checkLogger.Warn().Err(err).Msg("Fetch failed")
		return s.failCheck(result, target.ID, err.Error(), checkLogger)
	}

	doc := fetchResult.Document
	if doc.Version() == "" {
		err := common.NewInvalidSpecError(target.URL, "document has no info.version")
		checkLogger.Warn().Err(err).Msg("Fetched document is not a valid specification")
		return s.failCheck(result, target.ID, err.Error(), checkLogger)
	}
	result.NewVersion = doc.Version()

	changeSet := s.specDiffer.DetectChanges(target.Specification, doc, target.ID)
	now := time.Now().UTC()

	if !changeSet.HasChanges() {
		if err := s.targetStore.RecordCheckSuccess(target.ID, now); err != nil {
			checkLogger.Error().Err(err).Msg("Failed to record check success")
			return s.failCheck(result, target.ID, err.Error(), checkLogger)
		}
		checkLogger.Debug().Msg("No changes detected")
		return result
	}

	result.HasChanges = true
	result.ChangeSet = changeSet
	summary := changeSet.Summary()
	checkLogger.Info().
		Int("changes", len(changeSet.Changes)).
		Int("breaking", changeSet.BreakingCount()).
		Str("previous_version", target.CurrentVersion).
		Str("new_version", doc.Version()).
		Msg("Specification change detected")

	snapshot, err := models.NewSnapshot(target.ID, doc, now)
	if err == nil {
		err = s.snapshotStore.Create(snapshot)
	}
	if err != nil {
		checkLogger.Error().Err(err).Msg("Failed to write snapshot")
		return s.failCheck(result, target.ID, err.Error(), checkLogger)
	}

	lineDelta := differ.ComputeLineDelta(target.Specification, doc)
	entry := &models.ChangelogEntry{
		TargetID:        target.ID,
		PreviousVersion: target.CurrentVersion,
		NewVersion:      doc.Version(),
		Summary:         summary,
		BreakingCount:   changeSet.BreakingCount(),
		TotalChanges:    len(changeSet.Changes),
		LinesAdded:      lineDelta.LinesAdded,
		LinesDeleted:    lineDelta.LinesDeleted,
		CreatedAt:       now,
	}
	if err := s.changelogStore.Create(entry); err != nil {
		// A duplicate transition means a previous interrupted run already
		// recorded this changelog row; the rest of the check proceeds.
		if !errors.Is(err, common.ErrDuplicateTransition) {
			checkLogger.Error().Err(err).Msg("Failed to write changelog entry")
			return s.failCheck(result, target.ID, err.Error(), checkLogger)
		}
	}

	if err := s.targetStore.RecordChangeApplied(target.ID, doc, doc.Version(), now); err != nil {
		checkLogger.Error().Err(err).Msg("Failed to update target after change")
		return s.failCheck(result, target.ID, err.Error(), checkLogger)
	}

	s.pruneSnapshots(target.ID, checkLogger)
	s.emitChangeEvent(ctx, target, doc.Version(), changeSet, summary, now, checkLogger)
	return result
}

// failCheck degrades the target to the error state. last_checked stays
// untouched so the target remains due next cycle.
func (s *MonitoringService) failCheck(result *CheckResult, targetID, message string, logger zerolog.Logger) *CheckResult {
	result.Failed = true
	result.ErrorMessage = message
	if err := s.targetStore.RecordCheckFailure(targetID, message, time.Now().UTC()); err != nil {
		logger.Error().Err(err).Msg("Failed to record check failure")
	}
	return result
}

func (s *MonitoringService) pruneSnapshots(targetID string, logger zerolog.Logger) {
	retain := s.storageCfg.MaxSnapshotsPerTarget
	if retain <= 0 {
		return
	}
	if _, err := s.snapshotStore.Prune(targetID, retain); err != nil {
		// Retention is housekeeping; the check itself already succeeded.
		logger.Warn().Err(err).Msg("Snapshot pruning failed")
	}
}

func (s *MonitoringService) emitChangeEvent(
	ctx context.Context,
	target *models.MonitoredTarget,
	newVersion string,
	changeSet models.ChangeSet,
	summary string,
	detectedAt time.Time,
	logger zerolog.Logger,
) {
	event := models.ChangeEvent{
		TargetID:        target.ID,
		TargetName:      target.Name,
		TargetURL:       target.URL,
		PreviousVersion: target.CurrentVersion,
		NewVersion:      newVersion,
		ChangeSet:       changeSet,
		Summary:         summary,
		DetectedAt:      detectedAt,
	}
	if err := s.changeNotifier.NotifyChange(ctx, event); err != nil {
		logger.Error().Err(err).Msg("Failed to deliver change notification")
	}
}

// TestConnectivity probes a target's URL once. Failure moves the target to
// the unhealthy state, the entry point distinct from scheduled checks.
func (s *MonitoringService) TestConnectivity(ctx context.Context, targetID string) error {
	target, err := s.targetStore.GetByID(targetID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := s.specFetcher.Fetch(ctx, target.URL); err != nil {
		if recordErr := s.targetStore.RecordUnhealthy(target.ID, err.Error(), now); recordErr != nil {
			s.logger.Error().Err(recordErr).Str("target_id", target.ID).Msg("Failed to record unhealthy state")
		}
		return err
	}
	return s.targetStore.RecordConnectivityOK(target.ID, now)
}

// Deactivate prevents future scheduling of a target. A check already in
// flight runs to completion.
func (s *MonitoringService) Deactivate(targetID string) error {
	return s.targetStore.SetActive(targetID, false)
}

// Activate re-enables scheduling of a target.
func (s *MonitoringService) Activate(targetID string) error {
	return s.targetStore.SetActive(targetID, true)
}

// DeleteTarget removes a target and cascades to its snapshots and changelog
// entries: children first, then the parent. If the parent delete fails after
// the children are gone, the inconsistency window is logged for operational
// cleanup; no cross-collection transaction is assumed.
func (s *MonitoringService) DeleteTarget(targetID string) error {
	if _, err := s.targetStore.GetByID(targetID); err != nil {
		return err
	}

	if err := s.snapshotStore.DeleteByTarget(targetID); err != nil {
		return err
	}
	if err := s.changelogStore.DeleteByTarget(targetID); err != nil {
		return err
	}
	if err := s.targetStore.Delete(targetID); err != nil {
		s.logger.Error().Err(err).Str("target_id", targetID).
			Msg("Target delete failed after child records were removed; orphaned parent row needs cleanup")
		return err
	}

	s.logger.Info().Str("target_id", targetID).Msg("Target deleted with snapshots and changelog")
	return nil
}

// ChangeHistory returns a target's recorded version transitions, newest
// first.
func (s *MonitoringService) ChangeHistory(targetID string, limit int) ([]*models.ChangelogEntry, error) {
	if _, err := s.targetStore.GetByID(targetID); err != nil {
		return nil, err
	}
	return s.changelogStore.ListByTarget(targetID, limit)
}

// RecentChanges returns the global changelog timeline across all targets,
// newest first.
func (s *MonitoringService) RecentChanges(limit int) ([]*models.ChangelogEntry, error) {
	return s.changelogStore.ListRecent(limit)
}

// SnapshotHistory returns a target's stored snapshots, newest first.
func (s *MonitoringService) SnapshotHistory(targetID string, limit int) ([]*models.Snapshot, error) {
	if _, err := s.targetStore.GetByID(targetID); err != nil {
		return nil, err
	}
	return s.snapshotStore.ListByTarget(targetID, limit)
}

// LogCycleStats logs aggregate store counters at the end of a cycle.
func (s *MonitoringService) LogCycleStats(processed int) {
	activeCount, err := s.targetStore.CountActive()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count active targets")
		return
	}
	totalChanges, err := s.targetStore.SumChangeCounts()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to aggregate change counts")
		return
	}
	s.logger.Info().
		Int("targets_processed", processed).
		Int("active_targets", activeCount).
		Int("total_changes_detected", totalChanges).
		Msg("Scheduling cycle completed")
}

// fetchWithRetry applies the orchestrator's retry policy: bounded
// exponential backoff on transient failures only. The fetcher itself never
// retries.
func (s *MonitoringService) fetchWithRetry(ctx context.Context, url string) (*fetcher.FetchResult, error) {
	var result *fetcher.FetchResult

	operation := func() error {
		var err error
		result, err = s.specFetcher.Fetch(ctx, url)
		if err == nil {
			return nil
		}
		if common.IsTransientFetchError(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = s.cfg.RetryBaseDelay()
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(s.cfg.MaxFetchRetries)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}
