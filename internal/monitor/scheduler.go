package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/specwatch/internal/config"
	"github.com/aleister1102/specwatch/internal/models"
	"github.com/rs/zerolog"
)

// DueTargets selects the targets whose configured interval has elapsed since
// their last check. A never-checked target is always due. Pure function of
// its inputs: no hidden state, no side effects.
func DueTargets(targets []*models.MonitoredTarget, now time.Time) []*models.MonitoredTarget {
	due := make([]*models.MonitoredTarget, 0, len(targets))
	for _, target := range targets {
		if target.IsDue(now) {
			due = append(due, target)
		}
	}
	return due
}

// checkJob wraps a target ID and the WaitGroup of its scheduling cycle.
type checkJob struct {
	TargetID string
	CycleWG  *sync.WaitGroup
}

// Scheduler drives recurring scheduling cycles: each tick it pulls the due
// set from the service and distributes checks across a bounded worker pool.
type Scheduler struct {
	logger  zerolog.Logger
	cfg     *config.MonitorConfig
	service *MonitoringService

	ctx        context.Context
	cancelFunc context.CancelFunc
	workerChan chan checkJob
	wg         sync.WaitGroup
	active     bool
	mu         sync.Mutex
}

// NewScheduler creates a new monitor scheduler.
func NewScheduler(cfg *config.MonitorConfig, logger zerolog.Logger, service *MonitoringService) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:     logger.With().Str("component", "Scheduler").Logger(),
		cfg:        cfg,
		service:    service,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the worker pool and the recurring cycle loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		s.logger.Warn().Msg("Scheduler already active")
		return nil
	}
	s.active = true
	s.mu.Unlock()

	numWorkers := s.cfg.MaxConcurrentChecks
	if numWorkers <= 0 {
		numWorkers = 1
		s.logger.Warn().Int("configured_workers", s.cfg.MaxConcurrentChecks).Msg("MaxConcurrentChecks invalid, defaulting to 1 worker")
	}
	s.workerChan = make(chan checkJob, numWorkers)

	s.logger.Info().Int("num_workers", numWorkers).Msg("Starting check workers")
	for i := 0; i < numWorkers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	ticker := time.NewTicker(s.cfg.CycleInterval())

	go func() {
		defer func() {
			ticker.Stop()
			close(s.workerChan)
			s.wg.Wait()

			s.mu.Lock()
			s.active = false
			s.mu.Unlock()
			s.logger.Info().Msg("Scheduler main loop and workers stopped")
		}()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Info().Msg("Scheduler context cancelled, main loop stopping")
				return
			case <-ticker.C:
				s.runCycle()
			}
		}
	}()

	s.logger.Info().Dur("cycle_interval", s.cfg.CycleInterval()).Msg("Scheduler started")
	return nil
}

// runCycle executes one scheduling cycle: pull the due set, dispatch every
// target to the worker pool, wait for the cycle to drain.
func (s *Scheduler) runCycle() {
	dueTargets, err := s.service.GetDueTargets()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load due targets, skipping cycle")
		return
	}
	if len(dueTargets) == 0 {
		s.logger.Debug().Msg("No targets due this cycle")
		return
	}

	s.logger.Info().Int("due_targets", len(dueTargets)).Msg("Scheduling cycle started")

	var cycleWG sync.WaitGroup
	cycleWG.Add(len(dueTargets))
	for _, target := range dueTargets {
		job := checkJob{TargetID: target.ID, CycleWG: &cycleWG}
		select {
		case s.workerChan <- job:
		case <-s.ctx.Done():
			s.logger.Info().Str("target_id", target.ID).Msg("Context cancelled during job submission")
			cycleWG.Done()
		}
	}
	cycleWG.Wait()

	if s.ctx.Err() == nil {
		s.service.LogCycleStats(len(dueTargets))
	}
}

// RunOnce executes a single scheduling cycle synchronously, used by the
// one-shot mode. Workers must not be running.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	dueTargets, err := s.service.GetDueTargets()
	if err != nil {
		return err
	}

	s.logger.Info().Int("due_targets", len(dueTargets)).Msg("Running single scheduling cycle")
	for _, target := range dueTargets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.service.CheckTarget(ctx, target.ID)
	}
	s.service.LogCycleStats(len(dueTargets))
	return nil
}

// worker consumes check jobs until the channel closes.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	s.logger.Debug().Int("worker_id", id).Msg("Check worker started")
	for job := range s.workerChan {
		select {
		case <-s.ctx.Done():
			job.CycleWG.Done()
			continue
		default:
		}
		s.service.CheckTarget(s.ctx, job.TargetID)
		job.CycleWG.Done()
	}
	s.logger.Debug().Int("worker_id", id).Msg("Check worker stopped")
}

// Stop signals the scheduler to shut down and waits for in-flight checks to
// finish, bounded by a timeout.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.logger.Info().Msg("Stopping scheduler...")
	s.cancelFunc()

	shutdownTimeout := 10 * time.Second
	checkInterval := 100 * time.Millisecond
	start := time.Now()
	for {
		s.mu.Lock()
		isActive := s.active
		s.mu.Unlock()
		if !isActive {
			s.logger.Info().Msg("Scheduler stopped")
			return
		}
		if time.Since(start) > shutdownTimeout {
			s.logger.Warn().Msg("Scheduler did not stop gracefully within the timeout")
			return
		}
		time.Sleep(checkInterval)
	}
}
