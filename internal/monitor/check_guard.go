package monitor

import (
	"sync"

	"github.com/rs/zerolog"
)

// checkGuard enforces at most one in-flight check per target. A second
// trigger for a busy target is skipped, not queued, so duplicate snapshot
// and changelog writes never race on the uniqueness constraint.
type checkGuard struct {
	logger   zerolog.Logger
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newCheckGuard(logger zerolog.Logger) *checkGuard {
	return &checkGuard{
		logger:   logger.With().Str("component", "CheckGuard").Logger(),
		inFlight: make(map[string]struct{}),
	}
}

// tryAcquire attempts to claim the in-flight slot for a target. It never
// blocks: callers that lose the race skip the check.
func (cg *checkGuard) tryAcquire(targetID string) bool {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	if _, busy := cg.inFlight[targetID]; busy {
		cg.logger.Debug().Str("target_id", targetID).Msg("Check already in flight, skipping")
		return false
	}
	cg.inFlight[targetID] = struct{}{}
	return true
}

// release frees the in-flight slot for a target.
func (cg *checkGuard) release(targetID string) {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	delete(cg.inFlight, targetID)
}

// inFlightCount returns the number of checks currently running.
func (cg *checkGuard) inFlightCount() int {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	return len(cg.inFlight)
}
