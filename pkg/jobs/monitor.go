package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/jordanlanch/obramap/pkg/leadlifecycle"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/store"
)

// Sweeper ages the stale leads of one user.
type Sweeper interface {
	SweepUser(ctx context.Context, userID string) (leadlifecycle.SweepResult, error)
}

// RunStats describes one pass over every account.
type RunStats struct {
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
	Users      int           `json:"users"`
	Aged       int           `json:"aged"`
	Failures   int           `json:"failures"`
	FailedUser []string      `json:"failedUsers,omitempty"`
}

// Status is the monitor's view of the scheduled sweep.
type Status struct {
	Running bool      `json:"running"`
	Runs    int       `json:"runs"`
	Last    *RunStats `json:"last,omitempty"`
}

// AgingMonitor runs the aging sweep over every account owning obras and
// remembers how the last run went.
type AgingMonitor struct {
	ds      store.DocumentStore
	sweeper Sweeper
	log     logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	running bool
	runs    int
	last    *RunStats
}

// NewAgingMonitor creates a new aging monitor
func NewAgingMonitor(ds store.DocumentStore, sweeper Sweeper, log logger.Logger) *AgingMonitor {
	return &AgingMonitor{ds: ds, sweeper: sweeper, log: log, now: time.Now}
}

// RunOnce sweeps every owner. A failing user is counted and skipped; the
// pass only fails when the owners cannot be listed or a run is already in
// progress.
func (m *AgingMonitor) RunOnce(ctx context.Context) (RunStats, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return RunStats{}, ErrAlreadyRunning
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	stats := RunStats{StartedAt: m.now()}

	owners, err := m.ds.ListOwners(ctx, store.CollectionObras)
	if err != nil {
		m.log.Error("listing obra owners failed", "error", err)
		return stats, store.Translate(err, "obras")
	}

	for _, userID := range owners {
		if ctx.Err() != nil {
			break
		}
		stats.Users++
		res, err := m.sweeper.SweepUser(ctx, userID)
		if err != nil {
			stats.Failures++
			stats.FailedUser = append(stats.FailedUser, userID)
			m.log.Warn("scheduled sweep failed for user", "user_id", userID, "error", err)
			continue
		}
		stats.Aged += res.Aged
	}
	stats.Duration = m.now().Sub(stats.StartedAt)

	m.mu.Lock()
	m.runs++
	m.last = &stats
	m.mu.Unlock()

	m.log.Info("scheduled aging sweep finished",
		"users", stats.Users, "aged", stats.Aged, "failures", stats.Failures, "duration", stats.Duration.String())
	return stats, nil
}

// Status returns a copy of the monitor state.
func (m *AgingMonitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{Running: m.running, Runs: m.runs}
	if m.last != nil {
		last := *m.last
		last.FailedUser = append([]string(nil), m.last.FailedUser...)
		st.Last = &last
	}
	return st
}
