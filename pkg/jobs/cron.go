package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ErrAlreadyRunning is returned when a sweep pass overlaps another.
var ErrAlreadyRunning = errors.New("aging sweep already running")

// RunTimeout bounds one scheduled pass.
const RunTimeout = 30 * time.Minute

// CronManager manages scheduled jobs
type CronManager struct {
	cron    *cron.Cron
	monitor *AgingMonitor
	log     logger.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(monitor *AgingMonitor, log logger.Logger) *CronManager {
	return &CronManager{
		cron:    cron.New(),
		monitor: monitor,
		log:     log,
	}
}

// SetupJobs schedules the aging sweep on schedule, a standard five-field
// cron expression.
func (cm *CronManager) SetupJobs(schedule string) error {
	_, err := cm.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
		defer cancel()

		if _, err := cm.monitor.RunOnce(ctx); err != nil {
			cm.log.Error("scheduled aging sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	cm.log.Info("cron jobs configured", "aging_schedule", schedule)
	return nil
}

// Entries reports how many jobs are scheduled.
func (cm *CronManager) Entries() int {
	return len(cm.cron.Entries())
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.log.Info("starting cron scheduler")
	cm.cron.Start()
}

// Stop stops the scheduler and waits for a running job to return.
func (cm *CronManager) Stop() {
	cm.log.Info("stopping cron scheduler")
	<-cm.cron.Stop().Done()
}

// GetMonitor returns the aging monitor (for manual triggers)
func (cm *CronManager) GetMonitor() *AgingMonitor {
	return cm.monitor
}
