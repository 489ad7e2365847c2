package cron

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/service/roster"
	"github.com/cmlabs-hris/attendance-sync-go/internal/service/syncer"
)

// DeviceJobs contains the background jobs of a capture device.
type DeviceJobs struct {
	worker          *syncer.Worker
	refresher       *roster.Refresher
	syncInterval    time.Duration
	refreshInterval time.Duration
}

func NewDeviceJobs(worker *syncer.Worker, refresher *roster.Refresher, syncInterval, refreshInterval time.Duration) *DeviceJobs {
	return &DeviceJobs{
		worker:          worker,
		refresher:       refresher,
		syncInterval:    syncInterval,
		refreshInterval: refreshInterval,
	}
}

// RegisterJobs registers the sync and roster jobs. The roster job is skipped when
// no refresher is configured.
func (j *DeviceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("sync_attendance", j.syncInterval, j.SyncAttendance)
	if j.refresher != nil {
		scheduler.AddJob("refresh_roster", j.refreshInterval, j.RefreshRoster)
	}
}

// SyncAttendance runs one sync cycle. Transient failures are logged by the worker
// and retried on a later tick after backoff.
func (j *DeviceJobs) SyncAttendance(ctx context.Context) error {
	if _, err := j.worker.RunCycle(ctx); err != nil && !errors.Is(err, attendance.ErrTransientSync) {
		return err
	}
	return nil
}

func (j *DeviceJobs) RefreshRoster(ctx context.Context) error {
	_, err := j.refresher.Refresh(ctx)
	return err
}
