package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
)

// ReconcileSpec checks hourly whether another day has settled.
const ReconcileSpec = "5 * * * *"

// DefaultReconcileDelay is how long after midnight UTC a day is held open. It
// clears the 14:00 day boundary of overnight shifts with an hour left for
// devices that sync late.
const DefaultReconcileDelay = 15 * time.Hour

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	delay             time.Duration
	now               func() time.Time

	mu      sync.Mutex
	lastDay time.Time
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, delay time.Duration) *AttendanceJobs {
	if delay < 0 {
		delay = 0
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		delay:             delay,
		now:               time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) error {
	return scheduler.AddCronJob("reconcile_attendance", ReconcileSpec, j.ReconcileSettledDay)
}

// SettledDay is the latest punch date whose punches can no longer change:
// the day before the one that was current delay ago.
func (j *AttendanceJobs) SettledDay() time.Time {
	return attendance.DateOf(j.now().UTC().Add(-j.delay)).AddDate(0, 0, -1)
}

// ReconcileSettledDay recomputes and publishes every roster user's attendance
// for the latest settled day. A day already published by this process is skipped.
func (j *AttendanceJobs) ReconcileSettledDay(ctx context.Context) error {
	day := j.SettledDay()

	j.mu.Lock()
	defer j.mu.Unlock()
	if day.Equal(j.lastDay) {
		return nil
	}

	slog.Info("Cron: Starting attendance reconciliation", "punch_date", day.Format(attendance.DateLayout))

	report, err := j.attendanceService.ReconcileDay(ctx, day)
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", day.Format(attendance.DateLayout), err)
	}
	j.lastDay = day

	slog.Info("Cron: Attendance reconciled",
		"punch_date", report.PunchDate,
		"users", len(report.Users),
		"absent", report.Absent,
		"late", report.Late,
	)
	return nil
}
