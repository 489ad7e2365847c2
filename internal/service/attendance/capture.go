package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
)

// ShiftResolver picks the shift and shift-instance date for a punch.
type ShiftResolver interface {
	Resolve(ctx context.Context, deviceID, userID string, punchTime time.Time) (shift.Shift, time.Time, error)
}

type CaptureServiceImpl struct {
	attendance.Appender
	resolver   ShiftResolver
	calculator *StatusCalculator
	threshold  float64
	cooldown   time.Duration

	// mu serialises captures so type inference sees every earlier punch.
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func NewCaptureService(
	appender attendance.Appender,
	resolver ShiftResolver,
	threshold float64,
	cooldown time.Duration,
) attendance.CaptureService {
	return &CaptureServiceImpl{
		Appender:   appender,
		resolver:   resolver,
		calculator: NewStatusCalculator(),
		threshold:  threshold,
		cooldown:   cooldown,
		lastSeen:   make(map[string]time.Time),
	}
}

// Capture implements attendance.CaptureService.
func (c *CaptureServiceImpl) Capture(ctx context.Context, event attendance.PunchEvent) (attendance.AttendanceRecord, error) {
	if event.Confidence < c.threshold {
		return attendance.AttendanceRecord{}, attendance.ErrLowConfidenceRejected
	}
	event.PunchTime = attendance.WallClock(event.PunchTime)

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.lastSeen[event.UserID]; ok {
		since := event.PunchTime.Sub(last)
		if since >= 0 && since < c.cooldown {
			return attendance.AttendanceRecord{}, attendance.ErrDuplicatePunch
		}
	}

	s, workDate, err := c.resolver.Resolve(ctx, event.DeviceID, event.UserID, event.PunchTime)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}

	buffered, err := c.Appender.DayPunches(ctx, event.UserID, workDate)
	if err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to load shift day punches: %w", err)
	}

	// Derived fields only reflect punches up to and including this one.
	punches := make([]attendance.Punch, 0, len(buffered)+1)
	for _, p := range buffered {
		if !p.Time.After(event.PunchTime) {
			punches = append(punches, p)
		}
	}

	punchType := event.PunchType
	if punchType == "" {
		punchType = attendance.PunchIn
		if len(punches) > 0 {
			punchType = attendance.PunchOut
		}
	}
	// Only the OUT being captured is flagged, not the rest of the day.
	var anomaly string
	if punchType == attendance.PunchOut && !hasIn(punches) {
		anomaly = attendance.AnomalyOutWithoutIn
	}
	punches = append(punches, attendance.Punch{Time: event.PunchTime, Type: punchType})

	d := c.calculator.Derive(s, workDate, punches)

	record, err := c.Appender.Append(ctx, attendance.AttendanceRecord{
		UserID:                event.UserID,
		Name:                  event.Name,
		DeviceID:              event.DeviceID,
		PunchTime:             event.PunchTime,
		PunchDate:             workDate,
		PunchType:             punchType,
		ShiftID:               s.ID,
		Status:                d.Status,
		LateMinutes:           d.LateMinutes,
		EarlyDepartureMinutes: d.EarlyDepartureMinutes,
		OvertimeMinutes:       d.OvertimeMinutes,
		Confidence:            event.Confidence,
		Anomaly:               anomaly,
		SyncStatus:            attendance.SyncPending,
	})
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	c.remember(event.UserID, event.PunchTime)

	slog.Info("attendance recorded",
		"user_id", record.UserID,
		"device_id", record.DeviceID,
		"punch_time", record.PunchTime.Format(attendance.TimestampLayout),
		"punch_type", record.PunchType,
		"shift_id", record.ShiftID,
		"status", record.Status,
	)
	if record.Anomaly != "" {
		slog.Warn("attendance anomaly flagged", "user_id", record.UserID, "anomaly", record.Anomaly)
	}
	return record, nil
}

// remember records the punch for cooldown checks and drops identities whose
// cooldown has already lapsed.
func (c *CaptureServiceImpl) remember(userID string, punchTime time.Time) {
	for id, last := range c.lastSeen {
		if punchTime.Sub(last) >= c.cooldown {
			delete(c.lastSeen, id)
		}
	}
	c.lastSeen[userID] = punchTime
}

func hasIn(punches []attendance.Punch) bool {
	for _, p := range punches {
		if p.Type == attendance.PunchIn {
			return true
		}
	}
	return false
}
