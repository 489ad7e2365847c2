package attendance

import (
	"fmt"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04:05"
	TimestampLayout = "2006-01-02 15:04:05"
)

type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

func (p PunchType) Valid() bool {
	return p == PunchIn || p == PunchOut
}

type Status string

const (
	StatusPresent        Status = "Present"
	StatusLate           Status = "Late"
	StatusHalfDay        Status = "HalfDay"
	StatusAbsent         Status = "Absent"
	StatusEarlyDeparture Status = "EarlyDeparture"
)

var StatusValues = []string{
	string(StatusPresent),
	string(StatusLate),
	string(StatusHalfDay),
	string(StatusAbsent),
	string(StatusEarlyDeparture),
}

// SyncStatus is the delivery lifecycle of a buffered record:
// pending -> synced, or pending -> sync_failed on a permanent rejection.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "sync_failed"
)

// Anomaly reasons surfaced for manual review.
const (
	AnomalyOutWithoutIn = "out_without_in"
)

// PunchEvent is a resolved identity at a device at a point in time.
type PunchEvent struct {
	UserID     string
	Name       string
	DeviceID   string
	PunchTime  time.Time
	PunchType  PunchType
	Confidence float64
}

// Punch is the part of a record the status calculator looks at.
type Punch struct {
	Time time.Time
	Type PunchType
}

// Derivation holds the business facts derived from a shift day's punches.
type Derivation struct {
	Status                Status
	LateMinutes           int
	EarlyDepartureMinutes int
	OvertimeMinutes       int
	WorkedMinutes         int
	FirstIn               *time.Time
	LastOut               *time.Time
	Anomaly               string
}

func (d Derivation) HasOvertime() bool {
	return d.OvertimeMinutes > 0
}

type AttendanceRecord struct {
	ID                    int64
	UserID                string
	Name                  string
	DeviceID              string
	PunchTime             time.Time
	PunchDate             time.Time
	PunchType             PunchType
	ShiftID               int64
	Status                Status
	LateMinutes           int
	EarlyDepartureMinutes int
	OvertimeMinutes       int
	Confidence            float64
	Anomaly               string
	SyncStatus            SyncStatus
	SyncError             *string
	CreatedAt             time.Time
}

func (r AttendanceRecord) Synced() bool {
	return r.SyncStatus == SyncSynced
}

func (r AttendanceRecord) PunchClock() string {
	return r.PunchTime.Format(ClockLayout)
}

func (r AttendanceRecord) Key() RecordKey {
	return RecordKey{DeviceID: r.DeviceID, UserID: r.UserID, PunchTime: r.PunchTime.Format(TimestampLayout)}
}

// RecordKey is the natural de-duplication key shared by the device buffer and the central store.
type RecordKey struct {
	DeviceID  string
	UserID    string
	PunchTime string
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s/%s@%s", k.DeviceID, k.UserID, k.PunchTime)
}

// Anomaly is a record queued for manual reconciliation at the central store.
type Anomaly struct {
	ID        int64
	DeviceID  string
	UserID    string
	PunchTime time.Time
	PunchDate time.Time
	Reason    string
	CreatedAt time.Time
}

// BufferStats summarises the local buffer by sync state.
type BufferStats struct {
	Pending   int64
	Synced    int64
	Failed    int64
	Anomalies int64
}

// WallClock drops the zone and sub-second part of t, keeping the clock reading.
// Punch times are device wall-clock readings and are compared as such.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// DateOf returns the calendar date of a wall-clock time at midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseWallClock accepts "2006-01-02 15:04:05" or an RFC3339 timestamp, whose
// clock reading in its own offset is kept.
func ParseWallClock(value string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid punch time %q: %w", value, err)
	}
	return WallClock(t), nil
}
