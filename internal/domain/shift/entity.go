package shift

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultShiftID is the General Shift every catalog carries as the fallback.
const DefaultShiftID int64 = 1

const (
	DefaultLateGraceMinutes     = 15
	DefaultOvertimeStartMinutes = 30
)

var DefaultHalfDayMinHours = decimal.NewFromFloat(4.0)

type Shift struct {
	ID                   int64
	Name                 string
	StartTime            ClockTime
	EndTime              ClockTime
	LateGraceMinutes     int
	HalfDayMinHours      decimal.Decimal
	OvertimeStartMinutes int
	CreatedAt            time.Time
}

// DefaultShift returns the General Shift, 09:00-18:00 with a 15 minute grace.
func DefaultShift() Shift {
	return Shift{
		ID:                   DefaultShiftID,
		Name:                 "General Shift",
		StartTime:            NewClockTime(9, 0, 0),
		EndTime:              NewClockTime(18, 0, 0),
		LateGraceMinutes:     DefaultLateGraceMinutes,
		HalfDayMinHours:      DefaultHalfDayMinHours,
		OvertimeStartMinutes: DefaultOvertimeStartMinutes,
	}
}

// IsOvernight reports whether the shift ends on the calendar day after it starts.
func (s Shift) IsOvernight() bool {
	return s.EndTime < s.StartTime
}

// Window returns the scheduled start and end of the shift instance that begins on workDate.
func (s Shift) Window(workDate time.Time) (start, end time.Time) {
	start = s.StartTime.On(workDate)
	end = s.EndTime.On(workDate)
	if s.IsOvernight() {
		end = s.EndTime.On(workDate.AddDate(0, 0, 1))
	}
	return start, end
}

// DayBoundary is the time of day that separates the previous instance of an
// overnight shift from the next one: the middle of the off-shift gap.
// Punches before it belong to the instance that started the day before.
func (s Shift) DayBoundary() ClockTime {
	if !s.IsOvernight() {
		return 0
	}
	gap := s.StartTime - s.EndTime
	return s.EndTime + gap/2
}

// ClockTime is a time of day in seconds since midnight.
type ClockTime int

const secondsPerDay = 24 * 60 * 60

func NewClockTime(hour, minute, second int) ClockTime {
	return ClockTime(hour*3600 + minute*60 + second)
}

// ClockOf returns the wall-clock time of day of t in its own location.
func ClockOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute(), t.Second())
}

// ParseClock accepts "15:04:05" or "15:04".
func ParseClock(value string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q: %w", value, ErrInvalidClock)
	}

	limits := []int{23, 59, 59}
	fields := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q: %w", value, ErrInvalidClock)
		}
		fields[i] = n
	}

	return NewClockTime(fields[0], fields[1], fields[2]), nil
}

func (c ClockTime) Hour() int   { return int(c) / 3600 }
func (c ClockTime) Minute() int { return int(c) % 3600 / 60 }
func (c ClockTime) Second() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
}

// On places the time of day on the calendar date of day, in day's location.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), c.Second(), 0, day.Location())
}

func (c ClockTime) Valid() bool {
	return c >= 0 && c < secondsPerDay
}
