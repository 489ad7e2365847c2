package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(attendance.TimestampLayout, value)
	require.NoError(t, err)
	return ts
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(attendance.DateLayout, value)
	require.NoError(t, err)
	return d
}

func in(t *testing.T, value string) attendance.Punch {
	return attendance.Punch{Time: at(t, value), Type: attendance.PunchIn}
}

func out(t *testing.T, value string) attendance.Punch {
	return attendance.Punch{Time: at(t, value), Type: attendance.PunchOut}
}

func nightShift() shift.Shift {
	return shift.Shift{
		ID:                   2,
		Name:                 "Night",
		StartTime:            shift.NewClockTime(22, 0, 0),
		EndTime:              shift.NewClockTime(6, 0, 0),
		LateGraceMinutes:     10,
		HalfDayMinHours:      decimal.NewFromFloat(4.0),
		OvertimeStartMinutes: 30,
	}
}

func TestStatusCalculator_Derive(t *testing.T) {
	calc := NewStatusCalculator()
	general := shift.DefaultShift()

	tests := []struct {
		name     string
		shift    shift.Shift
		workDate string
		punches  func(t *testing.T) []attendance.Punch
		status   attendance.Status
		late     int
		early    int
		overtime int
		anomaly  string
	}{
		{
			name:     "late after grace",
			shift:    general,
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{in(t, "2024-03-01 09:20:00")}
			},
			status: attendance.StatusLate,
			late:   5,
		},
		{
			name:     "within grace is present",
			shift:    general,
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{in(t, "2024-03-01 09:14:59")}
			},
			status: attendance.StatusPresent,
		},
		{
			name:     "overtime past threshold",
			shift:    general,
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{in(t, "2024-03-01 09:00:00"), out(t, "2024-03-01 18:45:00")}
			},
			status:   attendance.StatusPresent,
			overtime: 15,
		},
		{
			name:     "in only has no early departure",
			shift:    general,
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{in(t, "2024-03-01 08:55:00")}
			},
			status: attendance.StatusPresent,
		},
		{
			name:     "no punches is absent",
			shift:    general,
			workDate: "2024-03-01",
			punches:  func(t *testing.T) []attendance.Punch { return nil },
			status:   attendance.StatusAbsent,
		},
		{
			name:     "early departure",
			shift:    general,
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{in(t, "2024-03-01 09:00:00"), out(t, "2024-03-01 17:30:00")}
			},
			status: attendance.StatusEarlyDeparture,
			early:  30,
		},
		{
			name:     "short day is half day",
			shift:    general,
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{in(t, "2024-03-01 09:30:00"), out(t, "2024-03-01 12:00:00")}
			},
			status: attendance.StatusHalfDay,
			late:   15,
			early:  360,
		},
		{
			name:     "late takes precedence over early departure",
			shift:    general,
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{in(t, "2024-03-01 09:40:00"), out(t, "2024-03-01 17:00:00")}
			},
			status: attendance.StatusLate,
			late:   25,
			early:  60,
		},
		{
			name:     "out without in is flagged",
			shift:    general,
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{out(t, "2024-03-01 08:00:00"), in(t, "2024-03-01 09:00:00")}
			},
			status:  attendance.StatusPresent,
			anomaly: attendance.AnomalyOutWithoutIn,
		},
		{
			name:     "only an out is absent with anomaly",
			shift:    general,
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{out(t, "2024-03-01 18:00:00")}
			},
			status:  attendance.StatusAbsent,
			anomaly: attendance.AnomalyOutWithoutIn,
		},
		{
			name:     "overnight start within grace",
			shift:    nightShift(),
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{in(t, "2024-03-01 22:05:00")}
			},
			status: attendance.StatusPresent,
		},
		{
			name:     "overnight out before end next morning",
			shift:    nightShift(),
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{in(t, "2024-03-01 22:05:00"), out(t, "2024-03-02 05:50:00")}
			},
			status: attendance.StatusEarlyDeparture,
			early:  10,
		},
		{
			name:     "overnight overtime",
			shift:    nightShift(),
			workDate: "2024-03-01",
			punches: func(t *testing.T) []attendance.Punch {
				return []attendance.Punch{in(t, "2024-03-01 21:55:00"), out(t, "2024-03-02 07:10:30")}
			},
			status:   attendance.StatusPresent,
			overtime: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := calc.Derive(tt.shift, day(t, tt.workDate), tt.punches(t))
			assert.Equal(t, tt.status, d.Status)
			assert.Equal(t, tt.late, d.LateMinutes)
			assert.Equal(t, tt.early, d.EarlyDepartureMinutes)
			assert.Equal(t, tt.overtime, d.OvertimeMinutes)
			assert.Equal(t, tt.anomaly, d.Anomaly)
		})
	}
}

func TestStatusCalculator_DeriveIsOrderIndependent(t *testing.T) {
	calc := NewStatusCalculator()
	s := shift.DefaultShift()
	workDate := day(t, "2024-03-01")

	forward := []attendance.Punch{
		in(t, "2024-03-01 09:20:00"),
		out(t, "2024-03-01 13:00:00"),
		out(t, "2024-03-01 18:45:00"),
	}
	reversed := []attendance.Punch{forward[2], forward[1], forward[0]}

	a := calc.Derive(s, workDate, forward)
	b := calc.Derive(s, workDate, reversed)
	assert.Equal(t, a, b)
	assert.Equal(t, attendance.StatusLate, a.Status)
	assert.Equal(t, 15, a.OvertimeMinutes)
	require.NotNil(t, a.LastOut)
	assert.Equal(t, at(t, "2024-03-01 18:45:00"), *a.LastOut)
}

func TestStatusCalculator_MinutesNeverNegative(t *testing.T) {
	calc := NewStatusCalculator()
	s := shift.DefaultShift()
	workDate := day(t, "2024-03-01")

	for hour := 0; hour < 24; hour++ {
		for _, minute := range []int{0, 17, 59} {
			inAt := time.Date(2024, 3, 1, hour, minute, 0, 0, time.UTC)
			for _, extra := range []time.Duration{0, 90 * time.Minute, 10 * time.Hour} {
				d := calc.Derive(s, workDate, []attendance.Punch{
					{Time: inAt, Type: attendance.PunchIn},
					{Time: inAt.Add(extra), Type: attendance.PunchOut},
				})
				assert.GreaterOrEqual(t, d.LateMinutes, 0)
				assert.GreaterOrEqual(t, d.EarlyDepartureMinutes, 0)
				assert.GreaterOrEqual(t, d.OvertimeMinutes, 0)
				assert.GreaterOrEqual(t, d.WorkedMinutes, 0)
			}
		}
	}
}
