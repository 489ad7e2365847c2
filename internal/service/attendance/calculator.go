package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/shopspring/decimal"
)

type StatusCalculator struct {
}

func NewStatusCalculator() *StatusCalculator {
	return &StatusCalculator{}
}

// Derive computes status and minute deltas for one shift instance from the punches
// that belong to it. The result does not depend on the order of punches.
func (c *StatusCalculator) Derive(s shift.Shift, workDate time.Time, punches []attendance.Punch) attendance.Derivation {
	sorted := make([]attendance.Punch, len(punches))
	copy(sorted, punches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Time.Equal(sorted[j].Time) {
			return sorted[i].Type < sorted[j].Type // IN before OUT
		}
		return sorted[i].Time.Before(sorted[j].Time)
	})

	var d attendance.Derivation

	var firstIn, lastOut *time.Time
	for i := range sorted {
		p := sorted[i]
		switch p.Type {
		case attendance.PunchIn:
			if firstIn == nil {
				firstIn = &sorted[i].Time
			}
		case attendance.PunchOut:
			if firstIn == nil {
				d.Anomaly = attendance.AnomalyOutWithoutIn
				continue
			}
			lastOut = &sorted[i].Time
		}
	}

	if firstIn == nil {
		d.Status = attendance.StatusAbsent
		return d
	}
	d.FirstIn = firstIn
	d.LastOut = lastOut

	start, end := s.Window(workDate)

	lateFrom := start.Add(time.Duration(s.LateGraceMinutes) * time.Minute)
	d.LateMinutes = floorMinutes(firstIn.Sub(lateFrom))

	if lastOut != nil {
		d.EarlyDepartureMinutes = floorMinutes(end.Sub(*lastOut))

		overtimeFrom := end.Add(time.Duration(s.OvertimeStartMinutes) * time.Minute)
		d.OvertimeMinutes = floorMinutes(lastOut.Sub(overtimeFrom))

		d.WorkedMinutes = floorMinutes(lastOut.Sub(*firstIn))
	}

	switch {
	case lastOut != nil && workedHours(*firstIn, *lastOut).LessThan(s.HalfDayMinHours):
		d.Status = attendance.StatusHalfDay
	case d.LateMinutes > 0:
		d.Status = attendance.StatusLate
	case d.EarlyDepartureMinutes > 0:
		d.Status = attendance.StatusEarlyDeparture
	default:
		d.Status = attendance.StatusPresent
	}

	return d
}

// floorMinutes truncates to whole minutes and clamps at zero.
func floorMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

func workedHours(in, out time.Time) decimal.Decimal {
	seconds := int64(out.Sub(in) / time.Second)
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600))
}
