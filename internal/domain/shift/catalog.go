package shift

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type catalogDocument struct {
	Shifts []catalogEntry `yaml:"shifts"`
}

type catalogEntry struct {
	ID                   int64    `yaml:"id"`
	Name                 string   `yaml:"name"`
	StartTime            string   `yaml:"start_time"`
	EndTime              string   `yaml:"end_time"`
	LateGraceMinutes     *int     `yaml:"late_grace_minutes"`
	HalfDayMinHours      *float64 `yaml:"half_day_min_hours"`
	OvertimeStartMinutes *int     `yaml:"overtime_start_minutes"`
}

// LoadCatalogFile reads a YAML shift catalog. The default shift is added when the
// document does not define id 1.
func LoadCatalogFile(path string) ([]Shift, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shift catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) ([]Shift, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalogDocument, err)
	}

	seen := make(map[int64]bool, len(doc.Shifts))
	shifts := make([]Shift, 0, len(doc.Shifts)+1)
	for i, entry := range doc.Shifts {
		if entry.ID <= 0 {
			return nil, fmt.Errorf("%w: shifts[%d] needs a positive id", ErrInvalidCatalogDocument, i)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("%w: duplicate shift id %d", ErrInvalidCatalogDocument, entry.ID)
		}
		seen[entry.ID] = true

		s, err := entry.toShift()
		if err != nil {
			return nil, fmt.Errorf("%w: shifts[%d]: %v", ErrInvalidCatalogDocument, i, err)
		}
		shifts = append(shifts, s)
	}

	if !seen[DefaultShiftID] {
		shifts = append([]Shift{DefaultShift()}, shifts...)
	}
	return shifts, nil
}

func (e catalogEntry) toShift() (Shift, error) {
	if e.Name == "" {
		return Shift{}, fmt.Errorf("name is required")
	}
	start, err := ParseClock(e.StartTime)
	if err != nil {
		return Shift{}, err
	}
	end, err := ParseClock(e.EndTime)
	if err != nil {
		return Shift{}, err
	}
	if start == end {
		return Shift{}, ErrZeroLengthShift
	}

	s := Shift{
		ID:                   e.ID,
		Name:                 e.Name,
		StartTime:            start,
		EndTime:              end,
		LateGraceMinutes:     DefaultLateGraceMinutes,
		HalfDayMinHours:      DefaultHalfDayMinHours,
		OvertimeStartMinutes: DefaultOvertimeStartMinutes,
	}
	if e.LateGraceMinutes != nil {
		if *e.LateGraceMinutes < 0 {
			return Shift{}, fmt.Errorf("late_grace_minutes must be non-negative")
		}
		s.LateGraceMinutes = *e.LateGraceMinutes
	}
	if e.HalfDayMinHours != nil {
		if *e.HalfDayMinHours < 0 {
			return Shift{}, fmt.Errorf("half_day_min_hours must be non-negative")
		}
		s.HalfDayMinHours = decimal.NewFromFloat(*e.HalfDayMinHours)
	}
	if e.OvertimeStartMinutes != nil {
		if *e.OvertimeStartMinutes < 0 {
			return Shift{}, fmt.Errorf("overtime_start_minutes must be non-negative")
		}
		s.OvertimeStartMinutes = *e.OvertimeStartMinutes
	}
	return s, nil
}
