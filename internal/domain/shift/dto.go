package shift

import (
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateShiftRequest struct {
	Name                 string           `json:"shift_name"`
	StartTime            string           `json:"start_time"`
	EndTime              string           `json:"end_time"`
	LateGraceMinutes     *int             `json:"late_grace_mins"`
	HalfDayMinHours      *decimal.Decimal `json:"half_day_min_hours"`
	OvertimeStartMinutes *int             `json:"overtime_start_mins"`
}

func (r *CreateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_name",
			Message: "shift_name is required",
		})
	}

	start, startErr := ParseClock(r.StartTime)
	if startErr != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be HH:MM or HH:MM:SS",
		})
	}
	end, endErr := ParseClock(r.EndTime)
	if endErr != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be HH:MM or HH:MM:SS",
		})
	}
	if startErr == nil && endErr == nil && start == end {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must differ from start_time",
		})
	}

	errs = append(errs, validateThresholds(r.LateGraceMinutes, r.HalfDayMinHours, r.OvertimeStartMinutes)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToShift applies schema defaults to omitted thresholds. Call after Validate.
func (r *CreateShiftRequest) ToShift() Shift {
	start, _ := ParseClock(r.StartTime)
	end, _ := ParseClock(r.EndTime)

	s := Shift{
		Name:                 r.Name,
		StartTime:            start,
		EndTime:              end,
		LateGraceMinutes:     DefaultLateGraceMinutes,
		HalfDayMinHours:      DefaultHalfDayMinHours,
		OvertimeStartMinutes: DefaultOvertimeStartMinutes,
	}
	if r.LateGraceMinutes != nil {
		s.LateGraceMinutes = *r.LateGraceMinutes
	}
	if r.HalfDayMinHours != nil {
		s.HalfDayMinHours = *r.HalfDayMinHours
	}
	if r.OvertimeStartMinutes != nil {
		s.OvertimeStartMinutes = *r.OvertimeStartMinutes
	}
	return s
}

type UpdateShiftRequest struct {
	ID                   int64            `json:"-"`
	Name                 *string          `json:"shift_name"`
	StartTime            *string          `json:"start_time"`
	EndTime              *string          `json:"end_time"`
	LateGraceMinutes     *int             `json:"late_grace_mins"`
	HalfDayMinHours      *decimal.Decimal `json:"half_day_min_hours"`
	OvertimeStartMinutes *int             `json:"overtime_start_mins"`
}

func (r *UpdateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id must be a positive number",
		})
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_name",
			Message: "shift_name cannot be empty",
		})
	}
	if r.StartTime != nil {
		if _, err := ParseClock(*r.StartTime); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "start_time",
				Message: "start_time must be HH:MM or HH:MM:SS",
			})
		}
	}
	if r.EndTime != nil {
		if _, err := ParseClock(*r.EndTime); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "end_time",
				Message: "end_time must be HH:MM or HH:MM:SS",
			})
		}
	}

	errs = append(errs, validateThresholds(r.LateGraceMinutes, r.HalfDayMinHours, r.OvertimeStartMinutes)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply merges the request onto an existing shift.
func (r *UpdateShiftRequest) Apply(s Shift) (Shift, error) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.StartTime != nil {
		s.StartTime, _ = ParseClock(*r.StartTime)
	}
	if r.EndTime != nil {
		s.EndTime, _ = ParseClock(*r.EndTime)
	}
	if r.LateGraceMinutes != nil {
		s.LateGraceMinutes = *r.LateGraceMinutes
	}
	if r.HalfDayMinHours != nil {
		s.HalfDayMinHours = *r.HalfDayMinHours
	}
	if r.OvertimeStartMinutes != nil {
		s.OvertimeStartMinutes = *r.OvertimeStartMinutes
	}
	if s.StartTime == s.EndTime {
		return Shift{}, ErrZeroLengthShift
	}
	return s, nil
}

func validateThresholds(grace *int, halfDay *decimal.Decimal, overtime *int) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if grace != nil && *grace < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "late_grace_mins",
			Message: "late_grace_mins must be a non-negative number",
		})
	}
	if halfDay != nil && halfDay.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "half_day_min_hours",
			Message: "half_day_min_hours must be a non-negative number",
		})
	}
	if overtime != nil && *overtime < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "overtime_start_mins",
			Message: "overtime_start_mins must be a non-negative number",
		})
	}
	return errs
}

type ShiftResponse struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"shift_name"`
	StartTime            string          `json:"start_time"`
	EndTime              string          `json:"end_time"`
	LateGraceMinutes     int             `json:"late_grace_mins"`
	HalfDayMinHours      decimal.Decimal `json:"half_day_min_hours"`
	OvertimeStartMinutes int             `json:"overtime_start_mins"`
	Overnight            bool            `json:"overnight"`
	CreatedAt            *string         `json:"created_at,omitempty"`
}

func NewShiftResponse(s Shift) ShiftResponse {
	resp := ShiftResponse{
		ID:                   s.ID,
		Name:                 s.Name,
		StartTime:            s.StartTime.String(),
		EndTime:              s.EndTime.String(),
		LateGraceMinutes:     s.LateGraceMinutes,
		HalfDayMinHours:      s.HalfDayMinHours,
		OvertimeStartMinutes: s.OvertimeStartMinutes,
		Overnight:            s.IsOvernight(),
	}
	if !s.CreatedAt.IsZero() {
		created := s.CreatedAt.Format(time.RFC3339)
		resp.CreatedAt = &created
	}
	return resp
}

// ToShift converts a response received from the central store back into a Shift.
func (r ShiftResponse) ToShift() (Shift, error) {
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return Shift{}, err
	}
	end, err := ParseClock(r.EndTime)
	if err != nil {
		return Shift{}, err
	}
	return Shift{
		ID:                   r.ID,
		Name:                 r.Name,
		StartTime:            start,
		EndTime:              end,
		LateGraceMinutes:     r.LateGraceMinutes,
		HalfDayMinHours:      r.HalfDayMinHours,
		OvertimeStartMinutes: r.OvertimeStartMinutes,
	}, nil
}
