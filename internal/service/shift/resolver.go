package shift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
)

// Resolver decides which shift governs a punch and which shift instance it belongs to.
type Resolver struct {
	catalog shift.Catalog
	roster  employee.Reader
}

func NewResolver(catalog shift.Catalog, roster employee.Reader) *Resolver {
	return &Resolver{catalog: catalog, roster: roster}
}

// Resolve returns the user's shift and the work date of the instance punchTime falls in.
// Unassigned users and dangling assignments fall back to the default shift.
func (r *Resolver) Resolve(ctx context.Context, deviceID, userID string, punchTime time.Time) (shift.Shift, time.Time, error) {
	s, err := r.ShiftFor(ctx, userID)
	if err != nil {
		return shift.Shift{}, time.Time{}, fmt.Errorf("resolve shift for %s at %s: %w", userID, deviceID, err)
	}
	return s, WorkDate(s, punchTime), nil
}

// ShiftFor returns the shift a roster user works, falling back like Resolve.
func (r *Resolver) ShiftFor(ctx context.Context, userID string) (shift.Shift, error) {
	emp, err := r.roster.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return r.fallback(ctx)
	case err != nil:
		return shift.Shift{}, fmt.Errorf("failed to look up roster entry: %w", err)
	}
	if emp.ShiftID == nil {
		return r.fallback(ctx)
	}

	s, err := r.catalog.GetByID(ctx, *emp.ShiftID)
	if errors.Is(err, shift.ErrShiftNotFound) {
		slog.Warn("assigned shift missing from catalog, using default",
			"user_id", userID, "shift_id", *emp.ShiftID)
		return r.fallback(ctx)
	}
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return s, nil
}

// fallback returns the default shift, or the lowest-id shift if the default row is gone.
func (r *Resolver) fallback(ctx context.Context) (shift.Shift, error) {
	s, err := r.catalog.GetByID(ctx, shift.DefaultShiftID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, shift.ErrShiftNotFound) {
		return shift.Shift{}, fmt.Errorf("failed to get default shift: %w", err)
	}

	shifts, err := r.catalog.List(ctx)
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to list shifts: %w", err)
	}
	if len(shifts) == 0 {
		return shift.Shift{}, attendance.ErrConfiguration
	}
	lowest := shifts[0]
	for _, s := range shifts[1:] {
		if s.ID < lowest.ID {
			lowest = s
		}
	}
	slog.Warn("default shift missing from catalog", "using_shift_id", lowest.ID)
	return lowest, nil
}

// WorkDate returns the calendar date on which the shift instance containing punchTime starts.
// For overnight shifts a punch earlier than the day boundary closes the previous day's instance.
func WorkDate(s shift.Shift, punchTime time.Time) time.Time {
	day := attendance.DateOf(punchTime)
	if s.IsOvernight() && shift.ClockOf(punchTime) < s.DayBoundary() {
		return day.AddDate(0, 0, -1)
	}
	return day
}
