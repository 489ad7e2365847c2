package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
)

var ErrEmptyCatalog = errors.New("central returned an empty shift catalog")

// Source is where the device pulls its roster from.
type Source interface {
	FetchShifts(ctx context.Context) ([]shift.Shift, error)
	FetchEmployees(ctx context.Context) ([]employee.Employee, error)
}

type ShiftStore interface {
	ReplaceAll(ctx context.Context, shifts []shift.Shift) error
}

type EmployeeStore interface {
	ReplaceAll(ctx context.Context, employees []employee.Employee) error
}

type Result struct {
	Shifts    int
	Employees int
}

// Refresher copies the central shift catalog and roster into the device cache.
type Refresher struct {
	source    Source
	shifts    ShiftStore
	employees EmployeeStore
}

func NewRefresher(source Source, shifts ShiftStore, employees EmployeeStore) *Refresher {
	return &Refresher{source: source, shifts: shifts, employees: employees}
}

// Refresh fetches both lists before writing either, so a partial download never
// replaces the cache. An empty catalog is refused; the cached one stays in use.
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	shifts, err := r.source.FetchShifts(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(shifts) == 0 {
		return Result{}, ErrEmptyCatalog
	}

	employees, err := r.source.FetchEmployees(ctx)
	if err != nil {
		return Result{}, err
	}

	if err := r.shifts.ReplaceAll(ctx, shifts); err != nil {
		return Result{}, fmt.Errorf("replace shift cache: %w", err)
	}
	if err := r.employees.ReplaceAll(ctx, employees); err != nil {
		return Result{}, fmt.Errorf("replace roster cache: %w", err)
	}

	slog.Info("roster refreshed", "shifts", len(shifts), "employees", len(employees))
	return Result{Shifts: len(shifts), Employees: len(employees)}, nil
}
