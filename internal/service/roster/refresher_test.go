package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	shifts       []shift.Shift
	employees    []employee.Employee
	employeesErr error
}

func (f *fakeSource) FetchShifts(context.Context) ([]shift.Shift, error) { return f.shifts, nil }

func (f *fakeSource) FetchEmployees(context.Context) ([]employee.Employee, error) {
	return f.employees, f.employeesErr
}

type shiftSink struct{ got []shift.Shift }

func (s *shiftSink) ReplaceAll(_ context.Context, shifts []shift.Shift) error {
	s.got = shifts
	return nil
}

type employeeSink struct{ got []employee.Employee }

func (s *employeeSink) ReplaceAll(_ context.Context, employees []employee.Employee) error {
	s.got = employees
	return nil
}

func TestRefresh_ReplacesBothCaches(t *testing.T) {
	src := &fakeSource{
		shifts:    []shift.Shift{shift.DefaultShift()},
		employees: []employee.Employee{{UserID: "emp-1", Name: "Ana", Active: true}},
	}
	shifts, employees := &shiftSink{}, &employeeSink{}

	res, err := NewRefresher(src, shifts, employees).Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Shifts: 1, Employees: 1}, res)
	assert.Len(t, shifts.got, 1)
	assert.Len(t, employees.got, 1)
}

func TestRefresh_EmptyCatalogKeepsCache(t *testing.T) {
	shifts, employees := &shiftSink{}, &employeeSink{}

	_, err := NewRefresher(&fakeSource{}, shifts, employees).Refresh(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCatalog)
	assert.Nil(t, shifts.got)
	assert.Nil(t, employees.got)
}

func TestRefresh_FetchErrorWritesNothing(t *testing.T) {
	boom := errors.New("network down")
	src := &fakeSource{shifts: []shift.Shift{shift.DefaultShift()}, employeesErr: boom}
	shifts, employees := &shiftSink{}, &employeeSink{}

	_, err := NewRefresher(src, shifts, employees).Refresh(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, shifts.got)
}
