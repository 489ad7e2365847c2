package sqlite

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftCache_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	cache := NewShiftCache(openTestDB(t))

	night := shift.Shift{
		ID:                   2,
		Name:                 "Night",
		StartTime:            shift.NewClockTime(22, 0, 0),
		EndTime:              shift.NewClockTime(6, 0, 0),
		LateGraceMinutes:     10,
		HalfDayMinHours:      decimal.RequireFromString("4.5"),
		OvertimeStartMinutes: 30,
	}
	require.NoError(t, cache.ReplaceAll(ctx, []shift.Shift{night}))

	shifts, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.True(t, shifts[0].IsOvernight())
	assert.True(t, night.HalfDayMinHours.Equal(shifts[0].HalfDayMinHours))

	_, err = cache.GetByID(ctx, shift.DefaultShiftID)
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)

	require.NoError(t, cache.Upsert(ctx, shift.DefaultShift()))
	got, err := cache.GetByID(ctx, shift.DefaultShiftID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.LateGraceMinutes)
}

func TestEmployeeCache(t *testing.T) {
	ctx := context.Background()
	cache := NewEmployeeCache(openTestDB(t))

	night := int64(2)
	require.NoError(t, cache.UpsertMany(ctx, []employee.Employee{
		{UserID: "emp-1", Name: "Ayu", ShiftID: &night, Active: true},
		{UserID: "emp-2", Name: "Budi", Active: false},
	}))

	e, err := cache.GetByUserID(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, e.ShiftID)
	assert.Equal(t, int64(2), *e.ShiftID)

	_, err = cache.GetByUserID(ctx, "emp-2")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	all, err := cache.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, cache.ReplaceAll(ctx, []employee.Employee{{UserID: "emp-3", Name: "Citra", Active: true}}))
	active, err := cache.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "emp-3", active[0].UserID)
	assert.Nil(t, active[0].ShiftID)
}
