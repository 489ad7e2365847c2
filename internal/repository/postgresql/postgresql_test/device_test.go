package postgresql_test

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/device"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-sync-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceRepository_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewDeviceRepository(db)

	d := device.Device{ID: "kiosk-1", Name: "Lobby", SecretHash: "hash", Active: true}
	require.NoError(t, repo.Create(ctx, d))
	assert.ErrorIs(t, repo.Create(ctx, d), device.ErrDeviceExists)

	got, err := repo.GetByID(ctx, "kiosk-1")
	require.NoError(t, err)
	assert.Nil(t, got.LastSeenAt)

	require.NoError(t, repo.TouchLastSeen(ctx, "kiosk-1"))
	got, err = repo.GetByID(ctx, "kiosk-1")
	require.NoError(t, err)
	assert.NotNil(t, got.LastSeenAt)

	assert.ErrorIs(t, repo.TouchLastSeen(ctx, "missing"), device.ErrDeviceNotFound)
	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, device.ErrDeviceNotFound)
}

func TestEmployeeRepository_UpsertMany(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(db)

	shiftID := shift.DefaultShiftID
	require.NoError(t, repo.UpsertMany(ctx, []employee.Employee{
		{UserID: "emp-1", Name: "Ana", ShiftID: &shiftID, Active: true},
		{UserID: "emp-2", Name: "Budi", Active: false},
	}))

	e, err := repo.GetByUserID(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, e.ShiftID)
	assert.Equal(t, shift.DefaultShiftID, *e.ShiftID)

	_, err = repo.GetByUserID(ctx, "emp-2")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	missing := int64(404)
	err = repo.UpsertMany(ctx, []employee.Employee{{UserID: "emp-3", Name: "Citra", ShiftID: &missing, Active: true}})
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)
}
