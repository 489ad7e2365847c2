package attendance

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type centralFixture struct {
	repo      *memoryCentral
	devices   *memoryDevices
	publisher *recordingPublisher
	svc       attendance.AttendanceService
}

func newCentralFixture(employees ...employee.Employee) centralFixture {
	f := centralFixture{
		repo:      newMemoryCentral(),
		devices:   &memoryDevices{},
		publisher: &recordingPublisher{},
	}
	catalog := memoryCatalog{shift.DefaultShiftID: shift.DefaultShift(), 2: nightShift()}
	f.svc = NewAttendanceService(f.repo, catalog, memoryEmployees(employees), f.devices,
		fixedResolver{shift: shift.DefaultShift()}, f.publisher)
	return f
}

func payload(userID, punchTime, punchDate, punchType string, shiftID int64) attendance.RecordPayload {
	return attendance.RecordPayload{
		UserID:           userID,
		Name:             "User " + userID,
		DeviceID:         "kiosk-1",
		PunchTime:        punchTime,
		PunchDate:        punchDate,
		PunchClock:       punchTime[11:],
		PunchType:        punchType,
		ShiftID:          shiftID,
		AttendanceStatus: string(attendance.StatusPresent),
		Confidence:       0.9,
	}
}

func TestAttendanceService_SyncBatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newCentralFixture()

	req := attendance.SyncBatchRequest{
		DeviceID: "kiosk-1",
		Records: []attendance.RecordPayload{
			payload("emp-1", "2024-03-01 09:00:00", "2024-03-01", "IN", 1),
			payload("emp-2", "2024-03-01 09:05:00", "2024-03-01", "IN", 1),
		},
	}

	resp, err := f.svc.SyncBatch(ctx, "kiosk-1", req)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 0, resp.Duplicates)

	resp, err = f.svc.SyncBatch(ctx, "kiosk-1", req)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Accepted)
	assert.Equal(t, 2, resp.Duplicates)
	for _, r := range resp.Results {
		assert.True(t, r.Acknowledged())
	}

	assert.Len(t, f.repo.records, 2)
	assert.Equal(t, 2, f.publisher.messages[broker.RoutingAttendanceRecorded])
	assert.Equal(t, []string{"kiosk-1", "kiosk-1"}, f.devices.touched)
}

func TestAttendanceService_SyncBatchRejectsPerRecord(t *testing.T) {
	f := newCentralFixture()

	bad := payload("emp-3", "2024-03-01 09:00:00", "2024-03-01", "IN", 1)
	bad.LateMinutes = -1
	otherDevice := payload("emp-4", "2024-03-01 09:00:00", "2024-03-01", "IN", 1)
	otherDevice.DeviceID = "kiosk-2"

	resp, err := f.svc.SyncBatch(context.Background(), "kiosk-1", attendance.SyncBatchRequest{
		DeviceID: "kiosk-1",
		Records: []attendance.RecordPayload{
			payload("emp-1", "2024-03-01 09:00:00", "2024-03-01", "IN", 1),
			payload("emp-2", "2024-03-01 09:00:00", "2024-03-01", "IN", 42),
			bad,
			otherDevice,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, 3, resp.Rejected)
	assert.Equal(t, attendance.RejectShiftNotFound, resp.Results[1].Reason)
	assert.Contains(t, resp.Results[2].Reason, attendance.RejectInvalidRecord)
	assert.Equal(t, attendance.RejectDeviceID, resp.Results[3].Reason)
	assert.Len(t, f.repo.records, 1)
}

func TestAttendanceService_SyncBatchStoreFailureIsTransient(t *testing.T) {
	f := newCentralFixture()
	f.repo.failOn = "emp-2"

	_, err := f.svc.SyncBatch(context.Background(), "kiosk-1", attendance.SyncBatchRequest{
		DeviceID: "kiosk-1",
		Records: []attendance.RecordPayload{
			payload("emp-1", "2024-03-01 09:00:00", "2024-03-01", "IN", 1),
			payload("emp-2", "2024-03-01 09:00:00", "2024-03-01", "IN", 1),
		},
	})
	assert.ErrorIs(t, err, attendance.ErrTransientSync)
}

func TestAttendanceService_SyncBatchDeviceMismatch(t *testing.T) {
	f := newCentralFixture()

	_, err := f.svc.SyncBatch(context.Background(), "kiosk-9", attendance.SyncBatchRequest{
		DeviceID: "kiosk-1",
		Records:  []attendance.RecordPayload{payload("emp-1", "2024-03-01 09:00:00", "2024-03-01", "IN", 1)},
	})
	assert.ErrorIs(t, err, attendance.ErrDeviceMismatch)
}

func TestAttendanceService_DailyReportAcrossDevices(t *testing.T) {
	ctx := context.Background()
	f := newCentralFixture(
		employee.Employee{UserID: "emp-1", Name: "Ayu", Active: true},
		employee.Employee{UserID: "emp-2", Name: "Budi", Active: true},
	)

	in := payload("emp-1", "2024-03-01 09:20:00", "2024-03-01", "IN", 1)
	out := payload("emp-1", "2024-03-01 18:45:00", "2024-03-01", "OUT", 1)
	out.DeviceID = "kiosk-2"

	_, err := f.svc.SyncBatch(ctx, "kiosk-1", attendance.SyncBatchRequest{DeviceID: "kiosk-1", Records: []attendance.RecordPayload{in}})
	require.NoError(t, err)
	_, err = f.svc.SyncBatch(ctx, "kiosk-2", attendance.SyncBatchRequest{DeviceID: "kiosk-2", Records: []attendance.RecordPayload{out}})
	require.NoError(t, err)

	report, err := f.svc.ReconcileDay(ctx, day(t, "2024-03-01"))
	require.NoError(t, err)
	require.Len(t, report.Users, 2)

	ayu := report.Users[0]
	assert.Equal(t, "emp-1", ayu.UserID)
	assert.Equal(t, string(attendance.StatusLate), ayu.AttendanceStatus)
	assert.Equal(t, 5, ayu.LateMinutes)
	assert.Equal(t, 15, ayu.OvertimeMinutes)
	assert.Equal(t, 2, ayu.PunchCount)

	budi := report.Users[1]
	assert.Equal(t, string(attendance.StatusAbsent), budi.AttendanceStatus)
	assert.Equal(t, shift.DefaultShiftID, budi.ShiftID)

	assert.Equal(t, 1, report.Late)
	assert.Equal(t, 1, report.Absent)
	assert.Equal(t, 2, f.publisher.messages[broker.RoutingAttendanceDaily])
}

func TestAttendanceService_AnomaliesAreQueued(t *testing.T) {
	f := newCentralFixture()

	p := payload("emp-1", "2024-03-01 08:00:00", "2024-03-01", "OUT", 1)
	p.AttendanceStatus = string(attendance.StatusAbsent)
	p.Anomaly = attendance.AnomalyOutWithoutIn

	_, err := f.svc.SyncBatch(context.Background(), "kiosk-1", attendance.SyncBatchRequest{DeviceID: "kiosk-1", Records: []attendance.RecordPayload{p}})
	require.NoError(t, err)

	anomalies, err := f.svc.ListAnomalies(context.Background(), attendance.AnomalyFilter{})
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, attendance.AnomalyOutWithoutIn, anomalies[0].Reason)
}

func TestAttendanceService_ListAttendancePaging(t *testing.T) {
	ctx := context.Background()
	f := newCentralFixture()

	_, err := f.svc.SyncBatch(ctx, "kiosk-1", attendance.SyncBatchRequest{
		DeviceID: "kiosk-1",
		Records: []attendance.RecordPayload{
			payload("emp-1", "2024-03-01 09:00:00", "2024-03-01", "IN", 1),
			payload("emp-1", "2024-03-01 18:00:00", "2024-03-01", "OUT", 1),
		},
	})
	require.NoError(t, err)

	resp, err := f.svc.ListAttendance(ctx, attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.TotalCount)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Equal(t, "1-2 of 2", resp.Showing)
	assert.Equal(t, "synced", resp.Attendances[0].SyncStatus)
}
