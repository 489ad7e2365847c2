package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/device"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/broker"
	"golang.org/x/sync/errgroup"
)

// RosterShifts looks up the shift a roster user works.
type RosterShifts interface {
	ShiftFor(ctx context.Context, userID string) (shift.Shift, error)
}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	shift.Catalog
	employee.EmployeeRepository
	devices    device.DeviceRepository
	roster     RosterShifts
	publisher  broker.Publisher
	calculator *StatusCalculator
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	catalog shift.Catalog,
	employeeRepo employee.EmployeeRepository,
	deviceRepo device.DeviceRepository,
	roster RosterShifts,
	publisher broker.Publisher,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		Catalog:              catalog,
		EmployeeRepository:   employeeRepo,
		devices:              deviceRepo,
		roster:               roster,
		publisher:            publisher,
		calculator:           NewStatusCalculator(),
	}
}

// SyncBatch implements attendance.AttendanceService.
// A repository failure aborts the batch; records stored before it are reported as
// duplicates when the device retries.
func (a *AttendanceServiceImpl) SyncBatch(ctx context.Context, deviceID string, req attendance.SyncBatchRequest) (attendance.SyncBatchResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SyncBatchResponse{}, err
	}
	if req.DeviceID != deviceID {
		return attendance.SyncBatchResponse{}, attendance.ErrDeviceMismatch
	}

	results := make([]attendance.SyncResult, 0, len(req.Records))
	for _, payload := range req.Records {
		result, err := a.syncOne(ctx, deviceID, payload)
		if err != nil {
			return attendance.SyncBatchResponse{}, fmt.Errorf("%w: %v", attendance.ErrTransientSync, err)
		}
		results = append(results, result)
	}

	if err := a.devices.TouchLastSeen(ctx, deviceID); err != nil {
		slog.Warn("failed to record device contact", "device_id", deviceID, "error", err)
	}

	resp := attendance.NewSyncBatchResponse(results)
	slog.Info("sync batch stored",
		"device_id", deviceID,
		"accepted", resp.Accepted,
		"duplicates", resp.Duplicates,
		"rejected", resp.Rejected,
	)
	return resp, nil
}

func (a *AttendanceServiceImpl) syncOne(ctx context.Context, deviceID string, payload attendance.RecordPayload) (attendance.SyncResult, error) {
	result := attendance.SyncResult{
		DeviceID:  payload.DeviceID,
		UserID:    payload.UserID,
		PunchTime: payload.PunchTime,
	}
	reject := func(reason string) (attendance.SyncResult, error) {
		result.Result = attendance.OutcomeRejected
		result.Reason = reason
		slog.Warn("sync record rejected", "device_id", deviceID, "record", payload.Key().String(), "reason", reason)
		return result, nil
	}

	if payload.DeviceID != deviceID {
		return reject(attendance.RejectDeviceID)
	}
	record, err := payload.ToRecord()
	if err != nil {
		return reject(attendance.RejectInvalidRecord + ": " + err.Error())
	}

	if _, err := a.Catalog.GetByID(ctx, record.ShiftID); err != nil {
		if errors.Is(err, shift.ErrShiftNotFound) {
			return reject(attendance.RejectShiftNotFound)
		}
		return result, err
	}

	inserted, err := a.AttendanceRepository.Insert(ctx, record)
	switch {
	case errors.Is(err, attendance.ErrPermanentSyncRejection):
		return reject(err.Error())
	case err != nil:
		return result, err
	case !inserted:
		result.Result = attendance.OutcomeDuplicate
		return result, nil
	}

	result.Result = attendance.OutcomeAccepted
	if err := a.publisher.Publish(ctx, broker.RoutingAttendanceRecorded, payload); err != nil {
		slog.Error("failed to publish attendance event", "record", payload.Key().String(), "error", err)
	}
	return result, nil
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := a.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, attendance.NewAttendanceResponse(r))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

type dayPunches struct {
	userID  string
	name    string
	shiftID *int64
	punches []attendance.Punch
}

// DailyReport implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DailyReport(ctx context.Context, punchDate time.Time) (attendance.DailyReportResponse, error) {
	punchDate = attendance.DateOf(punchDate)

	employees, err := a.EmployeeRepository.List(ctx, true)
	if err != nil {
		return attendance.DailyReportResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}
	records, err := a.AttendanceRepository.ListByPunchDate(ctx, punchDate)
	if err != nil {
		return attendance.DailyReportResponse{}, fmt.Errorf("failed to list attendance for %s: %w", punchDate.Format(attendance.DateLayout), err)
	}

	days := make(map[string]*dayPunches, len(employees))
	for _, e := range employees {
		days[e.UserID] = &dayPunches{userID: e.UserID, name: e.Name}
	}
	for _, r := range records {
		d, ok := days[r.UserID]
		if !ok {
			d = &dayPunches{userID: r.UserID, name: r.Name}
			days[r.UserID] = d
		}
		if d.shiftID == nil {
			id := r.ShiftID
			d.shiftID = &id
		}
		d.punches = append(d.punches, attendance.Punch{Time: r.PunchTime, Type: r.PunchType})
	}

	users := make([]*dayPunches, 0, len(days))
	for _, d := range days {
		users = append(users, d)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].userID < users[j].userID })

	summaries := make([]attendance.DailySummary, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, d := range users {
		g.Go(func() error {
			s, err := a.shiftForDay(gctx, d)
			if err != nil {
				return err
			}
			derived := a.calculator.Derive(s, punchDate, d.punches)
			summaries[i] = attendance.NewDailySummary(d.userID, d.name, punchDate, s.ID, derived, len(d.punches))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return attendance.DailyReportResponse{}, err
	}

	return attendance.NewDailyReportResponse(punchDate, summaries), nil
}

// shiftForDay prefers the shift the device resolved when the punches were taken.
func (a *AttendanceServiceImpl) shiftForDay(ctx context.Context, d *dayPunches) (shift.Shift, error) {
	if d.shiftID != nil {
		s, err := a.Catalog.GetByID(ctx, *d.shiftID)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, shift.ErrShiftNotFound) {
			return shift.Shift{}, fmt.Errorf("failed to get shift: %w", err)
		}
	}
	return a.roster.ShiftFor(ctx, d.userID)
}

// ReconcileDay recomputes the day and publishes one attendance.daily event per user.
func (a *AttendanceServiceImpl) ReconcileDay(ctx context.Context, punchDate time.Time) (attendance.DailyReportResponse, error) {
	report, err := a.DailyReport(ctx, punchDate)
	if err != nil {
		return attendance.DailyReportResponse{}, err
	}
	for _, summary := range report.Users {
		if err := a.publisher.Publish(ctx, broker.RoutingAttendanceDaily, summary); err != nil {
			slog.Error("failed to publish daily summary", "user_id", summary.UserID, "error", err)
		}
	}
	return report, nil
}

// ListAnomalies implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAnomalies(ctx context.Context, filter attendance.AnomalyFilter) ([]attendance.AnomalyResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	anomalies, err := a.AttendanceRepository.ListAnomalies(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}
	responses := make([]attendance.AnomalyResponse, 0, len(anomalies))
	for _, an := range anomalies {
		responses = append(responses, attendance.NewAnomalyResponse(an))
	}
	return responses, nil
}
