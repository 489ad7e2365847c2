package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.user_id, a.name, a.device_id, a.punch_time, a.punch_date, a.punch_type::text,
	a.shift_id, a.attendance_status, a.late_minutes, a.early_departure_minutes,
	a.overtime_minutes, a.confidence, a.anomaly, a.created_at`

// Insert implements attendance.AttendanceRepository.
func (a *attendanceRepository) Insert(ctx context.Context, record attendance.AttendanceRecord) (bool, error) {
	inserted := false
	err := WithTransaction(ctx, a.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, a.db)

		query := `
			INSERT INTO attendance_log (
				user_id, name, device_id, punch_time, punch_date, punch_clock, punch_type,
				shift_id, attendance_status, late_minutes, early_departure_minutes,
				overtime_minutes, confidence, anomaly, synced
			) VALUES (
				$1, $2, $3, $4::timestamp, $5::date, $6::time, $7::punch_type,
				$8, $9, $10, $11, $12, $13, $14, TRUE
			)
			ON CONFLICT (device_id, user_id, punch_time) DO NOTHING
			RETURNING id
		`
		var id int64
		err := q.QueryRow(txCtx, query,
			record.UserID,
			record.Name,
			record.DeviceID,
			record.PunchTime.Format(attendance.TimestampLayout),
			record.PunchDate.Format(attendance.DateLayout),
			record.PunchTime.Format(attendance.ClockLayout),
			string(record.PunchType),
			record.ShiftID,
			string(record.Status),
			record.LateMinutes,
			record.EarlyDepartureMinutes,
			record.OvertimeMinutes,
			record.Confidence,
			record.Anomaly,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: shift %d does not exist", attendance.ErrPermanentSyncRejection, record.ShiftID)
			}
			return fmt.Errorf("failed to insert attendance record: %w", err)
		}
		inserted = true

		if record.Anomaly == "" {
			return nil
		}
		_, err = q.Exec(txCtx, `
			INSERT INTO attendance_anomalies (attendance_log_id, device_id, user_id, punch_time, punch_date, reason)
			VALUES ($1, $2, $3, $4::timestamp, $5::date, $6)
		`,
			id,
			record.DeviceID,
			record.UserID,
			record.PunchTime.Format(attendance.TimestampLayout),
			record.PunchDate.Format(attendance.DateLayout),
			record.Anomaly,
		)
		if err != nil {
			return fmt.Errorf("failed to queue attendance anomaly: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceRecord, int64, error) {
	q := GetQuerier(ctx, a.db)

	baseWhere := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.UserID != nil && *filter.UserID != "" {
		baseWhere += fmt.Sprintf(" AND a.user_id = $%d", argIdx)
		args = append(args, *filter.UserID)
		argIdx++
	}
	if filter.DeviceID != nil && *filter.DeviceID != "" {
		baseWhere += fmt.Sprintf(" AND a.device_id = $%d", argIdx)
		args = append(args, *filter.DeviceID)
		argIdx++
	}
	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND a.punch_date = $%d::date", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.punch_date >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.punch_date <= $%d::date", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.attendance_status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_log a WHERE `+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	orderByField := "a.punch_time"
	switch filter.SortBy {
	case "punch_date":
		orderByField = "a.punch_date"
	case "user_id":
		orderByField = "a.user_id"
	case "status":
		orderByField = "a.attendance_status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendance_log a
		WHERE %s
		ORDER BY %s %s, a.id %s
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, orderByField, sortOrder, sortOrder, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListByPunchDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByPunchDate(ctx context.Context, punchDate time.Time) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendance_log a
		WHERE a.punch_date = $1::date
		ORDER BY a.user_id, a.punch_time, a.id
	`, attendanceColumns)

	rows, err := q.Query(ctx, query, punchDate.Format(attendance.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance for %s: %w", punchDate.Format(attendance.DateLayout), err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListAnomalies implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListAnomalies(ctx context.Context, filter attendance.AnomalyFilter) ([]attendance.Anomaly, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, device_id, user_id, punch_time, punch_date, reason, created_at
		FROM attendance_anomalies
	`
	args := []interface{}{}
	if filter.Date != nil && *filter.Date != "" {
		query += ` WHERE punch_date = $1::date`
		args = append(args, *filter.Date)
	}
	query += fmt.Sprintf(` ORDER BY punch_time DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}
	defer rows.Close()

	var anomalies []attendance.Anomaly
	for rows.Next() {
		var an attendance.Anomaly
		if err := rows.Scan(&an.ID, &an.DeviceID, &an.UserID, &an.PunchTime, &an.PunchDate, &an.Reason, &an.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		an.PunchTime = attendance.WallClock(an.PunchTime)
		an.PunchDate = attendance.DateOf(an.PunchDate)
		anomalies = append(anomalies, an)
	}
	return anomalies, rows.Err()
}

func collectRecords(rows pgx.Rows) ([]attendance.AttendanceRecord, error) {
	var records []attendance.AttendanceRecord
	for rows.Next() {
		var (
			r         attendance.AttendanceRecord
			punchType string
			status    string
		)
		err := rows.Scan(
			&r.ID, &r.UserID, &r.Name, &r.DeviceID, &r.PunchTime, &r.PunchDate, &punchType,
			&r.ShiftID, &status, &r.LateMinutes, &r.EarlyDepartureMinutes,
			&r.OvertimeMinutes, &r.Confidence, &r.Anomaly, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		r.PunchTime = attendance.WallClock(r.PunchTime)
		r.PunchDate = attendance.DateOf(r.PunchDate)
		r.PunchType = attendance.PunchType(punchType)
		r.Status = attendance.Status(status)
		r.SyncStatus = attendance.SyncSynced
		records = append(records, r)
	}
	return records, rows.Err()
}
