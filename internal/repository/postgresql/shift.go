package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type shiftRepository struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepository{db: db}
}

const shiftSelect = `
	SELECT id, shift_name, start_time::text, end_time::text, late_grace_mins,
		   half_day_min_hours::text, overtime_start_mins, created_at
	FROM shifts`

// GetByID implements shift.ShiftRepository.
func (r *shiftRepository) GetByID(ctx context.Context, id int64) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanShift(q.QueryRow(ctx, shiftSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return s, nil
}

// List implements shift.ShiftRepository.
func (r *shiftRepository) List(ctx context.Context) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, shiftSelect+` ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// Create implements shift.ShiftRepository.
func (r *shiftRepository) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shifts (shift_name, start_time, end_time, late_grace_mins, half_day_min_hours, overtime_start_mins)
		VALUES ($1, $2::time, $3::time, $4, $5::numeric, $6)
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query,
		s.Name,
		s.StartTime.String(),
		s.EndTime.String(),
		s.LateGraceMinutes,
		s.HalfDayMinHours.String(),
		s.OvertimeStartMinutes,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return shift.Shift{}, shift.ErrShiftNameExists
		}
		return shift.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return s, nil
}

// Update implements shift.ShiftRepository.
func (r *shiftRepository) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts
		SET shift_name = $2, start_time = $3::time, end_time = $4::time, late_grace_mins = $5,
			half_day_min_hours = $6::numeric, overtime_start_mins = $7
		WHERE id = $1
		RETURNING created_at
	`
	err := q.QueryRow(ctx, query,
		s.ID,
		s.Name,
		s.StartTime.String(),
		s.EndTime.String(),
		s.LateGraceMinutes,
		s.HalfDayMinHours.String(),
		s.OvertimeStartMinutes,
	).Scan(&s.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return shift.Shift{}, shift.ErrShiftNotFound
		case isUniqueViolation(err):
			return shift.Shift{}, shift.ErrShiftNameExists
		}
		return shift.Shift{}, fmt.Errorf("failed to update shift: %w", err)
	}
	return s, nil
}

// Delete implements shift.ShiftRepository.
func (r *shiftRepository) Delete(ctx context.Context, id int64) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return shift.ErrShiftInUse
		}
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}

// Upsert implements shift.ShiftRepository.
func (r *shiftRepository) Upsert(ctx context.Context, s shift.Shift) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shifts (id, shift_name, start_time, end_time, late_grace_mins, half_day_min_hours, overtime_start_mins)
		VALUES ($1, $2, $3::time, $4::time, $5, $6::numeric, $7)
		ON CONFLICT (id) DO UPDATE SET
			shift_name = EXCLUDED.shift_name,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			late_grace_mins = EXCLUDED.late_grace_mins,
			half_day_min_hours = EXCLUDED.half_day_min_hours,
			overtime_start_mins = EXCLUDED.overtime_start_mins
	`
	_, err := q.Exec(ctx, query,
		s.ID,
		s.Name,
		s.StartTime.String(),
		s.EndTime.String(),
		s.LateGraceMinutes,
		s.HalfDayMinHours.String(),
		s.OvertimeStartMinutes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shift.ErrShiftNameExists
		}
		return fmt.Errorf("failed to upsert shift: %w", err)
	}

	// Keep BIGSERIAL ahead of explicitly written ids.
	_, err = q.Exec(ctx, `SELECT setval(pg_get_serial_sequence('shifts', 'id'), GREATEST((SELECT MAX(id) FROM shifts), 1))`)
	if err != nil {
		return fmt.Errorf("failed to advance shift sequence: %w", err)
	}
	return nil
}

// IsReferenced implements shift.ShiftRepository.
func (r *shiftRepository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendance_log WHERE shift_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check shift references: %w", err)
	}
	return exists, nil
}

func scanShift(row pgx.Row) (shift.Shift, error) {
	var (
		s                 shift.Shift
		start, end, hours string
	)
	if err := row.Scan(&s.ID, &s.Name, &start, &end, &s.LateGraceMinutes, &hours, &s.OvertimeStartMinutes, &s.CreatedAt); err != nil {
		return shift.Shift{}, err
	}

	var err error
	if s.StartTime, err = shift.ParseClock(start); err != nil {
		return shift.Shift{}, err
	}
	if s.EndTime, err = shift.ParseClock(end); err != nil {
		return shift.Shift{}, err
	}
	if s.HalfDayMinHours, err = decimal.NewFromString(hours); err != nil {
		return shift.Shift{}, fmt.Errorf("parse half_day_min_hours %q: %w", hours, err)
	}
	return s, nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool     { return pgErrorCode(err) == "23505" }
func isForeignKeyViolation(err error) bool { return pgErrorCode(err) == "23503" }
