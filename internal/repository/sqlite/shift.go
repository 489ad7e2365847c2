package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

// ShiftCache is the device's copy of the central shift catalog.
type ShiftCache struct {
	db *database.SQLiteDB
}

func NewShiftCache(db *database.SQLiteDB) *ShiftCache {
	return &ShiftCache{db: db}
}

var _ shift.Catalog = (*ShiftCache)(nil)

const shiftColumns = `id, shift_name, start_time, end_time, late_grace_mins, half_day_min_hours, overtime_start_mins`

// GetByID implements shift.Catalog.
func (c *ShiftCache) GetByID(ctx context.Context, id int64) (shift.Shift, error) {
	s, err := scanShift(c.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return s, err
}

// List implements shift.Catalog.
func (c *ShiftCache) List(ctx context.Context) ([]shift.Shift, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+shiftColumns+` FROM shifts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// Upsert writes one shift under its own id.
func (c *ShiftCache) Upsert(ctx context.Context, s shift.Shift) error {
	return upsertShift(ctx, c.db.DB, s)
}

// ReplaceAll makes the cache an exact copy of shifts in one transaction.
func (c *ShiftCache) ReplaceAll(ctx context.Context, shifts []shift.Shift) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shifts`); err != nil {
		return fmt.Errorf("clear shift cache: %w", err)
	}
	for _, s := range shifts {
		if err := upsertShift(ctx, tx, s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertShift(ctx context.Context, db execer, s shift.Shift) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO shifts (`+shiftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			shift_name = excluded.shift_name,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			late_grace_mins = excluded.late_grace_mins,
			half_day_min_hours = excluded.half_day_min_hours,
			overtime_start_mins = excluded.overtime_start_mins
	`,
		s.ID,
		s.Name,
		s.StartTime.String(),
		s.EndTime.String(),
		s.LateGraceMinutes,
		s.HalfDayMinHours.String(),
		s.OvertimeStartMinutes,
	)
	if err != nil {
		return fmt.Errorf("upsert shift %d: %w", s.ID, err)
	}
	return nil
}

func scanShift(row rowScanner) (shift.Shift, error) {
	var (
		s                 shift.Shift
		start, end, hours string
	)
	if err := row.Scan(&s.ID, &s.Name, &start, &end, &s.LateGraceMinutes, &hours, &s.OvertimeStartMinutes); err != nil {
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
