package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
	"github.com/mattn/go-sqlite3"
)

const sqliteTimestamp = "2006-01-02 15:04:05"

const recordColumns = `id, user_id, name, device_id, punch_time, punch_date, punch_type, shift_id,
	attendance_status, late_minutes, early_departure_minutes, overtime_minutes, confidence,
	anomaly, sync_status, sync_error, created_at`

// BufferRepository is the local durable buffer. Writes are serialised; a record
// is committed to disk before Append returns.
type BufferRepository struct {
	db         *database.SQLiteDB
	maxRecords int
	mu         sync.Mutex
}

// NewBufferRepository bounds the buffer to maxRecords unsynced rows; 0 means unbounded.
func NewBufferRepository(db *database.SQLiteDB, maxRecords int) *BufferRepository {
	return &BufferRepository{db: db, maxRecords: maxRecords}
}

var (
	_ attendance.Appender        = (*BufferRepository)(nil)
	_ attendance.SyncLedger      = (*BufferRepository)(nil)
	_ attendance.BufferInspector = (*BufferRepository)(nil)
)

// Append implements attendance.Appender.
func (b *BufferRepository) Append(ctx context.Context, r attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	key := r.Key()
	existing, err := scanRecord(tx.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_log
		WHERE device_id = ? AND user_id = ? AND punch_time = ?
	`, key.DeviceID, key.UserID, key.PunchTime))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return attendance.AttendanceRecord{}, fmt.Errorf("look up buffered record: %w", err)
	}

	if b.maxRecords > 0 {
		var occupied int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM attendance_log WHERE sync_status <> 'synced'`,
		).Scan(&occupied); err != nil {
			return attendance.AttendanceRecord{}, fmt.Errorf("count buffered records: %w", err)
		}
		if occupied >= b.maxRecords {
			return attendance.AttendanceRecord{}, attendance.ErrBufferFull
		}
	}

	if r.SyncStatus == "" {
		r.SyncStatus = attendance.SyncPending
	}
	r.CreatedAt = time.Now().UTC().Truncate(time.Second)

	res, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_log
		(user_id, name, device_id, punch_time, punch_date, punch_clock, punch_type, shift_id,
		 attendance_status, late_minutes, early_departure_minutes, overtime_minutes, confidence,
		 anomaly, synced, sync_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (device_id, user_id, punch_time) DO NOTHING
	`,
		r.UserID,
		r.Name,
		r.DeviceID,
		key.PunchTime,
		r.PunchDate.Format(attendance.DateLayout),
		r.PunchClock(),
		string(r.PunchType),
		r.ShiftID,
		string(r.Status),
		r.LateMinutes,
		r.EarlyDepartureMinutes,
		r.OvertimeMinutes,
		r.Confidence,
		r.Anomaly,
		r.Synced(),
		string(r.SyncStatus),
		r.CreatedAt.Format(sqliteTimestamp),
	)
	if err != nil {
		return attendance.AttendanceRecord{}, classifyWriteError(err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("read inserted id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return attendance.AttendanceRecord{}, classifyWriteError(err)
	}
	return r, nil
}

// classifyWriteError maps a full database file onto ErrBufferFull.
func classifyWriteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrFull {
		return fmt.Errorf("%w: %v", attendance.ErrBufferFull, err)
	}
	return fmt.Errorf("append attendance record: %w", err)
}

// DayPunches implements attendance.Appender.
func (b *BufferRepository) DayPunches(ctx context.Context, userID string, punchDate time.Time) ([]attendance.Punch, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT punch_time, punch_type
		FROM attendance_log
		WHERE user_id = ? AND punch_date = ?
		ORDER BY punch_time ASC
	`, userID, punchDate.Format(attendance.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query day punches: %w", err)
	}
	defer rows.Close()

	var punches []attendance.Punch
	for rows.Next() {
		var punchTime, punchType string
		if err := rows.Scan(&punchTime, &punchType); err != nil {
			return nil, fmt.Errorf("scan day punch: %w", err)
		}
		t, err := time.Parse(attendance.TimestampLayout, punchTime)
		if err != nil {
			return nil, fmt.Errorf("parse punch_time %q: %w", punchTime, err)
		}
		punches = append(punches, attendance.Punch{Time: t, Type: attendance.PunchType(punchType)})
	}
	return punches, rows.Err()
}

// PendingUnsynced implements attendance.SyncLedger.
func (b *BufferRepository) PendingUnsynced(ctx context.Context, limit int) ([]attendance.AttendanceRecord, error) {
	return b.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_log
		WHERE sync_status = 'pending'
		ORDER BY id ASC
		LIMIT ?
	`, limit)
}

// MarkSynced implements attendance.SyncLedger. Only pending records move, so a
// record is marked synced at most once.
func (b *BufferRepository) MarkSynced(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE attendance_log
		SET sync_status = 'synced', synced = 1, sync_error = NULL
		WHERE id = ? AND sync_status = 'pending'
	`)
	if err != nil {
		return fmt.Errorf("prepare mark synced: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("mark record %d synced: %w", id, err)
		}
	}
	return tx.Commit()
}

// MarkFailed implements attendance.SyncLedger.
func (b *BufferRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.db.ExecContext(ctx, `
		UPDATE attendance_log
		SET sync_status = 'sync_failed', sync_error = ?
		WHERE id = ? AND sync_status = 'pending'
	`, reason, id)
	if err != nil {
		return fmt.Errorf("mark record %d failed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := b.db.QueryRowContext(ctx, `SELECT 1 FROM attendance_log WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.ErrRecordNotFound
		}
		return err
	}
	return nil
}

// Failed implements attendance.BufferInspector.
func (b *BufferRepository) Failed(ctx context.Context, limit int) ([]attendance.AttendanceRecord, error) {
	return b.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_log
		WHERE sync_status = 'sync_failed'
		ORDER BY id ASC
		LIMIT ?
	`, limit)
}

// Anomalies implements attendance.BufferInspector.
func (b *BufferRepository) Anomalies(ctx context.Context, limit int) ([]attendance.AttendanceRecord, error) {
	return b.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_log
		WHERE anomaly <> ''
		ORDER BY id ASC
		LIMIT ?
	`, limit)
}

// Stats implements attendance.BufferInspector.
func (b *BufferRepository) Stats(ctx context.Context) (attendance.BufferStats, error) {
	var stats attendance.BufferStats
	err := b.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN sync_status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sync_status = 'synced' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sync_status = 'sync_failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN anomaly <> '' THEN 1 ELSE 0 END), 0)
		FROM attendance_log
	`).Scan(&stats.Pending, &stats.Synced, &stats.Failed, &stats.Anomalies)
	if err != nil {
		return attendance.BufferStats{}, fmt.Errorf("query buffer stats: %w", err)
	}
	return stats, nil
}

func (b *BufferRepository) queryRecords(ctx context.Context, query string, args ...any) ([]attendance.AttendanceRecord, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.AttendanceRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (attendance.AttendanceRecord, error) {
	var (
		r                                       attendance.AttendanceRecord
		punchTime, punchDate, punchType, status string
		syncStatus, createdAt                   string
		syncError                               sql.NullString
	)
	err := row.Scan(
		&r.ID, &r.UserID, &r.Name, &r.DeviceID, &punchTime, &punchDate, &punchType, &r.ShiftID,
		&status, &r.LateMinutes, &r.EarlyDepartureMinutes, &r.OvertimeMinutes, &r.Confidence,
		&r.Anomaly, &syncStatus, &syncError, &createdAt,
	)
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}

	if r.PunchTime, err = time.Parse(attendance.TimestampLayout, punchTime); err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("parse punch_time %q: %w", punchTime, err)
	}
	if r.PunchDate, err = time.Parse(attendance.DateLayout, punchDate); err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("parse punch_date %q: %w", punchDate, err)
	}
	r.CreatedAt, _ = time.Parse(sqliteTimestamp, strings.TrimSuffix(createdAt, "Z"))
	r.PunchType = attendance.PunchType(punchType)
	r.Status = attendance.Status(status)
	r.SyncStatus = attendance.SyncStatus(syncStatus)
	if syncError.Valid {
		r.SyncError = &syncError.String
	}
	return r, nil
}
