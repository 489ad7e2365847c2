package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
)

// EmployeeCache is the device's copy of the central roster.
type EmployeeCache struct {
	db *database.SQLiteDB
}

func NewEmployeeCache(db *database.SQLiteDB) *EmployeeCache {
	return &EmployeeCache{db: db}
}

var _ employee.EmployeeRepository = (*EmployeeCache)(nil)

// GetByUserID implements employee.Reader. Inactive entries are reported as not found.
func (c *EmployeeCache) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	e, err := scanEmployee(c.db.QueryRowContext(ctx, `
		SELECT user_id, name, shift_id, active, created_at, updated_at
		FROM employees
		WHERE user_id = ? AND active = 1
	`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, err
}

func (c *EmployeeCache) List(ctx context.Context, activeOnly bool) ([]employee.Employee, error) {
	query := `SELECT user_id, name, shift_id, active, created_at, updated_at FROM employees`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	rows, err := c.db.QueryContext(ctx, query+` ORDER BY user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (c *EmployeeCache) UpsertMany(ctx context.Context, employees []employee.Employee) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertEmployees(ctx, tx, employees); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAll makes the cache an exact copy of the roster in one transaction.
func (c *EmployeeCache) ReplaceAll(ctx context.Context, employees []employee.Employee) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM employees`); err != nil {
		return fmt.Errorf("clear roster cache: %w", err)
	}
	if err := upsertEmployees(ctx, tx, employees); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertEmployees(ctx context.Context, tx *sql.Tx, employees []employee.Employee) error {
	now := time.Now().UTC().Format(sqliteTimestamp)
	for _, e := range employees {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO employees (user_id, name, shift_id, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET
				name = excluded.name,
				shift_id = excluded.shift_id,
				active = excluded.active,
				updated_at = excluded.updated_at
		`, e.UserID, e.Name, e.ShiftID, e.Active, now, now)
		if err != nil {
			return fmt.Errorf("upsert employee %s: %w", e.UserID, err)
		}
	}
	return nil
}

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var (
		e                    employee.Employee
		shiftID              sql.NullInt64
		createdAt, updatedAt string
	)
	if err := row.Scan(&e.UserID, &e.Name, &shiftID, &e.Active, &createdAt, &updatedAt); err != nil {
		return employee.Employee{}, err
	}
	if shiftID.Valid {
		e.ShiftID = &shiftID.Int64
	}
	e.CreatedAt, _ = time.Parse(sqliteTimestamp, createdAt)
	e.UpdatedAt, _ = time.Parse(sqliteTimestamp, updatedAt)
	return e, nil
}
