package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

// GetByUserID implements employee.Reader. Inactive entries are reported as not found.
func (r *employeeRepository) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT user_id, name, shift_id, active, created_at, updated_at
		FROM employees
		WHERE user_id = $1 AND active = TRUE
	`
	var e employee.Employee
	err := q.QueryRow(ctx, query, userID).Scan(&e.UserID, &e.Name, &e.ShiftID, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// List implements employee.EmployeeRepository.
func (r *employeeRepository) List(ctx context.Context, activeOnly bool) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT user_id, name, shift_id, active, created_at, updated_at FROM employees`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	rows, err := q.Query(ctx, query+` ORDER BY user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		var e employee.Employee
		if err := rows.Scan(&e.UserID, &e.Name, &e.ShiftID, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// UpsertMany implements employee.EmployeeRepository. All entries are written in one transaction.
func (r *employeeRepository) UpsertMany(ctx context.Context, employees []employee.Employee) error {
	return WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		batch := &pgx.Batch{}
		for _, e := range employees {
			batch.Queue(`
				INSERT INTO employees (user_id, name, shift_id, active)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (user_id) DO UPDATE SET
					name = EXCLUDED.name,
					shift_id = EXCLUDED.shift_id,
					active = EXCLUDED.active,
					updated_at = NOW()
			`, e.UserID, e.Name, e.ShiftID, e.Active)
		}

		tx, ok := q.(pgx.Tx)
		if !ok {
			return fmt.Errorf("upsert employees: no transaction in context")
		}
		results := tx.SendBatch(txCtx, batch)
		for i := range employees {
			if _, err := results.Exec(); err != nil {
				results.Close()
				if isForeignKeyViolation(err) {
					return fmt.Errorf("employee %s: %w", employees[i].UserID, shift.ErrShiftNotFound)
				}
				return fmt.Errorf("failed to upsert employee %s: %w", employees[i].UserID, err)
			}
		}
		return results.Close()
	})
}
