package employee

import "context"

// Reader is the roster lookup used during shift resolution.
type Reader interface {
	GetByUserID(ctx context.Context, userID string) (Employee, error)
}

type EmployeeRepository interface {
	Reader

	List(ctx context.Context, activeOnly bool) ([]Employee, error)

	// UpsertMany inserts or replaces roster entries keyed by user ID.
	UpsertMany(ctx context.Context, employees []Employee) error
}
