package employee

import "context"

type EmployeeService interface {
	List(ctx context.Context, activeOnly bool) ([]EmployeeResponse, error)

	// Upsert replaces the given roster entries; entries not named are left alone.
	Upsert(ctx context.Context, req UpsertEmployeesRequest) ([]EmployeeResponse, error)
}
