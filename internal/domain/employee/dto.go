package employee

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/validator"
)

type EmployeeRequest struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	ShiftID *int64 `json:"shift_id"`
	Active  *bool  `json:"active"`
}

type UpsertEmployeesRequest struct {
	Employees []EmployeeRequest `json:"users"`
}

func (r *UpsertEmployeesRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Employees) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "users",
			Message: "at least one user is required",
		})
	}

	seen := make(map[string]bool, len(r.Employees))
	for i, e := range r.Employees {
		field := fmt.Sprintf("users[%d]", i)
		if validator.IsEmpty(e.UserID) {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".user_id",
				Message: "user_id is required",
			})
		} else if seen[e.UserID] {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".user_id",
				Message: "user_id is duplicated in this request",
			})
		}
		seen[e.UserID] = true

		if validator.IsEmpty(e.Name) {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".name",
				Message: "name is required",
			})
		}
		if e.ShiftID != nil && *e.ShiftID <= 0 {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".shift_id",
				Message: "shift_id must be a positive number",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *UpsertEmployeesRequest) ToEmployees() []Employee {
	employees := make([]Employee, 0, len(r.Employees))
	for _, e := range r.Employees {
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		employees = append(employees, Employee{
			UserID:  e.UserID,
			Name:    e.Name,
			ShiftID: e.ShiftID,
			Active:  active,
		})
	}
	return employees
}

type EmployeeResponse struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	ShiftID *int64 `json:"shift_id"`
	Active  bool   `json:"active"`
}

func NewEmployeeResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		UserID:  e.UserID,
		Name:    e.Name,
		ShiftID: e.ShiftID,
		Active:  e.Active,
	}
}

func (r EmployeeResponse) ToEmployee() Employee {
	return Employee{
		UserID:  r.UserID,
		Name:    r.Name,
		ShiftID: r.ShiftID,
		Active:  r.Active,
	}
}
