package shift

import "context"

type ShiftService interface {
	List(ctx context.Context) ([]ShiftResponse, error)
	GetByID(ctx context.Context, id int64) (ShiftResponse, error)
	Create(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)

	// Update fails with ErrShiftInUse once attendance records point at the shift.
	Update(ctx context.Context, req UpdateShiftRequest) (ShiftResponse, error)
	Delete(ctx context.Context, id int64) error

	// Seed writes a catalog document into the store, leaving referenced shifts untouched.
	Seed(ctx context.Context, shifts []Shift) error
}
