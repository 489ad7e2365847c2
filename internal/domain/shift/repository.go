package shift

import "context"

// Catalog is the read-only view the resolver needs.
type Catalog interface {
	GetByID(ctx context.Context, id int64) (Shift, error)
	List(ctx context.Context) ([]Shift, error)
}

type ShiftRepository interface {
	Catalog

	Create(ctx context.Context, s Shift) (Shift, error)
	Update(ctx context.Context, s Shift) (Shift, error)
	Delete(ctx context.Context, id int64) error

	// Upsert writes the shift with its own ID; used for catalog seeding and device caches.
	Upsert(ctx context.Context, s Shift) error

	// IsReferenced reports whether any attendance record points at the shift.
	IsReferenced(ctx context.Context, id int64) (bool, error)
}
