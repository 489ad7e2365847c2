package employee

import "time"

// Employee is a roster entry: the identity the recognizer reports and the shift
// it is assigned to. A nil ShiftID means the default shift applies.
type Employee struct {
	UserID    string
	Name      string
	ShiftID   *int64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
