package shift

import "errors"

var (
	ErrShiftNotFound          = errors.New("shift not found")
	ErrShiftNameExists        = errors.New("shift with this name already exists")
	ErrShiftInUse             = errors.New("shift is referenced by attendance records")
	ErrDefaultShiftImmutable  = errors.New("the default shift cannot be deleted")
	ErrInvalidClock           = errors.New("invalid time of day, use HH:MM or HH:MM:SS")
	ErrZeroLengthShift        = errors.New("shift start and end times must differ")
	ErrInvalidCatalogDocument = errors.New("invalid shift catalog document")
)
