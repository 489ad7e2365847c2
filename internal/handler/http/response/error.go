package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/device"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Device domain errors
	case errors.Is(err, device.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, device.ErrDeviceInactive):
		Forbidden(w, "Device is deactivated")
	case errors.Is(err, device.ErrDeviceNotFound):
		NotFound(w, "Device not found")
	case errors.Is(err, device.ErrDeviceExists):
		Conflict(w, "Device already registered")

	// Shift domain errors
	case errors.Is(err, shift.ErrShiftNotFound):
		NotFound(w, "Shift not found")
	case errors.Is(err, shift.ErrShiftNameExists):
		Conflict(w, "Shift with this name already exists")
	case errors.Is(err, shift.ErrShiftInUse):
		Conflict(w, "Shift is referenced by attendance records")
	case errors.Is(err, shift.ErrDefaultShiftImmutable):
		Conflict(w, "The default shift cannot be deleted")
	case errors.Is(err, shift.ErrInvalidClock), errors.Is(err, shift.ErrZeroLengthShift):
		BadRequest(w, err.Error(), nil)

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrDeviceMismatch):
		Forbidden(w, "Batch device_id does not match the authenticated device")
	case errors.Is(err, attendance.ErrDuplicatePunch):
		Conflict(w, "Punch ignored: same identity within the cooldown window")
	case errors.Is(err, attendance.ErrForeignDevice):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrInvalidPunchDay):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrBufferFull):
		InsufficientStorage(w, "Local attendance buffer is full")
	case errors.Is(err, attendance.ErrTransientSync):
		ServiceUnavailable(w, "Attendance store temporarily unavailable, retry later")
	case errors.Is(err, attendance.ErrConfiguration):
		slog.Error("configuration error", "error", err)
		InternalServerError(w, "Shift catalog is not configured")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
