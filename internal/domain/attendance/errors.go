package attendance

import "errors"

var (
	// Ingestion errors
	ErrConfiguration         = errors.New("no resolvable shift: shift catalog is empty")
	ErrLowConfidenceRejected = errors.New("recognition confidence below threshold")
	ErrDuplicatePunch        = errors.New("identity punched again within the capture cooldown")
	ErrBufferFull            = errors.New("local attendance buffer is full")
	ErrForeignDevice         = errors.New("device_id does not match this device")

	// Sync errors
	ErrTransientSync          = errors.New("central store temporarily unavailable")
	ErrPermanentSyncRejection = errors.New("record permanently rejected by central store")

	// General errors
	ErrRecordNotFound  = errors.New("attendance record not found")
	ErrDeviceMismatch  = errors.New("record device does not match the authenticated device")
	ErrInvalidPunchDay = errors.New("invalid date, use YYYY-MM-DD")
)

// Permanent rejection reasons reported per record by the central store.
const (
	RejectShiftNotFound = "shift_not_found"
	RejectInvalidRecord = "invalid_record"
	RejectDeviceID      = "device_mismatch"
)
