package attendance

import (
	"context"
	"time"
)

// CaptureService turns recognised punches into buffered attendance records on a device.
type CaptureService interface {
	// Capture resolves the shift, derives status and durably appends the record.
	Capture(ctx context.Context, event PunchEvent) (AttendanceRecord, error)
}

// AttendanceService is the central store's business logic.
type AttendanceService interface {
	// SyncBatch idempotently stores a device batch and reports a result per record.
	SyncBatch(ctx context.Context, deviceID string, req SyncBatchRequest) (SyncBatchResponse, error)

	// ListAttendance retrieves stored records with filters.
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// DailyReport recomputes every active user's shift day across all devices.
	DailyReport(ctx context.Context, punchDate time.Time) (DailyReportResponse, error)

	// ReconcileDay recomputes the day and publishes a summary event per user.
	ReconcileDay(ctx context.Context, punchDate time.Time) (DailyReportResponse, error)

	// ListAnomalies returns records queued for manual review.
	ListAnomalies(ctx context.Context, filter AnomalyFilter) ([]AnomalyResponse, error)
}
