package attendance

import (
	"context"
	"time"
)

// Appender is the ingestion path's view of the local buffer. It never touches sync state.
type Appender interface {
	// Append durably stores the record before returning. A record whose natural key
	// is already buffered is returned unchanged.
	Append(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	// DayPunches returns the punches already buffered for a user's shift day.
	DayPunches(ctx context.Context, userID string, punchDate time.Time) ([]Punch, error)
}

// SyncLedger is the sync worker's view of the local buffer. It is the only writer of sync state.
type SyncLedger interface {
	// PendingUnsynced returns up to limit pending records, oldest first.
	PendingUnsynced(ctx context.Context, limit int) ([]AttendanceRecord, error)
	MarkSynced(ctx context.Context, ids ...int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// BufferInspector exposes the buffer for operators.
type BufferInspector interface {
	Failed(ctx context.Context, limit int) ([]AttendanceRecord, error)
	Anomalies(ctx context.Context, limit int) ([]AttendanceRecord, error)
	Stats(ctx context.Context) (BufferStats, error)
}

// CentralStore is the transport boundary to the central store.
type CentralStore interface {
	// UpsertBatch delivers records idempotently. An error means the whole batch may
	// be retried; per-record permanent rejections come back as results.
	UpsertBatch(ctx context.Context, deviceID string, records []AttendanceRecord) ([]SyncResult, error)
}

// AttendanceRepository is the central store table.
type AttendanceRepository interface {
	// Insert adds the record unless its natural key already exists; inserted is false for
	// duplicates. A record carrying an anomaly is queued for review in the same transaction.
	Insert(ctx context.Context, record AttendanceRecord) (inserted bool, err error)
	List(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, int64, error)
	ListByPunchDate(ctx context.Context, punchDate time.Time) ([]AttendanceRecord, error)
	ListAnomalies(ctx context.Context, filter AnomalyFilter) ([]Anomaly, error)
}
