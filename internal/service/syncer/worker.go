package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
)

type Config struct {
	DeviceID        string
	BatchSize       int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// CycleReport summarises one delivery attempt.
type CycleReport struct {
	Attempted int
	Synced    int
	Failed    int
	Skipped   bool
}

// Worker moves pending buffered records to the central store. It is the only
// component that changes a record's sync status.
type Worker struct {
	ledger    attendance.SyncLedger
	central   attendance.CentralStore
	deviceID  string
	batchSize int
	now       func() time.Time

	mu          sync.Mutex
	backoff     *backoff.ExponentialBackOff
	nextAttempt time.Time
}

func NewWorker(ledger attendance.SyncLedger, central attendance.CentralStore, cfg Config) *Worker {
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > attendance.MaxSyncBatchSize {
		cfg.BatchSize = 100
	}
	return &Worker{
		ledger:    ledger,
		central:   central,
		deviceID:  cfg.DeviceID,
		batchSize: cfg.BatchSize,
		now:       time.Now,
		backoff:   b,
	}
}

// NextAttempt is the earliest time a cycle will contact the central store again.
func (w *Worker) NextAttempt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nextAttempt
}

// RunCycle delivers one batch of pending records, oldest first. While backing off
// after a transient failure it returns a skipped report without contacting the store.
func (w *Worker) RunCycle(ctx context.Context) (CycleReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if now := w.now(); now.Before(w.nextAttempt) {
		slog.Debug("sync backing off", "next_attempt", w.nextAttempt)
		return CycleReport{Skipped: true}, nil
	}

	records, err := w.ledger.PendingUnsynced(ctx, w.batchSize)
	if err != nil {
		return CycleReport{}, fmt.Errorf("failed to read pending records: %w", err)
	}
	report := CycleReport{Attempted: len(records)}
	if len(records) == 0 {
		w.backoff.Reset()
		return report, nil
	}

	results, err := w.central.UpsertBatch(ctx, w.deviceID, records)
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		delay := w.backoff.NextBackOff()
		w.nextAttempt = w.now().Add(delay)
		slog.Warn("sync attempt failed, records stay pending",
			"pending", len(records), "retry_in", delay.String(), "error", err)
		if !errors.Is(err, attendance.ErrTransientSync) {
			err = fmt.Errorf("%w: %v", attendance.ErrTransientSync, err)
		}
		return report, err
	}
	w.backoff.Reset()
	w.nextAttempt = time.Time{}

	// The acknowledgment is in hand; recording it must not be abandoned half way.
	ackCtx := context.WithoutCancel(ctx)

	byKey := make(map[attendance.RecordKey]attendance.SyncResult, len(results))
	for _, r := range results {
		byKey[r.Key()] = r
	}

	synced := make([]int64, 0, len(records))
	for _, rec := range records {
		result, ok := byKey[rec.Key()]
		switch {
		case !ok:
			slog.Warn("central store returned no result for record", "record", rec.Key().String())
		case result.Acknowledged():
			synced = append(synced, rec.ID)
		default:
			if err := w.ledger.MarkFailed(ackCtx, rec.ID, result.Reason); err != nil {
				return report, fmt.Errorf("failed to mark record %d failed: %w", rec.ID, err)
			}
			report.Failed++
			slog.Error("record permanently rejected by central store",
				"id", rec.ID, "record", rec.Key().String(), "reason", result.Reason)
		}
	}

	if len(synced) > 0 {
		if err := w.ledger.MarkSynced(ackCtx, synced...); err != nil {
			return report, fmt.Errorf("failed to mark records synced: %w", err)
		}
		report.Synced = len(synced)
	}

	slog.Info("sync cycle finished",
		"attempted", report.Attempted, "synced", report.Synced, "failed", report.Failed)
	return report, nil
}

// Flush runs cycles until the buffer has nothing pending or a cycle makes no progress.
// It ignores any backoff in effect.
func (w *Worker) Flush(ctx context.Context) (CycleReport, error) {
	w.mu.Lock()
	w.nextAttempt = time.Time{}
	w.mu.Unlock()

	var total CycleReport
	for {
		report, err := w.RunCycle(ctx)
		total.Attempted += report.Attempted
		total.Synced += report.Synced
		total.Failed += report.Failed
		if err != nil {
			return total, err
		}
		if report.Attempted == 0 || report.Synced+report.Failed == 0 {
			return total, nil
		}
	}
}
