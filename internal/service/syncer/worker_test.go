package syncer

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLedger struct {
	records     map[int64]*attendance.AttendanceRecord
	syncedTimes map[int64]int
}

func newMemoryLedger(n int) *memoryLedger {
	l := &memoryLedger{records: map[int64]*attendance.AttendanceRecord{}, syncedTimes: map[int64]int{}}
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		l.records[int64(i)] = &attendance.AttendanceRecord{
			ID:         int64(i),
			UserID:     "emp-" + string(rune('0'+i)),
			DeviceID:   "kiosk-1",
			PunchTime:  base.Add(time.Duration(i) * time.Minute),
			PunchDate:  attendance.DateOf(base),
			PunchType:  attendance.PunchIn,
			ShiftID:    1,
			Status:     attendance.StatusPresent,
			SyncStatus: attendance.SyncPending,
		}
	}
	return l
}

func (l *memoryLedger) PendingUnsynced(ctx context.Context, limit int) ([]attendance.AttendanceRecord, error) {
	ids := make([]int64, 0, len(l.records))
	for id, r := range l.records {
		if r.SyncStatus == attendance.SyncPending {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]attendance.AttendanceRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, *l.records[id])
	}
	return out, nil
}

func (l *memoryLedger) MarkSynced(ctx context.Context, ids ...int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if r := l.records[id]; r.SyncStatus == attendance.SyncPending {
			r.SyncStatus = attendance.SyncSynced
			l.syncedTimes[id]++
		}
	}
	return nil
}

func (l *memoryLedger) MarkFailed(ctx context.Context, id int64, reason string) error {
	r := l.records[id]
	r.SyncStatus = attendance.SyncFailed
	r.SyncError = &reason
	return nil
}

func (l *memoryLedger) count(status attendance.SyncStatus) int {
	n := 0
	for _, r := range l.records {
		if r.SyncStatus == status {
			n++
		}
	}
	return n
}

// scriptedCentral answers each UpsertBatch call with the next scripted step.
type scriptedCentral struct {
	calls   int
	err     error
	outcome func(r attendance.AttendanceRecord) (attendance.SyncOutcome, string)
	onCall  func()
}

func (c *scriptedCentral) UpsertBatch(ctx context.Context, deviceID string, records []attendance.AttendanceRecord) ([]attendance.SyncResult, error) {
	c.calls++
	if c.onCall != nil {
		c.onCall()
	}
	if c.err != nil {
		return nil, c.err
	}
	results := make([]attendance.SyncResult, 0, len(records))
	for _, r := range records {
		outcome, reason := attendance.OutcomeAccepted, ""
		if c.outcome != nil {
			outcome, reason = c.outcome(r)
		}
		key := r.Key()
		results = append(results, attendance.SyncResult{
			DeviceID: key.DeviceID, UserID: key.UserID, PunchTime: key.PunchTime,
			Result: outcome, Reason: reason,
		})
	}
	return results, nil
}

func newTestWorker(ledger *memoryLedger, central *scriptedCentral, now *time.Time) *Worker {
	w := NewWorker(ledger, central, Config{
		DeviceID:        "kiosk-1",
		BatchSize:       2,
		InitialInterval: time.Second,
		MaxInterval:     time.Minute,
	})
	w.backoff.RandomizationFactor = 0
	w.now = func() time.Time { return *now }
	return w
}

func TestWorker_RunCycleSyncsOldestFirstInBatches(t *testing.T) {
	now := time.Now()
	ledger := newMemoryLedger(3)
	w := newTestWorker(ledger, &scriptedCentral{}, &now)

	report, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 2, report.Synced)
	assert.Equal(t, attendance.SyncSynced, ledger.records[1].SyncStatus)
	assert.Equal(t, attendance.SyncSynced, ledger.records[2].SyncStatus)
	assert.Equal(t, attendance.SyncPending, ledger.records[3].SyncStatus)
}

func TestWorker_TransientFailureKeepsRecordsPending(t *testing.T) {
	now := time.Now()
	ledger := newMemoryLedger(2)
	central := &scriptedCentral{err: errors.New("connection refused")}
	w := newTestWorker(ledger, central, &now)

	_, err := w.RunCycle(context.Background())
	assert.ErrorIs(t, err, attendance.ErrTransientSync)
	assert.Equal(t, 2, ledger.count(attendance.SyncPending))
	assert.Equal(t, now.Add(time.Second), w.NextAttempt())

	report, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Equal(t, 1, central.calls)

	now = now.Add(time.Second)
	_, err = w.RunCycle(context.Background())
	assert.ErrorIs(t, err, attendance.ErrTransientSync)
	assert.Equal(t, now.Add(1500*time.Millisecond), w.NextAttempt(), "interval grows")

	central.err = nil
	now = now.Add(time.Minute)
	report, err = w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Synced)
	assert.True(t, w.NextAttempt().IsZero())
}

func TestWorker_DuplicateAndRejectedOutcomes(t *testing.T) {
	now := time.Now()
	ledger := newMemoryLedger(2)
	central := &scriptedCentral{outcome: func(r attendance.AttendanceRecord) (attendance.SyncOutcome, string) {
		if r.ID == 1 {
			return attendance.OutcomeDuplicate, ""
		}
		return attendance.OutcomeRejected, attendance.RejectShiftNotFound
	}}
	w := newTestWorker(ledger, central, &now)

	report, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, attendance.SyncSynced, ledger.records[1].SyncStatus)
	assert.Equal(t, attendance.SyncFailed, ledger.records[2].SyncStatus)
	require.NotNil(t, ledger.records[2].SyncError)
	assert.Equal(t, attendance.RejectShiftNotFound, *ledger.records[2].SyncError)

	// Failed records are not retried.
	report, err = w.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Attempted)
	assert.Equal(t, 1, central.calls)
}

func TestWorker_CancelledBeforeAckLeavesPending(t *testing.T) {
	now := time.Now()
	ledger := newMemoryLedger(1)
	ctx, cancel := context.WithCancel(context.Background())
	central := &scriptedCentral{err: context.Canceled, onCall: cancel}
	w := newTestWorker(ledger, central, &now)

	_, err := w.RunCycle(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, attendance.SyncPending, ledger.records[1].SyncStatus)
	assert.True(t, w.NextAttempt().IsZero(), "cancellation is not a transport failure")
}

func TestWorker_CancelledAfterAckStillRecordsSync(t *testing.T) {
	now := time.Now()
	ledger := newMemoryLedger(1)
	ctx, cancel := context.WithCancel(context.Background())
	w := newTestWorker(ledger, &scriptedCentral{onCall: cancel}, &now)

	report, err := w.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, attendance.SyncSynced, ledger.records[1].SyncStatus)
}

func TestWorker_FlushDrainsAndSyncsOnce(t *testing.T) {
	now := time.Now()
	ledger := newMemoryLedger(5)
	central := &scriptedCentral{}
	w := newTestWorker(ledger, central, &now)

	report, err := w.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Synced)
	assert.Equal(t, 0, ledger.count(attendance.SyncPending))
	for id, times := range ledger.syncedTimes {
		assert.Equal(t, 1, times, "record %d", id)
	}

	_, err = w.Flush(context.Background())
	require.NoError(t, err)
	for id, times := range ledger.syncedTimes {
		assert.Equal(t, 1, times, "record %d", id)
	}
}
