package central

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/device"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCentral struct {
	tokensIssued atomic.Int32
	syncStatus   int
	rejectToken  atomic.Bool
	lastBatch    attendance.SyncBatchRequest
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": status < 300}
	if status < 300 {
		body["data"] = data
	} else {
		body["error"] = map[string]string{"code": "ERR", "message": http.StatusText(status)}
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (s *stubCentral) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(pathDeviceToken, func(w http.ResponseWriter, r *http.Request) {
		var req device.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Secret != "s3cret" {
			writeEnvelope(w, http.StatusUnauthorized, nil)
			return
		}
		n := s.tokensIssued.Add(1)
		writeEnvelope(w, http.StatusOK, device.TokenResponse{
			AccessToken: "token-" + string(rune('0'+n)),
			TokenType:   "Bearer",
			ExpiresAt:   time.Now().Add(time.Hour).Unix(),
		})
	})
	mux.HandleFunc(pathSync, func(w http.ResponseWriter, r *http.Request) {
		if s.rejectToken.CompareAndSwap(true, false) {
			writeEnvelope(w, http.StatusUnauthorized, nil)
			return
		}
		if s.syncStatus != 0 {
			writeEnvelope(w, s.syncStatus, nil)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&s.lastBatch))
		var results []attendance.SyncResult
		for _, p := range s.lastBatch.Records {
			results = append(results, attendance.SyncResult{
				DeviceID: p.DeviceID, UserID: p.UserID, PunchTime: p.PunchTime, Result: attendance.OutcomeAccepted,
			})
		}
		writeEnvelope(w, http.StatusOK, attendance.NewSyncBatchResponse(results))
	})
	mux.HandleFunc(pathShifts, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, []shift.ShiftResponse{shift.NewShiftResponse(shift.DefaultShift())})
	})
	mux.HandleFunc(pathEmployees, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, []employee.EmployeeResponse{{UserID: "emp-1", Name: "Ana", Active: true}})
	})
	return mux
}

func newTestClient(t *testing.T, stub *stubCentral, secret string) *Client {
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", DeviceID: "kiosk-1", DeviceSecret: secret})
}

func testRecord() attendance.AttendanceRecord {
	punch := time.Date(2024, 3, 1, 9, 20, 0, 0, time.UTC)
	return attendance.AttendanceRecord{
		UserID: "emp-1", DeviceID: "kiosk-1", PunchTime: punch, PunchDate: attendance.DateOf(punch),
		PunchType: attendance.PunchIn, ShiftID: 1, Status: attendance.StatusLate, LateMinutes: 5, Confidence: 0.9,
	}
}

func TestUpsertBatch_Accepted(t *testing.T) {
	stub := &stubCentral{}
	client := newTestClient(t, stub, "s3cret")

	results, err := client.UpsertBatch(context.Background(), "kiosk-1", []attendance.AttendanceRecord{testRecord()})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Acknowledged())
	assert.Equal(t, "2024-03-01 09:20:00", stub.lastBatch.Records[0].PunchTime)
	assert.Equal(t, "09:20:00", stub.lastBatch.Records[0].PunchClock)

	// The cached token is reused.
	_, err = client.UpsertBatch(context.Background(), "kiosk-1", []attendance.AttendanceRecord{testRecord()})
	require.NoError(t, err)
	assert.Equal(t, int32(1), stub.tokensIssued.Load())
}

func TestUpsertBatch_RenewsTokenOnUnauthorized(t *testing.T) {
	stub := &stubCentral{}
	client := newTestClient(t, stub, "s3cret")
	stub.rejectToken.Store(true)

	_, err := client.UpsertBatch(context.Background(), "kiosk-1", []attendance.AttendanceRecord{testRecord()})
	require.NoError(t, err)
	assert.Equal(t, int32(2), stub.tokensIssued.Load())
}

func TestUpsertBatch_ServerErrorIsTransient(t *testing.T) {
	stub := &stubCentral{syncStatus: http.StatusServiceUnavailable}
	client := newTestClient(t, stub, "s3cret")

	_, err := client.UpsertBatch(context.Background(), "kiosk-1", []attendance.AttendanceRecord{testRecord()})
	assert.ErrorIs(t, err, attendance.ErrTransientSync)
}

func TestUpsertBatch_BadCredentialsIsTransient(t *testing.T) {
	client := newTestClient(t, &stubCentral{}, "wrong")

	_, err := client.UpsertBatch(context.Background(), "kiosk-1", []attendance.AttendanceRecord{testRecord()})
	assert.ErrorIs(t, err, attendance.ErrTransientSync)
}

func TestUpsertBatch_UnreachableIsTransient(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", DeviceID: "kiosk-1", DeviceSecret: "s3cret", Timeout: time.Second})

	_, err := client.UpsertBatch(context.Background(), "kiosk-1", []attendance.AttendanceRecord{testRecord()})
	assert.ErrorIs(t, err, attendance.ErrTransientSync)
}

func TestFetchRoster(t *testing.T) {
	client := newTestClient(t, &stubCentral{}, "s3cret")
	ctx := context.Background()

	shifts, err := client.FetchShifts(ctx)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, shift.NewClockTime(9, 0, 0), shifts[0].StartTime)

	employees, err := client.FetchEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "emp-1", employees[0].UserID)
}
