package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/handler/http/response"
)

// CaptureHandler serves the device-local recognition boundary.
type CaptureHandler interface {
	Punch(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Failed(w http.ResponseWriter, r *http.Request)
	Anomalies(w http.ResponseWriter, r *http.Request)
}

type captureHandlerImpl struct {
	captureService attendance.CaptureService
	buffer         attendance.BufferInspector
	deviceID       string
	now            func() time.Time
}

func NewCaptureHandler(captureService attendance.CaptureService, buffer attendance.BufferInspector, deviceID string) CaptureHandler {
	return &captureHandlerImpl{
		captureService: captureService,
		buffer:         buffer,
		deviceID:       deviceID,
		now:            time.Now,
	}
}

// Punch implements CaptureHandler.
func (h *captureHandlerImpl) Punch(w http.ResponseWriter, r *http.Request) {
	var req attendance.PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	event, err := req.ToEvent(h.deviceID, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.captureService.Capture(r.Context(), event)
	if err != nil {
		if errors.Is(err, attendance.ErrLowConfidenceRejected) {
			response.Accepted(w, "Recognition confidence below threshold, punch not recorded", nil)
			return
		}
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch recorded", attendance.NewAttendanceResponse(record))
}

// Status implements CaptureHandler.
func (h *captureHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.buffer.Stats(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.BufferStatusResponse{
		DeviceID:  h.deviceID,
		Pending:   stats.Pending,
		Synced:    stats.Synced,
		Failed:    stats.Failed,
		Anomalies: stats.Anomalies,
	})
}

// Failed implements CaptureHandler.
func (h *captureHandlerImpl) Failed(w http.ResponseWriter, r *http.Request) {
	records, err := h.buffer.Failed(r.Context(), limitParam(r, 100))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, toAttendanceResponses(records))
}

// Anomalies implements CaptureHandler.
func (h *captureHandlerImpl) Anomalies(w http.ResponseWriter, r *http.Request) {
	records, err := h.buffer.Anomalies(r.Context(), limitParam(r, 100))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, toAttendanceResponses(records))
}

func limitParam(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			return n
		}
	}
	return def
}

func toAttendanceResponses(records []attendance.AttendanceRecord) []attendance.AttendanceResponse {
	resp := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, attendance.NewAttendanceResponse(rec))
	}
	return resp
}
