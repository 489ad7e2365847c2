package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-sync-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/validator"
)

type AttendanceHandler interface {
	Sync(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Daily(w http.ResponseWriter, r *http.Request)
	Reconcile(w http.ResponseWriter, r *http.Request)
	Anomalies(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Sync implements AttendanceHandler.
func (h *attendanceHandlerImpl) Sync(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.DeviceIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Device token required")
		return
	}

	var req attendance.SyncBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.SyncBatch(r.Context(), deviceID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	filter := attendance.AttendanceFilter{}
	query := r.URL.Query()

	if userID := query.Get("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if deviceID := query.Get("device_id"); deviceID != "" {
		filter.DeviceID = &deviceID
	}

	// Date filters
	if date := query.Get("date"); date != "" {
		filter.Date = &date
	}
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	// Status filter
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}

	// Pagination
	page := 1
	if p := query.Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	filter.Page = page

	limit := 20
	if l := query.Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}
	filter.Limit = limit

	// Sorting
	filter.SortBy = query.Get("sort_by")
	filter.SortOrder = query.Get("sort_order")

	// Validate filter
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.attendanceService.ListAttendance(ctx, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Daily implements AttendanceHandler.
func (h *attendanceHandlerImpl) Daily(w http.ResponseWriter, r *http.Request) {
	day, err := punchDateParam(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	report, err := h.attendanceService.DailyReport(r.Context(), day)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, report)
}

// Reconcile implements AttendanceHandler.
func (h *attendanceHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	day, err := punchDateParam(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	report, err := h.attendanceService.ReconcileDay(r.Context(), day)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance reconciled", report)
}

// Anomalies implements AttendanceHandler.
func (h *attendanceHandlerImpl) Anomalies(w http.ResponseWriter, r *http.Request) {
	filter := attendance.AnomalyFilter{}
	if date := r.URL.Query().Get("date"); date != "" {
		filter.Date = &date
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil {
			filter.Limit = limitNum
		}
	}

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.attendanceService.ListAnomalies(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// punchDateParam reads ?date=YYYY-MM-DD, defaulting to today in UTC.
func punchDateParam(r *http.Request) (time.Time, error) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return attendance.DateOf(time.Now().UTC()), nil
	}
	day, ok := validator.IsValidDate(date)
	if !ok {
		return time.Time{}, fmt.Errorf("date %q: %w", date, attendance.ErrInvalidPunchDay)
	}
	return day, nil
}
