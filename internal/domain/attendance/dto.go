package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/validator"
)

// ========================================
// CAPTURE DTOs
// ========================================

// PunchRequest is what the recognition boundary hands the engine.
type PunchRequest struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	DeviceID   string  `json:"device_id"`
	PunchTime  string  `json:"punch_time"` // YYYY-MM-DD HH:MM:SS or RFC3339; empty means now
	PunchType  string  `json:"punch_type"` // IN, OUT or empty to infer
	Confidence float64 `json:"confidence"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	} else if !validator.IsValidIdentifier(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id may only contain letters, digits, '.', '_' and '-'",
		})
	}

	if r.PunchTime != "" {
		if _, err := ParseWallClock(r.PunchTime); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "punch_time",
				Message: "punch_time must be YYYY-MM-DD HH:MM:SS or RFC3339",
			})
		}
	}

	if r.PunchType != "" && !PunchType(strings.ToUpper(r.PunchType)).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "punch_type",
			Message: "punch_type must be one of: IN, OUT",
		})
	}

	if !validator.IsInRange(r.Confidence, 0, 1) {
		errs = append(errs, validator.ValidationError{
			Field:   "confidence",
			Message: "confidence must be between 0 and 1",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToEvent converts the request for the device it was captured on. Call after
// Validate; now is used when punch_time is empty. A device_id naming any other
// device is refused since its records could never sync under this device.
func (r *PunchRequest) ToEvent(deviceID string, now time.Time) (PunchEvent, error) {
	if id := strings.TrimSpace(r.DeviceID); id != "" && id != deviceID {
		return PunchEvent{}, ErrForeignDevice
	}
	punchTime := WallClock(now)
	if r.PunchTime != "" {
		punchTime, _ = ParseWallClock(r.PunchTime)
	}
	return PunchEvent{
		UserID:     strings.TrimSpace(r.UserID),
		Name:       strings.TrimSpace(r.Name),
		DeviceID:   deviceID,
		PunchTime:  punchTime,
		PunchType:  PunchType(strings.ToUpper(r.PunchType)),
		Confidence: r.Confidence,
	}, nil
}

// ========================================
// SYNC DTOs
// ========================================

const MaxSyncBatchSize = 500

// RecordPayload is an AttendanceRecord on the wire between device and central store.
type RecordPayload struct {
	UserID                string  `json:"user_id"`
	Name                  string  `json:"name"`
	DeviceID              string  `json:"device_id"`
	PunchTime             string  `json:"punch_time"`
	PunchDate             string  `json:"punch_date"`
	PunchClock            string  `json:"punch_clock"`
	PunchType             string  `json:"punch_type"`
	ShiftID               int64   `json:"shift_id"`
	AttendanceStatus      string  `json:"attendance_status"`
	LateMinutes           int     `json:"late_minutes"`
	EarlyDepartureMinutes int     `json:"early_departure_minutes"`
	OvertimeMinutes       int     `json:"overtime_minutes"`
	Confidence            float64 `json:"confidence"`
	Anomaly               string  `json:"anomaly,omitempty"`
}

func NewRecordPayload(r AttendanceRecord) RecordPayload {
	return RecordPayload{
		UserID:                r.UserID,
		Name:                  r.Name,
		DeviceID:              r.DeviceID,
		PunchTime:             r.PunchTime.Format(TimestampLayout),
		PunchDate:             r.PunchDate.Format(DateLayout),
		PunchClock:            r.PunchClock(),
		PunchType:             string(r.PunchType),
		ShiftID:               r.ShiftID,
		AttendanceStatus:      string(r.Status),
		LateMinutes:           r.LateMinutes,
		EarlyDepartureMinutes: r.EarlyDepartureMinutes,
		OvertimeMinutes:       r.OvertimeMinutes,
		Confidence:            r.Confidence,
		Anomaly:               r.Anomaly,
	}
}

func (p RecordPayload) Key() RecordKey {
	return RecordKey{DeviceID: p.DeviceID, UserID: p.UserID, PunchTime: p.PunchTime}
}

// validate reports the first problem with a single record, or "" when it is well formed.
func (p RecordPayload) validate() string {
	switch {
	case validator.IsEmpty(p.UserID):
		return "user_id is required"
	case validator.IsEmpty(p.DeviceID):
		return "device_id is required"
	case !PunchType(p.PunchType).Valid():
		return "punch_type must be one of: IN, OUT"
	case !validator.IsInSlice(p.AttendanceStatus, StatusValues):
		return "attendance_status must be one of: " + strings.Join(StatusValues, ", ")
	case p.ShiftID <= 0:
		return "shift_id must be a positive number"
	case p.LateMinutes < 0 || p.EarlyDepartureMinutes < 0 || p.OvertimeMinutes < 0:
		return "minute fields must not be negative"
	case !validator.IsInRange(p.Confidence, 0, 1):
		return "confidence must be between 0 and 1"
	}
	if _, ok := validator.IsValidWallClock(p.PunchTime); !ok {
		return "punch_time must be YYYY-MM-DD HH:MM:SS"
	}
	if _, ok := validator.IsValidDate(p.PunchDate); !ok {
		return "punch_date must be in YYYY-MM-DD format"
	}
	return ""
}

// ToRecord converts a payload that passed validate.
func (p RecordPayload) ToRecord() (AttendanceRecord, error) {
	if msg := p.validate(); msg != "" {
		return AttendanceRecord{}, fmt.Errorf("%s: %w", msg, ErrPermanentSyncRejection)
	}
	punchTime, _ := validator.IsValidWallClock(p.PunchTime)
	punchDate, _ := validator.IsValidDate(p.PunchDate)
	return AttendanceRecord{
		UserID:                p.UserID,
		Name:                  p.Name,
		DeviceID:              p.DeviceID,
		PunchTime:             punchTime,
		PunchDate:             punchDate,
		PunchType:             PunchType(p.PunchType),
		ShiftID:               p.ShiftID,
		Status:                Status(p.AttendanceStatus),
		LateMinutes:           p.LateMinutes,
		EarlyDepartureMinutes: p.EarlyDepartureMinutes,
		OvertimeMinutes:       p.OvertimeMinutes,
		Confidence:            p.Confidence,
		Anomaly:               p.Anomaly,
		SyncStatus:            SyncSynced,
	}, nil
}

type SyncBatchRequest struct {
	DeviceID string          `json:"device_id"`
	Records  []RecordPayload `json:"records"`
}

// Validate checks the envelope only. Malformed records are rejected one by one.
func (r *SyncBatchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DeviceID) {
		errs = append(errs, validator.ValidationError{
			Field:   "device_id",
			Message: "device_id is required",
		})
	}

	if len(r.Records) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "records",
			Message: "at least one record is required",
		})
	}
	if len(r.Records) > MaxSyncBatchSize {
		errs = append(errs, validator.ValidationError{
			Field:   "records",
			Message: fmt.Sprintf("a batch must not exceed %d records", MaxSyncBatchSize),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SyncOutcome string

const (
	OutcomeAccepted  SyncOutcome = "accepted"
	OutcomeDuplicate SyncOutcome = "duplicate"
	OutcomeRejected  SyncOutcome = "rejected"
)

// SyncResult is the central store's verdict on one record of a batch.
type SyncResult struct {
	DeviceID  string      `json:"device_id"`
	UserID    string      `json:"user_id"`
	PunchTime string      `json:"punch_time"`
	Result    SyncOutcome `json:"result"`
	Reason    string      `json:"reason,omitempty"`
}

func (r SyncResult) Key() RecordKey {
	return RecordKey{DeviceID: r.DeviceID, UserID: r.UserID, PunchTime: r.PunchTime}
}

// Acknowledged reports whether the central store holds the record.
func (r SyncResult) Acknowledged() bool {
	return r.Result == OutcomeAccepted || r.Result == OutcomeDuplicate
}

type SyncBatchResponse struct {
	Accepted   int          `json:"accepted"`
	Duplicates int          `json:"duplicates"`
	Rejected   int          `json:"rejected"`
	Results    []SyncResult `json:"results"`
}

func NewSyncBatchResponse(results []SyncResult) SyncBatchResponse {
	resp := SyncBatchResponse{Results: results}
	for _, r := range results {
		switch r.Result {
		case OutcomeAccepted:
			resp.Accepted++
		case OutcomeDuplicate:
			resp.Duplicates++
		case OutcomeRejected:
			resp.Rejected++
		}
	}
	return resp
}

// ========================================
// QUERY DTOs
// ========================================

type AttendanceResponse struct {
	ID                    int64   `json:"id"`
	UserID                string  `json:"user_id"`
	Name                  string  `json:"name"`
	DeviceID              string  `json:"device_id"`
	PunchTime             string  `json:"punch_time"`
	PunchDate             string  `json:"punch_date"`
	PunchClock            string  `json:"punch_clock"`
	PunchType             string  `json:"punch_type"`
	ShiftID               int64   `json:"shift_id"`
	AttendanceStatus      string  `json:"attendance_status"`
	LateMinutes           int     `json:"late_minutes"`
	EarlyDepartureMinutes int     `json:"early_departure_minutes"`
	OvertimeMinutes       int     `json:"overtime_minutes"`
	Confidence            float64 `json:"confidence"`
	Anomaly               string  `json:"anomaly,omitempty"`
	SyncStatus            string  `json:"sync_status"`
	SyncError             *string `json:"sync_error,omitempty"`
	CreatedAt             string  `json:"created_at,omitempty"`
}

func NewAttendanceResponse(r AttendanceRecord) AttendanceResponse {
	resp := AttendanceResponse{
		ID:                    r.ID,
		UserID:                r.UserID,
		Name:                  r.Name,
		DeviceID:              r.DeviceID,
		PunchTime:             r.PunchTime.Format(TimestampLayout),
		PunchDate:             r.PunchDate.Format(DateLayout),
		PunchClock:            r.PunchClock(),
		PunchType:             string(r.PunchType),
		ShiftID:               r.ShiftID,
		AttendanceStatus:      string(r.Status),
		LateMinutes:           r.LateMinutes,
		EarlyDepartureMinutes: r.EarlyDepartureMinutes,
		OvertimeMinutes:       r.OvertimeMinutes,
		Confidence:            r.Confidence,
		Anomaly:               r.Anomaly,
		SyncStatus:            string(r.SyncStatus),
		SyncError:             r.SyncError,
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

type AttendanceFilter struct {
	UserID    *string `json:"user_id,omitempty"`
	DeviceID  *string `json:"device_id,omitempty"`
	Date      *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // punch_time, punch_date, user_id, status
	SortOrder string `json:"sort_order"` // asc, desc
}

var attendanceSortFields = []string{"punch_time", "punch_date", "user_id", "status"}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(StatusValues, ", "),
		})
	}

	// Date validation
	for field, value := range map[string]*string{"date": f.Date, "start_date": f.StartDate, "end_date": f.EndDate} {
		if value != nil && *value != "" {
			if _, valid := validator.IsValidDate(*value); !valid {
				errs = append(errs, validator.ValidationError{
					Field:   field,
					Message: field + " must be in YYYY-MM-DD format",
				})
			}
		}
	}
	if f.StartDate != nil && f.EndDate != nil {
		start, startErr := validator.ParseDate(*f.StartDate)
		end, endErr := validator.ParseDate(*f.EndDate)
		if startErr == nil && endErr == nil && end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		}
	}

	// Sort validation
	if f.SortBy != "" {
		if !validator.IsInSlice(f.SortBy, attendanceSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: " + strings.Join(attendanceSortFields, ", "),
			})
		}
	} else {
		f.SortBy = "punch_time"
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
		f.SortOrder = strings.ToLower(f.SortOrder)
	} else {
		f.SortOrder = "desc"
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

type AnomalyFilter struct {
	Date  *string `json:"date,omitempty"`
	Limit int     `json:"limit"`
}

func (f *AnomalyFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AnomalyResponse struct {
	ID        int64  `json:"id"`
	DeviceID  string `json:"device_id"`
	UserID    string `json:"user_id"`
	PunchTime string `json:"punch_time"`
	PunchDate string `json:"punch_date"`
	Reason    string `json:"reason"`
}

func NewAnomalyResponse(a Anomaly) AnomalyResponse {
	return AnomalyResponse{
		ID:        a.ID,
		DeviceID:  a.DeviceID,
		UserID:    a.UserID,
		PunchTime: a.PunchTime.Format(TimestampLayout),
		PunchDate: a.PunchDate.Format(DateLayout),
		Reason:    a.Reason,
	}
}

// DailySummary is a user's shift day recomputed from every device's punches.
type DailySummary struct {
	UserID                string  `json:"user_id"`
	Name                  string  `json:"name"`
	PunchDate             string  `json:"punch_date"`
	ShiftID               int64   `json:"shift_id"`
	AttendanceStatus      string  `json:"attendance_status"`
	FirstIn               *string `json:"first_in"`
	LastOut               *string `json:"last_out"`
	LateMinutes           int     `json:"late_minutes"`
	EarlyDepartureMinutes int     `json:"early_departure_minutes"`
	OvertimeMinutes       int     `json:"overtime_minutes"`
	WorkedMinutes         int     `json:"worked_minutes"`
	PunchCount            int     `json:"punch_count"`
	Anomaly               string  `json:"anomaly,omitempty"`
}

func NewDailySummary(userID, name string, punchDate time.Time, shiftID int64, d Derivation, punchCount int) DailySummary {
	s := DailySummary{
		UserID:                userID,
		Name:                  name,
		PunchDate:             punchDate.Format(DateLayout),
		ShiftID:               shiftID,
		AttendanceStatus:      string(d.Status),
		LateMinutes:           d.LateMinutes,
		EarlyDepartureMinutes: d.EarlyDepartureMinutes,
		OvertimeMinutes:       d.OvertimeMinutes,
		WorkedMinutes:         d.WorkedMinutes,
		PunchCount:            punchCount,
		Anomaly:               d.Anomaly,
	}
	if d.FirstIn != nil {
		v := d.FirstIn.Format(TimestampLayout)
		s.FirstIn = &v
	}
	if d.LastOut != nil {
		v := d.LastOut.Format(TimestampLayout)
		s.LastOut = &v
	}
	return s
}

type DailyReportResponse struct {
	PunchDate string         `json:"punch_date"`
	Present   int            `json:"present"`
	Late      int            `json:"late"`
	HalfDay   int            `json:"half_day"`
	Early     int            `json:"early_departure"`
	Absent    int            `json:"absent"`
	Users     []DailySummary `json:"users"`
}

func NewDailyReportResponse(punchDate time.Time, users []DailySummary) DailyReportResponse {
	resp := DailyReportResponse{PunchDate: punchDate.Format(DateLayout), Users: users}
	for _, u := range users {
		switch Status(u.AttendanceStatus) {
		case StatusPresent:
			resp.Present++
		case StatusLate:
			resp.Late++
		case StatusHalfDay:
			resp.HalfDay++
		case StatusEarlyDeparture:
			resp.Early++
		case StatusAbsent:
			resp.Absent++
		}
	}
	return resp
}

// BufferStatusResponse is the device-local buffer summary.
type BufferStatusResponse struct {
	DeviceID  string `json:"device_id"`
	Pending   int64  `json:"pending"`
	Synced    int64  `json:"synced"`
	Failed    int64  `json:"sync_failed"`
	Anomalies int64  `json:"anomalies"`
}
