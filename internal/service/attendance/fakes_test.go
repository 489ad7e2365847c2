package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/device"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
)

// memoryBuffer is an Appender keyed by the natural record key.
type memoryBuffer struct {
	records []attendance.AttendanceRecord
	err     error
}

func (m *memoryBuffer) Append(ctx context.Context, r attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	if m.err != nil {
		return attendance.AttendanceRecord{}, m.err
	}
	for _, existing := range m.records {
		if existing.Key() == r.Key() {
			return existing, nil
		}
	}
	r.ID = int64(len(m.records) + 1)
	m.records = append(m.records, r)
	return r, nil
}

func (m *memoryBuffer) DayPunches(ctx context.Context, userID string, punchDate time.Time) ([]attendance.Punch, error) {
	var punches []attendance.Punch
	for _, r := range m.records {
		if r.UserID == userID && r.PunchDate.Equal(punchDate) {
			punches = append(punches, attendance.Punch{Time: r.PunchTime, Type: r.PunchType})
		}
	}
	return punches, nil
}

type fixedResolver struct {
	shift shift.Shift
	err   error
}

func (f fixedResolver) Resolve(ctx context.Context, deviceID, userID string, punchTime time.Time) (shift.Shift, time.Time, error) {
	if f.err != nil {
		return shift.Shift{}, time.Time{}, f.err
	}
	day := attendance.DateOf(punchTime)
	if f.shift.IsOvernight() && shift.ClockOf(punchTime) < f.shift.DayBoundary() {
		day = day.AddDate(0, 0, -1)
	}
	return f.shift, day, nil
}

func (f fixedResolver) ShiftFor(ctx context.Context, userID string) (shift.Shift, error) {
	return f.shift, f.err
}

type memoryCentral struct {
	mu        sync.Mutex
	records   map[attendance.RecordKey]attendance.AttendanceRecord
	anomalies []attendance.Anomaly
	failOn    string
}

func newMemoryCentral() *memoryCentral {
	return &memoryCentral{records: map[attendance.RecordKey]attendance.AttendanceRecord{}}
}

func (m *memoryCentral) Insert(ctx context.Context, r attendance.AttendanceRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && r.UserID == m.failOn {
		return false, context.DeadlineExceeded
	}
	if _, ok := m.records[r.Key()]; ok {
		return false, nil
	}
	r.ID = int64(len(m.records) + 1)
	m.records[r.Key()] = r
	if r.Anomaly != "" {
		m.anomalies = append(m.anomalies, attendance.Anomaly{
			ID: int64(len(m.anomalies) + 1), DeviceID: r.DeviceID, UserID: r.UserID,
			PunchTime: r.PunchTime, PunchDate: r.PunchDate, Reason: r.Anomaly,
		})
	}
	return true, nil
}

func (m *memoryCentral) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.AttendanceRecord
	for _, r := range m.records {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memoryCentral) ListByPunchDate(ctx context.Context, punchDate time.Time) ([]attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.AttendanceRecord
	for _, r := range m.records {
		if r.PunchDate.Equal(punchDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryCentral) ListAnomalies(ctx context.Context, filter attendance.AnomalyFilter) ([]attendance.Anomaly, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]attendance.Anomaly(nil), m.anomalies...), nil
}

type memoryCatalog map[int64]shift.Shift

func (m memoryCatalog) GetByID(ctx context.Context, id int64) (shift.Shift, error) {
	s, ok := m[id]
	if !ok {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return s, nil
}

func (m memoryCatalog) List(ctx context.Context) ([]shift.Shift, error) {
	out := make([]shift.Shift, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out, nil
}

type memoryEmployees []employee.Employee

func (m memoryEmployees) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	for _, e := range m {
		if e.UserID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (m memoryEmployees) List(ctx context.Context, activeOnly bool) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range m {
		if !activeOnly || e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memoryEmployees) UpsertMany(ctx context.Context, employees []employee.Employee) error {
	return nil
}

type memoryDevices struct {
	touched []string
}

func (m *memoryDevices) Create(ctx context.Context, d device.Device) error { return nil }
func (m *memoryDevices) GetByID(ctx context.Context, id string) (device.Device, error) {
	return device.Device{ID: id, Active: true}, nil
}
func (m *memoryDevices) List(ctx context.Context) ([]device.Device, error) { return nil, nil }
func (m *memoryDevices) TouchLastSeen(ctx context.Context, id string) error {
	m.touched = append(m.touched, id)
	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages map[string]int
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = map[string]int{}
	}
	p.messages[routingKey]++
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
