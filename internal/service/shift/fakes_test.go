package shift

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
)

type memoryShifts struct {
	shifts     map[int64]shift.Shift
	referenced map[int64]bool
	nextID     int64
}

func newMemoryShifts(shifts ...shift.Shift) *memoryShifts {
	m := &memoryShifts{shifts: map[int64]shift.Shift{}, referenced: map[int64]bool{}, nextID: 100}
	for _, s := range shifts {
		m.shifts[s.ID] = s
	}
	return m
}

func (m *memoryShifts) GetByID(ctx context.Context, id int64) (shift.Shift, error) {
	s, ok := m.shifts[id]
	if !ok {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return s, nil
}

func (m *memoryShifts) List(ctx context.Context) ([]shift.Shift, error) {
	out := make([]shift.Shift, 0, len(m.shifts))
	for _, s := range m.shifts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryShifts) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	s.ID = m.nextID
	m.nextID++
	m.shifts[s.ID] = s
	return s, nil
}

func (m *memoryShifts) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	if _, ok := m.shifts[s.ID]; !ok {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	m.shifts[s.ID] = s
	return s, nil
}

func (m *memoryShifts) Delete(ctx context.Context, id int64) error {
	delete(m.shifts, id)
	return nil
}

func (m *memoryShifts) Upsert(ctx context.Context, s shift.Shift) error {
	m.shifts[s.ID] = s
	return nil
}

func (m *memoryShifts) IsReferenced(ctx context.Context, id int64) (bool, error) {
	return m.referenced[id], nil
}

type memoryRoster map[string]employee.Employee

func (m memoryRoster) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	e, ok := m[userID]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}
