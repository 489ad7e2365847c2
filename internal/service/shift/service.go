package shift

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/shift"
)

type ShiftServiceImpl struct {
	shift.ShiftRepository
}

func NewShiftService(shiftRepo shift.ShiftRepository) shift.ShiftService {
	return &ShiftServiceImpl{ShiftRepository: shiftRepo}
}

// List implements shift.ShiftService.
func (s *ShiftServiceImpl) List(ctx context.Context) ([]shift.ShiftResponse, error) {
	shifts, err := s.ShiftRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	responses := make([]shift.ShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		responses = append(responses, shift.NewShiftResponse(sh))
	}
	return responses, nil
}

// GetByID implements shift.ShiftService.
func (s *ShiftServiceImpl) GetByID(ctx context.Context, id int64) (shift.ShiftResponse, error) {
	sh, err := s.ShiftRepository.GetByID(ctx, id)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return shift.NewShiftResponse(sh), nil
}

// Create implements shift.ShiftService.
func (s *ShiftServiceImpl) Create(ctx context.Context, req shift.CreateShiftRequest) (shift.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}
	created, err := s.ShiftRepository.Create(ctx, req.ToShift())
	if err != nil {
		return shift.ShiftResponse{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return shift.NewShiftResponse(created), nil
}

// Update implements shift.ShiftService.
func (s *ShiftServiceImpl) Update(ctx context.Context, req shift.UpdateShiftRequest) (shift.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	existing, err := s.ShiftRepository.GetByID(ctx, req.ID)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	// Stored records carry derived minutes computed against the current definition.
	inUse, err := s.ShiftRepository.IsReferenced(ctx, req.ID)
	if err != nil {
		return shift.ShiftResponse{}, fmt.Errorf("failed to check shift references: %w", err)
	}
	if inUse {
		return shift.ShiftResponse{}, shift.ErrShiftInUse
	}

	updated, err := req.Apply(existing)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	saved, err := s.ShiftRepository.Update(ctx, updated)
	if err != nil {
		return shift.ShiftResponse{}, fmt.Errorf("failed to update shift: %w", err)
	}
	return shift.NewShiftResponse(saved), nil
}

// Delete implements shift.ShiftService.
func (s *ShiftServiceImpl) Delete(ctx context.Context, id int64) error {
	if id == shift.DefaultShiftID {
		return shift.ErrDefaultShiftImmutable
	}
	if _, err := s.ShiftRepository.GetByID(ctx, id); err != nil {
		return err
	}

	inUse, err := s.ShiftRepository.IsReferenced(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check shift references: %w", err)
	}
	if inUse {
		return shift.ErrShiftInUse
	}
	return s.ShiftRepository.Delete(ctx, id)
}

// Seed implements shift.ShiftService.
func (s *ShiftServiceImpl) Seed(ctx context.Context, shifts []shift.Shift) error {
	for _, sh := range shifts {
		inUse, err := s.ShiftRepository.IsReferenced(ctx, sh.ID)
		if err != nil {
			return fmt.Errorf("failed to check shift references: %w", err)
		}
		if inUse {
			slog.Info("catalog seed skipped referenced shift", "shift_id", sh.ID, "shift_name", sh.Name)
			continue
		}
		if err := s.ShiftRepository.Upsert(ctx, sh); err != nil {
			return fmt.Errorf("failed to seed shift %d: %w", sh.ID, err)
		}
	}
	slog.Info("shift catalog seeded", "shifts", len(shifts))
	return nil
}
