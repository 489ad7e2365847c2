package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/device"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type deviceRepository struct {
	db *database.DB
}

func NewDeviceRepository(db *database.DB) device.DeviceRepository {
	return &deviceRepository{db: db}
}

// Create implements device.DeviceRepository.
func (r *deviceRepository) Create(ctx context.Context, d device.Device) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO devices (id, name, secret_hash, active)
		VALUES ($1, $2, $3, $4)
	`, d.ID, d.Name, d.SecretHash, d.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return device.ErrDeviceExists
		}
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// GetByID implements device.DeviceRepository.
func (r *deviceRepository) GetByID(ctx context.Context, id string) (device.Device, error) {
	q := GetQuerier(ctx, r.db)

	var d device.Device
	err := q.QueryRow(ctx, `
		SELECT id, name, secret_hash, active, last_seen_at, created_at
		FROM devices
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.SecretHash, &d.Active, &d.LastSeenAt, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return device.Device{}, device.ErrDeviceNotFound
		}
		return device.Device{}, fmt.Errorf("failed to get device: %w", err)
	}
	return d, nil
}

// List implements device.DeviceRepository.
func (r *deviceRepository) List(ctx context.Context) ([]device.Device, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, secret_hash, active, last_seen_at, created_at
		FROM devices
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []device.Device
	for rows.Next() {
		var d device.Device
		if err := rows.Scan(&d.ID, &d.Name, &d.SecretHash, &d.Active, &d.LastSeenAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// TouchLastSeen implements device.DeviceRepository.
func (r *deviceRepository) TouchLastSeen(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE devices SET last_seen_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return device.ErrDeviceNotFound
	}
	return nil
}
