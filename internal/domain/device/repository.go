package device

import "context"

type DeviceRepository interface {
	Create(ctx context.Context, device Device) error
	GetByID(ctx context.Context, id string) (Device, error)
	List(ctx context.Context) ([]Device, error)

	// TouchLastSeen records the time of the device's latest authenticated contact.
	TouchLastSeen(ctx context.Context, id string) error
}
