package device

import "errors"

var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrDeviceExists       = errors.New("device already registered")
	ErrDeviceInactive     = errors.New("device is deactivated")
	ErrInvalidCredentials = errors.New("invalid device id or secret")
)
