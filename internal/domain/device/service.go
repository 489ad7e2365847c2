package device

import "context"

type DeviceService interface {
	// Register creates a device and returns its one-time plaintext secret.
	Register(ctx context.Context, req RegisterDeviceRequest) (RegisterDeviceResponse, error)

	// IssueToken exchanges device credentials for a bearer token.
	IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error)

	List(ctx context.Context) ([]DeviceResponse, error)
}
