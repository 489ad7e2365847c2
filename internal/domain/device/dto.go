package device

import (
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/validator"
)

type RegisterDeviceRequest struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
}

func (r *RegisterDeviceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DeviceID) {
		errs = append(errs, validator.ValidationError{
			Field:   "device_id",
			Message: "device_id is required",
		})
	} else if !validator.IsValidIdentifier(r.DeviceID) {
		errs = append(errs, validator.ValidationError{
			Field:   "device_id",
			Message: "device_id may only contain letters, digits, '.', '_' and '-'",
		})
	}

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RegisterDeviceResponse struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Secret   string `json:"secret"`
}

type TokenRequest struct {
	DeviceID string `json:"device_id"`
	Secret   string `json:"secret"`
}

func (r *TokenRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DeviceID) {
		errs = append(errs, validator.ValidationError{
			Field:   "device_id",
			Message: "device_id is required",
		})
	}
	if validator.IsEmpty(r.Secret) {
		errs = append(errs, validator.ValidationError{
			Field:   "secret",
			Message: "secret is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

type DeviceResponse struct {
	DeviceID   string  `json:"device_id"`
	Name       string  `json:"name"`
	Active     bool    `json:"active"`
	LastSeenAt *string `json:"last_seen_at"`
	CreatedAt  string  `json:"created_at"`
}

func NewDeviceResponse(d Device) DeviceResponse {
	resp := DeviceResponse{
		DeviceID:  d.ID,
		Name:      d.Name,
		Active:    d.Active,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}
	if d.LastSeenAt != nil {
		v := d.LastSeenAt.Format(time.RFC3339)
		resp.LastSeenAt = &v
	}
	return resp
}
