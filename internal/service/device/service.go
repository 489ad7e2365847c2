package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/attendance-sync-go/internal/domain/device"
	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type DeviceServiceImpl struct {
	device.DeviceRepository
	jwt.Service
}

func NewDeviceService(deviceRepository device.DeviceRepository, jwtService jwt.Service) device.DeviceService {
	return &DeviceServiceImpl{
		DeviceRepository: deviceRepository,
		Service:          jwtService,
	}
}

func (s *DeviceServiceImpl) hashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register implements device.DeviceService. The plaintext secret is returned once and never stored.
func (s *DeviceServiceImpl) Register(ctx context.Context, req device.RegisterDeviceRequest) (device.RegisterDeviceResponse, error) {
	if err := req.Validate(); err != nil {
		return device.RegisterDeviceResponse{}, err
	}

	secret := strings.ReplaceAll(uuid.NewString(), "-", "")
	hash, err := s.hashSecret(secret)
	if err != nil {
		return device.RegisterDeviceResponse{}, fmt.Errorf("failed to hash device secret: %w", err)
	}

	err = s.DeviceRepository.Create(ctx, device.Device{
		ID:         req.DeviceID,
		Name:       req.Name,
		SecretHash: hash,
		Active:     true,
	})
	if err != nil {
		return device.RegisterDeviceResponse{}, err
	}

	slog.Info("device registered", "device_id", req.DeviceID)
	return device.RegisterDeviceResponse{
		DeviceID: req.DeviceID,
		Name:     req.Name,
		Secret:   secret,
	}, nil
}

// IssueToken implements device.DeviceService.
func (s *DeviceServiceImpl) IssueToken(ctx context.Context, req device.TokenRequest) (device.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return device.TokenResponse{}, err
	}

	d, err := s.DeviceRepository.GetByID(ctx, req.DeviceID)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			return device.TokenResponse{}, device.ErrInvalidCredentials
		}
		return device.TokenResponse{}, fmt.Errorf("failed to get device: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(d.SecretHash), []byte(req.Secret)); err != nil {
		return device.TokenResponse{}, device.ErrInvalidCredentials
	}
	if !d.Active {
		return device.TokenResponse{}, device.ErrDeviceInactive
	}

	token, expiresAt, err := s.Service.GenerateDeviceToken(d.ID)
	if err != nil {
		return device.TokenResponse{}, fmt.Errorf("failed to create device token: %w", err)
	}

	return device.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// List implements device.DeviceService.
func (s *DeviceServiceImpl) List(ctx context.Context) ([]device.DeviceResponse, error) {
	devices, err := s.DeviceRepository.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]device.DeviceResponse, 0, len(devices))
	for _, d := range devices {
		resp = append(resp, device.NewDeviceResponse(d))
	}
	return resp, nil
}
