package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeDevice = "device"
	ClaimDeviceID   = "device_id"
	ClaimType       = "type"
)

type Service interface {
	// GenerateDeviceToken issues a bearer token that lets a device push sync batches.
	GenerateDeviceToken(deviceID string) (token string, expiresAt int64, err error)
	ValidateDeviceToken(tokenString string) (deviceID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	deviceTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, deviceTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		deviceTokenExpirationTime: deviceTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateDeviceToken(deviceID string) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.deviceTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		ClaimDeviceID: deviceID,
		ClaimType:     TokenTypeDevice,
		"exp":         expiresAt,
	})
	return tokenString, expiresAt, err
}

// ValidateDeviceToken verifies signature, expiry and token type and returns the device ID.
func (j *JWTService) ValidateDeviceToken(tokenString string) (deviceID string, err error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get(ClaimType)
	if !ok || tokenType != TokenTypeDevice {
		return "", jwt.ErrInvalidJWT()
	}

	idVal, ok := token.Get(ClaimDeviceID)
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}
	deviceID, ok = idVal.(string)
	if !ok || deviceID == "" {
		return "", jwt.ErrInvalidJWT()
	}
	return deviceID, nil
}
