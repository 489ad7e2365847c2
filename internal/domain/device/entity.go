package device

import "time"

// Device is a registered capture station allowed to push records to the central store.
type Device struct {
	ID         string
	Name       string
	SecretHash string
	Active     bool
	LastSeenAt *time.Time
	CreatedAt  time.Time
}
