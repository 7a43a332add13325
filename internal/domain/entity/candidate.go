package entity

import (
	"time"

	"github.com/google/uuid"
)

// DeviceCandidate is a (user, device) pairing eligible for a push before
// conflict resolution. The same physical device may appear under several
// user accounts (e.g. after a re-login); exactly one candidate per device
// wins a scheduling run.
type DeviceCandidate struct {
	UserID          uuid.UUID `json:"user_id"`
	DeviceID        string    `json:"device_id"`
	PushToken       string    `json:"push_token"`
	TimezoneID      string    `json:"timezone_id"`
	PushLanguage    string    `json:"push_language"`
	PushEnabled     bool      `json:"push_enabled"`
	LastTokenUpdate time.Time `json:"last_token_update"`
}

// TokenPrefix returns a loggable prefix of the push token. Full tokens never
// go to logs.
func (c *DeviceCandidate) TokenPrefix() string {
	const n = 8
	if len(c.PushToken) <= n {
		return c.PushToken
	}

	return c.PushToken[:n] + "..."
}
