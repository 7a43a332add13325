package entity

import "time"

// ClaimStatus is the read-only diagnostic view of a device's push claims
// for one calendar date.
type ClaimStatus struct {
	DeviceID       string     `json:"device_id"`
	DateKey        string     `json:"date"`
	MorningClaimed bool       `json:"morning_claimed"`
	RetryClaimed   bool       `json:"retry_claimed"`
	MorningAt      *time.Time `json:"morning_at,omitempty"`
	RetryAt        *time.Time `json:"retry_at,omitempty"`
}
