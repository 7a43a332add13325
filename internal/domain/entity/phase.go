// Package entity contains the core business objects of the project.
package entity

import "time"

// Phase identifies one of the two daily push opportunities for a device.
type Phase string

const (
	// PhaseMorning is the first daily push at the configured morning time.
	PhaseMorning Phase = "morning"
	// PhaseRetry is the follow-up push for devices whose user has not
	// read the morning content.
	PhaseRetry Phase = "retry"
)

// DateLayout is the calendar-date form used for claim keys, selection
// records and read receipts.
const DateLayout = "2006-01-02"

// DateKey renders t as a calendar date string.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
