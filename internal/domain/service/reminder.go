package service

import (
	"context"
	"time"
)

// WakeupHandler receives wake-up callbacks. Delivery is at-least-once; the
// handler is responsible for rescheduling itself and must tolerate late or
// duplicate callbacks.
type WakeupHandler interface {
	OnWakeup(ctx context.Context, ownerKey, name string, scheduledAt time.Time)
}

// ReminderScheduler is the timer facility coordinators register their
// wake-ups with. Registering an existing (ownerKey, name) pair replaces its
// schedule, mirroring register-or-update semantics.
type ReminderScheduler interface {
	// Bind installs the handler that receives all wake-up callbacks.
	// Must be called before any wake-up fires.
	Bind(handler WakeupHandler)

	RegisterWakeup(ownerKey, name string, due, period time.Duration) error
	CancelWakeup(ownerKey, name string) error
}
