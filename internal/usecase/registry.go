package usecase

import "context"

// CoordinatorRegistry owns one coordinator per configured timezone and
// routes wake-up callbacks to them. It is the single process-wide entry
// point for administrative operations addressed by timezone.
type CoordinatorRegistry interface {
	// Get returns the coordinator for a timezone, or false when the
	// timezone is not managed.
	Get(timezoneID string) (Coordinator, bool)

	// Ensure returns the coordinator for a timezone, creating and
	// initializing one when the zone is valid but not yet managed.
	Ensure(ctx context.Context, timezoneID string) (Coordinator, error)

	// All returns every managed coordinator, ordered by timezone ID.
	All() []Coordinator

	// Start initializes every coordinator. Individual failures are
	// logged and do not stop the others.
	Start(ctx context.Context) error

	// Stop cancels all wake-ups and releases resources.
	Stop(ctx context.Context) error
}
