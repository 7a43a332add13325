package repository

import (
	"context"

	"dailypush/internal/domain/entity"

	"github.com/google/uuid"
)

// UserDirectory is the read-only view over registered users and their
// devices. Registration itself is owned by another system; the scheduler
// only lists subscribers and their push-eligible devices.
type UserDirectory interface {
	// ListSubscribedUsers pages through the users holding at least one
	// push-enabled device in the timezone, ordered by user ID.
	ListSubscribedUsers(ctx context.Context, timezoneID string, offset, limit int) ([]uuid.UUID, error)

	// GetEligibleDevices returns the user's device registrations in the
	// timezone. Disabled devices are included; conflict resolution
	// decides what to do with them.
	GetEligibleDevices(ctx context.Context, userID uuid.UUID, timezoneID string) ([]*entity.DeviceCandidate, error)
}
