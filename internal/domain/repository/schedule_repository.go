package repository

import (
	"context"
	"errors"

	"dailypush/internal/domain/entity"
)

// ErrScheduleNotFound is returned when no schedule record exists for a timezone.
var ErrScheduleNotFound = errors.New("timezone schedule not found")

// ScheduleRepository persists per-timezone coordinator state.
type ScheduleRepository interface {
	// Save upserts the schedule record keyed by timezone ID.
	Save(ctx context.Context, schedule *entity.TimezoneSchedule) error

	// FindByTimezone returns the record for one timezone, or
	// ErrScheduleNotFound.
	FindByTimezone(ctx context.Context, timezoneID string) (*entity.TimezoneSchedule, error)

	// FindAll returns every persisted schedule record.
	FindAll(ctx context.Context) ([]*entity.TimezoneSchedule, error)
}
