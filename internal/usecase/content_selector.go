// Package usecase defines the application-layer interfaces of the push
// scheduler.
package usecase

import (
	"context"
	"time"

	"dailypush/internal/domain/entity"
)

// ContentSelector picks the day's push contents. Selection is deterministic
// per calendar date and idempotent across processes: the first selector to
// record a choice for a date wins and every later call returns that same
// choice.
type ContentSelector interface {
	// SelectForDate returns the contents for the given date, selecting and
	// recording them if no selection exists yet. An empty content pool
	// yields an empty slice, not an error.
	SelectForDate(ctx context.Context, date time.Time) ([]*entity.DailyContent, error)
}
