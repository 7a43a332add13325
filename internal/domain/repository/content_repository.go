// Package repository defines the persistence interfaces of the domain layer.
package repository

import (
	"context"
	"errors"

	"dailypush/internal/domain/entity"
)

var (
	// ErrContentNotFound is returned when a content item does not exist.
	ErrContentNotFound = errors.New("content not found")
	// ErrSelectionNotFound is returned when no selection has been
	// recorded for a date yet.
	ErrSelectionNotFound = errors.New("daily selection not found")
)

// ContentRepository provides the push content pool and the per-date
// selection records that make content selection idempotent across
// processes and restarts.
type ContentRepository interface {
	// FindActiveContents returns every active item in the pool.
	FindActiveContents(ctx context.Context) ([]*entity.DailyContent, error)

	// FindContentsByIDs returns the active contents for the given IDs,
	// preserving the input order. Missing or inactive IDs are skipped.
	FindContentsByIDs(ctx context.Context, ids []string) ([]*entity.DailyContent, error)

	// FindSelection returns the content IDs recorded for a date, or
	// ErrSelectionNotFound.
	FindSelection(ctx context.Context, dateKey string) ([]string, error)

	// RecordSelection persists the selection for a date unless one
	// already exists, and returns the winning selection either way.
	// The insert and the read-back run in one transaction so concurrent
	// selectors converge on a single result.
	RecordSelection(ctx context.Context, dateKey string, contentIDs []string) ([]string, error)

	// UsedContentIDs returns the IDs selected on any date in
	// [fromDateKey, toDateKey].
	UsedContentIDs(ctx context.Context, fromDateKey, toDateKey string) ([]string, error)
}
