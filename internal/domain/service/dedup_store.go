// Package service defines the domain-level service interfaces implemented
// by the infra layer.
package service

import (
	"context"
	"time"

	"dailypush/internal/domain/entity"
)

// DeduplicationStore is the cross-process claim-once layer keyed by
// (device, calendar date, phase). Its create-if-absent atomicity is the only
// mutual-exclusion mechanism shared between nodes, so the same physical
// device never receives two pushes for the same phase and date no matter
// how many coordinators race for it.
//
// Implementations own the availability policy: when the backing store is
// unreachable they answer according to their configured fail mode instead of
// surfacing the outage, so a store incident degrades to duplicates rather
// than silence. The error returns are reserved for invalid input.
type DeduplicationStore interface {
	// TryClaim atomically creates the claim if absent and reports whether
	// this caller won it. The creation itself is the decision; there is
	// no prior read.
	TryClaim(ctx context.Context, deviceID string, date time.Time, phase entity.Phase) (bool, error)

	// TryClaimRetry behaves like TryClaim for the retry phase but first
	// requires an existing morning claim for the same device and date.
	// Without one it returns false and creates nothing.
	TryClaimRetry(ctx context.Context, deviceID string, date time.Time) (bool, error)

	// Release deletes a claim after a confirmed dispatch failure so a
	// later attempt is not blocked until TTL expiry.
	Release(ctx context.Context, deviceID string, date time.Time, phase entity.Phase) error

	// Status is the read-only diagnostic view of both phases.
	Status(ctx context.Context, deviceID string, date time.Time) (*entity.ClaimStatus, error)
}

// ReadReceiptStore tracks which users have read the day's push. Retry runs
// skip users with a receipt. Lookups fail towards "unread" so a store outage
// produces an extra retry push, never a missed one.
type ReadReceiptStore interface {
	MarkRead(ctx context.Context, userID string, date time.Time) error
	IsRead(ctx context.Context, userID string, date time.Time) (bool, error)
}
