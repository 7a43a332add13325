package usecase

import (
	"context"
	"time"

	"dailypush/internal/domain/entity"

	"github.com/google/uuid"
)

// CandidateResolver turns a page of user IDs into the deduplicated list of
// physical devices to push to. A device registered under several accounts
// appears exactly once, represented by the account that refreshed its token
// most recently.
type CandidateResolver interface {
	// Resolve collects the eligible devices of the given users in one
	// timezone, drops read users on retry runs unless bypassRead is set,
	// and collapses shared devices to a single winner. The result is
	// ordered by device ID.
	Resolve(ctx context.Context, timezoneID string, date time.Time, userIDs []uuid.UUID, phase entity.Phase, bypassRead bool) ([]*entity.DeviceCandidate, error)
}
