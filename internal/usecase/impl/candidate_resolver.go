package impl

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"dailypush/internal/domain/entity"
	"dailypush/internal/domain/repository"
	"dailypush/internal/domain/service"
	"dailypush/internal/usecase"

	"github.com/google/uuid"
)

type candidateResolver struct {
	userDir      repository.UserDirectory
	readReceipts service.ReadReceiptStore
	logger       *slog.Logger
}

// NewCandidateResolver creates a new candidate resolver instance
func NewCandidateResolver(
	userDir repository.UserDirectory,
	readReceipts service.ReadReceiptStore,
	logger *slog.Logger,
) usecase.CandidateResolver {
	return &candidateResolver{
		userDir:      userDir,
		readReceipts: readReceipts,
		logger:       logger,
	}
}

// Resolve collects eligible devices for a page of users and collapses
// devices shared across accounts to a single representative. Per-user
// lookup failures are logged and skipped so one bad account cannot starve
// the rest of the page.
func (r *candidateResolver) Resolve(
	ctx context.Context,
	timezoneID string,
	date time.Time,
	userIDs []uuid.UUID,
	phase entity.Phase,
	bypassRead bool,
) ([]*entity.DeviceCandidate, error) {
	byDevice := make(map[string][]*entity.DeviceCandidate)

	for _, userID := range userIDs {
		if phase == entity.PhaseRetry && !bypassRead {
			read, err := r.readReceipts.IsRead(ctx, userID.String(), date)
			if err != nil {
				// Unknown read state counts as unread.
				r.logger.WarnContext(ctx, "read receipt lookup failed, treating as unread",
					slog.String("user_id", userID.String()),
					slog.Any("error", err))
			}
			if read {
				continue
			}
		}

		devices, err := r.userDir.GetEligibleDevices(ctx, userID, timezoneID)
		if err != nil {
			r.logger.WarnContext(ctx, "device lookup failed, skipping user",
				slog.String("user_id", userID.String()),
				slog.String("timezone", timezoneID),
				slog.Any("error", err))

			continue
		}

		for _, device := range devices {
			byDevice[device.DeviceID] = append(byDevice[device.DeviceID], device)
		}
	}

	winners := make([]*entity.DeviceCandidate, 0, len(byDevice))
	for deviceID, group := range byDevice {
		winner := pickWinner(group)
		if winner == nil {
			r.logger.DebugContext(ctx, "device has no pushable registration, skipping",
				slog.String("device_id", deviceID))

			continue
		}
		winners = append(winners, winner)
	}

	sort.Slice(winners, func(i, j int) bool { return winners[i].DeviceID < winners[j].DeviceID })

	return winners, nil
}

// pickWinner selects the registration with the freshest token. Ties break
// on the lexicographically smaller user ID so the outcome is stable across
// runs and processes.
func pickWinner(group []*entity.DeviceCandidate) *entity.DeviceCandidate {
	var winner *entity.DeviceCandidate
	for _, candidate := range group {
		if !candidate.PushEnabled || candidate.PushToken == "" {
			continue
		}
		if winner == nil {
			winner = candidate

			continue
		}
		if candidate.LastTokenUpdate.After(winner.LastTokenUpdate) {
			winner = candidate

			continue
		}
		if candidate.LastTokenUpdate.Equal(winner.LastTokenUpdate) &&
			candidate.UserID.String() < winner.UserID.String() {
			winner = candidate
		}
	}

	return winner
}
