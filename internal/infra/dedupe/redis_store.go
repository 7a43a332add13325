package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dailypush/config"
	"dailypush/internal/domain/entity"
	"dailypush/internal/domain/service"
	"dailypush/internal/errors"

	"github.com/redis/go-redis/v9"
)

// claimKey builds the per-phase claim key. The date segment scopes claims to
// one calendar day; TTL is a safety net, not the scoping mechanism.
func claimKey(phase entity.Phase, deviceID string, date time.Time) string {
	return fmt.Sprintf("dailypush:claim:%s:%s:%s", phase, deviceID, entity.DateKey(date))
}

type redisStore struct {
	client   *redis.Client
	ttl      time.Duration
	failOpen bool
	logger   *slog.Logger
}

// NewDeduplicationStore builds the claim store. A nil client selects the
// in-memory implementation, which is per-process only and meant for
// development and tests.
func NewDeduplicationStore(client *redis.Client, cfg *config.Config, logger *slog.Logger) service.DeduplicationStore {
	if client == nil {
		logger.Warn("using in-memory claim store, claims are not shared across processes")

		return NewMemoryStore(cfg.Dedupe.ClaimTTL)
	}

	return &redisStore{
		client:   client,
		ttl:      cfg.Dedupe.ClaimTTL,
		failOpen: cfg.Dedupe.FailMode == config.FailModeOpen,
		logger:   logger,
	}
}

// TryClaim creates the claim with SETNX semantics. The atomic create is the
// decision itself; winning means the key did not exist.
func (s *redisStore) TryClaim(ctx context.Context, deviceID string, date time.Time, phase entity.Phase) (bool, error) {
	if deviceID == "" {
		return false, errors.New("device id is empty")
	}

	key := claimKey(phase, deviceID, date)
	won, err := s.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return s.storeUnavailable(ctx, "claim", key, err), nil
	}

	return won, nil
}

// TryClaimRetry requires an existing morning claim before attempting the
// retry claim. A device that never got a morning push has nothing to retry.
func (s *redisStore) TryClaimRetry(ctx context.Context, deviceID string, date time.Time) (bool, error) {
	if deviceID == "" {
		return false, errors.New("device id is empty")
	}

	morningKey := claimKey(entity.PhaseMorning, deviceID, date)
	exists, err := s.client.Exists(ctx, morningKey).Result()
	if err != nil {
		return s.storeUnavailable(ctx, "retry precondition", morningKey, err), nil
	}
	if exists == 0 {
		return false, nil
	}

	return s.TryClaim(ctx, deviceID, date, entity.PhaseRetry)
}

func (s *redisStore) Release(ctx context.Context, deviceID string, date time.Time, phase entity.Phase) error {
	if deviceID == "" {
		return errors.New("device id is empty")
	}

	if err := s.client.Del(ctx, claimKey(phase, deviceID, date)).Err(); err != nil {
		return errors.Wrap(err, "release claim")
	}

	return nil
}

func (s *redisStore) Status(ctx context.Context, deviceID string, date time.Time) (*entity.ClaimStatus, error) {
	if deviceID == "" {
		return nil, errors.New("device id is empty")
	}

	status := &entity.ClaimStatus{
		DeviceID: deviceID,
		DateKey:  entity.DateKey(date),
	}

	claimedAt, claimed, err := s.lookupClaim(ctx, claimKey(entity.PhaseMorning, deviceID, date))
	if err != nil {
		return nil, err
	}
	status.MorningClaimed = claimed
	status.MorningAt = claimedAt

	claimedAt, claimed, err = s.lookupClaim(ctx, claimKey(entity.PhaseRetry, deviceID, date))
	if err != nil {
		return nil, err
	}
	status.RetryClaimed = claimed
	status.RetryAt = claimedAt

	return status, nil
}

func (s *redisStore) lookupClaim(ctx context.Context, key string) (*time.Time, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, errors.Wrap(err, "lookup claim")
	}

	claimedAt, parseErr := time.Parse(time.RFC3339, value)
	if parseErr != nil {
		return nil, true, nil
	}

	return &claimedAt, true, nil
}

// storeUnavailable resolves a transient store error according to the fail
// mode: open answers "you won" and risks a duplicate, closed answers "you
// lost" and risks a miss.
func (s *redisStore) storeUnavailable(ctx context.Context, op, key string, err error) bool {
	s.logger.WarnContext(ctx, "claim store unavailable",
		slog.String("op", op),
		slog.String("key", key),
		slog.Bool("fail_open", s.failOpen),
		slog.Any("error", err))

	return s.failOpen
}
