package dedupe

import (
	"context"
	"sync"
	"time"

	"dailypush/internal/domain/entity"
	"dailypush/internal/domain/service"
	"dailypush/internal/errors"
)

// memoryStore is the process-local claim store. It mirrors the Redis
// semantics, including TTL expiry, but shares nothing across processes.
type memoryStore struct {
	mu     sync.Mutex
	claims map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore creates the in-memory claim store.
func NewMemoryStore(ttl time.Duration) service.DeduplicationStore {
	return &memoryStore{
		claims: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *memoryStore) TryClaim(_ context.Context, deviceID string, date time.Time, phase entity.Phase) (bool, error) {
	if deviceID == "" {
		return false, errors.New("device id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.claimLocked(claimKey(phase, deviceID, date)), nil
}

func (s *memoryStore) TryClaimRetry(_ context.Context, deviceID string, date time.Time) (bool, error) {
	if deviceID == "" {
		return false, errors.New("device id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.liveClaimLocked(claimKey(entity.PhaseMorning, deviceID, date)); !ok {
		return false, nil
	}

	return s.claimLocked(claimKey(entity.PhaseRetry, deviceID, date)), nil
}

func (s *memoryStore) Release(_ context.Context, deviceID string, date time.Time, phase entity.Phase) error {
	if deviceID == "" {
		return errors.New("device id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.claims, claimKey(phase, deviceID, date))

	return nil
}

func (s *memoryStore) Status(_ context.Context, deviceID string, date time.Time) (*entity.ClaimStatus, error) {
	if deviceID == "" {
		return nil, errors.New("device id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status := &entity.ClaimStatus{
		DeviceID: deviceID,
		DateKey:  entity.DateKey(date),
	}
	if claimedAt, ok := s.liveClaimLocked(claimKey(entity.PhaseMorning, deviceID, date)); ok {
		status.MorningClaimed = true
		status.MorningAt = &claimedAt
	}
	if claimedAt, ok := s.liveClaimLocked(claimKey(entity.PhaseRetry, deviceID, date)); ok {
		status.RetryClaimed = true
		status.RetryAt = &claimedAt
	}

	return status, nil
}

// claimLocked is the in-memory SETNX: create if absent or expired.
func (s *memoryStore) claimLocked(key string) bool {
	if _, ok := s.liveClaimLocked(key); ok {
		return false
	}
	s.claims[key] = s.now()

	return true
}

func (s *memoryStore) liveClaimLocked(key string) (time.Time, bool) {
	claimedAt, ok := s.claims[key]
	if !ok {
		return time.Time{}, false
	}
	if s.now().Sub(claimedAt) >= s.ttl {
		delete(s.claims, key)

		return time.Time{}, false
	}

	return claimedAt, true
}
