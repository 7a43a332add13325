package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dailypush/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ClaimOncePerDeviceAndDate(t *testing.T) {
	store := NewMemoryStore(24 * time.Hour)
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)

	won, err := store.TryClaim(ctx, "device-1", date, entity.PhaseMorning)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = store.TryClaim(ctx, "device-1", date, entity.PhaseMorning)
	require.NoError(t, err)
	assert.False(t, won)

	// A different date or phase is an independent claim.
	won, err = store.TryClaim(ctx, "device-1", date.AddDate(0, 0, 1), entity.PhaseMorning)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestMemoryStore_ConcurrentClaimsSingleWinner(t *testing.T) {
	store := NewMemoryStore(24 * time.Hour)
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)

	const racers = 50
	var winners atomic.Int64
	var wg sync.WaitGroup
	wg.Add(racers)
	for range racers {
		go func() {
			defer wg.Done()
			won, err := store.TryClaim(ctx, "device-1", date, entity.PhaseMorning)
			assert.NoError(t, err)
			if won {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), winners.Load())
}

func TestMemoryStore_RetryRequiresMorningClaim(t *testing.T) {
	store := NewMemoryStore(24 * time.Hour)
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)

	won, err := store.TryClaimRetry(ctx, "device-1", date)
	require.NoError(t, err)
	assert.False(t, won, "retry without a morning claim must not win")

	_, err = store.TryClaim(ctx, "device-1", date, entity.PhaseMorning)
	require.NoError(t, err)

	won, err = store.TryClaimRetry(ctx, "device-1", date)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = store.TryClaimRetry(ctx, "device-1", date)
	require.NoError(t, err)
	assert.False(t, won, "retry claim is once per day")
}

func TestMemoryStore_ReleaseReopensClaim(t *testing.T) {
	store := NewMemoryStore(24 * time.Hour)
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)

	_, err := store.TryClaim(ctx, "device-1", date, entity.PhaseMorning)
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, "device-1", date, entity.PhaseMorning))

	won, err := store.TryClaim(ctx, "device-1", date, entity.PhaseMorning)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestMemoryStore_ClaimExpiresAfterTTL(t *testing.T) {
	impl := &memoryStore{
		claims: make(map[string]time.Time),
		ttl:    24 * time.Hour,
	}
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return now }

	ctx := context.Background()
	date := now

	won, err := impl.TryClaim(ctx, "device-1", date, entity.PhaseMorning)
	require.NoError(t, err)
	require.True(t, won)

	now = now.Add(23 * time.Hour)
	won, err = impl.TryClaim(ctx, "device-1", date, entity.PhaseMorning)
	require.NoError(t, err)
	assert.False(t, won)

	now = now.Add(2 * time.Hour)
	won, err = impl.TryClaim(ctx, "device-1", date, entity.PhaseMorning)
	require.NoError(t, err)
	assert.True(t, won, "expired claim can be taken again")
}

func TestMemoryStore_Status(t *testing.T) {
	store := NewMemoryStore(24 * time.Hour)
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)

	status, err := store.Status(ctx, "device-1", date)
	require.NoError(t, err)
	assert.False(t, status.MorningClaimed)
	assert.False(t, status.RetryClaimed)

	_, err = store.TryClaim(ctx, "device-1", date, entity.PhaseMorning)
	require.NoError(t, err)
	_, err = store.TryClaimRetry(ctx, "device-1", date)
	require.NoError(t, err)

	status, err = store.Status(ctx, "device-1", date)
	require.NoError(t, err)
	assert.True(t, status.MorningClaimed)
	assert.True(t, status.RetryClaimed)
	assert.NotNil(t, status.MorningAt)
	assert.NotNil(t, status.RetryAt)
	assert.Equal(t, "2026-08-31", status.DateKey)
}

func TestMemoryStore_EmptyDeviceID(t *testing.T) {
	store := NewMemoryStore(24 * time.Hour)
	ctx := context.Background()

	_, err := store.TryClaim(ctx, "", time.Now(), entity.PhaseMorning)
	assert.Error(t, err)

	_, err = store.TryClaimRetry(ctx, "", time.Now())
	assert.Error(t, err)
}
