package impl

import (
	"context"
	"testing"
	"time"

	"dailypush/internal/domain/entity"
	"dailypush/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testZone = "America/New_York"

func device(userID uuid.UUID, deviceID, token string, enabled bool, tokenAge time.Time) *entity.DeviceCandidate {
	return &entity.DeviceCandidate{
		UserID:          userID,
		DeviceID:        deviceID,
		PushToken:       token,
		TimezoneID:      testZone,
		PushLanguage:    "en",
		PushEnabled:     enabled,
		LastTokenUpdate: tokenAge,
	}
}

func TestResolve_DeduplicatesSharedDevice(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	userA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	userB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	dir := newFakeUserDir()
	dir.devices[userA] = []*entity.DeviceCandidate{device(userA, "shared-device", "tok-a", true, older)}
	dir.devices[userB] = []*entity.DeviceCandidate{device(userB, "shared-device", "tok-b", true, newer)}

	resolver := NewCandidateResolver(dir, newFakeReadReceipts(), testLogger())

	winners, err := resolver.Resolve(ctx, testZone, date, []uuid.UUID{userA, userB}, entity.PhaseMorning, false)
	require.NoError(t, err)
	require.Len(t, winners, 1, "one physical device gets one push")
	assert.Equal(t, userB, winners[0].UserID, "freshest token wins")
	assert.Equal(t, "tok-b", winners[0].PushToken)
}

func TestResolve_TieBreaksOnSmallerUserID(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	userA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	userB := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	sameTime := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	dir := newFakeUserDir()
	dir.devices[userA] = []*entity.DeviceCandidate{device(userA, "shared-device", "tok-a", true, sameTime)}
	dir.devices[userB] = []*entity.DeviceCandidate{device(userB, "shared-device", "tok-b", true, sameTime)}

	resolver := NewCandidateResolver(dir, newFakeReadReceipts(), testLogger())

	// Order of the input page must not affect the outcome.
	for _, page := range [][]uuid.UUID{{userA, userB}, {userB, userA}} {
		winners, err := resolver.Resolve(ctx, testZone, date, page, entity.PhaseMorning, false)
		require.NoError(t, err)
		require.Len(t, winners, 1)
		assert.Equal(t, userA, winners[0].UserID)
	}
}

func TestResolve_FiltersDisabledAndTokenless(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	userA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	now := time.Now()

	dir := newFakeUserDir()
	dir.devices[userA] = []*entity.DeviceCandidate{
		device(userA, "disabled-device", "tok-1", false, now),
		device(userA, "tokenless-device", "", true, now),
		device(userA, "good-device", "tok-2", true, now),
	}

	resolver := NewCandidateResolver(dir, newFakeReadReceipts(), testLogger())

	winners, err := resolver.Resolve(ctx, testZone, date, []uuid.UUID{userA}, entity.PhaseMorning, false)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "good-device", winners[0].DeviceID)
}

func TestResolve_DisabledRegistrationDoesNotShadowEnabledOne(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	userA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	userB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	dir := newFakeUserDir()
	// The disabled registration has the freshest token but must lose.
	dir.devices[userA] = []*entity.DeviceCandidate{
		device(userA, "shared-device", "tok-a", false, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)),
	}
	dir.devices[userB] = []*entity.DeviceCandidate{
		device(userB, "shared-device", "tok-b", true, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
	}

	resolver := NewCandidateResolver(dir, newFakeReadReceipts(), testLogger())

	winners, err := resolver.Resolve(ctx, testZone, date, []uuid.UUID{userA, userB}, entity.PhaseMorning, false)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, userB, winners[0].UserID)
}

func TestResolve_RetrySkipsUsersWhoRead(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	reader := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	nonReader := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	now := time.Now()

	dir := newFakeUserDir()
	dir.devices[reader] = []*entity.DeviceCandidate{device(reader, "device-1", "tok-1", true, now)}
	dir.devices[nonReader] = []*entity.DeviceCandidate{device(nonReader, "device-2", "tok-2", true, now)}

	receipts := newFakeReadReceipts()
	require.NoError(t, receipts.MarkRead(ctx, reader.String(), date))

	resolver := NewCandidateResolver(dir, receipts, testLogger())

	winners, err := resolver.Resolve(ctx, testZone, date, []uuid.UUID{reader, nonReader}, entity.PhaseRetry, false)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "device-2", winners[0].DeviceID)

	// The morning phase never consults read receipts.
	winners, err = resolver.Resolve(ctx, testZone, date, []uuid.UUID{reader, nonReader}, entity.PhaseMorning, false)
	require.NoError(t, err)
	assert.Len(t, winners, 2)
}

func TestResolve_BypassReadIncludesReaders(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	reader := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	dir := newFakeUserDir()
	dir.devices[reader] = []*entity.DeviceCandidate{device(reader, "device-1", "tok-1", true, time.Now())}

	receipts := newFakeReadReceipts()
	require.NoError(t, receipts.MarkRead(ctx, reader.String(), date))

	resolver := NewCandidateResolver(dir, receipts, testLogger())

	winners, err := resolver.Resolve(ctx, testZone, date, []uuid.UUID{reader}, entity.PhaseRetry, true)
	require.NoError(t, err)
	assert.Len(t, winners, 1)
	assert.Zero(t, receipts.lookups, "forced runs skip the receipt lookup entirely")
}

func TestResolve_ReceiptLookupFailureCountsAsUnread(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	userA := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	dir := newFakeUserDir()
	dir.devices[userA] = []*entity.DeviceCandidate{device(userA, "device-1", "tok-1", true, time.Now())}

	receipts := newFakeReadReceipts()
	receipts.err = errors.New("receipt backend down")

	resolver := NewCandidateResolver(dir, receipts, testLogger())

	winners, err := resolver.Resolve(ctx, testZone, date, []uuid.UUID{userA}, entity.PhaseRetry, false)
	require.NoError(t, err)
	assert.Len(t, winners, 1, "unknown read state still gets the retry push")
}

func TestResolve_DeviceLookupFailureSkipsUserOnly(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	broken := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	healthy := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	dir := newFakeUserDir()
	dir.deviceErrs[broken] = errors.New("query timeout")
	dir.devices[healthy] = []*entity.DeviceCandidate{device(healthy, "device-2", "tok-2", true, time.Now())}

	resolver := NewCandidateResolver(dir, newFakeReadReceipts(), testLogger())

	winners, err := resolver.Resolve(ctx, testZone, date, []uuid.UUID{broken, healthy}, entity.PhaseMorning, false)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "device-2", winners[0].DeviceID)
}

func TestResolve_ResultSortedByDeviceID(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	userA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	now := time.Now()

	dir := newFakeUserDir()
	dir.devices[userA] = []*entity.DeviceCandidate{
		device(userA, "zz-device", "tok-1", true, now),
		device(userA, "aa-device", "tok-2", true, now),
		device(userA, "mm-device", "tok-3", true, now),
	}

	resolver := NewCandidateResolver(dir, newFakeReadReceipts(), testLogger())

	winners, err := resolver.Resolve(ctx, testZone, date, []uuid.UUID{userA}, entity.PhaseMorning, false)
	require.NoError(t, err)
	require.Len(t, winners, 3)
	assert.Equal(t, "aa-device", winners[0].DeviceID)
	assert.Equal(t, "mm-device", winners[1].DeviceID)
	assert.Equal(t, "zz-device", winners[2].DeviceID)
}
