package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"dailypush/internal/domain/entity"
	"dailypush/internal/domain/repository"
	"dailypush/internal/domain/service"
	"dailypush/internal/usecase"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeContentRepo is an in-memory repository.ContentRepository.
type fakeContentRepo struct {
	active     []*entity.DailyContent
	selections map[string][]string
	activeErr  error

	recordCalls int
	// raceWinner simulates a concurrent process recording the date first.
	raceWinner []string
}

func newFakeContentRepo(active ...*entity.DailyContent) *fakeContentRepo {
	return &fakeContentRepo{
		active:     active,
		selections: make(map[string][]string),
	}
}

func (f *fakeContentRepo) FindActiveContents(context.Context) ([]*entity.DailyContent, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}

	return f.active, nil
}

func (f *fakeContentRepo) FindContentsByIDs(_ context.Context, ids []string) ([]*entity.DailyContent, error) {
	byID := make(map[string]*entity.DailyContent)
	for _, content := range f.active {
		byID[content.ID] = content
	}
	out := make([]*entity.DailyContent, 0, len(ids))
	for _, id := range ids {
		if content, ok := byID[id]; ok {
			out = append(out, content)
		}
	}

	return out, nil
}

func (f *fakeContentRepo) FindSelection(_ context.Context, dateKey string) ([]string, error) {
	if ids, ok := f.selections[dateKey]; ok {
		return ids, nil
	}

	return nil, repository.ErrSelectionNotFound
}

func (f *fakeContentRepo) RecordSelection(_ context.Context, dateKey string, contentIDs []string) ([]string, error) {
	f.recordCalls++
	if f.raceWinner != nil {
		f.selections[dateKey] = f.raceWinner

		return f.raceWinner, nil
	}
	if existing, ok := f.selections[dateKey]; ok {
		return existing, nil
	}
	f.selections[dateKey] = contentIDs

	return contentIDs, nil
}

func (f *fakeContentRepo) UsedContentIDs(_ context.Context, fromDateKey, toDateKey string) ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string
	for dateKey, selection := range f.selections {
		if dateKey < fromDateKey || dateKey > toDateKey {
			continue
		}
		for _, id := range selection {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// fakeScheduleRepo is an in-memory repository.ScheduleRepository.
type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*entity.TimezoneSchedule
	saveErr   error
	saves     int
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[string]*entity.TimezoneSchedule)}
}

func (f *fakeScheduleRepo) Save(_ context.Context, schedule *entity.TimezoneSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	snapshot := *schedule
	f.schedules[schedule.TimezoneID] = &snapshot

	return nil
}

func (f *fakeScheduleRepo) FindByTimezone(_ context.Context, timezoneID string) (*entity.TimezoneSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	schedule, ok := f.schedules[timezoneID]
	if !ok {
		return nil, repository.ErrScheduleNotFound
	}
	snapshot := *schedule

	return &snapshot, nil
}

func (f *fakeScheduleRepo) FindAll(context.Context) ([]*entity.TimezoneSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.TimezoneSchedule, 0, len(f.schedules))
	for _, schedule := range f.schedules {
		snapshot := *schedule
		out = append(out, &snapshot)
	}

	return out, nil
}

// fakeUserDir is an in-memory repository.UserDirectory.
type fakeUserDir struct {
	users      []uuid.UUID
	devices    map[uuid.UUID][]*entity.DeviceCandidate
	deviceErrs map[uuid.UUID]error
}

func newFakeUserDir() *fakeUserDir {
	return &fakeUserDir{
		devices:    make(map[uuid.UUID][]*entity.DeviceCandidate),
		deviceErrs: make(map[uuid.UUID]error),
	}
}

func (f *fakeUserDir) ListSubscribedUsers(_ context.Context, _ string, offset, limit int) ([]uuid.UUID, error) {
	if offset >= len(f.users) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.users) {
		end = len(f.users)
	}

	return f.users[offset:end], nil
}

func (f *fakeUserDir) GetEligibleDevices(_ context.Context, userID uuid.UUID, _ string) ([]*entity.DeviceCandidate, error) {
	if err := f.deviceErrs[userID]; err != nil {
		return nil, err
	}

	return f.devices[userID], nil
}

// fakeDedupe is an in-memory service.DeduplicationStore that tracks releases.
type fakeDedupe struct {
	mu       sync.Mutex
	claims   map[string]bool
	released []string
}

func newFakeDedupe() *fakeDedupe {
	return &fakeDedupe{claims: make(map[string]bool)}
}

func (f *fakeDedupe) key(phase entity.Phase, deviceID string, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", phase, deviceID, entity.DateKey(date))
}

func (f *fakeDedupe) TryClaim(_ context.Context, deviceID string, date time.Time, phase entity.Phase) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := f.key(phase, deviceID, date)
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true

	return true, nil
}

func (f *fakeDedupe) TryClaimRetry(ctx context.Context, deviceID string, date time.Time) (bool, error) {
	f.mu.Lock()
	hasMorning := f.claims[f.key(entity.PhaseMorning, deviceID, date)]
	f.mu.Unlock()
	if !hasMorning {
		return false, nil
	}

	return f.TryClaim(ctx, deviceID, date, entity.PhaseRetry)
}

func (f *fakeDedupe) Release(_ context.Context, deviceID string, date time.Time, phase entity.Phase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := f.key(phase, deviceID, date)
	delete(f.claims, key)
	f.released = append(f.released, key)

	return nil
}

func (f *fakeDedupe) Status(_ context.Context, deviceID string, date time.Time) (*entity.ClaimStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return &entity.ClaimStatus{
		DeviceID:       deviceID,
		DateKey:        entity.DateKey(date),
		MorningClaimed: f.claims[f.key(entity.PhaseMorning, deviceID, date)],
		RetryClaimed:   f.claims[f.key(entity.PhaseRetry, deviceID, date)],
	}, nil
}

type sentPush struct {
	token string
	title string
	data  map[string]string
}

// fakeDispatcher records sends and fails configured tokens.
type fakeDispatcher struct {
	mu         sync.Mutex
	failTokens map[string]bool
	sent       []sentPush
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{failTokens: make(map[string]bool)}
}

func (f *fakeDispatcher) Send(_ context.Context, token, title, _ string, data map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTokens[token] {
		return fmt.Errorf("send rejected for %s", token)
	}
	f.sent = append(f.sent, sentPush{token: token, title: title, data: data})

	return nil
}

func (f *fakeDispatcher) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sent)
}

type registration struct {
	due    time.Duration
	period time.Duration
}

// fakeReminders records registrations without arming timers.
type fakeReminders struct {
	mu            sync.Mutex
	handler       service.WakeupHandler
	registrations map[string]registration
	cancelled     []string
}

func newFakeReminders() *fakeReminders {
	return &fakeReminders{registrations: make(map[string]registration)}
}

func (f *fakeReminders) Bind(handler service.WakeupHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
}

func (f *fakeReminders) RegisterWakeup(ownerKey, name string, due, period time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registrations[ownerKey+"|"+name] = registration{due: due, period: period}

	return nil
}

func (f *fakeReminders) CancelWakeup(ownerKey, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ownerKey + "|" + name
	delete(f.registrations, key)
	f.cancelled = append(f.cancelled, key)

	return nil
}

// fakePublisher records run events.
type fakePublisher struct {
	mu     sync.Mutex
	events []*service.RunEvent
}

func (f *fakePublisher) PublishRunEvent(_ context.Context, event *service.RunEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)

	return nil
}

func (f *fakePublisher) Close() error { return nil }

// fakeReadReceipts is an in-memory service.ReadReceiptStore.
type fakeReadReceipts struct {
	read    map[string]bool
	lookups int
	err     error
}

func newFakeReadReceipts() *fakeReadReceipts {
	return &fakeReadReceipts{read: make(map[string]bool)}
}

func (f *fakeReadReceipts) MarkRead(_ context.Context, userID string, date time.Time) error {
	f.read[userID+"|"+entity.DateKey(date)] = true

	return nil
}

func (f *fakeReadReceipts) IsRead(_ context.Context, userID string, date time.Time) (bool, error) {
	f.lookups++
	if f.err != nil {
		return false, f.err
	}

	return f.read[userID+"|"+entity.DateKey(date)], nil
}

// fakeSelector returns fixed contents.
type fakeSelector struct {
	contents []*entity.DailyContent
	err      error
}

func (f *fakeSelector) SelectForDate(context.Context, time.Time) ([]*entity.DailyContent, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.contents, nil
}

var _ usecase.ContentSelector = (*fakeSelector)(nil)
var _ usecase.CandidateResolver = (*fakeResolver)(nil)

// fakeResolver returns fixed candidates and records how it was called.
type fakeResolver struct {
	candidates []*entity.DeviceCandidate
	err        error

	lastPhase  entity.Phase
	lastBypass bool
}

func (f *fakeResolver) Resolve(_ context.Context, _ string, _ time.Time, _ []uuid.UUID, phase entity.Phase, bypassRead bool) ([]*entity.DeviceCandidate, error) {
	f.lastPhase = phase
	f.lastBypass = bypassRead
	if f.err != nil {
		return nil, f.err
	}

	return f.candidates, nil
}
