package impl

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"dailypush/config"
	"dailypush/internal/domain/entity"
	domainerrors "dailypush/internal/domain/errors"
	"dailypush/internal/domain/repository"
	"dailypush/internal/domain/service"
	"dailypush/internal/errors"
	"dailypush/internal/usecase"

	"golang.org/x/sync/errgroup"
)

const (
	// Wake-up names registered with the reminder scheduler, one per phase.
	morningWakeup = "MorningPush"
	retryWakeup   = "RetryPush"

	// reminderPeriod is deliberately under 24h so the wake-up drifts
	// earlier each day and the per-tick reschedule snaps it back to the
	// configured local fire time, absorbing DST transitions.
	reminderPeriod = 23 * time.Hour

	// toleranceWindow bounds acceptable wake-up lateness. Exceeding it is
	// logged but the run still proceeds.
	toleranceWindow = 5 * time.Minute
)

type timezoneCoordinator struct {
	timezoneID string
	location   *time.Location

	cfg          *config.Config
	scheduleRepo repository.ScheduleRepository
	userDir      repository.UserDirectory
	selector     usecase.ContentSelector
	resolver     usecase.CandidateResolver
	dedupe       service.DeduplicationStore
	dispatcher   service.PushDispatcher
	reminders    service.ReminderScheduler
	publisher    service.EventPublisher
	logger       *slog.Logger

	// mu serializes every entry point so at most one pipeline runs per
	// timezone within this process.
	mu    sync.Mutex
	state *entity.TimezoneSchedule
}

// NewTimezoneCoordinator creates a coordinator for one IANA timezone. It
// fails when the timezone or the configured fire times cannot be parsed.
func NewTimezoneCoordinator(
	timezoneID string,
	cfg *config.Config,
	scheduleRepo repository.ScheduleRepository,
	userDir repository.UserDirectory,
	selector usecase.ContentSelector,
	resolver usecase.CandidateResolver,
	dedupe service.DeduplicationStore,
	dispatcher service.PushDispatcher,
	reminders service.ReminderScheduler,
	publisher service.EventPublisher,
	logger *slog.Logger,
) (usecase.Coordinator, error) {
	location, err := time.LoadLocation(timezoneID)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %s", timezoneID)
	}
	if _, err := time.Parse("15:04", cfg.Scheduler.MorningTime); err != nil {
		return nil, errors.Wrapf(err, "parse morning fire time %s", cfg.Scheduler.MorningTime)
	}
	if _, err := time.Parse("15:04", cfg.Scheduler.RetryTime); err != nil {
		return nil, errors.Wrapf(err, "parse retry fire time %s", cfg.Scheduler.RetryTime)
	}

	return &timezoneCoordinator{
		timezoneID:   timezoneID,
		location:     location,
		cfg:          cfg,
		scheduleRepo: scheduleRepo,
		userDir:      userDir,
		selector:     selector,
		resolver:     resolver,
		dedupe:       dedupe,
		dispatcher:   dispatcher,
		reminders:    reminders,
		publisher:    publisher,
		logger:       logger.With(slog.String("timezone", timezoneID)),
	}, nil
}

func (c *timezoneCoordinator) TimezoneID() string {
	return c.timezoneID
}

// Initialize loads or creates the schedule record and registers both
// wake-ups. Existing records are reconciled against the current
// configuration: a stale version token or drifted fire times are rewritten.
func (c *timezoneCoordinator) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.scheduleRepo.FindByTimezone(ctx, c.timezoneID)
	switch {
	case errors.Is(err, repository.ErrScheduleNotFound):
		c.state = &entity.TimezoneSchedule{}
		if err := c.applyAndSave(ctx, entity.ScheduleInitialized{
			TimezoneID:      c.timezoneID,
			VersionToken:    c.cfg.Scheduler.VersionToken,
			MorningFireTime: c.cfg.Scheduler.MorningTime,
			RetryFireTime:   c.cfg.Scheduler.RetryTime,
			At:              time.Now(),
		}); err != nil {
			return err
		}
		c.logger.InfoContext(ctx, "schedule created")
	case err != nil:
		return errors.Wrap(err, "load schedule")
	default:
		c.state = state
		if err := c.reconcileConfigLocked(ctx); err != nil {
			return err
		}
	}

	return c.registerWakeupsLocked(ctx, time.Now())
}

// reconcileConfigLocked rewrites persisted state that no longer matches the
// current configuration.
func (c *timezoneCoordinator) reconcileConfigLocked(ctx context.Context) error {
	var events []entity.ScheduleEvent
	if c.state.VersionToken != c.cfg.Scheduler.VersionToken {
		events = append(events, entity.VersionTokenRotated{
			VersionToken: c.cfg.Scheduler.VersionToken,
			At:           time.Now(),
		})
	}
	if c.state.MorningFireTime != c.cfg.Scheduler.MorningTime ||
		c.state.RetryFireTime != c.cfg.Scheduler.RetryTime {
		events = append(events, entity.FireTimesChanged{
			MorningFireTime: c.cfg.Scheduler.MorningTime,
			RetryFireTime:   c.cfg.Scheduler.RetryTime,
			At:              time.Now(),
		})
	}
	if len(events) == 0 {
		return nil
	}

	return c.applyAndSave(ctx, events...)
}

// applyAndSave runs events through the reducer on a copy, persists the
// result, and only then adopts it as current state.
func (c *timezoneCoordinator) applyAndSave(ctx context.Context, events ...entity.ScheduleEvent) error {
	next := *c.state
	for _, event := range events {
		next.Apply(event)
	}
	if err := c.scheduleRepo.Save(ctx, &next); err != nil {
		return errors.Wrap(err, "save schedule")
	}
	c.state = &next

	return nil
}

// registerWakeupsLocked registers or refreshes both wake-ups at their next
// local fire times.
func (c *timezoneCoordinator) registerWakeupsLocked(ctx context.Context, now time.Time) error {
	morningDue := c.nextFireDelay(now, c.state.MorningFireTime)
	retryDue := c.nextFireDelay(now, c.state.RetryFireTime)

	if err := c.reminders.RegisterWakeup(c.timezoneID, morningWakeup, morningDue, reminderPeriod); err != nil {
		return errors.Wrap(err, "register morning wakeup")
	}
	if err := c.reminders.RegisterWakeup(c.timezoneID, retryWakeup, retryDue, reminderPeriod); err != nil {
		return errors.Wrap(err, "register retry wakeup")
	}

	c.logger.DebugContext(ctx, "wakeups registered",
		slog.Duration("morning_due", morningDue),
		slog.Duration("retry_due", retryDue))

	return nil
}

// nextFireDelay computes the duration until the next occurrence of a local
// "HH:MM" fire time. Building the target with time.Date in the zone lets the
// standard library resolve DST: a skipped local time lands after the gap, a
// repeated one resolves to a single instant.
func (c *timezoneCoordinator) nextFireDelay(now time.Time, fireTime string) time.Duration {
	parsed, err := time.Parse("15:04", fireTime)
	if err != nil {
		// Validated at construction; a bad persisted value falls back to
		// the configured time.
		parsed, _ = time.Parse("15:04", c.cfg.Scheduler.MorningTime)
	}

	local := now.In(c.location)
	target := time.Date(local.Year(), local.Month(), local.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, c.location)
	if !target.After(now) {
		target = time.Date(local.Year(), local.Month(), local.Day()+1,
			parsed.Hour(), parsed.Minute(), 0, 0, c.location)
	}

	return target.Sub(now)
}

// OnWakeup handles a timer callback. The reschedule runs unconditionally in
// a deferred block so a panicking or failing pipeline never silences the
// timezone; only a stale version token suppresses it.
func (c *timezoneCoordinator) OnWakeup(ctx context.Context, name string, scheduledAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		c.logger.WarnContext(ctx, "wakeup before initialization, ignoring",
			slog.String("wakeup", name))

		return
	}

	c.refreshStateLocked(ctx)

	if c.state.VersionToken != c.cfg.Scheduler.VersionToken {
		c.logger.InfoContext(ctx, "stale scheduler generation, unregistering",
			slog.String("state_token", c.state.VersionToken),
			slog.String("config_token", c.cfg.Scheduler.VersionToken))
		c.cancelWakeupsLocked(ctx)

		return
	}

	defer func() {
		if err := c.registerWakeupsLocked(ctx, time.Now()); err != nil {
			c.logger.ErrorContext(ctx, "reschedule failed",
				slog.String("wakeup", name),
				slog.Any("error", err))
		}
	}()

	if c.state.MorningFireTime != c.cfg.Scheduler.MorningTime ||
		c.state.RetryFireTime != c.cfg.Scheduler.RetryTime {
		c.logger.InfoContext(ctx, "fire times drifted from configuration, updating",
			slog.String("morning", c.cfg.Scheduler.MorningTime),
			slog.String("retry", c.cfg.Scheduler.RetryTime))
		if err := c.reconcileConfigLocked(ctx); err != nil {
			c.logger.ErrorContext(ctx, "fire time update failed", slog.Any("error", err))
		}
	}

	if lateness := time.Since(scheduledAt); lateness > toleranceWindow || lateness < -toleranceWindow {
		c.logger.WarnContext(ctx, "wakeup outside tolerance window",
			slog.String("wakeup", name),
			slog.Duration("lateness", lateness))
	}

	if !c.cfg.Scheduler.PushEnabled {
		c.logger.InfoContext(ctx, "push disabled, skipping run", slog.String("wakeup", name))

		return
	}
	if c.state.Status == entity.StatusPaused || c.state.Status == entity.StatusMaintenance {
		c.logger.InfoContext(ctx, "coordinator not active, skipping run",
			slog.String("wakeup", name),
			slog.String("status", string(c.state.Status)))

		return
	}

	date := time.Now().In(c.location)

	var err error
	switch name {
	case morningWakeup:
		_, err = c.runPipelineLocked(ctx, date, entity.PhaseMorning, false)
	case retryWakeup:
		_, err = c.runPipelineLocked(ctx, date, entity.PhaseRetry, false)
	default:
		c.logger.WarnContext(ctx, "unknown wakeup name", slog.String("wakeup", name))

		return
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("wakeup", name),
			slog.Any("error", err))
		if saveErr := c.applyAndSave(ctx, entity.RunFailed{
			Phase: wakeupPhase(name),
			At:    time.Now(),
		}); saveErr != nil {
			c.logger.ErrorContext(ctx, "record run failure failed", slog.Any("error", saveErr))
		}
	}
}

func wakeupPhase(name string) entity.Phase {
	if name == retryWakeup {
		return entity.PhaseRetry
	}

	return entity.PhaseMorning
}

// refreshStateLocked re-reads the persisted record so an edit from another
// process or the admin surface takes effect at the next tick. A read failure
// keeps the in-memory state.
func (c *timezoneCoordinator) refreshStateLocked(ctx context.Context) {
	state, err := c.scheduleRepo.FindByTimezone(ctx, c.timezoneID)
	if err != nil {
		c.logger.WarnContext(ctx, "schedule refresh failed, using cached state",
			slog.Any("error", err))

		return
	}
	c.state = state
}

func (c *timezoneCoordinator) cancelWakeupsLocked(ctx context.Context) {
	for _, name := range []string{morningWakeup, retryWakeup} {
		if err := c.reminders.CancelWakeup(c.timezoneID, name); err != nil {
			c.logger.WarnContext(ctx, "cancel wakeup failed",
				slog.String("wakeup", name),
				slog.Any("error", err))
		}
	}
}

// RunMorning executes the morning pipeline. Manual runs bypass paused
// status; the per-device claims still apply.
func (c *timezoneCoordinator) RunMorning(ctx context.Context, date time.Time, force bool) (*usecase.RunResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkRunnableLocked(force); err != nil {
		return nil, err
	}

	return c.runPipelineLocked(ctx, date, entity.PhaseMorning, force)
}

// RunRetry executes the retry pipeline. Manual runs additionally bypass the
// read-receipt filter.
func (c *timezoneCoordinator) RunRetry(ctx context.Context, date time.Time, force bool) (*usecase.RunResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkRunnableLocked(force); err != nil {
		return nil, err
	}

	return c.runPipelineLocked(ctx, date, entity.PhaseRetry, force)
}

func (c *timezoneCoordinator) checkRunnableLocked(force bool) error {
	if c.state == nil {
		return domainerrors.ErrScheduleNotFound
	}
	if force {
		return nil
	}
	if c.state.Status == entity.StatusPaused || c.state.Status == entity.StatusMaintenance {
		return domainerrors.ErrSchedulePaused
	}

	return nil
}

// runPipelineLocked selects content, pages through subscribed users, and
// fans dispatches out across a bounded worker group. It records RunCompleted
// and publishes a run summary on success.
func (c *timezoneCoordinator) runPipelineLocked(ctx context.Context, date time.Time, phase entity.Phase, force bool) (*usecase.RunResult, error) {
	started := time.Now()
	dateKey := entity.DateKey(date)

	contents, err := c.selector.SelectForDate(ctx, date)
	if err != nil {
		return nil, errors.Wrap(err, "select content")
	}
	if len(contents) == 0 {
		c.logger.WarnContext(ctx, "no content selected, completing empty run",
			slog.String("phase", string(phase)),
			slog.String("date", dateKey))
	}

	var sent, failed, skipped atomic.Int64
	batchSize := c.cfg.Scheduler.UserBatchSize

	for offset := 0; len(contents) > 0; offset += batchSize {
		userIDs, err := c.userDir.ListSubscribedUsers(ctx, c.timezoneID, offset, batchSize)
		if err != nil {
			return nil, errors.Wrap(err, "list subscribed users")
		}
		if len(userIDs) == 0 {
			break
		}

		candidates, err := c.resolver.Resolve(ctx, c.timezoneID, date, userIDs, phase, force)
		if err != nil {
			return nil, errors.Wrap(err, "resolve candidates")
		}

		c.dispatchBatch(ctx, candidates, contents, date, phase, &sent, &failed, &skipped)

		if len(userIDs) < batchSize {
			break
		}
	}

	result := &usecase.RunResult{
		Sent:    int(sent.Load()),
		Failed:  int(failed.Load()),
		Skipped: int(skipped.Load()),
	}

	if err := c.applyAndSave(ctx, entity.RunCompleted{
		Phase:   phase,
		DateKey: dateKey,
		Sent:    result.Sent,
		Failed:  result.Failed,
		At:      time.Now(),
	}); err != nil {
		return nil, err
	}

	c.publishRunEvent(ctx, phase, dateKey, result)

	c.logger.InfoContext(ctx, "pipeline run completed",
		slog.String("phase", string(phase)),
		slog.String("date", dateKey),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Duration("elapsed", time.Since(started)))

	return result, nil
}

// dispatchBatch claims and pushes to each candidate with bounded
// concurrency. Workers only count outcomes; errors never abort the batch.
func (c *timezoneCoordinator) dispatchBatch(
	ctx context.Context,
	candidates []*entity.DeviceCandidate,
	contents []*entity.DailyContent,
	date time.Time,
	phase entity.Phase,
	sent, failed, skipped *atomic.Int64,
) {
	group := errgroup.Group{}
	group.SetLimit(c.cfg.Scheduler.DispatchConcurrency)

	for _, candidate := range candidates {
		group.Go(func() error {
			c.dispatchOne(ctx, candidate, contents, date, phase, sent, failed, skipped)

			return nil
		})
	}

	// Workers always return nil.
	_ = group.Wait()
}

// dispatchOne claims the device for the phase and sends every content item.
// A device with zero accepted sends counts as failed and its claim is
// released so a later attempt is not blocked until TTL expiry.
func (c *timezoneCoordinator) dispatchOne(
	ctx context.Context,
	candidate *entity.DeviceCandidate,
	contents []*entity.DailyContent,
	date time.Time,
	phase entity.Phase,
	sent, failed, skipped *atomic.Int64,
) {
	var won bool
	var err error
	if phase == entity.PhaseRetry {
		won, err = c.dedupe.TryClaimRetry(ctx, candidate.DeviceID, date)
	} else {
		won, err = c.dedupe.TryClaim(ctx, candidate.DeviceID, date, phase)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "claim failed, skipping device",
			slog.String("device_id", candidate.DeviceID),
			slog.Any("error", err))
		skipped.Add(1)

		return
	}
	if !won {
		skipped.Add(1)

		return
	}

	delivered := 0
	for _, content := range contents {
		text := content.Localize(candidate.PushLanguage)
		data := map[string]string{
			"content_id": content.ID,
			"date":       entity.DateKey(date),
			"phase":      string(phase),
		}
		if sendErr := c.dispatcher.Send(ctx, candidate.PushToken, text.Title, text.Body, data); sendErr != nil {
			c.logger.WarnContext(ctx, "push send failed",
				slog.String("device_id", candidate.DeviceID),
				slog.String("token_prefix", candidate.TokenPrefix()),
				slog.String("content_id", content.ID),
				slog.Any("error", sendErr))

			continue
		}
		delivered++
	}

	if delivered > 0 {
		sent.Add(1)

		return
	}

	failed.Add(1)
	if releaseErr := c.dedupe.Release(ctx, candidate.DeviceID, date, phase); releaseErr != nil {
		c.logger.WarnContext(ctx, "claim release failed",
			slog.String("device_id", candidate.DeviceID),
			slog.Any("error", releaseErr))
	}
}

func (c *timezoneCoordinator) publishRunEvent(ctx context.Context, phase entity.Phase, dateKey string, result *usecase.RunResult) {
	event := &service.RunEvent{
		TimezoneID:  c.timezoneID,
		Phase:       phase,
		DateKey:     dateKey,
		Sent:        result.Sent,
		Failed:      result.Failed,
		Skipped:     result.Skipped,
		CompletedAt: time.Now(),
	}
	if err := c.publisher.PublishRunEvent(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "run event publish failed", slog.Any("error", err))
	}
}

// Pause suspends pipeline execution. Wake-ups keep firing and rescheduling
// so resuming needs no re-registration.
func (c *timezoneCoordinator) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		return domainerrors.ErrScheduleNotFound
	}

	return c.applyAndSave(ctx, entity.StatusChanged{Status: entity.StatusPaused, At: time.Now()})
}

// Resume returns the coordinator to active.
func (c *timezoneCoordinator) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		return domainerrors.ErrScheduleNotFound
	}

	return c.applyAndSave(ctx, entity.StatusChanged{Status: entity.StatusActive, At: time.Now()})
}

// Reinitialize resets the schedule record to the current configuration and
// re-registers both wake-ups.
func (c *timezoneCoordinator) Reinitialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		c.state = &entity.TimezoneSchedule{}
	}
	if err := c.applyAndSave(ctx, entity.ScheduleInitialized{
		TimezoneID:      c.timezoneID,
		VersionToken:    c.cfg.Scheduler.VersionToken,
		MorningFireTime: c.cfg.Scheduler.MorningTime,
		RetryFireTime:   c.cfg.Scheduler.RetryTime,
		At:              time.Now(),
	}); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "schedule reinitialized")

	return c.registerWakeupsLocked(ctx, time.Now())
}

func (c *timezoneCoordinator) Status(ctx context.Context) (*entity.TimezoneSchedule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		return nil, domainerrors.ErrScheduleNotFound
	}
	snapshot := *c.state

	return &snapshot, nil
}

func (c *timezoneCoordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelWakeupsLocked(ctx)

	return nil
}
