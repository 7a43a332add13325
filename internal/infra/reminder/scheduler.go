// Package reminder provides the in-process timer facility backing the
// coordinators' daily wake-ups.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dailypush/internal/domain/service"
	"dailypush/internal/errors"

	"go.uber.org/fx"
)

type entry struct {
	ownerKey    string
	name        string
	gen         uint64
	timer       *time.Timer
	period      time.Duration
	scheduledAt time.Time
}

// scheduler fires registered wake-ups through a single bound handler.
// Registration under an existing (owner, name) pair replaces the schedule.
// The period only matters when a handler fails to re-register itself: it is
// the fallback that keeps a wake-up alive after a broken tick.
type scheduler struct {
	ctx    context.Context
	logger *slog.Logger

	mu      sync.Mutex
	handler service.WakeupHandler
	wakeups map[string]*entry
	nextGen uint64
	closed  bool
}

// SchedulerParams holds dependencies for the reminder scheduler, injected by Fx
type SchedulerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Logger *slog.Logger
}

// NewScheduler creates the reminder scheduler and stops every timer on
// shutdown.
func NewScheduler(params SchedulerParams) service.ReminderScheduler {
	s := newScheduler(params.Ctx, params.Logger)
	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			s.close()

			return nil
		},
	})

	return s
}

func newScheduler(ctx context.Context, logger *slog.Logger) *scheduler {
	return &scheduler{
		ctx:     ctx,
		logger:  logger,
		wakeups: make(map[string]*entry),
	}
}

func (s *scheduler) Bind(handler service.WakeupHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

func (s *scheduler) RegisterWakeup(ownerKey, name string, due, period time.Duration) error {
	if ownerKey == "" || name == "" {
		return errors.New("owner key and name are required")
	}
	if due < 0 {
		due = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("reminder scheduler is closed")
	}

	key := wakeupKey(ownerKey, name)
	if existing, ok := s.wakeups[key]; ok {
		existing.timer.Stop()
	}

	s.nextGen++
	e := &entry{
		ownerKey:    ownerKey,
		name:        name,
		gen:         s.nextGen,
		period:      period,
		scheduledAt: time.Now().Add(due),
	}
	gen := e.gen
	e.timer = time.AfterFunc(due, func() { s.fire(key, gen) })
	s.wakeups[key] = e

	return nil
}

func (s *scheduler) CancelWakeup(ownerKey, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := wakeupKey(ownerKey, name)
	e, ok := s.wakeups[key]
	if !ok {
		return nil
	}
	e.timer.Stop()
	delete(s.wakeups, key)

	return nil
}

// fire delivers one wake-up. The generation check drops callbacks from
// timers that were replaced or cancelled after they were armed.
func (s *scheduler) fire(key string, gen uint64) {
	s.mu.Lock()
	e, ok := s.wakeups[key]
	if !ok || e.gen != gen || s.closed {
		s.mu.Unlock()

		return
	}
	handler := s.handler
	ownerKey, name, scheduledAt, period := e.ownerKey, e.name, e.scheduledAt, e.period
	s.mu.Unlock()

	if handler == nil {
		s.logger.Error("wakeup fired with no handler bound",
			slog.String("owner", ownerKey),
			slog.String("wakeup", name))
	} else {
		handler.OnWakeup(s.ctx, ownerKey, name, scheduledAt)
	}

	// Handlers normally re-register during OnWakeup, replacing this entry.
	// If this generation is still current the handler did not, so the
	// period keeps the wake-up alive.
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.wakeups[key]; ok && e.gen == gen && !s.closed && period > 0 {
		e.scheduledAt = time.Now().Add(period)
		e.timer = time.AfterFunc(period, func() { s.fire(key, gen) })
	}
}

func (s *scheduler) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for key, e := range s.wakeups {
		e.timer.Stop()
		delete(s.wakeups, key)
	}
}

func wakeupKey(ownerKey, name string) string {
	return fmt.Sprintf("%s|%s", ownerKey, name)
}
