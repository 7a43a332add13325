package impl

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	domainerrors "dailypush/internal/domain/errors"
	"dailypush/internal/domain/service"
	"dailypush/internal/usecase"
)

// CoordinatorFactory builds a coordinator for one timezone. It fails for
// unknown IANA identifiers.
type CoordinatorFactory func(timezoneID string) (usecase.Coordinator, error)

type coordinatorRegistry struct {
	factory   CoordinatorFactory
	timezones []string
	logger    *slog.Logger

	mu           sync.RWMutex
	coordinators map[string]usecase.Coordinator
}

// NewCoordinatorRegistry creates the registry and binds it to the reminder
// scheduler as the wake-up handler.
func NewCoordinatorRegistry(
	factory CoordinatorFactory,
	timezones []string,
	reminders service.ReminderScheduler,
	logger *slog.Logger,
) usecase.CoordinatorRegistry {
	registry := &coordinatorRegistry{
		factory:      factory,
		timezones:    timezones,
		logger:       logger,
		coordinators: make(map[string]usecase.Coordinator),
	}
	reminders.Bind(registry)

	return registry
}

func (r *coordinatorRegistry) Get(timezoneID string) (usecase.Coordinator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coordinator, ok := r.coordinators[timezoneID]

	return coordinator, ok
}

// Ensure returns the managed coordinator or creates and initializes one for
// a valid but previously unmanaged zone.
func (r *coordinatorRegistry) Ensure(ctx context.Context, timezoneID string) (usecase.Coordinator, error) {
	if coordinator, ok := r.Get(timezoneID); ok {
		return coordinator, nil
	}

	r.mu.Lock()
	if coordinator, ok := r.coordinators[timezoneID]; ok {
		r.mu.Unlock()

		return coordinator, nil
	}

	coordinator, err := r.factory(timezoneID)
	if err != nil {
		r.mu.Unlock()

		return nil, domainerrors.ErrUnknownTimezone.WrapMessage(err.Error())
	}
	r.coordinators[timezoneID] = coordinator
	r.mu.Unlock()

	if err := coordinator.Initialize(ctx); err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "timezone coordinator added",
		slog.String("timezone", timezoneID))

	return coordinator, nil
}

func (r *coordinatorRegistry) All() []usecase.Coordinator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.coordinators))
	for id := range r.coordinators {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	all := make([]usecase.Coordinator, 0, len(ids))
	for _, id := range ids {
		all = append(all, r.coordinators[id])
	}

	return all
}

// Start builds and initializes a coordinator per configured timezone. A
// failing zone is logged and skipped so one bad entry cannot keep the rest
// of the world dark.
func (r *coordinatorRegistry) Start(ctx context.Context) error {
	for _, timezoneID := range r.timezones {
		if _, err := r.Ensure(ctx, timezoneID); err != nil {
			r.logger.ErrorContext(ctx, "coordinator startup failed, skipping timezone",
				slog.String("timezone", timezoneID),
				slog.Any("error", err))
		}
	}

	return nil
}

func (r *coordinatorRegistry) Stop(ctx context.Context) error {
	for _, coordinator := range r.All() {
		if err := coordinator.Shutdown(ctx); err != nil {
			r.logger.WarnContext(ctx, "coordinator shutdown failed",
				slog.String("timezone", coordinator.TimezoneID()),
				slog.Any("error", err))
		}
	}

	return nil
}

// OnWakeup routes a timer callback to its coordinator. Unroutable callbacks
// are logged and dropped.
func (r *coordinatorRegistry) OnWakeup(ctx context.Context, ownerKey, name string, scheduledAt time.Time) {
	coordinator, ok := r.Get(ownerKey)
	if !ok {
		r.logger.WarnContext(ctx, "wakeup for unmanaged timezone, dropping",
			slog.String("timezone", ownerKey),
			slog.String("wakeup", name))

		return
	}
	coordinator.OnWakeup(ctx, name, scheduledAt)
}
