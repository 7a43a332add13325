package main

import (
	"context"
	"log/slog"
	"os"

	"dailypush/config"
	"dailypush/internal/delivery"
	"dailypush/internal/delivery/http"
	"dailypush/internal/delivery/http/middleware"
	"dailypush/internal/delivery/http/router/handler"
	"dailypush/internal/domain/repository"
	"dailypush/internal/domain/service"
	"dailypush/internal/infra/auth"
	"dailypush/internal/infra/dedupe"
	logs "dailypush/internal/infra/log"
	"dailypush/internal/infra/notification"
	"dailypush/internal/infra/persistence/postgres"
	"dailypush/internal/infra/pubsub"
	"dailypush/internal/infra/reminder"
	"dailypush/internal/usecase"
	"dailypush/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
			startCoordinators,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		dedupe.NewClient,
		reminder.NewScheduler,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewContentRepository,
			postgres.NewScheduleRepository,
			postgres.NewUserDirectory,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewJWTService,
			dedupe.NewDeduplicationStore,
			dedupe.NewReadReceiptStore,
			pubsub.NewEventPublisher,
			newPushDispatcher,
		),
	)
}

// newPushDispatcher creates the FCM dispatcher, or a dry-run one when
// Firebase is not configured.
func newPushDispatcher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.PushDispatcher, error) {
	if cfg.Firebase == nil || cfg.Firebase.CredentialsPath == "" {
		logger.Warn("Firebase not configured, pushes will be logged only")

		return notification.NewDryRunDispatcher(logger), nil
	}

	return notification.NewFirebaseService(ctx, cfg.Firebase.CredentialsPath)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			newContentSelector,
			impl.NewCandidateResolver,
			newCoordinatorFactory,
			newCoordinatorRegistry,
		),
	)
}

func newContentSelector(contentRepo repository.ContentRepository, cfg *config.Config, logger *slog.Logger) usecase.ContentSelector {
	return impl.NewContentSelector(
		contentRepo,
		cfg.Scheduler.DailyContentCount,
		cfg.Scheduler.ContentHistoryDays,
		logger,
	)
}

// coordinatorDeps bundles everything a timezone coordinator needs so the
// factory can stamp them out per zone.
type coordinatorDeps struct {
	fx.In

	Config       *config.Config
	ScheduleRepo repository.ScheduleRepository
	UserDir      repository.UserDirectory
	Selector     usecase.ContentSelector
	Resolver     usecase.CandidateResolver
	Dedupe       service.DeduplicationStore
	Dispatcher   service.PushDispatcher
	Reminders    service.ReminderScheduler
	Publisher    service.EventPublisher
	Logger       *slog.Logger
}

func newCoordinatorFactory(deps coordinatorDeps) impl.CoordinatorFactory {
	return func(timezoneID string) (usecase.Coordinator, error) {
		return impl.NewTimezoneCoordinator(
			timezoneID,
			deps.Config,
			deps.ScheduleRepo,
			deps.UserDir,
			deps.Selector,
			deps.Resolver,
			deps.Dedupe,
			deps.Dispatcher,
			deps.Reminders,
			deps.Publisher,
			deps.Logger,
		)
	}
}

func newCoordinatorRegistry(
	factory impl.CoordinatorFactory,
	cfg *config.Config,
	reminders service.ReminderScheduler,
	logger *slog.Logger,
) usecase.CoordinatorRegistry {
	return impl.NewCoordinatorRegistry(factory, cfg.Scheduler.Timezones, reminders, logger)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
			middleware.NewLoggerMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewScheduleHandler,
			handler.NewClaimsHandler,
			handler.NewReadHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}

func startCoordinators(lc fx.Lifecycle, registry usecase.CoordinatorRegistry) {
	lc.Append(fx.Hook{
		OnStart: registry.Start,
		OnStop:  registry.Stop,
	})
}
