// Package dedupe implements the cross-process claim and read-receipt stores
// on Redis, with in-memory fallbacks for development and tests.
package dedupe

import (
	"context"
	"crypto/tls"
	"log/slog"
	"strings"
	"time"

	"dailypush/config"
	"dailypush/internal/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// ClientParams holds dependencies for the Redis client, injected by Fx
type ClientParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewClient builds the shared Redis client, or nil when Redis is not
// configured so the stores fall back to their in-memory implementations.
func NewClient(params ClientParams) (*redis.Client, error) {
	cfg := params.Config.Redis
	if cfg == nil || cfg.URL == "" {
		params.Logger.Info("Redis not configured, claim stores will run in-memory")

		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}

	// Harden client timeouts and retries
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	opts.MaxRetries = 3
	opts.MinRetryBackoff = 100 * time.Millisecond
	opts.MaxRetryBackoff = 1 * time.Second

	if opts.TLSConfig == nil && strings.HasPrefix(cfg.URL, "rediss://") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	// Fail fast if not reachable
	if err := client.Ping(params.Ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping failed")
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Closing Redis client")

			return client.Close()
		},
	})

	return client, nil
}
