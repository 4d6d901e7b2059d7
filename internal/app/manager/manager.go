// Package manager собирает зависимости команд isp-manager: хранилище, кеш,
// доставку напоминаний и сервисы.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/isp-manager/internal/cache"
	"github.com/magabrotheeeer/isp-manager/internal/cli"
	"github.com/magabrotheeeer/isp-manager/internal/config"
	"github.com/magabrotheeeer/isp-manager/internal/lib/logger"
	"github.com/magabrotheeeer/isp-manager/internal/lib/sl"
	"github.com/magabrotheeeer/isp-manager/internal/models"
	"github.com/magabrotheeeer/isp-manager/internal/notify"
	"github.com/magabrotheeeer/isp-manager/internal/services"
	"github.com/magabrotheeeer/isp-manager/internal/storage"
	"github.com/magabrotheeeer/isp-manager/internal/validation"
)

type closableCache interface {
	services.Cache
	Close() error
}

// Load читает конфигурацию и собирает Backend. Подходит как cli.Loader.
func Load(ctx context.Context, configPath string) (*cli.Backend, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, logger.New(cfg.Env, cfg.Log))
}

// New открывает хранилище, применяет миграции (если они не отключены) и
// связывает сервисы. Недоступный redis не мешает работе: кеш отключается.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*cli.Backend, error) {
	const op = "app.manager.New"

	db, err := storage.New(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !cfg.SkipMigrate {
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	c := newCache(ctx, cfg.RedisConnection, log)

	var notifier services.Notifier = notify.NewLogNotifier(log)
	var broker *brokerNotifier
	if cfg.RabbitMQURL != "" {
		broker = newBrokerNotifier(cfg.RabbitMQ, log)
		notifier = broker
	}

	deps := services.Deps{
		Tx:        transactor{db: db},
		Cache:     c,
		Validator: validation.New(models.NewPriceRange(cfg.PriceMin, cfg.PriceMax)),
		Log:       log,
		Now:       time.Now,
		CacheTTL:  cfg.TTL,
	}

	return &cli.Backend{
		Customers:     services.NewCustomerService(deps),
		Plans:         services.NewPlanService(deps),
		Subscriptions: services.NewSubscriptionService(deps),
		Reminders:     services.NewReminderService(deps, notifier, cfg.ReminderWindowDays, cfg.Currency),
		Migrate: func() (uint, error) {
			if err := db.Migrate(); err != nil {
				return 0, err
			}
			return db.Version()
		},
		Currency: cfg.Currency,
		Now:      time.Now,
		Log:      log,
		Close: func() error {
			var errs []error
			if broker != nil {
				errs = append(errs, broker.Close())
			}
			errs = append(errs, c.Close(), db.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func newCache(ctx context.Context, cfg config.RedisConnection, log *slog.Logger) closableCache {
	if cfg.AddressRedis == "" {
		return cache.Noop{}
	}
	redisCache, err := cache.InitServer(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, cache disabled", slog.String("address", cfg.AddressRedis), sl.Err(err))
		return cache.Noop{}
	}
	return redisCache
}

var _ services.Repository = (*storage.Tx)(nil)

// transactor отдаёт сервисам транзакцию хранилища как services.Repository.
type transactor struct {
	db *storage.Storage
}

func (t transactor) WithinTx(ctx context.Context, fn func(repo services.Repository) error) error {
	return t.db.WithinTx(ctx, func(tx *storage.Tx) error {
		return fn(tx)
	})
}
