// @title                       Telemedicine API
// @version                     1.0
// @description                 Appointments, chat, prescriptions and role dashboards for a small clinic.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/carelink/telemedicine/docs"
	"github.com/carelink/telemedicine/internal/api"
	"github.com/carelink/telemedicine/internal/api/handler"
	"github.com/carelink/telemedicine/internal/api/middleware"
	"github.com/carelink/telemedicine/internal/core/ports"
	"github.com/carelink/telemedicine/internal/core/service"
	"github.com/carelink/telemedicine/internal/infrastructure/db/memory"
	"github.com/carelink/telemedicine/internal/infrastructure/db/mongo"
	"github.com/carelink/telemedicine/internal/infrastructure/db/postgres"
	"github.com/carelink/telemedicine/internal/infrastructure/db/redis"
	"github.com/carelink/telemedicine/internal/infrastructure/queue"
	"github.com/carelink/telemedicine/internal/infrastructure/store"
	"github.com/carelink/telemedicine/internal/pkg/config"
	"github.com/carelink/telemedicine/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "telemedicine",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// backends holds what main opened and must close on shutdown.
type backends struct {
	kv          ports.KeyValueStore
	notifier    ports.Notifier
	idempotency ports.IdempotencyStore
	health      map[string]handler.Pinger
	closers     []func(context.Context) error
}

func (b *backends) close(ctx context.Context, log zerolog.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("close backend")
		}
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		b.close(closeCtx, log)
	}()

	st := store.New(b.kv, cfg.Store.Namespace, logger.Component("store"))

	seeder := service.NewBootstrap(st.Users, logger.Component("bootstrap"))
	if _, err := seeder.SeedDefaultUsers(ctx); err != nil {
		return fmt.Errorf("seed default users: %w", err)
	}

	workers, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher := queue.NewDispatcher(cfg.DispatcherWorkers, service.NewChangeBroadcaster(b.notifier, logger.Component("broadcaster")), logger.Component("dispatcher"))
	dispatcher.Start(workers)

	limiter := middleware.NewRateLimiter(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst)
	go limiter.Run(workers)

	streams, endStreams := context.WithCancel(context.Background())
	defer endStreams()

	e := api.NewRouter(api.Deps{
		BaseContext: streams,
		JWTSecret:   cfg.JWTSecret,
		Logger:      logger.Component("http"),
		Auth: service.NewAuthService(st.Users, st.Session, seeder, service.AuthOptions{
			JWTSecret:     cfg.JWTSecret,
			TokenTTL:      cfg.Auth.TokenTTL,
			HashPasswords: cfg.Auth.HashPasswords,
		}, logger.Component("auth")),
		Appointments:  service.NewAppointmentService(st.Appointments, st.Users, b.idempotency, dispatcher, logger.Component("appointments")),
		Prescriptions: service.NewPrescriptionService(st.Prescriptions, st.Appointments, dispatcher, logger.Component("prescriptions")),
		Chat:          service.NewChatService(st.Messages, st.Appointments, b.notifier, dispatcher, cfg.Chat.PollInterval, logger.Component("chat")),
		Dashboards:    service.NewDashboardService(st.Users, st.Appointments, st.Prescriptions, logger.Component("dashboard")),
		Availability:  service.NewAvailabilityService(st.Availability, logger.Component("availability")),
		RateLimiter:   limiter,
		Health:        b.health,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Str("notifier", cfg.Notifier.Driver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Shutdown does not cancel requests in flight; chat streams only end once
	// their base context is cancelled.
	endStreams()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	cancelWorkers()
	return nil
}

// openBackends connects the store and notifier drivers chosen in cfg. A
// single redis client is shared when both use redis.
func openBackends(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{health: make(map[string]handler.Pinger)}

	var rdb *goredis.Client
	redisClient := func() (*goredis.Client, error) {
		if rdb != nil {
			return rdb, nil
		}
		c, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rdb = c
		b.closers = append(b.closers, func(context.Context) error { return c.Close() })
		b.health["redis"] = redisPinger{c}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		return c, nil
	}

	fail := func(err error) (*backends, error) {
		b.close(context.Background(), log)
		return nil, err
	}

	switch cfg.Store.Driver {
	case config.DriverMemory:
		b.kv = memory.NewKV()
	case config.DriverRedis:
		c, err := redisClient()
		if err != nil {
			return fail(err)
		}
		b.kv = redis.NewKV(c)
	case config.DriverMongo:
		db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return fail(fmt.Errorf("connect mongo: %w", err))
		}
		kv := mongo.NewKV(db)
		b.kv = kv
		b.closers = append(b.closers, kv.Close)
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		kv := postgres.NewKV(pool)
		b.kv = kv
		b.closers = append(b.closers, kv.Close)
		log.Info().Msg("connected to postgres")
	}
	if cfg.Store.Driver != config.DriverRedis {
		b.health["store"] = b.kv
	}

	switch cfg.Notifier.Driver {
	case config.DriverRedis:
		c, err := redisClient()
		if err != nil {
			return fail(err)
		}
		b.notifier = redis.NewNotifier(c)
		b.idempotency = redis.NewIdempotencyStore(c, cfg.IdempotencyTTL)
	default:
		b.notifier = memory.NewNotifier()
		b.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}
	b.closers = append(b.closers, func(context.Context) error { return b.notifier.Close() })

	return b, nil
}

type redisPinger struct{ c *goredis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }
