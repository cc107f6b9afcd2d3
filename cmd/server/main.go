package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/datumlabs/totpgate/db/migrations"
	"github.com/datumlabs/totpgate/modules/twofactor"
	"github.com/datumlabs/totpgate/pkg/config"
	"github.com/datumlabs/totpgate/pkg/email"
	"github.com/datumlabs/totpgate/pkg/httpserver"
	"github.com/datumlabs/totpgate/pkg/jwt"
	"github.com/datumlabs/totpgate/pkg/logger"
	"github.com/datumlabs/totpgate/pkg/pg"
	"github.com/datumlabs/totpgate/pkg/redis"
	"github.com/datumlabs/totpgate/pkg/requestid"
	tfsvc "github.com/datumlabs/totpgate/svc/twofactor"
)

const (
	flagBackendMemory = "memory"
	flagBackendRedis  = "redis"
)

type appConfig struct {
	Name               string        `env:"APP_NAME" envDefault:"totpgate"`
	Env                string        `env:"APP_ENV" envDefault:"development"`
	SessionFlagBackend string        `env:"SESSION_FLAG_BACKEND" envDefault:"memory"`
	JanitorInterval    time.Duration `env:"TOTP_JANITOR_INTERVAL" envDefault:"5m"`
	CORSAllowOrigin    string        `env:"CORS_ALLOW_ORIGIN" envDefault:"*"`
}

func (c appConfig) Validate() error {
	switch c.SessionFlagBackend {
	case flagBackendMemory, flagBackendRedis:
	default:
		return errors.New("SESSION_FLAG_BACKEND must be memory or redis")
	}
	if c.JanitorInterval <= 0 {
		return errors.New("TOTP_JANITOR_INTERVAL must be positive")
	}
	return nil
}

func main() {
	var app appConfig
	config.MustLoad(&app)

	log := logger.New(
		logger.WithEnvironment(app.Env, app.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	slog.SetDefault(log)

	if err := run(context.Background(), app, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, app appConfig, log *slog.Logger) error {
	var (
		pgCfg     pg.Config
		redisCfg  redis.Config
		emailCfg  email.Config
		jwtCfg    jwt.Config
		tfCfg     tfsvc.Config
		moduleCfg twofactor.Config
		httpCfg   httpserver.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&pgCfg) },
		func() error { return config.Load(&emailCfg) },
		func() error { return config.Load(&jwtCfg) },
		func() error { return config.Load(&tfCfg) },
		func() error { return config.Load(&moduleCfg) },
		func() error { return config.Load(&httpCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if pgCfg.AutoMigrate {
		if err := pg.Migrate(ctx, pool, migrations.FS, pgCfg, log); err != nil {
			return err
		}
	}

	checks := map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)}

	var flags tfsvc.SessionFlags
	switch app.SessionFlagBackend {
	case flagBackendRedis:
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		flags = tfsvc.NewRedisSessionFlags(client, tfsvc.DefaultFlagPrefix)
		checks["redis"] = redis.Healthcheck(client)
	default:
		log.Warn("session flags kept in memory; verified sessions are lost on restart")
		flags = tfsvc.NewMemorySessionFlags()
	}

	sender, err := email.New(emailCfg)
	if err != nil {
		return err
	}
	notifier := email.NewNotifier(sender, emailCfg.AppName, email.WithNotifierLogger(log))
	defer notifier.Wait()

	svc, err := tfsvc.NewService(tfCfg, tfsvc.NewPGStore(pool), flags,
		tfsvc.WithLogger(log),
		tfsvc.WithNotifier(notifier),
	)
	if err != nil {
		return err
	}

	tokens, err := jwt.NewFromConfig(jwtCfg)
	if err != nil {
		return err
	}

	module := twofactor.New(moduleCfg, svc, tokens,
		twofactor.WithLogger(log),
		twofactor.WithEmailNotifications(true),
	)

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		requestid.Middleware,
		middleware.Recoverer,
		cors(app.CORSAllowOrigin),
	)
	r.Get("/healthz", httpserver.HealthCheckHandler(log, checks))
	r.Mount("/", module.Handle())

	purge := func(ctx context.Context) {
		if _, err := svc.PurgeExpiredSetups(ctx, time.Now()); err != nil {
			log.WarnContext(ctx, "setup purge failed", logger.Error(err))
		}
	}

	srv := httpserver.New(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithTask(httpserver.Every(app.JanitorInterval, purge)),
	)
	return srv.Run(ctx, r)
}
