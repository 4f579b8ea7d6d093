package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/access"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/audit"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/email"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/redis"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/logger"
	http_handlers "github.com/baechuer/real-time-ressys/services/user-service/internal/transport/http/handlers"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(addr string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) *redis.Client

	NewPublisher func(rabbitURL, exchange string) (user.Notifier, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type userStore interface {
	user.UserDirectory
	Ping(ctx context.Context) error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*http.Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 1) user store
	var users userStore
	switch cfg.UserStore {
	case config.StoreMemory:
		logger.Logger.Warn().Msg("using in-memory user store; data is lost on restart")
		users = memory.NewUserRepo()
	default:
		db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return fail(err)
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if cfg.DBAutoMigrate && deps.Migrate != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := deps.Migrate(ctx, db)
			cancel()
			if err != nil {
				return fail(fmt.Errorf("migrate: %w", err))
			}
			logger.Logger.Info().Msg("database migrated")
		}
		users = postgres.NewUserRepo(db)
	}

	// 2) security
	encoder := security.NewBcryptEncoder(cfg.BcryptCost)
	verifier := security.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)

	// seed (dev only)
	if cfg.Env == "dev" {
		postgres.SeedUsers(context.Background(), users, encoder)
	}

	// 3) redis (best-effort)
	var limiter middleware.RateLimiter
	var redisCli *redis.Client
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := c.Ping(context.Background()); err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable; in-process rate limiting")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			redisCli = c
			limiter = redis.NewFixedWindowLimiter(c)
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// 4) notifier
	notifier, err := buildNotifier(cfg, deps)
	if err != nil {
		return fail(err)
	}
	if c, ok := notifier.(interface{ Close() error }); ok {
		cleanupFns = append(cleanupFns, func() { _ = c.Close() })
	}

	// 5) service
	userSvc := user.NewService(
		users,
		encoder,
		security.NewOpaqueTokens(0),
		notifier,
		user.Config{PasswordResetBaseURL: cfg.PasswordResetBaseURL},
	).
		WithAudit(audit.New(logger.Logger)).
		WithOutcome(middleware.RecordPasswordReset)

	// 6) access policy
	policy := access.Default()
	for i, rule := range policy.Rules() {
		logger.Logger.Debug().Int("order", i+1).Str("pattern", rule.Pattern).Str("decision", rule.Decision.String()).Msg("access rule")
	}

	// 7) handlers
	checks := map[string]http_handlers.Pinger{"user_store": users}
	if redisCli != nil {
		checks["redis"] = redisCli
	}

	mux, err := deps.NewRouter(router.Deps{
		Health:        http_handlers.NewHealthHandler(checks),
		Users:         http_handlers.NewUserHandler(userSvc),
		Policy:        policy,
		Verifier:      verifier,
		ForgotLimiter: limiter,
		ForgotLimit: middleware.FixedWindowConfig{
			RouteKey: "forgot_password",
			Limit:    cfg.ForgotLimit,
			Window:   cfg.ForgotWindow,
		},
		TrustProxy: cfg.TrustProxy,
	})
	if err != nil {
		return fail(err)
	}

	// 8) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}
	return srv, cleanup, nil
}

func buildNotifier(cfg *config.Config, deps Deps) (user.Notifier, error) {
	switch cfg.Notifier {
	case config.NotifierSMTP:
		return email.NewSMTPNotifier(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.SMTP.Timeout,
			Insecure: cfg.SMTP.Insecure,
		}, logger.Logger), nil

	case config.NotifierRabbitMQ:
		pub, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err == nil {
			return pub, nil
		}
		if cfg.Env != "dev" {
			return nil, err
		}
		logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; using log notifier")
		return memory.NewLogNotifier(logger.Logger), nil

	default:
		return memory.NewLogNotifier(logger.Logger), nil
	}
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    postgres.Migrate,
		NewRedis:   redis.New,
		NewPublisher: func(url, exchange string) (user.Notifier, error) {
			pub, err := rabbitmq_pub.NewPublisher(url, exchange)
			if err != nil {
				return nil, err
			}
			return pub, nil
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
