package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/baechuer/contacts-api/internal/application/auth"
	"github.com/baechuer/contacts-api/internal/application/contacts"
	"github.com/baechuer/contacts-api/internal/audit"
	"github.com/baechuer/contacts-api/internal/config"
	"github.com/baechuer/contacts-api/internal/domain"
	"github.com/baechuer/contacts-api/internal/infrastructure/db/postgres"
	"github.com/baechuer/contacts-api/internal/infrastructure/email"
	"github.com/baechuer/contacts-api/internal/infrastructure/memory"
	"github.com/baechuer/contacts-api/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/contacts-api/internal/infrastructure/redis"
	"github.com/baechuer/contacts-api/internal/infrastructure/security"
	"github.com/baechuer/contacts-api/internal/infrastructure/storage"
	"github.com/baechuer/contacts-api/internal/infrastructure/workerpool"
	"github.com/baechuer/contacts-api/internal/logger"
	http_handlers "github.com/baechuer/contacts-api/internal/transport/http/handlers"
	"github.com/baechuer/contacts-api/internal/transport/http/middleware"
	"github.com/baechuer/contacts-api/internal/transport/http/response"
	"github.com/baechuer/contacts-api/internal/transport/http/router"
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

	// InitLogger is optional; tests leave it nil and keep the Nop logger.
	InitLogger func(level, format string)

	NewDB func(addr string, debug bool) (*sql.DB, error)

	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) RedisClient

	NewPublisher func(rabbitURL, exchange string) (MailPublisher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

type MailPublisher interface {
	auth.Mailer
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config + logging
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if deps.InitLogger != nil {
		deps.InitLogger(cfg.LogLevel, cfg.LogFormat)
	}
	lg := logger.Logger

	var cleanupFns []func()
	fail := func(err error) (*http.Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	pingers := map[string]http_handlers.Pinger{}

	// 1) stores: postgres when configured, in-memory otherwise
	var (
		userStore    auth.AccountStore
		contactStore contacts.ContactStore
	)
	if cfg.DBAddr != "" {
		db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return fail(err)
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if cfg.AutoMigrate && deps.Migrate != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			err := deps.Migrate(ctx, db)
			cancel()
			if err != nil {
				return fail(err)
			}
		}

		userStore = postgres.NewUserRepo(db)
		contactStore = postgres.NewContactRepo(db)
		pingers["postgres"] = http_handlers.PingFunc(db.PingContext)
	} else {
		lg.Warn().Msg("DB_ADDR not set; using in-memory store")
		userStore = memory.NewUserRepo()
		contactStore = memory.NewContactRepo()
	}

	// 2) redis (best-effort)
	var redisCli RedisClient
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()

		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable; using in-process rate limits")
			_ = c.Close()
		} else {
			lg.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			pingers["redis"] = http_handlers.PingFunc(c.Ping)
		}
	}

	// 3) mail transport
	var mailer auth.Mailer
	switch cfg.MailTransport {
	case "smtp":
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  cfg.MailTimeout,
			Insecure: cfg.SMTPInsecure,
		}, lg)
	case "rabbitmq":
		pub, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			if cfg.Env != "dev" {
				return fail(err)
			}
			lg.Warn().Err(err).Msg("rabbitmq unavailable; logging mail instead")
			mailer = email.NewLogSender(lg)
		} else {
			mailer = pub
			cleanupFns = append(cleanupFns, func() { _ = pub.Close() })
		}
	default:
		mailer = email.NewLogSender(lg)
	}

	pool := workerpool.New(cfg.MailWorkers, cfg.MailQueueSize)
	cleanupFns = append(cleanupFns, pool.Stop)

	// 4) security
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.TokenTTL)

	// 5) services
	auditLog := audit.New(lg)
	authSvc := auth.NewService(
		userStore,
		hasher,
		signer,
		security.NewRandomTokenGenerator(),
		mailer,
		pool,
		auth.Config{
			PublicBaseURL: cfg.PublicBaseURL,
			MailTimeout:   cfg.MailTimeout,
		},
	).WithLogger(lg).WithAudit(func(ctx context.Context, action string, fields map[string]string) {
		if action == "mail_dispatch_failed" {
			middleware.MailDispatchFailuresTotal.Inc()
		}
		auditLog.Record(ctx, action, fields)
	})
	contactSvc := contacts.NewService(contactStore)

	// 6) avatar storage
	var (
		avatars   http_handlers.AvatarStore
		avatarDir string
	)
	switch cfg.AvatarStorage {
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			UsePathStyle:    cfg.S3UsePathStyle,
			PublicBaseURL:   cfg.S3PublicURL,
		}, lg)
		cancel()
		if err != nil {
			return fail(err)
		}
		avatars = s3Store
	default:
		local, err := storage.NewLocalStore(cfg.AvatarDir, "/avatars", lg)
		if err != nil {
			return fail(err)
		}
		avatars = local
		avatarDir = local.Dir()
	}

	// 7) handlers + middleware
	usersH := http_handlers.NewUsersHandler(authSvc, avatars, cfg.AvatarMaxBytes)
	contactsH := http_handlers.NewContactsHandler(contactSvc)
	healthH := http_handlers.NewHealthHandler(pingers)

	authMW := middleware.Auth(authSvc, response.WriteError)

	// rate limit: shared redis window (fail-open), per-process window without redis
	var fwLimiter *redis.FixedWindowLimiter
	if c, ok := redisCli.(*redis.Client); ok {
		fwLimiter = redis.NewFixedWindowLimiter(c)
	}

	rl := func(key string, limit int) func(http.Handler) http.Handler {
		if limit <= 0 {
			return nil
		}
		if fwLimiter == nil {
			return httprate.Limit(
				limit,
				cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					middleware.RateLimitedTotal.WithLabelValues(key).Inc()
					response.WriteError(w, r, domain.ErrRateLimited(key))
				}),
			)
		}
		return middleware.RateLimitFixedWindow(
			fwLimiter,
			middleware.FixedWindowConfig{
				RouteKey: key,
				Limit:    limit,
				Window:   cfg.RateLimitWindow,
			},
			response.WriteError,
		)
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Health:   healthH,
		Users:    usersH,
		Contacts: contactsH,
		AuthMW:   authMW,

		RegisterLimit: rl("users.register", cfg.RegisterRateLimit),
		LoginLimit:    rl("users.login", cfg.LoginRateLimit),
		VerifyLimit:   rl("users.verify", cfg.VerifyRateLimit),

		AvatarDir: avatarDir,
	})
	if err != nil {
		return fail(err)
	}

	// 9) server
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

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		InitLogger: logger.Init,
		NewDB: func(addr string, debug bool) (*sql.DB, error) {
			return config.NewDB(addr, debug, logger.Logger)
		},
		Migrate: func(ctx context.Context, db *sql.DB) error {
			return postgres.Migrate(ctx, db, "up")
		},
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url, exchange string) (MailPublisher, error) {
			return rabbitmq.NewMailPublisher(url, exchange)
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
